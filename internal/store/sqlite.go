package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/xiaot623/gogo/alertlink/internal/domain"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens the database at dsn and applies migrations.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", withForeignKeys(dsn))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// For in-memory SQLite, multiple connections create separate databases.
	// Keep a single connection to avoid schema/data disappearing across goroutines.
	if strings.HasPrefix(dsn, ":memory:") || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// withForeignKeys enables foreign keys on every pooled connection.
func withForeignKeys(dsn string) string {
	if strings.Contains(dsn, "_foreign_keys=") || strings.Contains(dsn, "_fk=") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&_foreign_keys=on"
	}
	return dsn + "?_foreign_keys=on"
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateAccount inserts a new account.
func (s *SQLiteStore) CreateAccount(ctx context.Context, account *domain.Account) error {
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO accounts (identity, password_hash, display_name, active, created_at) VALUES (?, ?, ?, ?, ?)`,
		account.Identity, account.PasswordHash, account.DisplayName, account.Active, account.CreatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s", ErrAccountExists, account.Identity)
	}
	return err
}

// GetAccount retrieves an account by identity. It returns nil, nil when absent.
func (s *SQLiteStore) GetAccount(ctx context.Context, identity string) (*domain.Account, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT identity, password_hash, display_name, active, created_at, last_login_at FROM accounts WHERE identity = ?`,
		identity)
	account, err := scanAccount(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return account, nil
}

// ListAccounts returns all accounts ordered by creation time.
func (s *SQLiteStore) ListAccounts(ctx context.Context) ([]*domain.Account, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT identity, password_hash, display_name, active, created_at, last_login_at FROM accounts ORDER BY created_at, identity`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []*domain.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

// SetAccountActive flips the active flag of an account.
func (s *SQLiteStore) SetAccountActive(ctx context.Context, identity string, active bool) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE accounts SET active = ? WHERE identity = ?`, active, identity)
	if err != nil {
		return err
	}
	return expectOneRow(result, identity)
}

// UpdatePasswordHash replaces the stored password hash.
func (s *SQLiteStore) UpdatePasswordHash(ctx context.Context, identity, hash string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE accounts SET password_hash = ? WHERE identity = ?`, hash, identity)
	if err != nil {
		return err
	}
	return expectOneRow(result, identity)
}

// TouchLastLogin records a successful login.
func (s *SQLiteStore) TouchLastLogin(ctx context.Context, identity string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE accounts SET last_login_at = ? WHERE identity = ?`, at, identity)
	return err
}

// PutAddress records addr as the channel address of identity, replacing any
// previous value. The upsert is a single statement so concurrent writers
// resolve to whichever commits last.
func (s *SQLiteStore) PutAddress(ctx context.Context, identity string, addr domain.Address, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO channel_addresses (identity, address, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(identity) DO UPDATE SET address = excluded.address, updated_at = excluded.updated_at`,
		identity, addr.String(), at)
	return err
}

// GetAddress returns the registry entry for identity, or nil, nil when the
// identity has never linked a channel.
func (s *SQLiteStore) GetAddress(ctx context.Context, identity string) (*domain.RegistryEntry, error) {
	var entry domain.RegistryEntry
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT identity, address, updated_at FROM channel_addresses WHERE identity = ?`,
		identity).Scan(&entry.Identity, &raw, &entry.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	addr, err := domain.ParseAddress(raw)
	if err != nil {
		return nil, err
	}
	entry.Address = addr
	return &entry, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*domain.Account, error) {
	var account domain.Account
	var lastLogin sql.NullTime
	if err := row.Scan(&account.Identity, &account.PasswordHash, &account.DisplayName,
		&account.Active, &account.CreatedAt, &lastLogin); err != nil {
		return nil, err
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		account.LastLoginAt = &t
	}
	return &account, nil
}

func expectOneRow(result sql.Result, identity string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: account %s", domain.ErrNotFound, identity)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}
