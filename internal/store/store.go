// Package store persists accounts and the identity to channel address registry.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/xiaot623/gogo/alertlink/internal/domain"
)

// ErrAccountExists is returned when creating an account whose identity is taken.
var ErrAccountExists = errors.New("account already exists")

// Store defines the interface for data persistence.
type Store interface {
	// Account operations
	CreateAccount(ctx context.Context, account *domain.Account) error
	GetAccount(ctx context.Context, identity string) (*domain.Account, error)
	ListAccounts(ctx context.Context) ([]*domain.Account, error)
	SetAccountActive(ctx context.Context, identity string, active bool) error
	UpdatePasswordHash(ctx context.Context, identity, hash string) error
	TouchLastLogin(ctx context.Context, identity string, at time.Time) error

	// Address registry operations
	PutAddress(ctx context.Context, identity string, addr domain.Address, at time.Time) error
	GetAddress(ctx context.Context, identity string) (*domain.RegistryEntry, error)

	// Lifecycle
	Close() error
}

// Ensure SQLiteStore implements Store.
var _ Store = (*SQLiteStore)(nil)
