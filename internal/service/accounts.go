package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/xiaot623/gogo/alertlink/internal/domain"
	"github.com/xiaot623/gogo/alertlink/internal/store"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 6

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// RegisterAccount creates an active account.
func (s *Service) RegisterAccount(ctx context.Context, identity, password, displayName string) (*domain.Account, error) {
	identity = domain.NormalizeIdentity(identity)
	if !emailPattern.MatchString(identity) {
		return nil, fmt.Errorf("%w: invalid email address %q", domain.ErrBadRequest, identity)
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	account := &domain.Account{
		Identity:     identity,
		PasswordHash: hash,
		DisplayName:  strings.TrimSpace(displayName),
		Active:       true,
		CreatedAt:    s.now(),
	}
	if err := s.store.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, store.ErrAccountExists) {
			return nil, fmt.Errorf("%w: %s is already registered", domain.ErrBadRequest, identity)
		}
		return nil, fmt.Errorf("%w: failed to create account: %v", domain.ErrPersistence, err)
	}

	log.Info().Str("identity", identity).Msg("account registered")
	return account, nil
}

// GetAccount returns an account, or ErrNotFound.
func (s *Service) GetAccount(ctx context.Context, identity string) (*domain.Account, error) {
	identity = domain.NormalizeIdentity(identity)
	account, err := s.store.GetAccount(ctx, identity)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load account: %v", domain.ErrPersistence, err)
	}
	if account == nil {
		return nil, fmt.Errorf("%w: account %s", domain.ErrNotFound, identity)
	}
	return account, nil
}

// ListAccounts returns every account.
func (s *Service) ListAccounts(ctx context.Context) ([]*domain.Account, error) {
	accounts, err := s.store.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list accounts: %v", domain.ErrPersistence, err)
	}
	return accounts, nil
}

// SetAccountActive activates or deactivates an account. Inactive accounts
// cannot log in and cannot receive alerts.
func (s *Service) SetAccountActive(ctx context.Context, identity string, active bool) error {
	identity = domain.NormalizeIdentity(identity)
	if err := s.store.SetAccountActive(ctx, identity, active); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return fmt.Errorf("%w: failed to update account: %v", domain.ErrPersistence, err)
	}
	log.Info().Str("identity", identity).Bool("active", active).Msg("account status changed")
	return nil
}

// ChangePassword replaces the password after checking the current one.
func (s *Service) ChangePassword(ctx context.Context, identity, current, next string) error {
	account, err := s.GetAccount(ctx, identity)
	if err != nil {
		return err
	}
	if !CheckPasswordHash(current, account.PasswordHash) {
		return domain.ErrUnauthenticated
	}
	if err := validatePassword(next); err != nil {
		return err
	}

	hash, err := HashPassword(next)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.store.UpdatePasswordHash(ctx, account.Identity, hash); err != nil {
		return fmt.Errorf("%w: failed to update password: %v", domain.ErrPersistence, err)
	}
	log.Info().Str("identity", account.Identity).Msg("password changed")
	return nil
}

// validatePassword enforces the minimum length. Surrounding whitespace is
// rejected because the conversational login trims what the user types.
func validatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", domain.ErrBadRequest, MinPasswordLength)
	}
	if strings.TrimSpace(password) != password {
		return fmt.Errorf("%w: password must not start or end with whitespace", domain.ErrBadRequest)
	}
	return nil
}
