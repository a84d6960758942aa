package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/xiaot623/gogo/alertlink/internal/domain"
)

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPasswordHash reports whether password matches hash.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// ValidateCredentials checks identity and secret against the credential store.
//
// Unknown identities, inactive accounts and wrong secrets all return the same
// ErrUnauthenticated. Store failures return ErrPersistence; they never
// authenticate anyone.
func (s *Service) ValidateCredentials(ctx context.Context, identity, secret string) (*domain.Account, error) {
	identity = domain.NormalizeIdentity(identity)

	account, err := s.store.GetAccount(ctx, identity)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load account: %v", domain.ErrPersistence, err)
	}

	if account == nil {
		// Spend the same bcrypt work as a real comparison.
		_ = bcrypt.CompareHashAndPassword(s.dummyPasswordHash(), []byte(secret))
		return nil, domain.ErrUnauthenticated
	}
	if !CheckPasswordHash(secret, account.PasswordHash) || !account.Active {
		return nil, domain.ErrUnauthenticated
	}

	now := s.now()
	if err := s.store.TouchLastLogin(ctx, identity, now); err != nil {
		log.Warn().Err(err).Str("identity", identity).Msg("failed to record last login")
	} else {
		account.LastLoginAt = &now
	}
	return account, nil
}

func (s *Service) dummyPasswordHash() []byte {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("alertlink-dummy-password"), bcrypt.DefaultCost)
	})
	return s.dummyHash
}
