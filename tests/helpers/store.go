package helpers

import (
	"context"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/xiaot623/gogo/alertlink/internal/domain"
	"github.com/xiaot623/gogo/alertlink/internal/store"
)

func NewTestSQLiteStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create sqlite store: %v", err)
	}

	t.Cleanup(func() {
		_ = s.Close()
	})

	return s
}

// SeedAccount inserts an account with the given password.
func SeedAccount(t *testing.T, s store.Store, identity, password, displayName string, active bool) *domain.Account {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	account := &domain.Account{
		Identity:     identity,
		PasswordHash: string(hash),
		DisplayName:  displayName,
		Active:       active,
	}
	if err := s.CreateAccount(context.Background(), account); err != nil {
		t.Fatalf("failed to seed account: %v", err)
	}
	return account
}
