package store_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/gogo/alertlink/internal/domain"
	"github.com/xiaot623/gogo/alertlink/internal/store"
	"github.com/xiaot623/gogo/alertlink/tests/helpers"
)

func TestAccountLifecycle(t *testing.T) {
	ctx := context.Background()
	s := helpers.NewTestSQLiteStore(t)

	helpers.SeedAccount(t, s, "u@x.com", "s3cret!", "U", true)

	got, err := s.GetAccount(ctx, "u@x.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "U", got.DisplayName)
	assert.True(t, got.Active)
	assert.Nil(t, got.LastLoginAt)

	err = s.CreateAccount(ctx, &domain.Account{Identity: "u@x.com", PasswordHash: "x", Active: true})
	assert.True(t, errors.Is(err, store.ErrAccountExists), "got %v", err)

	require.NoError(t, s.SetAccountActive(ctx, "u@x.com", false))
	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, s.TouchLastLogin(ctx, "u@x.com", now))
	require.NoError(t, s.UpdatePasswordHash(ctx, "u@x.com", "new-hash"))

	got, err = s.GetAccount(ctx, "u@x.com")
	require.NoError(t, err)
	assert.False(t, got.Active)
	assert.Equal(t, "new-hash", got.PasswordHash)
	require.NotNil(t, got.LastLoginAt)
	assert.True(t, got.LastLoginAt.Equal(now))

	err = s.SetAccountActive(ctx, "nobody@x.com", true)
	assert.True(t, errors.Is(err, domain.ErrNotFound), "got %v", err)

	missing, err := s.GetAccount(ctx, "nobody@x.com")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestListAccounts(t *testing.T) {
	s := helpers.NewTestSQLiteStore(t)
	helpers.SeedAccount(t, s, "a@x.com", "secret1", "A", true)
	helpers.SeedAccount(t, s, "b@x.com", "secret2", "", false)

	accounts, err := s.ListAccounts(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "b@x.com", accounts[1].Name())
}

func TestPutAddressLastWriteWins(t *testing.T) {
	ctx := context.Background()
	s := helpers.NewTestSQLiteStore(t)
	helpers.SeedAccount(t, s, "u@x.com", "s3cret!", "U", true)

	entry, err := s.GetAddress(ctx, "u@x.com")
	require.NoError(t, err)
	assert.Nil(t, entry)

	first := domain.NewAddress(domain.ChannelTelegram, "111")
	second := domain.NewAddress(domain.ChannelWebSocket, "sess_222")
	require.NoError(t, s.PutAddress(ctx, "u@x.com", first, time.Now()))
	require.NoError(t, s.PutAddress(ctx, "u@x.com", first, time.Now()))
	require.NoError(t, s.PutAddress(ctx, "u@x.com", second, time.Now()))

	entry, err = s.GetAddress(ctx, "u@x.com")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, second, entry.Address)
}

func TestPutAddressConcurrentWriters(t *testing.T) {
	ctx := context.Background()
	s := helpers.NewTestSQLiteStore(t)
	helpers.SeedAccount(t, s, "u@x.com", "s3cret!", "U", true)

	var wg sync.WaitGroup
	written := make([]domain.Address, 8)
	for i := range written {
		written[i] = domain.NewAddress(domain.ChannelTelegram, fmt.Sprint(1000+i))
		wg.Add(1)
		go func(addr domain.Address) {
			defer wg.Done()
			assert.NoError(t, s.PutAddress(ctx, "u@x.com", addr, time.Now()))
		}(written[i])
	}
	wg.Wait()

	entry, err := s.GetAddress(ctx, "u@x.com")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Contains(t, written, entry.Address)
}

func TestPutAddressRequiresAccount(t *testing.T) {
	s := helpers.NewTestSQLiteStore(t)
	err := s.PutAddress(context.Background(), "ghost@x.com", domain.NewAddress(domain.ChannelTelegram, "1"), time.Now())
	assert.Error(t, err)
}

func TestMigrationsAreIdempotent(t *testing.T) {
	dsn := "file:" + t.TempDir() + "/alertlink.db?cache=shared&mode=rwc"

	first, err := store.NewSQLiteStore(dsn)
	require.NoError(t, err)
	helpers.SeedAccount(t, first, "u@x.com", "s3cret!", "U", true)
	require.NoError(t, first.Close())

	second, err := store.NewSQLiteStore(dsn)
	require.NoError(t, err)
	defer second.Close()

	got, err := second.GetAccount(context.Background(), "u@x.com")
	require.NoError(t, err)
	assert.NotNil(t, got)
}
