// Package service implements the account linking and alert dispatch logic.
package service

import (
	"context"
	"sync"
	"time"

	"github.com/xiaot623/gogo/alertlink/internal/advisory"
	"github.com/xiaot623/gogo/alertlink/internal/channel"
	"github.com/xiaot623/gogo/alertlink/internal/config"
	"github.com/xiaot623/gogo/alertlink/internal/store"
)

// Service ties the store, advisory generator and channel transports together.
type Service struct {
	store     store.Store
	generator advisory.Generator
	sender    channel.Sender
	config    *config.Config

	now func() time.Time

	dummyOnce sync.Once
	dummyHash []byte
}

// New creates a new service.
func New(store store.Store, generator advisory.Generator, sender channel.Sender, cfg *config.Config) *Service {
	return &Service{
		store:     store,
		generator: generator,
		sender:    sender,
		config:    cfg,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// withTimeout bounds ctx by d; a non-positive d leaves ctx unbounded.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
