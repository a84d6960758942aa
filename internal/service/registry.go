package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/xiaot623/gogo/alertlink/internal/domain"
)

// PersistChannelAddress records addr as where identity receives alerts.
// Repeated calls are idempotent and the last write wins.
func (s *Service) PersistChannelAddress(ctx context.Context, identity string, addr domain.Address) error {
	identity = domain.NormalizeIdentity(identity)
	if identity == "" || addr.IsZero() {
		return fmt.Errorf("%w: identity and address are required", domain.ErrBadRequest)
	}

	if err := s.store.PutAddress(ctx, identity, addr, s.now()); err != nil {
		return fmt.Errorf("%w: failed to save channel address: %v", domain.ErrPersistence, err)
	}

	log.Info().Str("identity", identity).Str("address", addr.String()).Msg("channel address linked")
	return nil
}

// ResolveAddress returns the channel address linked to identity, or nil when
// the identity has not linked a channel yet.
func (s *Service) ResolveAddress(ctx context.Context, identity string) (*domain.Address, error) {
	entry, err := s.store.GetAddress(ctx, domain.NormalizeIdentity(identity))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load channel address: %v", domain.ErrPersistence, err)
	}
	if entry == nil {
		return nil, nil
	}
	return &entry.Address, nil
}
