package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/xiaot623/gogo/alertlink/internal/domain"
)

// Dispatch resolves the request's identity to its channel address, generates
// one advisory and sends it. The returned error carries one of the domain
// error classes.
func (s *Service) Dispatch(ctx context.Context, req *domain.AlertRequest) (*domain.AlertReceipt, error) {
	identity := req.TargetIdentity()
	if identity == "" {
		return nil, fmt.Errorf("%w: identity is required", domain.ErrBadRequest)
	}

	account, err := s.store.GetAccount(ctx, identity)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load account: %v", domain.ErrPersistence, err)
	}
	if account == nil || !account.Active {
		return nil, fmt.Errorf("%w: user %s not found or inactive", domain.ErrNotFound, identity)
	}

	addr, err := s.ResolveAddress(ctx, identity)
	if err != nil {
		return nil, err
	}
	if addr == nil {
		return nil, fmt.Errorf("%w: user %s has not linked a messaging channel yet", domain.ErrBadRequest, identity)
	}

	text, err := s.GenerateAdvisory(ctx, req.Profile(identity), req.Conditions())
	if err != nil {
		log.Error().Err(err).Str("identity", identity).Msg("advisory generation failed")
		return nil, err
	}

	if err := s.deliver(ctx, *addr, text); err != nil {
		log.Error().Err(err).Str("identity", identity).Str("address", addr.String()).Msg("alert delivery failed")
		return nil, err
	}

	log.Info().Str("identity", identity).Str("address", addr.String()).Msg("alert delivered")
	return &domain.AlertReceipt{
		OK:          true,
		Identity:    identity,
		Message:     fmt.Sprintf("alert sent to %s", identity),
		DeliveredAt: s.now(),
	}, nil
}

// deliver sends text once, bounded by the send timeout.
func (s *Service) deliver(ctx context.Context, addr domain.Address, text string) error {
	ctx, cancel := withTimeout(ctx, s.config.SendTimeout())
	defer cancel()

	if err := s.sender.Send(ctx, addr, text); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: send timed out", domain.ErrDelivery)
		}
		return fmt.Errorf("%w: %v", domain.ErrDelivery, err)
	}
	return nil
}
