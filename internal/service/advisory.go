package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xiaot623/gogo/alertlink/internal/domain"
)

// GenerateAdvisory produces the alert text for a recipient, bounded by the
// generation timeout. Any failure, timeout or empty text is ErrUpstream.
func (s *Service) GenerateAdvisory(ctx context.Context, profile domain.Profile, conditions domain.Conditions) (string, error) {
	ctx, cancel := withTimeout(ctx, s.config.GenerationTimeout())
	defer cancel()

	text, err := s.generator.Generate(ctx, profile, conditions)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: advisory generation timed out", domain.ErrUpstream)
		}
		return "", fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: advisory generator returned no text", domain.ErrUpstream)
	}
	return text, nil
}
