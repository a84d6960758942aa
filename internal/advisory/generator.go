// Package advisory turns a recipient profile and environmental conditions
// into the text of an alert.
package advisory

import (
	"context"
	"errors"
	"fmt"

	"github.com/xiaot623/gogo/alertlink/internal/adapter/llm"
	"github.com/xiaot623/gogo/alertlink/internal/domain"
	"github.com/xiaot623/gogo/alertlink/internal/policy"
)

// ErrEmptyAdvisory is returned when the model produced no usable text.
var ErrEmptyAdvisory = errors.New("empty advisory")

// Generator produces advisory text.
type Generator interface {
	Generate(ctx context.Context, profile domain.Profile, conditions domain.Conditions) (string, error)
}

// GuidanceSource picks the audience guidance for a user type.
type GuidanceSource interface {
	Guidance(ctx context.Context, userType string) (*policy.Guidance, error)
}

// LLMGenerator writes advisories with a chat completion model.
type LLMGenerator struct {
	client   llm.LLMClient
	guidance GuidanceSource
	model    string
}

// Ensure LLMGenerator implements Generator.
var _ Generator = (*LLMGenerator)(nil)

// NewLLMGenerator creates a generator backed by client.
func NewLLMGenerator(client llm.LLMClient, guidance GuidanceSource, model string) *LLMGenerator {
	return &LLMGenerator{
		client:   client,
		guidance: guidance,
		model:    model,
	}
}

// Generate asks the model for one advisory. The caller bounds ctx.
func (g *LLMGenerator) Generate(ctx context.Context, profile domain.Profile, conditions domain.Conditions) (string, error) {
	guidance, err := g.guidance.Guidance(ctx, string(profile.UserType))
	if err != nil {
		return "", fmt.Errorf("failed to select audience: %w", err)
	}

	resp, err := g.client.CreateChatCompletion(ctx, &llm.ChatCompletionRequest{
		Model:    g.model,
		Messages: buildPrompt(guidance, conditions),
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate advisory: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", ErrEmptyAdvisory
	}
	return text, nil
}
