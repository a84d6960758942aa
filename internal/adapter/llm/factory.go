package llm

import (
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// ModeMock selects the mock client.
const ModeMock = "MOCK"

// NewLLMClient creates an LLM client for the configured mode.
// mode MOCK returns a MockClient; anything else returns a real Client.
func NewLLMClient(mode, baseURL, apiKey string, timeout time.Duration) LLMClient {
	if strings.EqualFold(mode, ModeMock) {
		log.Info().Msg("mock mode enabled, using mock LLM client")
		return NewMockClient()
	}

	return NewClient(baseURL, apiKey, timeout)
}
