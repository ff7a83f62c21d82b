package llm

import (
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ModeMock selects the mock client.
const ModeMock = "MOCK"

// NewLLMClient creates a client for mode. MOCK returns a MockClient;
// anything else returns a real client.
func NewLLMClient(mode, baseURL, apiKey string, timeout time.Duration, logger zerolog.Logger) LLMClient {
	if strings.EqualFold(mode, ModeMock) {
		logger.Info().Msg("mock LLM mode, using mock chat client")
		return NewMockClient()
	}
	return NewClient(baseURL, apiKey, timeout)
}
