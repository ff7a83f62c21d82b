package llm

import (
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// NewClient creates a go-openai client. An empty baseURL keeps the
// library default.
func NewClient(baseURL, apiKey string, timeout time.Duration) *openai.Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	config.HTTPClient = &http.Client{Timeout: timeout}
	return openai.NewClientWithConfig(config)
}
