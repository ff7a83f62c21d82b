// Package llm provides an abstraction for chat-completion clients.
package llm

import (
	"context"

	openai "github.com/sashabaranov/go-openai"
)

// LLMClient defines the chat-completion operation the agent needs.
// *openai.Client satisfies it directly.
type LLMClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Ensure the go-openai client implements LLMClient.
var _ LLMClient = (*openai.Client)(nil)
