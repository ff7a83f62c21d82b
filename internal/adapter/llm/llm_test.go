package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLLMClientMockMode(t *testing.T) {
	client := NewLLMClient("mock", "", "", time.Second, zerolog.Nop())
	_, ok := client.(*MockClient)
	assert.True(t, ok)

	client = NewLLMClient("", "http://localhost:1", "key", time.Second, zerolog.Nop())
	_, ok = client.(*openai.Client)
	assert.True(t, ok)
}

func TestMockClientEchoesLastUserMessage(t *testing.T) {
	resp, err := NewMockClient().CreateChatCompletion(context.Background(), openai.ChatCompletionRequest{
		Model: "m",
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: "sys"},
			{Role: openai.ChatMessageRoleUser, Content: "where is my order"},
		},
	})
	require.NoError(t, err)
	require.Len(t, resp.Choices, 1)
	assert.Contains(t, resp.Choices[0].Message.Content, `"where is my order"`)
	assert.Equal(t, "m", resp.Model)
}

func TestMockClientReplyOverride(t *testing.T) {
	m := &MockClient{Reply: func(openai.ChatCompletionRequest) (string, error) { return `{"ok":true}`, nil }}
	resp, err := m.CreateChatCompletion(context.Background(), openai.ChatCompletionRequest{})
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, resp.Choices[0].Message.Content)

	m.Reply = func(openai.ChatCompletionRequest) (string, error) { return "", errors.New("down") }
	_, err = m.CreateChatCompletion(context.Background(), openai.ChatCompletionRequest{})
	assert.EqualError(t, err, "down")
}
