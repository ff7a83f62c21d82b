package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"github.com/xiaot623/gogo/deliveryagent/internal/adapter/llm"
	"github.com/xiaot623/gogo/deliveryagent/internal/domain"
)

const systemPrompt = `You classify messages sent to a delivery assistant.
Reply with a single JSON object and nothing else:
{"intent": "<label>", "tool": "<tool name or empty>", "confidence": <0..1>}
Labels: get_quote (price or quote questions, tool get_dropoff_quote),
track_order (tracking or status questions, tool track_order),
test (greetings or connectivity checks, tool ping),
general (anything else, empty tool).`

// LLMClassifier asks a chat model for the verdict and falls back to another
// classifier on any failure or unusable reply.
type LLMClassifier struct {
	client   llm.LLMClient
	model    string
	fallback Classifier
	tools    map[string]bool
	logger   zerolog.Logger
}

// NewLLMClassifier creates a model-backed classifier. knownTools limits the
// tools a verdict may select.
func NewLLMClassifier(client llm.LLMClient, model string, knownTools []string, fallback Classifier, logger zerolog.Logger) *LLMClassifier {
	if fallback == nil {
		fallback = NewRuleClassifier()
	}
	tools := make(map[string]bool, len(knownTools))
	for _, name := range knownTools {
		tools[name] = true
	}
	return &LLMClassifier{
		client:   client,
		model:    model,
		fallback: fallback,
		tools:    tools,
		logger:   logger.With().Str("component", "intent").Logger(),
	}
}

var _ Classifier = (*LLMClassifier)(nil)

// Classify implements Classifier.
func (c *LLMClassifier) Classify(ctx context.Context, text string) domain.IntentResult {
	result, err := c.ask(ctx, text)
	if err != nil {
		c.logger.Warn().Err(err).Msg("llm classification failed, using rules")
		return c.fallback.Classify(ctx, text)
	}
	return result
}

func (c *LLMClassifier) ask(ctx context.Context, text string) (domain.IntentResult, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
	})
	if err != nil {
		return domain.IntentResult{}, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return domain.IntentResult{}, fmt.Errorf("empty completion")
	}
	return c.parse(resp.Choices[0].Message.Content)
}

var validIntents = map[string]bool{
	domain.IntentGetQuote:   true,
	domain.IntentTrackOrder: true,
	domain.IntentTest:       true,
	domain.IntentGeneral:    true,
}

func (c *LLMClassifier) parse(content string) (domain.IntentResult, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var result domain.IntentResult
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &result); err != nil {
		return domain.IntentResult{}, fmt.Errorf("malformed verdict: %w", err)
	}
	if !validIntents[result.Intent] {
		return domain.IntentResult{}, fmt.Errorf("unknown intent %q", result.Intent)
	}
	if result.Tool != "" && !c.tools[result.Tool] {
		return domain.IntentResult{}, fmt.Errorf("unknown tool %q", result.Tool)
	}
	if result.Confidence < 0 || result.Confidence > 1 {
		return domain.IntentResult{}, fmt.Errorf("confidence %v out of range", result.Confidence)
	}
	return result, nil
}
