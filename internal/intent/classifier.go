// Package intent maps message text to an intent and the tool that serves it.
package intent

import (
	"context"
	"strings"

	"github.com/xiaot623/gogo/deliveryagent/internal/domain"
)

// Classifier turns raw message text into an intent verdict. Implementations
// must always return a verdict.
type Classifier interface {
	Classify(ctx context.Context, text string) domain.IntentResult
}

type rule struct {
	keywords []string
	result   domain.IntentResult
}

// rules are evaluated in order; the first match wins.
var rules = []rule{
	{
		keywords: []string{"quote", "price", "cost", "how much"},
		result:   domain.IntentResult{Intent: domain.IntentGetQuote, Tool: "get_dropoff_quote", Confidence: 0.8},
	},
	{
		keywords: []string{"track", "status", "where is"},
		result:   domain.IntentResult{Intent: domain.IntentTrackOrder, Tool: "track_order", Confidence: 0.8},
	},
	{
		keywords: []string{"ping", "test", "hello"},
		result:   domain.IntentResult{Intent: domain.IntentTest, Tool: "ping", Confidence: 0.9},
	},
}

var generalIntent = domain.IntentResult{Intent: domain.IntentGeneral, Confidence: 0.5}

// RuleClassifier matches case-folded keywords as substrings.
type RuleClassifier struct{}

// NewRuleClassifier creates the keyword classifier.
func NewRuleClassifier() *RuleClassifier {
	return &RuleClassifier{}
}

var _ Classifier = (*RuleClassifier)(nil)

// Classify implements Classifier.
func (RuleClassifier) Classify(_ context.Context, text string) domain.IntentResult {
	lower := strings.ToLower(text)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				return r.result
			}
		}
	}
	return generalIntent
}
