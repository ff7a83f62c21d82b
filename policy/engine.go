// Package policy gates tool invocations with an OPA/Rego policy.
package policy

import (
	"context"
	"fmt"
	"os"

	"github.com/open-policy-agent/opa/rego"
)

const (
	DecisionAllow = "allow"
	DecisionBlock = "block"
)

// Input is what the policy sees for one tool invocation.
type Input struct {
	ToolName  string
	Args      map[string]any
	SessionID string
	UserID    string
	Intent    string
}

// Decision is the policy verdict.
type Decision struct {
	Decision string
	Reason   string
}

// Allowed reports whether the invocation may proceed.
func (d Decision) Allowed() bool {
	return d.Decision == DecisionAllow
}

// Engine is the OPA policy engine.
type Engine struct {
	query rego.PreparedEvalQuery
}

// NewEngine creates a new policy engine with the given policy content. The
// module must define data.tool_policy.decision as a string or as an object
// with decision and reason keys.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.tool_policy.decision"),
		rego.Module("tool_policy.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// NewEngineFromFile loads the policy at path, or DefaultPolicy when path
// is empty.
func NewEngineFromFile(ctx context.Context, path string) (*Engine, error) {
	if path == "" {
		return NewEngine(ctx, DefaultPolicy)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}
	return NewEngine(ctx, string(content))
}

// Evaluate checks the tool policy.
func (e *Engine) Evaluate(ctx context.Context, in Input) (Decision, error) {
	args := in.Args
	if args == nil {
		args = map[string]any{}
	}
	input := map[string]any{
		"tool_name":  in.ToolName,
		"args":       args,
		"session_id": in.SessionID,
		"user_id":    in.UserID,
		"intent":     in.Intent,
	}

	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return Decision{}, fmt.Errorf("failed to evaluate policy: %w", err)
	}

	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return Decision{Decision: DecisionAllow, Reason: "default"}, nil
	}

	switch val := results[0].Expressions[0].Value.(type) {
	case string:
		return Decision{Decision: val}, nil
	case map[string]any:
		d := Decision{}
		d.Decision, _ = val["decision"].(string)
		d.Reason, _ = val["reason"].(string)
		if d.Decision == "" {
			return Decision{}, fmt.Errorf("policy decision object has no decision")
		}
		return d, nil
	default:
		return Decision{}, fmt.Errorf("unexpected policy result type %T", val)
	}
}

// DefaultPolicy allows every tool.
const DefaultPolicy = `
package tool_policy

import rego.v1

default decision := "allow"
`
