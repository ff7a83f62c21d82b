// Package service implements the agent orchestrator: session handling,
// intent routing, tool invocation and the tool audit log.
package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/xiaot623/gogo/deliveryagent/internal/domain"
	"github.com/xiaot623/gogo/deliveryagent/internal/intent"
	"github.com/xiaot623/gogo/deliveryagent/internal/observability"
	"github.com/xiaot623/gogo/deliveryagent/internal/repository"
	"github.com/xiaot623/gogo/deliveryagent/internal/tools"
	"github.com/xiaot623/gogo/deliveryagent/policy"
)

// ToolRunner executes catalog tools. *tools.Registry implements it.
type ToolRunner interface {
	Execute(ctx context.Context, name string, args map[string]any) tools.Result
	ListDefinitions() []domain.ToolInfo
}

// ArgumentExtractor builds tool arguments from message text.
type ArgumentExtractor interface {
	Extract(toolName, text string) map[string]any
}

// PolicyGate decides whether a tool invocation may run. *policy.Engine
// implements it.
type PolicyGate interface {
	Evaluate(ctx context.Context, in policy.Input) (policy.Decision, error)
}

// Options carries the optional collaborators of a Service.
type Options struct {
	Logger  zerolog.Logger
	Metrics *observability.Metrics
	Policy  PolicyGate
	// SessionIdleTTL enables the idle sweeper when positive.
	SessionIdleTTL time.Duration
	// SweepInterval overrides the sweeper tick.
	SweepInterval time.Duration
	Now           func() time.Time
}

type Service struct {
	store      repository.Store
	tools      ToolRunner
	classifier intent.Classifier
	extractor  ArgumentExtractor
	policy     PolicyGate

	locks   *keyLock
	logger  zerolog.Logger
	metrics *observability.Metrics

	idleTTL       time.Duration
	sweepInterval time.Duration
	now           func() time.Time
}

func New(store repository.Store, toolRunner ToolRunner, classifier intent.Classifier, extractor ArgumentExtractor, opts Options) *Service {
	s := &Service{
		store:         store,
		tools:         toolRunner,
		classifier:    classifier,
		extractor:     extractor,
		policy:        opts.Policy,
		locks:         newKeyLock(),
		logger:        observability.Component(opts.Logger, "service"),
		metrics:       opts.Metrics,
		idleTTL:       opts.SessionIdleTTL,
		sweepInterval: opts.SweepInterval,
		now:           opts.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.sweepInterval <= 0 {
		s.sweepInterval = time.Minute
	}
	return s
}
