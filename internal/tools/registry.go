// Package tools holds the catalog of delivery tools exposed to the agent.
package tools

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/xiaot623/gogo/deliveryagent/internal/delivery"
	"github.com/xiaot623/gogo/deliveryagent/internal/domain"
	"github.com/xiaot623/gogo/deliveryagent/internal/observability"
)

// CredentialsError is returned by upstream tools when credentials are missing.
const CredentialsError = "Error: Senpex API credentials not configured. Please set SENPEX_CLIENT_ID and SENPEX_SECRET_ID environment variables."

// BindFunc performs a tool call with validated arguments. ok is false when
// the returned text describes a failure.
type BindFunc func(ctx context.Context, c *delivery.Client, args Args) (text string, ok bool)

// Definition describes one registered tool.
type Definition struct {
	Name        string
	Description string
	// Method and Path document the upstream endpoint; Path may hold
	// {param} placeholders. Local tools leave both empty.
	Method string
	Path   string
	Params []Param
	// Check runs tool-specific preconditions after schema validation.
	Check func(args Args) error
	Bind  BindFunc
}

// Upstream reports whether the tool calls the delivery API.
func (d *Definition) Upstream() bool {
	return d.Method != ""
}

// Info returns the catalog view of d.
func (d *Definition) Info() domain.ToolInfo {
	info := domain.ToolInfo{
		Name:        d.Name,
		Description: d.Description,
		Method:      d.Method,
		Path:        d.Path,
		Params:      make([]domain.ToolParamInfo, 0, len(d.Params)),
	}
	for _, p := range d.Params {
		info.Params = append(info.Params, domain.ToolParamInfo{
			Name:        p.Name,
			Type:        p.Type,
			Required:    p.Required,
			Default:     p.Default,
			Description: p.Description,
		})
	}
	return info
}

// Result is the outcome of one invocation.
type Result struct {
	Text string
	// Arguments are the resolved arguments, or the raw ones when
	// validation failed.
	Arguments map[string]any
	Outcome   string
}

// Registry stores tool definitions keyed by name. Definitions are
// registered at startup and never change afterwards.
type Registry struct {
	mu      sync.RWMutex
	defs    map[string]*Definition
	aliases map[string]string

	client  *delivery.Client
	logger  zerolog.Logger
	metrics *observability.Metrics
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the registry logger.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Registry) { r.logger = observability.Component(l, "tools") }
}

// WithMetrics records tool metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(r *Registry) { r.metrics = m }
}

// NewRegistry creates an empty registry bound to client.
func NewRegistry(client *delivery.Client, opts ...Option) *Registry {
	r := &Registry{
		defs:    make(map[string]*Definition),
		aliases: make(map[string]string),
		client:  client,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a tool definition.
func (r *Registry) Register(def Definition) error {
	if def.Name == "" {
		return fmt.Errorf("tool name is required")
	}
	if def.Bind == nil {
		return fmt.Errorf("binding is required for %s", def.Name)
	}
	if err := checkParams(def.Params); err != nil {
		return fmt.Errorf("tool %s: %w", def.Name, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.defs[def.Name]; exists {
		return fmt.Errorf("tool already registered: %s", def.Name)
	}
	if _, exists := r.aliases[def.Name]; exists {
		return fmt.Errorf("tool already registered: %s", def.Name)
	}
	r.defs[def.Name] = &def
	return nil
}

// Alias makes alias resolve to the registered tool target.
func (r *Registry) Alias(alias, target string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.defs[target]; !ok {
		return fmt.Errorf("unknown alias target: %s", target)
	}
	if _, exists := r.defs[alias]; exists {
		return fmt.Errorf("tool already registered: %s", alias)
	}
	r.aliases[alias] = target
	return nil
}

// MustRegister adds a definition or panics.
func (r *Registry) MustRegister(def Definition) {
	if err := r.Register(def); err != nil {
		panic(err)
	}
}

// Lookup returns the definition for name, following aliases.
func (r *Registry) Lookup(name string) (*Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if target, ok := r.aliases[name]; ok {
		name = target
	}
	def, ok := r.defs[name]
	return def, ok
}

// ListDefinitions returns the catalog sorted by name.
func (r *Registry) ListDefinitions() []domain.ToolInfo {
	r.mu.RLock()
	out := make([]domain.ToolInfo, 0, len(r.defs))
	for _, def := range r.defs {
		out = append(out, def.Info())
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Names returns every invocable name, aliases included, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	out := make([]string, 0, len(r.defs)+len(r.aliases))
	for name := range r.defs {
		out = append(out, name)
	}
	for alias := range r.aliases {
		out = append(out, alias)
	}
	r.mu.RUnlock()
	sort.Strings(out)
	return out
}

// Invoke runs the named tool and returns its result text. It never fails:
// every error is rendered as text.
func (r *Registry) Invoke(ctx context.Context, name string, args map[string]any) string {
	return r.Execute(ctx, name, args).Text
}

// Execute runs the named tool and reports the resolved arguments and
// outcome alongside the text.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (res Result) {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, "tool."+name, attribute.String("tool.name", name))
	res = Result{Arguments: domain.CloneArgs(args), Outcome: observability.OutcomeError}

	defer func() {
		if rec := recover(); rec != nil {
			res.Text = fmt.Sprintf("Error: tool %s failed: %v", name, rec)
			res.Outcome = observability.OutcomeError
			r.logger.Error().Str("tool", name).Interface("panic", rec).Msg("tool panicked")
		}
		if res.Outcome != observability.OutcomeSuccess {
			span.SetStatus(codes.Error, res.Outcome)
		}
		span.SetAttributes(attribute.String("tool.outcome", res.Outcome))
		span.End()

		elapsed := time.Since(start)
		r.metrics.ObserveTool(name, res.Outcome, elapsed)
		r.logger.Info().
			Str("tool", name).
			Str("outcome", res.Outcome).
			Dur("duration", elapsed).
			Msg("tool invoked")
	}()

	def, ok := r.Lookup(name)
	if !ok {
		res.Text = fmt.Sprintf("Error: unknown tool %q", name)
		return res
	}
	if def.Upstream() && (r.client == nil || !r.client.Configured()) {
		res.Text = CredentialsError
		return res
	}

	resolved, err := resolve(def.Params, args)
	if err != nil {
		res.Text = fmt.Sprintf("Error: invalid arguments for %s: %v", def.Name, err)
		return res
	}
	res.Arguments = map[string]any(resolved)
	if def.Check != nil {
		if err := def.Check(resolved); err != nil {
			res.Text = "Error: " + err.Error()
			return res
		}
	}

	text, ok := def.Bind(ctx, r.client, resolved)
	res.Text = text
	if ok {
		res.Outcome = observability.OutcomeSuccess
	}
	return res
}

// upstreamFailure renders a Do error the way tools surface it.
func upstreamFailure(doing string, err error) string {
	var httpErr *delivery.HTTPError
	if errors.As(err, &httpErr) {
		return "Error: " + httpErr.Error()
	}
	if errors.Is(err, delivery.ErrNotConfigured) {
		return CredentialsError
	}
	return fmt.Sprintf("Error %s: %v", doing, err)
}
