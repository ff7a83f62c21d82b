package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/xiaot623/gogo/deliveryagent/internal/domain"
	"github.com/xiaot623/gogo/deliveryagent/internal/observability"
	"github.com/xiaot623/gogo/deliveryagent/internal/tools"
	"github.com/xiaot623/gogo/deliveryagent/policy"
)

// ProcessMessage runs one message through the agent. The only error for a
// well-formed request is domain.ErrSessionNotFound; tool failures come back
// as response text. Empty text is classified like any other message.
func (s *Service) ProcessMessage(ctx context.Context, req domain.MessageRequest) (*domain.MessageResponse, error) {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, "agent.process_message")
	defer span.End()

	sessionID := req.SessionID
	if sessionID == "" {
		session, err := s.CreateSession(ctx, req.UserID)
		if err != nil {
			return nil, err
		}
		sessionID = session.SessionID
	}
	span.SetAttributes(attribute.String("session.id", sessionID))

	unlock := s.locks.Lock(sessionID)
	defer unlock()

	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.AppendMessage(ctx, sessionID, domain.RoleUser, req.Message); err != nil {
		return nil, fmt.Errorf("failed to append user message: %w", err)
	}

	verdict := s.classifier.Classify(ctx, req.Message)
	span.SetAttributes(
		attribute.String("intent", verdict.Intent),
		attribute.String("tool", verdict.Tool),
	)

	resp := &domain.MessageResponse{SessionID: sessionID}
	if verdict.HasTool() {
		inv := s.invokeTool(ctx, session, verdict, req.Message)
		resp.Response = inv.Result
		resp.ToolCalls = []domain.ToolInvocation{inv}
	} else {
		resp.Response = fmt.Sprintf("I understand you're asking about: %s. How can I help you with delivery services?", req.Message)
	}

	if _, err := s.store.AppendMessage(ctx, sessionID, domain.RoleAssistant, resp.Response); err != nil {
		return nil, fmt.Errorf("failed to append assistant message: %w", err)
	}
	resp.Timestamp = s.now()

	s.metrics.ObserveMessage(verdict.Intent)
	s.logger.Info().
		Str("session_id", sessionID).
		Str("intent", verdict.Intent).
		Str("tool", verdict.Tool).
		Float64("confidence", verdict.Confidence).
		Dur("duration", time.Since(start)).
		Msg("message processed")
	return resp, nil
}

// invokeTool runs the selected tool and appends the audit record. It never
// fails; problems surface in the record's result text.
func (s *Service) invokeTool(ctx context.Context, session *domain.Session, verdict domain.IntentResult, text string) domain.ToolInvocation {
	args := s.extractor.Extract(verdict.Tool, text)

	var result tools.Result
	if blocked, reason := s.checkPolicy(ctx, session, verdict, args); blocked {
		result = tools.Result{
			Text:      fmt.Sprintf("Tool %s blocked by policy: %s", verdict.Tool, reason),
			Arguments: args,
			Outcome:   observability.OutcomeBlocked,
		}
		s.metrics.ObserveTool(verdict.Tool, observability.OutcomeBlocked, 0)
	} else {
		result = s.tools.Execute(ctx, verdict.Tool, args)
	}

	inv := domain.ToolInvocation{
		ID:        "tc_" + uuid.New().String(),
		ToolName:  verdict.Tool,
		Arguments: result.Arguments,
		Result:    result.Text,
		Timestamp: s.now(),
		SessionID: session.SessionID,
	}
	if err := s.store.RecordToolInvocation(ctx, &inv); err != nil {
		s.logger.Error().Err(err).Str("tool", inv.ToolName).Str("session_id", session.SessionID).Msg("failed to record tool invocation")
	} else if n, err := s.store.CountToolInvocations(ctx); err == nil {
		s.metrics.SetToolLogEntries(n)
	}
	return inv
}

// checkPolicy consults the policy gate. Evaluation errors block the call.
func (s *Service) checkPolicy(ctx context.Context, session *domain.Session, verdict domain.IntentResult, args map[string]any) (bool, string) {
	if s.policy == nil {
		return false, ""
	}
	decision, err := s.policy.Evaluate(ctx, policy.Input{
		ToolName:  verdict.Tool,
		Args:      args,
		SessionID: session.SessionID,
		UserID:    session.UserID,
		Intent:    verdict.Intent,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("tool", verdict.Tool).Msg("policy evaluation failed")
		return true, "policy evaluation failed"
	}
	if decision.Allowed() {
		return false, ""
	}
	reason := decision.Reason
	if reason == "" {
		reason = decision.Decision
	}
	s.logger.Warn().Str("tool", verdict.Tool).Str("reason", reason).Msg("tool blocked by policy")
	return true, reason
}
