package service

import (
	"context"

	"github.com/xiaot623/gogo/deliveryagent/internal/domain"
)

// DefaultToolLogLimit is used when a caller does not bound the query.
const DefaultToolLogLimit = 100

// ListToolLogs returns the most recent limit invocation records, oldest
// first. Total is the size of the whole log.
func (s *Service) ListToolLogs(ctx context.Context, limit int) (*domain.ToolLogsResponse, error) {
	if limit <= 0 {
		limit = DefaultToolLogLimit
	}
	logs, err := s.store.ListToolInvocations(ctx, limit)
	if err != nil {
		return nil, err
	}
	total, err := s.store.CountToolInvocations(ctx)
	if err != nil {
		return nil, err
	}
	return &domain.ToolLogsResponse{Total: total, Logs: logs}, nil
}

// ListTools returns the tool catalog.
func (s *Service) ListTools() *domain.ListToolsResponse {
	return &domain.ListToolsResponse{Tools: s.tools.ListDefinitions()}
}
