package application

import (
	"context"
	"fmt"

	"github.com/bnema/visionary-cli/internal/domain"
	"github.com/bnema/visionary-cli/internal/ports"
)

// KnowledgeStatus is what the settings view shows about the backend. Each
// part carries its own error so one failing endpoint does not hide the other.
type KnowledgeStatus struct {
	Health    domain.Health
	HealthErr error
	Rules     domain.RulesSummary
	RulesErr  error
}

type StatusService struct {
	kb ports.KnowledgeBase
}

func NewStatusService(kb ports.KnowledgeBase) *StatusService {
	return &StatusService{kb: kb}
}

func (s *StatusService) Status(ctx context.Context) KnowledgeStatus {
	var status KnowledgeStatus

	status.Health, status.HealthErr = s.kb.Health(ctx)
	status.Rules, status.RulesErr = s.kb.RulesSummary(ctx)

	return status
}

func (s *StatusService) Refresh(ctx context.Context) (domain.RefreshResult, error) {
	result, err := s.kb.Refresh(ctx)
	if err != nil {
		return domain.RefreshResult{}, fmt.Errorf("refresh knowledge base: %w", err)
	}
	return result, nil
}

func (s *StatusService) DocumentPreview(ctx context.Context, docID string) (domain.DocumentPreview, error) {
	preview, err := s.kb.DocumentPreview(ctx, docID)
	if err != nil {
		return domain.DocumentPreview{}, fmt.Errorf("preview document %s: %w", docID, err)
	}
	return preview, nil
}
