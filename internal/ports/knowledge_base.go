package ports

import (
	"context"

	"github.com/bnema/visionary-cli/internal/domain"
)

type KnowledgeBase interface {
	Health(ctx context.Context) (domain.Health, error)
	RulesSummary(ctx context.Context) (domain.RulesSummary, error)
	Refresh(ctx context.Context) (domain.RefreshResult, error)
	DocumentPreview(ctx context.Context, docID string) (domain.DocumentPreview, error)
}
