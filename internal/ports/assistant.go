package ports

import (
	"context"

	"github.com/bnema/visionary-cli/internal/domain"
)

type Assistant interface {
	Ask(ctx context.Context, query string, history []domain.Turn) (domain.Payload, error)
}

type Uploader interface {
	Upload(ctx context.Context, path string, displayName string) error
}
