package ports

import (
	"context"

	"github.com/bnema/visionary-cli/internal/domain"
)

// SessionStore persists the whole session collection and the current session
// marker in a single local namespace.
type SessionStore interface {
	Load(ctx context.Context) (map[domain.SessionID]domain.Session, domain.SessionID, error)
	SaveAll(ctx context.Context, sessions map[domain.SessionID]domain.Session) error
	SaveCurrent(ctx context.Context, id domain.SessionID) error
	Clear(ctx context.Context) error
}
