package ports

import "github.com/bnema/visionary-cli/internal/domain"

type IDGenerator interface {
	NewSessionID() domain.SessionID
}
