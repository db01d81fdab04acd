package ids

import (
	"github.com/bnema/visionary-cli/internal/domain"
	"github.com/bnema/visionary-cli/internal/ports"
	"github.com/google/uuid"
)

type UUIDGenerator struct{}

var _ ports.IDGenerator = UUIDGenerator{}

func (UUIDGenerator) NewSessionID() domain.SessionID {
	return domain.SessionID(uuid.New().String())
}
