package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bnema/visionary-cli/internal/domain"
)

type steppingClock struct {
	mu  sync.Mutex
	now time.Time
}

func newSteppingClock() *steppingClock {
	return &steppingClock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
}

func (c *steppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(time.Second)
	return c.now
}

type sequenceIDs struct {
	mu   sync.Mutex
	next int
}

func (g *sequenceIDs) NewSessionID() domain.SessionID {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.next++
	return domain.SessionID(fmt.Sprintf("s-%d", g.next))
}

type memoryStore struct {
	mu       sync.Mutex
	sessions map[domain.SessionID]domain.Session
	current  domain.SessionID
	saveErr  error
	saves    int
	clears   int

	beforeSave func()
}

func newMemoryStore() *memoryStore {
	return &memoryStore{sessions: map[domain.SessionID]domain.Session{}}
}

func (s *memoryStore) Load(context.Context) (map[domain.SessionID]domain.Session, domain.SessionID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions := make(map[domain.SessionID]domain.Session, len(s.sessions))
	for id, session := range s.sessions {
		sessions[id] = session.Clone()
	}
	return sessions, s.current, nil
}

func (s *memoryStore) SaveAll(_ context.Context, sessions map[domain.SessionID]domain.Session) error {
	if s.beforeSave != nil {
		s.beforeSave()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.saveErr != nil {
		return s.saveErr
	}
	if len(sessions) == 0 {
		return nil
	}

	s.saves++
	s.sessions = make(map[domain.SessionID]domain.Session, len(sessions))
	for id, session := range sessions {
		s.sessions[id] = session.Clone()
	}
	return nil
}

func (s *memoryStore) SaveCurrent(_ context.Context, id domain.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.saveErr != nil {
		return s.saveErr
	}
	s.current = id
	return nil
}

func (s *memoryStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clears++
	s.sessions = map[domain.SessionID]domain.Session{}
	s.current = ""
	return nil
}

type assistantFunc func(ctx context.Context, query string, history []domain.Turn) (domain.Payload, error)

func (f assistantFunc) Ask(ctx context.Context, query string, history []domain.Turn) (domain.Payload, error) {
	return f(ctx, query, history)
}

func jsonPayload(body string) domain.Payload {
	return domain.Payload{ContentType: "application/json", Body: []byte(body)}
}
