package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/bnema/visionary-cli/internal/domain"
	"github.com/bnema/visionary-cli/internal/ports"
	"go.uber.org/zap"
)

// ErrSessionsNotLoaded is returned by mutations made before Load.
var ErrSessionsNotLoaded = errors.New("sessions not loaded yet")

// SessionManager owns the session collection and the current session pointer
// for a process. Every mutation is written through to the store.
type SessionManager struct {
	store  ports.SessionStore
	ids    ports.IDGenerator
	clock  ports.Clock
	nav    ports.Navigator
	logger *zap.Logger

	mu       sync.Mutex
	sessions map[domain.SessionID]domain.Session
	current  domain.SessionID
	loaded   bool
}

func NewSessionManager(store ports.SessionStore, ids ports.IDGenerator, clock ports.Clock, nav ports.Navigator, logger *zap.Logger) *SessionManager {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if nav == nil {
		nav = noopNavigator{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &SessionManager{
		store:    store,
		ids:      ids,
		clock:    clock,
		nav:      nav,
		logger:   logger,
		sessions: map[domain.SessionID]domain.Session{},
	}
}

// Load replaces the in-memory state with what the store holds. A stored
// pointer to a session that no longer exists is dropped.
func (m *SessionManager) Load(ctx context.Context) error {
	sessions, current, err := m.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load sessions: %w", err)
	}
	if sessions == nil {
		sessions = map[domain.SessionID]domain.Session{}
	}

	if _, ok := sessions[current]; current != "" && !ok {
		m.logger.Warn("dropping dangling current session", zap.String("session_id", string(current)))
		current = ""
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions = sessions
	m.current = current
	m.loaded = true

	return nil
}

// CreateSession inserts an empty session under id and makes it current. An
// existing session with the same id is overwritten.
func (m *SessionManager) CreateSession(ctx context.Context, id domain.SessionID, initialTitle string) (domain.Session, error) {
	m.mu.Lock()
	session := domain.NewSession(id, initialTitle, m.clock.Now())
	m.sessions[id] = session
	m.current = id
	err := m.persistLocked(ctx)
	m.mu.Unlock()

	m.nav.ShowSession(id)

	return session.Clone(), err
}

// NewChat creates an empty session under a fresh id.
func (m *SessionManager) NewChat(ctx context.Context) (domain.Session, error) {
	return m.CreateSession(ctx, m.ids.NewSessionID(), "")
}

// AddMessage appends message to the named session. Unknown ids are ignored.
func (m *SessionManager) AddMessage(ctx context.Context, id domain.SessionID, message domain.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[id]
	if !ok {
		m.logger.Debug("add message to unknown session", zap.String("session_id", string(id)))
		return nil
	}

	if message.Timestamp.IsZero() {
		message.Timestamp = m.clock.Now()
	}
	session.Append(message, m.clock.Now())
	m.sessions[id] = session

	return m.persistLocked(ctx)
}

// RenameSession sets a trimmed title. Blank titles and unknown ids are ignored.
func (m *SessionManager) RenameSession(ctx context.Context, id domain.SessionID, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[id]
	if !ok {
		return nil
	}

	session.Rename(title, m.clock.Now())
	m.sessions[id] = session

	return m.persistLocked(ctx)
}

// DeleteSession removes a session. Deleting the current session returns the
// user to the home view.
func (m *SessionManager) DeleteSession(ctx context.Context, id domain.SessionID) error {
	m.mu.Lock()
	if _, ok := m.sessions[id]; !ok {
		m.mu.Unlock()
		return nil
	}

	delete(m.sessions, id)
	wasCurrent := m.current == id
	if wasCurrent {
		m.current = ""
	}
	err := m.persistLocked(ctx)
	m.mu.Unlock()

	if wasCurrent {
		m.nav.ShowHome()
	}

	return err
}

// DuplicateSession copies a session under a fresh id and makes the copy current.
func (m *SessionManager) DuplicateSession(ctx context.Context, id domain.SessionID) (domain.Session, error) {
	m.mu.Lock()
	original, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		return domain.Session{}, domain.ErrSessionNotFound
	}

	duplicate := original.Duplicate(m.ids.NewSessionID(), m.clock.Now())
	m.sessions[duplicate.ID] = duplicate
	m.current = duplicate.ID
	err := m.persistLocked(ctx)
	m.mu.Unlock()

	m.nav.ShowSession(duplicate.ID)

	return duplicate.Clone(), err
}

func (m *SessionManager) SelectSession(ctx context.Context, id domain.SessionID) error {
	m.mu.Lock()
	if _, ok := m.sessions[id]; !ok {
		m.mu.Unlock()
		return domain.ErrSessionNotFound
	}

	m.current = id
	err := m.persistLocked(ctx)
	m.mu.Unlock()

	m.nav.ShowSession(id)

	return err
}

// GoHome clears the current pointer without deleting anything.
func (m *SessionManager) GoHome(ctx context.Context) error {
	m.mu.Lock()
	m.current = ""
	err := m.persistLocked(ctx)
	m.mu.Unlock()

	m.nav.ShowHome()

	return err
}

// ReplaceMessages swaps the message list of an existing session.
func (m *SessionManager) ReplaceMessages(ctx context.Context, id domain.SessionID, messages []domain.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[id]
	if !ok {
		return domain.ErrSessionNotFound
	}

	session.ReplaceMessages(messages, m.clock.Now())
	m.sessions[id] = session

	return m.persistLocked(ctx)
}

// ClearAll drops every session and the pointer from memory and the store.
func (m *SessionManager) ClearAll(ctx context.Context) error {
	m.mu.Lock()
	m.sessions = map[domain.SessionID]domain.Session{}
	m.current = ""
	err := m.store.Clear(ctx)
	m.mu.Unlock()

	m.nav.ShowHome()

	if err != nil {
		return fmt.Errorf("clear sessions: %w", err)
	}

	return nil
}

func (m *SessionManager) CurrentSession() (domain.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == "" {
		return domain.Session{}, false
	}

	session, ok := m.sessions[m.current]
	if !ok {
		return domain.Session{}, false
	}

	return session.Clone(), true
}

func (m *SessionManager) Session(id domain.SessionID) (domain.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[id]
	if !ok {
		return domain.Session{}, false
	}

	return session.Clone(), true
}

// SortedSessions lists the most recently updated sessions for display. Older
// sessions stay stored.
func (m *SessionManager) SortedSessions() []domain.Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	return domain.RecentSessions(m.sessions, domain.MaxListedSessions)
}

// startSession creates a session for a message sent from the home view.
func (m *SessionManager) startSession(ctx context.Context, content string) (domain.Session, error) {
	return m.CreateSession(ctx, m.ids.NewSessionID(), domain.TitleFromContent(content))
}

// persistLocked writes the collection and pointer. Nothing is written before
// the initial load so stored sessions are never clobbered.
func (m *SessionManager) persistLocked(ctx context.Context) error {
	if !m.loaded {
		return ErrSessionsNotLoaded
	}

	if len(m.sessions) == 0 {
		if err := m.store.Clear(ctx); err != nil {
			return fmt.Errorf("clear sessions: %w", err)
		}
		return nil
	}

	if err := m.store.SaveAll(ctx, m.sessions); err != nil {
		return fmt.Errorf("save sessions: %w", err)
	}
	if err := m.store.SaveCurrent(ctx, m.current); err != nil {
		return fmt.Errorf("save current session: %w", err)
	}

	return nil
}

type noopNavigator struct{}

func (noopNavigator) ShowSession(domain.SessionID) {}

func (noopNavigator) ShowHome() {}
