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

type ExchangeState string

const (
	ExchangeIdle    ExchangeState = "idle"
	ExchangeSending ExchangeState = "sending"
)

type OutcomeKind string

const (
	OutcomeCompleted OutcomeKind = "completed"
	OutcomeCancelled OutcomeKind = "cancelled"
	OutcomeFailed    OutcomeKind = "failed"
	OutcomeRejected  OutcomeKind = "rejected"
)

// Outcome reports how one request/response cycle ended.
type Outcome struct {
	Kind      OutcomeKind
	SessionID domain.SessionID
	Reply     domain.Message
	Err       error
}

type ExchangeOptions struct {
	VoiceEnabled  bool
	VoiceLanguage string
}

type pendingEdit struct {
	sessionID domain.SessionID
	index     int
	content   string
}

// ExchangeController sends user messages to the assistant and records the
// replies. At most one request is in flight; starting another cancels it.
type ExchangeController struct {
	sessions  *SessionManager
	assistant ports.Assistant
	speaker   ports.Speaker
	notifier  ports.Notifier
	clock     ports.Clock
	logger    *zap.Logger
	prefs     ports.PreferenceStore

	mu         sync.Mutex
	state      ExchangeState
	cancel     context.CancelFunc
	generation uint64
	edit       *pendingEdit
	options    ExchangeOptions
}

func NewExchangeController(
	sessions *SessionManager,
	assistant ports.Assistant,
	speaker ports.Speaker,
	notifier ports.Notifier,
	clock ports.Clock,
	logger *zap.Logger,
	options ExchangeOptions,
) *ExchangeController {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if notifier == nil {
		notifier = noopNotifier{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ExchangeController{
		sessions:  sessions,
		assistant: assistant,
		speaker:   speaker,
		notifier:  notifier,
		clock:     clock,
		logger:    logger,
		state:     ExchangeIdle,
		options:   options,
	}
}

func (c *ExchangeController) State() ExchangeState {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

// WithPreferences makes ToggleVoice remember the choice for later runs.
func (c *ExchangeController) WithPreferences(prefs ports.PreferenceStore) *ExchangeController {
	c.prefs = prefs
	return c
}

// SetVoiceEnabled switches speech for this process. Turning it off silences
// the reply being read.
func (c *ExchangeController) SetVoiceEnabled(enabled bool) {
	c.mu.Lock()
	c.options.VoiceEnabled = enabled
	c.mu.Unlock()

	if !enabled && c.speaker != nil {
		c.speaker.Stop()
	}
}

// ToggleVoice is SetVoiceEnabled plus saving the choice.
func (c *ExchangeController) ToggleVoice(ctx context.Context, enabled bool) error {
	c.SetVoiceEnabled(enabled)

	if c.prefs == nil {
		return nil
	}
	if err := c.prefs.SaveVoiceEnabled(ctx, enabled); err != nil {
		return fmt.Errorf("save voice preference: %w", err)
	}

	return nil
}

// SendMessage appends content as a user message to the current session,
// creating one when the user is on the home view, then asks the assistant.
func (c *ExchangeController) SendMessage(ctx context.Context, content string) Outcome {
	content = strings.TrimSpace(content)
	if content == "" {
		return Outcome{Kind: OutcomeRejected, Err: domain.ErrEmptyMessage}
	}

	request := c.begin(ctx)

	session, ok := c.sessions.CurrentSession()
	if !ok {
		created, err := c.sessions.startSession(ctx, content)
		if err != nil {
			c.finish(request.generation)
			return c.fail(created.ID, err)
		}
		session = created
	}

	message := domain.Message{Role: domain.RoleUser, Content: content, Timestamp: c.clock.Now()}
	if err := c.sessions.AddMessage(ctx, session.ID, message); err != nil {
		c.finish(request.generation)
		return c.fail(session.ID, err)
	}

	updated, ok := c.sessions.Session(session.ID)
	if !ok {
		c.finish(request.generation)
		return c.fail(session.ID, domain.ErrSessionNotFound)
	}

	return c.exchange(ctx, request, session.ID, content, updated.History())
}

// Stop cancels the in-flight request, including one whose user message is
// still being stored. The controller is idle on return and the cancelled
// request never appends a reply.
func (c *ExchangeController) Stop() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel == nil {
		return false
	}

	c.cancel()
	c.cancel = nil
	c.generation++
	c.state = ExchangeIdle

	return true
}

// EditMessage stages new content for the user message at index in the
// current session.
func (c *ExchangeController) EditMessage(index int, content string) error {
	session, ok := c.sessions.CurrentSession()
	if !ok {
		return domain.ErrNoCurrentSession
	}
	if index < 0 || index >= len(session.Messages) {
		return domain.ErrMessageIndexOutOfRange
	}
	if session.Messages[index].Role != domain.RoleUser {
		return domain.ErrNotUserMessage
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.edit = &pendingEdit{sessionID: session.ID, index: index, content: content}

	return nil
}

func (c *ExchangeController) PendingEdit() (int, string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.edit == nil {
		return 0, "", false
	}

	return c.edit.index, c.edit.content, true
}

func (c *ExchangeController) CancelEdit() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.edit = nil
}

// SaveEdit drops every message after the edited one, stores the edited
// content in place and asks the assistant again from there.
func (c *ExchangeController) SaveEdit(ctx context.Context) Outcome {
	c.mu.Lock()
	edit := c.edit
	c.edit = nil
	c.mu.Unlock()

	if edit == nil {
		return Outcome{Kind: OutcomeRejected, Err: domain.ErrNoPendingEdit}
	}

	content := strings.TrimSpace(edit.content)
	if content == "" {
		return Outcome{Kind: OutcomeRejected, SessionID: edit.sessionID, Err: domain.ErrEmptyMessage}
	}

	session, ok := c.sessions.Session(edit.sessionID)
	if !ok {
		return Outcome{Kind: OutcomeRejected, SessionID: edit.sessionID, Err: domain.ErrSessionNotFound}
	}
	if edit.index >= len(session.Messages) {
		return Outcome{Kind: OutcomeRejected, SessionID: edit.sessionID, Err: domain.ErrMessageIndexOutOfRange}
	}

	messages := domain.CloneMessages(session.Messages[:edit.index+1])
	messages[edit.index].Content = content

	request := c.begin(ctx)

	if err := c.sessions.ReplaceMessages(ctx, session.ID, messages); err != nil {
		c.finish(request.generation)
		return c.fail(session.ID, err)
	}

	history := make([]domain.Turn, 0, len(messages))
	for _, message := range messages {
		history = append(history, domain.Turn{Role: message.Role, Content: message.Content})
	}

	return c.exchange(ctx, request, session.ID, content, history)
}

func (c *ExchangeController) exchange(ctx context.Context, request inflight, sessionID domain.SessionID, query string, history []domain.Turn) Outcome {
	if request.ctx.Err() != nil {
		c.finish(request.generation)
		c.logger.Debug("request stopped before it was sent", zap.String("session_id", string(sessionID)))
		return Outcome{Kind: OutcomeCancelled, SessionID: sessionID}
	}

	payload, err := c.assistant.Ask(request.ctx, query, history)

	if !c.finish(request.generation) {
		c.logger.Debug("discarding superseded reply", zap.String("session_id", string(sessionID)))
		return Outcome{Kind: OutcomeCancelled, SessionID: sessionID}
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return Outcome{Kind: OutcomeCancelled, SessionID: sessionID}
		}
		c.logger.Error("assistant request failed", zap.String("session_id", string(sessionID)), zap.Error(err))
		return c.fail(sessionID, err)
	}

	answer := domain.DecodeAnswer(payload)
	reply := domain.Message{
		Role:            domain.RoleAssistant,
		Content:         answer.Text,
		Timestamp:       c.clock.Now(),
		Sources:         answer.Sources,
		MatchedKeywords: answer.MatchedKeywords,
		Router:          answer.Router,
	}

	if err := c.sessions.AddMessage(ctx, sessionID, reply); err != nil {
		return c.fail(sessionID, err)
	}

	c.speak(reply.Content)

	return Outcome{Kind: OutcomeCompleted, SessionID: sessionID, Reply: reply}
}

type inflight struct {
	ctx        context.Context
	generation uint64
}

// begin cancels any request still running and claims the in-flight slot.
func (c *ExchangeController) begin(ctx context.Context) inflight {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
	}

	requestCtx, cancel := context.WithCancel(ctx)
	c.generation++
	c.cancel = cancel
	c.state = ExchangeSending

	return inflight{ctx: requestCtx, generation: c.generation}
}

// finish releases the in-flight slot and reports whether the request still
// owned it.
func (c *ExchangeController) finish(generation uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if generation != c.generation {
		return false
	}

	c.cancel()
	c.cancel = nil
	c.state = ExchangeIdle

	return true
}

func (c *ExchangeController) speak(text string) {
	c.mu.Lock()
	options := c.options
	c.mu.Unlock()

	if !options.VoiceEnabled || c.speaker == nil || text == "" {
		return
	}

	c.speaker.Speak(text, options.VoiceLanguage)
}

func (c *ExchangeController) fail(sessionID domain.SessionID, err error) Outcome {
	message := err.Error()
	if message == "" {
		message = "Failed to send message. Please check your webhook configuration."
	}

	c.notifier.Notify(ports.Notification{
		Level:   ports.NotificationError,
		Title:   "Error",
		Message: message,
	})

	return Outcome{Kind: OutcomeFailed, SessionID: sessionID, Err: err}
}

type noopNotifier struct{}

func (noopNotifier) Notify(ports.Notification) {}
