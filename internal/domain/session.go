package domain

import (
	"strings"
	"time"
)

const (
	DefaultSessionTitle = "New Chat"
	MaxTitleRunes       = 50
	MaxListedSessions   = 30
	duplicateSuffix     = " (copy)"
)

type SessionID string

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant:
		return true
	default:
		return false
	}
}

// Source is a citation attached to an assistant answer. It is passed through
// as received.
type Source struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Snippet  string `json:"snippet"`
	FilePath string `json:"file_path,omitempty"`
}

type Message struct {
	Role            Role
	Content         string
	Timestamp       time.Time
	Sources         []Source
	MatchedKeywords []string
	Router          string
}

type Session struct {
	ID        SessionID
	Title     string
	Messages  []Message
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Turn is the role/content pair sent to the assistant as prior history.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

func NewSession(id SessionID, initialTitle string, now time.Time) Session {
	title := initialTitle
	if strings.TrimSpace(title) == "" {
		title = DefaultSessionTitle
	}

	return Session{
		ID:        id,
		Title:     title,
		Messages:  []Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// TitleFromContent returns the first MaxTitleRunes runes of content, or the
// default title when content is blank.
func TitleFromContent(content string) string {
	if strings.TrimSpace(content) == "" {
		return DefaultSessionTitle
	}

	runes := []rune(content)
	if len(runes) > MaxTitleRunes {
		runes = runes[:MaxTitleRunes]
	}

	return string(runes)
}

// Append adds message and retitles the session when it is the first user turn.
func (s *Session) Append(message Message, now time.Time) {
	if len(s.Messages) == 0 && message.Role == RoleUser {
		s.Title = TitleFromContent(message.Content)
	}

	s.Messages = append(s.Messages, message)
	s.touch(now)
}

func (s *Session) Rename(title string, now time.Time) {
	s.Title = title
	s.touch(now)
}

func (s *Session) ReplaceMessages(messages []Message, now time.Time) {
	s.Messages = CloneMessages(messages)
	s.touch(now)
}

// Duplicate copies every message into a new session with fresh timestamps.
func (s Session) Duplicate(id SessionID, now time.Time) Session {
	return Session{
		ID:        id,
		Title:     s.Title + duplicateSuffix,
		Messages:  CloneMessages(s.Messages),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s Session) Clone() Session {
	s.Messages = CloneMessages(s.Messages)
	return s
}

func (s Session) History() []Turn {
	turns := make([]Turn, 0, len(s.Messages))
	for _, message := range s.Messages {
		turns = append(turns, Turn{Role: message.Role, Content: message.Content})
	}
	return turns
}

func (s *Session) touch(now time.Time) {
	if now.Before(s.CreatedAt) {
		now = s.CreatedAt
	}
	s.UpdatedAt = now
}

func CloneMessages(messages []Message) []Message {
	cloned := make([]Message, len(messages))
	for i, message := range messages {
		if message.Sources != nil {
			message.Sources = append([]Source(nil), message.Sources...)
		}
		if message.MatchedKeywords != nil {
			message.MatchedKeywords = append([]string(nil), message.MatchedKeywords...)
		}
		cloned[i] = message
	}
	return cloned
}
