package toml

import (
	"errors"
	"fmt"
)

const currentSchemaVersion = 1

var errUnsupportedVersion = errors.New("unsupported sessions schema version")

type fileSchema struct {
	Version        int                      `toml:"version"`
	CurrentSession string                   `toml:"current_session,omitempty"`
	Sessions       map[string]sessionSchema `toml:"sessions,omitempty"`
}

func (s *fileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
	if s.Sessions == nil {
		s.Sessions = map[string]sessionSchema{}
	}
}

func (s fileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("%w %d (current %d)", errUnsupportedVersion, s.Version, currentSchemaVersion)
	}

	return nil
}

type sessionSchema struct {
	Title     string          `toml:"title"`
	CreatedAt string          `toml:"created_at"`
	UpdatedAt string          `toml:"updated_at"`
	Messages  []messageSchema `toml:"messages"`
}

type messageSchema struct {
	Role            string         `toml:"role"`
	Content         string         `toml:"content"`
	Timestamp       string         `toml:"timestamp"`
	Sources         []sourceSchema `toml:"sources,omitempty"`
	MatchedKeywords []string       `toml:"matched_keywords,omitempty"`
	Router          string         `toml:"router,omitempty"`
}

type sourceSchema struct {
	ID       string `toml:"id"`
	Title    string `toml:"title"`
	Snippet  string `toml:"snippet"`
	FilePath string `toml:"file_path,omitempty"`
}
