package toml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bnema/visionary-cli/internal/domain"
	"github.com/bnema/visionary-cli/internal/ports"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	sessionsPathKey    = "sessions.path"
	sessionsFileMode   = 0o600
	sessionsDirMode    = 0o700
	sessionsConfigDir  = ".visionary"
	sessionsConfigFile = "sessions.toml"
	tempFilePattern    = ".sessions-*.toml.tmp"
)

// Repository keeps every chat session and the current session pointer in one
// TOML file.
type Repository struct {
	sessionsPath string
	mu           *sync.RWMutex
	logger       *zap.Logger
}

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

var _ ports.SessionStore = (*Repository)(nil)

func NewRepository(cfg *viper.Viper, logger *zap.Logger) (*Repository, error) {
	if cfg == nil {
		cfg = viper.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}

	cfg.SetDefault(sessionsPathKey, filepath.Join(homeDir, sessionsConfigDir, sessionsConfigFile))

	sessionsPath := cfg.GetString(sessionsPathKey)
	if sessionsPath == "" {
		return nil, errors.New("sessions path is empty")
	}
	sessionsPath, err = normalizeSessionsPath(sessionsPath)
	if err != nil {
		return nil, err
	}

	return &Repository{
		sessionsPath: sessionsPath,
		mu:           lockForPath(sessionsPath),
		logger:       logger.With(zap.String("path", sessionsPath)),
	}, nil
}

func (r *Repository) Path() string {
	return r.sessionsPath
}

// Load returns the stored sessions and current pointer. Unreadable or
// malformed data is logged and treated as an empty store.
func (r *Repository) Load(ctx context.Context) (map[domain.SessionID]domain.Session, domain.SessionID, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	empty := map[domain.SessionID]domain.Session{}

	file, err := r.readSchema()
	if err != nil {
		r.logger.Warn("ignoring unreadable sessions file", zap.Error(err))
		return empty, "", nil
	}

	sessions := make(map[domain.SessionID]domain.Session, len(file.Sessions))
	for id, entry := range file.Sessions {
		session, err := fromSchema(id, entry)
		if err != nil {
			r.logger.Warn("ignoring malformed sessions file", zap.String("session_id", id), zap.Error(err))
			return empty, "", nil
		}
		sessions[session.ID] = session
	}

	return sessions, domain.SessionID(file.CurrentSession), nil
}

// SaveAll replaces the stored collection. An empty collection is not written.
func (r *Repository) SaveAll(ctx context.Context, sessions map[domain.SessionID]domain.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(sessions) == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readForUpdate()
	if err != nil {
		return err
	}

	file.Sessions = make(map[string]sessionSchema, len(sessions))
	for id, session := range sessions {
		file.Sessions[string(id)] = toSchema(session)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	return r.writeSchema(file)
}

// SaveCurrent persists the current session pointer. The empty id clears it.
func (r *Repository) SaveCurrent(ctx context.Context, id domain.SessionID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readForUpdate()
	if err != nil {
		return err
	}
	file.CurrentSession = string(id)

	if err := ctx.Err(); err != nil {
		return err
	}

	return r.writeSchema(file)
}

// Clear removes the stored collection and the current pointer.
func (r *Repository) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.Remove(r.sessionsPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove sessions file: %w", err)
	}

	return nil
}

// readForUpdate refuses to rewrite a file from a newer schema and starts over
// from an empty document when the current one cannot be decoded.
func (r *Repository) readForUpdate() (fileSchema, error) {
	file, err := r.readSchema()
	if err == nil {
		return file, nil
	}
	if errors.Is(err, errUnsupportedVersion) {
		return fileSchema{}, err
	}

	r.logger.Warn("replacing unreadable sessions file", zap.Error(err))
	file = fileSchema{}
	file.applyDefaults()
	return file, nil
}

func (r *Repository) readSchema() (fileSchema, error) {
	var file fileSchema

	data, err := os.ReadFile(r.sessionsPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			file.applyDefaults()
			return file, nil
		}
		return fileSchema{}, fmt.Errorf("read sessions file: %w", err)
	}

	if err := toml.Unmarshal(data, &file); err != nil {
		return fileSchema{}, fmt.Errorf("decode sessions file: %w", err)
	}
	if err := file.validateVersion(); err != nil {
		return fileSchema{}, err
	}
	file.applyDefaults()

	return file, nil
}

func normalizeSessionsPath(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve sessions path: %w", err)
	}

	return filepath.Clean(absPath), nil
}

func lockForPath(path string) *sync.RWMutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := pathLockMap[path]; ok {
		return mu
	}

	mu := &sync.RWMutex{}
	pathLockMap[path] = mu
	return mu
}

func (r *Repository) writeSchema(file fileSchema) error {
	file.applyDefaults()

	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode sessions file: %w", err)
	}

	return writeFileAtomic(r.sessionsPath, tempFilePattern, data)
}

// writeFileAtomic replaces path through a temp file in the same directory so
// readers never see a partial document.
func writeFileAtomic(path string, pattern string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), sessionsDirMode); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(path), pattern)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := tempFile.Chmod(sessionsFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tempName, path); err != nil {
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}

	cleanup = false

	if err := os.Chmod(path, sessionsFileMode); err != nil {
		return fmt.Errorf("chmod %s: %w", filepath.Base(path), err)
	}

	return nil
}

func toSchema(session domain.Session) sessionSchema {
	messages := make([]messageSchema, 0, len(session.Messages))
	for _, message := range session.Messages {
		encoded := messageSchema{
			Role:            string(message.Role),
			Content:         message.Content,
			Timestamp:       formatTime(message.Timestamp),
			MatchedKeywords: message.MatchedKeywords,
			Router:          message.Router,
		}
		for _, source := range message.Sources {
			encoded.Sources = append(encoded.Sources, sourceSchema{
				ID:       source.ID,
				Title:    source.Title,
				Snippet:  source.Snippet,
				FilePath: source.FilePath,
			})
		}
		messages = append(messages, encoded)
	}

	return sessionSchema{
		Title:     session.Title,
		CreatedAt: formatTime(session.CreatedAt),
		UpdatedAt: formatTime(session.UpdatedAt),
		Messages:  messages,
	}
}

func fromSchema(id string, entry sessionSchema) (domain.Session, error) {
	if id == "" {
		return domain.Session{}, errors.New("session id is empty")
	}

	createdAt, err := parseTime(entry.CreatedAt)
	if err != nil {
		return domain.Session{}, fmt.Errorf("parse created_at: %w", err)
	}
	updatedAt, err := parseTime(entry.UpdatedAt)
	if err != nil {
		return domain.Session{}, fmt.Errorf("parse updated_at: %w", err)
	}

	messages := make([]domain.Message, 0, len(entry.Messages))
	for i, encoded := range entry.Messages {
		role := domain.Role(encoded.Role)
		if !role.Valid() {
			return domain.Session{}, fmt.Errorf("message %d: invalid role %q", i, encoded.Role)
		}
		timestamp, err := parseTime(encoded.Timestamp)
		if err != nil {
			return domain.Session{}, fmt.Errorf("message %d: parse timestamp: %w", i, err)
		}

		message := domain.Message{
			Role:            role,
			Content:         encoded.Content,
			Timestamp:       timestamp,
			MatchedKeywords: encoded.MatchedKeywords,
			Router:          encoded.Router,
		}
		for _, source := range encoded.Sources {
			message.Sources = append(message.Sources, domain.Source{
				ID:       source.ID,
				Title:    source.Title,
				Snippet:  source.Snippet,
				FilePath: source.FilePath,
			})
		}
		messages = append(messages, message)
	}

	return domain.Session{
		ID:        domain.SessionID(id),
		Title:     entry.Title,
		Messages:  messages,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}

func parseTime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}

	return time.Parse(time.RFC3339Nano, raw)
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}

	return value.UTC().Format(time.RFC3339Nano)
}
