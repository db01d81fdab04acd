package toml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/bnema/visionary-cli/internal/ports"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	preferencesPathKey     = "preferences.path"
	preferencesConfigFile  = "preferences.toml"
	preferencesTempPattern = ".preferences-*.toml.tmp"
)

type preferencesSchema struct {
	Version int              `toml:"version"`
	Voice   voicePreferences `toml:"voice"`
}

type voicePreferences struct {
	Enabled *bool `toml:"enabled,omitempty"`
}

// Preferences keeps user toggles in their own file so clearing the session
// history leaves them alone.
type Preferences struct {
	path   string
	mu     *sync.RWMutex
	logger *zap.Logger
}

var _ ports.PreferenceStore = (*Preferences)(nil)

func NewPreferences(cfg *viper.Viper, logger *zap.Logger) (*Preferences, error) {
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

	cfg.SetDefault(preferencesPathKey, filepath.Join(homeDir, sessionsConfigDir, preferencesConfigFile))

	path := cfg.GetString(preferencesPathKey)
	if path == "" {
		return nil, errors.New("preferences path is empty")
	}
	path, err = normalizeSessionsPath(path)
	if err != nil {
		return nil, err
	}

	return &Preferences{
		path:   path,
		mu:     lockForPath(path),
		logger: logger.With(zap.String("path", path)),
	}, nil
}

// VoiceEnabled reports the saved voice toggle. An unreadable file counts as
// no saved preference.
func (p *Preferences) VoiceEnabled(ctx context.Context) (bool, bool, error) {
	if err := ctx.Err(); err != nil {
		return false, false, err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	prefs, err := p.read()
	if err != nil {
		p.logger.Warn("ignoring unreadable preferences file", zap.Error(err))
		return false, false, nil
	}
	if prefs.Voice.Enabled == nil {
		return false, false, nil
	}

	return *prefs.Voice.Enabled, true, nil
}

func (p *Preferences) SaveVoiceEnabled(ctx context.Context, enabled bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	prefs, err := p.read()
	if err != nil {
		p.logger.Warn("replacing unreadable preferences file", zap.Error(err))
		prefs = preferencesSchema{}
	}
	prefs.Version = currentSchemaVersion
	prefs.Voice.Enabled = &enabled

	data, err := toml.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("encode preferences file: %w", err)
	}

	return writeFileAtomic(p.path, preferencesTempPattern, data)
}

func (p *Preferences) read() (preferencesSchema, error) {
	var prefs preferencesSchema

	data, err := os.ReadFile(p.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return prefs, nil
		}
		return preferencesSchema{}, fmt.Errorf("read preferences file: %w", err)
	}

	if err := toml.Unmarshal(data, &prefs); err != nil {
		return preferencesSchema{}, fmt.Errorf("decode preferences file: %w", err)
	}

	return prefs, nil
}
