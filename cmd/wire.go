package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bnema/visionary-cli/internal/adapters/backend"
	"github.com/bnema/visionary-cli/internal/adapters/ids"
	"github.com/bnema/visionary-cli/internal/adapters/logging"
	"github.com/bnema/visionary-cli/internal/adapters/render/notice"
	sessionsadapter "github.com/bnema/visionary-cli/internal/adapters/render/sessions"
	statusadapter "github.com/bnema/visionary-cli/internal/adapters/render/status"
	tomlrepo "github.com/bnema/visionary-cli/internal/adapters/repo/toml"
	chainstore "github.com/bnema/visionary-cli/internal/adapters/secrets/chain"
	"github.com/bnema/visionary-cli/internal/adapters/speech"
	"github.com/bnema/visionary-cli/internal/adapters/webhook"
	"github.com/bnema/visionary-cli/internal/application"
	"github.com/bnema/visionary-cli/internal/domain"
	"github.com/bnema/visionary-cli/internal/ports"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	configDir  = ".visionary"
	configFile = "config.toml"
	envPrefix  = "VISIONARY"

	secretsNamespace = "visionary"

	defaultWebhookURL = "https://bacostam.app.n8n.cloud/webhook/canela-ai"
)

type app struct {
	sessions       *application.SessionManager
	exchange       *application.ExchangeController
	ingest         *application.IngestService
	status         *application.StatusService
	secrets        ports.SecretStore
	logger         *zap.Logger
	stderr         *outputSwitch
	statusRenderer func(application.KnowledgeStatus, statusadapter.RenderOptions) (string, error)
	backendURL     string
	now            func() time.Time
}

func (a *app) renderSessionList() (string, error) {
	var current domain.SessionID
	if session, ok := a.sessions.CurrentSession(); ok {
		current = session.ID
	}

	return sessionsadapter.RenderList(a.sessions.SortedSessions(), sessionsadapter.ListOptions{
		Current: current,
		Now:     a.now(),
	})
}

func wireApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger, err := logging.NewLogger(logging.Config{
		Path:  cfg.GetString("log.path"),
		Level: cfg.GetString("log.level"),
	})
	if err != nil {
		return nil, fmt.Errorf("wire logger: %w", err)
	}

	repo, err := tomlrepo.NewRepository(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("wire session repository: %w", err)
	}

	stderr := &outputSwitch{w: os.Stderr}
	notifier := notice.NewNotifier(stderr)
	clock := ports.SystemClock{}

	sessions := application.NewSessionManager(repo, ids.UUIDGenerator{}, clock, notice.NewNavigator(notifier), logger)
	if err := sessions.Load(context.Background()); err != nil {
		return nil, fmt.Errorf("wire session manager: %w", err)
	}

	httpClient := &http.Client{Timeout: cfg.GetDuration("webhook.timeout")}
	client := webhook.NewClient(cfg.GetString("webhook.url"), cfg.GetString("webhook.upload_url"), httpClient)

	speaker := speech.NewCommandSpeaker(speech.Config{
		Command: cfg.GetString("voice.command"),
		Rate:    cfg.GetString("voice.rate"),
		Voices:  cfg.GetStringMapString("voice.voices"),
	}, logger)

	prefs, err := tomlrepo.NewPreferences(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("wire preferences: %w", err)
	}

	// A toggle saved from the chat loop wins over voice.enabled.
	voiceEnabled := cfg.GetBool("voice.enabled")
	if saved, ok, err := prefs.VoiceEnabled(context.Background()); err == nil && ok {
		voiceEnabled = saved
	}

	exchange := application.NewExchangeController(sessions, client, speaker, notifier, clock, logger, application.ExchangeOptions{
		VoiceEnabled:  voiceEnabled,
		VoiceLanguage: cfg.GetString("voice.language"),
	}).WithPreferences(prefs)

	secretStore, err := chainstore.NewPassFirstWithFileFallback(secretsNamespace, cfg.GetString("secrets.path"))
	if err != nil {
		return nil, fmt.Errorf("wire secret store chain: %w", err)
	}

	ingest := application.NewIngestService(client, notifier, cfg.GetString("ingest.password"), logger).
		WithPasswordSecret(secretStore, cfg.GetString("ingest.password_secret"))

	backendURL := cfg.GetString("backend.url")

	return &app{
		sessions:       sessions,
		exchange:       exchange,
		ingest:         ingest,
		secrets:        secretStore,
		status:         application.NewStatusService(backend.NewClient(backendURL, &http.Client{Timeout: 10 * time.Second})),
		logger:         logger,
		stderr:         stderr,
		statusRenderer: statusadapter.Render,
		backendURL:     backendURL,
		now:            time.Now,
	}, nil
}

// loadConfig reads ~/.visionary/config.toml when present. VISIONARY_* env vars
// override file values, e.g. VISIONARY_WEBHOOK_URL for webhook.url.
func loadConfig() (*viper.Viper, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}
	baseDir := filepath.Join(homeDir, configDir)

	cfg := viper.New()
	cfg.SetDefault("webhook.url", defaultWebhookURL)
	cfg.SetDefault("webhook.upload_url", "")
	cfg.SetDefault("webhook.timeout", 2*time.Minute)
	cfg.SetDefault("backend.url", backend.DefaultBaseURL)
	cfg.SetDefault("sessions.path", filepath.Join(baseDir, "sessions.toml"))
	cfg.SetDefault("preferences.path", filepath.Join(baseDir, "preferences.toml"))
	cfg.SetDefault("voice.enabled", true)
	cfg.SetDefault("voice.language", speech.LanguageAuto)
	cfg.SetDefault("voice.command", speech.DefaultCommand)
	cfg.SetDefault("voice.rate", "")
	cfg.SetDefault("ingest.password", "")
	cfg.SetDefault("ingest.password_secret", "")
	cfg.SetDefault("secrets.path", filepath.Join(baseDir, "secrets"))
	cfg.SetDefault("log.path", filepath.Join(baseDir, "visionary.log"))
	cfg.SetDefault("log.level", "info")

	cfg.SetEnvPrefix(envPrefix)
	cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	cfg.AutomaticEnv()

	path := envOrDefault("VISIONARY_CONFIG", filepath.Join(baseDir, configFile))
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("stat config file: %w", err)
	}

	cfg.SetConfigFile(path)
	cfg.SetConfigType("toml")
	if err := cfg.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// outputSwitch lets notifications follow the command's error writer, which
// is only known once cobra has parsed the invocation.
type outputSwitch struct {
	mu sync.Mutex
	w  io.Writer
}

func (o *outputSwitch) Set(w io.Writer) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.w = w
}

func (o *outputSwitch) Write(p []byte) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.w.Write(p)
}
