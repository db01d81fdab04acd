package speech

import (
	"os/exec"
	"strings"
	"sync"

	"github.com/bnema/visionary-cli/internal/ports"
	"go.uber.org/zap"
)

const (
	DefaultCommand   = "edge-playback"
	DefaultMaxLength = 2000
)

var defaultVoices = map[string]string{
	LanguageEnglish: "en-US-AriaNeural",
	LanguageSpanish: "es-ES-ElviraNeural",
}

type Config struct {
	Command   string
	Rate      string
	MaxLength int
	Voices    map[string]string
}

// CommandSpeaker reads replies aloud through an edge-tts style command. Each
// utterance replaces the one still playing.
type CommandSpeaker struct {
	cfg      Config
	logger   *zap.Logger
	lookPath func(string) (string, error)

	mu      sync.Mutex
	current *exec.Cmd
}

var _ ports.Speaker = (*CommandSpeaker)(nil)

func NewCommandSpeaker(cfg Config, logger *zap.Logger) *CommandSpeaker {
	if strings.TrimSpace(cfg.Command) == "" {
		cfg.Command = DefaultCommand
	}
	if cfg.MaxLength <= 0 {
		cfg.MaxLength = DefaultMaxLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &CommandSpeaker{cfg: cfg, logger: logger, lookPath: exec.LookPath}
}

// Speak starts playback and returns without waiting for it to finish.
func (s *CommandSpeaker) Speak(text string, language string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	if runes := []rune(text); len(runes) > s.cfg.MaxLength {
		text = string(runes[:s.cfg.MaxLength])
	}

	path, err := s.lookPath(s.cfg.Command)
	if err != nil {
		s.logger.Warn("speech command unavailable", zap.String("command", s.cfg.Command), zap.Error(err))
		return
	}

	lang := ResolveLanguage(language, text)
	args := []string{"--voice", s.voiceFor(lang)}
	if s.cfg.Rate != "" {
		args = append(args, "--rate", s.cfg.Rate)
	}
	args = append(args, "--text", text)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()

	cmd := exec.Command(path, args...)
	startGroup(cmd)
	if err := cmd.Start(); err != nil {
		s.logger.Warn("start speech command", zap.String("command", path), zap.Error(err))
		return
	}
	s.current = cmd
	s.logger.Debug("speaking", zap.String("language", lang), zap.Int("runes", len([]rune(text))))

	go s.wait(cmd)
}

// Stop interrupts the utterance that is playing, if any.
func (s *CommandSpeaker) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()
}

func (s *CommandSpeaker) stopLocked() {
	if s.current == nil || s.current.Process == nil {
		return
	}

	if err := killGroup(s.current); err != nil {
		s.logger.Debug("kill speech command", zap.Error(err))
	}
	s.current = nil
}

func (s *CommandSpeaker) wait(cmd *exec.Cmd) {
	err := cmd.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == cmd {
		s.current = nil
		if err != nil {
			s.logger.Warn("speech command failed", zap.Error(err))
		}
	}
}

func (s *CommandSpeaker) speaking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.current != nil
}

func (s *CommandSpeaker) voiceFor(language string) string {
	if voice, ok := s.cfg.Voices[language]; ok && voice != "" {
		return voice
	}
	if voice, ok := defaultVoices[language]; ok {
		return voice
	}
	return s.voiceFor(LanguageSpanish)
}
