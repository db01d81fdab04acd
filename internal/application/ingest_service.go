package application

import (
	"context"
	"crypto/subtle"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bnema/visionary-cli/internal/domain"
	"github.com/bnema/visionary-cli/internal/ports"
	"go.uber.org/zap"
)

const ingestExtension = ".xlsx"

type IngestRequest struct {
	Files    []string
	Name     string
	Password string
}

type IngestResult struct {
	File string
	Err  error
}

// IngestService uploads spreadsheets to the knowledge base. It does not touch
// chat sessions.
type IngestService struct {
	uploader  ports.Uploader
	notifier  ports.Notifier
	password  string
	secrets   ports.SecretStore
	secretKey string
	logger    *zap.Logger
}

func NewIngestService(uploader ports.Uploader, notifier ports.Notifier, password string, logger *zap.Logger) *IngestService {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &IngestService{uploader: uploader, notifier: notifier, password: password, logger: logger}
}

// WithPasswordSecret gates uploads behind the password stored under key. It
// takes precedence over a password given to NewIngestService.
func (s *IngestService) WithPasswordSecret(store ports.SecretStore, key string) *IngestService {
	if store != nil && strings.TrimSpace(key) != "" {
		s.secrets = store
		s.secretKey = strings.TrimSpace(key)
	}
	return s
}

// PasswordRequired reports whether uploads are gated behind a password.
func (s *IngestService) PasswordRequired() bool {
	return s.password != "" || s.secretKey != ""
}

// Ingest validates the request, then uploads each file and notifies once per
// file. A validation error stops before any upload.
func (s *IngestService) Ingest(ctx context.Context, req IngestRequest) ([]IngestResult, error) {
	if err := s.validate(ctx, req); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	results := make([]IngestResult, 0, len(req.Files))
	for _, file := range req.Files {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		base := filepath.Base(file)
		err := s.uploader.Upload(ctx, file, name)
		results = append(results, IngestResult{File: file, Err: err})

		if err != nil {
			s.logger.Error("upload failed", zap.String("file", file), zap.Error(err))
			s.notifier.Notify(ports.Notification{
				Level:   ports.NotificationError,
				Title:   "Upload failed",
				Message: fmt.Sprintf("Failed to upload %s. Please try again.", name),
			})
			continue
		}

		s.logger.Info("upload succeeded", zap.String("file", file), zap.String("name", name))
		s.notifier.Notify(ports.Notification{
			Level:   ports.NotificationSuccess,
			Title:   "File uploaded",
			Message: fmt.Sprintf("%s (%s) uploaded successfully", name, base),
		})
	}

	return results, nil
}

func (s *IngestService) validate(ctx context.Context, req IngestRequest) error {
	expected, err := s.expectedPassword(ctx)
	if err != nil {
		return err
	}
	if expected != "" && subtle.ConstantTimeCompare([]byte(req.Password), []byte(expected)) != 1 {
		return domain.ErrIngestPasswordMismatch
	}
	if len(req.Files) == 0 {
		return domain.ErrNoIngestFiles
	}
	if strings.TrimSpace(req.Name) == "" {
		return domain.ErrIngestNameRequired
	}
	for _, file := range req.Files {
		if !strings.EqualFold(filepath.Ext(file), ingestExtension) {
			return fmt.Errorf("%s: %w", filepath.Base(file), domain.ErrUnsupportedFileType)
		}
	}

	return nil
}

func (s *IngestService) expectedPassword(ctx context.Context) (string, error) {
	if s.secretKey == "" {
		return s.password, nil
	}

	password, err := s.secrets.Get(ctx, s.secretKey)
	if err != nil {
		return "", fmt.Errorf("resolve ingest password: %w", err)
	}
	if password == "" {
		return "", fmt.Errorf("resolve ingest password: secret %q is empty", s.secretKey)
	}

	return password, nil
}
