package application

import (
	"context"
	"errors"
	"testing"

	"github.com/bnema/visionary-cli/internal/domain"
	"github.com/bnema/visionary-cli/internal/ports"
	"github.com/bnema/visionary-cli/internal/ports/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestIngestServiceUploadsEachFileAndNotifies(t *testing.T) {
	uploader := mocks.NewMockUploader(t)
	notifier := mocks.NewMockNotifier(t)

	uploader.On("Upload", mock.Anything, "/data/rates.xlsx", "Q3 rates").Return(nil).Once()
	uploader.On("Upload", mock.Anything, "/data/extra.XLSX", "Q3 rates").Return(errors.New("upload failed with status 500")).Once()
	notifier.On("Notify", ports.Notification{
		Level:   ports.NotificationSuccess,
		Title:   "File uploaded",
		Message: "Q3 rates (rates.xlsx) uploaded successfully",
	}).Once()
	notifier.On("Notify", ports.Notification{
		Level:   ports.NotificationError,
		Title:   "Upload failed",
		Message: "Failed to upload Q3 rates. Please try again.",
	}).Once()

	service := NewIngestService(uploader, notifier, "secret", zap.NewNop())
	assert.True(t, service.PasswordRequired())

	results, err := service.Ingest(context.Background(), IngestRequest{
		Files:    []string{"/data/rates.xlsx", "/data/extra.XLSX"},
		Name:     "  Q3 rates ",
		Password: "secret",
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.NoError(t, results[0].Err)
	assert.Error(t, results[1].Err)
}

func TestIngestServiceValidation(t *testing.T) {
	tests := []struct {
		name     string
		password string
		req      IngestRequest
		wantErr  error
	}{
		{
			name:     "wrong password",
			password: "secret",
			req:      IngestRequest{Files: []string{"a.xlsx"}, Name: "A", Password: "nope"},
			wantErr:  domain.ErrIngestPasswordMismatch,
		},
		{
			name:    "no files",
			req:     IngestRequest{Name: "A"},
			wantErr: domain.ErrNoIngestFiles,
		},
		{
			name:    "blank name",
			req:     IngestRequest{Files: []string{"a.xlsx"}, Name: "  "},
			wantErr: domain.ErrIngestNameRequired,
		},
		{
			name:    "wrong extension",
			req:     IngestRequest{Files: []string{"a.xlsx", "b.csv"}, Name: "A"},
			wantErr: domain.ErrUnsupportedFileType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uploader := mocks.NewMockUploader(t)
			service := NewIngestService(uploader, nil, tt.password, nil)

			results, err := service.Ingest(context.Background(), tt.req)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, results)
		})
	}
}

func TestIngestServiceWithoutPasswordSkipsGate(t *testing.T) {
	uploader := mocks.NewMockUploader(t)
	uploader.On("Upload", mock.Anything, "a.xlsx", "A").Return(nil).Once()

	service := NewIngestService(uploader, nil, "", nil)
	assert.False(t, service.PasswordRequired())

	results, err := service.Ingest(context.Background(), IngestRequest{Files: []string{"a.xlsx"}, Name: "A"})
	require.NoError(t, err)
	require.Len(t, results, 1)
}

func TestIngestServicePasswordFromSecretStore(t *testing.T) {
	secrets := mocks.NewMockSecretStore(t)
	secrets.On("Get", mock.Anything, "ingest/password").Return("from-pass", nil).Twice()

	uploader := mocks.NewMockUploader(t)
	uploader.On("Upload", mock.Anything, "a.xlsx", "A").Return(nil).Once()

	service := NewIngestService(uploader, nil, "ignored", nil).WithPasswordSecret(secrets, "ingest/password")
	assert.True(t, service.PasswordRequired())

	_, err := service.Ingest(context.Background(), IngestRequest{Files: []string{"a.xlsx"}, Name: "A", Password: "ignored"})
	require.ErrorIs(t, err, domain.ErrIngestPasswordMismatch)

	results, err := service.Ingest(context.Background(), IngestRequest{Files: []string{"a.xlsx"}, Name: "A", Password: "from-pass"})
	require.NoError(t, err)
	require.Len(t, results, 1)
}

func TestIngestServiceFailsClosedWhenSecretIsUnavailable(t *testing.T) {
	secrets := mocks.NewMockSecretStore(t)
	secrets.On("Get", mock.Anything, "ingest/password").Return("", errors.New("pass command unavailable")).Once()

	service := NewIngestService(mocks.NewMockUploader(t), nil, "", nil).WithPasswordSecret(secrets, "ingest/password")

	_, err := service.Ingest(context.Background(), IngestRequest{Files: []string{"a.xlsx"}, Name: "A", Password: "x"})
	require.Error(t, err)
	assert.ErrorContains(t, err, "resolve ingest password")
}
