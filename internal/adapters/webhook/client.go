package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/bnema/visionary-cli/internal/domain"
	"github.com/bnema/visionary-cli/internal/ports"
)

const (
	maxResponseBytes = 4 << 20
	userAgent        = "visionary-cli"
)

var ErrWebhookNotConfigured = errors.New("webhook URL is not configured")

// Client talks to the workflow webhooks that answer questions and ingest
// spreadsheets.
type Client struct {
	askURL     string
	uploadURL  string
	httpClient *http.Client
}

var (
	_ ports.Assistant = (*Client)(nil)
	_ ports.Uploader  = (*Client)(nil)
)

func NewClient(askURL string, uploadURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		askURL:     strings.TrimSpace(askURL),
		uploadURL:  strings.TrimSpace(uploadURL),
		httpClient: httpClient,
	}
}

// Ask posts the query and prior turns as a multipart form and returns the raw
// reply for normalization.
func (c *Client) Ask(ctx context.Context, query string, history []domain.Turn) (domain.Payload, error) {
	if c.askURL == "" {
		return domain.Payload{}, ErrWebhookNotConfigured
	}

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	if err := form.WriteField("query", query); err != nil {
		return domain.Payload{}, fmt.Errorf("write query field: %w", err)
	}
	if len(history) > 0 {
		encoded, err := json.Marshal(history)
		if err != nil {
			return domain.Payload{}, fmt.Errorf("encode history: %w", err)
		}
		if err := form.WriteField("history", string(encoded)); err != nil {
			return domain.Payload{}, fmt.Errorf("write history field: %w", err)
		}
	}
	if err := form.Close(); err != nil {
		return domain.Payload{}, fmt.Errorf("close form: %w", err)
	}

	response, err := c.post(ctx, c.askURL, form.FormDataContentType(), &body)
	if err != nil {
		return domain.Payload{}, err
	}
	defer response.Body.Close()

	data, err := io.ReadAll(io.LimitReader(response.Body, maxResponseBytes))
	if err != nil {
		return domain.Payload{}, fmt.Errorf("read response: %w", err)
	}
	if response.StatusCode < 200 || response.StatusCode > 299 {
		return domain.Payload{}, fmt.Errorf("webhook error: status %d %s", response.StatusCode, http.StatusText(response.StatusCode))
	}

	return domain.Payload{ContentType: response.Header.Get("Content-Type"), Body: data}, nil
}

// Upload sends one spreadsheet to the ingestion webhook under displayName.
func (c *Client) Upload(ctx context.Context, path string, displayName string) error {
	if c.uploadURL == "" {
		return domain.ErrUploadNotConfigured
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open upload file: %w", err)
	}
	defer file.Close()

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	if err := form.WriteField("uploadOrQuery", "true"); err != nil {
		return fmt.Errorf("write upload flag: %w", err)
	}
	if err := form.WriteField("fileName", displayName); err != nil {
		return fmt.Errorf("write file name: %w", err)
	}
	part, err := form.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return fmt.Errorf("create file part: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("copy upload file: %w", err)
	}
	if err := form.Close(); err != nil {
		return fmt.Errorf("close form: %w", err)
	}

	response, err := c.post(ctx, c.uploadURL, form.FormDataContentType(), &body)
	if err != nil {
		return err
	}
	defer response.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(response.Body, maxResponseBytes))

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return fmt.Errorf("upload failed with status %d", response.StatusCode)
	}

	return nil
}

func (c *Client) post(ctx context.Context, endpoint string, contentType string, body io.Reader) (*http.Response, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	request.Header.Set("Content-Type", contentType)
	request.Header.Set("User-Agent", userAgent)

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("perform request: %w", err)
	}

	return response, nil
}
