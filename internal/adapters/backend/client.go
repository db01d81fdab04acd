package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/bnema/visionary-cli/internal/domain"
	"github.com/bnema/visionary-cli/internal/ports"
)

const (
	DefaultBaseURL   = "http://localhost:8000"
	maxResponseBytes = 1 << 20
)

// Client reads knowledge base status from the retrieval backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

var _ ports.KnowledgeBase = (*Client)(nil)

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"), httpClient: httpClient}
}

func (c *Client) Health(ctx context.Context) (domain.Health, error) {
	var health domain.Health
	if err := c.do(ctx, http.MethodGet, "/health", "get health status", &health); err != nil {
		return domain.Health{}, err
	}
	return health, nil
}

func (c *Client) RulesSummary(ctx context.Context) (domain.RulesSummary, error) {
	var summary domain.RulesSummary
	if err := c.do(ctx, http.MethodGet, "/rules/summary", "get rules summary", &summary); err != nil {
		return domain.RulesSummary{}, err
	}
	return summary, nil
}

// Refresh asks the backend to re-read its ingested data.
func (c *Client) Refresh(ctx context.Context) (domain.RefreshResult, error) {
	var result domain.RefreshResult
	if err := c.do(ctx, http.MethodPost, "/ingest/refresh", "refresh data", &result); err != nil {
		return domain.RefreshResult{}, err
	}
	return result, nil
}

func (c *Client) DocumentPreview(ctx context.Context, docID string) (domain.DocumentPreview, error) {
	docID = strings.TrimSpace(docID)
	if docID == "" {
		return domain.DocumentPreview{}, errors.New("get document preview: document id is empty")
	}

	var preview domain.DocumentPreview
	path := "/doc/" + url.PathEscape(docID) + "/preview"
	if err := c.do(ctx, http.MethodGet, path, "get document preview", &preview); err != nil {
		return domain.DocumentPreview{}, err
	}
	return preview, nil
}

func (c *Client) do(ctx context.Context, method string, path string, action string, target any) error {
	request, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", action, err)
	}
	request.Header.Set("Accept", "application/json")

	response, err := c.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("%s: perform request: %w", action, err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(io.LimitReader(response.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%s: read response: %w", action, err)
	}
	if response.StatusCode < 200 || response.StatusCode > 299 {
		return fmt.Errorf("%s: status %d: %s", action, response.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("%s: decode payload: %w", action, err)
	}

	return nil
}
