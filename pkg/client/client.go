// Package client sends provenance documents to a DfAnalyzer-compatible
// provenance store over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/me/dfanalyzer/pkg/provenance"
)

const (
	// DefaultBaseURL is used when no base URL is configured.
	DefaultBaseURL = "http://localhost:22000/"

	// EnvBaseURL names the environment variable that overrides DefaultBaseURL.
	EnvBaseURL = "DFA_URL"

	TaskPath     = "/pde/task/json"
	DataflowPath = "/pde/dataflow/json"
)

// BaseURLFromEnv returns $DFA_URL, or DefaultBaseURL when it is unset.
func BaseURLFromEnv() string {
	if s := os.Getenv(EnvBaseURL); s != "" {
		return s
	}
	return DefaultBaseURL
}

// Client posts task and dataflow documents. Each send is one-shot: there is
// no queue and no retry.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ provenance.Sender = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client. A nil client is ignored.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if c.httpClient == nil {
			c.httpClient = &http.Client{}
		}
		hc := *c.httpClient
		hc.Timeout = d
		c.httpClient = &hc
	}
}

// New creates a client for the store at baseURL. A nil logger discards logs.
func New(baseURL string, logger *slog.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger.With("component", "client"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the store URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SendTask posts a task document to {base}/pde/task/json.
func (c *Client) SendTask(ctx context.Context, spec provenance.TaskSpec) error {
	c.logger.Debug("send task", "id", spec.ID, "transformation", spec.Transformation, "status", spec.Status)
	return c.post(ctx, TaskPath, spec)
}

// SendDataflow posts a dataflow document to {base}/pde/dataflow/json.
func (c *Client) SendDataflow(ctx context.Context, spec provenance.DataflowSpec) error {
	c.logger.Debug("send dataflow", "tag", spec.Tag, "transformations", len(spec.Transformations))
	return c.post(ctx, DataflowPath, spec)
}

// StatusError is returned when the store answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("POST %s: HTTP %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("POST %s: HTTP %d: %s", e.URL, e.StatusCode, e.Body)
}

// maxErrorBody bounds how much of an error response is kept in StatusError.
const maxErrorBody = 1 << 10

func (c *Client) post(ctx context.Context, path string, body any) error {
	url := c.baseURL + path

	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	c.logger.Debug("HTTP request body", "body", string(data))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	c.logger.Debug("HTTP response", "url", url, "status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Warn("provenance store rejected document", "url", url, "status", resp.StatusCode)
		return &StatusError{StatusCode: resp.StatusCode, URL: url, Body: strings.TrimSpace(string(respBody))}
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}
