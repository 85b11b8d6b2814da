package persistence

import (
	"bytes"
	"context"
	"encoding/json/v2"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/pintree/pintree-admin/internal/ratelimit"
)

const (
	defaultTimeout = 30 * time.Second
	defaultBurst   = 1

	// Upper bound on response bodies read from the server.
	maxResponseBytes = 8 << 20

	userAgent = "pintree-import/1.0"
)

// HTTPConfig configures an HTTPClient.
type HTTPConfig struct {
	BaseURL           string
	Timeout           time.Duration // per request; zero means 30s
	RequestsPerSecond float64       // zero disables pacing
}

// HTTPClient calls a remote persistence API over JSON/HTTP.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	pacer   *ratelimit.Pacer
	logger  *slog.Logger
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient creates a client for the API at cfg.BaseURL.
func NewHTTPClient(cfg HTTPConfig, logger *slog.Logger) *HTTPClient {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		pacer:   ratelimit.New(cfg.RequestsPerSecond, defaultBurst),
		logger:  logger,
	}
}

// CreateFolders implements Client.
func (c *HTTPClient) CreateFolders(ctx context.Context, req *FoldersRequest) (*BatchResponse, error) {
	return c.post(ctx, OpCreateFolders, PathRecoverFolders, req)
}

// CreateBookmarks implements Client.
func (c *HTTPClient) CreateBookmarks(ctx context.Context, req *BookmarksRequest) (*BatchResponse, error) {
	return c.post(ctx, OpCreateBookmarks, PathRecoverBookmarks, req)
}

// ImportGeneric implements Client.
func (c *HTTPClient) ImportGeneric(ctx context.Context, req *GenericImportRequest) (*BatchResponse, error) {
	return c.post(ctx, OpGenericImport, PathGenericImport, req)
}

// post sends one batch and decodes the shared response shape.
func (c *HTTPClient) post(ctx context.Context, op, path string, body any) (*BatchResponse, error) {
	if err := c.pacer.Wait(ctx, path); err != nil {
		return nil, wrapError(op, 0, "", fmt.Errorf("rate limit wait: %w", err))
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, wrapError(op, 0, "", fmt.Errorf("encode request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, wrapError(op, 0, "", fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	c.logger.Debug("persistence request",
		"op", op,
		"path", path,
		"bytes", len(payload),
	)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, wrapError(op, 0, "", fmt.Errorf("execute request: %w", err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, wrapError(op, resp.StatusCode, "", fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, wrapError(op, resp.StatusCode, failureMessage(op, raw), statusError(resp.StatusCode))
	}

	var out BatchResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, wrapError(op, resp.StatusCode, "", fmt.Errorf("%w: %v", ErrInvalidResponse, err))
	}
	return &out, nil
}

// statusError maps a non-2xx status to a sentinel.
func statusError(status int) error {
	switch {
	case status == http.StatusBadRequest:
		return ErrBadRequest
	case status == http.StatusNotFound:
		return ErrNotFound
	case status == http.StatusRequestEntityTooLarge:
		return ErrTooLarge
	case status == http.StatusTooManyRequests:
		return ErrRateLimited
	case status >= 500:
		return ErrServer
	default:
		return ErrUnexpected
	}
}

// failureMessage extracts the server's message from an error body. The
// folders call reports "error" and the bookmark calls report "message";
// either field is accepted as a fallback for the other.
func failureMessage(op string, raw []byte) string {
	var body FailureBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	if op == OpCreateFolders {
		if body.Error != "" {
			return body.Error
		}
		return body.Message
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Error
}
