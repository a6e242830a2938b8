// Package ninjaclient is the authenticated gateway to the upstream
// NinjaRMM REST API.
package ninjaclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/rishabh1414/NinjaRmm-v1/internal/apperr"
)

// TokenSource supplies bearer credentials for upstream calls. The lifecycle
// manager in internal/auth implements it.
type TokenSource interface {
	EnsureValidAccessToken(ctx context.Context) (string, error)
	Refresh(ctx context.Context) (string, error)
}

// maxAttempts bounds the retry policy: one forced refresh and one retry
// after a 401, never more. A second 401 surfaces as an error.
const maxAttempts = 2

// Client performs authenticated JSON calls against the upstream API.
type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates an upstream API client.
func NewClient(baseURL string, tokens TokenSource, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		tokens:     tokens,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Call issues method+path against the upstream API with a bearer token from
// the token source, JSON-encoding body when non-nil, and returns the raw
// JSON response body.
//
// A 401 forces exactly one token refresh and one retry; refreshing as a
// side effect of a read-only call is intentional. Any other non-2xx status
// becomes an UpstreamRequestError carrying the upstream status and body.
func (c *Client) Call(ctx context.Context, method, path string, body interface{}) (json.RawMessage, error) {
	token, err := c.tokens.EnsureValidAccessToken(ctx)
	if err != nil {
		return nil, err
	}

	var payload []byte
	if body != nil {
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	for attempt := 1; ; attempt++ {
		resp, err := c.send(ctx, method, path, token, payload)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode == http.StatusUnauthorized && attempt < maxAttempts {
			resp.Body.Close()
			c.logger.Warn("upstream returned 401, forcing token refresh",
				zap.String("method", method), zap.String("path", path))
			token, err = c.tokens.Refresh(ctx)
			if err != nil {
				return nil, err
			}
			continue
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, &apperr.UpstreamRequestError{
				Method: method,
				Path:   path,
				Status: resp.StatusCode,
				Body:   string(respBody),
			}
		}
		if readErr != nil {
			return nil, fmt.Errorf("failed to read upstream response: %w", readErr)
		}
		return json.RawMessage(respBody), nil
	}
}

func (c *Client) send(ctx context.Context, method, path, token string, payload []byte) (*http.Response, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create upstream request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream request failed: %w", err)
	}
	return resp, nil
}
