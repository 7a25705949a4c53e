package memori

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultEngineTimeout = 30 * time.Second

// EngineConfig configures the HTTP memory-engine client.
type EngineConfig struct {
	BaseURL string
	Timeout time.Duration
	// MaxRetries is the retry budget after the initial attempt. Zero
	// disables retries; a negative value selects the default.
	MaxRetries int
}

// HTTPEngineClient implements EngineClient against the memory-engine
// sidecar's REST API.
type HTTPEngineClient struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
}

// NewHTTPEngineClient creates a new memory-engine client.
func NewHTTPEngineClient(cfg EngineConfig) (*HTTPEngineClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("engine base URL required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultEngineTimeout
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = defaultMaxRetries
	}

	return &HTTPEngineClient{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		maxRetries: maxRetries,
	}, nil
}

// sessionResponse is the engine's reply to a session open request.
type sessionResponse struct {
	SessionID string `json:"session_id"`
	Namespace string `json:"namespace"`
	Status    string `json:"status"`
}

// engineError represents an error response from the engine.
type engineError struct {
	Error string `json:"error"`
}

// Open creates and enables a session for the given namespace. Transient
// failures are retried with exponential backoff.
func (e *HTTPEngineClient) Open(ctx context.Context, cfg SessionConfig) (*Session, error) {
	var lastErr error
	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := defaultBaseBackoff * time.Duration(1<<(attempt-1))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		session, err := e.doOpen(ctx, cfg)
		if err == nil {
			return session, nil
		}

		lastErr = err
		if !isRetryableError(err) {
			return nil, err
		}
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (e *HTTPEngineClient) doOpen(ctx context.Context, cfg SessionConfig) (*Session, error) {
	jsonData, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session config: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", e.baseURL+"/v1/sessions", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(httpReq)
	if err != nil {
		return nil, &retryableError{err: fmt.Errorf("engine request failed: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &retryableError{err: fmt.Errorf("rate limited (429)")}
	}
	if resp.StatusCode >= 500 {
		return nil, &retryableError{err: fmt.Errorf("engine error (%d): %s", resp.StatusCode, string(body))}
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		var errResp engineError
		if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
			return nil, fmt.Errorf("engine error (%d): %s", resp.StatusCode, errResp.Error)
		}
		return nil, fmt.Errorf("engine error (%d): %s", resp.StatusCode, string(body))
	}

	var sessResp sessionResponse
	if err := json.Unmarshal(body, &sessResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return &Session{
		ID:        sessResp.SessionID,
		Namespace: cfg.Namespace,
	}, nil
}

var _ EngineClient = (*HTTPEngineClient)(nil)
