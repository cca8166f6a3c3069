// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package docsearch provides the HTTP client for the documentation search
// backend and the incremental decoding of its streamed answer events.
package docsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ClientError represents an error from the docsearch client.
type ClientError struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeUnreachable
	ErrTypeTimeout
	ErrTypeBadStatus
	ErrTypeThrottled
)

// Sentinel errors for easy checking.
var (
	ErrUnreachable = &ClientError{Type: ErrTypeUnreachable, Message: "search service is unreachable"}
	ErrTimeout     = &ClientError{Type: ErrTypeTimeout, Message: "stream timed out"}
	ErrThrottled   = &ClientError{Type: ErrTypeThrottled, Message: "too many requests, slow down"}
)

// UserFacingError renders a client error as a short status line suitable for
// the UI. Falls back to the raw error text for anything uncategorized.
func UserFacingError(err error) string {
	var ce *ClientError
	if errors.As(err, &ce) {
		switch ce.Type {
		case ErrTypeUnreachable:
			return "Search service unreachable"
		case ErrTypeTimeout:
			return "Stream timed out"
		case ErrTypeBadStatus:
			return ce.Message
		case ErrTypeThrottled:
			return "Too many requests, slow down"
		}
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig holds configuration options for the docsearch client.
type ClientConfig struct {
	// BaseURL is the backend base URL (default: http://127.0.0.1:8000)
	BaseURL string

	// ChatPath is the streaming answer endpoint path (default: /api/chat/stream)
	ChatPath string

	// ResultLimit is the retrieval limit sent with each query (default: 4)
	ResultLimit int

	// IdleTimeout is the maximum gap between stream reads before the request
	// is abandoned as a transport failure (default: 30s)
	IdleTimeout time.Duration

	// RequestsPerMinute caps query submissions client-side. Zero disables
	// throttling.
	RequestsPerMinute int
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:     "http://127.0.0.1:8000",
		ChatPath:    "/api/chat/stream",
		ResultLimit: 4,
		IdleTimeout: 30 * time.Second,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client handles communication with the documentation search backend.
// It is safe for concurrent use, though the conversation layer permits only
// one in-flight stream at a time.
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a new docsearch client with default configuration.
func NewClient() *Client {
	return NewClientWithConfig(DefaultConfig())
}

// NewClientWithConfig creates a new docsearch client with custom configuration.
func NewClientWithConfig(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultConfig()
	}

	// Fill in defaults for any zero values
	if config.BaseURL == "" {
		config.BaseURL = "http://127.0.0.1:8000"
	}
	if config.ChatPath == "" {
		config.ChatPath = "/api/chat/stream"
	}
	if config.ResultLimit <= 0 {
		config.ResultLimit = 4
	}
	if config.IdleTimeout <= 0 {
		config.IdleTimeout = 30 * time.Second
	}

	var limiter *rate.Limiter
	if config.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(config.RequestsPerMinute)/60.0), 1)
	}

	return &Client{
		config: config,
		// No client-level timeout: streams are open-ended and bounded by the
		// idle watchdog and the request context instead.
		httpClient: &http.Client{},
		limiter:    limiter,
	}
}

// GetConfig returns the client configuration.
func (c *Client) GetConfig() *ClientConfig {
	return c.config
}

// endpoint joins the base URL and chat path.
func (c *Client) endpoint() string {
	return strings.TrimSuffix(c.config.BaseURL, "/") + c.config.ChatPath
}

// =============================================================================
// STREAMING ANSWER
// =============================================================================

// StreamAnswer submits a query and dispatches each decoded stream event to
// the callback, in wire order, until the stream ends.
//
// A nil return means the stream completed: either normally, or stopped early
// by a backend error event (which the callback has already observed). A
// non-nil return is a transport-level failure and the caller must treat the
// request as Failed.
func (c *Client) StreamAnswer(ctx context.Context, query string, callback EventCallback) error {
	if c.limiter != nil && !c.limiter.Allow() {
		return ErrThrottled
	}

	body, err := json.Marshal(AnswerRequest{
		Query: query,
		Limit: c.config.ResultLimit,
	})
	if err != nil {
		return &ClientError{Type: ErrTypeUnknown, Message: "failed to marshal request", Cause: err}
	}

	// The watchdog cancels the request context when the stream stalls, so a
	// dead connection surfaces as ErrTimeout instead of hanging forever.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	watchdog := newIdleWatchdog(c.config.IdleTimeout, cancel)
	defer watchdog.stop()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(body))
	if err != nil {
		return &ClientError{Type: ErrTypeUnreachable, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/x-ndjson")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if watchdog.expired() {
			return ErrTimeout
		}
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return &ClientError{Type: ErrTypeTimeout, Message: "request cancelled", Cause: err}
		}
		return &ClientError{Type: ErrTypeUnreachable, Message: "search service is unreachable", Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.statusError(resp)
	}

	reader := NewStreamReader(&idleResetReader{r: resp.Body, watchdog: watchdog})
	err = reader.Process(ctx, callback)
	if err != nil {
		if watchdog.expired() {
			return ErrTimeout
		}
		if errors.Is(err, context.Canceled) {
			return &ClientError{Type: ErrTypeTimeout, Message: "stream cancelled", Cause: err}
		}
		return &ClientError{Type: ErrTypeUnreachable, Message: "stream read failed", Cause: err}
	}
	return nil
}

// statusError builds a ClientError from a non-success response, surfacing
// the response body as the failure detail when one is available.
func (c *Client) statusError(resp *http.Response) error {
	detail := resp.Status
	if body, err := io.ReadAll(io.LimitReader(resp.Body, 4096)); err == nil {
		if text := strings.TrimSpace(string(body)); text != "" {
			detail = detail + ": " + text
		}
	}
	return &ClientError{Type: ErrTypeBadStatus, Message: "answer request failed with " + detail}
}

// =============================================================================
// IDLE WATCHDOG
// =============================================================================

// idleWatchdog cancels a stream when no bytes arrive within the timeout.
// Expiry surfaces to callers the same way as any other transport failure.
type idleWatchdog struct {
	timer   *time.Timer
	timeout time.Duration
	fired   atomic.Bool
}

func newIdleWatchdog(timeout time.Duration, cancel context.CancelFunc) *idleWatchdog {
	w := &idleWatchdog{timeout: timeout}
	w.timer = time.AfterFunc(timeout, func() {
		w.fired.Store(true)
		cancel()
	})
	return w
}

// reset re-arms the watchdog after stream activity.
func (w *idleWatchdog) reset() {
	if !w.fired.Load() {
		w.timer.Reset(w.timeout)
	}
}

// expired reports whether the watchdog fired.
func (w *idleWatchdog) expired() bool {
	return w.fired.Load()
}

// stop disarms the watchdog.
func (w *idleWatchdog) stop() {
	w.timer.Stop()
}

// idleResetReader re-arms the watchdog on every successful read.
type idleResetReader struct {
	r        io.Reader
	watchdog *idleWatchdog
}

func (i *idleResetReader) Read(p []byte) (int, error) {
	n, err := i.r.Read(p)
	if n > 0 {
		i.watchdog.reset()
	}
	return n, err
}
