// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the HTTP client for communicating with the chat backend.
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/jeranaias/crashchat/internal/model"
	"github.com/jeranaias/crashchat/internal/sse"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ClientError represents an error from the chat client.
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
	ErrTypeRateLimited
	ErrTypeServerError
	ErrTypeInvalidResponse
)

// Sentinel errors for easy checking.
var (
	ErrUnreachable = &ClientError{Type: ErrTypeUnreachable, Message: "chat backend is unreachable"}
	ErrTimeout     = &ClientError{Type: ErrTypeTimeout, Message: "request timed out"}
	ErrRateLimited = &ClientError{Type: ErrTypeRateLimited, Message: "too many requests, slow down"}
)

// IsUnreachable checks if an error indicates the backend is unreachable.
func IsUnreachable(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == ErrTypeUnreachable
	}
	return errors.Is(err, ErrUnreachable)
}

// IsTimeout checks if an error is a timeout error.
func IsTimeout(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == ErrTypeTimeout
	}
	return errors.Is(err, ErrTimeout)
}

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig holds configuration options for the chat client.
type ClientConfig struct {
	// BaseURL is the chat backend base URL (default: http://127.0.0.1:8080)
	// Note: Uses explicit IPv4 address instead of localhost to avoid IPv6 resolution issues on Windows
	BaseURL string

	// Timeout for non-streaming requests (default: 30s)
	Timeout time.Duration

	// RequestsPerMinute caps prompt submissions (default: 20)
	RequestsPerMinute int
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:           "http://127.0.0.1:8080",
		Timeout:           30 * time.Second,
		RequestsPerMinute: 20,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client handles communication with the chat backend.
//
// The backend identifies a conversation by a session_id cookie. The client
// seeds one on creation so the first request already belongs to a session,
// and the cookie jar adopts whatever the server sets afterwards.
//
// Example:
//
//	client := chat.NewClient()
//	err := client.Send(ctx, "hello", func(delta string) {
//	    fmt.Print(delta)
//	})
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
	limiter    *rate.Limiter
	sessionID  string
}

// NewClient creates a new chat client with default configuration.
func NewClient() *Client {
	return NewClientWithConfig(DefaultConfig())
}

// NewClientWithConfig creates a new chat client with custom configuration.
func NewClientWithConfig(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultConfig()
	}

	// Fill in defaults for any zero values
	if config.BaseURL == "" {
		config.BaseURL = "http://127.0.0.1:8080"
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.RequestsPerMinute == 0 {
		config.RequestsPerMinute = 20
	}

	jar, _ := cookiejar.New(nil)

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
			Jar:     jar,
		},
		limiter:   rate.NewLimiter(rate.Limit(float64(config.RequestsPerMinute)/60.0), 1),
		sessionID: uuid.NewString(),
	}
}

// SessionID returns the session identifier sent with each request.
func (c *Client) SessionID() string {
	return c.sessionID
}

// =============================================================================
// REQUEST HELPERS
// =============================================================================

// chatRequest is the prompt submission body.
type chatRequest struct {
	Prompt string `json:"prompt"`
}

// newRequest builds a request with the session cookie attached. The jar takes
// over once the server has responded with its own Set-Cookie.
func (c *Client) newRequest(ctx context.Context, method, path string, body []byte) (*http.Request, error) {
	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, reader)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeUnreachable, Message: "failed to create request", Cause: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.AddCookie(&http.Cookie{Name: "session_id", Value: c.sessionID})
	return req, nil
}

// classifyTransport maps a transport-level failure onto a ClientError.
func classifyTransport(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	if errors.Is(err, context.Canceled) {
		return &ClientError{Type: ErrTypeTimeout, Message: "request cancelled", Cause: err}
	}
	return &ClientError{Type: ErrTypeUnreachable, Message: "chat backend is unreachable", Cause: err}
}

// classifyStatus maps a non-200 response onto a ClientError.
func classifyStatus(resp *http.Response) error {
	if resp.StatusCode == http.StatusTooManyRequests {
		return ErrRateLimited
	}
	// Try to read a structured error message
	var serverErr struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&serverErr); err == nil && serverErr.Error != "" {
		return &ClientError{Type: ErrTypeServerError, Message: serverErr.Error}
	}
	return &ClientError{
		Type:    ErrTypeServerError,
		Message: "chat request failed: " + resp.Status,
	}
}

// =============================================================================
// STREAMING SEND
// =============================================================================

// DeltaCallback is called for each text delta received during streaming.
// Callbacks run synchronously in network arrival order.
type DeltaCallback func(delta string)

// Send submits a prompt and streams the response, calling onDelta for each
// text fragment. Returns when the stream completes or an error occurs; a
// stream error event surfaces as *sse.ProtocolError.
func (c *Client) Send(ctx context.Context, prompt string, onDelta DeltaCallback) error {
	if !c.limiter.Allow() {
		return ErrRateLimited
	}

	body, err := json.Marshal(chatRequest{Prompt: prompt})
	if err != nil {
		return &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to marshal request", Cause: err}
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/chat", body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")

	// Use a client without timeout for streaming (we handle timeout via
	// context), but keep the shared jar so the session cookie survives.
	streamClient := &http.Client{Jar: c.httpClient.Jar}

	start := time.Now()
	resp, err := streamClient.Do(req)
	if err != nil {
		return classifyTransport(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return classifyStatus(resp)
	}

	decoder := sse.NewFrameDecoder(func(rec *sse.Record) error {
		if text := sse.ExtractText(rec.Data); text != "" {
			onDelta(text)
		}
		return nil
	})

	err = decoder.Stream(ctx, resp.Body)

	log.Debug().
		Str("component", "chat").
		Dur("elapsed", time.Since(start)).
		Err(err).
		Msg("stream finished")

	return err
}

// =============================================================================
// HISTORY
// =============================================================================

// historyResponse mirrors the backend's session history payload. Content is a
// list of fragments; entries without a text fragment are skipped.
type historyResponse struct {
	Messages []struct {
		Role    string `json:"role"`
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	} `json:"messages"`
}

// History fetches the prior messages of the current session.
func (c *Client) History(ctx context.Context) ([]*model.Message, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/chat", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransport(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus(resp)
	}

	var decoded historyResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode history", Cause: err}
	}

	var messages []*model.Message
	for _, m := range decoded.Messages {
		text := ""
		for _, frag := range m.Content {
			if frag.Text != "" {
				text = frag.Text
				break
			}
		}
		if text == "" {
			continue
		}
		messages = append(messages, model.NewMessage(model.ParseRole(m.Role), text))
	}
	return messages, nil
}
