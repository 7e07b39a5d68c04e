package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/suykerbuyk/recap/internal/config"
)

const maxErrorBody = 512

// Client calls an OpenAI-compatible chat-completion endpoint. It is
// immutable after construction and safe for concurrent use.
type Client struct {
	url         string
	model       string
	temperature float64
	apiKey      string
	timeout     time.Duration
	maxRetries  int
	backoff     time.Duration
	http        *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithInitialBackoff sets the delay before the first retry.
func WithInitialBackoff(d time.Duration) Option {
	return func(c *Client) { c.backoff = d }
}

// WithAttemptTimeout overrides the per-attempt bound taken from
// timeout_seconds.
func WithAttemptTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// NewClient builds a client for cfg authenticated with apiKey.
func NewClient(cfg config.ModelConfig, apiKey string, opts ...Option) *Client {
	c := &Client{
		url:         strings.TrimRight(cfg.BaseURL, "/") + "/chat/completions",
		model:       cfg.Model,
		temperature: cfg.Temperature,
		apiKey:      apiKey,
		timeout:     cfg.Timeout(),
		maxRetries:  cfg.MaxRetries,
		backoff:     500 * time.Millisecond,
		http:        http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Model returns the model identifier sent with every request.
func (c *Client) Model() string { return c.model }

// Complete sends messages and returns the raw response body. Transient
// failures are retried up to the configured budget; every failure is a
// *TransportError.
func (c *Client) Complete(ctx context.Context, messages []Message) ([]byte, error) {
	if c.apiKey == "" {
		return nil, &TransportError{Op: "request", Err: ErrNoAPIKey}
	}

	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	var out []byte
	attempt := func() error {
		respBody, err := c.post(ctx, body)
		if err != nil {
			var te *TransportError
			if errors.As(err, &te) && te.Transient && ctx.Err() == nil {
				return err
			}
			return backoff.Permanent(err)
		}
		out = respBody
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.backoff
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.maxRetries)), ctx)

	if err := backoff.Retry(attempt, policy); err != nil {
		var te *TransportError
		if errors.As(err, &te) {
			return nil, err
		}
		return nil, &TransportError{Op: "request", Err: err}
	}
	return out, nil
}

func (c *Client) post(ctx context.Context, body []byte) ([]byte, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, &TransportError{Op: "request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Op: "request", Err: err, Transient: ctx.Err() == nil}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: "read", Err: err, Transient: ctx.Err() == nil}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{
			Op:         "status",
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("API error: %s", truncate(respBody, maxErrorBody)),
			Transient:  resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500,
		}
	}

	return respBody, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "...[truncated]"
}
