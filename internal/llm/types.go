package llm

import (
	"errors"
	"fmt"
)

// Message is one chat-completion message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// API request types for OpenAI-compatible chat completions. The response
// envelope is decoded by the salvage package, which owns its failure modes.

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
}

// ErrNoAPIKey is returned when no model credential is configured.
var ErrNoAPIKey = errors.New("model API key not set")

// TransportError reports that the model endpoint could not be reached or
// answered with a non-success status.
type TransportError struct {
	Op         string // "request", "read" or "status"
	StatusCode int
	Err        error

	// Transient marks failures worth retrying: network faults, per-attempt
	// timeouts, 429 and 5xx.
	Transient bool
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("model %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("model %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
