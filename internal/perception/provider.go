// Package perception is the client for the external multimodal capability:
// it accepts page images and/or text plus a task directive and returns the
// model's structured or free-text judgment. The service is slow, rate
// limited, and occasionally wrong; nothing here is ground truth and every
// numeric claim it makes is cross-checked downstream.
package perception

import (
	"context"
	"errors"
	"fmt"
)

// Request is one call to the perception capability.
type Request struct {
	// Task names the directive (classify, extract-profile, ...) and
	// namespaces the cache.
	Task string

	// Prompt is the instruction text.
	Prompt string

	// Images are PNG-encoded page images, in page order. May be empty for
	// text-only tasks.
	Images [][]byte

	// JSONMode asks the model for a JSON object response.
	JSONMode bool

	MaxTokens int
}

// Response is the raw model reply.
type Response struct {
	Text       string `json:"text"`
	Model      string `json:"model"`
	TokensUsed int    `json:"tokens_used"`
}

// Provider is a concrete perception backend.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req Request) (*Response, error)
}

// transientError marks a failure worth retrying (rate limits, 5xx,
// timeouts). Everything else is permanent and fails the call immediately.
type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// Transient wraps err as retryable.
func Transient(err error) error {
	return &transientError{err: err}
}

// IsTransient reports whether err is worth a bounded retry.
func IsTransient(err error) bool {
	var t *transientError
	return errors.As(err, &t)
}

// NewProvider builds the configured backend.
func NewProvider(name, apiKey, baseURL, model string) (Provider, error) {
	switch name {
	case "openai", "":
		return NewOpenAIProvider(apiKey, baseURL, model)
	default:
		return nil, fmt.Errorf("unknown perception provider: %s (supported: openai)", name)
	}
}
