// Package provider abstracts the language-model backends that turn a staged
// diff into raw commit-message text. Two implementations share the Generator
// interface: Ollama (local endpoint, no credential) and OpenAI (hosted API,
// bearer credential). Neither retries failed calls; in an interactive tool
// the regenerate decision is the retry mechanism, so rate limits and server
// errors surface immediately.
package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrUnavailable indicates the provider endpoint could not be reached or
// answered with a transport-level failure (connection refused, timeout,
// rate limit, 5xx).
var ErrUnavailable = errors.New("provider unavailable")

// ErrAuth indicates the provider rejected the credential.
var ErrAuth = errors.New("authentication failed")

// ErrMissingAPIKey indicates a cloud provider was selected without a
// credential. Raised before any request is sent.
var ErrMissingAPIKey = errors.New("api key not set")

const _defaultTimeout = 60 * time.Second

// Options are the per-request generation parameters. Oneline is threaded
// into prompt construction only; it never changes provider selection.
type Options struct {
	Oneline     bool
	Temperature float64
}

// Generator produces raw, unvalidated commit-message text for a diff.
// Sanitizing the output is the caller's job.
type Generator interface {
	Generate(ctx context.Context, diff string, opts Options) (string, error)
	Name() string
}

// Config holds the resolved backend settings for one provider instance.
type Config struct {
	Model   string
	BaseURL string
	APIKey  string
	Timeout time.Duration
	// HTTPClient overrides the default client; tests pass the httptest
	// server client. Nil uses a client with Config.Timeout.
	HTTPClient *http.Client
}

func (c Config) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = _defaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// New builds a Generator by provider name.
func New(name string, cfg Config) (Generator, error) {
	switch name {
	case "ollama":
		return NewOllama(cfg), nil
	case "openai":
		o, err := NewOpenAI(cfg)
		if err != nil {
			return nil, err
		}
		return o, nil
	default:
		return nil, fmt.Errorf("unknown provider %q: use ollama or openai", name)
	}
}
