package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"gai/cli/internal/prompt"
)

// DefaultOllamaBaseURL is the standard local Ollama endpoint.
const DefaultOllamaBaseURL = "http://localhost:11434"

// Ollama talks to a locally hosted Ollama server. No credential is used.
// Failures are not retried: a local daemon that is down stays down until
// the user starts it.
type Ollama struct {
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewOllama builds the local-model client. An empty BaseURL falls back to
// DefaultOllamaBaseURL.
func NewOllama(cfg Config) *Ollama {
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultOllamaBaseURL
	}
	return &Ollama{
		model:      cfg.Model,
		baseURL:    baseURL,
		httpClient: cfg.httpClient(),
	}
}

// Name identifies the provider in user-facing output.
func (o *Ollama) Name() string { return "ollama" }

// Model returns the configured model identifier.
func (o *Ollama) Model() string { return o.model }

type ollamaChatRequest struct {
	Model    string             `json:"model"`
	Messages []chatMessage      `json:"messages"`
	Stream   bool               `json:"stream"`
	Options  *ollamaChatOptions `json:"options,omitempty"`
}

type ollamaChatOptions struct {
	Temperature float64 `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatResponse struct {
	Message chatMessage `json:"message"`
}

// Generate sends the diff to /api/chat and returns the raw response text.
// Connection errors, timeouts, and non-2xx statuses wrap ErrUnavailable.
func (o *Ollama) Generate(ctx context.Context, diff string, opts Options) (string, error) {
	body := ollamaChatRequest{
		Model: o.model,
		Messages: []chatMessage{
			{Role: "system", Content: prompt.System(opts.Oneline)},
			{Role: "user", Content: prompt.User(diff)},
		},
		Stream: false,
	}
	if opts.Temperature > 0 {
		body.Options = &ollamaChatOptions{Temperature: opts.Temperature}
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("ollama chat: marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("ollama chat: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama chat: %w", errors.Join(ErrUnavailable, err))
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama chat: %w: HTTP %d", ErrUnavailable, resp.StatusCode)
	}
	var result ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("ollama chat: parse response: %w", err)
	}
	return result.Message.Content, nil
}

// CheckResult is the outcome of a server health/model check.
type CheckResult struct {
	Reachable    bool     // Server answered /api/tags with 200.
	ModelPresent bool     // Configured model name appears in the tags list.
	ModelNames   []string // All model names, for diagnostics.
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// Check verifies the server is reachable and whether the configured model is
// pulled. GETs /api/tags; connection or HTTP errors wrap ErrUnavailable.
func (o *Ollama) Check(ctx context.Context) (*CheckResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("ollama tags: build request: %w", err)
	}
	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama tags: %w", errors.Join(ErrUnavailable, err))
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama tags: %w: HTTP %d", ErrUnavailable, resp.StatusCode)
	}
	var body tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("ollama tags: parse response: %w", err)
	}
	names := make([]string, 0, len(body.Models))
	present := false
	for _, m := range body.Models {
		names = append(names, m.Name)
		if m.Name == o.model {
			present = true
		}
	}
	return &CheckResult{Reachable: true, ModelPresent: present, ModelNames: names}, nil
}
