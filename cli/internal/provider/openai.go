package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"gai/cli/internal/erruser"
	"gai/cli/internal/prompt"
)

// DefaultOpenAIBaseURL is the hosted API root.
const DefaultOpenAIBaseURL = "https://api.openai.com/v1"

// OpenAI talks to the hosted chat-completions API with a bearer credential.
type OpenAI struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewOpenAI builds the cloud client. A missing API key returns an error
// wrapping ErrMissingAPIKey before any request is sent.
func NewOpenAI(cfg Config) (*OpenAI, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, erruser.New("OpenAI API key is not set. Export OPENAI_API_KEY or add it to .env.", ErrMissingAPIKey)
	}
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}
	return &OpenAI{
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		baseURL:    baseURL,
		httpClient: cfg.httpClient(),
	}, nil
}

// Name identifies the provider in user-facing output.
func (o *OpenAI) Name() string { return "openai" }

// Model returns the configured model identifier.
func (o *OpenAI) Model() string { return o.model }

type openaiRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
}

type openaiResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Generate sends the diff to {base}/chat/completions and returns the raw
// response text. 401/403 wrap ErrAuth; 429, 5xx, and transport failures wrap
// ErrUnavailable. Nothing is retried.
func (o *OpenAI) Generate(ctx context.Context, diff string, opts Options) (string, error) {
	body := openaiRequest{
		Model: o.model,
		Messages: []chatMessage{
			{Role: "system", Content: prompt.System(opts.Oneline)},
			{Role: "user", Content: prompt.User(diff)},
		},
	}
	if opts.Temperature > 0 {
		t := opts.Temperature
		body.Temperature = &t
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("openai chat: marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("openai chat: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("openai chat: %w", errors.Join(ErrUnavailable, err))
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("openai chat: read response: %w", err)
	}
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", fmt.Errorf("openai chat: %w: HTTP %d: %s", ErrAuth, resp.StatusCode, truncateBody(respBody))
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return "", fmt.Errorf("openai chat: %w: HTTP %d: %s", ErrUnavailable, resp.StatusCode, truncateBody(respBody))
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("openai chat: HTTP %d: %s", resp.StatusCode, truncateBody(respBody))
	}
	var result openaiResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("openai chat: parse response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", errors.New("openai chat: no choices in response")
	}
	return result.Choices[0].Message.Content, nil
}

// truncateBody keeps error output readable when the API returns a long body.
func truncateBody(b []byte) string {
	const max = 256
	s := strings.TrimSpace(string(b))
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
