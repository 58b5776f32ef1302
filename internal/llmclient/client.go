// Package llmclient is the transport boundary between the planner compile
// loop / factory SE node and an LLM provider. It exposes a single opaque
// Complete call, backed by an OpenAI-chat-completions-compatible HTTP
// adapter generalized from the teacher's
// internal/llm/providers/openaicompat.Adapter down to a single-message,
// non-streaming request.
package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client is the opaque LLM transport surface the planner compile loop and
// the factory SE node depend on. Implementations never retry internally;
// retry orchestration belongs to the caller (CompileLoop, SE node) so that
// attempt bookkeeping and backoff delay stay visible in their own artifacts.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Config configures an HTTPClient.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	// Path defaults to /v1/chat/completions, matching the teacher's
	// openaicompat adapter.
	Path string
	// Temperature, when non-nil, is forwarded on the request body.
	Temperature *float64
	Timeout     time.Duration
}

// HTTPClient is a single-provider, non-streaming OpenAI-chat-completions
// client.
type HTTPClient struct {
	cfg    Config
	client *http.Client
}

const defaultRequestTimeout = 5 * time.Minute

// NewHTTPClient builds an HTTPClient, applying the teacher's
// openaicompat.NewAdapter defaulting conventions (trimmed base URL, default
// chat-completions path).
func NewHTTPClient(cfg Config) *HTTPClient {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if strings.TrimSpace(cfg.Path) == "" {
		cfg.Path = "/v1/chat/completions"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &HTTPClient{cfg: cfg, client: &http.Client{Timeout: timeout}}
}

type chatRequestBody struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponseBody struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends prompt as a single user message and returns the assistant
// message content. A non-2xx response is classified via
// ErrorFromHTTPStatus so the caller can branch on Retryable.
func (c *HTTPClient) Complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequestBody{
		Model:       c.cfg.Model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: c.cfg.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("llmclient: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+c.cfg.Path, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("llmclient: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("llmclient: transport: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return "", fmt.Errorf("llmclient: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		ra := ParseRetryAfter(resp.Header.Get("Retry-After"), time.Now())
		return "", ErrorFromHTTPStatus(resp.StatusCode, string(raw), ra)
	}

	var parsed chatResponseBody
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("llmclient: decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("llmclient: response had no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

// CompleteWithRetry wraps a Client with the exponential-backoff retry
// policy: up to maxAttempts total tries, retrying only on Error.Retryable,
// honoring Retry-After when present, otherwise falling back to
// BackoffConfig. traceID seeds jitter so repeated runs of the same attempt
// are reproducible.
func CompleteWithRetry(ctx context.Context, c Client, prompt, traceID string, maxAttempts int, cfg BackoffConfig) (string, error) {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		out, err := c.Complete(ctx, prompt)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if !IsRetryable(err) || attempt == maxAttempts {
			return "", err
		}
		delay := DelayForAttempt(attempt, cfg, fmt.Sprintf("%s:%d", traceID, attempt))
		if le, ok := err.(Error); ok {
			if ra := le.RetryAfter(); ra != nil && *ra > delay {
				delay = *ra
			}
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(delay):
		}
	}
	return "", lastErr
}
