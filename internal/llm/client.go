package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Default decoding parameters. Low temperature trades creativity for
// factual consistency, which grounded answers want.
const (
	DefaultTemperature float32 = 0.3
	DefaultMaxTokens           = 800
	DefaultTopP        float32 = 0.9
)

const (
	// defaultMaxRetries is the retry budget for CompleteWithRetry.
	defaultMaxRetries = 2
	// retryBackoffUnit scales the linear backoff: the Nth retry waits
	// N * retryBackoffUnit.
	retryBackoffUnit = 2 * time.Second
)

// Client is a client for an OpenAI-compatible chat completions API.
// Generation is the most expensive and most transiently-failure-prone
// external call, so it is the only one that retries.
type Client struct {
	BaseURL    string
	APIKey     string
	Model      string
	MaxRetries int

	client *http.Client
	// wait blocks for the backoff delay; cancellable via ctx so callers
	// can apply upstream timeouts. Replaced in tests.
	wait func(ctx context.Context, d time.Duration) error
}

// NewClient creates a new completions client.
func NewClient(baseURL, apiKey, model string) *Client {
	return &Client{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		Model:      model,
		MaxRetries: defaultMaxRetries,
		client:     http.DefaultClient,
		wait:       waitContext,
	}
}

// waitContext sleeps for d unless ctx is cancelled first.
func waitContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// chatMessage represents a single message in a chat conversation.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatRequest represents the request payload for chat completions.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	TopP        float32       `json:"top_p"`
}

// chatResponse represents the response from the chat completions API.
type chatResponse struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// Complete sends one chat completion request with a system and user
// message. Zero-valued params fall back to the package defaults.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string, params ChatParams) (CompletionResult, error) {
	start := time.Now()

	model := params.Model
	if model == "" {
		model = c.Model
	}
	temperature := params.Temperature
	if temperature == 0 {
		temperature = DefaultTemperature
	}
	maxTokens := params.MaxTokens
	if maxTokens == 0 {
		maxTokens = DefaultMaxTokens
	}
	topP := params.TopP
	if topP == 0 {
		topP = DefaultTopP
	}

	payload := chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
		TopP:        topP,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return CompletionResult{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/chat/completions", c.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return CompletionResult{}, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.APIKey))
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return CompletionResult{}, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return CompletionResult{}, fmt.Errorf("bad status %d: %s", resp.StatusCode, string(raw))
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return CompletionResult{}, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(chatResp.Choices) == 0 {
		return CompletionResult{}, fmt.Errorf("no choices returned")
	}

	return CompletionResult{
		Answer:       chatResp.Choices[0].Message.Content,
		TokensUsed:   chatResp.Usage.TotalTokens,
		ResponseTime: time.Since(start),
	}, nil
}

// CompleteWithRetry calls Complete with the default decoding parameters,
// retrying failures with linear backoff: the Nth retry waits N*2s. After
// the retry budget is spent, the last provider error is returned. A
// cancelled context aborts the wait immediately.
func (c *Client) CompleteWithRetry(ctx context.Context, systemPrompt, userPrompt string) (CompletionResult, error) {
	var lastErr error

	for attempt := 0; attempt <= c.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := c.wait(ctx, time.Duration(attempt)*retryBackoffUnit); err != nil {
				return CompletionResult{}, err
			}
		}

		result, err := c.Complete(ctx, systemPrompt, userPrompt, ChatParams{})
		if err == nil {
			return result, nil
		}
		lastErr = err
	}

	return CompletionResult{}, fmt.Errorf("all retry attempts failed: %w", lastErr)
}
