// Package llm talks to an OpenAI-compatible chat completion service that
// translates natural language into the structured instruction JSON.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ResponseError marks an empty or unusable upstream response. It is a
// caller-visible condition, never retried.
type ResponseError struct {
	Reason string
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("language model response unusable: %s", e.Reason)
}

// ClientConfig configures the upstream service.
type ClientConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Client is a minimal chat-completions client.
type Client struct {
	cfg        ClientConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient builds a client; BaseURL and Model are required.
func NewClient(cfg ClientConfig, logger *zap.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("llm base url is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("llm model is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Translate sends the user text and returns the raw JSON payload the model
// produced, with any markdown code fence stripped.
func (c *Client) Translate(ctx context.Context, input string) (json.RawMessage, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: input},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &ResponseError{Reason: err.Error()}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &ResponseError{Reason: fmt.Sprintf("read body: %v", err)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &ResponseError{Reason: fmt.Sprintf("status %d", resp.StatusCode)}
	}

	var parsed chatResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return nil, &ResponseError{Reason: fmt.Sprintf("parse body: %v", err)}
	}
	if len(parsed.Choices) == 0 {
		return nil, &ResponseError{Reason: "no choices"}
	}

	content := StripCodeFence(parsed.Choices[0].Message.Content)
	if content == "" {
		return nil, &ResponseError{Reason: "empty completion"}
	}
	if !json.Valid([]byte(content)) {
		c.logger.Debug("model returned non-JSON content", zap.String("content", content))
		return nil, &ResponseError{Reason: "completion is not valid JSON"}
	}

	return json.RawMessage(content), nil
}

// StripCodeFence removes a surrounding markdown code block, if present.
func StripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
	}
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	return strings.TrimSpace(content)
}
