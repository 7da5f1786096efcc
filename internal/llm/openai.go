package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"doctrans/internal/apperrors"
	"doctrans/internal/httpclient"
)

// OpenAIClient talks to any OpenAI-compatible chat completions endpoint
// (OpenAI itself, or self-hosted gateways serving Qwen and friends).
type OpenAIClient struct {
	baseURL string
	apiKey  string
	model   string
	http    *http.Client
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// NewOpenAIClient creates a client for an OpenAI-compatible endpoint.
func NewOpenAIClient(baseURL, apiKey, model string) *OpenAIClient {
	return &OpenAIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		http:    httpclient.GetDefaultClient(),
	}
}

var _ Client = (*OpenAIClient)(nil)

func (c *OpenAIClient) Complete(ctx context.Context, system, user string) (string, error) {
	reqBody := chatRequest{Model: c.model}
	if system != "" {
		reqBody.Messages = append(reqBody.Messages, chatMessage{Role: "system", Content: system})
	}
	reqBody.Messages = append(reqBody.Messages, chatMessage{Role: "user", Content: user})

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", apperrors.Transient(fmt.Errorf("chat completion request failed: %w", err))
	}
	defer resp.Body.Close()

	body, err := httpclient.ReadBody(resp)
	if err != nil {
		return "", apperrors.Transient(err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", classifyHTTPStatus(resp.StatusCode, body)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", apperrors.Translator(fmt.Errorf("failed to unmarshal response: %w", err))
	}
	if parsed.Error != nil {
		return "", apperrors.Translator(fmt.Errorf("upstream error: %s", parsed.Error.Message))
	}
	if len(parsed.Choices) == 0 {
		return "", apperrors.Translator(fmt.Errorf("no choices in response"))
	}
	return parsed.Choices[0].Message.Content, nil
}

func (c *OpenAIClient) Close() error { return nil }

func classifyHTTPStatus(code int, body []byte) error {
	cause := fmt.Errorf("chat completion HTTP %d: %s", code, truncate(string(body), 200))
	switch {
	case code == http.StatusTooManyRequests:
		return apperrors.RateLimit(cause)
	case code >= 500:
		return apperrors.Transient(cause)
	default:
		return apperrors.New(apperrors.KindBadRequest, fmt.Sprintf("Chat completion request rejected (%d).", code), cause)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
