package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"doctrans/internal/apperrors"
	"doctrans/internal/httpclient"
)

// GeminiClient talks to the Gemini API.
type GeminiClient struct {
	client    *genai.Client
	modelName string
}

// NewGeminiClient creates a new Gemini client.
func NewGeminiClient(ctx context.Context, apiKey, modelName string) (*GeminiClient, error) {
	// Note: We avoid option.WithHTTPClient because it interferes with the
	// genai library's internal header injection for API keys. Timeouts are
	// enforced via context in Complete instead.
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	return &GeminiClient{client: client, modelName: modelName}, nil
}

var _ Client = (*GeminiClient)(nil)

// Complete sends one prompt pair and returns the model's text.
// A fresh GenerativeModel is built per call so that concurrent jobs with
// different system prompts never share mutable model state.
func (c *GeminiClient) Complete(ctx context.Context, system, user string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, httpclient.DefaultTimeout)
	defer cancel()

	model := c.client.GenerativeModel(c.modelName)
	if system != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(system)},
		}
	}

	resp, err := model.GenerateContent(ctx, genai.Text(user))
	if err != nil {
		return "", classifyGeminiError(err)
	}
	text, err := extractResponseText(resp)
	if err != nil {
		return "", apperrors.Translator(err)
	}
	return text, nil
}

// Close closes the underlying genai client.
func (c *GeminiClient) Close() error {
	return c.client.Close()
}

func extractResponseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", fmt.Errorf("no response received from Gemini")
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates returned from Gemini")
	}
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
			continue
		}
		var combined string
		for _, part := range candidate.Content.Parts {
			text, ok := part.(genai.Text)
			if !ok {
				continue
			}
			combined += string(text)
		}
		if combined != "" {
			return combined, nil
		}
	}
	return "", fmt.Errorf("no text parts found in Gemini response")
}

func classifyGeminiError(err error) error {
	if err == nil {
		return nil
	}

	wrapped := fmt.Errorf("gemini generate content failed: %w", err)

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case 400, 401, 403, 404:
			return apperrors.New(apperrors.KindBadRequest, fmt.Sprintf("Gemini request rejected (%d).", gerr.Code), wrapped)
		case 429:
			return apperrors.New(apperrors.KindRateLimit, "Gemini rate limit exceeded (429). Please try again later.", wrapped)
		default:
			if gerr.Code >= 500 {
				return apperrors.New(apperrors.KindTransient, fmt.Sprintf("Gemini service temporary error (%d). Please retry.", gerr.Code), wrapped)
			}
			return apperrors.New(apperrors.KindBadRequest, fmt.Sprintf("Gemini API error (%d).", gerr.Code), wrapped)
		}
	}

	// Non-HTTP transport/runtime failures (DNS, socket, timeout, etc.)
	// are usually transient and worth retrying.
	return apperrors.New(apperrors.KindTransient, "Gemini request failed due to a temporary network/runtime error.", wrapped)
}
