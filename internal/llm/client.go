// Package llm turns a scan result into prompts for a hosted model and
// returns its answers.
package llm

import (
	"context"
	"strings"

	"google.golang.org/genai"

	"repoviz/internal/config"
	"repoviz/internal/errors"
)

// Completer sends one prompt to a model and returns the text it produced.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// GenAIClient is a Completer backed by the Gemini API.
type GenAIClient struct {
	client      *genai.Client
	model       string
	temperature float32
}

// NewGenAIClient creates a client from the llm config section. An empty API
// key yields LLM_UNAVAILABLE.
func NewGenAIClient(ctx context.Context, cfg config.LLMConfig) (*GenAIClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New(errors.LLMUnavailable, "no model API key configured", nil)
	}
	model := cfg.Model
	if model == "" {
		model = config.DefaultConfig().LLM.Model
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, errors.New(errors.LLMUnavailable, "failed to create model client", err)
	}
	return &GenAIClient{client: client, model: model, temperature: cfg.Temperature}, nil
}

// Model returns the configured model name.
func (c *GenAIClient) Model() string {
	return c.model
}

// Complete implements Completer.
func (c *GenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature: genai.Ptr(c.temperature),
	})
	if err != nil {
		return "", errors.New(errors.LLMFailed, "model request failed", err)
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", errors.New(errors.LLMFailed, "model returned an empty response", nil)
	}
	return text, nil
}
