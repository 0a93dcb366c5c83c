// File: internal/matching/openai.go
package matching

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"wecare_donations_backend/internal/config"
)

// OpenAICompleter is a Completer backed by the chat completions API.
type OpenAICompleter struct {
	client *openai.Client
	model  string
}

var _ Completer = (*OpenAICompleter)(nil)

// NewCompleter builds the OpenAI completer, or returns nil when OPENAI_API_KEY is unset.
func NewCompleter(cfg *config.Config) Completer {
	if cfg.OpenAIAPIKey == "" {
		return nil
	}
	clientConfig := openai.DefaultConfig(cfg.OpenAIAPIKey)
	if cfg.OpenAIBaseURL != "" {
		clientConfig.BaseURL = cfg.OpenAIBaseURL
	}
	return &OpenAICompleter{client: openai.NewClientWithConfig(clientConfig), model: cfg.OpenAIModel}
}

// Complete requests a JSON-object reply.
func (c *OpenAICompleter) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
