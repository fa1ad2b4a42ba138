package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAICompleter talks to the OpenAI chat completions API or any endpoint
// compatible with it.
type OpenAICompleter struct {
	client openai.Client
	model  string
}

func NewOpenAICompleter(opts Options) *OpenAICompleter {
	opts = opts.normalized()

	var client openai.Client
	if opts.BaseURL != "" {
		client = openai.NewClient(
			option.WithAPIKey(opts.APIKey),
			option.WithBaseURL(opts.BaseURL),
		)
	} else {
		client = openai.NewClient(
			option.WithAPIKey(opts.APIKey),
		)
	}

	return &OpenAICompleter{client: client, model: opts.Model}
}

func (c *OpenAICompleter) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	response, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
		Temperature: openai.Float(0),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(response.Choices) == 0 {
		return "", errors.New("no response from model")
	}

	return strings.TrimSpace(response.Choices[0].Message.Content), nil
}
