package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
)

// LangChainCompleter adapts any langchaingo model.
type LangChainCompleter struct {
	model llms.Model
}

func NewLangChainCompleter(model llms.Model) *LangChainCompleter {
	return &LangChainCompleter{model: model}
}

func (c *LangChainCompleter) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, userPrompt),
	}

	response, err := c.model.GenerateContent(ctx, messages, llms.WithTemperature(0))
	if err != nil {
		return "", fmt.Errorf("generate with system: %w", err)
	}
	if len(response.Choices) == 0 {
		return "", errors.New("no response choices")
	}

	return strings.TrimSpace(response.Choices[0].Content), nil
}
