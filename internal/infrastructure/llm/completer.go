package llm

import (
	"errors"
	"fmt"
	"strings"

	domain "github.com/mohammadpnp/asset-import/internal/domain/importing"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/ollama"
)

const (
	ProviderOpenAI     = "openai"
	ProviderCompatible = "openai_compatible"
	ProviderAnthropic  = "anthropic"
	ProviderOllama     = "ollama"
)

var (
	ErrUnsupportedProvider = errors.New("unsupported llm provider")
	ErrMissingAPIKey       = errors.New("llm api key is required")
)

var defaultModels = map[string]string{
	ProviderOpenAI:     "gpt-4o-mini",
	ProviderCompatible: "gpt-4o-mini",
	ProviderAnthropic:  "claude-3-5-haiku-latest",
	ProviderOllama:     "llama3.1",
}

// Options selects and configures one provider. An empty Provider means no
// provider is configured.
type Options struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string
}

func (o Options) normalized() Options {
	o.Provider = strings.ToLower(strings.TrimSpace(o.Provider))
	o.APIKey = strings.TrimSpace(o.APIKey)
	o.Model = strings.TrimSpace(o.Model)
	o.BaseURL = strings.TrimSpace(o.BaseURL)
	if o.Model == "" {
		o.Model = defaultModels[o.Provider]
	}
	return o
}

func (o Options) Configured() bool {
	p := strings.ToLower(strings.TrimSpace(o.Provider))
	return p != "" && p != "none"
}

// New builds a completer for the selected provider. OpenAI and compatible
// endpoints go through the openai-go SDK; anthropic and ollama through
// langchaingo.
func New(opts Options) (domain.Completer, error) {
	opts = opts.normalized()

	switch opts.Provider {
	case ProviderOpenAI, ProviderCompatible:
		if opts.APIKey == "" {
			return nil, ErrMissingAPIKey
		}
		if opts.Provider == ProviderCompatible && opts.BaseURL == "" {
			return nil, fmt.Errorf("%w: %s requires a base url", ErrUnsupportedProvider, opts.Provider)
		}
		return NewOpenAICompleter(opts), nil

	case ProviderAnthropic:
		if opts.APIKey == "" {
			return nil, ErrMissingAPIKey
		}
		anthropicOpts := []anthropic.Option{
			anthropic.WithToken(opts.APIKey),
			anthropic.WithModel(opts.Model),
		}
		if opts.BaseURL != "" {
			anthropicOpts = append(anthropicOpts, anthropic.WithBaseURL(opts.BaseURL))
		}
		model, err := anthropic.New(anthropicOpts...)
		if err != nil {
			return nil, fmt.Errorf("create anthropic model: %w", err)
		}
		return NewLangChainCompleter(model), nil

	case ProviderOllama:
		ollamaOpts := []ollama.Option{ollama.WithModel(opts.Model)}
		if opts.BaseURL != "" {
			ollamaOpts = append(ollamaOpts, ollama.WithServerURL(opts.BaseURL))
		}
		model, err := ollama.New(ollamaOpts...)
		if err != nil {
			return nil, fmt.Errorf("create ollama model: %w", err)
		}
		return NewLangChainCompleter(model), nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProvider, opts.Provider)
	}
}
