package llm

import (
	"context"
	"sync"

	domain "github.com/mohammadpnp/asset-import/internal/domain/importing"
	"github.com/mohammadpnp/asset-import/internal/pkg/logger"
)

// Setting keys that override the environment provider configuration.
const (
	SettingProvider = "ai_provider"
	SettingAPIKey   = "ai_api_key"
	SettingModel    = "ai_model"
	SettingBaseURL  = "ai_base_url"
)

// Source resolves the active provider on every call so settings changes take
// effect without a restart. Built completers are reused while the effective
// options stay the same.
type Source struct {
	settings domain.SettingsReader
	fallback Options
	log      *logger.Logger
	build    func(Options) (domain.Completer, error)

	mu        sync.Mutex
	current   Options
	completer domain.Completer
}

func NewSource(settings domain.SettingsReader, fallback Options, log *logger.Logger) *Source {
	if log == nil {
		log = logger.NewNop()
	}
	return &Source{settings: settings, fallback: fallback, log: log, build: New}
}

func (s *Source) Completer(ctx context.Context) (domain.Completer, bool) {
	opts := s.options(ctx)
	if !opts.Configured() {
		return nil, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.completer != nil && s.current == opts {
		return s.completer, true
	}

	completer, err := s.build(opts)
	if err != nil {
		s.log.Warn("llm provider unavailable", "provider", opts.Provider, "error", err)
		return nil, false
	}
	s.current, s.completer = opts, completer
	return completer, true
}

// options layers stored settings over the environment. A settings read
// failure falls back to the environment alone.
func (s *Source) options(ctx context.Context) Options {
	opts := s.fallback
	if s.settings == nil {
		return opts
	}

	values, err := s.settings.Values(ctx, SettingProvider, SettingAPIKey, SettingModel, SettingBaseURL)
	if err != nil {
		s.log.Warn("llm settings unavailable", "error", err)
		return opts
	}

	if v := values[SettingProvider]; v != "" {
		opts.Provider = v
	}
	if v := values[SettingAPIKey]; v != "" {
		opts.APIKey = v
	}
	if v := values[SettingModel]; v != "" {
		opts.Model = v
	}
	if v := values[SettingBaseURL]; v != "" {
		opts.BaseURL = v
	}
	return opts
}
