package importing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	domain "github.com/mohammadpnp/asset-import/internal/domain/importing"
	"github.com/mohammadpnp/asset-import/internal/pkg/logger"
)

const (
	// SuggestThreshold is the confidence a suggestion needs to be offered as a
	// default mapping at all.
	SuggestThreshold = 0.5
	// ConfirmThreshold is the confidence below which a suggestion stays
	// advisory until the caller confirms it.
	ConfirmThreshold = 0.7

	suggestionSamples = 3
)

type Suggestion struct {
	Header     string  `json:"header"`
	Target     string  `json:"target"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason,omitempty"`
	Advisory   bool    `json:"advisory"`
}

type SuggestionSet struct {
	Suggestions []Suggestion      `json:"suggestions"`
	Mapping     map[string]string `json:"suggested_mapping"`
}

func emptySuggestions() SuggestionSet {
	return SuggestionSet{Suggestions: []Suggestion{}, Mapping: map[string]string{}}
}

// Suggester asks an external text-generation provider for header mappings.
// Every failure degrades to an empty set.
type Suggester struct {
	source  domain.CompleterSource
	cache   domain.SuggestionCache
	log     *logger.Logger
	timeout time.Duration
}

func NewSuggester(source domain.CompleterSource, cache domain.SuggestionCache, log *logger.Logger, timeout time.Duration) *Suggester {
	if log == nil {
		log = logger.NewNop()
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Suggester{source: source, cache: cache, log: log, timeout: timeout}
}

func (s *Suggester) Suggest(ctx context.Context, schema Schema, headers []string, table domain.Table) SuggestionSet {
	if s == nil || s.source == nil || len(headers) == 0 {
		return emptySuggestions()
	}

	completer, ok := s.source.Completer(ctx)
	if !ok {
		s.log.Info("mapping suggestions skipped: no provider configured")
		return emptySuggestions()
	}

	systemPrompt, userPrompt, err := buildPrompts(schema, headers, table)
	if err != nil {
		s.log.Warn("mapping suggestion prompt failed", "error", err)
		return emptySuggestions()
	}

	content, err := s.complete(ctx, completer, systemPrompt, userPrompt)
	if err != nil {
		s.log.Warn("mapping suggestion provider failed", "error", err)
		return emptySuggestions()
	}

	set, err := parseSuggestions(content, schema, headers)
	if err != nil {
		s.log.Warn("mapping suggestion response unusable", "error", err)
		return emptySuggestions()
	}
	return set
}

func (s *Suggester) complete(ctx context.Context, completer domain.Completer, systemPrompt, userPrompt string) (string, error) {
	key := promptKey(systemPrompt, userPrompt)
	if s.cache != nil {
		if cached, ok, err := s.cache.Get(ctx, key); err != nil {
			s.log.Debug("suggestion cache read failed", "error", err)
		} else if ok {
			return cached, nil
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	content, err := completer.Complete(callCtx, systemPrompt, userPrompt)
	if err != nil {
		return "", err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, content); err != nil {
			s.log.Debug("suggestion cache write failed", "error", err)
		}
	}
	return content, nil
}

func promptKey(systemPrompt, userPrompt string) string {
	sum := sha256.Sum256([]byte(systemPrompt + "\x00" + userPrompt))
	return hex.EncodeToString(sum[:])
}

func buildPrompts(schema Schema, headers []string, table domain.Table) (string, string, error) {
	fields, err := json.MarshalIndent(schema.Descriptions(), "", "  ")
	if err != nil {
		return "", "", err
	}

	samples := make(map[string][]string, len(headers))
	for _, h := range headers {
		values := table.Distinct(h)
		if len(values) > suggestionSamples {
			values = values[:suggestionSamples]
		}
		samples[h] = values
	}
	headerJSON, err := json.Marshal(headers)
	if err != nil {
		return "", "", err
	}
	sampleJSON, err := json.Marshal(samples)
	if err != nil {
		return "", "", err
	}

	systemPrompt := fmt.Sprintf(`You are an IT Asset Management data expert.
Map spreadsheet headers to internal system fields using their names and sample values.

Supported System Fields:
%s

Instructions:
1. For each header, decide whether it strongly matches one of the System Fields.
2. Skip headers that are clearly custom attributes (e.g. 'Color', 'Weight').
3. Give a confidence between 0 and 1 for every suggestion.
4. Strict JSON output only. No markdown.

Output Format:
{"suggestions": [{"header": "Header Name", "target": "system_field_key", "confidence": 0.9, "reason": "Brief explanation"}]}`, fields)

	userPrompt := fmt.Sprintf("Headers: %s\nSample Values: %s\n", headerJSON, sampleJSON)
	return systemPrompt, userPrompt, nil
}

// parseSuggestions keeps only suggestions for the asked headers that point at
// a static field, in header order.
func parseSuggestions(content string, schema Schema, headers []string) (SuggestionSet, error) {
	var payload struct {
		Suggestions []Suggestion `json:"suggestions"`
	}
	if err := json.Unmarshal([]byte(stripFences(content)), &payload); err != nil {
		return SuggestionSet{}, fmt.Errorf("decode suggestions: %w", err)
	}

	byKey := make(map[string]Suggestion, len(payload.Suggestions))
	for _, sg := range payload.Suggestions {
		key := domain.NormalizeHeader(sg.Header)
		target := domain.NormalizeHeader(sg.Target)
		if key == "" || !schema.IsStatic(target) {
			continue
		}
		if sg.Confidence < 0 || sg.Confidence > 1 {
			continue
		}
		if prev, ok := byKey[key]; ok && prev.Confidence >= sg.Confidence {
			continue
		}
		sg.Target = target
		byKey[key] = sg
	}

	set := emptySuggestions()
	for _, h := range headers {
		sg, ok := byKey[domain.NormalizeHeader(h)]
		if !ok {
			continue
		}
		sg.Header = h
		sg.Advisory = sg.Confidence < ConfirmThreshold
		set.Suggestions = append(set.Suggestions, sg)
		if sg.Confidence >= SuggestThreshold {
			set.Mapping[h] = sg.Target
		}
	}
	return set, nil
}

func stripFences(content string) string {
	content = strings.TrimSpace(content)
	if i := strings.Index(content, "```json"); i >= 0 {
		content = content[i+len("```json"):]
	} else if i := strings.Index(content, "```"); i >= 0 {
		content = content[i+3:]
	} else {
		return content
	}
	if j := strings.Index(content, "```"); j >= 0 {
		content = content[:j]
	}
	return strings.TrimSpace(content)
}
