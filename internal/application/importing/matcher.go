package importing

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lithammer/fuzzysearch/fuzzy"
	domain "github.com/mohammadpnp/asset-import/internal/domain/importing"
)

// MatchCutoff is the minimum similarity a fuzzy person match must reach.
const MatchCutoff = 0.6

// UserMatcher resolves raw person references (emails, near-miss emails) to
// user ids. Values without a match are absent from the result.
type UserMatcher interface {
	Match(ctx context.Context, values []string) (map[string]uuid.UUID, error)
}

// DirectoryMatcher scans the whole user directory for every call.
type DirectoryMatcher struct {
	directory domain.UserDirectory
}

func NewDirectoryMatcher(directory domain.UserDirectory) *DirectoryMatcher {
	return &DirectoryMatcher{directory: directory}
}

func (m *DirectoryMatcher) Match(ctx context.Context, values []string) (map[string]uuid.UUID, error) {
	matches := make(map[string]uuid.UUID, len(values))
	if len(values) == 0 {
		return matches, nil
	}

	entries, err := m.directory.Entries(ctx)
	if err != nil {
		return nil, fmt.Errorf("load user directory: %w", err)
	}

	for _, value := range values {
		if id, ok := MatchEntry(entries, value); ok {
			matches[value] = id
		}
	}
	return matches, nil
}

// MatchEntry resolves one value: a case-insensitive exact email wins,
// otherwise the single best candidate at or above MatchCutoff. A tie at the
// best score is no match.
func MatchEntry(entries []domain.DirectoryEntry, value string) (uuid.UUID, bool) {
	needle := strings.ToLower(strings.TrimSpace(value))
	if needle == "" {
		return uuid.Nil, false
	}

	for _, e := range entries {
		if strings.ToLower(e.Email) == needle {
			return e.ID, true
		}
	}

	best := -1.0
	var bestID uuid.UUID
	tied := false
	for _, e := range entries {
		score := Similarity(needle, strings.ToLower(e.Email))
		switch {
		case score > best:
			best, bestID, tied = score, e.ID, false
		case score == best && e.ID != bestID:
			tied = true
		}
	}

	if best < MatchCutoff || tied {
		return uuid.Nil, false
	}
	return bestID, true
}

// Similarity is one minus the Levenshtein distance over the longer rune
// length, so identical strings score 1.
func Similarity(a, b string) float64 {
	longest := len([]rune(a))
	if n := len([]rune(b)); n > longest {
		longest = n
	}
	if longest == 0 {
		return 1
	}
	return 1 - float64(fuzzy.LevenshteinDistance(a, b))/float64(longest)
}

// PersonColumn returns the first header that looks like a person reference.
func PersonColumn(headers []string) (string, bool) {
	for _, h := range headers {
		key := domain.NormalizeHeader(h)
		if strings.Contains(key, "user") || strings.Contains(key, "owner") || strings.Contains(key, "email") {
			return h, true
		}
	}
	return "", false
}
