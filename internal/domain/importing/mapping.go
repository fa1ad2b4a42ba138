package importing

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// IgnoreTarget suppresses a column entirely. An empty target is accepted as
// an alias for callers that send "" to mean ignore.
const IgnoreTarget = "ignore"

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// NormalizeHeader lowercases, collapses non-alphanumeric runs to a single
// underscore and trims underscores from both ends. It is idempotent.
func NormalizeHeader(header string) string {
	s := strings.ToLower(strings.TrimSpace(header))
	s = nonAlnum.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}

// FieldMapping associates raw headers with targets. Keys are normalized on
// construction so lookups are insensitive to case and spacing.
type FieldMapping struct {
	targets map[string]string
}

func NewFieldMapping(raw map[string]string) FieldMapping {
	targets := make(map[string]string, len(raw))
	for header, target := range raw {
		key := NormalizeHeader(header)
		if key == "" {
			continue
		}
		targets[key] = NormalizeHeader(target)
	}
	return FieldMapping{targets: targets}
}

// Lookup reports the explicit target for a header, if any.
func (m FieldMapping) Lookup(header string) (string, bool) {
	target, ok := m.targets[NormalizeHeader(header)]
	return target, ok
}

func IsIgnore(target string) bool {
	return target == "" || strings.EqualFold(target, IgnoreTarget)
}

type Strategy string

const (
	StrategyMerge       Strategy = "MERGE"
	StrategyNewSet      Strategy = "NEW_SET"
	StrategyExistingSet Strategy = "EXISTING_SET"
	StrategyGlobal      Strategy = "GLOBAL"
)

// ValidFor reports whether the strategy applies to the job kind. MERGE is
// asset only and GLOBAL is user only.
func (s Strategy) ValidFor(kind JobKind) bool {
	switch s {
	case StrategyNewSet, StrategyExistingSet:
		return true
	case StrategyMerge:
		return kind == KindAssetImport
	case StrategyGlobal:
		return kind == KindUserImport
	default:
		return false
	}
}

type ExecuteOptions struct {
	Mapping             FieldMapping
	NewSetName          string
	SetID               string
	NewFields           []string
	CreateMissingFields bool
	// UserMatches holds caller-confirmed person references, raw value to
	// user id, that win over the matcher.
	UserMatches map[string]uuid.UUID
}
