package importing

import (
	domain "github.com/mohammadpnp/asset-import/internal/domain/importing"
)

type ResolutionKind string

const (
	ResolvedStatic  ResolutionKind = "static"
	ResolvedCustom  ResolutionKind = "custom"
	ResolvedNew     ResolutionKind = "new"
	ResolvedIgnored ResolutionKind = "ignored"
)

// Where a resolution came from.
const (
	SourceMapping = "mapping"
	SourceExact   = "exact"
	SourceCustom  = "custom"
	SourceSynonym = "synonym"
	SourceNone    = "none"
)

type Resolution struct {
	Header string         `json:"header"`
	Key    string         `json:"key"`
	Target string         `json:"target,omitempty"`
	Kind   ResolutionKind `json:"kind"`
	Source string         `json:"source"`
}

// ExtraKey is the attribute bag key for columns that are not static fields.
// Unrecognized columns keep their original header.
func (r Resolution) ExtraKey() string {
	if r.Kind == ResolvedNew && r.Source != SourceMapping {
		return r.Header
	}
	return r.Target
}

// Resolver classifies raw headers against the static fields of a schema and
// the dynamic field keys known at construction time. An explicit mapping
// entry always wins.
type Resolver struct {
	schema  Schema
	dynamic map[string]struct{}
	mapping domain.FieldMapping
}

func NewResolver(schema Schema, dynamicKeys []string, mapping domain.FieldMapping) *Resolver {
	r := &Resolver{
		schema:  schema,
		dynamic: make(map[string]struct{}, len(dynamicKeys)),
		mapping: mapping,
	}
	for _, key := range dynamicKeys {
		r.AddDynamic(key)
	}
	return r
}

func (r *Resolver) AddDynamic(key string) {
	if key = domain.NormalizeHeader(key); key != "" {
		r.dynamic[key] = struct{}{}
	}
}

func (r *Resolver) IsDynamic(key string) bool {
	_, ok := r.dynamic[key]
	return ok
}

func (r *Resolver) Resolve(header string) Resolution {
	key := domain.NormalizeHeader(header)
	res := Resolution{Header: header, Key: key}

	if target, ok := r.mapping.Lookup(header); ok {
		res.Source = SourceMapping
		switch {
		case domain.IsIgnore(target):
			res.Kind = ResolvedIgnored
		case r.schema.IsStatic(target):
			res.Kind, res.Target = ResolvedStatic, target
		case r.IsDynamic(target):
			res.Kind, res.Target = ResolvedCustom, target
		default:
			res.Kind, res.Target = ResolvedNew, target
		}
		return res
	}

	switch {
	case r.schema.IsStatic(key):
		res.Kind, res.Target, res.Source = ResolvedStatic, key, SourceExact
	case r.IsDynamic(key):
		res.Kind, res.Target, res.Source = ResolvedCustom, key, SourceCustom
	default:
		if target, ok := r.schema.Synonym(key); ok {
			res.Kind, res.Target, res.Source = ResolvedStatic, target, SourceSynonym
			return res
		}
		res.Kind, res.Target, res.Source = ResolvedNew, key, SourceNone
	}
	return res
}

func (r *Resolver) ResolveAll(headers []string) []Resolution {
	out := make([]Resolution, 0, len(headers))
	for _, h := range headers {
		out = append(out, r.Resolve(h))
	}
	return out
}
