package importing

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	domain "github.com/mohammadpnp/asset-import/internal/domain/importing"
)

const previewRows = 5

type AnalyzeImportInput struct {
	// JobID takes precedence over Path and Kind when set.
	JobID   *uuid.UUID
	Path    string
	Kind    domain.JobKind
	SetID   *uuid.UUID
	Mapping domain.FieldMapping
	UseAI   bool
}

type MappedField struct {
	Header string `json:"header"`
	Target string `json:"target"`
	Key    string `json:"key"`
}

type AnalysisReport struct {
	Kind             domain.JobKind       `json:"kind"`
	Headers          []string             `json:"headers"`
	Fields           []Resolution         `json:"fields"`
	MappedFields     []MappedField        `json:"mapped_fields"`
	NewFields        []string             `json:"new_fields"`
	IgnoredFields    []string             `json:"ignored_fields"`
	TotalRows        int                  `json:"total_rows"`
	PersonColumn     string               `json:"person_column,omitempty"`
	UserMatches      map[string]uuid.UUID `json:"user_matches"`
	UnmatchedUsers   []string             `json:"unmatched_users"`
	SuggestedMapping map[string]string    `json:"suggested_mapping"`
	Suggestions      []Suggestion         `json:"suggestions"`
}

type PreviewInput struct {
	JobID *uuid.UUID
	Path  string
}

type PreviewOutput struct {
	Headers   []string         `json:"headers"`
	Rows      []map[string]any `json:"preview"`
	TotalRows int              `json:"total_rows"`
}

// AnalyzeImport is the dry run of an execution. It never writes.
type AnalyzeImport interface {
	Execute(ctx context.Context, in AnalyzeImportInput) (AnalysisReport, error)
	Preview(ctx context.Context, in PreviewInput) (PreviewOutput, error)
}

type analyzeImport struct {
	jobs      domain.JobRepository
	reader    domain.TableReader
	catalog   domain.Catalog
	matcher   UserMatcher
	suggester *Suggester
}

func NewAnalyzeImport(jobs domain.JobRepository, reader domain.TableReader, catalog domain.Catalog, matcher UserMatcher, suggester *Suggester) AnalyzeImport {
	return &analyzeImport{
		jobs:      jobs,
		reader:    reader,
		catalog:   catalog,
		matcher:   matcher,
		suggester: suggester,
	}
}

func (uc *analyzeImport) Execute(ctx context.Context, in AnalyzeImportInput) (AnalysisReport, error) {
	path, kind := strings.TrimSpace(in.Path), in.Kind
	if in.JobID != nil {
		job, err := uc.jobs.Get(ctx, *in.JobID)
		if err != nil {
			return AnalysisReport{}, err
		}
		path, kind = job.Payload.FilePath, job.Kind
	}
	if path == "" {
		return AnalysisReport{}, fmt.Errorf("%w: a job id or file path is required", domain.ErrValidation)
	}
	if !kind.Valid() {
		kind = domain.KindAssetImport
	}

	table, err := uc.reader.Read(ctx, path)
	if err != nil {
		return AnalysisReport{}, fmt.Errorf("%w: %w", ErrReadImportFile, err)
	}

	schema := SchemaFor(kind)
	defs, err := uc.catalog.FieldDefinitions(ctx, schema.Target, in.SetID)
	if err != nil {
		return AnalysisReport{}, fmt.Errorf("%w: %v", ErrLoadCatalog, err)
	}
	keys := make([]string, 0, len(defs))
	for _, def := range defs {
		keys = append(keys, def.Key)
	}
	resolver := NewResolver(schema, keys, in.Mapping)

	report := AnalysisReport{
		Kind:             kind,
		Headers:          table.Headers,
		Fields:           resolver.ResolveAll(table.Headers),
		MappedFields:     []MappedField{},
		NewFields:        []string{},
		IgnoredFields:    []string{},
		TotalRows:        table.Len(),
		UserMatches:      map[string]uuid.UUID{},
		UnmatchedUsers:   []string{},
		SuggestedMapping: map[string]string{},
		Suggestions:      []Suggestion{},
	}

	unclassified := make([]string, 0)
	for _, res := range report.Fields {
		switch res.Kind {
		case ResolvedStatic, ResolvedCustom:
			report.MappedFields = append(report.MappedFields, MappedField{Header: res.Header, Target: string(res.Kind), Key: res.Target})
		case ResolvedIgnored:
			report.IgnoredFields = append(report.IgnoredFields, res.Header)
		default:
			report.NewFields = append(report.NewFields, res.Header)
			if res.Source == SourceNone {
				unclassified = append(unclassified, res.Header)
			}
		}
	}

	if kind == domain.KindAssetImport {
		if err := uc.matchPeople(ctx, table, &report); err != nil {
			return AnalysisReport{}, err
		}
	}

	if in.UseAI && len(unclassified) > 0 {
		set := uc.suggester.Suggest(ctx, schema, unclassified, table)
		report.Suggestions = set.Suggestions
		report.SuggestedMapping = set.Mapping
	}

	return report, nil
}

func (uc *analyzeImport) matchPeople(ctx context.Context, table domain.Table, report *AnalysisReport) error {
	column, ok := PersonColumn(table.Headers)
	if !ok || uc.matcher == nil {
		return nil
	}
	report.PersonColumn = column

	values := make([]string, 0)
	for _, raw := range table.Distinct(column) {
		if v := strings.TrimSpace(raw); v != "" {
			values = append(values, v)
		}
	}

	matches, err := uc.matcher.Match(ctx, values)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLoadCatalog, err)
	}
	for _, v := range values {
		if id, ok := matches[v]; ok {
			report.UserMatches[v] = id
			continue
		}
		report.UnmatchedUsers = append(report.UnmatchedUsers, v)
	}
	return nil
}

func (uc *analyzeImport) Preview(ctx context.Context, in PreviewInput) (PreviewOutput, error) {
	path := strings.TrimSpace(in.Path)
	if in.JobID != nil {
		job, err := uc.jobs.Get(ctx, *in.JobID)
		if err != nil {
			return PreviewOutput{}, err
		}
		path = job.Payload.FilePath
	}
	if path == "" {
		return PreviewOutput{}, fmt.Errorf("%w: a job id or file path is required", domain.ErrValidation)
	}

	table, err := uc.reader.Read(ctx, path)
	if err != nil {
		return PreviewOutput{}, fmt.Errorf("%w: %w", ErrReadImportFile, err)
	}
	return PreviewOutput{
		Headers:   table.Headers,
		Rows:      table.Preview(previewRows),
		TotalRows: table.Len(),
	}, nil
}
