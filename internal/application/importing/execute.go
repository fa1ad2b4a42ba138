package importing

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/mohammadpnp/asset-import/internal/domain/asset"
	"github.com/mohammadpnp/asset-import/internal/domain/audit"
	domain "github.com/mohammadpnp/asset-import/internal/domain/importing"
	"github.com/mohammadpnp/asset-import/internal/pkg/logger"
	"golang.org/x/crypto/bcrypt"
)

const (
	defaultAssetSetPrefix = "Imported Set"
	defaultUserSetPrefix  = "Imported User Group"
	userSetDescription    = "User Group"
)

type ExecuteImportInput struct {
	JobID    uuid.UUID
	Strategy domain.Strategy
	Options  domain.ExecuteOptions
	Actor    *uuid.UUID
	Origin   audit.Origin
}

type ExecuteImport interface {
	Execute(ctx context.Context, in ExecuteImportInput) (domain.OutcomeReport, error)
}

type ExecutorDeps struct {
	Jobs      domain.JobRepository
	Reader    domain.TableReader
	Catalog   domain.Catalog
	Directory domain.UserDirectory
	Matcher   UserMatcher
	Assets    domain.AssetBatchWriter
	Users     domain.UserBatchWriter
	Log       *logger.Logger
}

type ExecutorConfig struct {
	// DefaultStatus names the status used when a status cell does not
	// resolve. Empty falls back to the status flagged as default.
	DefaultStatus string
	BcryptCost    int
}

type executeImport struct {
	jobs      domain.JobRepository
	reader    domain.TableReader
	catalog   domain.Catalog
	directory domain.UserDirectory
	matcher   UserMatcher
	assets    domain.AssetBatchWriter
	users     domain.UserBatchWriter
	log       *logger.Logger
	cfg       ExecutorConfig
}

func NewExecuteImport(deps ExecutorDeps, cfg ExecutorConfig) ExecuteImport {
	if deps.Log == nil {
		deps.Log = logger.NewNop()
	}
	if deps.Matcher == nil && deps.Directory != nil {
		deps.Matcher = NewDirectoryMatcher(deps.Directory)
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	return &executeImport{
		jobs:      deps.Jobs,
		reader:    deps.Reader,
		catalog:   deps.Catalog,
		directory: deps.Directory,
		matcher:   deps.Matcher,
		assets:    deps.Assets,
		users:     deps.Users,
		log:       deps.Log,
		cfg:       cfg,
	}
}

func (uc *executeImport) Execute(ctx context.Context, in ExecuteImportInput) (domain.OutcomeReport, error) {
	job, err := uc.jobs.Get(ctx, in.JobID)
	if err != nil {
		return domain.OutcomeReport{}, err
	}

	if !in.Strategy.ValidFor(job.Kind) {
		return domain.OutcomeReport{}, fmt.Errorf("%w: %q is not valid for %s", domain.ErrInvalidStrategy, in.Strategy, job.Kind)
	}
	if strings.TrimSpace(job.Payload.FilePath) == "" {
		return domain.OutcomeReport{}, fmt.Errorf("%w: job payload is missing file_path", domain.ErrValidation)
	}

	table, err := uc.reader.Read(ctx, job.Payload.FilePath)
	if err != nil {
		return domain.OutcomeReport{}, fmt.Errorf("%w: %w", ErrReadImportFile, err)
	}

	log := uc.log.With("job_id", job.ID, "kind", job.Kind, "strategy", in.Strategy)
	log.Info("import execution started", "rows", table.Len())

	var report domain.OutcomeReport
	switch job.Kind {
	case domain.KindUserImport:
		report, err = uc.executeUsers(ctx, log, job, table, in)
	default:
		report, err = uc.executeAssets(ctx, log, job, table, in)
	}
	if err != nil {
		return domain.OutcomeReport{}, err
	}

	recordRows(job.Kind, report)
	log.Info("import execution finished", "imported", report.Imported, "errors", len(report.Errors))
	return report, nil
}

// grouping is the outcome of strategy preparation: the set rows attach to,
// whether it is new, and field definitions to register with the batch.
type grouping struct {
	set       *asset.Set
	created   bool
	newFields []asset.FieldDefinition
	known     []asset.FieldDefinition
	audit     []audit.Entry
}

func (g grouping) setID() *uuid.UUID {
	if g.set == nil {
		return nil
	}
	id := g.set.ID
	return &id
}

func (uc *executeImport) prepareGrouping(ctx context.Context, schema Schema, in ExecuteImportInput) (grouping, error) {
	var g grouping
	opts := in.Options

	switch in.Strategy {
	case domain.StrategyNewSet:
		prefix, description := defaultAssetSetPrefix, ""
		if schema.Kind == domain.KindUserImport {
			prefix, description = defaultUserSetPrefix, userSetDescription
		}
		name := strings.TrimSpace(opts.NewSetName)
		if name == "" {
			name = fmt.Sprintf("%s %s", prefix, strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
		}

		exists, err := uc.catalog.SetNameExists(ctx, name)
		if err != nil {
			return grouping{}, fmt.Errorf("%w: %v", ErrLoadCatalog, err)
		}
		if exists {
			return grouping{}, fmt.Errorf("%w: asset set %q already exists", domain.ErrValidation, name)
		}

		g.set = &asset.Set{ID: uuid.New(), Name: name, Description: description, CreatedByID: in.Actor}
		g.created = true
		g.audit = append(g.audit, audit.NewEntry(audit.EntityAssetSet, g.set.ID, audit.ActionCreate, map[string]any{
			"name":        name,
			"description": description,
		}, in.Actor, in.Origin))

	case domain.StrategyExistingSet:
		raw := strings.TrimSpace(opts.SetID)
		if raw == "" {
			return grouping{}, fmt.Errorf("%w: asset_set_id is required for EXISTING_SET strategy", domain.ErrValidation)
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return grouping{}, fmt.Errorf("%w: invalid asset_set_id format", domain.ErrValidation)
		}
		set, err := uc.catalog.GetSet(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrGroupNotFound) {
				return grouping{}, fmt.Errorf("%w: %s", domain.ErrGroupNotFound, id)
			}
			return grouping{}, fmt.Errorf("%w: %v", ErrLoadCatalog, err)
		}
		g.set = &set
	}

	// A set created by this import has no scoped definitions yet.
	scope := g.setID()
	if g.created {
		scope = nil
	}
	known, err := uc.catalog.FieldDefinitions(ctx, schema.Target, scope)
	if err != nil {
		return grouping{}, fmt.Errorf("%w: %v", ErrLoadCatalog, err)
	}
	g.known = known

	switch {
	case in.Strategy == domain.StrategyNewSet:
		g.newFields = registerFields(schema, known, opts.NewFields, g.setID())
	case (in.Strategy == domain.StrategyMerge || in.Strategy == domain.StrategyGlobal) && opts.CreateMissingFields:
		g.newFields = registerFields(schema, known, opts.NewFields, nil)
	}
	for _, def := range g.newFields {
		changes := map[string]any{"key": def.Key, "label": def.Label, "target": string(def.Target)}
		if def.AssetSetID != nil {
			changes["asset_set_id"] = def.AssetSetID.String()
		}
		g.audit = append(g.audit, audit.NewEntry(audit.EntityFieldDefinition, def.ID, audit.ActionCreate, changes, in.Actor, in.Origin))
	}

	return g, nil
}

// registerFields builds string definitions for caller-approved headers,
// skipping static keys and keys that are already defined.
func registerFields(schema Schema, known []asset.FieldDefinition, names []string, scope *uuid.UUID) []asset.FieldDefinition {
	seen := make(map[string]struct{}, len(known))
	for _, def := range known {
		seen[def.Key] = struct{}{}
	}

	defs := make([]asset.FieldDefinition, 0, len(names))
	for _, name := range names {
		key := domain.NormalizeHeader(name)
		if key == "" || schema.IsStatic(key) {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		defs = append(defs, asset.FieldDefinition{
			ID:         uuid.New(),
			Target:     schema.Target,
			Key:        key,
			Label:      strings.TrimSpace(name),
			Type:       asset.FieldTypeString,
			AssetSetID: scope,
		})
	}
	return defs
}

func fieldIndex(defs ...[]asset.FieldDefinition) map[string]asset.FieldDefinition {
	out := map[string]asset.FieldDefinition{}
	for _, group := range defs {
		for _, def := range group {
			if _, ok := out[def.Key]; !ok {
				out[def.Key] = def
			}
		}
	}
	return out
}

// requiredFields lists required definitions in key order.
func requiredFields(index map[string]asset.FieldDefinition) []asset.FieldDefinition {
	out := make([]asset.FieldDefinition, 0)
	for _, def := range index {
		if def.Required {
			out = append(out, def)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func fieldKeys(index map[string]asset.FieldDefinition) []string {
	keys := make([]string, 0, len(index))
	for k := range index {
		keys = append(keys, k)
	}
	return keys
}

func rowError(index int, err error) string {
	return fmt.Sprintf("Row %d: %v", index, err)
}
