package importing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mohammadpnp/asset-import/internal/domain/asset"
	"github.com/mohammadpnp/asset-import/internal/domain/attribute"
	"github.com/mohammadpnp/asset-import/internal/domain/audit"
	domain "github.com/mohammadpnp/asset-import/internal/domain/importing"
	"github.com/mohammadpnp/asset-import/internal/domain/user"
	"github.com/mohammadpnp/asset-import/internal/pkg/logger"
)

// assetRun holds the lookup tables read once per execution. Types created by
// a successful row are added to types so later rows reuse them.
type assetRun struct {
	headers     []string
	resolutions []Resolution
	fields      map[string]asset.FieldDefinition
	required    []asset.FieldDefinition
	statuses    map[string]uuid.UUID
	fallback    *asset.Status
	types       map[string]uuid.UUID
	people      map[string]uuid.UUID
	setID       *uuid.UUID
}

type assetRow struct {
	run      *assetRun
	index    int
	asset    asset.Asset
	newType  *asset.Type
	warnings []string
}

type assetSetter func(r *assetRow, v attribute.Value) error

// Static asset targets other than name, which is resolved before the cells.
var assetSetters = map[string]assetSetter{
	asset.FieldSerialNumber: func(r *assetRow, v attribute.Value) error {
		s, err := boundedText(v)
		if err != nil {
			return err
		}
		r.asset.SerialNumber = s
		return nil
	},
	asset.FieldLocation: func(r *assetRow, v attribute.Value) error {
		s, err := boundedText(v)
		if err != nil {
			return err
		}
		r.asset.Location = s
		return nil
	},
	asset.FieldVendor: func(r *assetRow, v attribute.Value) error {
		s, err := boundedText(v)
		if err != nil {
			return err
		}
		r.asset.Vendor = s
		return nil
	},
	asset.FieldOrderNumber: func(r *assetRow, v attribute.Value) error {
		s, err := boundedText(v)
		if err != nil {
			return err
		}
		r.asset.OrderNumber = s
		return nil
	},
	asset.FieldTags: func(r *assetRow, v attribute.Value) error {
		r.asset.Tags = asset.SplitTags(text(v))
		return nil
	},
	asset.FieldPurchasePrice: func(r *assetRow, v attribute.Value) error {
		price, err := parsePrice(v)
		if err != nil {
			return err
		}
		r.asset.PurchasePrice = &price
		return nil
	},
	asset.FieldPurchaseDate: func(r *assetRow, v attribute.Value) error {
		t, err := parseDate(v)
		if err != nil {
			return err
		}
		r.asset.PurchaseDate = &t
		return nil
	},
	asset.FieldWarrantyEnd: func(r *assetRow, v attribute.Value) error {
		t, err := parseDate(v)
		if err != nil {
			return err
		}
		r.asset.WarrantyEnd = &t
		return nil
	},
	asset.FieldStatus:       setStatus,
	asset.FieldAssetType:    setAssetType,
	asset.FieldAssignedUser: setAssignedUser,
}

func setStatus(r *assetRow, v attribute.Value) error {
	raw := text(v)
	key := strings.ToLower(raw)

	id, ok := r.run.statuses[key]
	if !ok {
		id, ok = r.run.statuses[domain.NormalizeHeader(raw)]
	}
	if !ok {
		if canonical, found := statusValueSynonyms[key]; found {
			id, ok = r.run.statuses[canonical]
		}
	}
	if ok {
		r.asset.StatusID = &id
		return nil
	}

	if fb := r.run.fallback; fb != nil {
		fallbackID := fb.ID
		r.asset.StatusID = &fallbackID
		r.warnings = append(r.warnings, fmt.Sprintf("Row %d: status %q not recognized, using %q", r.index, raw, fb.Name))
		return nil
	}
	r.warnings = append(r.warnings, fmt.Sprintf("Row %d: status %q not recognized, left unset", r.index, raw))
	return nil
}

func setAssetType(r *assetRow, v attribute.Value) error {
	raw := text(v)
	if id, ok := r.run.types[strings.ToLower(raw)]; ok {
		r.asset.AssetTypeID = &id
		return nil
	}
	if err := checkLength(raw); err != nil {
		return err
	}
	r.newType = &asset.Type{ID: uuid.New(), Name: raw}
	id := r.newType.ID
	r.asset.AssetTypeID = &id
	return nil
}

func setAssignedUser(r *assetRow, v attribute.Value) error {
	raw := text(v)
	id, ok := r.run.people[raw]
	if !ok {
		return fmt.Errorf("no user matches %q", raw)
	}
	r.asset.AssignedUserID = &id
	return nil
}

func (uc *executeImport) executeAssets(ctx context.Context, log *logger.Logger, job domain.ImportJob, table domain.Table, in ExecuteImportInput) (domain.OutcomeReport, error) {
	schema := SchemaFor(domain.KindAssetImport)

	g, err := uc.prepareGrouping(ctx, schema, in)
	if err != nil {
		return domain.OutcomeReport{}, err
	}

	run, err := uc.loadAssetRun(ctx, schema, g, table, in.Options)
	if err != nil {
		return domain.OutcomeReport{}, err
	}

	batch := domain.AssetBatch{
		JobID:  job.ID,
		Fields: g.newFields,
		Audit:  g.audit,
	}
	if g.created {
		batch.Set = g.set
	}

	report := domain.OutcomeReport{
		Success:   true,
		TotalRows: table.Len(),
		Errors:    []string{},
		SetID:     g.setID(),
	}

	for i, row := range table.Rows {
		r, err := run.buildAsset(i, row)
		if err != nil {
			report.Errors = append(report.Errors, rowError(i, err))
			log.Warn("import row failed", "row", i, "error", err)
			continue
		}

		if r.newType != nil {
			run.types[strings.ToLower(r.newType.Name)] = r.newType.ID
			batch.Types = append(batch.Types, *r.newType)
			batch.Audit = append(batch.Audit, audit.NewEntry(audit.EntityAssetType, r.newType.ID, audit.ActionCreate,
				map[string]any{"name": r.newType.Name}, in.Actor, in.Origin))
		}

		batch.Assets = append(batch.Assets, r.asset)
		batch.Audit = append(batch.Audit, audit.NewEntry(audit.EntityAsset, r.asset.ID, audit.ActionCreate,
			assetChanges(job.ID, r.asset), in.Actor, in.Origin))
		report.Warnings = append(report.Warnings, r.warnings...)
		report.Imported++
	}
	report.Created = report.Imported

	if err := uc.assets.CommitAssets(ctx, batch); err != nil {
		return domain.OutcomeReport{}, fmt.Errorf("%w: %v", ErrCommitImport, err)
	}
	return report, nil
}

func (uc *executeImport) loadAssetRun(ctx context.Context, schema Schema, g grouping, table domain.Table, opts domain.ExecuteOptions) (*assetRun, error) {
	statuses, err := uc.catalog.Statuses(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadCatalog, err)
	}
	types, err := uc.catalog.Types(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadCatalog, err)
	}

	fields := fieldIndex(g.known, g.newFields)
	resolver := NewResolver(schema, fieldKeys(fields), opts.Mapping)

	run := &assetRun{
		headers:     table.Headers,
		resolutions: resolver.ResolveAll(table.Headers),
		fields:      fields,
		required:    requiredFields(fields),
		statuses:    make(map[string]uuid.UUID, len(statuses)),
		types:       make(map[string]uuid.UUID, len(types)),
		setID:       g.setID(),
	}
	for _, s := range statuses {
		run.statuses[strings.ToLower(s.Name)] = s.ID
	}
	run.fallback = fallbackStatus(statuses, uc.cfg.DefaultStatus)
	for _, t := range types {
		run.types[strings.ToLower(t.Name)] = t.ID
	}

	run.people, err = uc.resolvePeople(ctx, table, run.resolutions, opts.UserMatches)
	if err != nil {
		return nil, err
	}
	return run, nil
}

// fallbackStatus picks the configured default status by name, or the one
// flagged as default.
func fallbackStatus(statuses []asset.Status, name string) *asset.Status {
	if name = strings.TrimSpace(name); name != "" {
		for i := range statuses {
			if strings.EqualFold(statuses[i].Name, name) {
				return &statuses[i]
			}
		}
	}
	for i := range statuses {
		if statuses[i].IsDefault {
			return &statuses[i]
		}
	}
	return nil
}

// resolvePeople precomputes the person reference table for every column
// routed to the assigned user field. Caller confirmed matches win, then user
// ids, then the matcher.
func (uc *executeImport) resolvePeople(ctx context.Context, table domain.Table, resolutions []Resolution, confirmed map[string]uuid.UUID) (map[string]uuid.UUID, error) {
	people := map[string]uuid.UUID{}
	pending := make([]string, 0)
	seen := map[string]struct{}{}

	for i, res := range resolutions {
		if res.Kind != ResolvedStatic || res.Target != asset.FieldAssignedUser {
			continue
		}
		for _, raw := range table.Distinct(table.Headers[i]) {
			value := strings.TrimSpace(raw)
			if _, ok := seen[value]; ok || value == "" {
				continue
			}
			seen[value] = struct{}{}

			if id, ok := confirmed[value]; ok {
				people[value] = id
				continue
			}
			if id, err := uuid.Parse(value); err == nil {
				u, err := uc.directory.FindByID(ctx, id)
				switch {
				case err == nil && u != nil:
					people[value] = u.ID
				case err != nil && !errors.Is(err, user.ErrUserNotFound):
					return nil, fmt.Errorf("%w: %v", ErrLoadCatalog, err)
				}
				continue
			}
			pending = append(pending, value)
		}
	}

	if len(pending) == 0 || uc.matcher == nil {
		return people, nil
	}
	matched, err := uc.matcher.Match(ctx, pending)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadCatalog, err)
	}
	for value, id := range matched {
		people[value] = id
	}
	return people, nil
}

func (run *assetRun) buildAsset(index int, row domain.Row) (*assetRow, error) {
	r := &assetRow{
		run:   run,
		index: index,
		asset: asset.Asset{
			ID:         uuid.New(),
			AssetSetID: run.setID,
			Source:     asset.SourceImport,
			Extra:      attribute.NewMap(),
		},
	}

	nameHeader, name := run.resolveName(index, row)
	if err := checkLength(name); err != nil {
		return nil, fmt.Errorf("%s: %w", nameHeader, err)
	}
	r.asset.Name = name

	for i, header := range run.headers {
		v := row.Get(header)
		if v.IsNull() || header == nameHeader {
			continue
		}

		res := run.resolutions[i]
		switch res.Kind {
		case ResolvedIgnored:
			continue
		case ResolvedStatic:
			if res.Target == asset.FieldName {
				continue
			}
			if err := assetSetters[res.Target](r, v); err != nil {
				return nil, fmt.Errorf("%s: %w", header, err)
			}
		case ResolvedCustom:
			val, err := coerceField(run.fields[res.Target].Type, v)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", header, err)
			}
			r.asset.Extra.Set(res.Target, val)
		default:
			r.asset.Extra.Set(res.ExtraKey(), v)
		}
	}

	for _, def := range run.required {
		if r.asset.Extra.Has(def.Key) {
			continue
		}
		if def.AssetTypeID != nil && (r.asset.AssetTypeID == nil || *r.asset.AssetTypeID != *def.AssetTypeID) {
			continue
		}
		return nil, fmt.Errorf("missing required field %q", def.Key)
	}

	return r, nil
}

// resolveName returns the header that supplied the name, if any, and the
// name itself: an explicitly mapped column, then a name-like column, then an
// asset id column, then a placeholder.
func (run *assetRun) resolveName(index int, row domain.Row) (string, string) {
	pick := func(accept func(res Resolution) bool) (string, string, bool) {
		for i, header := range run.headers {
			res := run.resolutions[i]
			if !accept(res) {
				continue
			}
			if name := text(row.Get(header)); name != "" {
				return header, name, true
			}
		}
		return "", "", false
	}

	if h, name, ok := pick(func(res Resolution) bool {
		return res.Source == SourceMapping && res.Target == asset.FieldName
	}); ok {
		return h, name
	}
	if h, name, ok := pick(func(res Resolution) bool {
		_, ok := nameFallbacks[res.Key]
		return ok && res.Source != SourceMapping
	}); ok {
		return h, name
	}
	if h, name, ok := pick(func(res Resolution) bool {
		_, ok := nameLastResort[res.Key]
		return ok && res.Source != SourceMapping
	}); ok {
		return h, name
	}
	return "", fmt.Sprintf("Imported Asset %d", index)
}

func assetChanges(jobID uuid.UUID, a asset.Asset) map[string]any {
	changes := map[string]any{
		"name":   a.Name,
		"source": a.Source,
		"job_id": jobID.String(),
	}
	if a.SerialNumber != nil {
		changes["serial_number"] = *a.SerialNumber
	}
	if a.AssetSetID != nil {
		changes["asset_set_id"] = a.AssetSetID.String()
	}
	if a.StatusID != nil {
		changes["status_id"] = a.StatusID.String()
	}
	if a.AssetTypeID != nil {
		changes["asset_type_id"] = a.AssetTypeID.String()
	}
	if a.AssignedUserID != nil {
		changes["assigned_user_id"] = a.AssignedUserID.String()
	}
	return changes
}
