package importing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mohammadpnp/asset-import/internal/domain/asset"
	"github.com/mohammadpnp/asset-import/internal/domain/attribute"
	"github.com/mohammadpnp/asset-import/internal/domain/audit"
	domain "github.com/mohammadpnp/asset-import/internal/domain/importing"
	"github.com/mohammadpnp/asset-import/internal/domain/user"
	"github.com/mohammadpnp/asset-import/internal/pkg/logger"
	"golang.org/x/crypto/bcrypt"
)

// userDraft is one row of a user file before it is applied to an identity.
// Nil fields were absent from the row.
type userDraft struct {
	email    string
	fullName *string
	role     *string
	password *string
	isActive *bool
	endDate  *time.Time
	extra    *attribute.Map
}

type userSetter func(d *userDraft, v attribute.Value) error

var userSetters = map[string]userSetter{
	user.FieldEmail: func(d *userDraft, v attribute.Value) error {
		d.email = text(v)
		return nil
	},
	user.FieldFullName: func(d *userDraft, v attribute.Value) error {
		d.fullName = textPtr(v)
		return nil
	},
	user.FieldRole: func(d *userDraft, v attribute.Value) error {
		d.role = textPtr(v)
		return nil
	},
	user.FieldPassword: func(d *userDraft, v attribute.Value) error {
		d.password = textPtr(v)
		return nil
	},
	user.FieldIsActive: func(d *userDraft, v attribute.Value) error {
		b, err := parseBool(v)
		if err != nil {
			return err
		}
		d.isActive = &b
		return nil
	},
	user.FieldEmploymentEndDate: func(d *userDraft, v attribute.Value) error {
		t, err := parseDate(v)
		if err != nil {
			return err
		}
		d.endDate = &t
		return nil
	},
}

// pendingUser is an identity touched by this import. Rows sharing an email
// fold into the same pendingUser.
type pendingUser struct {
	user     user.User
	existing bool
}

type userRun struct {
	headers     []string
	resolutions []Resolution
	fields      map[string]asset.FieldDefinition
	required    []asset.FieldDefinition
	roles       map[string]string
	setID       *uuid.UUID
	bcryptCost  int

	byEmail map[string]*pendingUser
	order   []*pendingUser
}

func (uc *executeImport) executeUsers(ctx context.Context, log *logger.Logger, job domain.ImportJob, table domain.Table, in ExecuteImportInput) (domain.OutcomeReport, error) {
	schema := SchemaFor(domain.KindUserImport)

	g, err := uc.prepareGrouping(ctx, schema, in)
	if err != nil {
		return domain.OutcomeReport{}, err
	}

	roles, err := uc.catalog.Roles(ctx)
	if err != nil {
		return domain.OutcomeReport{}, fmt.Errorf("%w: %v", ErrLoadCatalog, err)
	}

	fields := fieldIndex(g.known, g.newFields)
	resolver := NewResolver(schema, fieldKeys(fields), in.Options.Mapping)
	run := &userRun{
		headers:     table.Headers,
		resolutions: resolver.ResolveAll(table.Headers),
		fields:      fields,
		required:    requiredFields(fields),
		roles:       make(map[string]string, len(roles)),
		setID:       g.setID(),
		bcryptCost:  uc.cfg.BcryptCost,
		byEmail:     map[string]*pendingUser{},
	}
	for _, r := range roles {
		run.roles[strings.ToLower(r.Name)] = r.Name
	}

	report := domain.OutcomeReport{
		Success:   true,
		TotalRows: table.Len(),
		Errors:    []string{},
		SetID:     g.setID(),
	}

	for i, row := range table.Rows {
		warnings, err := uc.applyUserRow(ctx, run, i, row)
		if err != nil {
			report.Errors = append(report.Errors, rowError(i, err))
			log.Warn("user import row failed", "row", i, "error", err)
			continue
		}
		report.Warnings = append(report.Warnings, warnings...)
		report.Imported++
	}

	batch := domain.UserBatch{
		JobID:  job.ID,
		Fields: g.newFields,
		Audit:  g.audit,
	}
	if g.created {
		batch.Set = g.set
	}
	for _, p := range run.order {
		if p.existing {
			batch.Updated = append(batch.Updated, p.user)
			batch.Audit = append(batch.Audit, audit.NewEntry(audit.EntityUser, p.user.ID, audit.ActionUpdate,
				userChanges(job.ID, p.user), in.Actor, in.Origin))
			continue
		}
		batch.Created = append(batch.Created, p.user)
		batch.Audit = append(batch.Audit, audit.NewEntry(audit.EntityUser, p.user.ID, audit.ActionCreate,
			userChanges(job.ID, p.user), in.Actor, in.Origin))
	}
	report.Created = len(batch.Created)
	report.Updated = len(batch.Updated)

	if err := uc.users.CommitUsers(ctx, batch); err != nil {
		return domain.OutcomeReport{}, fmt.Errorf("%w: %v", ErrCommitImport, err)
	}
	return report, nil
}

func (uc *executeImport) applyUserRow(ctx context.Context, run *userRun, index int, row domain.Row) ([]string, error) {
	draft, err := run.buildDraft(row)
	if err != nil {
		return nil, err
	}

	key := strings.ToLower(draft.email)
	if p, ok := run.byEmail[key]; ok {
		return run.apply(p, draft, index)
	}

	existing, err := uc.directory.FindByEmail(ctx, draft.email)
	if err != nil && !errors.Is(err, user.ErrUserNotFound) {
		return nil, fmt.Errorf("look up %s: %w", draft.email, err)
	}

	var p *pendingUser
	if existing != nil {
		p = &pendingUser{user: *existing, existing: true}
		p.user.Extra = existing.Extra.Clone()
	} else {
		u, err := user.NewUser(uuid.New(), draft.email)
		if err != nil {
			return nil, err
		}
		p = &pendingUser{user: u}
		if draft.role == nil {
			p.user.Roles = run.roleFor(user.DefaultRole)
		}
	}
	if run.setID != nil {
		id := *run.setID
		p.user.AssetSetID = &id
	} else {
		// GLOBAL detaches identities from any group they were in.
		p.user.AssetSetID = nil
	}

	warnings, err := run.apply(p, draft, index)
	if err != nil {
		return nil, err
	}
	run.byEmail[key] = p
	run.order = append(run.order, p)
	return warnings, nil
}

func (run *userRun) buildDraft(row domain.Row) (userDraft, error) {
	d := userDraft{extra: attribute.NewMap()}

	for i, header := range run.headers {
		v := row.Get(header)
		if v.IsNull() {
			continue
		}

		res := run.resolutions[i]
		switch res.Kind {
		case ResolvedIgnored:
			continue
		case ResolvedStatic:
			if err := userSetters[res.Target](&d, v); err != nil {
				return userDraft{}, fmt.Errorf("%s: %w", header, err)
			}
		case ResolvedCustom:
			val, err := coerceField(run.fields[res.Target].Type, v)
			if err != nil {
				return userDraft{}, fmt.Errorf("%s: %w", header, err)
			}
			d.extra.Set(res.Target, val)
		default:
			d.extra.Set(res.ExtraKey(), v)
		}
	}

	if d.email == "" {
		return userDraft{}, user.ErrEmailRequired
	}
	if err := user.ValidateEmail(d.email); err != nil {
		return userDraft{}, fmt.Errorf("%w: %q", err, d.email)
	}
	for _, def := range run.required {
		if !d.extra.Has(def.Key) {
			return userDraft{}, fmt.Errorf("missing required field %q", def.Key)
		}
	}
	return d, nil
}

// apply folds a draft into an identity. Later rows win on every field they
// provide. Passwords and roles only apply to identities this import creates.
// Every step that can fail runs before p is touched, so a rejected row leaves
// the identity as earlier rows built it.
func (run *userRun) apply(p *pendingUser, d userDraft, index int) ([]string, error) {
	var warnings []string

	var roles []string
	if d.role != nil {
		if p.existing {
			warnings = append(warnings, fmt.Sprintf("Row %d: role ignored for existing user %s", index, p.user.Email))
		} else if roles = run.roleFor(*d.role); roles == nil {
			warnings = append(warnings, fmt.Sprintf("Row %d: role %q not found", index, *d.role))
		}
	}

	var hashed *string
	if d.password != nil {
		if p.existing {
			warnings = append(warnings, fmt.Sprintf("Row %d: password ignored for existing user %s", index, p.user.Email))
		} else {
			raw, err := bcrypt.GenerateFromPassword([]byte(*d.password), run.bcryptCost)
			if err != nil {
				return nil, fmt.Errorf("hash password: %w", err)
			}
			h := string(raw)
			hashed = &h
		}
	}

	if d.fullName != nil {
		p.user.FullName = d.fullName
	}
	if d.isActive != nil {
		p.user.IsActive = *d.isActive
	}
	if d.endDate != nil {
		p.user.EmploymentEndDate = d.endDate
	}
	p.user.Extra.Merge(d.extra)
	if roles != nil {
		p.user.Roles = roles
	}
	if hashed != nil {
		p.user.HashedPassword = hashed
	}
	return warnings, nil
}

func (run *userRun) roleFor(name string) []string {
	if canonical, ok := run.roles[strings.ToLower(strings.TrimSpace(name))]; ok {
		return []string{canonical}
	}
	return nil
}

func userChanges(jobID uuid.UUID, u user.User) map[string]any {
	changes := map[string]any{
		"email":     u.Email,
		"is_active": u.IsActive,
		"job_id":    jobID.String(),
	}
	if u.FullName != nil {
		changes["full_name"] = *u.FullName
	}
	if u.AssetSetID != nil {
		changes["asset_set_id"] = u.AssetSetID.String()
	}
	if len(u.Roles) > 0 {
		changes["roles"] = u.Roles
	}
	if u.Extra != nil && u.Extra.Len() > 0 {
		changes["extra"] = u.Extra
	}
	return changes
}
