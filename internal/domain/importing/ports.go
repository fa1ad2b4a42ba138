package importing

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/mohammadpnp/asset-import/internal/domain/asset"
	"github.com/mohammadpnp/asset-import/internal/domain/audit"
	"github.com/mohammadpnp/asset-import/internal/domain/user"
)

type JobRepository interface {
	Create(ctx context.Context, job ImportJob) (ImportJob, error)
	Get(ctx context.Context, jobID uuid.UUID) (ImportJob, error)
	// MarkRunning moves a pending job to running. Any other status yields
	// ErrJobNotPending.
	MarkRunning(ctx context.Context, jobID uuid.UUID) error
	Complete(ctx context.Context, jobID uuid.UUID, report OutcomeReport) error
	Fail(ctx context.Context, jobID uuid.UUID, reason string) error
}

type TableReader interface {
	Read(ctx context.Context, path string) (Table, error)
}

type UploadStore interface {
	// Save streams body to the upload directory under a randomized name and
	// returns the stored path and byte count.
	Save(ctx context.Context, body io.Reader, ext string, maxBytes int64) (string, int64, error)
	Remove(ctx context.Context, path string) error
}

// Catalog is the read side of the tenant schema: lookup tables, dynamic field
// definitions and grouping entities.
type Catalog interface {
	Statuses(ctx context.Context) ([]asset.Status, error)
	Types(ctx context.Context) ([]asset.Type, error)
	Roles(ctx context.Context) ([]user.Role, error)
	// FieldDefinitions returns global definitions for target, plus those
	// scoped to setID when it is non-nil.
	FieldDefinitions(ctx context.Context, target asset.FieldTarget, setID *uuid.UUID) ([]asset.FieldDefinition, error)
	GetSet(ctx context.Context, setID uuid.UUID) (asset.Set, error)
	SetNameExists(ctx context.Context, name string) (bool, error)
}

type DirectoryEntry struct {
	ID    uuid.UUID
	Email string
}

type UserDirectory interface {
	Entries(ctx context.Context) ([]DirectoryEntry, error)
	FindByEmail(ctx context.Context, email string) (*user.User, error)
	FindByID(ctx context.Context, userID uuid.UUID) (*user.User, error)
}

// AssetBatch is everything one asset import commits in a single transaction.
type AssetBatch struct {
	JobID  uuid.UUID
	Set    *asset.Set
	Fields []asset.FieldDefinition
	Types  []asset.Type
	Assets []asset.Asset
	Audit  []audit.Entry
}

type UserBatch struct {
	JobID   uuid.UUID
	Set     *asset.Set
	Fields  []asset.FieldDefinition
	Created []user.User
	Updated []user.User
	Audit   []audit.Entry
}

type AssetBatchWriter interface {
	CommitAssets(ctx context.Context, batch AssetBatch) error
}

type UserBatchWriter interface {
	CommitUsers(ctx context.Context, batch UserBatch) error
}

type SettingsReader interface {
	Values(ctx context.Context, keys ...string) (map[string]string, error)
}

// Completer is a text-generation provider used by the mapping suggestion
// engine.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

type CompleterSource interface {
	// Completer returns false when no provider is configured.
	Completer(ctx context.Context) (Completer, bool)
}

type SuggestionCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}
