package importing

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	domain "github.com/mohammadpnp/asset-import/internal/domain/importing"
	"github.com/mohammadpnp/asset-import/internal/pkg/logger"
)

const SettingMaxUploadMB = "import_max_upload_mb"

var AllowedExtensions = []string{".csv", ".xlsx", ".xls", ".json"}

func allowedExtension(ext string) bool {
	for _, allowed := range AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// UploadLimits reads the upload cap from settings, falling back to the
// configured default when the setting is missing or unusable.
type UploadLimits struct {
	settings  domain.SettingsReader
	defaultMB int64
	log       *logger.Logger
}

func NewUploadLimits(settings domain.SettingsReader, defaultMB int64, log *logger.Logger) *UploadLimits {
	if defaultMB <= 0 {
		defaultMB = 50
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &UploadLimits{settings: settings, defaultMB: defaultMB, log: log}
}

func (l *UploadLimits) MaxMB(ctx context.Context) int64 {
	if l.settings == nil {
		return l.defaultMB
	}
	values, err := l.settings.Values(ctx, SettingMaxUploadMB)
	if err != nil {
		l.log.Warn("read upload limit setting failed", "error", err)
		return l.defaultMB
	}
	raw := strings.TrimSpace(values[SettingMaxUploadMB])
	if raw == "" {
		return l.defaultMB
	}
	mb, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || mb <= 0 {
		l.log.Warn("ignoring invalid upload limit setting", "value", raw)
		return l.defaultMB
	}
	return mb
}

func (l *UploadLimits) MaxBytes(ctx context.Context) int64 {
	return l.MaxMB(ctx) * 1024 * 1024
}

type ImportConfig struct {
	AllowedExtensions []string `json:"allowed_extensions"`
	MaxUploadMB       int64    `json:"max_upload_mb"`
}

func (l *UploadLimits) Config(ctx context.Context) ImportConfig {
	exts := make([]string, len(AllowedExtensions))
	copy(exts, AllowedExtensions)
	return ImportConfig{AllowedExtensions: exts, MaxUploadMB: l.MaxMB(ctx)}
}

type StartImportInput struct {
	Kind       domain.JobKind
	Filename   string
	Body       io.Reader
	UploadedBy *uuid.UUID
}

type StartImportOutput struct {
	JobID     uuid.UUID        `json:"job_id"`
	Status    domain.JobStatus `json:"status"`
	Filename  string           `json:"filename"`
	SizeBytes int64            `json:"size_bytes"`
}

type StartImport interface {
	Execute(ctx context.Context, in StartImportInput) (StartImportOutput, error)
}

type startImport struct {
	store  domain.UploadStore
	jobs   domain.JobRepository
	limits *UploadLimits
	log    *logger.Logger
}

func NewStartImport(store domain.UploadStore, jobs domain.JobRepository, limits *UploadLimits, log *logger.Logger) StartImport {
	if log == nil {
		log = logger.NewNop()
	}
	return &startImport{store: store, jobs: jobs, limits: limits, log: log}
}

func (uc *startImport) Execute(ctx context.Context, in StartImportInput) (StartImportOutput, error) {
	if !in.Kind.Valid() {
		return StartImportOutput{}, fmt.Errorf("%w: unknown import kind %q", ErrInvalidUpload, in.Kind)
	}
	filename := strings.TrimSpace(filepath.Base(in.Filename))
	if filename == "" || filename == "." || in.Body == nil {
		return StartImportOutput{}, fmt.Errorf("%w: a file is required", ErrInvalidUpload)
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtension(ext) {
		return StartImportOutput{}, fmt.Errorf("%w: %w: %q (allowed: %s)", ErrInvalidUpload, domain.ErrUnsupportedFormat, ext, strings.Join(AllowedExtensions, ", "))
	}

	path, size, err := uc.store.Save(ctx, in.Body, ext, uc.limits.MaxBytes(ctx))
	if err != nil {
		return StartImportOutput{}, fmt.Errorf("%w: %w", ErrInvalidUpload, err)
	}

	now := time.Now().UTC()
	job, err := uc.jobs.Create(ctx, domain.ImportJob{
		ID:     uuid.New(),
		Kind:   in.Kind,
		Status: domain.StatusPending,
		Payload: domain.JobPayload{
			FilePath:   path,
			Filename:   filename,
			UploadedBy: in.UploadedBy,
			SizeBytes:  size,
		},
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		if rmErr := uc.store.Remove(ctx, path); rmErr != nil {
			uc.log.Warn("remove orphaned upload failed", "path", path, "error", rmErr)
		}
		return StartImportOutput{}, fmt.Errorf("%w: %v", ErrCreateJob, err)
	}

	uc.log.Info("import job created", "job_id", job.ID, "kind", job.Kind, "filename", filename, "size_bytes", size)
	return StartImportOutput{
		JobID:     job.ID,
		Status:    job.Status,
		Filename:  filename,
		SizeBytes: size,
	}, nil
}
