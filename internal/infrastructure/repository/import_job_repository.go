package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	domain "github.com/mohammadpnp/asset-import/internal/domain/importing"
	"github.com/mohammadpnp/asset-import/internal/infrastructure/db/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ImportJobRepository struct {
	db *gorm.DB
}

func NewImportJobRepository(db *gorm.DB) *ImportJobRepository {
	return &ImportJobRepository{db: db}
}

func (r *ImportJobRepository) Create(ctx context.Context, job domain.ImportJob) (domain.ImportJob, error) {
	payload, err := json.Marshal(job.Payload)
	if err != nil {
		return domain.ImportJob{}, fmt.Errorf("encode job payload: %w", err)
	}

	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.Status == "" {
		job.Status = domain.StatusPending
	}

	row := models.ImportJob{
		ID:      job.ID.String(),
		Kind:    string(job.Kind),
		Status:  string(job.Status),
		Payload: datatypes.JSON(payload),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return domain.ImportJob{}, fmt.Errorf("create import job: %w", err)
	}

	return toDomainJob(row)
}

func (r *ImportJobRepository) Get(ctx context.Context, jobID uuid.UUID) (domain.ImportJob, error) {
	var row models.ImportJob
	err := r.db.WithContext(ctx).First(&row, "id = ?", jobID.String()).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ImportJob{}, domain.ErrJobNotFound
		}
		return domain.ImportJob{}, fmt.Errorf("get import job: %w", err)
	}
	return toDomainJob(row)
}

// MarkRunning claims a pending job. Only one caller can win the claim.
func (r *ImportJobRepository) MarkRunning(ctx context.Context, jobID uuid.UUID) error {
	now := time.Now().UTC()
	res := r.db.WithContext(ctx).
		Model(&models.ImportJob{}).
		Where("id = ? AND status = ?", jobID.String(), string(domain.StatusPending)).
		Updates(map[string]any{
			"status":     string(domain.StatusRunning),
			"started_at": now,
			"updated_at": now,
		})
	if res.Error != nil {
		return fmt.Errorf("claim import job: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := r.Get(ctx, jobID); err != nil {
			return err
		}
		return domain.ErrJobNotPending
	}
	return nil
}

func (r *ImportJobRepository) Complete(ctx context.Context, jobID uuid.UUID, report domain.OutcomeReport) error {
	result, err := report.JSON()
	if err != nil {
		return fmt.Errorf("encode job result: %w", err)
	}
	now := time.Now().UTC()
	return r.update(ctx, jobID, map[string]any{
		"status":      string(domain.StatusCompleted),
		"result":      datatypes.JSON(result),
		"finished_at": now,
		"updated_at":  now,
	})
}

func (r *ImportJobRepository) Fail(ctx context.Context, jobID uuid.UUID, reason string) error {
	now := time.Now().UTC()
	return r.update(ctx, jobID, map[string]any{
		"status":      string(domain.StatusFailed),
		"error":       reason,
		"finished_at": now,
		"updated_at":  now,
	})
}

func (r *ImportJobRepository) update(ctx context.Context, jobID uuid.UUID, fields map[string]any) error {
	res := r.db.WithContext(ctx).
		Model(&models.ImportJob{}).
		Where("id = ?", jobID.String()).
		Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("update import job: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrJobNotFound
	}
	return nil
}

func toDomainJob(row models.ImportJob) (domain.ImportJob, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return domain.ImportJob{}, fmt.Errorf("parse job id %q: %w", row.ID, err)
	}

	job := domain.ImportJob{
		ID:         id,
		Kind:       domain.JobKind(row.Kind),
		Status:     domain.JobStatus(row.Status),
		StartedAt:  row.StartedAt,
		FinishedAt: row.FinishedAt,
		CreatedAt:  row.CreatedAt,
		UpdatedAt:  row.UpdatedAt,
	}
	if len(row.Payload) > 0 {
		if err := json.Unmarshal(row.Payload, &job.Payload); err != nil {
			return domain.ImportJob{}, fmt.Errorf("decode job payload: %w", err)
		}
	}
	if len(row.Result) > 0 && string(row.Result) != "null" {
		var report domain.OutcomeReport
		if err := json.Unmarshal(row.Result, &report); err != nil {
			return domain.ImportJob{}, fmt.Errorf("decode job result: %w", err)
		}
		job.Result = &report
	}
	if row.Error != nil {
		job.Error = *row.Error
	}
	return job, nil
}
