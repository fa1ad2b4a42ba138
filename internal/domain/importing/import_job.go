package importing

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type JobKind string

const (
	KindAssetImport JobKind = "asset_import"
	KindUserImport  JobKind = "user_import"
)

func (k JobKind) Valid() bool {
	return k == KindAssetImport || k == KindUserImport
}

type JobStatus string

const (
	StatusPending   JobStatus = "pending"
	StatusRunning   JobStatus = "running"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
)

type JobPayload struct {
	FilePath   string     `json:"file_path"`
	Filename   string     `json:"filename"`
	UploadedBy *uuid.UUID `json:"uploaded_by,omitempty"`
	SizeBytes  int64      `json:"size_bytes"`
}

type ImportJob struct {
	ID         uuid.UUID      `json:"id"`
	Kind       JobKind        `json:"kind"`
	Status     JobStatus      `json:"status"`
	Payload    JobPayload     `json:"payload"`
	Result     *OutcomeReport `json:"result,omitempty"`
	Error      string         `json:"error,omitempty"`
	StartedAt  *time.Time     `json:"started_at,omitempty"`
	FinishedAt *time.Time     `json:"finished_at,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// OutcomeReport is the per-execution result stored on the job once it
// completes.
type OutcomeReport struct {
	Success   bool       `json:"success"`
	Imported  int        `json:"imported"`
	Created   int        `json:"created"`
	Updated   int        `json:"updated"`
	TotalRows int        `json:"total_rows"`
	Errors    []string   `json:"errors"`
	Warnings  []string   `json:"warnings,omitempty"`
	SetID     *uuid.UUID `json:"set_id"`
}

func (r OutcomeReport) JSON() ([]byte, error) {
	if r.Errors == nil {
		r.Errors = []string{}
	}
	return json.Marshal(r)
}
