package importing

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	domain "github.com/mohammadpnp/asset-import/internal/domain/importing"
	"github.com/mohammadpnp/asset-import/internal/pkg/logger"
)

type RunnerConfig struct {
	Workers   int
	QueueSize int
}

// Runner drives jobs through pending, running and a terminal status. Only
// pending jobs are accepted, and a job already waiting in the queue cannot be
// submitted again. The job repository's claim in MarkRunning settles races
// between Run and a queued execution of the same job.
type Runner struct {
	jobs     domain.JobRepository
	executor ExecuteImport
	log      *logger.Logger
	cfg      RunnerConfig

	queue chan ExecuteImportInput
	once  sync.Once

	mu     sync.Mutex
	queued map[uuid.UUID]struct{}
}

func NewRunner(jobs domain.JobRepository, executor ExecuteImport, log *logger.Logger, cfg RunnerConfig) *Runner {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Runner{
		jobs:     jobs,
		executor: executor,
		log:      log,
		cfg:      cfg,
		queue:    make(chan ExecuteImportInput, cfg.QueueSize),
		queued:   map[uuid.UUID]struct{}{},
	}
}

func (r *Runner) Start(ctx context.Context) {
	r.once.Do(func() {
		for i := 0; i < r.cfg.Workers; i++ {
			go r.workerLoop(ctx)
		}
	})
}

func (r *Runner) workerLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case in := <-r.queue:
			if _, err := r.Run(ctx, in); err != nil {
				r.log.Error("import job failed", "job_id", in.JobID, "error", err)
			}
			r.release(in.JobID)
		}
	}
}

// Submit queues a pending job for background execution.
func (r *Runner) Submit(ctx context.Context, in ExecuteImportInput) error {
	job, err := r.jobs.Get(ctx, in.JobID)
	if err != nil {
		return err
	}
	if job.Status != domain.StatusPending {
		return fmt.Errorf("%w: status %s", domain.ErrJobNotPending, job.Status)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.queued[in.JobID]; ok {
		return fmt.Errorf("%w: already queued", domain.ErrJobNotPending)
	}
	select {
	case r.queue <- in:
		r.queued[in.JobID] = struct{}{}
		return nil
	default:
		return ErrQueueFull
	}
}

func (r *Runner) release(jobID uuid.UUID) {
	r.mu.Lock()
	delete(r.queued, jobID)
	r.mu.Unlock()
}

// Run executes one job inline. Any execution error is recorded on the job as
// a failure and returned.
func (r *Runner) Run(ctx context.Context, in ExecuteImportInput) (domain.OutcomeReport, error) {
	job, err := r.jobs.Get(ctx, in.JobID)
	if err != nil {
		return domain.OutcomeReport{}, err
	}
	if job.Status != domain.StatusPending {
		return domain.OutcomeReport{}, fmt.Errorf("%w: status %s", domain.ErrJobNotPending, job.Status)
	}

	started := time.Now()
	if err := r.jobs.MarkRunning(ctx, job.ID); err != nil {
		return domain.OutcomeReport{}, fmt.Errorf("mark job running: %w", err)
	}

	report, err := r.executor.Execute(ctx, in)
	if err != nil {
		return domain.OutcomeReport{}, r.fail(ctx, job, started, fmt.Errorf("%w: %w", domain.ErrFatal, err))
	}

	if err := r.jobs.Complete(ctx, job.ID, report); err != nil {
		return domain.OutcomeReport{}, r.fail(ctx, job, started, fmt.Errorf("complete job: %w", err))
	}
	recordJob(job.Kind, domain.StatusCompleted, started)
	return report, nil
}

func (r *Runner) fail(ctx context.Context, job domain.ImportJob, started time.Time, err error) error {
	recordJob(job.Kind, domain.StatusFailed, started)
	if failErr := r.jobs.Fail(ctx, job.ID, truncateReason(err.Error())); failErr != nil {
		return fmt.Errorf("%w; fail update failed: %v", err, failErr)
	}
	return err
}

func truncateReason(reason string) string {
	const maxLen = 1000
	reason = strings.TrimSpace(reason)
	if len(reason) <= maxLen {
		return reason
	}
	return reason[:maxLen]
}
