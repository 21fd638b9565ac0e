// Package scheduler runs ledger maintenance jobs on a small worker pool.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// JobStatus represents the status of a scheduled job
type JobStatus string

const (
	JobStatusPending JobStatus = "PENDING"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
)

// JobKind identifies what a job does
type JobKind string

const (
	// JobKindDriftCheck reconciles every active party
	JobKindDriftCheck JobKind = "DRIFT_CHECK"
	// JobKindReconcileParty reconciles a single party
	JobKindReconcileParty JobKind = "RECONCILE_PARTY"
)

// IsValid checks if the job kind is known
func (k JobKind) IsValid() bool {
	return k == JobKindDriftCheck || k == JobKindReconcileParty
}

// Job represents a scheduled ledger job
type Job struct {
	ID          uuid.UUID
	Kind        JobKind
	PartyID     *uuid.UUID // only for JobKindReconcileParty
	Status      JobStatus
	Error       string
	StartedAt   *time.Time
	CompletedAt *time.Time
	RetryCount  int
	MaxRetries  int
	NextRetryAt *time.Time
}

// NewJob creates a new job instance
func NewJob(kind JobKind, partyID *uuid.UUID, maxRetries int) *Job {
	return &Job{
		ID:         uuid.New(),
		Kind:       kind,
		PartyID:    partyID,
		Status:     JobStatusPending,
		MaxRetries: maxRetries,
	}
}

// Key identifies jobs that must not run twice at the same time
func (j *Job) Key() string {
	if j.PartyID != nil {
		return string(j.Kind) + ":" + j.PartyID.String()
	}
	return string(j.Kind)
}

// Start marks the job as running
func (j *Job) Start() {
	now := time.Now()
	j.Status = JobStatusRunning
	j.StartedAt = &now
	j.Error = ""
}

// Complete marks the job as successful
func (j *Job) Complete() {
	now := time.Now()
	j.Status = JobStatusSuccess
	j.CompletedAt = &now
}

// Fail marks the job as failed
func (j *Job) Fail(err string) {
	now := time.Now()
	j.Status = JobStatusFailed
	j.CompletedAt = &now
	j.Error = err
}

// ShouldRetry returns true if the job should be retried
func (j *Job) ShouldRetry() bool {
	return j.Status == JobStatusFailed && j.RetryCount < j.MaxRetries
}

// ScheduleRetry schedules the job for retry
func (j *Job) ScheduleRetry(delay time.Duration) {
	j.RetryCount++
	j.Status = JobStatusPending
	nextRetry := time.Now().Add(delay)
	j.NextRetryAt = &nextRetry
	j.Error = ""
}

// JobExecutor is the interface for executing ledger jobs
type JobExecutor interface {
	Execute(ctx context.Context, job *Job) error
}

// JobExecutorFunc adapts a function to JobExecutor
type JobExecutorFunc func(ctx context.Context, job *Job) error

// Execute calls f
func (f JobExecutorFunc) Execute(ctx context.Context, job *Job) error {
	return f(ctx, job)
}

// SchedulerConfig holds scheduler configuration
type SchedulerConfig struct {
	Enabled           bool
	MaxConcurrentJobs int
	QueueSize         int
	JobTimeout        time.Duration
	RetryAttempts     int
	RetryDelay        time.Duration
}

// DefaultSchedulerConfig returns default scheduler configuration
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Enabled:           true,
		MaxConcurrentJobs: 2,
		QueueSize:         32,
		JobTimeout:        5 * time.Minute,
		RetryAttempts:     2,
		RetryDelay:        time.Minute,
	}
}

// Validate checks the configuration
func (c SchedulerConfig) Validate() error {
	if c.MaxConcurrentJobs < 1 || c.QueueSize < 1 || c.JobTimeout <= 0 || c.RetryAttempts < 0 {
		return ErrInvalidConfig
	}
	return nil
}

// Scheduler manages ledger jobs. At most one job per Key is queued or
// running at any time.
type Scheduler struct {
	config   SchedulerConfig
	executor JobExecutor
	logger   *zap.Logger

	jobs      chan *Job
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	inflight  map[string]struct{}
}

// NewScheduler creates a new scheduler instance
func NewScheduler(config SchedulerConfig, executor JobExecutor, logger *zap.Logger) (*Scheduler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		config:   config,
		executor: executor,
		logger:   logger.Named("scheduler"),
		jobs:     make(chan *Job, config.QueueSize),
		inflight: make(map[string]struct{}),
	}, nil
}

// Start starts the worker pool
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	for i := 0; i < s.config.MaxConcurrentJobs; i++ {
		s.wg.Add(1)
		go s.worker(ctx, i)
	}

	s.logger.Info("Ledger scheduler started",
		zap.Int("workers", s.config.MaxConcurrentJobs),
		zap.Duration("job_timeout", s.config.JobTimeout),
	)

	return nil
}

// Stop cancels running jobs and waits for the workers to exit
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Ledger scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Ledger scheduler stop timed out")
		return ctx.Err()
	}
}

// IsRunning reports whether the workers are up
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// SubmitJob queues a job for execution
func (s *Scheduler) SubmitJob(job *Job) error {
	if !job.Kind.IsValid() {
		return ErrUnknownJobKind
	}

	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	key := job.Key()
	if _, busy := s.inflight[key]; busy {
		s.mu.Unlock()
		return ErrJobAlreadyQueued
	}
	s.inflight[key] = struct{}{}
	s.mu.Unlock()

	select {
	case s.jobs <- job:
		s.logger.Debug("Job submitted",
			zap.String("job_id", job.ID.String()),
			zap.String("kind", string(job.Kind)),
		)
		return nil
	default:
		s.release(job)
		return ErrJobQueueFull
	}
}

// Schedule builds and submits a job
func (s *Scheduler) Schedule(kind JobKind, partyID *uuid.UUID) error {
	return s.SubmitJob(NewJob(kind, partyID, s.config.RetryAttempts))
}

func (s *Scheduler) release(job *Job) {
	s.mu.Lock()
	delete(s.inflight, job.Key())
	s.mu.Unlock()
}

// worker processes jobs from the queue
func (s *Scheduler) worker(ctx context.Context, workerID int) {
	defer s.wg.Done()

	s.logger.Debug("Worker started", zap.Int("worker_id", workerID))

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Worker stopping", zap.Int("worker_id", workerID))
			return
		case job := <-s.jobs:
			s.processJob(ctx, job, workerID)
		}
	}
}

// processJob executes a single job
func (s *Scheduler) processJob(ctx context.Context, job *Job, workerID int) {
	job.Start()
	s.logger.Info("Processing job",
		zap.Int("worker_id", workerID),
		zap.String("job_id", job.ID.String()),
		zap.String("kind", string(job.Kind)),
	)

	jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()

	err := s.execute(jobCtx, job)
	if err == nil {
		job.Complete()
		s.release(job)
		s.logger.Info("Job completed successfully",
			zap.Int("worker_id", workerID),
			zap.String("job_id", job.ID.String()),
			zap.String("kind", string(job.Kind)),
		)
		return
	}

	job.Fail(err.Error())
	s.logger.Error("Job failed",
		zap.Int("worker_id", workerID),
		zap.String("job_id", job.ID.String()),
		zap.String("kind", string(job.Kind)),
		zap.Int("retry_count", job.RetryCount),
		zap.Error(err),
	)

	if !job.ShouldRetry() || ctx.Err() != nil {
		s.release(job)
		return
	}
	job.ScheduleRetry(s.config.RetryDelay)
	s.wg.Add(1)
	go s.requeueAfter(ctx, job, s.config.RetryDelay)
}

// execute runs the executor and turns a panic into an error
func (s *Scheduler) execute(ctx context.Context, job *Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &panicError{value: r}
		}
	}()
	return s.executor.Execute(ctx, job)
}

func (s *Scheduler) requeueAfter(ctx context.Context, job *Job, delay time.Duration) {
	defer s.wg.Done()

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		s.release(job)
		return
	case <-timer.C:
	}

	select {
	case s.jobs <- job:
		s.logger.Info("Job scheduled for retry",
			zap.String("job_id", job.ID.String()),
			zap.Int("retry_count", job.RetryCount),
			zap.Int("max_retries", job.MaxRetries),
		)
	default:
		s.release(job)
		s.logger.Warn("Failed to re-queue job for retry",
			zap.String("job_id", job.ID.String()),
		)
	}
}
