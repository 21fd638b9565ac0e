package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/infrastructure/scheduler"
	"go.uber.org/zap"
)

// JobScheduler queues follow-up jobs
type JobScheduler interface {
	Schedule(kind scheduler.JobKind, partyID *uuid.UUID) error
}

// JobExecutor runs scheduled reconciliation jobs against the
// ReconciliationService.
type JobExecutor struct {
	reconciliation *ReconciliationService
	rechecks       JobScheduler
}

// NewJobExecutor creates a new JobExecutor
func NewJobExecutor(reconciliation *ReconciliationService) *JobExecutor {
	return &JobExecutor{reconciliation: reconciliation}
}

// ScheduleRechecksOn makes a drift check queue a RECONCILE_PARTY job for
// every party it had to defer
func (e *JobExecutor) ScheduleRechecksOn(s JobScheduler) {
	e.rechecks = s
}

// Execute implements scheduler.JobExecutor. Drift is reported by the
// service itself, so only load failures fail the job.
func (e *JobExecutor) Execute(ctx context.Context, job *scheduler.Job) error {
	switch job.Kind {
	case scheduler.JobKindDriftCheck:
		summary, err := e.reconciliation.CheckAll(ctx)
		if err != nil {
			return err
		}
		e.scheduleRechecks(summary.Deferred)
		if summary.Checked == 0 && summary.Failed > 0 {
			return fmt.Errorf("drift check could not load any of %d parties", summary.Failed)
		}
		return nil
	case scheduler.JobKindReconcileParty:
		if job.PartyID == nil {
			return fmt.Errorf("%s job without party id", job.Kind)
		}
		report, err := e.reconciliation.ReconcileParty(ctx, *job.PartyID)
		if err != nil {
			return err
		}
		if report.HasDrift() {
			e.reconciliation.reportDrift(ctx, report)
		}
		return nil
	default:
		return scheduler.ErrUnknownJobKind
	}
}

func (e *JobExecutor) scheduleRechecks(partyIDs []uuid.UUID) {
	if e.rechecks == nil {
		return
	}
	for i := range partyIDs {
		id := partyIDs[i]
		err := e.rechecks.Schedule(scheduler.JobKindReconcileParty, &id)
		if err != nil && !errors.Is(err, scheduler.ErrJobAlreadyQueued) {
			e.reconciliation.logger.Warn("Failed to schedule party re-check",
				zap.String("party_id", id.String()),
				zap.Error(err),
			)
		}
	}
}

var _ scheduler.JobExecutor = (*JobExecutor)(nil)
