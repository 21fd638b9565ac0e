package scheduler

import (
	"errors"
	"fmt"
)

var (
	// ErrSchedulerNotRunning is returned when trying to submit a job to a stopped scheduler
	ErrSchedulerNotRunning = errors.New("scheduler is not running")

	// ErrJobQueueFull is returned when the job queue is full
	ErrJobQueueFull = errors.New("job queue is full")

	// ErrJobAlreadyQueued is returned when an identical job is queued or running
	ErrJobAlreadyQueued = errors.New("job already queued")

	// ErrUnknownJobKind is returned for unknown job kinds
	ErrUnknownJobKind = errors.New("unknown job kind")

	// ErrInvalidConfig is returned when configuration is invalid
	ErrInvalidConfig = errors.New("invalid scheduler configuration")
)

type panicError struct {
	value any
}

func (e *panicError) Error() string {
	return fmt.Sprintf("job panicked: %v", e.value)
}
