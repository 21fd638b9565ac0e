package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/shopledger/backend/internal/infrastructure/logger"
	"github.com/shopledger/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Outcome is the result of one best-effort step
type Outcome struct {
	Step     string
	Err      error
	Duration time.Duration
}

// OK reports whether the step succeeded
func (o Outcome) OK() bool {
	return o.Err == nil
}

// bestEffort runs fn detached from the caller's cancellation with its own
// timeout. The outcome is logged and traced; the error never propagates.
func (o *Orchestrator) bestEffort(ctx context.Context, step string, fn func(context.Context) error) (out Outcome) {
	stepCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.stepTimeout)
	defer cancel()

	stepCtx, span := telemetry.StartServiceSpan(stepCtx, "payment", step)
	defer span.End()

	start := o.now()
	out.Step = step
	defer func() {
		if r := recover(); r != nil {
			out.Err = &panicError{value: r}
		}
		out.Duration = o.now().Sub(start)

		log := logger.Enrich(ctx, o.logger)
		if out.Err != nil {
			telemetry.RecordError(span, out.Err)
			log.Warn("Best-effort step failed",
				zap.String("step", step),
				zap.Duration("elapsed", out.Duration),
				zap.Error(out.Err),
			)
			return
		}
		telemetry.SetOK(span)
		log.Debug("Best-effort step completed", zap.String("step", step), zap.Duration("elapsed", out.Duration))
	}()

	out.Err = fn(stepCtx)
	return out
}

type panicError struct {
	value any
}

func (e *panicError) Error() string {
	return fmt.Sprintf("step panicked: %v", e.value)
}
