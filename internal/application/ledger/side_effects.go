package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/audit"
	"github.com/shopledger/backend/internal/domain/shared"
	"github.com/shopledger/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

type eventSource interface {
	GetDomainEvents() []shared.DomainEvent
	ClearDomainEvents()
}

// recordAudit appends an info entry. Failures are logged and dropped.
func recordAudit(ctx context.Context, repo audit.Repository, l *zap.Logger, actor string, action audit.Action, resourceType string, resourceID uuid.UUID, details map[string]any) {
	recordAuditWithSeverity(ctx, repo, l, actor, action, audit.SeverityInfo, resourceType, resourceID, details)
}

func recordAuditWithSeverity(ctx context.Context, repo audit.Repository, l *zap.Logger, actor string, action audit.Action, severity audit.Severity, resourceType string, resourceID uuid.UUID, details map[string]any) {
	if repo == nil {
		return
	}
	if actor == "" {
		actor = logger.GetActor(ctx)
	}
	entry, err := audit.NewEntry(actor, action, resourceType, resourceID, severity, details)
	if err == nil {
		err = repo.Append(context.WithoutCancel(ctx), entry)
	}
	if err != nil {
		logger.Enrich(ctx, l).Warn("Failed to write audit entry",
			zap.String("action", string(action)),
			zap.String("resource_id", resourceID.String()),
			zap.Error(err),
		)
	}
}

// publishAggregateEvents drains the aggregate's pending events onto the bus
func publishAggregateEvents(ctx context.Context, publisher shared.EventPublisher, l *zap.Logger, src eventSource, extra ...shared.DomainEvent) {
	events := append(src.GetDomainEvents(), extra...)
	src.ClearDomainEvents()
	publish(ctx, publisher, l, events...)
}

func publish(ctx context.Context, publisher shared.EventPublisher, l *zap.Logger, events ...shared.DomainEvent) {
	if publisher == nil || len(events) == 0 {
		return
	}
	if err := publisher.Publish(context.WithoutCancel(ctx), events...); err != nil {
		logger.Enrich(ctx, l).Warn("Failed to publish events", zap.Int("count", len(events)), zap.Error(err))
	}
}
