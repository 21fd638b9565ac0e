package notification

import (
	"context"
	"fmt"

	"github.com/shopledger/backend/internal/domain/banking"
	"github.com/shopledger/backend/internal/domain/finance"
	"github.com/shopledger/backend/internal/domain/shared"
	"github.com/shopledger/backend/internal/infrastructure/event"
	"go.uber.org/zap"
)

// PaymentNotificationHandler renders ledger events and sends them to a Notifier
type PaymentNotificationHandler struct {
	notifier  Notifier
	templates TemplateProvider
	codec     *event.Codec
	locale    string
	logger    *zap.Logger
}

// NewPaymentNotificationHandler creates the handler. templates may be nil
// for the built-in set.
func NewPaymentNotificationHandler(notifier Notifier, templates TemplateProvider, locale string, logger *zap.Logger) *PaymentNotificationHandler {
	if templates == nil {
		templates = NewStaticTemplateProvider()
	}
	if locale == "" {
		locale = DefaultLocale
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentNotificationHandler{
		notifier:  notifier,
		templates: templates,
		codec:     event.NewLedgerCodec(),
		locale:    locale,
		logger:    logger,
	}
}

// EventTypes implements shared.EventHandler
func (h *PaymentNotificationHandler) EventTypes() []string {
	return []string{
		finance.EventTypePaymentRecorded,
		finance.EventTypeInvoicePaymentApplied,
		finance.EventTypeLedgerDriftDetected,
		banking.EventTypeBankTransactionRecorded,
	}
}

// Handle implements shared.EventHandler. Events without a template are skipped.
func (h *PaymentNotificationHandler) Handle(ctx context.Context, evt shared.DomainEvent) error {
	tmpl, ok := h.templates.Lookup(evt.EventType(), h.locale)
	if !ok {
		h.logger.Debug("No notification template, skipping", zap.String("event_type", evt.EventType()))
		return nil
	}

	subject, body, err := Render(tmpl, evt)
	if err != nil {
		return fmt.Errorf("failed to render %s notification: %w", evt.EventType(), err)
	}
	payload, err := h.codec.Encode(evt)
	if err != nil {
		return fmt.Errorf("failed to encode %s payload: %w", evt.EventType(), err)
	}

	return h.notifier.Notify(ctx, Notification{
		EventID:    evt.EventID(),
		EventType:  evt.EventType(),
		Subject:    subject,
		Body:       body,
		Locale:     h.locale,
		Payload:    payload,
		OccurredAt: evt.OccurredAt(),
	})
}

var _ shared.EventHandler = (*PaymentNotificationHandler)(nil)
