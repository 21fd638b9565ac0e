package telemetry

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/metric"
)

// LedgerRecorder receives payment and reconciliation outcomes. Labels are
// plain strings so this package stays independent of the domain.
type LedgerRecorder interface {
	PaymentRecorded(ctx context.Context, direction, mode, state string, amount float64, elapsed time.Duration)
	PaymentRejected(ctx context.Context, errorKind string, elapsed time.Duration)
	PaymentWarning(ctx context.Context, errorKind string)
	PaymentReplayed(ctx context.Context)
	DriftCheckCompleted(ctx context.Context, checked, drifted int, elapsed time.Duration)
}

// LedgerMetrics exports ledger outcomes through an OpenTelemetry meter
type LedgerMetrics struct {
	recorded      *Counter
	rejected      *Counter
	warnings      *Counter
	replayed      *Counter
	driftDetected *Counter
	amount        *Histogram
	duration      *Histogram
	driftDuration *Histogram
}

// NewLedgerMetrics creates the ledger instruments on meter
func NewLedgerMetrics(meter metric.Meter) (*LedgerMetrics, error) {
	m := &LedgerMetrics{}
	var err error

	if m.recorded, err = NewCounter(meter, "ledger.payments.recorded", "Payments committed", "{payment}"); err != nil {
		return nil, err
	}
	if m.rejected, err = NewCounter(meter, "ledger.payments.rejected", "Payments rejected before or during commit", "{payment}"); err != nil {
		return nil, err
	}
	if m.warnings, err = NewCounter(meter, "ledger.payments.warnings", "Best-effort steps that failed after commit", "{warning}"); err != nil {
		return nil, err
	}
	if m.replayed, err = NewCounter(meter, "ledger.payments.replayed", "Idempotent replays answered with an existing payment", "{payment}"); err != nil {
		return nil, err
	}
	if m.driftDetected, err = NewCounter(meter, "ledger.drift.detected", "Parties whose stored balance disagrees with their documents", "{party}"); err != nil {
		return nil, err
	}
	if m.amount, err = NewHistogram(meter, HistogramOpts{
		Name:        "ledger.payments.amount",
		Description: "Recorded payment amounts",
		Unit:        "1",
		Boundaries:  AmountBuckets,
	}); err != nil {
		return nil, err
	}
	if m.duration, err = NewHistogram(meter, HistogramOpts{
		Name:        "ledger.payments.duration",
		Description: "Time to record a payment",
		Unit:        "s",
		Boundaries:  OperationDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if m.driftDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "ledger.drift.check.duration",
		Description: "Time to reconcile every active party",
		Unit:        "s",
		Boundaries:  OperationDurationBuckets,
	}); err != nil {
		return nil, err
	}

	return m, nil
}

// PaymentRecorded implements LedgerRecorder
func (m *LedgerMetrics) PaymentRecorded(ctx context.Context, direction, mode, state string, amount float64, elapsed time.Duration) {
	m.recorded.Inc(ctx, AttrDirection.String(direction), AttrMode.String(mode), AttrState.String(state))
	m.amount.Record(ctx, amount, AttrDirection.String(direction))
	m.duration.RecordDuration(ctx, elapsed, AttrState.String(state))
}

// PaymentRejected implements LedgerRecorder
func (m *LedgerMetrics) PaymentRejected(ctx context.Context, errorKind string, elapsed time.Duration) {
	m.rejected.Inc(ctx, AttrErrorKind.String(errorKind))
	m.duration.RecordDuration(ctx, elapsed, AttrState.String("rejected"))
}

// PaymentWarning implements LedgerRecorder
func (m *LedgerMetrics) PaymentWarning(ctx context.Context, errorKind string) {
	m.warnings.Inc(ctx, AttrErrorKind.String(errorKind))
}

// PaymentReplayed implements LedgerRecorder
func (m *LedgerMetrics) PaymentReplayed(ctx context.Context) {
	m.replayed.Inc(ctx)
}

// DriftCheckCompleted implements LedgerRecorder
func (m *LedgerMetrics) DriftCheckCompleted(ctx context.Context, _, drifted int, elapsed time.Duration) {
	if drifted > 0 {
		m.driftDetected.Add(ctx, int64(drifted))
	}
	m.driftDuration.RecordDuration(ctx, elapsed)
}

// PrometheusLedgerMetrics exposes the same outcomes for scraping on /metrics
type PrometheusLedgerMetrics struct {
	registry *prometheus.Registry

	paymentsTotal   *prometheus.CounterVec
	rejectedTotal   *prometheus.CounterVec
	warningsTotal   *prometheus.CounterVec
	replayedTotal   prometheus.Counter
	paymentDuration *prometheus.HistogramVec
	driftChecked    prometheus.Gauge
	driftedParties  prometheus.Gauge
}

// NewPrometheusLedgerMetrics registers the collectors on a private registry
func NewPrometheusLedgerMetrics(namespace string) *PrometheusLedgerMetrics {
	m := &PrometheusLedgerMetrics{
		registry: prometheus.NewRegistry(),
		paymentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_recorded_total",
			Help:      "Payments committed, by direction, mode and final state.",
		}, []string{"direction", "mode", "state"}),
		rejectedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_rejected_total",
			Help:      "Payments rejected, by error kind.",
		}, []string{"error_kind"}),
		warningsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_warnings_total",
			Help:      "Best-effort steps that failed after commit, by error kind.",
		}, []string{"error_kind"}),
		replayedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_replayed_total",
			Help:      "Idempotent replays answered with an existing payment.",
		}),
		paymentDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "payment_duration_seconds",
			Help:      "Time to record or reject a payment.",
			Buckets:   OperationDurationBuckets,
		}, []string{"outcome"}),
		driftChecked: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "drift_check_parties",
			Help:      "Parties reconciled by the last drift check.",
		}),
		driftedParties: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "drift_check_drifted_parties",
			Help:      "Parties with balance drift in the last drift check.",
		}),
	}

	m.registry.MustRegister(
		m.paymentsTotal,
		m.rejectedTotal,
		m.warningsTotal,
		m.replayedTotal,
		m.paymentDuration,
		m.driftChecked,
		m.driftedParties,
	)
	return m
}

// Registry returns the private registry
func (m *PrometheusLedgerMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format
func (m *PrometheusLedgerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// PaymentRecorded implements LedgerRecorder
func (m *PrometheusLedgerMetrics) PaymentRecorded(_ context.Context, direction, mode, state string, _ float64, elapsed time.Duration) {
	m.paymentsTotal.WithLabelValues(direction, mode, state).Inc()
	m.paymentDuration.WithLabelValues("recorded").Observe(elapsed.Seconds())
}

// PaymentRejected implements LedgerRecorder
func (m *PrometheusLedgerMetrics) PaymentRejected(_ context.Context, errorKind string, elapsed time.Duration) {
	m.rejectedTotal.WithLabelValues(errorKind).Inc()
	m.paymentDuration.WithLabelValues("rejected").Observe(elapsed.Seconds())
}

// PaymentWarning implements LedgerRecorder
func (m *PrometheusLedgerMetrics) PaymentWarning(_ context.Context, errorKind string) {
	m.warningsTotal.WithLabelValues(errorKind).Inc()
}

// PaymentReplayed implements LedgerRecorder
func (m *PrometheusLedgerMetrics) PaymentReplayed(context.Context) {
	m.replayedTotal.Inc()
}

// DriftCheckCompleted implements LedgerRecorder
func (m *PrometheusLedgerMetrics) DriftCheckCompleted(_ context.Context, checked, drifted int, _ time.Duration) {
	m.driftChecked.Set(float64(checked))
	m.driftedParties.Set(float64(drifted))
}

// MultiRecorder fans every call out to several recorders
type MultiRecorder []LedgerRecorder

// PaymentRecorded implements LedgerRecorder
func (r MultiRecorder) PaymentRecorded(ctx context.Context, direction, mode, state string, amount float64, elapsed time.Duration) {
	for _, rec := range r {
		rec.PaymentRecorded(ctx, direction, mode, state, amount, elapsed)
	}
}

// PaymentRejected implements LedgerRecorder
func (r MultiRecorder) PaymentRejected(ctx context.Context, errorKind string, elapsed time.Duration) {
	for _, rec := range r {
		rec.PaymentRejected(ctx, errorKind, elapsed)
	}
}

// PaymentWarning implements LedgerRecorder
func (r MultiRecorder) PaymentWarning(ctx context.Context, errorKind string) {
	for _, rec := range r {
		rec.PaymentWarning(ctx, errorKind)
	}
}

// PaymentReplayed implements LedgerRecorder
func (r MultiRecorder) PaymentReplayed(ctx context.Context) {
	for _, rec := range r {
		rec.PaymentReplayed(ctx)
	}
}

// DriftCheckCompleted implements LedgerRecorder
func (r MultiRecorder) DriftCheckCompleted(ctx context.Context, checked, drifted int, elapsed time.Duration) {
	for _, rec := range r {
		rec.DriftCheckCompleted(ctx, checked, drifted, elapsed)
	}
}

// NopRecorder discards everything
type NopRecorder struct{}

func (NopRecorder) PaymentRecorded(context.Context, string, string, string, float64, time.Duration) {}
func (NopRecorder) PaymentRejected(context.Context, string, time.Duration)                         {}
func (NopRecorder) PaymentWarning(context.Context, string)                                         {}
func (NopRecorder) PaymentReplayed(context.Context)                                                {}
func (NopRecorder) DriftCheckCompleted(context.Context, int, int, time.Duration)                   {}

var (
	_ LedgerRecorder = (*LedgerMetrics)(nil)
	_ LedgerRecorder = (*PrometheusLedgerMetrics)(nil)
	_ LedgerRecorder = MultiRecorder(nil)
	_ LedgerRecorder = NopRecorder{}
)
