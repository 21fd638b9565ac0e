package telemetry

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestStartServiceSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	ctx, span := StartServiceSpan(context.Background(), "payment", "record", WithAttribute(SpanAttrMode, "advance"))
	SetAttributes(span, SpanAttrAmount, "700", 42, "ignored", SpanAttrReplayed, false)
	AddEvent(span, "invoice_applied", SpanAttrInvoiceID, "inv-1")
	RecordError(span, errors.New("boom"))
	assert.NotEmpty(t, GetTraceID(ctx))
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	got := spans[0]
	assert.Equal(t, "payment.record", got.Name())
	assert.Equal(t, codes.Error, got.Status().Code)
	require.Len(t, got.Events(), 2) // invoice_applied + exception

	attrs := map[string]string{}
	for _, kv := range got.Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "advance", attrs[SpanAttrMode])
	assert.Equal(t, "700", attrs[SpanAttrAmount])
	assert.Equal(t, "false", attrs[SpanAttrReplayed])
	assert.Len(t, attrs, 3)
}

func TestGetTraceID_NoSpan(t *testing.T) {
	assert.Empty(t, GetTraceID(context.Background()))
}

func TestSanitizeLabels(t *testing.T) {
	pairs := sanitizeLabels(map[string]string{
		"Operation": OperationRecordPayment,
		"party_id":  "b0d1",
		"empty":     "",
		"Mode-Name": strings.Repeat("x", MaxLabelValueLength+10),
		"direction": "in",
		"!!":        "dropped",
	})

	// Keys are sorted before sanitizing, so upper-case keys come first.
	assert.Equal(t, []string{
		"mode_name", strings.Repeat("x", MaxLabelValueLength),
		"operation", OperationRecordPayment,
		"direction", "in",
	}, pairs)
}

func TestWithProfilingLabels_RunsFn(t *testing.T) {
	called := 0
	WithProfilingLabels(context.Background(), LedgerOperationLabels(OperationReconcile, nil), func(context.Context) { called++ })
	WithProfilingLabels(context.Background(), nil, func(context.Context) { called++ })
	assert.Equal(t, 2, called)
}

func TestPrometheusLedgerMetrics(t *testing.T) {
	m := NewPrometheusLedgerMetrics("shopledger")
	ctx := context.Background()

	m.PaymentRecorded(ctx, "in", "against_invoice", "completed", 700, 10*time.Millisecond)
	m.PaymentRecorded(ctx, "in", "against_invoice", "completed", 480, 10*time.Millisecond)
	m.PaymentRejected(ctx, "CONCURRENT_MODIFICATION", time.Millisecond)
	m.PaymentWarning(ctx, "BANK_ACCOUNT_UNAVAILABLE")
	m.PaymentReplayed(ctx)
	m.DriftCheckCompleted(ctx, 12, 1, time.Second)

	assert.Equal(t, 2.0, promtestutil.ToFloat64(m.paymentsTotal.WithLabelValues("in", "against_invoice", "completed")))
	assert.Equal(t, 1.0, promtestutil.ToFloat64(m.rejectedTotal.WithLabelValues("CONCURRENT_MODIFICATION")))
	assert.Equal(t, 1.0, promtestutil.ToFloat64(m.warningsTotal.WithLabelValues("BANK_ACCOUNT_UNAVAILABLE")))
	assert.Equal(t, 1.0, promtestutil.ToFloat64(m.replayedTotal))
	assert.Equal(t, 12.0, promtestutil.ToFloat64(m.driftChecked))
	assert.Equal(t, 1.0, promtestutil.ToFloat64(m.driftedParties))

	count, err := promtestutil.GatherAndCount(m.Registry(), "shopledger_payments_recorded_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestLedgerMetrics_OTel(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := NewLedgerMetrics(provider.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	var rec LedgerRecorder = MultiRecorder{m, NopRecorder{}}
	rec.PaymentRecorded(ctx, "out", "advance", "partially_completed", 2000, 5*time.Millisecond)
	rec.PaymentWarning(ctx, "AUDIT_WRITE_FAILED")
	rec.DriftCheckCompleted(ctx, 3, 2, time.Second)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	sums := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			if data, ok := md.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range data.DataPoints {
					sums[md.Name] += dp.Value
				}
			}
		}
	}
	assert.Equal(t, int64(1), sums["ledger.payments.recorded"])
	assert.Equal(t, int64(1), sums["ledger.payments.warnings"])
	assert.Equal(t, int64(2), sums["ledger.drift.detected"])
}

func TestDBTracingPlugins(t *testing.T) {
	assert.Empty(t, DBTracingPlugins(DBTracingConfig{Enabled: false}))

	plugins := DBTracingPlugins(DBTracingConfig{Enabled: true, DBName: "shopledger"})
	require.Len(t, plugins, 1)
	assert.NotEmpty(t, plugins[0].Name())
}

func TestProviders_Disabled(t *testing.T) {
	ctx := context.Background()
	log := zap.NewNop()

	tp, err := NewTracerProvider(ctx, Config{Enabled: false}, log)
	require.NoError(t, err)
	assert.False(t, tp.IsEnabled())
	tp.EnableSpanProfiles()
	assert.False(t, tp.SpanProfilesEnabled())
	assert.NoError(t, tp.Shutdown(ctx))

	mp, err := NewMeterProvider(ctx, MetricsConfig{Enabled: false}, log)
	require.NoError(t, err)
	assert.False(t, mp.IsEnabled())
	assert.NotNil(t, mp.Meter("ledger"))
	assert.NoError(t, mp.Shutdown(ctx))

	lp, err := NewLoggerProvider(ctx, LogsConfig{Enabled: false}, log)
	require.NoError(t, err)
	assert.False(t, lp.IsEnabled())
	core := NewZapOTELCore("shopledger", lp, zapcore.InfoLevel)
	assert.False(t, core.Enabled(zapcore.ErrorLevel))

	p, err := NewProfiler(ProfilerConfig{Enabled: false}, log)
	require.NoError(t, err)
	assert.False(t, p.IsEnabled())
	assert.NoError(t, p.Stop())

	_, err = NewProfiler(ProfilerConfig{Enabled: true}, log)
	assert.Error(t, err)
}
