package printing_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"

	"github.com/erp/docgen/internal/application/printing"
	domain "github.com/erp/docgen/internal/domain/printing"
	infra "github.com/erp/docgen/internal/infrastructure/printing"
	"github.com/erp/docgen/internal/infrastructure/telemetry"
)

func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return sr
}

func findSpan(t *testing.T, spans []sdktrace.ReadOnlySpan, name string) sdktrace.ReadOnlySpan {
	t.Helper()
	for _, s := range spans {
		if s.Name() == name {
			return s
		}
	}
	require.Failf(t, "span not found", "no span named %q", name)
	return nil
}

func attrOf(span sdktrace.ReadOnlySpan, key string) (attribute.Value, bool) {
	for _, kv := range span.Attributes() {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestDocumentAssembler_Telemetry(t *testing.T) {
	sr := recordSpans(t)

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	metrics, err := telemetry.NewDocumentMetrics(mp.Meter(telemetry.TracerName))
	require.NoError(t, err)

	assembler := printing.NewDocumentAssembler(
		domain.NewGeometryCatalog(),
		infra.NewPNGQRGenerator(128),
		printing.AssemblerConfig{DefaultPaper: "LETTER", DefaultBucket: "docs", Creator: "docgen"},
		zap.NewNop(),
		printing.WithMetrics(metrics),
		printing.WithClock(func() time.Time { return fixedNow }),
	)

	t.Run("successful assembly", func(t *testing.T) {
		out, err := assembler.Assemble(context.Background(), invoiceDocument(domain.TemplateClassic, 60))
		require.NoError(t, err)

		span := findSpan(t, sr.Ended(), "document.assemble")
		assert.NotEqual(t, codes.Error, span.Status().Code)

		tests := []struct {
			key  string
			want string
		}{
			{telemetry.SpanAttrTemplate, "classic"},
			{telemetry.SpanAttrPaper, "LETTER"},
			{telemetry.SpanAttrTransactionID, "cufe-abc-123"},
			{telemetry.SpanAttrBucket, "docs"},
			{telemetry.SpanAttrKey, out.Key},
		}
		for _, tt := range tests {
			v, ok := attrOf(span, tt.key)
			require.True(t, ok, tt.key)
			assert.Equal(t, tt.want, v.Emit(), tt.key)
		}
		pages, ok := attrOf(span, telemetry.SpanAttrPages)
		require.True(t, ok)
		assert.Equal(t, int64(out.PageCount), pages.AsInt64())
	})

	t.Run("failed assembly", func(t *testing.T) {
		doc := invoiceDocument(domain.TemplateClassic, 1)
		doc.Issuer.Name = ""
		_, err := assembler.Assemble(context.Background(), doc)
		require.Error(t, err)

		spans := sr.Ended()
		last := spans[len(spans)-1]
		assert.Equal(t, "document.assemble", last.Name())
		assert.Equal(t, codes.Error, last.Status().Code)
	})

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	outcomes := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "docgen.documents.assembled" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				outcome, _ := dp.Attributes.Value(telemetry.AttrOutcome)
				outcomes[outcome.AsString()] += dp.Value
			}
		}
	}
	assert.Equal(t, map[string]int64{telemetry.OutcomeSuccess: 1, telemetry.OutcomeFailure: 1}, outcomes)
}

func TestUploadDispatcher_Telemetry(t *testing.T) {
	sr := recordSpans(t)

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	metrics, err := telemetry.NewDocumentMetrics(mp.Meter(telemetry.TracerName))
	require.NoError(t, err)

	d := printing.NewUploadDispatcher(&flakyStorage{failures: 1}, newStatusMap(), printing.UploadDispatcherConfig{
		Workers:     1,
		MaxAttempts: 3,
		RetryDelay:  time.Millisecond,
	}, zap.NewNop(), printing.WithUploadMetrics(metrics))
	d.Start()

	reqCtx, reqSpan := otel.Tracer("test").Start(context.Background(), "POST /api/v1/documents")
	_, err = d.Dispatch(reqCtx, testObject("traced.pdf"))
	require.NoError(t, err)
	reqSpan.End()
	require.NoError(t, d.Shutdown(context.Background()))

	span := findSpan(t, sr.Ended(), "upload.process")
	assert.NotEqual(t, reqSpan.SpanContext().TraceID(), span.SpanContext().TraceID())
	require.Len(t, span.Links(), 1)
	assert.Equal(t, reqSpan.SpanContext().SpanID(), span.Links()[0].SpanContext.SpanID())

	attempts, ok := attrOf(span, telemetry.SpanAttrAttempts)
	require.True(t, ok)
	assert.Equal(t, int64(2), attempts.AsInt64())
	key, ok := attrOf(span, telemetry.SpanAttrKey)
	require.True(t, ok)
	assert.Equal(t, "traced.pdf", key.AsString())

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	var uploads int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok && m.Name == "docgen.uploads" {
				for _, dp := range sum.DataPoints {
					outcome, _ := dp.Attributes.Value(telemetry.AttrOutcome)
					assert.Equal(t, telemetry.OutcomeSuccess, outcome.AsString())
					uploads += dp.Value
				}
			}
		}
	}
	assert.Equal(t, int64(1), uploads)
}
