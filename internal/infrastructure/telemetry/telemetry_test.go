package telemetry_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/pluvyt/backend/internal/infrastructure/config"
	"github.com/pluvyt/backend/internal/infrastructure/telemetry"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap/zaptest"
)

func TestNewTracerProvider_Disabled(t *testing.T) {
	ctx := context.Background()
	cfg := telemetry.ConfigFrom(config.TelemetryConfig{
		CollectorEndpoint: "localhost:14317",
		SamplingRatio:     1.0,
		ServiceName:       "pluvyt-test",
	}, "test")

	tp, err := telemetry.NewTracerProvider(ctx, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.False(t, tp.IsEnabled())
	assert.NotNil(t, tp.Tracer("test"))

	tp.EnableSpanProfiles()
	assert.False(t, tp.SpanProfilesEnabled())
	assert.NoError(t, tp.Shutdown(ctx))
}

func TestSampler(t *testing.T) {
	assert.Contains(t, telemetry.Sampler(1).Description(), "AlwaysOnSampler")
	assert.Contains(t, telemetry.Sampler(0).Description(), "AlwaysOffSampler")
	assert.Contains(t, telemetry.Sampler(0.25).Description(), "TraceIDRatioBased{0.25}")
}

func TestStartServiceSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	ctx, span := telemetry.StartServiceSpan(context.Background(), "ledger", "apply",
		telemetry.SpanAttrKind, "CREDIT",
		telemetry.SpanAttrPoints, int64(50),
		42, "ignored")
	assert.True(t, trace.SpanContextFromContext(ctx).HasTraceID())
	telemetry.RecordError(span, errors.New("boom"))
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "ledger.apply", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Len(t, spans[0].Attributes(), 2)

	assert.False(t, trace.SpanContextFromContext(context.Background()).IsValid())
}

func TestMetrics_Recorders(t *testing.T) {
	m := telemetry.NewMetrics()

	m.RecordPointTransaction("CREDIT", "applied")
	m.RecordPointTransaction("CREDIT", "applied")
	m.RecordPointTransaction("DEBIT", "rejected")
	m.RecordComandaStatus("PAID")
	m.RecordOrderCreated("public")
	m.RecordTableClosed(3)

	count, err := testutil.GatherAndCount(m.Registry(), telemetry.MetricPointTransactionsTotal)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = testutil.GatherAndCount(m.Registry(),
		telemetry.MetricComandaTransitionsTotal,
		telemetry.MetricOrdersCreatedTotal,
		telemetry.MetricTablesClosedTotal,
		telemetry.MetricTableCloseComandas)
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestMetrics_GinMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := telemetry.NewMetrics()
	r := gin.New()
	r.Use(m.GinMiddleware())
	r.GET("/mesas/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	for _, path := range []string{"/mesas/1", "/mesas/2", "/missing"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `pluvyt_http_requests_total{method="GET",route="/mesas/:id",status="204"} 2`)
	assert.Contains(t, body, `pluvyt_http_requests_total{method="GET",route="unmatched",status="404"} 1`)
	assert.Contains(t, body, "go_goroutines")
}
