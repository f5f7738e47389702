package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/Mindburn-Labs/commitgate/pkg/commiterr"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()
	require.Equal(t, "commitgate", config.ServiceName)
	require.Equal(t, "localhost:4317", config.OTLPEndpoint)
	require.Equal(t, 1.0, config.SampleRate)
	require.False(t, config.Enabled)
}

func TestNewProviderDisabled(t *testing.T) {
	p, err := New(context.Background(), &Config{Enabled: false})
	require.NoError(t, err)
	require.NotNil(t, p.Tracer())

	ctx, finish := p.TrackOperation(context.Background(), "commit.sign")
	require.NotNil(t, ctx)
	finish(errors.New("boom"))
	require.NoError(t, p.Shutdown(context.Background()))
}

func TestNilProviderIsUsable(t *testing.T) {
	var p *Provider
	_, finish := p.TrackOperation(context.Background(), "commit.verify")
	finish(nil)
}

func newRecordingProvider(t *testing.T) (*Provider, *tracetest.SpanRecorder, *sdkmetric.ManualReader) {
	t.Helper()
	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		_ = mp.Shutdown(context.Background())
	})

	p, err := NewWithProviders(tp, mp)
	require.NoError(t, err)
	return p, spans, reader
}

func TestTrackOperation_RecordsSpanAndErrorKind(t *testing.T) {
	p, spans, reader := newRecordingProvider(t)

	_, finish := p.TrackOperation(context.Background(), "commit.resolve", attribute.String("asset.class", "item"))
	finish(commiterr.New(commiterr.KindNotFound, commiterr.StepResolve, "zero ledger"))

	_, finish = p.TrackOperation(context.Background(), "commit.resolve", attribute.String("asset.class", "item"))
	finish(nil)

	ended := spans.Ended()
	require.Len(t, ended, 2)
	assert.Equal(t, "commit.resolve", ended[0].Name())
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Equal(t, "NotFoundError", ended[0].Status().Description)
	assert.Equal(t, codes.Unset, ended[1].Status().Code)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	totals := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					totals[m.Name] += dp.Value
				}
			}
		}
	}
	assert.Equal(t, int64(2), totals["commitgate.operations.total"])
	assert.Equal(t, int64(1), totals["commitgate.errors.total"])
	assert.Equal(t, int64(0), totals["commitgate.operations.active"])
}

func TestTrackOperation_UnclassifiedError(t *testing.T) {
	p, spans, _ := newRecordingProvider(t)

	_, finish := p.TrackOperation(context.Background(), "commit.sign")
	finish(errors.New("plain"))

	ended := spans.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "unclassified", ended[0].Status().Description)
}
