package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestInitLogger_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	InitLogger("content-explore", "production", "debug", &buf)
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	GetLogger().Info().Str("query", "safety").Msg("reset fetch")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "content-explore", line["service"])
	assert.Equal(t, "safety", line["query"])
	assert.Equal(t, "reset fetch", line["message"])
}

func TestInitLogger_UnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	InitLogger("content-explore", "production", "chatty", &buf)
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	GetLogger().Debug().Msg("hidden")
	assert.Empty(t, buf.String())
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}

func TestComponentLogger(t *testing.T) {
	var buf bytes.Buffer
	InitLogger("content-explore", "production", "info", &buf)

	logger := Component("listquery")
	logger.Info().Msg("hello")

	assert.Contains(t, buf.String(), `"component":"listquery"`)
}

func TestLoggerFromContext_WithoutSpan(t *testing.T) {
	logger := LoggerFromContext(context.Background())
	assert.NotNil(t, logger)
}

func TestListMetrics_RecordFetch(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	metrics, err := NewListMetrics(provider)
	require.NoError(t, err)

	ctx := context.Background()
	metrics.RecordFetch(ctx, FetchKindReset, OutcomeOK, 12*time.Millisecond)
	metrics.RecordFetch(ctx, FetchKindAppend, OutcomeError, 8*time.Millisecond)
	metrics.RecordFetch(ctx, FetchKindAppend, OutcomeStale, time.Millisecond)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	fetches := findMetric(t, rm, "content.list.fetch.count").Data.(metricdata.Sum[int64])
	byOutcome := map[string]int64{}
	for _, dp := range fetches.DataPoints {
		outcome, ok := dp.Attributes.Value(attribute.Key("list.fetch.outcome"))
		require.True(t, ok)
		byOutcome[outcome.AsString()] += dp.Value
	}
	assert.Equal(t, map[string]int64{OutcomeOK: 1, OutcomeError: 1, OutcomeStale: 1}, byOutcome)

	stale := findMetric(t, rm, "content.list.stale.count").Data.(metricdata.Sum[int64])
	require.Len(t, stale.DataPoints, 1)
	assert.Equal(t, int64(1), stale.DataPoints[0].Value)
	kind, _ := stale.DataPoints[0].Attributes.Value(attribute.Key("list.fetch.kind"))
	assert.Equal(t, FetchKindAppend, kind.AsString())

	durations := findMetric(t, rm, "content.list.fetch.duration").Data.(metricdata.Histogram[float64])
	var count uint64
	var sum float64
	for _, dp := range durations.DataPoints {
		count += dp.Count
		sum += dp.Sum
	}
	assert.Equal(t, uint64(3), count)
	assert.Equal(t, float64(21), sum)
}

func TestListMetrics_NilIsNoop(t *testing.T) {
	var metrics *ListMetrics
	assert.NotPanics(t, func() {
		metrics.RecordFetch(context.Background(), FetchKindReset, OutcomeError, time.Millisecond)
	})
}

func findMetric(t *testing.T, rm metricdata.ResourceMetrics, name string) metricdata.Metrics {
	t.Helper()
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				return m
			}
		}
	}
	t.Fatalf("metric %s was not recorded", name)
	return metricdata.Metrics{}
}

func TestStartSpan_RecordError(t *testing.T) {
	_, span := StartSpan(context.Background(), "contentapi.FetchPage")
	defer span.End()

	assert.NotPanics(t, func() {
		RecordError(span, errors.New("boom"))
		RecordError(span, nil)
	})
}
