package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/erp/backoffice/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestNewMeterProvider_Disabled(t *testing.T) {
	mp, err := NewMeterProvider(context.Background(), config.TelemetryConfig{}, zap.NewNop())
	require.NoError(t, err)

	assert.False(t, mp.IsEnabled())
	assert.NotNil(t, mp.Meter("test"))
	assert.NoError(t, mp.Shutdown(context.Background()))
}

func TestCommandMetrics_RecordCommand(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := NewMeterProviderWithReader(reader, zap.NewNop())
	defer mp.Shutdown(context.Background())

	m, err := NewCommandMetrics(mp.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordCommand(ctx, "CreateOrder", "", 20*time.Millisecond)
	m.RecordCommand(ctx, "CreateOrder", "", 30*time.Millisecond)
	m.RecordCommand(ctx, "CancelOrder", "CONCURRENCY_CONFLICT", 5*time.Millisecond)

	metrics := collect(t, reader)

	total, ok := metrics["command_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	counts := make(map[string]int64)
	for _, dp := range total.DataPoints {
		name, _ := dp.Attributes.Value(AttrCommand)
		outcome, _ := dp.Attributes.Value(AttrOutcome)
		counts[name.AsString()+"/"+outcome.AsString()] = dp.Value
	}
	assert.Equal(t, map[string]int64{
		"CreateOrder/ok":                   2,
		"CancelOrder/CONCURRENCY_CONFLICT": 1,
	}, counts)

	duration, ok := metrics["command_duration_seconds"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	assert.Len(t, duration.DataPoints, 2)
}

func TestNewCommandMetrics_NilMeter(t *testing.T) {
	m, err := NewCommandMetrics(nil)
	require.Error(t, err)
	assert.Nil(t, m)
}

func TestDBPoolMetrics_Collect(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := NewMeterProviderWithReader(reader, zap.NewNop())
	defer mp.Shutdown(context.Background())

	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	db.SetMaxOpenConns(7)

	m, err := NewDBPoolMetrics(mp.Meter("test"), db, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, 15*time.Second, m.interval)

	m.Collect(context.Background())
	metrics := collect(t, reader)

	limit, ok := metrics["db_pool_connections_max"].Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, limit.DataPoints, 1)
	assert.EqualValues(t, 7, limit.DataPoints[0].Value)

	conns, ok := metrics["db_pool_connections"].Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	states := make(map[string]bool)
	for _, dp := range conns.DataPoints {
		v, _ := dp.Attributes.Value(AttrDBState)
		states[v.AsString()] = true
	}
	assert.Equal(t, map[string]bool{"idle": true, "in_use": true, "open": true}, states)
}

func TestDBPoolMetrics_StartStop(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := NewMeterProviderWithReader(reader, zap.NewNop())
	defer mp.Shutdown(context.Background())

	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	m, err := NewDBPoolMetrics(mp.Meter("test"), db, time.Hour, zap.NewNop())
	require.NoError(t, err)

	m.Start(context.Background())
	m.Stop()
	m.Stop()

	assert.Contains(t, collect(t, reader), "db_pool_wait_count")
}
