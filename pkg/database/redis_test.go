package database

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func miniredisConfig(t *testing.T) (RedisConfig, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)

	cfg := DefaultRedisConfig()
	cfg.Host = mr.Host()
	cfg.Port = port
	return cfg, mr
}

func TestRedisConfig_Addr(t *testing.T) {
	assert.Equal(t, "localhost:6379", DefaultRedisConfig().Addr())
}

func TestNewRedisClient_Connects(t *testing.T) {
	cfg, mr := miniredisConfig(t)

	client, err := NewRedisClient(context.Background(), cfg, testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	got, err := mr.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	cfg, mr := miniredisConfig(t)
	mr.Close()

	_, err := NewRedisClient(context.Background(), cfg, testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ping redis")
}

func TestTracingHook_RecordsSpans(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	client.AddHook(NewTracingHook(0, nil))
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	err := client.Get(ctx, "missing").Err()
	require.ErrorIs(t, err, redis.Nil)

	_, err = client.Pipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, "a", "1", 0)
		p.Incr(ctx, "a")
		return nil
	})
	require.NoError(t, err)

	var names []string
	for _, s := range exporter.GetSpans() {
		names = append(names, s.Name)
		if s.Name == "redis.get" {
			assert.Equal(t, codes.Unset, s.Status.Code, "redis.Nil is not an error")
		}
	}
	assert.Contains(t, names, "redis.get")
	assert.Contains(t, names, "redis.pipeline")
}

func TestTracingHook_LogsSlowCommands(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, nil))

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	client.AddHook(NewTracingHook(time.Nanosecond, l))
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	assert.True(t, strings.Contains(buf.String(), "slow redis command"))
}

func TestPoolStatsCollector(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(context.Background()).Err())

	reg := prometheus.NewRegistry()
	require.NoError(t, RegisterPoolMetrics(reg, client, "backoffice"))

	count, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	assert.Equal(t, 6, count)

	c := NewPoolStatsCollector(client, "backoffice")
	assert.Equal(t, 1, testutil.CollectAndCount(c, "redis_pool_total_connections"))
}

func TestPoolStatsCollector_LabelsAndValues(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(context.Background()).Err())

	reg := prometheus.NewRegistry()
	require.NoError(t, RegisterPoolMetrics(reg, client, "backoffice"))

	families, err := reg.Gather()
	require.NoError(t, err)

	byName := make(map[string]*dto.MetricFamily, len(families))
	for _, mf := range families {
		byName[mf.GetName()] = mf
	}

	total, ok := byName["redis_pool_total_connections"]
	require.True(t, ok)
	assert.Equal(t, dto.MetricType_GAUGE, total.GetType())
	require.Len(t, total.GetMetric(), 1)

	m := total.GetMetric()[0]
	require.Len(t, m.GetLabel(), 1)
	assert.Equal(t, "service", m.GetLabel()[0].GetName())
	assert.Equal(t, "backoffice", m.GetLabel()[0].GetValue())
	assert.GreaterOrEqual(t, m.GetGauge().GetValue(), 1.0)

	hits, ok := byName["redis_pool_hits_total"]
	require.True(t, ok)
	assert.Equal(t, dto.MetricType_COUNTER, hits.GetType())
}
