package monitoring

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itsatony/w4b_v3/server/analytics/internal/errors"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	s, err := NewService(Config{Registerer: prometheus.NewRegistry()})
	require.NoError(t, err)
	return s
}

func TestCounters(t *testing.T) {
	s := newTestService(t)

	s.RecordReport("multi_report")
	s.RecordReport("multi_report")
	s.RecordError("trend_analysis", errors.ErrorTypeInsufficientData)
	s.CacheHit()
	s.CacheMiss()
	s.CacheMiss()
	s.RecordEvent("cache.invalidated", map[string]string{"controller_id": "c1"})

	assert.Equal(t, 2.0, testutil.ToFloat64(s.reports.WithLabelValues("multi_report")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.errors.WithLabelValues("trend_analysis", "insufficient_data")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.cacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(s.cacheLookups.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.events.WithLabelValues("cache.invalidated")))
}

func TestProbeHealth(t *testing.T) {
	s := newTestService(t)

	assert.True(t, s.ProbeHealth(context.Background(), func(ctx context.Context) bool { return true }))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.repositoryUp))

	assert.False(t, s.ProbeHealth(context.Background(), func(ctx context.Context) bool { return false }))
	assert.Equal(t, 0.0, testutil.ToFloat64(s.repositoryUp))
}

func TestDuplicateRegistrationFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewService(Config{Registerer: reg})
	require.NoError(t, err)
	_, err = NewService(Config{Registerer: reg})
	assert.Error(t, err)
}

func TestStartHealthProbeRejectsBadSchedule(t *testing.T) {
	s, err := NewService(Config{Registerer: prometheus.NewRegistry(), HealthProbeSchedule: "whenever"})
	require.NoError(t, err)
	assert.Error(t, s.StartHealthProbe(func(ctx context.Context) bool { return true }))
}

func TestStartHealthProbeProbesImmediately(t *testing.T) {
	s := newTestService(t)
	require.NoError(t, s.StartHealthProbe(func(ctx context.Context) bool { return true }))
	defer s.Stop()
	assert.Equal(t, 1.0, testutil.ToFloat64(s.repositoryUp))
}
