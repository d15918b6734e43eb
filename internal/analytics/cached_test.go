package analytics

import (
	"context"
	stderrors "errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itsatony/w4b_v3/server/analytics/internal/cache"
	"github.com/itsatony/w4b_v3/server/analytics/internal/models"
)

type failingCache struct{ sets int }

var errCacheDown = stderrors.New("cache down")

func (f *failingCache) Get(ctx context.Context, key string) (string, bool, error) {
	return "", false, errCacheDown
}
func (f *failingCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	f.sets++
	return errCacheDown
}
func (f *failingCache) Delete(ctx context.Context, key string) error { return errCacheDown }
func (f *failingCache) ClearPattern(ctx context.Context, pattern string) (int, error) {
	return 0, errCacheDown
}
func (f *failingCache) Ping(ctx context.Context) error { return errCacheDown }
func (f *failingCache) Close() error                   { return nil }

// recordingCache remembers the TTL of every stored key
type recordingCache struct {
	*cache.MemoryCache
	ttls map[string]time.Duration
}

func (r *recordingCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	r.ttls[key] = ttl
	return r.MemoryCache.Set(ctx, key, value, ttl)
}

type observerStub struct{ hits, misses int }

func (o *observerStub) CacheHit()  { o.hits++ }
func (o *observerStub) CacheMiss() { o.misses++ }

func newCachedFixture(t *testing.T) (*CachedService, *countingRepo, *recordingCache, *observerStub) {
	t.Helper()
	repo := newCountingRepo(t,
		climate("c1", base, 20, 50),
		climate("c1", base.Add(time.Hour), 22, 50),
		climate("c2", base, 19, 60),
	)
	store := &recordingCache{MemoryCache: cache.NewMemoryCache(), ttls: map[string]time.Duration{}}
	obs := &observerStub{}
	cached := NewCachedService(newTestService(repo), store, obs, 0)
	cached.now = func() time.Time { return base.Add(48 * time.Hour) }
	return cached, repo, store, obs
}

func TestCachedServiceReadThrough(t *testing.T) {
	cached, repo, _, obs := newCachedFixture(t)
	ctx := context.Background()
	filters := models.AnalyticsFilter{StartTime: models.TimePtr(base), EndTime: models.TimePtr(base.Add(2 * time.Hour))}

	first, err := cached.GenerateSingleMetricReport(ctx, "temperature", "c1", filters)
	require.NoError(t, err)
	second, err := cached.GenerateSingleMetricReport(ctx, "temperature", "c1", filters)
	require.NoError(t, err)

	assert.Equal(t, int64(1), repo.calls.Load())
	assert.Equal(t, 1, obs.hits)
	assert.Equal(t, 1, obs.misses)
	assert.Equal(t, len(first.Metrics), len(second.Metrics))
	assert.Equal(t, first.ControllerID, second.ControllerID)
}

func TestCachedServiceRealTimeBypass(t *testing.T) {
	cached, repo, store, obs := newCachedFixture(t)
	ctx := context.Background()
	filters := models.AnalyticsFilter{RealTime: true}

	for i := 0; i < 2; i++ {
		_, err := cached.GenerateSingleMetricReport(ctx, "temperature", "c1", filters)
		require.NoError(t, err)
	}
	assert.Equal(t, int64(2), repo.calls.Load())
	assert.Empty(t, store.ttls)
	assert.Zero(t, obs.hits+obs.misses)
}

func TestCachedServiceTreatsCacheErrorsAsMisses(t *testing.T) {
	repo := newCountingRepo(t, climate("c1", base, 20, 50))
	broken := &failingCache{}
	cached := NewCachedService(newTestService(repo), broken, nil, 0)

	for i := 0; i < 2; i++ {
		report, err := cached.GenerateSingleMetricReport(context.Background(), "temperature", "c1", models.AnalyticsFilter{})
		require.NoError(t, err)
		assert.Equal(t, "c1", report.ControllerID)
	}
	assert.Equal(t, int64(2), repo.calls.Load())
	assert.Equal(t, 2, broken.sets)
}

func TestCachedServiceDoesNotCacheErrors(t *testing.T) {
	cached, repo, store, _ := newCachedFixture(t)

	for i := 0; i < 2; i++ {
		_, err := cached.GenerateSingleMetricReport(context.Background(), "temperature", "nobody", models.AnalyticsFilter{})
		require.Error(t, err)
	}
	assert.Equal(t, int64(2), repo.calls.Load())
	assert.Empty(t, store.ttls)
}

func TestCachedServiceTTLPolicy(t *testing.T) {
	cached, _, store, _ := newCachedFixture(t)
	ctx := context.Background()
	now := cached.now()

	old := models.AnalyticsFilter{EndTime: models.TimePtr(now.Add(-2 * time.Hour))}
	_, err := cached.GenerateSingleMetricReport(ctx, "temperature", "c1", old)
	require.NoError(t, err)

	recent := models.AnalyticsFilter{EndTime: models.TimePtr(now.Add(-30 * time.Minute))}
	_, err = cached.GenerateSingleMetricReport(ctx, "temperature", "c1", recent)
	require.NoError(t, err)

	_, err = cached.GenerateSingleMetricReport(ctx, "temperature", "c1", models.AnalyticsFilter{})
	require.NoError(t, err)

	var ttls []time.Duration
	for _, ttl := range store.ttls {
		ttls = append(ttls, ttl)
	}
	assert.ElementsMatch(t, []time.Duration{cache.TTLMedium, cache.TTLVeryShort, cache.TTLVeryShort}, ttls)
}

func TestCachedServiceKeysAreControllerScoped(t *testing.T) {
	cached, _, store, _ := newCachedFixture(t)
	ctx := context.Background()

	_, err := cached.GenerateSingleMetricReport(ctx, "temperature", "c1", models.AnalyticsFilter{})
	require.NoError(t, err)
	_, err = cached.GenerateMultiReport(ctx, models.MultiReportRequest{Controllers: []string{"c1", "c2"}, Metrics: []string{"temperature"}})
	require.NoError(t, err)

	removed, err := store.ClearPattern(ctx, cache.ControllerPattern("c1"))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	for key := range store.ttls {
		if strings.HasPrefix(key, cache.PrefixMultiReport) {
			assert.Contains(t, key, ":_all:")
		}
	}
}

func TestCachedServiceLatestMeasurement(t *testing.T) {
	repo := newCountingRepo(t, climate("c1", base, 20, 50))
	repo.SetClock(func() time.Time { return base.Add(time.Minute) })
	store := &recordingCache{MemoryCache: cache.NewMemoryCache(), ttls: map[string]time.Duration{}}
	cached := NewCachedService(newTestService(repo), store, nil, 0)
	ctx := context.Background()

	m, err := cached.GetLatestMeasurement(ctx, "c1")
	require.NoError(t, err)
	require.NotNil(t, m)
	m, err = cached.GetLatestMeasurement(ctx, "c1")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, int64(1), repo.calls.Load())

	missing, err := cached.GetLatestMeasurement(ctx, "c9")
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.Len(t, store.ttls, 1)
	for _, ttl := range store.ttls {
		assert.Equal(t, cache.TTLRealTime, ttl)
	}
}
