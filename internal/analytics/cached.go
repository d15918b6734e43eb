// FilePath: server/analytics/internal/analytics/cached.go
package analytics

import (
	"context"
	"time"

	nuts "github.com/vaudience/go-nuts"

	"github.com/itsatony/w4b_v3/server/analytics/internal/cache"
	"github.com/itsatony/w4b_v3/server/analytics/internal/models"
)

// realTimeAdjacent is how close to now a window end must be for the short TTL
const realTimeAdjacent = time.Hour

type noopObserver struct{}

func (noopObserver) CacheHit()  {}
func (noopObserver) CacheMiss() {}

// CachedService is a read-through, write-through cache in front of an Engine.
// Cache failures are treated as misses.
type CachedService struct {
	next       Engine
	cache      cache.Service
	observer   cache.Observer
	defaultTTL time.Duration
	now        func() time.Time
}

// NewCachedService wraps next. A zero defaultTTL selects cache.TTLMedium.
func NewCachedService(next Engine, c cache.Service, observer cache.Observer, defaultTTL time.Duration) *CachedService {
	if observer == nil {
		observer = noopObserver{}
	}
	if defaultTTL <= 0 {
		defaultTTL = cache.TTLMedium
	}
	return &CachedService{next: next, cache: c, observer: observer, defaultTTL: defaultTTL, now: time.Now}
}

// ttlFor shortens the TTL of windows that are open or end within the last hour
func (c *CachedService) ttlFor(end *time.Time) time.Duration {
	if end == nil || c.now().Sub(*end) < realTimeAdjacent {
		return cache.TTLVeryShort
	}
	return c.defaultTTL
}

func (c *CachedService) lookup(ctx context.Context, key string, dest any) bool {
	found, err := cache.GetJSON(ctx, c.cache, key, dest)
	if err != nil {
		nuts.L.Debugf("[Cache] Lookup of %s failed, treating as miss: %v", key, err)
		found = false
	}
	if found {
		c.observer.CacheHit()
	} else {
		c.observer.CacheMiss()
	}
	return found
}

func (c *CachedService) store(ctx context.Context, key string, value any, ttl time.Duration) {
	if err := cache.SetJSON(ctx, c.cache, key, value, ttl); err != nil {
		nuts.L.Debugf("[Cache] Store of %s failed: %v", key, err)
	}
}

func (c *CachedService) SupportedMetrics() []string         { return c.next.SupportedMetrics() }
func (c *CachedService) IsMetricSupported(name string) bool { return c.next.IsMetricSupported(name) }
func (c *CachedService) HealthCheck(ctx context.Context) bool {
	return c.next.HealthCheck(ctx)
}

func filterParams(f models.AnalyticsFilter) map[string]any {
	return map[string]any{
		"start_time": f.StartTime,
		"end_time":   f.EndTime,
		"limit":      f.Limit,
	}
}

func (c *CachedService) GenerateSingleMetricReport(ctx context.Context, metric, controllerID string, filters models.AnalyticsFilter) (*models.AnalyticsReport, error) {
	if filters.RealTime {
		return c.next.GenerateSingleMetricReport(ctx, metric, controllerID, filters)
	}
	params := filterParams(filters)
	params["metric"] = metric
	key := cache.GenerateKey(cache.ScopedPrefix(cache.PrefixSingleMetric, controllerID), params)

	var cached models.AnalyticsReport
	if c.lookup(ctx, key, &cached) {
		return &cached, nil
	}
	report, err := c.next.GenerateSingleMetricReport(ctx, metric, controllerID, filters)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, report, c.ttlFor(filters.EndTime))
	return report, nil
}

func (c *CachedService) GenerateMultiReport(ctx context.Context, req models.MultiReportRequest) (*models.MultiReportResponse, error) {
	if req.Filters.RealTime {
		return c.next.GenerateMultiReport(ctx, req)
	}
	params := filterParams(req.Filters)
	params["controllers"] = req.Controllers
	params["metrics"] = req.Metrics
	key := cache.GenerateKey(cache.ScopedPrefix(cache.PrefixMultiReport, ""), params)

	var cached models.MultiReportResponse
	if c.lookup(ctx, key, &cached) {
		return &cached, nil
	}
	resp, err := c.next.GenerateMultiReport(ctx, req)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, resp, c.ttlFor(req.Filters.EndTime))
	return resp, nil
}

func (c *CachedService) GenerateTrendAnalysis(ctx context.Context, metric, controllerID string, start, end time.Time, interval string) (*models.TrendAnalysis, error) {
	key := cache.GenerateKey(cache.ScopedPrefix(cache.PrefixTrendAnalysis, controllerID), map[string]any{
		"metric":     metric,
		"start_time": start,
		"end_time":   end,
		"interval":   interval,
	})
	var cached models.TrendAnalysis
	if c.lookup(ctx, key, &cached) {
		return &cached, nil
	}
	trend, err := c.next.GenerateTrendAnalysis(ctx, metric, controllerID, start, end, interval)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, trend, c.ttlFor(&end))
	return trend, nil
}

func historicalParams(f models.HistoricalQueryFilter) (string, map[string]any) {
	scope := ""
	if len(f.Controllers) == 0 {
		scope = f.ControllerID
	}
	return scope, map[string]any{
		"controller_id": f.ControllerID,
		"controllers":   f.Controllers,
		"sensor_id":     f.SensorID,
		"zone":          f.Zone,
		"parameter":     f.Parameter,
		"start_time":    f.StartTime,
		"end_time":      f.EndTime,
		"limit":         f.Limit,
	}
}

func (c *CachedService) QueryHistoricalData(ctx context.Context, filters models.HistoricalQueryFilter) (*models.HistoricalQueryResponse, error) {
	scope, params := historicalParams(filters)
	key := cache.GenerateKey(cache.ScopedPrefix(cache.PrefixHistorical, scope), params)

	var cached models.HistoricalQueryResponse
	if c.lookup(ctx, key, &cached) {
		return &cached, nil
	}
	resp, err := c.next.QueryHistoricalData(ctx, filters)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, resp, c.ttlFor(filters.EndTime))
	return resp, nil
}

func (c *CachedService) QueryHistoricalAverages(ctx context.Context, filters models.HistoricalQueryFilter, intervalMinutes int) (*models.HistoricalAveragesResponse, error) {
	scope, params := historicalParams(filters)
	params["average_interval"] = intervalMinutes
	key := cache.GenerateKey(cache.ScopedPrefix(cache.PrefixHistoricalAverages, scope), params)

	var cached models.HistoricalAveragesResponse
	if c.lookup(ctx, key, &cached) {
		return &cached, nil
	}
	resp, err := c.next.QueryHistoricalAverages(ctx, filters, intervalMinutes)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, resp, c.ttlFor(filters.EndTime))
	return resp, nil
}

func (c *CachedService) GetLatestMeasurement(ctx context.Context, controllerID string) (*models.Measurement, error) {
	key := cache.GenerateKey(cache.ScopedPrefix(cache.PrefixLatest, controllerID), nil)

	var cached models.Measurement
	if c.lookup(ctx, key, &cached) {
		return &cached, nil
	}
	m, err := c.next.GetLatestMeasurement(ctx, controllerID)
	if err != nil || m == nil {
		return m, err
	}
	c.store(ctx, key, m, cache.TTLRealTime)
	return m, nil
}

func (c *CachedService) GenerateComprehensiveReport(ctx context.Context, req models.ComprehensiveReportRequest) (*models.ComprehensiveReport, error) {
	if req.Filters.RealTime {
		return c.next.GenerateComprehensiveReport(ctx, req)
	}
	params := filterParams(req.Filters)
	params["controllers"] = req.Controllers
	params["metrics"] = req.Metrics
	key := cache.GenerateKey(cache.ScopedPrefix(cache.PrefixComprehensive, ""), params)

	var cached models.ComprehensiveReport
	if c.lookup(ctx, key, &cached) {
		return &cached, nil
	}
	report, err := c.next.GenerateComprehensiveReport(ctx, req)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, report, c.ttlFor(req.Filters.EndTime))
	return report, nil
}
