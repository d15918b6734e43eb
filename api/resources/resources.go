// FilePath: server/analytics/api/resources/resources.go
package resources

import (
	"context"
	"net/http"

	"github.com/itsatony/w4b_v3/server/analytics/internal/analytics"
)

// Invalidator drops cached results of one controller or of all of them
type Invalidator interface {
	InvalidateController(ctx context.Context, controllerID string) (int, error)
	InvalidateAll(ctx context.Context) (int, error)
}

// Resources holds all HTTP resource handlers
type Resources struct {
	Analytics   *AnalyticsHandlers
	Historical  *HistoricalHandlers
	Cache       *CacheHandlers
	HealthCheck func(w http.ResponseWriter, r *http.Request)
	Metrics     func(w http.ResponseWriter, r *http.Request)
}

// NewResources creates a new Resources instance. invalidator may be nil when caching is off.
func NewResources(engine analytics.Engine, invalidator Invalidator) *Resources {
	return &Resources{
		Analytics:   &AnalyticsHandlers{engine: engine},
		Historical:  &HistoricalHandlers{engine: engine},
		Cache:       &CacheHandlers{invalidator: invalidator},
		HealthCheck: healthHandler(engine),
	}
}

// SetHealthCheck sets the health check handler
func (r *Resources) SetHealthCheck(h func(w http.ResponseWriter, r *http.Request)) {
	r.HealthCheck = h
}

// SetMetrics sets the metrics handler
func (r *Resources) SetMetrics(h func(w http.ResponseWriter, r *http.Request)) {
	r.Metrics = h
}
