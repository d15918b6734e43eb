package resources

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	nuts "github.com/vaudience/go-nuts"

	"github.com/itsatony/w4b_v3/server/analytics/internal/analytics"
	"github.com/itsatony/w4b_v3/server/analytics/internal/errors"
)

// HealthResponse is returned by the health endpoint
type HealthResponse struct {
	Status    string    `json:"status"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

// CacheHandlers exposes cache invalidation
type CacheHandlers struct {
	invalidator Invalidator
}

// @Summary Invalidate cached results of a controller
// @Tags cache
// @Produce json
// @Param controller_id path string true "Controller ID"
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} errors.APIError
// @Router /analytics/cache/{controller_id} [delete]
func (h *CacheHandlers) Invalidate(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFor(r)
	controllerID := mux.Vars(r)["controller_id"]

	if h.invalidator == nil {
		respondWithError(w, errors.NewUnavailableError("caching is disabled", nil), requestID)
		return
	}
	removed, err := h.invalidator.InvalidateController(r.Context(), controllerID)
	if err != nil {
		respondWithError(w, errors.NewInternalError("failed to invalidate cache", err), requestID)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"controller_id": controllerID,
		"removed":       removed,
	})
}

// @Summary Flush all cached analytics results
// @Tags cache
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} errors.APIError
// @Router /analytics/cache [delete]
func (h *CacheHandlers) Flush(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFor(r)

	if h.invalidator == nil {
		respondWithError(w, errors.NewUnavailableError("caching is disabled", nil), requestID)
		return
	}
	removed, err := h.invalidator.InvalidateAll(r.Context())
	if err != nil {
		respondWithError(w, errors.NewInternalError("failed to flush cache", err), requestID)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"removed": removed,
	})
}

// @Summary Health check
// @Tags system
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /analytics/health [get]
func healthHandler(engine analytics.Engine) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := HealthResponse{Status: "healthy", Version: nuts.GetVersion(), Timestamp: time.Now().UTC()}
		code := http.StatusOK
		if !engine.HealthCheck(r.Context()) {
			resp.Status = "degraded"
			code = http.StatusServiceUnavailable
		}
		respondWithJSON(w, code, resp)
	}
}
