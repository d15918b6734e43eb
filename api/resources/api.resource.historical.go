package resources

import (
	"net/http"

	"github.com/itsatony/w4b_v3/server/analytics/internal/analytics"
)

// defaultAverageInterval in minutes
const defaultAverageInterval = 60

// HistoricalHandlers serves raw and averaged measurement exports
type HistoricalHandlers struct {
	engine analytics.Engine
}

// @Summary Historical data
// @Description Raw measurement values, one point per present parameter, oldest first
// @Tags historical
// @Produce json
// @Param controller_id query string false "Controller ID"
// @Param controllers query []string false "Controller IDs (repeated or comma separated)"
// @Param sensor_id query string false "Sensor ID"
// @Param zone query string false "Zone"
// @Param parameter query string false "Metric name"
// @Param start_time query string false "Start time (RFC3339)"
// @Param end_time query string false "End time (RFC3339)"
// @Param limit query int false "Maximum number of measurements"
// @Success 200 {object} models.HistoricalQueryResponse
// @Failure 400 {object} errors.APIError
// @Router /analytics/historical [get]
func (h *HistoricalHandlers) GetHistorical(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFor(r)

	var q historicalQuery
	if err := decodeQuery(r, &q); err != nil {
		respondWithError(w, err, requestID)
		return
	}
	filters, err := q.filter()
	if err != nil {
		respondWithError(w, err, requestID)
		return
	}

	resp, err := h.engine.QueryHistoricalData(r.Context(), filters)
	if err != nil {
		respondWithError(w, err, requestID)
		return
	}
	respondWithJSON(w, http.StatusOK, resp)
}

// @Summary Historical averages
// @Description Interval averages per controller and parameter, aligned to start_time (or the epoch without one)
// @Tags historical
// @Produce json
// @Param average_interval query int false "Interval in minutes (15, 30, 60, 120, 360, 720)"
// @Param controller_id query string false "Controller ID"
// @Param parameter query string false "Metric name"
// @Param start_time query string false "Start time (RFC3339)"
// @Param end_time query string false "End time (RFC3339)"
// @Success 200 {object} models.HistoricalAveragesResponse
// @Failure 400 {object} errors.APIError
// @Router /analytics/historical/averages [get]
func (h *HistoricalHandlers) GetHistoricalAverages(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFor(r)

	var q historicalQuery
	if err := decodeQuery(r, &q); err != nil {
		respondWithError(w, err, requestID)
		return
	}
	filters, err := q.filter()
	if err != nil {
		respondWithError(w, err, requestID)
		return
	}
	interval := defaultAverageInterval
	if q.AverageInterval != nil {
		interval = *q.AverageInterval
	}

	resp, err := h.engine.QueryHistoricalAverages(r.Context(), filters, interval)
	if err != nil {
		respondWithError(w, err, requestID)
		return
	}
	respondWithJSON(w, http.StatusOK, resp)
}
