package resources

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/itsatony/w4b_v3/server/analytics/internal/analytics"
	"github.com/itsatony/w4b_v3/server/analytics/internal/errors"
	"github.com/itsatony/w4b_v3/server/analytics/internal/models"
)

// AnalyticsHandlers encapsulates the report endpoints
type AnalyticsHandlers struct {
	engine analytics.Engine
}

// @Summary Single metric report
// @Description Statistics, derived indicators and trend of one metric for one controller
// @Tags analytics
// @Produce json
// @Param metric path string true "Metric name"
// @Param controller_id query string true "Controller ID"
// @Param start_time query string false "Start time (RFC3339)"
// @Param end_time query string false "End time (RFC3339)"
// @Param limit query int false "Maximum number of measurements"
// @Param real_time query bool false "Bypass the cache"
// @Success 200 {object} models.AnalyticsReport
// @Failure 400 {object} errors.APIError
// @Failure 404 {object} errors.APIError
// @Failure 502 {object} errors.APIError
// @Router /analytics/report/{metric} [get]
func (h *AnalyticsHandlers) GetReport(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFor(r)
	metric := mux.Vars(r)["metric"]

	var q reportQuery
	if err := decodeQuery(r, &q); err != nil {
		respondWithError(w, err, requestID)
		return
	}
	if q.ControllerID == "" {
		respondWithError(w, errors.NewInvalidRequestError("controller_id is required", nil), requestID)
		return
	}
	filters, err := q.filter()
	if err != nil {
		respondWithError(w, err, requestID)
		return
	}

	report, err := h.engine.GenerateSingleMetricReport(r.Context(), metric, q.ControllerID, filters)
	if err != nil {
		respondWithError(w, err, requestID)
		return
	}
	respondWithJSON(w, http.StatusOK, report)
}

// @Summary Multi-controller report
// @Description Reports for several metrics over several controllers. Controllers without data are omitted.
// @Tags analytics
// @Accept json
// @Produce json
// @Param request body models.MultiReportRequest true "Controllers, metrics and filters"
// @Success 200 {object} models.MultiReportResponse
// @Failure 400 {object} errors.APIError
// @Router /analytics/multi-report [post]
func (h *AnalyticsHandlers) MultiReport(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFor(r)

	var req models.MultiReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, errors.NewInvalidRequestError("invalid request body", err), requestID)
		return
	}

	resp, err := h.engine.GenerateMultiReport(r.Context(), req)
	if err != nil {
		respondWithError(w, err, requestID)
		return
	}
	respondWithJSON(w, http.StatusOK, resp)
}

// @Summary Trend analysis
// @Description Interval averages of one metric anchored at start_time
// @Tags analytics
// @Produce json
// @Param metric path string true "Metric name"
// @Param controller_id query string true "Controller ID"
// @Param start_time query string true "Start time (RFC3339)"
// @Param end_time query string true "End time (RFC3339)"
// @Param interval query string false "Resampling interval (15min, 1h, 1d, 1w)"
// @Success 200 {object} models.TrendAnalysis
// @Failure 400 {object} errors.APIError
// @Failure 404 {object} errors.APIError
// @Router /analytics/trends/{metric} [get]
func (h *AnalyticsHandlers) GetTrends(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFor(r)
	metric := mux.Vars(r)["metric"]

	var q trendQuery
	if err := decodeQuery(r, &q); err != nil {
		respondWithError(w, err, requestID)
		return
	}
	if q.ControllerID == "" || q.StartTime == "" || q.EndTime == "" {
		respondWithError(w, errors.NewInvalidRequestError("controller_id, start_time and end_time are required", nil), requestID)
		return
	}
	start, err := ParseTime(q.StartTime)
	if err != nil {
		respondWithError(w, err, requestID)
		return
	}
	end, err := ParseTime(q.EndTime)
	if err != nil {
		respondWithError(w, err, requestID)
		return
	}

	trend, err := h.engine.GenerateTrendAnalysis(r.Context(), metric, q.ControllerID, *start, *end, q.Interval)
	if err != nil {
		respondWithError(w, err, requestID)
		return
	}
	respondWithJSON(w, http.StatusOK, trend)
}

// @Summary Comprehensive report
// @Description Distribution, anomalies, regression, seasonality and cross-controller correlation
// @Tags analytics
// @Accept json
// @Produce json
// @Param request body models.ComprehensiveReportRequest true "Controllers, metrics and filters"
// @Success 200 {object} models.ComprehensiveReport
// @Failure 400 {object} errors.APIError
// @Failure 404 {object} errors.APIError
// @Router /analytics/comprehensive [post]
func (h *AnalyticsHandlers) ComprehensiveReport(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFor(r)

	var req models.ComprehensiveReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, errors.NewInvalidRequestError("invalid request body", err), requestID)
		return
	}

	report, err := h.engine.GenerateComprehensiveReport(r.Context(), req)
	if err != nil {
		respondWithError(w, err, requestID)
		return
	}
	respondWithJSON(w, http.StatusOK, report)
}

// @Summary Latest measurement
// @Tags analytics
// @Produce json
// @Param controller_id path string true "Controller ID"
// @Success 200 {object} models.Measurement
// @Failure 404 {object} errors.APIError
// @Router /analytics/latest/{controller_id} [get]
func (h *AnalyticsHandlers) GetLatest(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFor(r)
	controllerID := mux.Vars(r)["controller_id"]

	m, err := h.engine.GetLatestMeasurement(r.Context(), controllerID)
	if err != nil {
		respondWithError(w, err, requestID)
		return
	}
	if m == nil {
		respondWithError(w, errors.NewNotFoundError("no recent measurement for controller "+controllerID, nil), requestID)
		return
	}
	respondWithJSON(w, http.StatusOK, m)
}

// @Summary Supported metrics
// @Tags analytics
// @Produce json
// @Success 200 {object} map[string][]string
// @Router /analytics/metrics [get]
func (h *AnalyticsHandlers) SupportedMetrics(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string][]string{"metrics": h.engine.SupportedMetrics()})
}
