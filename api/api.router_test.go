package api

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itsatony/w4b_v3/server/analytics/api/middleware"
	"github.com/itsatony/w4b_v3/server/analytics/api/resources"
	"github.com/itsatony/w4b_v3/server/analytics/internal/analytics"
	"github.com/itsatony/w4b_v3/server/analytics/internal/models"
	"github.com/itsatony/w4b_v3/server/analytics/internal/repository"
	"github.com/itsatony/w4b_v3/server/analytics/internal/repository/memory"
)

var base = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

type brokenRepo struct{ *memory.MeasurementRepo }

func (brokenRepo) GetMeasurements(ctx context.Context, q repository.MeasurementQuery) ([]*models.Measurement, error) {
	return nil, stderrors.New("connection refused")
}

func (brokenRepo) HealthCheck(ctx context.Context) bool { return false }

type invalidatorStub struct {
	ids     []string
	flushes int
}

func (s *invalidatorStub) InvalidateController(ctx context.Context, id string) (int, error) {
	s.ids = append(s.ids, id)
	return 2, nil
}

func (s *invalidatorStub) InvalidateAll(ctx context.Context) (int, error) {
	s.flushes++
	return 5, nil
}

func newTestRouter(t *testing.T, repo repository.MeasurementRepository, inv resources.Invalidator) *Router {
	t.Helper()
	engine := analytics.New(repo, analytics.Options{})
	return NewRouter(resources.NewResources(engine, inv), nil)
}

func seededRepo(t *testing.T) *memory.MeasurementRepo {
	t.Helper()
	repo := memory.NewMeasurementRepository(10 * time.Minute)
	require.NoError(t, repo.Add(
		models.Measurement{ControllerID: "c1", Timestamp: base, Temperature: models.Float(20), AirHumidity: models.Float(50)},
		models.Measurement{ControllerID: "c1", Timestamp: base.Add(time.Hour), Temperature: models.Float(24), AirHumidity: models.Float(50)},
	))
	return repo
}

func do(t *testing.T, h http.Handler, method, target, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var decoded map[string]interface{}
	_ = json.Unmarshal(rec.Body.Bytes(), &decoded)
	return rec, decoded
}

func TestReportEndpoint(t *testing.T) {
	r := newTestRouter(t, seededRepo(t), nil)

	rec, body := do(t, r, http.MethodGet, "/api/v1/analytics/report/temperature?controller_id=c1&start_time=2024-05-01T00:00:00Z", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "c1", body["controller_id"])
	assert.EqualValues(t, 2, body["data_points_count"])
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))
}

func TestErrorMapping(t *testing.T) {
	r := newTestRouter(t, seededRepo(t), nil)

	cases := []struct {
		name   string
		target string
		code   int
		kind   string
	}{
		{"invalid metric", "/api/v1/analytics/report/pressure?controller_id=c1", http.StatusBadRequest, "invalid_metric"},
		{"missing controller", "/api/v1/analytics/report/temperature", http.StatusBadRequest, "invalid_request"},
		{"bad timestamp", "/api/v1/analytics/report/temperature?controller_id=c1&start_time=yesterday", http.StatusBadRequest, "invalid_request"},
		{"bad limit", "/api/v1/analytics/report/temperature?controller_id=c1&limit=many", http.StatusBadRequest, "invalid_request"},
		{"no data", "/api/v1/analytics/report/temperature?controller_id=c9", http.StatusNotFound, "insufficient_data"},
		{"bad average interval", "/api/v1/analytics/historical/averages?average_interval=7", http.StatusBadRequest, "invalid_request"},
		{"trend without window", "/api/v1/analytics/trends/temperature?controller_id=c1", http.StatusBadRequest, "invalid_request"},
		{"no latest", "/api/v1/analytics/latest/c9", http.StatusNotFound, "not_found"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, body := do(t, r, http.MethodGet, tc.target, "")
			assert.Equal(t, tc.code, rec.Code)
			assert.Equal(t, tc.kind, body["type"])
			assert.NotEmpty(t, body["request_id"])
		})
	}
}

func TestInvalidMetricListsSupportedMetrics(t *testing.T) {
	r := newTestRouter(t, seededRepo(t), nil)

	_, body := do(t, r, http.MethodGet, "/api/v1/analytics/report/pressure?controller_id=c1", "")
	details, ok := body["details"].(map[string]interface{})
	require.True(t, ok)
	assert.Len(t, details["supported_metrics"], 4)
}

func TestRepositoryFailureIsBadGateway(t *testing.T) {
	r := newTestRouter(t, brokenRepo{memory.NewMeasurementRepository(0)}, nil)

	rec, body := do(t, r, http.MethodGet, "/api/v1/analytics/report/temperature?controller_id=c1", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "repository", body["type"])

	rec, body = do(t, r, http.MethodGet, "/api/v1/analytics/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "degraded", body["status"])
}

func TestMultiReportEndpoint(t *testing.T) {
	r := newTestRouter(t, seededRepo(t), nil)

	rec, body := do(t, r, http.MethodPost, "/api/v1/analytics/multi-report",
		`{"controllers":["c1","c2"],"metrics":["temperature"],"filters":{}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, body["total_controllers"])
	reports := body["reports"].(map[string]interface{})
	assert.Contains(t, reports, "c1")
	assert.NotContains(t, reports, "c2")

	rec, _ = do(t, r, http.MethodPost, "/api/v1/analytics/multi-report", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTrendEndpoint(t *testing.T) {
	r := newTestRouter(t, seededRepo(t), nil)

	rec, body := do(t, r, http.MethodGet,
		"/api/v1/analytics/trends/temperature?controller_id=c1&start_time=2024-05-01T10:00:00Z&end_time=2024-05-01T12:00:00Z&interval=1h", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["data_points"], 2)
}

func TestHistoricalEndpoints(t *testing.T) {
	r := newTestRouter(t, seededRepo(t), nil)

	rec, body := do(t, r, http.MethodGet, "/api/v1/analytics/historical?controllers=c1,c2&parameter=temperature", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, body["total_points"])

	rec, body = do(t, r, http.MethodGet, "/api/v1/analytics/historical/averages?controller_id=c1&parameter=temperature", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 60, body["interval_minutes"])
}

func TestSupportedMetricsAndHealth(t *testing.T) {
	r := newTestRouter(t, seededRepo(t), nil)

	rec, body := do(t, r, http.MethodGet, "/api/v1/analytics/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["metrics"], 4)

	rec, body = do(t, r, http.MethodGet, "/api/v1/analytics/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", body["status"])
}

func TestCacheInvalidationEndpoint(t *testing.T) {
	rec, body := do(t, newTestRouter(t, seededRepo(t), nil), http.MethodDelete, "/api/v1/analytics/cache/c1", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "service_unavailable", body["type"])

	inv := &invalidatorStub{}
	rec, body = do(t, newTestRouter(t, seededRepo(t), inv), http.MethodDelete, "/api/v1/analytics/cache/c1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, body["removed"])
	assert.Equal(t, []string{"c1"}, inv.ids)
	assert.Zero(t, inv.flushes)
}

func TestCacheFlushEndpoint(t *testing.T) {
	rec, body := do(t, newTestRouter(t, seededRepo(t), nil), http.MethodDelete, "/api/v1/analytics/cache", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "service_unavailable", body["type"])

	inv := &invalidatorStub{}
	rec, body = do(t, newTestRouter(t, seededRepo(t), inv), http.MethodDelete, "/api/v1/analytics/cache", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 5, body["removed"])
	assert.Equal(t, 1, inv.flushes)
	assert.Empty(t, inv.ids)
}

func TestHistoricalAveragesIntervalParameter(t *testing.T) {
	r := newTestRouter(t, seededRepo(t), nil)

	rec, body := do(t, r, http.MethodGet, "/api/v1/analytics/historical/averages?controller_id=c1&average_interval=0", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_request", body["type"])

	rec, body = do(t, r, http.MethodGet, "/api/v1/analytics/historical/averages?controller_id=c1&average_interval=15", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 15, body["interval_minutes"])
}

func TestDocsEndpoint(t *testing.T) {
	rec, body := do(t, newTestRouter(t, seededRepo(t), nil), http.MethodGet, "/api/v1/docs/doc.json", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2.0", body["swagger"])
}
