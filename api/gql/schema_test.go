package gql

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itsatony/w4b_v3/server/analytics/internal/analytics"
	"github.com/itsatony/w4b_v3/server/analytics/internal/models"
	"github.com/itsatony/w4b_v3/server/analytics/internal/repository/memory"
)

var base = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

type gqlResponse struct {
	Data   map[string]interface{}   `json:"data"`
	Errors []map[string]interface{} `json:"errors"`
}

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	repo := memory.NewMeasurementRepository(10 * time.Minute)
	repo.SetClock(func() time.Time { return base.Add(90 * time.Minute) })
	require.NoError(t, repo.Add(
		models.Measurement{ControllerID: "c1", Timestamp: base, Temperature: models.Float(20), AirHumidity: models.Float(50)},
		models.Measurement{ControllerID: "c1", Timestamp: base.Add(85 * time.Minute), Temperature: models.Float(24), AirHumidity: models.Float(50)},
	))
	schema, err := NewSchema(analytics.New(repo, analytics.Options{}))
	require.NoError(t, err)
	return NewHandler(schema)
}

func query(t *testing.T, h http.Handler, q string, vars map[string]interface{}) gqlResponse {
	t.Helper()
	payload, err := json.Marshal(Request{Query: q, Variables: vars})
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(string(payload))))
	require.Equal(t, http.StatusOK, rec.Code)
	var resp gqlResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestSupportedMetricsAndHealth(t *testing.T) {
	resp := query(t, newTestHandler(t), `{ supportedMetrics analyticsHealth }`, nil)
	require.Empty(t, resp.Errors)
	assert.Len(t, resp.Data["supportedMetrics"], 4)
	assert.Equal(t, "healthy", resp.Data["analyticsHealth"])
}

func TestSingleMetricReport(t *testing.T) {
	resp := query(t, newTestHandler(t), `query($id: String!) {
		singleMetricReport(metric: "temperature", controllerId: $id) {
			controllerId dataPointsCount metrics { metricName value unit }
		}
	}`, map[string]interface{}{"id": "c1"})
	require.Empty(t, resp.Errors)

	report := resp.Data["singleMetricReport"].(map[string]interface{})
	assert.Equal(t, "c1", report["controllerId"])
	assert.EqualValues(t, 2, report["dataPointsCount"])
	first := report["metrics"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "temperature_avg", first["metricName"])
	assert.InDelta(t, 22.0, first["value"], 1e-9)
}

func TestTrendAnalysisAndLatest(t *testing.T) {
	resp := query(t, newTestHandler(t), `{
		trendAnalysis(metric: "temperature", controllerId: "c1", startTime: "2024-05-01T10:00:00Z", endTime: "2024-05-01T12:00:00Z") {
			interval totalPoints maxValue dataPoints { timestamp value }
		}
		latestMeasurement(controllerId: "c1") { controllerId temperature }
	}`, nil)
	require.Empty(t, resp.Errors)

	trend := resp.Data["trendAnalysis"].(map[string]interface{})
	assert.Equal(t, "1h", trend["interval"])
	assert.EqualValues(t, 2, trend["totalPoints"])
	assert.InDelta(t, 24.0, trend["maxValue"], 1e-9)

	latest := resp.Data["latestMeasurement"].(map[string]interface{})
	assert.InDelta(t, 24.0, latest["temperature"], 1e-9)
}

func TestHistoricalQueries(t *testing.T) {
	resp := query(t, newTestHandler(t), `{
		historicalData(controllerId: "c1", parameter: "temperature") { totalPoints points { parameter value } }
		historicalAverages(controllerId: "c1", parameter: "temperature", averageInterval: 120) { intervalMinutes totalPoints }
	}`, nil)
	require.Empty(t, resp.Errors)

	hist := resp.Data["historicalData"].(map[string]interface{})
	assert.EqualValues(t, 2, hist["totalPoints"])
	avg := resp.Data["historicalAverages"].(map[string]interface{})
	assert.EqualValues(t, 120, avg["intervalMinutes"])
}

func TestErrorsAreReported(t *testing.T) {
	resp := query(t, newTestHandler(t), `{ singleMetricReport(metric: "co2", controllerId: "c1") { controllerId } }`, nil)
	require.NotEmpty(t, resp.Errors)
	assert.Contains(t, resp.Errors[0]["message"], "not supported")
}

func TestMultiMetricReport(t *testing.T) {
	resp := query(t, newTestHandler(t), `{
		multiMetricReport(controllers: ["c1", "c2"], metrics: ["temperature"]) { totalControllers reports { controllerId } }
	}`, nil)
	require.Empty(t, resp.Errors)
	multi := resp.Data["multiMetricReport"].(map[string]interface{})
	assert.EqualValues(t, 2, multi["totalControllers"])
	assert.Len(t, multi["reports"], 1)
}

func TestCamelCase(t *testing.T) {
	assert.Equal(t, "controllerId", camelCase("controller_id"))
	assert.Equal(t, "dataPointsCount", camelCase("data_points_count"))
	assert.Equal(t, "value", camelCase("value"))
}
