package resources

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/schema"
	nuts "github.com/vaudience/go-nuts"

	"github.com/itsatony/w4b_v3/server/analytics/api/middleware"
	"github.com/itsatony/w4b_v3/server/analytics/internal/errors"
	"github.com/itsatony/w4b_v3/server/analytics/internal/models"
)

var queryDecoder = newQueryDecoder()

func newQueryDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}

// reportQuery holds the filter parameters shared by report endpoints
type reportQuery struct {
	ControllerID string `schema:"controller_id"`
	StartTime    string `schema:"start_time"`
	EndTime      string `schema:"end_time"`
	Limit        int    `schema:"limit"`
	RealTime     bool   `schema:"real_time"`
}

type trendQuery struct {
	ControllerID string `schema:"controller_id"`
	StartTime    string `schema:"start_time"`
	EndTime      string `schema:"end_time"`
	Interval     string `schema:"interval"`
}

type historicalQuery struct {
	ControllerID    string   `schema:"controller_id"`
	Controllers     []string `schema:"controllers"`
	SensorID        string   `schema:"sensor_id"`
	Zone            string   `schema:"zone"`
	Parameter       string   `schema:"parameter"`
	StartTime       string   `schema:"start_time"`
	EndTime         string   `schema:"end_time"`
	Limit           int      `schema:"limit"`
	AverageInterval *int     `schema:"average_interval"`
}

var timeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

// ParseTime accepts RFC3339 (with offset or a trailing Z), a zone-less
// timestamp read as UTC, or a bare date.
func ParseTime(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, errors.NewInvalidRequestError(fmt.Sprintf("invalid timestamp '%s', expected RFC3339", value), nil)
}

func decodeQuery(r *http.Request, dst any) error {
	if err := queryDecoder.Decode(dst, r.URL.Query()); err != nil {
		return errors.NewInvalidRequestError("invalid query parameters", err)
	}
	return nil
}

func (q reportQuery) filter() (models.AnalyticsFilter, error) {
	start, err := ParseTime(q.StartTime)
	if err != nil {
		return models.AnalyticsFilter{}, err
	}
	end, err := ParseTime(q.EndTime)
	if err != nil {
		return models.AnalyticsFilter{}, err
	}
	return models.AnalyticsFilter{StartTime: start, EndTime: end, Limit: q.Limit, RealTime: q.RealTime}, nil
}

func (q historicalQuery) filter() (models.HistoricalQueryFilter, error) {
	start, err := ParseTime(q.StartTime)
	if err != nil {
		return models.HistoricalQueryFilter{}, err
	}
	end, err := ParseTime(q.EndTime)
	if err != nil {
		return models.HistoricalQueryFilter{}, err
	}
	return models.HistoricalQueryFilter{
		ControllerID: q.ControllerID,
		Controllers:  splitList(q.Controllers),
		SensorID:     q.SensorID,
		Zone:         q.Zone,
		Parameter:    q.Parameter,
		StartTime:    start,
		EndTime:      end,
		Limit:        q.Limit,
	}, nil
}

// splitList accepts both repeated and comma separated values
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// requestIDFor returns the id assigned by the middleware, or a fresh one
func requestIDFor(r *http.Request) string {
	if id := middleware.RequestIDFrom(r.Context()); id != "" {
		return id
	}
	return nuts.NID("req", 12)
}

func respondWithError(w http.ResponseWriter, err error, requestID string) {
	apiErr, ok := errors.AsAPIError(err)
	if !ok {
		apiErr = errors.NewInternalError("unexpected error", err)
	}
	apiErr.WithRequestID(requestID)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apiErr.Code)
	json.NewEncoder(w).Encode(apiErr)
	if apiErr.Code >= http.StatusInternalServerError {
		nuts.L.Errorf("[API] %s", apiErr.Error())
	} else {
		nuts.L.Debugf("[API] %s", apiErr.Error())
	}
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}
