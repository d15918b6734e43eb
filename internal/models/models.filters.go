package models

import (
	"time"

	"github.com/itsatony/w4b_v3/server/analytics/internal/errors"
)

// AnalyticsFilter constrains the measurements used for a report
type AnalyticsFilter struct {
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	Limit     int        `json:"limit,omitempty"`
	// RealTime makes the caching layer skip both lookup and store
	RealTime bool `json:"real_time,omitempty"`
}

// Validate rejects malformed windows and limits
func (f AnalyticsFilter) Validate() error {
	if f.Limit < 0 {
		return errors.NewInvalidRequestError("limit must be a positive integer", nil)
	}
	return validateRange(f.StartTime, f.EndTime)
}

// HistoricalQueryFilter selects raw measurement values for export
type HistoricalQueryFilter struct {
	ControllerID string     `json:"controller_id,omitempty"`
	Controllers  []string   `json:"controllers,omitempty"`
	SensorID     string     `json:"sensor_id,omitempty"`
	Zone         string     `json:"zone,omitempty"`
	Parameter    string     `json:"parameter,omitempty"`
	StartTime    *time.Time `json:"start_time,omitempty"`
	EndTime      *time.Time `json:"end_time,omitempty"`
	Limit        int        `json:"limit,omitempty"`
}

// Validate checks the parameter name and the window
func (f HistoricalQueryFilter) Validate() error {
	if f.Parameter != "" {
		if _, err := ParseMetric(f.Parameter); err != nil {
			return err
		}
	}
	if f.Limit < 0 {
		return errors.NewInvalidRequestError("limit must be a positive integer", nil)
	}
	return validateRange(f.StartTime, f.EndTime)
}

// Metrics returns the candidate metrics a historical query projects
func (f HistoricalQueryFilter) Metrics() []Metric {
	if f.Parameter != "" {
		return []Metric{Metric(f.Parameter)}
	}
	return SupportedMetrics
}

func validateRange(start, end *time.Time) error {
	if start != nil && end != nil && start.After(*end) {
		return errors.NewInvalidRequestError("start_time must be before end_time", nil)
	}
	return nil
}

// TimePtr returns a pointer to t
func TimePtr(t time.Time) *time.Time {
	return &t
}
