package models

import "time"

// HistoricalDataPoint is one raw measurement value tagged by parameter
type HistoricalDataPoint struct {
	Timestamp    time.Time `json:"timestamp"`
	ControllerID string    `json:"controller_id"`
	SensorID     string    `json:"sensor_id,omitempty"`
	Parameter    string    `json:"parameter"`
	Value        float64   `json:"value"`
}

// HistoricalQueryResponse is a flat listing of historical values
type HistoricalQueryResponse struct {
	Points      []HistoricalDataPoint `json:"points"`
	TotalPoints int                   `json:"total_points"`
	Filters     HistoricalQueryFilter `json:"filters"`
}

// HistoricalAverageDataPoint is the average of one half-open interval
type HistoricalAverageDataPoint struct {
	IntervalStart     time.Time `json:"interval_start"`
	IntervalEnd       time.Time `json:"interval_end"`
	ControllerID      string    `json:"controller_id"`
	Parameter         string    `json:"parameter"`
	AverageValue      float64   `json:"average_value"`
	MeasurementsCount int       `json:"measurements_count"`
}

// HistoricalAveragesResponse lists interval averages in ascending order
type HistoricalAveragesResponse struct {
	Points          []HistoricalAverageDataPoint `json:"points"`
	IntervalMinutes int                          `json:"interval_minutes"`
	TotalPoints     int                          `json:"total_points"`
	Filters         HistoricalQueryFilter        `json:"filters"`
}

// AllowedAverageIntervals are the accepted averaging intervals in minutes
var AllowedAverageIntervals = []int{15, 30, 60, 120, 360, 720}

// IsAllowedAverageInterval reports whether minutes is an accepted averaging interval
func IsAllowedAverageInterval(minutes int) bool {
	for _, allowed := range AllowedAverageIntervals {
		if allowed == minutes {
			return true
		}
	}
	return false
}
