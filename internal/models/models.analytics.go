// FilePath: server/analytics/internal/models/models.analytics.go
package models

import "time"

// MetricResult is one named computed value
type MetricResult struct {
	MetricName   string    `json:"metric_name"`
	Value        float64   `json:"value"`
	Unit         string    `json:"unit"`
	CalculatedAt time.Time `json:"calculated_at"`
	ControllerID string    `json:"controller_id"`
	Description  string    `json:"description,omitempty"`
}

// AnalyticsReport aggregates the metrics computed for one controller
type AnalyticsReport struct {
	ControllerID    string          `json:"controller_id"`
	Metrics         []MetricResult  `json:"metrics"`
	GeneratedAt     time.Time       `json:"generated_at"`
	DataPointsCount int             `json:"data_points_count"`
	FiltersApplied  AnalyticsFilter `json:"filters_applied"`
}

// MetricByName returns the first metric result with the given name
func (r *AnalyticsReport) MetricByName(name string) (MetricResult, bool) {
	for _, m := range r.Metrics {
		if m.MetricName == name {
			return m, true
		}
	}
	return MetricResult{}, false
}

// MultiReportRequest asks for several metrics over several controllers
type MultiReportRequest struct {
	Controllers []string        `json:"controllers"`
	Metrics     []string        `json:"metrics"`
	Filters     AnalyticsFilter `json:"filters"`
}

// MultiReportResponse maps controller ids to their reports.
// ControllerOrder keeps the request order of the controllers that succeeded.
type MultiReportResponse struct {
	Reports          map[string]*AnalyticsReport `json:"reports"`
	ControllerOrder  []string                    `json:"controller_order"`
	GeneratedAt      time.Time                   `json:"generated_at"`
	TotalControllers int                         `json:"total_controllers"`
	TotalMetrics     int                         `json:"total_metrics"`
}

// ReportFor returns the report of a controller if it was produced
func (r *MultiReportResponse) ReportFor(controllerID string) (*AnalyticsReport, bool) {
	report, ok := r.Reports[controllerID]
	return report, ok
}

// TrendDataPoint is one resampled value of a trend
type TrendDataPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
	Interval  string    `json:"interval"`
}

// TrendAnalysis is an ascending series of interval averages for one metric
type TrendAnalysis struct {
	MetricName     string           `json:"metric_name"`
	ControllerID   string           `json:"controller_id"`
	DataPoints     []TrendDataPoint `json:"data_points"`
	Interval       string           `json:"interval"`
	GeneratedAt    time.Time        `json:"generated_at"`
	FiltersApplied AnalyticsFilter  `json:"filters_applied"`
}

func (t *TrendAnalysis) TotalPoints() int {
	return len(t.DataPoints)
}

func (t *TrendAnalysis) AverageValue() float64 {
	if len(t.DataPoints) == 0 {
		return 0
	}
	sum := 0.0
	for _, p := range t.DataPoints {
		sum += p.Value
	}
	return sum / float64(len(t.DataPoints))
}

func (t *TrendAnalysis) MinValue() float64 {
	if len(t.DataPoints) == 0 {
		return 0
	}
	min := t.DataPoints[0].Value
	for _, p := range t.DataPoints[1:] {
		if p.Value < min {
			min = p.Value
		}
	}
	return min
}

func (t *TrendAnalysis) MaxValue() float64 {
	if len(t.DataPoints) == 0 {
		return 0
	}
	max := t.DataPoints[0].Value
	for _, p := range t.DataPoints[1:] {
		if p.Value > max {
			max = p.Value
		}
	}
	return max
}
