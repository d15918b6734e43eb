package models

import "time"

// ComprehensiveReportRequest asks for the heavy statistical report
type ComprehensiveReportRequest struct {
	Controllers []string        `json:"controllers"`
	Metrics     []string        `json:"metrics"`
	Filters     AnalyticsFilter `json:"filters"`
}

// Anomaly is a reading outside the Tukey fences of its series
type Anomaly struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// SeriesStatistics is the full statistical profile of one controller metric series
type SeriesStatistics struct {
	Metric          string    `json:"metric"`
	Count           int       `json:"count"`
	Mean            float64   `json:"mean"`
	Min             float64   `json:"min"`
	Max             float64   `json:"max"`
	StdDev          float64   `json:"std_dev"`
	P25             float64   `json:"p25"`
	Median          float64   `json:"median"`
	P75             float64   `json:"p75"`
	P90             float64   `json:"p90"`
	IQR             float64   `json:"iqr"`
	Skewness        float64   `json:"skewness"`
	Kurtosis        float64   `json:"kurtosis"`
	LowerFence      float64   `json:"lower_fence"`
	UpperFence      float64   `json:"upper_fence"`
	Anomalies       []Anomaly `json:"anomalies"`
	SlopePerHour    float64   `json:"slope_per_hour"`
	RSquared        float64   `json:"r_squared"`
	// SeasonalLag is measured in hourly buckets
	SeasonalLag     int       `json:"seasonal_lag"`
	SeasonalityACF  float64   `json:"seasonality_acf"`
	SeasonalPattern bool      `json:"seasonal_pattern"`
}

// ControllerStatistics groups the series statistics of one controller
type ControllerStatistics struct {
	ControllerID    string             `json:"controller_id"`
	DataPointsCount int                `json:"data_points_count"`
	Series          []SeriesStatistics `json:"series"`
}

// ControllerCorrelation is the Pearson correlation of two controllers for one metric
type ControllerCorrelation struct {
	Metric        string  `json:"metric"`
	ControllerA   string  `json:"controller_a"`
	ControllerB   string  `json:"controller_b"`
	Coefficient   float64 `json:"coefficient"`
	AlignedPoints int     `json:"aligned_points"`
}

// ComprehensiveReport is the result of a comprehensive analytics request
type ComprehensiveReport struct {
	Controllers      []ControllerStatistics  `json:"controllers"`
	Correlations     []ControllerCorrelation `json:"correlations"`
	GeneratedAt      time.Time               `json:"generated_at"`
	TotalControllers int                     `json:"total_controllers"`
	TotalMetrics     int                     `json:"total_metrics"`
	FiltersApplied   AnalyticsFilter         `json:"filters_applied"`
}
