package analytics

import (
	"context"
	"math"
	"sort"
	"time"

	nuts "github.com/vaudience/go-nuts"

	"github.com/itsatony/w4b_v3/server/analytics/internal/bucketing"
	"github.com/itsatony/w4b_v3/server/analytics/internal/calculations"
	"github.com/itsatony/w4b_v3/server/analytics/internal/errors"
	"github.com/itsatony/w4b_v3/server/analytics/internal/models"
	"github.com/itsatony/w4b_v3/server/analytics/internal/repository"
)

const (
	anomalyFenceMultiplier = 1.5
	seasonalityThreshold   = 0.5
	maxSeasonalLagHours    = 48
)

// hourly is the resolution used for seasonality and cross-controller correlation
var hourly = bucketing.Bucketizer{Interval: time.Hour, Origin: bucketing.Epoch}

// controllerSeries keeps the hourly averages of one controller per metric
type controllerSeries struct {
	stats  models.ControllerStatistics
	hourly map[models.Metric]map[int64]float64
}

// GenerateComprehensiveReport profiles every requested series and correlates controllers
func (s *Service) GenerateComprehensiveReport(ctx context.Context, req models.ComprehensiveReportRequest) (*models.ComprehensiveReport, error) {
	report, err := s.comprehensiveReport(ctx, req)
	return report, s.finish(opComprehensive, err)
}

func (s *Service) comprehensiveReport(ctx context.Context, req models.ComprehensiveReportRequest) (*models.ComprehensiveReport, error) {
	metrics, err := parseMetrics(req.Metrics)
	if err != nil {
		return nil, err
	}
	controllers := uniqueControllers(req.Controllers)
	if len(controllers) == 0 {
		return nil, errors.NewInvalidRequestError("at least one controller is required", nil)
	}
	if err := req.Filters.Validate(); err != nil {
		return nil, err
	}

	results := make([]*controllerSeries, len(controllers))
	s.fanOut(ctx, controllers, func(i int, controllerID string) {
		series, err := s.profileController(ctx, controllerID, metrics, req.Filters)
		if err != nil {
			nuts.L.Warnf("[Analytics] Skipping controller %s in comprehensive report: %v", controllerID, err)
			return
		}
		results[i] = series
	})

	report := &models.ComprehensiveReport{
		Controllers:      []models.ControllerStatistics{},
		Correlations:     []models.ControllerCorrelation{},
		GeneratedAt:      s.now(),
		TotalControllers: len(req.Controllers),
		TotalMetrics:     len(req.Metrics),
		FiltersApplied:   req.Filters,
	}
	var profiled []*controllerSeries
	for _, r := range results {
		if r == nil {
			continue
		}
		profiled = append(profiled, r)
		report.Controllers = append(report.Controllers, r.stats)
	}
	if len(profiled) == 0 {
		return nil, errors.NewInsufficientDataError("no data available for the requested controllers")
	}

	for _, metric := range metrics {
		for i := 0; i < len(profiled); i++ {
			for j := i + 1; j < len(profiled); j++ {
				if c, ok := correlate(metric, profiled[i], profiled[j]); ok {
					report.Correlations = append(report.Correlations, c)
				}
			}
		}
	}
	return report, nil
}

func (s *Service) profileController(ctx context.Context, controllerID string, metrics []models.Metric, filters models.AnalyticsFilter) (*controllerSeries, error) {
	ms, err := s.fetch(ctx, repository.QueryFromFilter(controllerID, filters))
	if err != nil {
		return nil, err
	}
	if len(ms) == 0 {
		return nil, errors.NewInsufficientDataError("no data found for controller " + controllerID)
	}

	out := &controllerSeries{
		stats:  models.ControllerStatistics{ControllerID: controllerID, DataPointsCount: len(ms)},
		hourly: make(map[models.Metric]map[int64]float64),
	}
	for _, metric := range metrics {
		points := timeSeries(ms, controllerID, metric)
		if len(points) == 0 {
			continue
		}
		hourlyAvg := hourlyAverages(points)
		out.hourly[metric] = hourlyAvg
		out.stats.Series = append(out.stats.Series, seriesStatistics(metric, points, hourlyAvg))
	}
	if len(out.stats.Series) == 0 {
		return nil, errors.NewInsufficientDataError("no requested metric data available for controller " + controllerID)
	}
	return out, nil
}

func seriesStatistics(metric models.Metric, points []calculations.TimePoint, hourlyAvg map[int64]float64) models.SeriesStatistics {
	values := make([]float64, len(points))
	hours := make([]float64, len(points))
	for i, p := range points {
		values[i] = p.Value
		hours[i] = p.Timestamp.Sub(points[0].Timestamp).Hours()
	}
	basic := calculations.BasicStatistics(values)
	sorted := calculations.Sorted(values)
	anomalyIdx, fences := calculations.IQRAnomalies(values, anomalyFenceMultiplier)
	regression := calculations.LinearRegression(hours, values)

	st := models.SeriesStatistics{
		Metric:       string(metric),
		Count:        basic.Count,
		Mean:         basic.Mean,
		Min:          basic.Min,
		Max:          basic.Max,
		StdDev:       basic.StdDev,
		P25:          calculations.Percentile(sorted, 25),
		Median:       calculations.Percentile(sorted, 50),
		P75:          calculations.Percentile(sorted, 75),
		P90:          calculations.Percentile(sorted, 90),
		IQR:          fences.IQR,
		Skewness:     calculations.Skewness(values),
		Kurtosis:     calculations.Kurtosis(values),
		LowerFence:   fences.Lower,
		UpperFence:   fences.Upper,
		Anomalies:    []models.Anomaly{},
		SlopePerHour: regression.Slope,
		RSquared:     regression.RSquared,
	}
	for _, idx := range anomalyIdx {
		st.Anomalies = append(st.Anomalies, models.Anomaly{Timestamp: points[idx].Timestamp, Value: points[idx].Value})
	}

	season := calculations.DetectSeasonality(contiguousHours(hourlyAvg), maxSeasonalLagHours, seasonalityThreshold)
	st.SeasonalLag = season.Lag
	st.SeasonalityACF = season.Autocorrelation
	st.SeasonalPattern = season.Detected
	return st
}

func hourlyAverages(points []calculations.TimePoint) map[int64]float64 {
	samples := make([]bucketing.Sample, len(points))
	for i, p := range points {
		samples[i] = bucketing.Sample{Timestamp: p.Timestamp, Value: p.Value}
	}
	span := hourly.Span(points[0].Timestamp, points[len(points)-1].Timestamp.Add(time.Nanosecond))
	out := make(map[int64]float64)
	for _, b := range hourly.Aggregate(samples, span) {
		out[b.Start.Unix()] = b.Average()
	}
	return out
}

// contiguousHours lays the hourly averages out hour by hour from the first to
// the last populated hour. Missing hours take the series mean so they add no
// deviation and lags stay measured in hours.
func contiguousHours(byHour map[int64]float64) []float64 {
	if len(byHour) == 0 {
		return nil
	}
	first, last := int64(math.MaxInt64), int64(math.MinInt64)
	var sum float64
	for k, v := range byHour {
		first = min(first, k)
		last = max(last, k)
		sum += v
	}
	mean := sum / float64(len(byHour))
	step := int64(time.Hour / time.Second)
	values := make([]float64, 0, (last-first)/step+1)
	for k := first; k <= last; k += step {
		v, ok := byHour[k]
		if !ok {
			v = mean
		}
		values = append(values, v)
	}
	return values
}

// correlate pairs the hourly averages both controllers share
func correlate(metric models.Metric, a, b *controllerSeries) (models.ControllerCorrelation, bool) {
	left, right := a.hourly[metric], b.hourly[metric]
	if len(left) == 0 || len(right) == 0 {
		return models.ControllerCorrelation{}, false
	}
	hours := make([]int64, 0, len(left))
	for h := range left {
		if _, ok := right[h]; ok {
			hours = append(hours, h)
		}
	}
	if len(hours) < 2 {
		return models.ControllerCorrelation{}, false
	}
	sort.Slice(hours, func(i, j int) bool { return hours[i] < hours[j] })
	xs := make([]float64, len(hours))
	ys := make([]float64, len(hours))
	for i, h := range hours {
		xs[i], ys[i] = left[h], right[h]
	}
	return models.ControllerCorrelation{
		Metric:        string(metric),
		ControllerA:   a.stats.ControllerID,
		ControllerB:   b.stats.ControllerID,
		Coefficient:   calculations.PearsonCorrelation(xs, ys),
		AlignedPoints: len(hours),
	}, true
}
