package analytics

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/itsatony/w4b_v3/server/analytics/internal/bucketing"
	"github.com/itsatony/w4b_v3/server/analytics/internal/errors"
	"github.com/itsatony/w4b_v3/server/analytics/internal/models"
	"github.com/itsatony/w4b_v3/server/analytics/internal/repository"
)

// DefaultTrendInterval is used when a trend request names no interval
const DefaultTrendInterval = "1h"

// ParseInterval accepts Go durations plus day ("1d"), week ("1w") and
// minute ("15min") suffixes.
func ParseInterval(interval string) (time.Duration, error) {
	s := strings.TrimSpace(strings.ToLower(interval))
	var d time.Duration
	var err error
	switch {
	case s == "":
		err = fmt.Errorf("empty interval")
	case strings.HasSuffix(s, "min"):
		d, err = scaled(strings.TrimSuffix(s, "min"), time.Minute)
	case strings.HasSuffix(s, "d"):
		d, err = scaled(strings.TrimSuffix(s, "d"), 24*time.Hour)
	case strings.HasSuffix(s, "w"):
		d, err = scaled(strings.TrimSuffix(s, "w"), 7*24*time.Hour)
	default:
		d, err = time.ParseDuration(s)
	}
	if err == nil && d <= 0 {
		err = fmt.Errorf("interval must be positive")
	}
	if err != nil {
		return 0, errors.NewInvalidRequestError(fmt.Sprintf("invalid interval '%s'", interval), err)
	}
	return d, nil
}

func scaled(n string, unit time.Duration) (time.Duration, error) {
	v, err := strconv.Atoi(n)
	if err != nil {
		return 0, err
	}
	return time.Duration(v) * unit, nil
}

// GenerateTrendAnalysis resamples one metric into interval averages anchored at start
func (s *Service) GenerateTrendAnalysis(ctx context.Context, metricName, controllerID string, start, end time.Time, interval string) (*models.TrendAnalysis, error) {
	trend, err := s.trendAnalysis(ctx, metricName, controllerID, start, end, interval)
	return trend, s.finish(opTrend, err)
}

func (s *Service) trendAnalysis(ctx context.Context, metricName, controllerID string, start, end time.Time, interval string) (*models.TrendAnalysis, error) {
	metric, err := models.ParseMetric(metricName)
	if err != nil {
		return nil, err
	}
	if interval == "" {
		interval = DefaultTrendInterval
	}
	step, err := ParseInterval(interval)
	if err != nil {
		return nil, err
	}
	if !start.Before(end) {
		return nil, errors.NewInvalidRequestError("start_time must be before end_time", nil)
	}

	ms, err := s.fetch(ctx, repository.MeasurementQuery{ControllerID: controllerID, StartTime: &start, EndTime: &end})
	if err != nil {
		return nil, err
	}
	if len(ms) == 0 {
		return nil, errors.NewInsufficientDataError(fmt.Sprintf("no data found for controller %s in the specified time range", controllerID))
	}

	samples := samplesFor(ms, []models.Metric{metric})
	if len(samples) == 0 {
		return nil, errors.NewInsufficientDataError(fmt.Sprintf("no %s data available for controller %s", metric, controllerID))
	}

	b, err := bucketing.New(step, start)
	if err != nil {
		return nil, errors.NewInvalidRequestError("invalid interval", err)
	}
	buckets := b.Aggregate(samples, b.Span(start, end))
	if len(buckets) == 0 {
		return nil, errors.NewInsufficientDataError(fmt.Sprintf("no %s data available for controller %s", metric, controllerID))
	}

	points := make([]models.TrendDataPoint, 0, len(buckets))
	for _, bucket := range buckets {
		points = append(points, models.TrendDataPoint{
			Timestamp: bucket.Start,
			Value:     bucket.Average(),
			Interval:  interval,
		})
	}
	return &models.TrendAnalysis{
		MetricName:     string(metric),
		ControllerID:   controllerID,
		DataPoints:     points,
		Interval:       interval,
		GeneratedAt:    s.now(),
		FiltersApplied: models.AnalyticsFilter{StartTime: &start, EndTime: &end},
	}, nil
}

// samplesFor projects the present fields of the given metrics into bucketing samples
func samplesFor(ms []*models.Measurement, metrics []models.Metric) []bucketing.Sample {
	samples := make([]bucketing.Sample, 0, len(ms))
	for _, m := range ms {
		for _, metric := range metrics {
			if v, ok := m.Value(metric); ok {
				samples = append(samples, bucketing.Sample{
					ControllerID: m.ControllerID,
					Parameter:    string(metric),
					Timestamp:    m.Timestamp,
					Value:        v,
				})
			}
		}
	}
	return samples
}
