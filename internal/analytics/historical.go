package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/itsatony/w4b_v3/server/analytics/internal/bucketing"
	"github.com/itsatony/w4b_v3/server/analytics/internal/errors"
	"github.com/itsatony/w4b_v3/server/analytics/internal/models"
	"github.com/itsatony/w4b_v3/server/analytics/internal/repository"
)

// QueryHistoricalData lists every present value of the selected parameters, oldest first
func (s *Service) QueryHistoricalData(ctx context.Context, filters models.HistoricalQueryFilter) (*models.HistoricalQueryResponse, error) {
	resp, err := s.historicalData(ctx, filters)
	return resp, s.finish(opHistorical, err)
}

func (s *Service) historicalData(ctx context.Context, filters models.HistoricalQueryFilter) (*models.HistoricalQueryResponse, error) {
	if err := filters.Validate(); err != nil {
		return nil, err
	}
	ms, err := s.fetchHistorical(ctx, filters)
	if err != nil {
		return nil, err
	}

	metrics := filters.Metrics()
	points := make([]models.HistoricalDataPoint, 0, len(ms))
	for _, m := range ms {
		for _, metric := range metrics {
			if v, ok := m.Value(metric); ok {
				points = append(points, models.HistoricalDataPoint{
					Timestamp:    m.Timestamp,
					ControllerID: m.ControllerID,
					SensorID:     m.SensorID,
					Parameter:    string(metric),
					Value:        v,
				})
			}
		}
	}
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Timestamp.Before(points[j].Timestamp)
	})

	return &models.HistoricalQueryResponse{
		Points:      points,
		TotalPoints: len(points),
		Filters:     filters,
	}, nil
}

// QueryHistoricalAverages averages values into intervals of intervalMinutes,
// aligned to the filter's start time or to the epoch when no start is given
func (s *Service) QueryHistoricalAverages(ctx context.Context, filters models.HistoricalQueryFilter, intervalMinutes int) (*models.HistoricalAveragesResponse, error) {
	resp, err := s.historicalAverages(ctx, filters, intervalMinutes)
	return resp, s.finish(opAverages, err)
}

func (s *Service) historicalAverages(ctx context.Context, filters models.HistoricalQueryFilter, intervalMinutes int) (*models.HistoricalAveragesResponse, error) {
	if !models.IsAllowedAverageInterval(intervalMinutes) {
		return nil, errors.NewInvalidRequestError(
			fmt.Sprintf("average_interval must be one of %v minutes, got %d", models.AllowedAverageIntervals, intervalMinutes), nil)
	}
	if err := filters.Validate(); err != nil {
		return nil, err
	}
	ms, err := s.fetchHistorical(ctx, filters)
	if err != nil {
		return nil, err
	}

	resp := &models.HistoricalAveragesResponse{
		Points:          []models.HistoricalAverageDataPoint{},
		IntervalMinutes: intervalMinutes,
		Filters:         filters,
	}
	samples := samplesFor(ms, filters.Metrics())
	minTs, maxTs, ok := bucketing.Bounds(samples)
	if !ok {
		return resp, nil
	}
	origin := bucketing.Epoch
	if filters.StartTime != nil {
		minTs = *filters.StartTime
		origin = *filters.StartTime
	}
	if filters.EndTime != nil {
		maxTs = *filters.EndTime
	}

	b, err := bucketing.New(time.Duration(intervalMinutes)*time.Minute, origin)
	if err != nil {
		return nil, errors.NewInvalidRequestError("invalid average interval", err)
	}
	for _, bucket := range b.Aggregate(samples, b.Span(minTs, maxTs)) {
		resp.Points = append(resp.Points, models.HistoricalAverageDataPoint{
			IntervalStart:     bucket.Start,
			IntervalEnd:       bucket.End,
			ControllerID:      bucket.ControllerID,
			Parameter:         bucket.Parameter,
			AverageValue:      bucket.Average(),
			MeasurementsCount: bucket.Count,
		})
	}
	resp.TotalPoints = len(resp.Points)
	return resp, nil
}

func (s *Service) fetchHistorical(ctx context.Context, filters models.HistoricalQueryFilter) ([]*models.Measurement, error) {
	q := repository.MeasurementQuery{
		StartTime: filters.StartTime,
		EndTime:   filters.EndTime,
		Limit:     filters.Limit,
		SensorID:  filters.SensorID,
		Zone:      filters.Zone,
		Parameter: filters.Parameter,
	}
	controllers := historicalControllers(filters)
	if len(controllers) <= 1 {
		if len(controllers) == 1 {
			q.ControllerID = controllers[0]
		}
		return s.fetch(ctx, q)
	}
	ms, err := s.repo.GetMeasurementsByControllers(ctx, controllers, q)
	if err != nil {
		return nil, asRepositoryError(err)
	}
	return ms, nil
}

// historicalControllers merges the single and the list controller filter without duplicates
func historicalControllers(filters models.HistoricalQueryFilter) []string {
	return uniqueControllers(append([]string{filters.ControllerID}, filters.Controllers...))
}

// GetLatestMeasurement returns the controller's most recent measurement within
// the repository's recency window, or nil when there is none.
func (s *Service) GetLatestMeasurement(ctx context.Context, controllerID string) (*models.Measurement, error) {
	m, err := s.latestMeasurement(ctx, controllerID)
	return m, s.finish(opLatest, err)
}

func (s *Service) latestMeasurement(ctx context.Context, controllerID string) (*models.Measurement, error) {
	if controllerID == "" {
		return nil, errors.NewInvalidRequestError("controller_id is required", nil)
	}
	m, err := s.repo.GetLatestMeasurement(ctx, controllerID)
	if err != nil {
		return nil, asRepositoryError(err)
	}
	return m, nil
}
