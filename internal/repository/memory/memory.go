// Package memory keeps measurements in process. It backs the memory database
// driver for local development and serves as the repository in tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/itsatony/w4b_v3/server/analytics/internal/errors"
	"github.com/itsatony/w4b_v3/server/analytics/internal/models"
	"github.com/itsatony/w4b_v3/server/analytics/internal/repository"
)

// MeasurementRepo is an ordered in-memory measurement store
type MeasurementRepo struct {
	mu           sync.RWMutex
	measurements []*models.Measurement
	latestWindow time.Duration
	now          func() time.Time
}

// NewMeasurementRepository creates an empty store. latestWindow bounds how old
// a measurement may be to count as the latest one.
func NewMeasurementRepository(latestWindow time.Duration) *MeasurementRepo {
	if latestWindow <= 0 {
		latestWindow = 10 * time.Minute
	}
	return &MeasurementRepo{latestWindow: latestWindow, now: time.Now}
}

// SetClock replaces the clock used for the latest-measurement window
func (r *MeasurementRepo) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

// Add validates and stores measurements, keeping the store sorted by time
func (r *MeasurementRepo) Add(ms ...models.Measurement) error {
	validated := make([]*models.Measurement, 0, len(ms))
	for _, m := range ms {
		v, err := models.NewMeasurement(m)
		if err != nil {
			return err
		}
		validated = append(validated, v)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.measurements = append(r.measurements, validated...)
	sort.SliceStable(r.measurements, func(i, j int) bool {
		return r.measurements[i].Timestamp.Before(r.measurements[j].Timestamp)
	})
	return nil
}

func (r *MeasurementRepo) matches(m *models.Measurement, q repository.MeasurementQuery) bool {
	if q.ControllerID != "" && m.ControllerID != q.ControllerID {
		return false
	}
	if q.SensorID != "" && m.SensorID != q.SensorID {
		return false
	}
	if q.Zone != "" && m.Zone != q.Zone {
		return false
	}
	if q.StartTime != nil && m.Timestamp.Before(*q.StartTime) {
		return false
	}
	if q.EndTime != nil && m.Timestamp.After(*q.EndTime) {
		return false
	}
	if q.Parameter != "" {
		if _, ok := m.Value(models.Metric(q.Parameter)); !ok {
			return false
		}
	}
	return true
}

func (r *MeasurementRepo) GetMeasurements(ctx context.Context, q repository.MeasurementQuery) ([]*models.Measurement, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.NewRepositoryError("measurement query cancelled", err)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*models.Measurement{}
	for _, m := range r.measurements {
		if !r.matches(m, q) {
			continue
		}
		out = append(out, m)
		if q.Limit > 0 && len(out) >= q.Limit {
			break
		}
	}
	return out, nil
}

func (r *MeasurementRepo) GetMeasurementsByControllers(ctx context.Context, controllers []string, q repository.MeasurementQuery) ([]*models.Measurement, error) {
	if len(controllers) == 0 {
		return []*models.Measurement{}, nil
	}
	perController := 0
	if q.Limit > 0 {
		perController = max(1, q.Limit/len(controllers))
	}

	out := []*models.Measurement{}
	for _, id := range controllers {
		sub := q
		sub.ControllerID = id
		sub.Limit = perController
		ms, err := r.GetMeasurements(ctx, sub)
		if err != nil {
			return nil, err
		}
		out = append(out, ms...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (r *MeasurementRepo) GetLatestMeasurement(ctx context.Context, controllerID string) (*models.Measurement, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.NewRepositoryError("latest measurement query cancelled", err)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	cutoff := r.now().Add(-r.latestWindow)
	for i := len(r.measurements) - 1; i >= 0; i-- {
		m := r.measurements[i]
		if m.ControllerID != controllerID {
			continue
		}
		if m.Timestamp.Before(cutoff) {
			return nil, nil
		}
		return m, nil
	}
	return nil, nil
}

func (r *MeasurementRepo) HealthCheck(ctx context.Context) bool {
	return ctx.Err() == nil
}
