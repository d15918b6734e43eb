// FilePath: server/analytics/internal/repository/repository.go
package repository

import (
	"context"
	"time"

	"github.com/itsatony/w4b_v3/server/analytics/internal/models"
)

// MeasurementQuery narrows a measurement fetch. Zero values mean "no constraint".
type MeasurementQuery struct {
	ControllerID string
	StartTime    *time.Time
	EndTime      *time.Time
	Limit        int
	SensorID     string
	Zone         string
	// Parameter restricts the result to measurements carrying that field
	Parameter string
}

// QueryFromFilter builds a query for one controller from an analytics filter
func QueryFromFilter(controllerID string, f models.AnalyticsFilter) MeasurementQuery {
	return MeasurementQuery{
		ControllerID: controllerID,
		StartTime:    f.StartTime,
		EndTime:      f.EndTime,
		Limit:        f.Limit,
	}
}

// MeasurementRepository is the read-only source of measurements.
// Results are ordered by ascending timestamp within each controller.
type MeasurementRepository interface {
	GetMeasurements(ctx context.Context, q MeasurementQuery) ([]*models.Measurement, error)
	GetMeasurementsByControllers(ctx context.Context, controllers []string, q MeasurementQuery) ([]*models.Measurement, error)
	// GetLatestMeasurement returns nil without error when nothing was reported recently
	GetLatestMeasurement(ctx context.Context, controllerID string) (*models.Measurement, error)
	HealthCheck(ctx context.Context) bool
}
