package repository

import (
	"context"
	stderrors "errors"

	"github.com/sony/gobreaker"
	nuts "github.com/vaudience/go-nuts"

	"github.com/itsatony/w4b_v3/server/analytics/internal/config"
	"github.com/itsatony/w4b_v3/server/analytics/internal/errors"
	"github.com/itsatony/w4b_v3/server/analytics/internal/models"
)

// BreakerRepository trips after repeated data source failures and then fails
// fast until the breaker half-opens again.
type BreakerRepository struct {
	next MeasurementRepository
	cb   *gobreaker.CircuitBreaker
}

// NewBreakerRepository wraps next with a circuit breaker
func NewBreakerRepository(next MeasurementRepository, cfg config.BreakerConfig) *BreakerRepository {
	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "measurement-repository",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			nuts.L.Warnf("[Repository] Circuit breaker %s changed from %s to %s", name, from, to)
		},
	})
	return &BreakerRepository{next: next, cb: cb}
}

// State exposes the breaker state for health reporting
func (r *BreakerRepository) State() gobreaker.State {
	return r.cb.State()
}

// execute only counts repository failures against the breaker. Domain errors
// such as validation failures pass through without tripping it.
func (r *BreakerRepository) execute(fn func() (interface{}, error)) (interface{}, error) {
	var passThrough error
	result, err := r.cb.Execute(func() (interface{}, error) {
		res, err := fn()
		if err != nil && !isFailure(err) {
			passThrough = err
			return nil, nil
		}
		return res, err
	})
	if passThrough != nil {
		return nil, passThrough
	}
	if stderrors.Is(err, gobreaker.ErrOpenState) || stderrors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, errors.NewRepositoryError("measurement store temporarily unavailable", err)
	}
	return result, err
}

// isFailure treats an aborted caller as the caller's problem, not the store's
func isFailure(err error) bool {
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return false
	}
	apiErr, ok := errors.AsAPIError(err)
	return !ok || apiErr.Type == errors.ErrorTypeRepository
}

func (r *BreakerRepository) GetMeasurements(ctx context.Context, q MeasurementQuery) ([]*models.Measurement, error) {
	res, err := r.execute(func() (interface{}, error) {
		return r.next.GetMeasurements(ctx, q)
	})
	if err != nil {
		return nil, err
	}
	ms, _ := res.([]*models.Measurement)
	return ms, nil
}

func (r *BreakerRepository) GetMeasurementsByControllers(ctx context.Context, controllers []string, q MeasurementQuery) ([]*models.Measurement, error) {
	res, err := r.execute(func() (interface{}, error) {
		return r.next.GetMeasurementsByControllers(ctx, controllers, q)
	})
	if err != nil {
		return nil, err
	}
	ms, _ := res.([]*models.Measurement)
	return ms, nil
}

func (r *BreakerRepository) GetLatestMeasurement(ctx context.Context, controllerID string) (*models.Measurement, error) {
	res, err := r.execute(func() (interface{}, error) {
		return r.next.GetLatestMeasurement(ctx, controllerID)
	})
	if err != nil {
		return nil, err
	}
	m, _ := res.(*models.Measurement)
	return m, nil
}

// HealthCheck bypasses the breaker so a recovering store is noticed
func (r *BreakerRepository) HealthCheck(ctx context.Context) bool {
	return r.next.HealthCheck(ctx)
}
