// FilePath: server/analytics/internal/analytics/service.go
package analytics

import (
	"context"
	"time"

	nuts "github.com/vaudience/go-nuts"

	"github.com/itsatony/w4b_v3/server/analytics/internal/calculations"
	"github.com/itsatony/w4b_v3/server/analytics/internal/errors"
	"github.com/itsatony/w4b_v3/server/analytics/internal/models"
	"github.com/itsatony/w4b_v3/server/analytics/internal/repository"
)

// Engine is the analytics contract consumed by the REST and GraphQL adapters
type Engine interface {
	SupportedMetrics() []string
	IsMetricSupported(name string) bool
	GenerateSingleMetricReport(ctx context.Context, metric, controllerID string, filters models.AnalyticsFilter) (*models.AnalyticsReport, error)
	GenerateMultiReport(ctx context.Context, req models.MultiReportRequest) (*models.MultiReportResponse, error)
	GenerateTrendAnalysis(ctx context.Context, metric, controllerID string, start, end time.Time, interval string) (*models.TrendAnalysis, error)
	QueryHistoricalData(ctx context.Context, filters models.HistoricalQueryFilter) (*models.HistoricalQueryResponse, error)
	QueryHistoricalAverages(ctx context.Context, filters models.HistoricalQueryFilter, intervalMinutes int) (*models.HistoricalAveragesResponse, error)
	GetLatestMeasurement(ctx context.Context, controllerID string) (*models.Measurement, error)
	GenerateComprehensiveReport(ctx context.Context, req models.ComprehensiveReportRequest) (*models.ComprehensiveReport, error)
	HealthCheck(ctx context.Context) bool
}

// Recorder receives operation outcomes, typically for metrics
type Recorder interface {
	RecordReport(operation string)
	RecordError(operation string, errType errors.ErrorType)
}

type noopRecorder struct{}

func (noopRecorder) RecordReport(string) {}
func (noopRecorder) RecordError(string, errors.ErrorType) {}

// Options tune the engine
type Options struct {
	BaseTemperature float64
	// Concurrency bounds the per-controller fan-out of batch operations
	Concurrency int
	Recorder    Recorder
	Clock       func() time.Time
}

// Service computes agronomic analytics from a measurement repository
type Service struct {
	repo            repository.MeasurementRepository
	baseTemperature float64
	concurrency     int
	recorder        Recorder
	now             func() time.Time
}

// New creates the analytics engine
func New(repo repository.MeasurementRepository, opts Options) *Service {
	s := &Service{
		repo:            repo,
		baseTemperature: opts.BaseTemperature,
		concurrency:     opts.Concurrency,
		recorder:        opts.Recorder,
		now:             opts.Clock,
	}
	if s.baseTemperature == 0 {
		s.baseTemperature = calculations.DefaultBaseTemperature
	}
	if s.concurrency <= 0 {
		s.concurrency = 8
	}
	if s.recorder == nil {
		s.recorder = noopRecorder{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// SupportedMetrics returns the analysable metric names in canonical order
func (s *Service) SupportedMetrics() []string {
	return models.SupportedMetricNames()
}

func (s *Service) IsMetricSupported(name string) bool {
	_, err := models.ParseMetric(name)
	return err == nil
}

func (s *Service) HealthCheck(ctx context.Context) bool {
	return s.repo.HealthCheck(ctx)
}

// finish records the outcome of an operation and passes err through
func (s *Service) finish(operation string, err error) error {
	if err != nil {
		errType := errors.TypeOf(err)
		s.recorder.RecordError(operation, errType)
		if errType == errors.ErrorTypeRepository || errType == errors.ErrorTypeInternal {
			nuts.L.Errorf("[Analytics] %s failed: %v", operation, err)
		} else {
			nuts.L.Debugf("[Analytics] %s rejected: %v", operation, err)
		}
		return err
	}
	s.recorder.RecordReport(operation)
	return nil
}

// fetch wraps foreign repository errors so callers always see a typed failure
func (s *Service) fetch(ctx context.Context, q repository.MeasurementQuery) ([]*models.Measurement, error) {
	ms, err := s.repo.GetMeasurements(ctx, q)
	if err != nil {
		return nil, asRepositoryError(err)
	}
	return ms, nil
}

func asRepositoryError(err error) error {
	if _, ok := errors.AsAPIError(err); ok {
		return err
	}
	return errors.NewRepositoryError("failed to fetch measurements", err)
}
