package analytics

import (
	"context"
	"fmt"
	"sync"

	nuts "github.com/vaudience/go-nuts"

	"github.com/itsatony/w4b_v3/server/analytics/internal/errors"
	"github.com/itsatony/w4b_v3/server/analytics/internal/models"
	"github.com/itsatony/w4b_v3/server/analytics/internal/repository"
)

const (
	opSingleMetric  = "single_metric_report"
	opMultiReport   = "multi_report"
	opTrend         = "trend_analysis"
	opHistorical    = "historical_data"
	opAverages      = "historical_averages"
	opLatest        = "latest_measurement"
	opComprehensive = "comprehensive_report"
)

// GenerateSingleMetricReport computes the full bundle of one metric for one controller
func (s *Service) GenerateSingleMetricReport(ctx context.Context, metricName, controllerID string, filters models.AnalyticsFilter) (*models.AnalyticsReport, error) {
	report, err := s.singleMetricReport(ctx, metricName, controllerID, filters)
	return report, s.finish(opSingleMetric, err)
}

func (s *Service) singleMetricReport(ctx context.Context, metricName, controllerID string, filters models.AnalyticsFilter) (*models.AnalyticsReport, error) {
	metric, err := models.ParseMetric(metricName)
	if err != nil {
		return nil, err
	}
	if err := filters.Validate(); err != nil {
		return nil, err
	}

	ms, err := s.fetch(ctx, repository.QueryFromFilter(controllerID, filters))
	if err != nil {
		return nil, err
	}
	if len(ms) == 0 {
		return nil, errors.NewInsufficientDataError(fmt.Sprintf("no data found for controller %s", controllerID))
	}

	now := s.now()
	results := s.metricBundle(metric, ms, controllerID, now)
	if len(results) == 0 {
		return nil, errors.NewInsufficientDataError(fmt.Sprintf("no %s data available for controller %s", metric, controllerID))
	}

	return &models.AnalyticsReport{
		ControllerID:    controllerID,
		Metrics:         results,
		GeneratedAt:     now,
		DataPointsCount: len(ms),
		FiltersApplied:  filters,
	}, nil
}

// GenerateMultiReport builds one report per controller. Controllers whose
// fetch or computation fails are left out instead of failing the batch.
func (s *Service) GenerateMultiReport(ctx context.Context, req models.MultiReportRequest) (*models.MultiReportResponse, error) {
	resp, err := s.multiReport(ctx, req)
	return resp, s.finish(opMultiReport, err)
}

func (s *Service) multiReport(ctx context.Context, req models.MultiReportRequest) (*models.MultiReportResponse, error) {
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

	reports := make([]*models.AnalyticsReport, len(controllers))
	s.fanOut(ctx, controllers, func(i int, controllerID string) {
		report, err := s.controllerReport(ctx, controllerID, metrics, req.Filters)
		if err != nil {
			nuts.L.Warnf("[Analytics] Skipping controller %s in multi report: %v", controllerID, err)
			return
		}
		reports[i] = report
	})

	resp := &models.MultiReportResponse{
		Reports:          make(map[string]*models.AnalyticsReport),
		ControllerOrder:  []string{},
		GeneratedAt:      s.now(),
		TotalControllers: len(req.Controllers),
		TotalMetrics:     len(req.Metrics),
	}
	for i, report := range reports {
		if report == nil {
			continue
		}
		id := controllers[i]
		resp.Reports[id] = report
		resp.ControllerOrder = append(resp.ControllerOrder, id)
	}
	return resp, nil
}

// controllerReport fetches once and concatenates the bundles of every metric
func (s *Service) controllerReport(ctx context.Context, controllerID string, metrics []models.Metric, filters models.AnalyticsFilter) (*models.AnalyticsReport, error) {
	ms, err := s.fetch(ctx, repository.QueryFromFilter(controllerID, filters))
	if err != nil {
		return nil, err
	}
	if len(ms) == 0 {
		return nil, errors.NewInsufficientDataError(fmt.Sprintf("no data found for controller %s", controllerID))
	}

	now := s.now()
	var results []models.MetricResult
	for _, metric := range metrics {
		results = append(results, s.metricBundle(metric, ms, controllerID, now)...)
	}
	if len(results) == 0 {
		return nil, errors.NewInsufficientDataError(fmt.Sprintf("no requested metric data available for controller %s", controllerID))
	}
	return &models.AnalyticsReport{
		ControllerID:    controllerID,
		Metrics:         results,
		GeneratedAt:     now,
		DataPointsCount: len(ms),
		FiltersApplied:  filters,
	}, nil
}

// uniqueControllers drops empty and repeated ids, keeping first-seen order
func uniqueControllers(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// fanOut runs fn for every controller with bounded concurrency and waits for all
func (s *Service) fanOut(ctx context.Context, controllers []string, fn func(i int, controllerID string)) {
	sem := make(chan struct{}, s.concurrency)
	var wg sync.WaitGroup
	for i, id := range controllers {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-sem }()
			fn(i, id)
		}(i, id)
	}
	wg.Wait()
}

func parseMetrics(names []string) ([]models.Metric, error) {
	if len(names) == 0 {
		return nil, errors.NewInvalidRequestError("at least one metric is required", nil)
	}
	metrics := make([]models.Metric, 0, len(names))
	seen := make(map[models.Metric]bool, len(names))
	for _, name := range names {
		metric, err := models.ParseMetric(name)
		if err != nil {
			return nil, err
		}
		if seen[metric] {
			continue
		}
		seen[metric] = true
		metrics = append(metrics, metric)
	}
	return metrics, nil
}
