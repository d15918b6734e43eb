package monitoring

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	nuts "github.com/vaudience/go-nuts"

	"github.com/itsatony/w4b_v3/server/analytics/internal/errors"
)

// Config holds monitoring configuration
type Config struct {
	HealthProbeSchedule string
	Registerer          prometheus.Registerer
}

// HealthChecker reports whether a dependency is reachable
type HealthChecker func(ctx context.Context) bool

// Service provides monitoring functionality
type Service struct {
	config Config

	reports      *prometheus.CounterVec
	errors       *prometheus.CounterVec
	cacheLookups *prometheus.CounterVec
	events       *prometheus.CounterVec
	repositoryUp prometheus.Gauge

	scheduler *cron.Cron
}

// NewService creates the monitoring service and registers its collectors.
// A nil Registerer selects the default Prometheus registry.
func NewService(config Config) (*Service, error) {
	if config.Registerer == nil {
		config.Registerer = prometheus.DefaultRegisterer
	}
	s := &Service{
		config: config,
		reports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "w4b_analytics_reports_total",
			Help: "Analytics operations completed successfully",
		}, []string{"operation"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "w4b_analytics_errors_total",
			Help: "Analytics operations that failed, by error type",
		}, []string{"operation", "type"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "w4b_analytics_cache_requests_total",
			Help: "Analytics cache lookups by result",
		}, []string{"result"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "w4b_analytics_events_total",
			Help: "Monitored events",
		}, []string{"event"}),
		repositoryUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "w4b_analytics_repository_up",
			Help: "1 when the measurement repository answered the last health probe",
		}),
	}
	for _, c := range []prometheus.Collector{s.reports, s.errors, s.cacheLookups, s.events, s.repositoryUp} {
		if err := config.Registerer.Register(c); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// RecordReport counts a successful analytics operation
func (s *Service) RecordReport(operation string) {
	s.reports.WithLabelValues(operation).Inc()
}

// RecordError counts a failed analytics operation
func (s *Service) RecordError(operation string, errType errors.ErrorType) {
	s.errors.WithLabelValues(operation, string(errType)).Inc()
}

func (s *Service) CacheHit()  { s.cacheLookups.WithLabelValues("hit").Inc() }
func (s *Service) CacheMiss() { s.cacheLookups.WithLabelValues("miss").Inc() }

// RecordEvent records a monitored event with labels
func (s *Service) RecordEvent(eventName string, labels map[string]string) {
	s.events.WithLabelValues(eventName).Inc()
	nuts.L.Infof("[Monitoring] Event %s recorded at %v with labels: %v", eventName, time.Now(), labels)
}

// ProbeHealth runs check once and updates the repository gauge
func (s *Service) ProbeHealth(ctx context.Context, check HealthChecker) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	up := check(ctx)
	if up {
		s.repositoryUp.Set(1)
	} else {
		s.repositoryUp.Set(0)
		nuts.L.Warnf("[Monitoring] Repository health probe failed")
	}
	return up
}

// StartHealthProbe probes on the configured cron schedule until Stop is called
func (s *Service) StartHealthProbe(check HealthChecker) error {
	schedule := s.config.HealthProbeSchedule
	if schedule == "" {
		schedule = "@every 30s"
	}
	s.scheduler = cron.New()
	if _, err := s.scheduler.AddFunc(schedule, func() {
		s.ProbeHealth(context.Background(), check)
	}); err != nil {
		return err
	}
	s.ProbeHealth(context.Background(), check)
	s.scheduler.Start()
	nuts.L.Infof("[Monitoring] Health probe scheduled %s", schedule)
	return nil
}

// Stop halts the health probe and waits for a running probe to finish
func (s *Service) Stop() {
	if s.scheduler == nil {
		return
	}
	<-s.scheduler.Stop().Done()
}
