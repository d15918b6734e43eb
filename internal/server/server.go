// FilePath: server/analytics/internal/server/server.go
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/handlers"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	nuts "github.com/vaudience/go-nuts"

	"github.com/itsatony/w4b_v3/server/analytics/api"
	"github.com/itsatony/w4b_v3/server/analytics/api/gql"
	"github.com/itsatony/w4b_v3/server/analytics/api/resources"
	"github.com/itsatony/w4b_v3/server/analytics/internal/analytics"
	"github.com/itsatony/w4b_v3/server/analytics/internal/cache"
	"github.com/itsatony/w4b_v3/server/analytics/internal/cleanup"
	"github.com/itsatony/w4b_v3/server/analytics/internal/config"
	"github.com/itsatony/w4b_v3/server/analytics/internal/database"
	"github.com/itsatony/w4b_v3/server/analytics/internal/ingest"
	"github.com/itsatony/w4b_v3/server/analytics/internal/monitoring"
	"github.com/itsatony/w4b_v3/server/analytics/internal/repository"
	"github.com/itsatony/w4b_v3/server/analytics/internal/repository/memory"
	"github.com/itsatony/w4b_v3/server/analytics/internal/repository/timescale"
)

// Server represents our HTTP server
type Server struct {
	config     *config.Config
	srv        *http.Server
	db         database.DB
	repo       repository.MeasurementRepository
	engine     analytics.Engine
	cache      cache.Service
	cleanup    *cleanup.CleanupService
	monitoring *monitoring.Service
	listener   *ingest.Listener
	cancel     context.CancelFunc
}

// New creates a new server instance
func New(cfg *config.Config) *Server {
	return &Server{
		config: cfg,
		srv: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
	}
}

// Start initializes all components, begins listening and blocks until shutdown
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	if err := s.initialize(ctx); err != nil {
		s.close()
		return err
	}

	if s.listener != nil {
		go func() {
			if err := s.listener.Run(ctx); err != nil {
				nuts.L.Errorf("[Ingest] Listener stopped: %v", err)
			}
		}()
	}
	if err := s.monitoring.StartHealthProbe(s.repo.HealthCheck); err != nil {
		s.close()
		return fmt.Errorf("error scheduling health probe: %w", err)
	}

	go func() {
		nuts.L.Infof("[Server] Starting server on %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			nuts.L.Errorf("[Server] Error starting server: %v", err)
			os.Exit(1)
		}
	}()

	return s.waitForShutdown()
}

// initialize builds the component graph from configuration
func (s *Server) initialize(ctx context.Context) error {
	mon, err := monitoring.NewService(monitoring.Config{HealthProbeSchedule: s.config.Monitoring.HealthProbeSchedule})
	if err != nil {
		return fmt.Errorf("error registering metrics: %w", err)
	}
	s.monitoring = mon

	repo, err := s.initRepository(ctx)
	if err != nil {
		return err
	}
	s.repo = repository.NewBreakerRepository(repo, s.config.Breaker)

	var engine analytics.Engine = analytics.New(s.repo, analytics.Options{
		BaseTemperature: s.config.Analytics.BaseTemperature,
		Concurrency:     s.config.Analytics.MultiReportConcurrency,
		Recorder:        s.monitoring,
	})
	if s.config.Cache.Enabled {
		s.cache = s.initCache(ctx)
		engine = analytics.NewCachedService(engine, s.cache, s.monitoring, s.config.Cache.DefaultTTL)
		s.cleanup = cleanup.New(s.cache)
		s.setupCleanupHandlers()
		s.listener = ingest.NewListener(s.config.Kafka, s.cleanup)
	}
	s.engine = engine

	handler, err := s.buildHandler()
	if err != nil {
		return err
	}
	s.srv.Handler = handler
	return nil
}

func (s *Server) initRepository(ctx context.Context) (repository.MeasurementRepository, error) {
	switch s.config.Database.Driver {
	case config.DriverMemory:
		nuts.L.Warnf("[Server] Using the in-memory measurement store")
		return memory.NewMeasurementRepository(s.config.Analytics.LatestWindow), nil
	default:
		db, err := database.NewTimescaleDB(ctx, s.config.Database.TimescaleDB, s.config.Database.ConnectRetries)
		if err != nil {
			return nil, err
		}
		s.db = db
		return timescale.NewMeasurementRepository(db, s.config.Analytics.DefaultWindow, s.config.Analytics.LatestWindow)
	}
}

// initCache prefers Redis and falls back to the in-process cache when it is disabled or unreachable
func (s *Server) initCache(ctx context.Context) cache.Service {
	if s.config.Redis.Enabled {
		rc, err := cache.NewRedisCache(ctx, s.config.Redis)
		if err == nil {
			nuts.L.Infof("[Cache] Using Redis at %s:%d", s.config.Redis.Host, s.config.Redis.Port)
			return rc
		}
		nuts.L.Warnf("[Cache] Redis unavailable, falling back to in-memory cache: %v", err)
	}
	return cache.NewMemoryCache()
}

func (s *Server) buildHandler() (http.Handler, error) {
	var invalidator resources.Invalidator
	if s.cleanup != nil {
		invalidator = s.cleanup
	}
	res := resources.NewResources(s.engine, invalidator)
	res.SetMetrics(promhttp.Handler().ServeHTTP)

	var graphql http.Handler
	if s.config.GraphQL.Enabled {
		schema, err := gql.NewSchema(s.engine)
		if err != nil {
			return nil, fmt.Errorf("error building GraphQL schema: %w", err)
		}
		graphql = gql.NewHandler(schema)
	}

	cors := handlers.CORS(
		handlers.AllowedOrigins(s.config.Server.CORSOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Request-ID"}),
	)
	router := api.NewRouter(res, graphql)
	return handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(
		handlers.CombinedLoggingHandler(os.Stdout, cors(router)),
	), nil
}

// waitForShutdown waits for interrupt signal and gracefully shuts down the server
func (s *Server) waitForShutdown() error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	nuts.L.Infof("[Server] Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()

	err := s.srv.Shutdown(ctx)
	s.close()
	if err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}

	nuts.L.Infof("[Server] Server shut down successfully")
	return nil
}

// close releases background workers and connections
func (s *Server) close() {
	if s.cancel != nil {
		s.cancel()
	}
	if s.monitoring != nil {
		s.monitoring.Stop()
	}
	if s.listener != nil {
		if err := s.listener.Close(); err != nil {
			nuts.L.Warnf("[Ingest] Error closing reader: %v", err)
		}
	}
	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			nuts.L.Warnf("[Cache] Error closing cache: %v", err)
		}
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			nuts.L.Warnf("[TimescaleDB] Error closing connection: %v", err)
		}
	}
}

func (s *Server) setupCleanupHandlers() {
	s.cleanup.OnCleanup(cleanup.EventInvalidated, func(id string) {
		nuts.L.Infof("[Cleanup] Cached analytics of controller %s invalidated", id)
		s.monitoring.RecordEvent("cache_invalidation", map[string]string{
			"controller_id": id,
		})
	})

	s.cleanup.OnCleanup(cleanup.EventFlushed, func(string) {
		nuts.L.Infof("[Cleanup] Analytics cache flushed")
		s.monitoring.RecordEvent("cache_flush", nil)
	})
}
