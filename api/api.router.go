package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/swaggo/swag"

	"github.com/itsatony/w4b_v3/server/analytics/api/docs"
	"github.com/itsatony/w4b_v3/server/analytics/api/middleware"
	"github.com/itsatony/w4b_v3/server/analytics/api/resources"
)

type Router struct {
	router    *mux.Router
	resources *resources.Resources
	graphql   http.Handler
}

// NewRouter wires the REST resources. graphql may be nil when the endpoint is disabled.
func NewRouter(res *resources.Resources, graphql http.Handler) *Router {
	r := &Router{
		router:    mux.NewRouter(),
		resources: res,
		graphql:   graphql,
	}

	r.setupRoutes()
	return r
}

func (r *Router) setupRoutes() {
	r.router.Use(middleware.RequestID)

	// API version prefix
	api := r.router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/docs/doc.json", serveDocs).Methods(http.MethodGet)

	analytics := api.PathPrefix("/analytics").Subrouter()
	analytics.HandleFunc("/health", r.resources.HealthCheck).Methods(http.MethodGet)
	analytics.HandleFunc("/metrics", r.resources.Analytics.SupportedMetrics).Methods(http.MethodGet)
	if r.resources.Metrics != nil {
		analytics.HandleFunc("/metrics/prometheus", r.resources.Metrics).Methods(http.MethodGet)
	}

	// Reports
	analytics.HandleFunc("/report/{metric}", r.resources.Analytics.GetReport).Methods(http.MethodGet)
	analytics.HandleFunc("/multi-report", r.resources.Analytics.MultiReport).Methods(http.MethodPost)
	analytics.HandleFunc("/trends/{metric}", r.resources.Analytics.GetTrends).Methods(http.MethodGet)
	analytics.HandleFunc("/comprehensive", r.resources.Analytics.ComprehensiveReport).Methods(http.MethodPost)
	analytics.HandleFunc("/latest/{controller_id}", r.resources.Analytics.GetLatest).Methods(http.MethodGet)

	// Historical exports
	analytics.HandleFunc("/historical", r.resources.Historical.GetHistorical).Methods(http.MethodGet)
	analytics.HandleFunc("/historical/averages", r.resources.Historical.GetHistoricalAverages).Methods(http.MethodGet)

	// Cache
	analytics.HandleFunc("/cache", r.resources.Cache.Flush).Methods(http.MethodDelete)
	analytics.HandleFunc("/cache/{controller_id}", r.resources.Cache.Invalidate).Methods(http.MethodDelete)

	if r.graphql != nil {
		r.router.Handle("/graphql", r.graphql).Methods(http.MethodPost, http.MethodGet)
	}
}

func serveDocs(w http.ResponseWriter, _ *http.Request) {
	doc, err := swag.ReadDoc(docs.SwaggerInfo.InstanceName())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(doc))
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.router.ServeHTTP(w, req)
}
