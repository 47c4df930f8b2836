package api

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/Gianlz/MedBayes/internal/api/handlers"
	mw "github.com/Gianlz/MedBayes/internal/api/middleware"
	"github.com/Gianlz/MedBayes/internal/buildconfig"
	"github.com/Gianlz/MedBayes/internal/domain"
	"github.com/Gianlz/MedBayes/internal/service"
	"github.com/Gianlz/MedBayes/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Options carries the request-level settings of the HTTP surface.
type Options struct {
	APIKey         string
	RateLimitRPS   float64
	RateLimitBurst int
}

// App holds the router and the counters reported by /metrics.
type App struct {
	Router       *chi.Mux
	startTime    time.Time
	requestCount atomic.Int64
	errorCount   atomic.Int64
	serverErrors atomic.Int64
}

// NewApp wires the HTTP surface. db may be nil, in which case consultation
// history is disabled and /health does not check the database.
func NewApp(querySvc *service.QueryService, diagnosisSvc *service.DiagnosisService, db *pgxpool.Pool, opts Options, logger *zap.Logger) *App {
	networkHandler := handlers.NewNetworkHandler(querySvc)
	diagnosisHandler := handlers.NewDiagnosisHandler(diagnosisSvc)

	r := chi.NewRouter()
	app := &App{
		Router:    r,
		startTime: time.Now(),
	}

	metricsCollector := mw.NewMetricsCollector(&app.requestCount, &app.errorCount, &app.serverErrors)

	// Global middleware (order matters)
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(metricsCollector.Middleware)
	r.Use(mw.Logging(logger))
	r.Use(middleware.Recoverer)
	r.Use(mw.RateLimit(opts.RateLimitRPS, opts.RateLimitBurst))

	// Operational endpoints (no auth)
	r.Get("/health", healthHandler(db, querySvc))
	r.Get("/metrics", app.metricsHandler())
	r.Get("/version", versionHandler)

	r.Route("/v1", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(opts.APIKey))

		r.Route("/networks", func(r chi.Router) {
			r.Get("/", networkHandler.List)
			r.Route("/{name}", func(r chi.Router) {
				r.Get("/", networkHandler.Get)
				r.Post("/query", networkHandler.Query)
			})
		})

		r.Post("/diagnose", diagnosisHandler.Diagnose)

		r.Route("/consultations/{id}", func(r chi.Router) {
			r.Get("/", diagnosisHandler.GetConsultation)
			r.Get("/similar", diagnosisHandler.Similar)
		})
	})

	return app
}

func healthHandler(db *pgxpool.Pool, querySvc *service.QueryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		status := map[string]any{
			"status":   "ok",
			"networks": len(querySvc.Networks()),
			"history":  db != nil,
		}
		if db != nil {
			if err := db.Ping(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_ = json.NewEncoder(w).Encode(map[string]string{"status": "error", "error": err.Error()})
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(status)
	}
}

func versionHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(buildconfig.VersionInfo())
}

func (app *App) metricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		uptime := time.Since(app.startTime)

		response := map[string]any{
			"uptime_seconds":     uptime.Seconds(),
			"uptime_human":       uptime.Round(time.Second).String(),
			"request_count":      app.requestCount.Load(),
			"error_count":        app.errorCount.Load(),
			"server_error_count": app.serverErrors.Load(),
			"goroutines":         runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb":       float64(memStats.Alloc) / 1024 / 1024,
				"total_alloc_mb": float64(memStats.TotalAlloc) / 1024 / 1024,
				"sys_mb":         float64(memStats.Sys) / 1024 / 1024,
				"num_gc":         memStats.NumGC,
			},
			"go_version": runtime.Version(),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}

// Ensure stores satisfy interfaces at compile time.
var (
	_ domain.ConsultationStore  = (*store.ConsultationStore)(nil)
	_ domain.ConsultationPruner = (*store.ConsultationStore)(nil)
)
