package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/aavaaz-civic/platform/internal/audit"
	complaintapi "github.com/aavaaz-civic/platform/internal/complaint/api"
	"github.com/aavaaz-civic/platform/internal/complaint/service"
	"github.com/aavaaz-civic/platform/internal/complaint/store"
	"github.com/aavaaz-civic/platform/internal/identity"
	identityapi "github.com/aavaaz-civic/platform/internal/identity/api"
	"github.com/aavaaz-civic/platform/internal/report"
	"github.com/aavaaz-civic/platform/internal/shared/auth"
	"github.com/aavaaz-civic/platform/internal/shared/config"
	"github.com/aavaaz-civic/platform/internal/shared/events"
	"github.com/aavaaz-civic/platform/internal/shared/metrics"
	secmiddleware "github.com/aavaaz-civic/platform/internal/shared/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

const (
	maxRequestBody       = 1 << 20
	limiterPruneInterval = time.Minute
	limiterIdle          = 10 * time.Minute
)

// App holds the in-process components of a running platform
type App struct {
	Config     *config.Config
	Log        zerolog.Logger
	Bus        *events.Bus
	Users      *identity.Store
	Complaints *store.MemoryStore
	Service    *service.Service
	Reporter   *report.Reporter
	Audit      *audit.MemoryRepository
	Tokens     *auth.Tokens
}

// newApp builds the stores and services and starts the audit subscriber.
func newApp(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	var userOpts []identity.Option
	complaintOpts := []store.Option{store.WithLogger(log)}
	if cfg.Data.SeedDemoData {
		userOpts = append(userOpts, identity.WithSeed(identity.DemoUsers()))
		complaintOpts = append(complaintOpts, store.WithSeed(store.DemoComplaints(time.Now())))
	}

	users, err := identity.NewStore(cfg.Auth.DemoPassword, userOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create identity store: %w", err)
	}

	bus := events.NewBus(log)
	complaints := store.New(complaintOpts...)
	auditRepo := audit.NewMemoryRepository()

	if err := audit.NewSubscriber(auditRepo, bus, log).Start(ctx); err != nil {
		bus.Close()
		return nil, fmt.Errorf("failed to start audit subscriber: %w", err)
	}

	return &App{
		Config:     cfg,
		Log:        log,
		Bus:        bus,
		Users:      users,
		Complaints: complaints,
		Service:    service.New(complaints, users, bus, log),
		Reporter:   report.NewReporter(complaints),
		Audit:      auditRepo,
		Tokens:     auth.NewTokens(cfg.Auth),
	}, nil
}

func (a *App) Close() {
	a.Bus.Close()
}

// Router wires the HTTP surface of the platform. The login limiter's
// janitor runs until ctx is done.
func (a *App) Router(ctx context.Context) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(secmiddleware.RequestLogger(a.Log))
	r.Use(secmiddleware.Recoverer(a.Log))
	r.Use(metrics.Middleware)
	r.Use(secmiddleware.SecurityHeaders)
	r.Use(secmiddleware.CORS(secmiddleware.DefaultCORSConfig()))
	r.Use(secmiddleware.BodyLimit(maxRequestBody))

	// Health endpoints
	r.Get("/health", healthHandler)
	r.Get("/ready", a.readyHandler)
	r.Handle("/metrics", metrics.Handler())

	// API info
	r.Get("/", infoHandler)

	limiter := secmiddleware.NewIPRateLimiter(a.Config.Auth.LoginRatePerSec, a.Config.Auth.LoginBurst)
	go limiter.Run(ctx, limiterPruneInterval, limiterIdle)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(a.Config.Server.RequestTimeout))

		// Sign-in and profile
		r.Mount("/auth", identityapi.NewHandler(a.Users, a.Tokens, a.Bus, limiter, a.Log).Routes())

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(a.Tokens))

			r.Mount("/complaints", complaintapi.NewHandler(a.Service).Routes())
			r.Mount("/reports", report.NewHandler(a.Reporter, a.Config.Report.TrendPeriods).Routes())
			r.Mount("/audit", audit.NewHandler(a.Audit).Routes())
		})
	})

	return r
}

func infoHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"name":    "Aavaaz Civic Grievance Platform",
		"version": "0.1.0",
		"docs":    "/api/v1",
	})
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status": "healthy",
	})
}

func (a *App) readyHandler(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{
		"server":     "ready",
		"complaints": fmt.Sprintf("ready (%d records)", a.Complaints.Len()),
	}

	allReady := true
	if err := a.Bus.Health(); err != nil {
		checks["event_bus"] = "not ready: " + err.Error()
		allReady = false
	} else {
		checks["event_bus"] = "ready"
	}

	status := http.StatusOK
	if !allReady {
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"ready":  allReady,
		"checks": checks,
	})
}
