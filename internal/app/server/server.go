package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"

	"perfeval/internal/domain/analytics"
	"perfeval/internal/domain/audit"
	"perfeval/internal/domain/auth"
	"perfeval/internal/domain/catalog"
	"perfeval/internal/domain/devplan"
	"perfeval/internal/domain/evaluation"
	"perfeval/internal/domain/notifications"
	"perfeval/internal/domain/org"
	"perfeval/internal/domain/period"
	"perfeval/internal/domain/results"
	"perfeval/internal/domain/scoring"
	"perfeval/internal/platform/ai"
	"perfeval/internal/platform/config"
	"perfeval/internal/platform/crypto"
	"perfeval/internal/platform/db"
	"perfeval/internal/platform/email"
	"perfeval/internal/platform/jobs"
	"perfeval/internal/platform/metrics"
	"perfeval/internal/platform/querier"
	analyticshandler "perfeval/internal/transport/http/handlers/analytics"
	audithandler "perfeval/internal/transport/http/handlers/audit"
	cataloghandler "perfeval/internal/transport/http/handlers/catalog"
	evaluationhandler "perfeval/internal/transport/http/handlers/evaluations"
	notificationshandler "perfeval/internal/transport/http/handlers/notifications"
	orghandler "perfeval/internal/transport/http/handlers/org"
	periodhandler "perfeval/internal/transport/http/handlers/periods"
	planshandler "perfeval/internal/transport/http/handlers/plans"
	resultshandler "perfeval/internal/transport/http/handlers/results"
	"perfeval/internal/transport/http/middleware"
)

const shutdownTimeout = 15 * time.Second

// Services holds every domain service with its collaborators already wired.
type Services struct {
	Org           *org.Service
	Periods       *period.Service
	Catalog       *catalog.Service
	Evaluations   *evaluation.Service
	Results       *results.Service
	Analytics     *analytics.Service
	Plans         *devplan.Service
	Notifications *notifications.Service
	Audit         *audit.Service
	Jobs          *jobs.Service
	Idempotency   *middleware.IdempotencyStore
	Metrics       *metrics.Collector
}

type App struct {
	Config   config.Config
	DB       *pgxpool.Pool
	Services *Services
	Router   http.Handler
}

// New connects to the database and builds the service graph and router.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	svcs, err := NewServices(pool, cfg)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return &App{
		Config:   cfg,
		DB:       pool,
		Services: svcs,
		Router:   NewRouter(cfg, svcs, pool.Ping),
	}, nil
}

func NewServices(q querier.Querier, cfg config.Config) (*Services, error) {
	cryptoSvc, err := crypto.New(cfg.DataEncryptionKey)
	if err != nil {
		return nil, err
	}
	var completer ai.Completer
	client, err := ai.New(cfg)
	switch {
	case err == nil:
		completer = client
	case !errors.Is(err, ai.ErrDisabled):
		return nil, fmt.Errorf("ai client: %w", err)
	}
	collector := metrics.New()

	orgSvc := org.NewService(org.NewStore(q))
	periodSvc := period.NewService(period.NewStore(q), period.Defaults{Weights: scoring.Weights{
		Self:       cfg.DefaultSelfWeight,
		Supervisor: cfg.DefaultSupervisorWeight,
		Peer:       cfg.DefaultPeerWeight,
	}})
	catalogSvc := catalog.NewService(catalog.NewStore(q), periodSvc)
	notifySvc := notifications.New(notifications.NewStore(q), email.New(cfg), cfg.EmailFrom)

	evalSvc := evaluation.NewService(evaluation.NewStore(q), periodSvc, catalogSvc, orgSvc)
	evalSvc.Notify = notifySvc
	resultsSvc := results.NewService(results.NewStore(q), periodSvc, catalogSvc, evalSvc)
	periodSvc.Assignments = evalSvc
	periodSvc.Results = resultsSvc

	jobsSvc := jobs.New(q, resultsSvc, periodSvc, cfg.ResultsRecomputeInterval)
	jobsSvc.Metrics = collector
	evalSvc.Recompute = jobsSvc

	planSvc := devplan.NewService(devplan.NewStore(q, cryptoSvc), resultsSvc, orgSvc, completer)
	planSvc.Notify = notifySvc
	planSvc.Metrics = collector

	return &Services{
		Org:           orgSvc,
		Periods:       periodSvc,
		Catalog:       catalogSvc,
		Evaluations:   evalSvc,
		Results:       resultsSvc,
		Analytics:     analytics.NewService(periodSvc, resultsSvc, evalSvc, catalogSvc, orgSvc),
		Plans:         planSvc,
		Notifications: notifySvc,
		Audit:         audit.New(q),
		Jobs:          jobsSvc,
		Idempotency:   middleware.NewIdempotencyStore(q),
		Metrics:       collector,
	}, nil
}

func NewRouter(cfg config.Config, svcs *Services, ping func(context.Context) error) http.Handler {
	perms := auth.StaticPermissions{}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(svcs.Metrics))
	router.Use(middleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.IsProduction()))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "Idempotency-Key", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "X-Total-Count", "X-Unread-Count", "Idempotent-Replayed", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(cfg.JWTSecret, cfg.JWTIssuer))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if ping == nil || ping(ctx) != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if cfg.MetricsEnabled {
		router.Handle("/metrics", svcs.Metrics.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))
		r.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, time.Minute))

		orghandler.NewHandler(svcs.Org, perms, svcs.Audit).RegisterRoutes(r)
		periodhandler.NewHandler(svcs.Periods, perms, svcs.Audit, svcs.Notifications, svcs.Org).RegisterRoutes(r)
		cataloghandler.NewHandler(svcs.Catalog, perms, svcs.Audit).RegisterRoutes(r)
		evaluationhandler.NewHandler(svcs.Evaluations, perms, svcs.Audit).RegisterRoutes(r)
		resultshandler.NewHandler(svcs.Results, svcs.Org, perms, svcs.Audit, svcs.Jobs).RegisterRoutes(r)
		analyticshandler.NewHandler(svcs.Analytics, perms).RegisterRoutes(r)
		planshandler.NewHandler(svcs.Plans, perms, svcs.Audit, svcs.Idempotency, svcs.Jobs).RegisterRoutes(r)
		notificationshandler.NewHandler(svcs.Notifications).RegisterRoutes(r)
		audithandler.NewHandler(svcs.Audit, perms).RegisterRoutes(r)
	})

	return router
}

// Run starts the background jobs and serves HTTP until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.Services.Jobs.Start(ctx)

	srv := &http.Server{
		Addr:              a.Config.Addr,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("perfeval server listening", "addr", a.Config.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	slog.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
}
