package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Hugozera/apontamento/internal/domain/attendance"
	"github.com/Hugozera/apontamento/internal/domain/audit"
	"github.com/Hugozera/apontamento/internal/domain/employees"
	"github.com/Hugozera/apontamento/internal/domain/records"
	"github.com/Hugozera/apontamento/internal/domain/reports"
	"github.com/Hugozera/apontamento/internal/domain/tenant"
	"github.com/Hugozera/apontamento/internal/platform/config"
	"github.com/Hugozera/apontamento/internal/platform/crypto"
	"github.com/Hugozera/apontamento/internal/platform/db"
	"github.com/Hugozera/apontamento/internal/platform/jobs"
	"github.com/Hugozera/apontamento/internal/platform/metrics"
	"github.com/Hugozera/apontamento/internal/platform/store/memory"
	"github.com/Hugozera/apontamento/internal/platform/store/mongostore"
	"github.com/Hugozera/apontamento/internal/platform/store/postgres"
	attendancehandler "github.com/Hugozera/apontamento/internal/transport/http/handlers/attendance"
	audithandler "github.com/Hugozera/apontamento/internal/transport/http/handlers/audit"
	employeeshandler "github.com/Hugozera/apontamento/internal/transport/http/handlers/employees"
	maintenancehandler "github.com/Hugozera/apontamento/internal/transport/http/handlers/maintenance"
	reportshandler "github.com/Hugozera/apontamento/internal/transport/http/handlers/reports"
	"github.com/Hugozera/apontamento/internal/transport/http/middleware"
)

type App struct {
	Config     config.Config
	Store      records.Store
	DB         *pgxpool.Pool
	Mongo      *mongostore.Store
	Tenants    *tenant.Router
	Attendance *attendance.Service
	Employees  *employees.Service
	Reports    *reports.Service
	Audit      *audit.Service
	Jobs       *jobs.Service
	Metrics    *metrics.Collector
	Router     http.Handler
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	suffixes, err := cfg.Suffixes()
	if err != nil {
		return nil, err
	}
	sealer, err := crypto.New(cfg.DataEncryptionKey)
	if err != nil {
		return nil, err
	}

	app := &App{Config: cfg, Tenants: tenant.NewRouter(suffixes), Metrics: metrics.New()}
	if err := app.openStore(ctx); err != nil {
		return nil, err
	}

	app.Employees = employees.NewService(app.Store)
	app.Employees.StoreTimeout = cfg.StoreTimeout

	attendanceSvc := attendance.NewService(app.Store, app.Tenants)
	attendanceSvc.SubmitTimeout = cfg.SubmitTimeout
	attendanceSvc.StoreTimeout = cfg.StoreTimeout
	attendanceSvc.RequirePending = cfg.ResolveRequirePending
	attendanceSvc.Directory = app.Employees
	attendanceSvc.Observer = app.Metrics
	if sealer.Configured() {
		attendanceSvc.Sealer = sealer
	}
	app.Attendance = attendanceSvc

	app.Reports = reports.NewService(app.Store, app.Tenants)
	app.Reports.StoreTimeout = cfg.StoreTimeout
	app.Audit = audit.New(app.Store)
	app.Jobs = jobs.New(app.Store, cfg, attendanceSvc, app.Tenants.Tenants)
	app.Jobs.Failures = app.Metrics

	app.Router = app.routes()
	return app, nil
}

func (a *App) openStore(ctx context.Context) error {
	switch a.Config.StoreDriver {
	case config.StorePostgres:
		pool, err := db.Connect(ctx, a.Config.DatabaseURL)
		if err != nil {
			return fmt.Errorf("db connect: %w", err)
		}
		if a.Config.RunMigrations {
			if err := db.Migrate(ctx, pool, a.Config.MigrationsDir); err != nil {
				pool.Close()
				return fmt.Errorf("migrations: %w", err)
			}
		}
		a.DB = pool
		a.Store = postgres.New(pool)
	case config.StoreMongo:
		store, err := mongostore.Connect(ctx, a.Config.MongoURI, a.Config.MongoDatabase)
		if err != nil {
			return fmt.Errorf("mongo connect: %w", err)
		}
		a.Mongo = store
		a.Store = store
	default:
		slog.Warn("using in-memory record store; data is lost on restart")
		a.Store = memory.New()
	}
	return nil
}

func (a *App) routes() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Tenant)
	router.Use(chimw.RealIP)
	router.Use(middleware.Logger)
	router.Use(chimw.Recoverer)
	router.Use(middleware.Metrics(a.Metrics))
	router.Use(middleware.SecureHeaders(a.Config.Environment == "production"))
	router.Use(middleware.BodyLimit(a.Config.MaxBodyBytes))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		pinger, ok := a.Store.(records.Pinger)
		if !ok {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pinger.Ping(ctx); err != nil {
			http.Error(w, "store not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if a.Config.MetricsEnabled {
		router.With(chimw.NoCache).Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			if err := json.NewEncoder(w).Encode(a.Metrics.Snapshot()); err != nil {
				slog.Warn("metrics write failed", "err", err)
			}
		})
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(a.Config.RateLimitPerMinute, time.Minute))

		attendancehandler.NewHandler(a.Attendance, a.Audit).RegisterRoutes(r)
		employeeshandler.NewHandler(a.Employees, a.Audit).RegisterRoutes(r)
		reportshandler.NewHandler(a.Reports).RegisterRoutes(r)
		maintenancehandler.NewHandler(a.Jobs, a.Audit).RegisterRoutes(r)
		audithandler.NewHandler(a.Audit).RegisterRoutes(r)
	})

	return router
}

// Start launches background workers. They stop when ctx is cancelled.
func (a *App) Start(ctx context.Context) {
	a.Jobs.Start(ctx)
}

func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
	if a.Mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.Mongo.Close(ctx); err != nil {
			slog.Warn("mongo disconnect failed", "err", err)
		}
	}
}

func Run() {
	cfg := config.Load()
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))
	if err := run(cfg); err != nil {
		slog.Error("server failed", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("startup: %w", err)
	}
	defer app.Close()
	app.Start(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("server shutdown failed", "err", err)
		}
	}()

	slog.Info("attendance server listening", "addr", cfg.Addr, "store", cfg.StoreDriver, "tenants", app.Tenants.Tenants())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
