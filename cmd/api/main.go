package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/complium/asset-inventory/internal/config"
	"github.com/complium/asset-inventory/internal/db"
	"github.com/complium/asset-inventory/internal/handlers"
	"github.com/complium/asset-inventory/internal/inventory"
	"github.com/complium/asset-inventory/internal/middleware"
	"github.com/complium/asset-inventory/internal/repo"
	"github.com/complium/asset-inventory/internal/scheduler"
)

func main() {
	cfg := config.Load()
	setupLogger(cfg)

	database, err := db.Connect(cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBUser, cfg.DBPass)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer database.Close()
	database.SetMaxOpenConns(cfg.DBMaxOpenConns)
	database.SetMaxIdleConns(cfg.DBMaxIdleConns)

	dbURL := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err := db.Run(dbURL); err != nil {
		slog.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	manager := inventory.NewManager(repo.NewAssetRepo(database), inventory.Options{
		Debounce: cfg.Debounce,
		PageSize: cfg.PageSize,
		CacheTTL: cfg.CacheTTL,
	})
	defer manager.Teardown()

	sweeper := &scheduler.Sweeper{Manager: manager, Audit: repo.NewAuditRepo(database)}
	stopSweeper, err := sweeper.Start(cfg.ReviewSweepCron)
	if err != nil {
		slog.Error("invalid review sweep cron", "expr", cfg.ReviewSweepCron, "error", err)
		os.Exit(1)
	}
	defer stopSweeper()

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      newRouter(database, manager, cfg),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("api listening", "port", cfg.Port, "env", cfg.Env)
		var err error
		if cfg.TLSCertFile != "" && cfg.TLSKeyFile != "" {
			err = srv.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile)
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("shutdown failed", "error", err)
	}
}

func setupLogger(cfg config.Config) {
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, nil)
	} else {
		handler = slog.NewTextHandler(os.Stdout, nil)
	}
	slog.SetDefault(slog.New(handler))
}

// newRouter assembles the full middleware chain and route table. It takes
// collaborators rather than config-only so tests can inject a sqlmock DB
// and an in-memory store.
func newRouter(database *sql.DB, manager *inventory.Manager, cfg config.Config) http.Handler {
	auth := &handlers.AuthHandler{
		UserRepo:    repo.NewUserRepo(database),
		Secret:      []byte(cfg.JWTSecret),
		ExpireHours: cfg.JWTExpireHours,
	}
	inv := &handlers.InventoryHandler{
		Manager: manager,
		Audit:   repo.NewAuditRepo(database),
	}
	audit := &handlers.AuditHandler{Repo: repo.NewAuditRepo(database)}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.RequestLog)
	r.Use(middleware.Recoverer)
	r.Use(middleware.SecurityHeaders(cfg.TLSCertFile != ""))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	}
	r.Use(middleware.Prometheus)
	r.Use(middleware.MaxBytes(5 << 20))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		if err := database.PingContext(r.Context()); err != nil {
			handlers.JSONError(w, "database unreachable", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ready"))
	})
	r.Method("GET", "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthRateLimiter().Middleware)
		r.Post("/auth/register", auth.Register)
		r.Post("/auth/login", auth.Login)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.JWTMiddleware([]byte(cfg.JWTSecret)))

		r.Get("/assets", inv.ListAssets)
		r.Get("/assets/stats", inv.Stats)
		r.Get("/assets/{id}", inv.GetAsset)
		r.Post("/assets", inv.CreateAsset)
		r.Put("/assets/{id}", inv.UpdateAsset)
		r.Delete("/assets", inv.DeleteAssets)
		r.Post("/assets/import", inv.ImportAssets)
		r.Post("/assets/refresh", inv.RefreshAssets)

		r.Get("/assets/selection", inv.Selection)
		r.Post("/assets/selection", inv.Selection)
		r.Delete("/assets/selection", inv.Selection)

		r.Get("/audit", audit.List)
	})

	return r
}
