package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"street2ivy/internal/backend"
	"street2ivy/internal/platform/config"
	"street2ivy/internal/platform/database"
	"street2ivy/internal/platform/health"
	"street2ivy/internal/platform/logger"
	"street2ivy/internal/report"
	tenanthandler "street2ivy/internal/tenant/handler"
	tenantmetrics "street2ivy/internal/tenant/metrics"
	"street2ivy/internal/tenant/models"
	"street2ivy/internal/tenant/registry"
	"street2ivy/internal/tenant/resolver"
	"street2ivy/internal/tenant/store"
	httptransport "street2ivy/internal/transport/http"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal service packages.
func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New(slog.LevelInfo).Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	log.Info("initializing street2ivy server",
		"addr", cfg.Addr,
		"base_domain", cfg.BaseDomain,
		"relaxed_mode", cfg.RelaxedMode,
		"backend_url", cfg.Backend.BaseURL,
	)
	if cfg.RelaxedMode {
		log.Warn("relaxed mode is enabled; tenant override headers are honored")
	}
	if !cfg.Backend.Configured() {
		log.Warn("no default backend credentials; tenants without their own credentials will be rejected")
	}

	// Tenant store: Postgres when a database URL is configured, in-memory
	// otherwise.
	dbCfg := database.DefaultConfig()
	dbCfg.URL = cfg.DatabaseURL
	pool, err := database.New(dbCfg)
	if err != nil {
		log.Error("database connection failed", "error", err)
		os.Exit(1)
	}

	var tenantStore store.Store
	if pool != nil {
		tenantStore = store.NewPostgres(pool.DB())
		log.Info("using postgres tenant store")
	} else {
		tenantStore = store.NewInMemory()
		log.Warn("no database configured; tenant records will not survive restarts")
	}

	tMetrics := tenantmetrics.New()
	reg := registry.New(tenantStore,
		registry.WithLogger(log),
		registry.WithMetrics(tMetrics),
		registry.WithDefaultTenant(cfg.DefaultTenant.Name, cfg.DefaultTenant.DisplayName),
	)

	bootCtx, cancelBoot := context.WithTimeout(context.Background(), 10*time.Second)
	if err := reg.Bootstrap(bootCtx); err != nil {
		cancelBoot()
		log.Error("tenant bootstrap failed", "error", err)
		os.Exit(1)
	}
	cancelBoot()

	// Backend client cache with the process-wide fallback account.
	clients := backend.NewCache(
		backend.NewDefaultFactory(backend.Config{
			BaseURL: cfg.Backend.BaseURL,
			Timeout: cfg.Backend.Timeout,
		}, log),
		models.Credentials{
			ClientID:     cfg.Backend.ClientID,
			ClientSecret: cfg.Backend.ClientSecret,
		},
		backend.WithCacheLogger(log),
		backend.WithCacheMetrics(backend.NewMetrics()),
	)

	reports := report.New(clients,
		report.WithLogger(log),
		report.WithMetrics(report.NewMetrics()),
	)

	healthHandler := health.New(cfg.BaseDomain)
	if pool != nil {
		healthHandler.RegisterCheck("database", pool.Health)
	}

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Logger:         log,
		RequestTimeout: cfg.Timeout,
		Resolver: resolver.New(reg, cfg.BaseDomain,
			resolver.WithLogger(log),
			resolver.WithMetrics(tMetrics),
			resolver.WithRelaxedMode(cfg.RelaxedMode),
		),
		Reports:    report.NewHandler(reports, log),
		Admin:      tenanthandler.New(reg, clients, log),
		Health:     healthHandler,
		AdminToken: cfg.AdminToken,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Info("starting http server", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	if pool != nil {
		if err := pool.Close(); err != nil {
			log.Error("database close failed", "error", err)
		}
	}

	log.Info("server stopped")
}
