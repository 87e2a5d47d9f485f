package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"github.com/sitehaven/sitehaven/pkg/api"
	"github.com/sitehaven/sitehaven/pkg/audit"
	"github.com/sitehaven/sitehaven/pkg/auth"
	"github.com/sitehaven/sitehaven/pkg/config"
	"github.com/sitehaven/sitehaven/pkg/middleware"
	"github.com/sitehaven/sitehaven/pkg/observability"
	"github.com/sitehaven/sitehaven/pkg/provision"
	"github.com/sitehaven/sitehaven/pkg/resources"
	"github.com/sitehaven/sitehaven/pkg/tenants"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "sitehaven: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)
	logger.WithFields(map[string]interface{}{
		"port":        cfg.Server.Port,
		"health_port": cfg.Server.HealthPort,
	}).Info("starting sitehaven")

	ctx := context.Background()

	otelProviders, err := observability.InitOTel(ctx, observability.OTelConfig{
		Enabled:        cfg.Observability.OTelEnabled,
		Endpoint:       cfg.Observability.OTelEndpoint,
		ServiceName:    cfg.Observability.OTelServiceName,
		ServiceVersion: cfg.Observability.OTelServiceVersion,
		Insecure:       cfg.Observability.OTelInsecure,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("database is unreachable: %w", err)
	}

	if err := tenants.RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("migrations failed: %w", err)
	}
	logger.Info("migrations applied")

	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.URL,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.WithField("error", err.Error()).Warn("redis is unreachable, caching and rate limiting degraded")
		}
	}

	// Tenant service, optionally wrapped with the Redis domain cache.
	var tenantService tenants.Service = tenants.NewPostgresService(db)
	if redisClient != nil {
		tenantService = tenants.NewRedisCache(tenantService, redisClient, tenants.DefaultCacheTTL)
	}

	names, err := resources.NewNameResolver(tenantService)
	if err != nil {
		return err
	}

	userStore := auth.NewPostgresUserStore(db)
	sessionStore := auth.NewPostgresSessionStore(db)
	sessions := auth.NewSessionManager(userStore, sessionStore, cfg.Auth.SessionTTL)

	sweeper, err := auth.NewSessionSweeper(sessionStore, cfg.Auth.SweepSchedule, logger)
	if err != nil {
		return fmt.Errorf("invalid sweep schedule: %w", err)
	}
	sweeper.Start()
	defer sweeper.Stop()

	var auditLogger audit.Logger = audit.NoOpLogger{}
	if cfg.Observability.AuditEnabled {
		dbLogger, err := audit.NewDBLogger(db)
		if err != nil {
			return err
		}
		auditLogger = dbLogger
	}

	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics()
	}

	var rateLimiter *middleware.DistributedRateLimiter
	if cfg.RateLimit.Enabled && redisClient != nil {
		rateLimiter = middleware.NewDistributedRateLimiter(redisClient, &middleware.RateLimitConfig{
			RequestsPerWindow: cfg.RateLimit.RequestsPerWindow,
			WindowDuration:    cfg.RateLimit.WindowDuration,
		}, "sitehaven:ratelimit")
	}

	store := resources.NewPostgresStore(db)
	registry := resources.DefaultRegistry()
	provisioner := provision.NewProvisioner(tenantService, store, userStore, registry)

	server := api.NewServer(api.Dependencies{
		Logger:      logger,
		Sessions:    sessions,
		Users:       userStore,
		Tenants:     tenantService,
		Store:       store,
		Names:       names,
		Registry:    registry,
		Provisioner: provisioner,
		Audit:       auditLogger,
		Metrics:     metrics,
		RateLimiter: rateLimiter,
		Cookies: api.CookieConfig{
			Secure: cfg.Auth.CookieSecure,
			Domain: cfg.Auth.CookieDomain,
		},
		TracingEnabled: cfg.Observability.OTelEnabled,
	})

	apiServer := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      server,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	healthServer := &http.Server{
		Addr:    cfg.Server.Host + ":" + cfg.Server.HealthPort,
		Handler: healthMux(db, redisClient, metrics),
	}

	var group errgroup.Group
	group.Go(func() error {
		logger.WithField("addr", apiServer.Addr).Info("api server listening")
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	group.Go(func() error {
		logger.WithField("addr", healthServer.Addr).Info("health server listening")
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	group.Go(func() error {
		hooks := []func(context.Context) error{}
		if otelProviders != nil {
			hooks = append(hooks, otelProviders.Shutdown)
		}
		observability.GracefulShutdown(logger, cfg.Server.ShutdownTimeout, []*http.Server{apiServer, healthServer}, hooks...)
		return nil
	})

	return group.Wait()
}

func healthMux(db *sql.DB, redisClient *redis.Client, metrics *observability.Metrics) http.Handler {
	checker := observability.NewHealthChecker(db, redisClient)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", checker.Liveness)
	mux.HandleFunc("/readyz", checker.Readiness)
	if metrics != nil {
		mux.Handle("/metrics", metrics.Handler())
	}
	return mux
}
