package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/zenGate-Global/mealvote/contracts"
	"github.com/zenGate-Global/mealvote/platform/go/authz"
	platformlogging "github.com/zenGate-Global/mealvote/platform/go/logging"
	"github.com/zenGate-Global/mealvote/platform/go/persistence"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := platformlogging.NewLogger(platformlogging.Config{
		Component: "mealvote-api",
		Level:     cfg.LogLevel,
		Format:    cfg.LogFormat,
	})
	if err != nil {
		log.Fatalf("init zap logger: %v", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	defaultTenant, err := cfg.defaultTenant()
	if err != nil {
		logger.Fatal("resolve default tenant", zap.Error(err))
	}

	legacy := authz.DefaultLegacyRoleMap()
	if cfg.LegacyRoleMapFile != "" {
		legacy, err = authz.LoadLegacyRoleMapFile(cfg.LegacyRoleMapFile)
		if err != nil {
			logger.Fatal("load legacy role map", zap.String("path", cfg.LegacyRoleMapFile), zap.Error(err))
		}
	}

	var (
		repos repositories
		ready func() error
	)
	switch cfg.Storage {
	case "memory":
		logger.Warn("using in-memory storage; data is lost on restart")
		repos = memoryRepositories()
	default:
		pool, err := persistence.NewPool(ctx, cfg.poolConfig())
		if err != nil {
			logger.Fatal("init postgres pool", zap.Error(err))
		}
		defer persistence.ClosePool(pool)

		stores, err := persistence.OpenStores(ctx, pool, cfg.DatabaseSchema)
		if err != nil {
			logger.Fatal("bootstrap schema", zap.String("schema", cfg.DatabaseSchema), zap.Error(err))
		}
		repos = postgresRepositories(stores)
		ready = func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return pool.Ping(pingCtx)
		}
	}

	sink, closeSink, err := buildAuditSink(cfg, logger.Named("audit"))
	if err != nil {
		logger.Fatal("init audit sink", zap.Error(err))
	}
	defer closeSink()

	app, err := newApplication(ctx, repos, appOptions{
		defaultTenant: defaultTenant,
		legacy:        legacy,
		auditSink:     sink,
		seedRoles:     cfg.SeedDefaultRoles,
	}, logger)
	if err != nil {
		logger.Fatal("wire application", zap.Error(err))
	}

	authMiddleware, err := buildAuthMiddleware(ctx, cfg, app.tenants, logger)
	if err != nil {
		logger.Fatal("init auth middleware", zap.Error(err))
	}

	contract, err := contracts.Load()
	if err != nil {
		logger.Fatal("load openapi contract", zap.Error(err))
	}

	server := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: newRouter(app, routerConfig{
			requestTimeout: cfg.RequestTimeout,
			auth:           authMiddleware,
			contract:       contract,
			ready:          ready,
		}),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	go func() {
		logger.Info("starting api server",
			zap.String("port", cfg.Port),
			zap.String("storage", cfg.Storage),
			zap.String("auth", cfg.AuthProvider),
			zap.String("defaultTenant", defaultTenant.Slug),
		)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server listen failed", zap.Error(err))
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
