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

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/aegis-iam/aegis/internal/app"
	"github.com/aegis-iam/aegis/internal/assignments"
	"github.com/aegis-iam/aegis/internal/audit"
	"github.com/aegis-iam/aegis/internal/authz"
	"github.com/aegis-iam/aegis/internal/catalog"
	"github.com/aegis-iam/aegis/internal/identity"
	"github.com/aegis-iam/aegis/internal/observability"
	"github.com/aegis-iam/aegis/internal/roles"
	"github.com/aegis-iam/aegis/internal/shared"
	"github.com/aegis-iam/aegis/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := pgxpool.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	auditRecorder := shared.NewAuditRecorder(dbpool)

	userRepo := identity.NewRepository(dbpool)
	sessions := identity.NewSessionStore(redisClient, cfg.SessionTTL)
	identityMiddleware := identity.Middleware{Sessions: sessions, Users: userRepo, Logger: logger}

	catalogRepo := catalog.NewRepository(dbpool)
	catalogService := catalog.NewService(catalogRepo)
	catalogHandler := catalog.NewHandler(logger, catalogService)

	decisionCache := authz.NewDecisionCache(redisClient, cfg.DecisionCacheTTL)
	resolver := authz.NewResolver(authz.NewPgStore(dbpool))
	authzService := authz.NewService(resolver, decisionCache, metrics, logger)
	authzMiddleware := authz.Middleware{Service: authzService, Logger: logger}
	authzHandler := authz.NewHandler(logger, authzService)

	rolesRepo := roles.NewRepository(dbpool)
	rolesService := roles.NewService(rolesRepo, catalogService, auditRecorder, authzService, logger)
	rolesHandler := roles.NewHandler(logger, rolesService, authzMiddleware)

	assignmentsRepo := assignments.NewRepository(dbpool)
	assignmentsService := assignments.NewService(assignmentsRepo, userRepo, rolesRepo, auditRecorder, authzService, logger)
	assignmentsHandler := assignments.NewHandler(logger, assignmentsService, authzMiddleware)

	auditRepo := audit.NewRepository(dbpool)
	auditService := audit.NewService(auditRepo)
	auditHandler := audit.NewHandler(logger, auditService)

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, jobClient, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		Identity:           identityMiddleware,
		Authz:              authzMiddleware,
		CatalogHandler:     catalogHandler,
		RolesHandler:       rolesHandler,
		AssignmentsHandler: assignmentsHandler,
		AuthzHandler:       authzHandler,
		AuditHandler:       auditHandler,
		JobHandler:         jobHandler,
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", slog.Any("error", err))
	}
	logger.Info("server stopped")
}
