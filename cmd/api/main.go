package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/impactlens/internal/advisor"
	httptransport "github.com/spec-kit/impactlens/internal/api/http"
	"github.com/spec-kit/impactlens/internal/api/http/handlers"
	"github.com/spec-kit/impactlens/internal/auth"
	"github.com/spec-kit/impactlens/internal/config"
	"github.com/spec-kit/impactlens/internal/events"
	"github.com/spec-kit/impactlens/internal/jira"
	"github.com/spec-kit/impactlens/internal/observability"
	"github.com/spec-kit/impactlens/internal/persistence"
	"github.com/spec-kit/impactlens/internal/repository"
	"github.com/spec-kit/impactlens/internal/service"
	"github.com/spec-kit/impactlens/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	ticketStore := repository.NewTicketStore(pool, cfg.Jira.SearchLimit)
	analysisRepo := repository.NewAnalysisRepository(pool)

	var source jira.TicketSource
	if cfg.Jira.BaseURL != "" {
		source = jira.NewClient(cfg.Jira, logger)
	} else {
		logger.Warn("no jira base url configured, using sandbox ticket source")
		source = jira.NewSandboxSource(cfg.Jira.SearchLimit)
	}

	var insight advisor.InsightAdvisor
	if cfg.Advisor.APIKey != "" {
		insight = advisor.NewOpenAIClient(cfg.Advisor, logger)
	} else {
		logger.Warn("no advisor api key configured, using sandbox advisor")
		insight = advisor.NewSandboxAdvisor(8)
	}

	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()

	analysisService := service.NewAnalysisService(cfg.Analysis, service.AnalysisDependencies{
		TicketStore: ticketStore,
		Source:      source,
		Advisor:     insight,
		HistoryRepo: analysisRepo,
		Redis:       redis,
		Dispatcher:  dispatcher,
		Metrics:     metrics,
		Logger:      logger,
	})

	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	retention := worker.NewRetentionWorker(ticketStore, analysisService,
		cfg.Analysis.RetentionSweepInterval(), logger)
	retention.Start(ctx)

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authMiddleware := auth.NewAuthMiddleware(tokenManager)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Analysis:       handlers.NewAnalysisHandler(analysisService),
		Token:          handlers.NewTokenHandler(tokenManager, cfg.Auth.ServiceAPIKey),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
