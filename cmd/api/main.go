package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"efactura/internal/anaf"
	"efactura/internal/artifact"
	"efactura/internal/config"
	"efactura/internal/database"
	"efactura/internal/database/migration"
	handlers "efactura/internal/http/handler"
	"efactura/internal/http/middleware"
	"efactura/internal/otel"
	"efactura/internal/repository/postgres"
	"efactura/internal/scheduler"
	"efactura/internal/service"
	"efactura/internal/storage"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	cfg := config.Load()
	ctx := context.Background()

	shutdownTracing, err := otel.Init(ctx, logger)
	if err != nil {
		logger.Fatal("failed to initialize tracing", zap.Error(err))
	}
	defer shutdownTracing(ctx)

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, logger); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	objStore, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		logger.Fatal("failed to initialize object storage", zap.Error(err))
	}

	invoiceRepo := postgres.NewInvoicePostgres(db)
	companyRepo := postgres.NewCompanyPostgres(db)
	checkpointRepo := postgres.NewCheckpointPostgres(db)

	tokens := anaf.NewStaticTokenProvider(cfg.Anaf.AccessToken)
	anafClient := anaf.NewHTTPClient(cfg.Anaf, tokens)
	retriever := artifact.NewRetriever(anafClient, objStore, logger)

	syncSvc := service.NewSyncService(companyRepo, invoiceRepo, checkpointRepo,
		anafClient, objStore, cfg.Sync, cfg.Anaf.MaxPages, logger)
	invoiceSvc := service.NewInvoiceService(invoiceRepo, companyRepo, retriever, logger)

	jobs := scheduler.New(syncSvc, cfg.Sync, logger)
	jobs.Start()

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
	})

	app.Use(otelfiber.Middleware())
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(logger))

	promMiddleware, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
	if err != nil {
		logger.Fatal("failed to register metrics", zap.Error(err))
	}
	app.Use(promMiddleware.Handler())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	handlers.RegisterRoutes(app, db, invoiceSvc, syncSvc)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	jobs.Stop()
	if err := app.Shutdown(); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
}
