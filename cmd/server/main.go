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

	"task-forge/api/rest/handlers"
	"task-forge/api/rest/routes"
	"task-forge/config"
	"task-forge/core/monitoring"
	"task-forge/core/orchestration"
	"task-forge/core/repository"
	"task-forge/core/winner"
	"task-forge/logging"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Server exited with error", zap.Error(err))
	}
	logger.Info("Server exited")
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize event trail
	var events repository.EventRepository
	if cfg.EventsDatabaseURL != "" {
		db, err := repository.NewDB(cfg.EventsDatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		events = repository.NewPostgresEventRepository(db)
		logger.Info("Event database connected")
	}

	// Initialize repositories
	store := repository.NewSubmissionStore()
	jobRepo := repository.NewJobRepository(events, logger)

	httpClient := &http.Client{}
	client := orchestration.New(cfg, orchestration.Dependencies{
		Store:      store,
		Jobs:       jobRepo,
		HTTPClient: httpClient,
		Logger:     logger,
	})
	logger.Info("Orchestration client ready",
		zap.String("mode", string(client.Mode())),
		zap.String("upstream", cfg.UpstreamEndpoint()))

	finalizer := winner.NewFinalizer(store, jobRepo, logger)
	exporter := monitoring.NewMetricsExporter(jobRepo, store)

	r := mux.NewRouter()
	routes.SetupRoutes(r, routes.Handlers{
		Jobs:      handlers.NewJobHandler(client, finalizer, jobRepo, logger),
		Dashboard: handlers.NewDashboardHandler(exporter),
		Gateway: handlers.NewGatewayHandler(cfg.UpstreamEndpoint(),
			&http.Client{Timeout: cfg.UpstreamTimeout}, logger),
	}, logger)

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting server", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
