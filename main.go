package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/leePettigrew/it-triage-demo/internal/alerts"
	"github.com/leePettigrew/it-triage-demo/internal/classifier"
	"github.com/leePettigrew/it-triage-demo/internal/completion"
	"github.com/leePettigrew/it-triage-demo/internal/config"
	"github.com/leePettigrew/it-triage-demo/internal/corpus"
	"github.com/leePettigrew/it-triage-demo/internal/embedding"
	"github.com/leePettigrew/it-triage-demo/internal/events"
	"github.com/leePettigrew/it-triage-demo/internal/repository"
	"github.com/leePettigrew/it-triage-demo/internal/server"
	"github.com/leePettigrew/it-triage-demo/internal/worker"
)

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err) // Should not happen in development
	}
	defer func() {
		_ = logger.Sync() // Flushes buffer, if any
	}()

	// Load configuration
	cfgPath := "configs/config.yml"
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		cfgPath = envPath
	}
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	// Database connection
	db, err := repository.NewPostgresDB(cfg.Database.URL, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	repository.MigrateDB(db, logger)

	// Prototype example store shared by the corpus loader and the feedback
	// writer
	prototypes, err := corpus.NewStore(cfg.Prototypes.Dir, logger)
	if err != nil {
		logger.Fatal("Failed to initialize prototype store", zap.Error(err))
	}

	// External capabilities
	embedder := embedding.NewClient(cfg.Embedding.URL, cfg.Embedding.APIKey, cfg.Embedding.Model)
	completer := completion.NewClient(cfg.Completion.APIKey, cfg.Completion.Model)

	// Classification pipeline components
	loader := corpus.NewLoader(prototypes, embedder, logger)
	advisor := classifier.NewAdvisor(completer, cfg.Routing.TopK)
	estimator := classifier.NewEstimator(completer, logger)

	// Real-time event hub
	hub := events.NewHub(logger)

	// Context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go hub.Run(ctx)

	// Routing worker pool
	ticketRepo := repository.NewTicketRepository(db, logger)
	orchestrator := worker.NewOrchestrator(
		ticketRepo, loader, embedder, advisor, estimator, hub, nil,
		cfg.Routing.TopK,
		worker.Timeouts{
			Corpus:     time.Duration(cfg.Routing.CorpusTimeoutSeconds) * time.Second,
			Embedding:  time.Duration(cfg.Embedding.TimeoutSeconds) * time.Second,
			Completion: time.Duration(cfg.Completion.TimeoutSeconds) * time.Second,
		},
		logger,
	)
	pool := worker.NewPool(orchestrator, cfg.Routing.Workers, cfg.Routing.QueueSize, logger)

	// Operator alert bot (optional)
	bot, err := alerts.NewBot(cfg, pool, logger)
	if err != nil {
		logger.Warn("Failed to initialize operator alert bot, continuing without it", zap.Error(err))
		bot = nil
	}
	if bot != nil {
		orchestrator.SetAlerter(bot)
		go func() {
			if err := bot.Start(ctx); err != nil {
				logger.Error("Operator alert bot failed", zap.Error(err))
			}
		}()
	}

	pool.Start(ctx)

	// Initialize and run the server
	srv := server.NewServer(db, prototypes, pool, hub, logger)
	go func() {
		if err := srv.Run(cfg.Server.Port); err != nil {
			logger.Error("Server stopped", zap.Error(err))
			cancel()
		}
	}()

	<-ctx.Done()
	pool.Wait()
	logger.Info("Application stopped.")
}
