package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"parley/internal/adapters/config"
	"parley/internal/adapters/embeddings"
	"parley/internal/adapters/errors/noop"
	"parley/internal/adapters/errors/sentry"
	"parley/internal/adapters/kafka"
	"parley/internal/adapters/postgres"
	"parley/internal/adapters/redis"
	"parley/internal/consumers"
	"parley/internal/events"
	"parley/internal/metrics"
	pgrepo "parley/internal/repository/postgres"
	redisrepo "parley/internal/repository/redis"
	"parley/internal/services/derivation"
	"parley/internal/services/market"
	"parley/internal/services/proposal"
	roundservice "parley/internal/services/round"
	"parley/pkg/errors"
	"parley/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	defer logger.Sync()

	log := logger.Get()
	log.Infof("Starting %s in %s mode", cfg.App.Name, cfg.App.Env)

	errorTracker := initErrorTracker(cfg, log)
	logger.SetErrorTracker(errorTracker)

	pgClient, err := postgres.NewClient(cfg.Postgres)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer pgClient.Close()

	redisClient, err := redis.NewClient(cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	producer := kafka.NewProducer(kafka.ProducerConfig{Brokers: cfg.Kafka.Brokers})
	defer producer.Close()

	metrics.Init()

	roundSvc := initRoundService(cfg, pgClient, redisClient, producer, log)

	consumer := kafka.NewConsumer(kafka.ConsumerConfig{
		Brokers: cfg.Kafka.Brokers,
		GroupID: cfg.Kafka.GroupID,
		Topic:   kafka.TopicRoundRequests,
	})
	roundConsumer := consumers.NewRoundRequestConsumer(consumer, roundSvc, cfg.Engine.RoundLockTTL)

	log.Info("System initialized successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := roundConsumer.Start(ctx); err != nil && ctx.Err() == nil {
			log.Errorf("Round request consumer stopped: %v", err)
		}
	}()

	metricsSrv := startMetricsServer(cfg, log)
	defer shutdownMetricsServer(metricsSrv, log)

	waitForShutdown(ctx, cancel, errorTracker, log)
}

// initErrorTracker initializes error tracking (Sentry or no-op)
func initErrorTracker(cfg *config.Config, log *logger.Logger) errors.Tracker {
	if !cfg.ErrorTracking.Enabled || cfg.ErrorTracking.SentryDSN == "" {
		log.Info("Error tracking disabled")
		return noop.New()
	}

	tracker, err := sentry.New(cfg.ErrorTracking.SentryDSN, cfg.ErrorTracking.Environment)
	if err != nil {
		log.Warnf("Failed to initialize Sentry: %v", err)
		return noop.New()
	}

	log.Info("Error tracking initialized (Sentry)")
	return tracker
}

// initRoundService wires the full negotiation pipeline
func initRoundService(
	cfg *config.Config,
	pgClient *postgres.Client,
	redisClient *redis.Client,
	producer *kafka.Producer,
	log *logger.Logger,
) *roundservice.Service {
	db := pgClient.DB()

	sessionRepo := redisrepo.NewCachedSessionRepository(
		pgrepo.NewSessionRepository(db),
		redisClient.Client(),
		cfg.Engine.SessionCacheTTL,
	)
	personaRepo := pgrepo.NewPersonaRepository(db)
	termRepo := pgrepo.NewTermRepository(db)
	roundRepo := pgrepo.NewRoundRepository(db)
	snippetRepo := pgrepo.NewSnippetRepository(db)
	guidanceRepo := pgrepo.NewGuidanceRepository(db)
	benchmarkRepo := pgrepo.NewBenchmarkRepository(db)

	retriever := proposal.NewRetriever(
		snippetRepo,
		initEmbedder(cfg, log),
		cfg.Engine.CitationCap,
		cfg.Engine.RetrievalTimeout,
	)

	return roundservice.NewService(
		sessionRepo,
		personaRepo,
		termRepo,
		roundRepo,
		snippetRepo,
		market.NewService(guidanceRepo, benchmarkRepo),
		proposal.NewRegistry(retriever),
		derivation.NewService(personaRepo),
		redisClient,
		events.NewPublisher(producer),
		cfg.Engine.RoundLockTTL,
	)
}

// initEmbedder initializes the embeddings provider, nil when no API key
// is configured (retrieval then falls back to recency ranking)
func initEmbedder(cfg *config.Config, log *logger.Logger) embeddings.Provider {
	if cfg.Embeddings.OpenAIKey == "" {
		log.Info("Embeddings disabled, snippet retrieval uses recency ranking")
		return nil
	}

	provider, err := embeddings.NewOpenAIProvider(cfg.Embeddings.OpenAIKey, cfg.Embeddings.Model, cfg.Embeddings.Timeout)
	if err != nil {
		log.Warnf("Failed to initialize embeddings provider: %v", err)
		return nil
	}

	log.Infow("Embeddings initialized", "model", cfg.Embeddings.Model)
	return embeddings.NewRateLimitedProvider(provider, cfg.Embeddings.ReqsPerMinute)
}

// startMetricsServer exposes Prometheus metrics
func startMetricsServer(cfg *config.Config, log *logger.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	srv := &http.Server{
		Addr:              cfg.Metrics.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Infow("Metrics server listening", "addr", cfg.Metrics.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("Metrics server error: %v", err)
		}
	}()

	return srv
}

func shutdownMetricsServer(srv *http.Server, log *logger.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warnf("Metrics server shutdown: %v", err)
	}
}

// waitForShutdown waits for shutdown signal and performs graceful shutdown
func waitForShutdown(ctx context.Context, cancel context.CancelFunc, errorTracker errors.Tracker, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Info("Shutting down...")

	cancel()

	if errorTracker != nil {
		if err := errorTracker.Flush(ctx); err != nil {
			log.Warnf("Failed to flush error tracker: %v", err)
		}
	}

	log.Info("Shutdown complete")
}
