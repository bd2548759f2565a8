package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/snappy-loop/blogs/internal/app"
	"github.com/snappy-loop/blogs/internal/config"
	"github.com/snappy-loop/blogs/internal/handlers"
	"github.com/snappy-loop/blogs/internal/kafka"
	"github.com/snappy-loop/blogs/internal/ratelimit"
	"github.com/snappy-loop/blogs/internal/services"
)

func main() {
	// A missing .env file is fine; the environment wins over it.
	_ = godotenv.Load()

	// Setup logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	log.Info().Msg("Starting Blogs API")

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb, err := app.ConnectRedis(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	if rdb != nil {
		defer rdb.Close()
	}

	storageClient, err := app.NewStorage(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize storage client")
	}
	mail, err := app.NewMailer(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize mailer")
	}

	generation, err := app.BuildGeneration(ctx, cfg, app.Infra{Redis: rdb, Storage: storageClient, Mailer: mail})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to configure generation")
	}
	defer func() {
		if err := generation.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close provider clients")
		}
	}()

	// Batch jobs need Postgres and Kafka; without a database only the synchronous API runs.
	var jobs *services.JobService
	var health func() error
	if cfg.DatabaseURL != "" {
		db, err := app.ConnectDB(ctx, cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer db.Close()

		kafkaProducer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopicJobs)
		defer kafkaProducer.Close()

		jobs = services.NewJobService(db, kafkaProducer, cfg)
		health = db.Health
	} else {
		log.Warn().Msg("DATABASE_URL not set; batch jobs disabled")
	}

	var limiter ratelimit.Limiter
	if rdb != nil {
		limiter = ratelimit.NewRedis(rdb, "blogs:ratelimit:", cfg.RateLimitRequests, cfg.RateLimitWindow)
	} else {
		mem := ratelimit.NewMemory(cfg.RateLimitRequests, cfg.RateLimitWindow)
		go mem.RunSweeper(ctx, time.Minute)
		limiter = mem
	}

	var h *handlers.Handler
	if jobs != nil {
		h = handlers.NewHandler(generation, jobs, health)
	} else {
		h = handlers.NewHandler(generation, nil, health)
	}
	h.SetStreamTimeout(cfg.RequestTimeout)
	r := h.Router(limiter, cfg.RateLimitRequests)

	srv := &http.Server{
		Addr:        cfg.HTTPAddr,
		Handler:     handlers.AccessLog(handlers.WithTimeout(r, cfg.RequestTimeout)),
		ReadTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down API...")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown error")
	}
	log.Info().Msg("API exited")
}
