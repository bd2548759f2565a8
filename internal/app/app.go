// Package app wires configuration into the services shared by the cmd binaries.
package app

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/snappy-loop/blogs/internal/agents"
	"github.com/snappy-loop/blogs/internal/cache"
	"github.com/snappy-loop/blogs/internal/config"
	"github.com/snappy-loop/blogs/internal/database"
	"github.com/snappy-loop/blogs/internal/keywords"
	"github.com/snappy-loop/blogs/internal/llm"
	"github.com/snappy-loop/blogs/internal/mailer"
	"github.com/snappy-loop/blogs/internal/news"
	"github.com/snappy-loop/blogs/internal/services"
	"github.com/snappy-loop/blogs/internal/storage"
	"github.com/snappy-loop/blogs/internal/workflow"
)

// Infra holds the optional backing services. Nil fields fall back to in-process
// implementations or disable the features needing them.
type Infra struct {
	Redis   *redis.Client
	Storage *storage.Client
	Mailer  *mailer.SendGrid
}

// ConnectRedis parses url and pings the server. An empty url returns a nil client.
func ConnectRedis(ctx context.Context, url string) (*redis.Client, error) {
	if url == "" {
		log.Info().Msg("REDIS_URL not set; using in-process cache and rate limiter")
		return nil, nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	log.Info().Str("addr", opts.Addr).Msg("Connected to Redis")
	return rdb, nil
}

// ConnectDB connects to Postgres with the configured pool and applies migrations.
func ConnectDB(ctx context.Context, cfg *config.Config) (*database.DB, error) {
	db, err := database.Connect(ctx, cfg.DatabaseURL, database.Pool{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
	})
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return db, nil
}

// NewStorage returns an S3 client, or nil when no bucket is configured.
func NewStorage(cfg *config.Config) (*storage.Client, error) {
	if cfg.S3Bucket == "" {
		return nil, nil
	}
	return storage.NewClient(cfg.S3Endpoint, cfg.S3Region, cfg.S3Bucket, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3PublicURL)
}

// NewMailer returns a SendGrid mailer, or nil when no API key is configured.
func NewMailer(cfg *config.Config) (*mailer.SendGrid, error) {
	if cfg.SendGridAPIKey == "" {
		return nil, nil
	}
	return mailer.NewSendGrid(cfg.SendGridAPIKey, cfg.MailFrom)
}

// NewCacheStore returns the Redis-backed store when rdb is set, else an in-process one.
func NewCacheStore(rdb *redis.Client) cache.Store {
	if rdb != nil {
		return cache.NewRedis(rdb)
	}
	return cache.NewMemory()
}

// BuildGeneration builds the configured agents and workflow and the service on top of them.
// The text chain and image agent are required; news, keywords, mail and archive are optional.
func BuildGeneration(ctx context.Context, cfg *config.Config, infra Infra) (*services.GenerationService, error) {
	chain, err := agents.BuildTextChain(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("build text chain: %w", err)
	}

	var uploader agents.Uploader
	if infra.Storage != nil {
		uploader = infra.Storage
	}
	image, err := agents.BuildImageAgent(ctx, cfg, uploader)
	if err != nil {
		return nil, fmt.Errorf("build image agent: %w", err)
	}

	wf, err := workflow.New(image, chain...)
	if err != nil {
		return nil, err
	}

	deps := services.GenerationDeps{
		Workflow: wf,
		Blog:     chain[0],
		Image:    image,
	}

	store := NewCacheStore(infra.Redis)
	if cfg.NewsAPIKey != "" {
		deps.News = news.NewClient(cfg.NewsAPIBaseURL, cfg.NewsAPIKey, cache.NewLoader(store, "trending", cfg.TrendingTTL))
	} else {
		log.Warn().Msg("NEWS_API_KEY not set; trending stories disabled")
	}

	completer, err := agents.NewCompleter(ctx, cfg, agents.ProviderCerebras, llm.TextOptions{
		Model:       cfg.KeywordsModel,
		Temperature: keywords.Temperature,
		MaxTokens:   keywords.MaxTokens,
	})
	if err != nil {
		log.Warn().Err(err).Msg("Keyword suggestions disabled")
	} else {
		deps.Keywords = keywords.NewGenerator(completer, string(agents.ProviderCerebras), cache.NewLoader(store, "keywords", cfg.TrendingTTL))
	}

	if infra.Mailer != nil {
		deps.Mailer = infra.Mailer
	}
	if infra.Storage != nil {
		deps.Archive = infra.Storage
	}

	names := make([]string, len(chain))
	for i, a := range chain {
		names[i] = a.Name()
	}
	log.Info().
		Strs("text_chain", names).
		Str("image_agent", image.Name()).
		Bool("news", deps.News != nil).
		Bool("keywords", deps.Keywords != nil).
		Bool("mailer", deps.Mailer != nil).
		Bool("archive", deps.Archive != nil).
		Msg("Generation service configured")

	return services.NewGenerationService(deps, cfg), nil
}
