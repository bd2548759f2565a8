package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	// Server
	HTTPAddr       string
	LogLevel       string
	RequestTimeout time.Duration // 0 disables the per-request deadline

	// Database
	DatabaseURL       string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration
	DBConnMaxIdleTime time.Duration

	// Kafka
	KafkaBrokers       []string
	KafkaConsumerGroup string
	KafkaTopicJobs     string
	KafkaTopicWebhooks string

	// S3/Storage
	S3Endpoint     string
	S3Region       string
	S3Bucket       string
	S3AccessKey    string
	S3SecretKey    string
	S3PublicURL    string
	ArchiveEnabled bool // store generated markdown + image copies in the bucket

	// Redis (cache + shared rate limiter); empty means in-process fallbacks
	RedisURL string

	// Text providers
	OpenAIAPIKey      string
	OpenAIModel       string
	CerebrasAPIKey    string
	CerebrasBaseURL   string
	CerebrasModel     string
	KeywordsModel     string // small Cerebras model used for title suggestions
	AnthropicAPIKey   string
	AnthropicModel    string
	GeminiAPIKey      string
	GeminiAPIEndpoint string // overrides default Gemini API base URL
	GeminiModelText   string
	GeminiModelImage  string
	ImagenModel       string

	// TextChain is the ordered list of text providers; each step revises the previous draft.
	TextChain     []string
	ImageProvider string
	ImageStyle    string // pastel or minimal
	Temperature   float64
	MaxTokens     int

	// News
	NewsAPIKey     string
	NewsAPIBaseURL string
	TrendingTTL    time.Duration

	// Email
	SendGridAPIKey string
	MailFrom       string

	// Limits
	RateLimitRequests     int
	RateLimitWindow       time.Duration
	MaxKeywordsPerBatch   int
	MaxKeywordLength      int
	MaxConcurrentKeywords int

	// Webhook
	WebhookTimeout        time.Duration
	WebhookMaxRetries     int
	WebhookRetryBaseDelay time.Duration
	WebhookRetryMaxDelay  time.Duration
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		RequestTimeout: getEnvDuration("REQUEST_TIMEOUT", 5*time.Minute),

		DatabaseURL:       getEnv("DATABASE_URL", ""),
		DBMaxOpenConns:    clampMin(getEnvInt("DB_MAX_OPEN_CONNS", 25), 1),
		DBMaxIdleConns:    clampMin(getEnvInt("DB_MAX_IDLE_CONNS", 5), 1),
		DBConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		DBConnMaxIdleTime: getEnvDuration("DB_CONN_MAX_IDLE_TIME", 10*time.Minute),

		KafkaBrokers:       getEnvList("KAFKA_BROKERS", []string{"localhost:9092"}),
		KafkaConsumerGroup: getEnv("KAFKA_CONSUMER_GROUP", "blogs-worker-main"),
		KafkaTopicJobs:     getEnv("KAFKA_TOPIC_JOBS", "blogs.jobs.v1"),
		KafkaTopicWebhooks: getEnv("KAFKA_TOPIC_WEBHOOKS", "blogs.webhooks.v1"),

		S3Endpoint:     getEnv("S3_ENDPOINT", ""),
		S3Region:       getEnv("S3_REGION", "us-east-1"),
		S3Bucket:       getEnv("S3_BUCKET", ""),
		S3AccessKey:    getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:    getEnv("S3_SECRET_KEY", ""),
		S3PublicURL:    getEnv("S3_PUBLIC_URL", ""),
		ArchiveEnabled: getEnvBool("ARCHIVE_ENABLED", false),

		RedisURL: getEnv("REDIS_URL", ""),

		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:       getEnv("OPENAI_MODEL", "gpt-4o"),
		CerebrasAPIKey:    getEnv("CEREBRAS_API_KEY", ""),
		CerebrasBaseURL:   getEnv("CEREBRAS_BASE_URL", "https://api.cerebras.ai/v1"),
		CerebrasModel:     getEnv("CEREBRAS_MODEL", "llama3.1-70b"),
		KeywordsModel:     getEnv("KEYWORDS_MODEL", "llama3.1-8b"),
		AnthropicAPIKey:   getEnv("ANTHROPIC_API_KEY", ""),
		AnthropicModel:    getEnv("ANTHROPIC_MODEL", "claude-3-5-sonnet-20240620"),
		GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
		GeminiAPIEndpoint: getEnv("GEMINI_API_ENDPOINT", ""),
		GeminiModelText:   getEnv("GEMINI_MODEL_TEXT", "gemini-2.5-flash"),
		GeminiModelImage:  getEnv("GEMINI_MODEL_IMAGE", "gemini-3-pro-image-preview"),
		ImagenModel:       getEnv("IMAGEN_MODEL", "imagen-4.0-generate-001"),

		TextChain:     getEnvList("TEXT_CHAIN", []string{"cerebras"}),
		ImageProvider: getEnv("IMAGE_PROVIDER", "dalle"),
		ImageStyle:    getEnv("IMAGE_STYLE", "pastel"),
		Temperature:   getEnvFloat("TEXT_TEMPERATURE", 0.8),
		MaxTokens:     clampMin(getEnvInt("TEXT_MAX_TOKENS", 4096), 1),

		NewsAPIKey:     getEnv("NEWS_API_KEY", ""),
		NewsAPIBaseURL: getEnv("NEWS_API_BASE_URL", "https://newsapi.org"),
		TrendingTTL:    getEnvDuration("TRENDING_TTL", 30*time.Minute),

		SendGridAPIKey: getEnv("SENDGRID_API_KEY", ""),
		MailFrom:       getEnv("MAIL_FROM", "help@swirlwebdesign.com"),

		RateLimitRequests:     clampMin(getEnvInt("RATE_LIMIT_REQUESTS", 50), 1),
		RateLimitWindow:       getEnvDuration("RATE_LIMIT_WINDOW", 24*time.Hour),
		MaxKeywordsPerBatch:   clampMin(getEnvInt("MAX_KEYWORDS_PER_BATCH", 10), 1),
		MaxKeywordLength:      clampMin(getEnvInt("MAX_KEYWORD_LENGTH", 200), 1),
		MaxConcurrentKeywords: clampMin(getEnvInt("MAX_CONCURRENT_KEYWORDS", 5), 1),

		WebhookTimeout:        getEnvDuration("WEBHOOK_TIMEOUT", 30*time.Second),
		WebhookMaxRetries:     clampMin(getEnvInt("WEBHOOK_MAX_RETRIES", 5), 1),
		WebhookRetryBaseDelay: getEnvDuration("WEBHOOK_RETRY_BASE_DELAY", 30*time.Second),
		WebhookRetryMaxDelay:  getEnvDuration("WEBHOOK_RETRY_MAX_DELAY", 30*time.Minute),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvList splits a comma-separated value, dropping empty items.
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

// clampMin returns v if v >= min, otherwise min. Used to ensure config values are in valid range.
func clampMin(v, min int) int {
	if v < min {
		return min
	}
	return v
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
