package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"parley/pkg/errors"
)

type Config struct {
	App           AppConfig
	Postgres      PostgresConfig
	Redis         RedisConfig
	Kafka         KafkaConfig
	Embeddings    EmbeddingsConfig
	Engine        EngineConfig
	Metrics       MetricsConfig
	ErrorTracking ErrorTrackingConfig
}

type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"parley"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Debug    bool   `envconfig:"DEBUG" default:"false"`
}

type PostgresConfig struct {
	Host     string `envconfig:"POSTGRES_HOST" required:"true"`
	Port     int    `envconfig:"POSTGRES_PORT" default:"5432"`
	User     string `envconfig:"POSTGRES_USER" required:"true"`
	Password string `envconfig:"POSTGRES_PASSWORD" required:"true"`
	Database string `envconfig:"POSTGRES_DB" required:"true"`
	SSLMode  string `envconfig:"POSTGRES_SSL_MODE" default:"disable"`
	MaxConns int    `envconfig:"POSTGRES_MAX_CONNS" default:"25"`
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST" required:"true"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type KafkaConfig struct {
	Brokers []string `envconfig:"KAFKA_BROKERS" required:"true"`
	GroupID string   `envconfig:"KAFKA_GROUP_ID" default:"parley"`
}

type EmbeddingsConfig struct {
	OpenAIKey     string        `envconfig:"OPENAI_API_KEY"`
	Model         string        `envconfig:"EMBEDDINGS_MODEL" default:"text-embedding-3-small"`
	Timeout       time.Duration `envconfig:"EMBEDDINGS_TIMEOUT" default:"10s"`
	ReqsPerMinute int           `envconfig:"EMBEDDINGS_REQS_PER_MINUTE" default:"500"`
}

// EngineConfig tunes the negotiation round pipeline
type EngineConfig struct {
	// Maximum citations attached to a single proposal
	CitationCap int `envconfig:"ENGINE_CITATION_CAP" default:"3"`

	// Lease duration for the per-session round lock
	RoundLockTTL time.Duration `envconfig:"ENGINE_ROUND_LOCK_TTL" default:"2m"`

	// Bounded timeout for snippet retrieval, degrade to no citations beyond it
	RetrievalTimeout time.Duration `envconfig:"ENGINE_RETRIEVAL_TIMEOUT" default:"5s"`

	// TTL for the write-through session cache
	SessionCacheTTL time.Duration `envconfig:"ENGINE_SESSION_CACHE_TTL" default:"5m"`
}

type MetricsConfig struct {
	Addr string `envconfig:"METRICS_ADDR" default:":9102"`
}

type ErrorTrackingConfig struct {
	Enabled     bool   `envconfig:"ERROR_TRACKING_ENABLED" default:"true"`
	Provider    string `envconfig:"ERROR_TRACKING_PROVIDER" default:"sentry"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"production"`
}

// Load reads configuration from environment variables
// It first tries to load .env file (useful for local development)
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if not exists)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process env config")
	}

	return &cfg, nil
}
