package config

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	pkgRetry "github.com/physai/textbook-backend/internal/pkg/retry"
)

// Config holds the application configuration
type Config struct {
	// Server configuration
	ServerAddr string `env:"SERVER_ADDR,notEmpty"`

	// Database configuration
	DatabaseURL         string        `env:"DATABASE_URL,notEmpty"`
	DBMaxConns          int           `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns          int           `env:"DB_MIN_CONNS" envDefault:"5"`
	DBMaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	DBMaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	DBHealthCheckPeriod time.Duration `env:"DB_HEALTH_CHECK_PERIOD" envDefault:"1m"`

	// External service configurations
	OpenAICfg OpenAIConnectorConfig `envPrefix:"OPENAI_"`
	QdrantCfg QdrantConnectorConfig `envPrefix:"QDRANT_"`

	// Retrieval configuration
	RAGCfg RAGConfig `envPrefix:"RAG_"`

	// Ingestion configuration
	IngestCfg IngestConfig `envPrefix:"INGEST_"`

	// HTTP surface configuration
	CORSAllowedOrigins []string        `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:3000"`
	RateLimitCfg       RateLimitConfig `envPrefix:"RATE_LIMIT_"`
	CacheTTLChat       time.Duration   `env:"CACHE_TTL_CHAT" envDefault:"1h"`

	// Logging configuration
	LogLevel string `env:"LOG_LEVEL,notEmpty"`

	// Mock configuration
	EnableMocks bool `env:"ENABLE_MOCKS" envDefault:"false"`

	// Environment (set from flag, not from env var)
	Environment string
}

type OpenAIConnectorConfig struct {
	HTTPClientConfig
	Model          string               `env:"MODEL" envDefault:"gpt-4o-mini"`
	EmbeddingModel string               `env:"EMBEDDING_MODEL" envDefault:"text-embedding-3-small"`
	Temperature    float64              `env:"TEMPERATURE" envDefault:"0.7"`
	MaxTokens      int                  `env:"MAX_TOKENS" envDefault:"1000"`
	Retry          pkgRetry.RetryConfig `envPrefix:"RETRY_"`
}

type QdrantConnectorConfig struct {
	HTTPClientConfig
	Collection string               `env:"COLLECTION" envDefault:"textbook_embeddings"`
	VectorSize int                  `env:"VECTOR_SIZE" envDefault:"1536"`
	Retry      pkgRetry.RetryConfig `envPrefix:"RETRY_"`
}

type RAGConfig struct {
	TopK        int     `env:"TOP_K" envDefault:"5"`
	MinScore    float64 `env:"MIN_SCORE" envDefault:"0.7"`
	MinQueryLen int     `env:"MIN_QUERY_LEN" envDefault:"2"`
	MaxQueryLen int     `env:"MAX_QUERY_LEN" envDefault:"500"`
}

type IngestConfig struct {
	ContentPath    string `env:"CONTENT_PATH" envDefault:"../frontend/docs"`
	MaxChunkSize   int    `env:"MAX_CHUNK_SIZE" envDefault:"1000"`
	Overlap        int    `env:"OVERLAP" envDefault:"200"`
	EmbedBatchSize int    `env:"EMBED_BATCH_SIZE" envDefault:"64"`
	MinSectionLen  int    `env:"MIN_SECTION_LEN" envDefault:"100"`
}

type RateLimitConfig struct {
	ChatPerMinute     int `env:"CHAT_PER_MINUTE" envDefault:"100"`
	FeedbackPerMinute int `env:"FEEDBACK_PER_MINUTE" envDefault:"100"`
	Burst             int `env:"BURST" envDefault:"10"`
}

type HTTPClientConfig struct {
	RequestTimeout        time.Duration `env:"TIMEOUT" envDefault:"30s"`
	ConnTimeout           time.Duration `env:"CONN_TIMEOUT" envDefault:"10s"`
	KeepAlive             time.Duration `env:"KEEP_ALIVE" envDefault:"90s"`
	IdleConnTimeout       time.Duration `env:"IDLE_CONN_TIMEOUT" envDefault:"90s"`
	ResponseHeaderTimeout time.Duration `env:"RESPONSE_HEADER_TIMEOUT" envDefault:"30s"`
	Token                 string        `env:"TOKEN"`
	Url                   string        `env:"SERVICE_URL"`
}

func LoadConfig() (*Config, error) {
	envFlag := flag.String("env", "local", "Environment to run (local, prod, or custom)")
	flag.Parse()

	envFile := getEnvFile(*envFlag)
	// Try to load env file, but don't fail if it's missing.
	// In containerized/prod environments variables are usually set externally.
	if err := godotenv.Load(envFile); err != nil {
		fmt.Printf("Warning: could not load %s file (this is ok if env vars are set externally): %v\n", envFile, err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	cfg.Environment = *envFlag

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func validateConfig(cfg *Config) error {
	var errors []string

	if cfg.DBMaxConns < 1 || cfg.DBMaxConns > 200 {
		errors = append(errors, fmt.Sprintf("DB_MAX_CONNS must be between 1 and 200, got %d", cfg.DBMaxConns))
	}

	if cfg.DBMinConns < 0 || cfg.DBMinConns > cfg.DBMaxConns {
		errors = append(errors, fmt.Sprintf("DB_MIN_CONNS must be between 0 and DB_MAX_CONNS(%d), got %d", cfg.DBMaxConns, cfg.DBMinConns))
	}

	if !cfg.EnableMocks {
		if cfg.OpenAICfg.Url == "" {
			errors = append(errors, "OPENAI_SERVICE_URL must be set unless ENABLE_MOCKS is true")
		}
		if cfg.OpenAICfg.Token == "" {
			errors = append(errors, "OPENAI_TOKEN must be set unless ENABLE_MOCKS is true")
		}
		if cfg.QdrantCfg.Url == "" {
			errors = append(errors, "QDRANT_SERVICE_URL must be set unless ENABLE_MOCKS is true")
		}
	}

	if cfg.QdrantCfg.VectorSize < 1 {
		errors = append(errors, fmt.Sprintf("QDRANT_VECTOR_SIZE must be positive, got %d", cfg.QdrantCfg.VectorSize))
	}

	if cfg.RAGCfg.TopK < 1 || cfg.RAGCfg.TopK > 50 {
		errors = append(errors, fmt.Sprintf("RAG_TOP_K must be between 1 and 50, got %d", cfg.RAGCfg.TopK))
	}

	if cfg.RAGCfg.MinScore < 0 || cfg.RAGCfg.MinScore > 1 {
		errors = append(errors, fmt.Sprintf("RAG_MIN_SCORE must be between 0 and 1, got %f", cfg.RAGCfg.MinScore))
	}

	if cfg.RAGCfg.MinQueryLen < 1 || cfg.RAGCfg.MaxQueryLen < cfg.RAGCfg.MinQueryLen {
		errors = append(errors, fmt.Sprintf("RAG query length bounds invalid: min %d, max %d", cfg.RAGCfg.MinQueryLen, cfg.RAGCfg.MaxQueryLen))
	}

	// Overlap >= chunk size would stall the chunker; reject it before any
	// ingestion run starts.
	if cfg.IngestCfg.Overlap >= cfg.IngestCfg.MaxChunkSize {
		errors = append(errors, fmt.Sprintf("INGEST_OVERLAP (%d) must be smaller than INGEST_MAX_CHUNK_SIZE (%d)", cfg.IngestCfg.Overlap, cfg.IngestCfg.MaxChunkSize))
	}

	if cfg.IngestCfg.EmbedBatchSize < 1 {
		errors = append(errors, fmt.Sprintf("INGEST_EMBED_BATCH_SIZE must be positive, got %d", cfg.IngestCfg.EmbedBatchSize))
	}

	if cfg.RateLimitCfg.ChatPerMinute < 1 || cfg.RateLimitCfg.Burst < 1 {
		errors = append(errors, fmt.Sprintf("rate limit thresholds must be positive, got %d/min burst %d", cfg.RateLimitCfg.ChatPerMinute, cfg.RateLimitCfg.Burst))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation errors:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

func getEnvFile(environment string) string {
	switch environment {
	case "prod", "production":
		return ".env.prod"
	case "local", "dev", "development":
		return ".env.local"
	default:
		return fmt.Sprintf(".env.%s", environment)
	}
}
