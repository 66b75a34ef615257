// Package config provides application configuration with multi-source
// priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override, DATABASE_URL included)
//  2. Config file (~/.lumina/config.yaml or ./config.yaml)
//  3. Default values
//
// Error handling uses sentinel errors checked with errors.Is(); Load fails
// fast on the first invalid value.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/luminastro/lumina/internal/quota"
)

var (
	// ErrInvalidModelName indicates the model name is empty.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidEmbedderModel indicates the embedder model is empty.
	ErrInvalidEmbedderModel = errors.New("invalid embedder model")

	// ErrInvalidChunkSizes indicates chunking sizes are inconsistent.
	ErrInvalidChunkSizes = errors.New("invalid chunk sizes")

	// ErrInvalidBatchSize indicates the embedding batch size is out of range.
	ErrInvalidBatchSize = errors.New("invalid embedding batch size")

	// ErrInvalidTopK indicates the retrieval top-K is out of range.
	ErrInvalidTopK = errors.New("invalid retrieval top-k")

	// ErrInvalidThreshold indicates the similarity threshold is out of range.
	ErrInvalidThreshold = errors.New("invalid similarity threshold")

	// ErrInvalidTimeout indicates the model timeout is out of range.
	ErrInvalidTimeout = errors.New("invalid model timeout")

	// ErrInvalidTier indicates a tier limit entry is malformed.
	ErrInvalidTier = errors.New("invalid tier configuration")

	// ErrInvalidPostgresHost indicates the PostgreSQL host is empty.
	ErrInvalidPostgresHost = errors.New("invalid PostgreSQL host")

	// ErrInvalidPostgresPort indicates the PostgreSQL port is out of range.
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")

	// ErrInvalidListenAddr indicates the HTTP listen address is empty.
	ErrInvalidListenAddr = errors.New("invalid listen address")
)

// TierConfig is one tier's question allowance as written in the config file.
type TierConfig struct {
	Questions int    `mapstructure:"questions" json:"questions"`
	Unlimited bool   `mapstructure:"unlimited" json:"unlimited"`
	Period    string `mapstructure:"period" json:"period"`
}

// Config stores application configuration.
type Config struct {
	// Model configuration
	ModelName     string `mapstructure:"model_name" json:"model_name"`
	EmbedderModel string `mapstructure:"embedder_model" json:"embedder_model"`

	// Chunking
	ChunkTargetSize int `mapstructure:"chunk_target_size" json:"chunk_target_size"`
	ChunkOverlap    int `mapstructure:"chunk_overlap" json:"chunk_overlap"`
	ChunkMinSize    int `mapstructure:"chunk_min_size" json:"chunk_min_size"`

	// Embedding pipeline
	EmbedBatchSize  int `mapstructure:"embed_batch_size" json:"embed_batch_size"`
	EmbedBatchDelay int `mapstructure:"embed_batch_delay_ms" json:"embed_batch_delay_ms"`
	EmbedDimension  int `mapstructure:"embed_dimension" json:"embed_dimension"`

	// Retrieval
	RetrievalTopK       int     `mapstructure:"retrieval_top_k" json:"retrieval_top_k"`
	SimilarityThreshold float64 `mapstructure:"similarity_threshold" json:"similarity_threshold"`

	// Answer pipeline
	ModelTimeoutSeconds int `mapstructure:"model_timeout_seconds" json:"model_timeout_seconds"`
	ModelMaxAttempts    int `mapstructure:"model_max_attempts" json:"model_max_attempts"`
	HistoryLimit        int `mapstructure:"history_limit" json:"history_limit"`

	// Tier limits
	Tiers map[string]TierConfig `mapstructure:"tiers" json:"tiers"`

	// Storage configuration
	PostgresHost     string `mapstructure:"postgres_host" json:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port" json:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user" json:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password" json:"-"` // SENSITIVE: never serialized
	PostgresDBName   string `mapstructure:"postgres_db_name" json:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode" json:"postgres_ssl_mode"`

	// HTTP surface
	ListenAddr string `mapstructure:"listen_addr" json:"listen_addr"`

	// Observability
	TracingEndpoint string `mapstructure:"tracing_endpoint" json:"tracing_endpoint"`
	Environment     string `mapstructure:"environment" json:"environment"`
}

// Load loads configuration.
// Priority: environment variables > configuration file > default values.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}
	configDir := filepath.Join(home, ".lumina")
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	setDefaults(v)
	bindEnvVariables(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using defaults",
			"search_paths", []string{configDir, "."})
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	if err := cfg.parseDatabaseURL(); err != nil {
		return nil, fmt.Errorf("parsing DATABASE_URL: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("model_name", "googleai/gemini-2.5-flash")
	v.SetDefault("embedder_model", "embedding-001")

	v.SetDefault("chunk_target_size", 600)
	v.SetDefault("chunk_overlap", 100)
	v.SetDefault("chunk_min_size", 100)

	v.SetDefault("embed_batch_size", 10)
	v.SetDefault("embed_batch_delay_ms", 1000)
	v.SetDefault("embed_dimension", 768)

	v.SetDefault("retrieval_top_k", 5)
	v.SetDefault("similarity_threshold", 0.3)

	v.SetDefault("model_timeout_seconds", 30)
	v.SetDefault("model_max_attempts", 3)
	v.SetDefault("history_limit", 10)

	v.SetDefault("tiers.free.questions", 5)
	v.SetDefault("tiers.free.period", quota.PeriodMonthly)
	v.SetDefault("tiers.premium.questions", 50)
	v.SetDefault("tiers.premium.period", quota.PeriodMonthly)
	v.SetDefault("tiers.unlimited.unlimited", true)

	v.SetDefault("postgres_host", "localhost")
	v.SetDefault("postgres_port", 5432)
	v.SetDefault("postgres_user", "lumina")
	v.SetDefault("postgres_password", "lumina_dev_password")
	v.SetDefault("postgres_db_name", "lumina")
	v.SetDefault("postgres_ssl_mode", "disable")

	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("tracing_endpoint", "")
	v.SetDefault("environment", "dev")
}

// bindEnvVariables binds environment overrides explicitly. GEMINI_API_KEY is
// read directly by Genkit, not via viper.
func bindEnvVariables(v *viper.Viper) {
	mustBind := func(key, envVar string) {
		if err := v.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}
	mustBind("listen_addr", "LUMINA_LISTEN_ADDR")
	mustBind("model_name", "LUMINA_MODEL")
	mustBind("tracing_endpoint", "LUMINA_TRACING_ENDPOINT")
	mustBind("environment", "LUMINA_ENV")
}

// Validate checks every value range, failing fast on the first problem.
func (c *Config) Validate() error {
	if c.ModelName == "" {
		return ErrInvalidModelName
	}
	if c.EmbedderModel == "" {
		return ErrInvalidEmbedderModel
	}
	if c.ChunkTargetSize <= 0 || c.ChunkMinSize <= 0 || c.ChunkOverlap < 0 {
		return fmt.Errorf("%w: target=%d overlap=%d min=%d",
			ErrInvalidChunkSizes, c.ChunkTargetSize, c.ChunkOverlap, c.ChunkMinSize)
	}
	if c.ChunkMinSize > c.ChunkTargetSize {
		return fmt.Errorf("%w: min size %d exceeds target %d",
			ErrInvalidChunkSizes, c.ChunkMinSize, c.ChunkTargetSize)
	}
	if c.EmbedBatchSize < 1 || c.EmbedBatchSize > 100 {
		return fmt.Errorf("%w: %d not in [1, 100]", ErrInvalidBatchSize, c.EmbedBatchSize)
	}
	if c.RetrievalTopK < 1 || c.RetrievalTopK > 50 {
		return fmt.Errorf("%w: %d not in [1, 50]", ErrInvalidTopK, c.RetrievalTopK)
	}
	if c.SimilarityThreshold < 0 || c.SimilarityThreshold >= 1 {
		return fmt.Errorf("%w: %v not in [0, 1)", ErrInvalidThreshold, c.SimilarityThreshold)
	}
	if c.ModelTimeoutSeconds < 1 || c.ModelTimeoutSeconds > 300 {
		return fmt.Errorf("%w: %ds not in [1, 300]", ErrInvalidTimeout, c.ModelTimeoutSeconds)
	}
	for name, tier := range c.Tiers {
		if tier.Unlimited {
			continue
		}
		if tier.Questions <= 0 {
			return fmt.Errorf("%w: tier %q has no question allowance", ErrInvalidTier, name)
		}
		if tier.Period != quota.PeriodMonthly && tier.Period != quota.PeriodYearly {
			return fmt.Errorf("%w: tier %q has unknown period %q", ErrInvalidTier, name, tier.Period)
		}
	}
	if c.PostgresHost == "" {
		return ErrInvalidPostgresHost
	}
	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPostgresPort, c.PostgresPort)
	}
	if c.ListenAddr == "" {
		return ErrInvalidListenAddr
	}
	return nil
}

// TierLimits converts the configured tiers into the quota package's limit
// map.
func (c *Config) TierLimits() map[string]quota.Limit {
	limits := make(map[string]quota.Limit, len(c.Tiers))
	for name, tier := range c.Tiers {
		if tier.Unlimited {
			limits[name] = quota.Limit{}
			continue
		}
		questions := tier.Questions
		limits[name] = quota.Limit{Questions: &questions, Period: tier.Period}
	}
	return limits
}
