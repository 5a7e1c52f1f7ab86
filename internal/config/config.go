// Package config provides application configuration management with
// multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (DATABASE_URL, GEMINI_API_KEY)
//  2. Config file (~/.lorekeep/config.yaml or ./config.yaml)
//  3. Default values
//
// Main configuration categories:
//   - AI: generative model and embedder selection, generation timeout
//   - Retrieval: search width, answer context width (top-k)
//   - Storage: PostgreSQL connection (see storage.go)
//   - Ingest: corpus location, chunking parameters
//   - Observability: optional OTLP trace export
//
// Error Handling:
//   - Sentinel errors for Go-idiomatic checking with errors.Is()
//   - Wrapped with context using fmt.Errorf("%w: details", ErrXxx)
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrMissingAPIKey indicates the required generative-model API key is missing.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrInvalidModelName indicates the model name is invalid.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidEmbedderModel indicates the embedder model is invalid.
	ErrInvalidEmbedderModel = errors.New("invalid embedder model")

	// ErrInvalidTopK indicates the context top-k value is out of range.
	ErrInvalidTopK = errors.New("invalid top_k")

	// ErrInvalidSearchWidth indicates the retriever search width is out of range.
	ErrInvalidSearchWidth = errors.New("invalid search width")

	// ErrInvalidTimeout indicates a timeout value is out of range.
	ErrInvalidTimeout = errors.New("invalid timeout")

	// ErrInvalidChunking indicates chunk size/overlap values are inconsistent.
	ErrInvalidChunking = errors.New("invalid chunking parameters")

	// ErrInvalidPostgresHost indicates the PostgreSQL host is invalid.
	ErrInvalidPostgresHost = errors.New("invalid PostgreSQL host")

	// ErrInvalidPostgresPort indicates the PostgreSQL port is out of range.
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")

	// ErrInvalidPostgresDBName indicates the PostgreSQL database name is invalid.
	ErrInvalidPostgresDBName = errors.New("invalid PostgreSQL database name")
)

const (
	// DefaultModelName is the provider-qualified generative model used for
	// rewriting, expansion, and synthesis.
	DefaultModelName = "googleai/gemini-2.5-flash"

	// DefaultEmbedderModel is the default Gemini embedder model.
	// gemini-embedding-001 outputs 3072 dimensions by default, but supports
	// truncation to 768 via OutputDimensionality; the pgvector schema uses
	// 768 dimensions (see passage.VectorDimension).
	DefaultEmbedderModel = "gemini-embedding-001"

	// DefaultTopK is the number of passages placed into the answer context
	// when the caller does not supply one.
	DefaultTopK = 4

	// MaxTopK bounds caller-supplied top_k values.
	MaxTopK = 10

	// DefaultSearchWidth is the per-phrasing vector search width. It is
	// independent of the caller-facing top_k.
	DefaultSearchWidth = 4
)

// Config stores application configuration.
type Config struct {
	// AI model configuration
	ModelName     string `mapstructure:"model_name" json:"model_name"`         // provider-qualified, e.g. "googleai/gemini-2.5-flash"
	EmbedderModel string `mapstructure:"embedder_model" json:"embedder_model"` // e.g. "gemini-embedding-001"

	// Retrieval configuration
	TopK        int `mapstructure:"top_k" json:"top_k"`               // default answer context width
	SearchWidth int `mapstructure:"search_width" json:"search_width"` // per-phrasing vector search width

	// External call timeouts
	GenerateTimeout time.Duration `mapstructure:"generate_timeout" json:"generate_timeout"` // model calls (rewrite, expand, synthesize)
	SearchTimeout   time.Duration `mapstructure:"search_timeout" json:"search_timeout"`     // embedding + vector search

	// HTTP server
	ListenAddr string `mapstructure:"listen_addr" json:"listen_addr"`

	// Storage configuration (see storage.go for helpers)
	PostgresHost     string `mapstructure:"postgres_host" json:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port" json:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user" json:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password" json:"-"` // SENSITIVE: never serialized
	PostgresDBName   string `mapstructure:"postgres_db_name" json:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode" json:"postgres_ssl_mode"`

	// Corpus ingestion
	CorpusPath    string `mapstructure:"corpus_path" json:"corpus_path"`         // MediaWiki XML export
	CorpusSource  string `mapstructure:"corpus_source" json:"corpus_source"`     // origin label stamped on passages
	ChunkSize     int    `mapstructure:"chunk_size" json:"chunk_size"`           // characters per chunk
	ChunkOverlap  int    `mapstructure:"chunk_overlap" json:"chunk_overlap"`     // character overlap between chunks
	MinArticleLen int    `mapstructure:"min_article_len" json:"min_article_len"` // skip stripped articles shorter than this
	CrawlMaxPages int    `mapstructure:"crawl_max_pages" json:"crawl_max_pages"` // live-crawl page cap

	// Observability (optional)
	OTLPEndpoint string `mapstructure:"otlp_endpoint" json:"otlp_endpoint"` // empty = tracing disabled
}

// Load loads configuration.
// Priority: environment variables > configuration file > default values.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".lorekeep")
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using default values",
			"search_paths", []string{configDir, "."})
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	// DATABASE_URL overrides individual postgres_* settings.
	if err := cfg.parseDatabaseURL(); err != nil {
		return nil, fmt.Errorf("parsing DATABASE_URL: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults(v *viper.Viper) {
	// AI defaults
	v.SetDefault("model_name", DefaultModelName)
	v.SetDefault("embedder_model", DefaultEmbedderModel)

	// Retrieval defaults
	v.SetDefault("top_k", DefaultTopK)
	v.SetDefault("search_width", DefaultSearchWidth)

	// Timeout defaults
	v.SetDefault("generate_timeout", "60s")
	v.SetDefault("search_timeout", "10s")

	// Server defaults
	v.SetDefault("listen_addr", "127.0.0.1:8080")

	// PostgreSQL defaults (matching docker-compose.yml)
	v.SetDefault("postgres_host", "localhost")
	v.SetDefault("postgres_port", 5432)
	v.SetDefault("postgres_user", "lorekeep")
	v.SetDefault("postgres_password", "lorekeep_dev_password")
	v.SetDefault("postgres_db_name", "lorekeep")
	v.SetDefault("postgres_ssl_mode", "disable")

	// Ingest defaults (chunking matches the values the corpus was built with)
	v.SetDefault("corpus_path", "corpus/pages.xml")
	v.SetDefault("corpus_source", "wiki")
	v.SetDefault("chunk_size", 1000)
	v.SetDefault("chunk_overlap", 200)
	v.SetDefault("min_article_len", 200)
	v.SetDefault("crawl_max_pages", 500)

	// Observability defaults
	v.SetDefault("otlp_endpoint", "")
}

// Validate validates configuration values.
// Returns sentinel errors that can be checked with errors.Is().
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	// API key is required for all AI operations. Genkit reads it directly
	// from the environment; the process must not start without it.
	if os.Getenv("GEMINI_API_KEY") == "" {
		return fmt.Errorf("%w: GEMINI_API_KEY environment variable is required\n"+
			"Get your API key at: https://ai.google.dev/gemini-api/docs/api-key",
			ErrMissingAPIKey)
	}

	if c.ModelName == "" {
		return fmt.Errorf("%w: model_name cannot be empty", ErrInvalidModelName)
	}
	if c.EmbedderModel == "" {
		return fmt.Errorf("%w: embedder_model cannot be empty", ErrInvalidEmbedderModel)
	}

	if c.TopK < 1 || c.TopK > MaxTopK {
		return fmt.Errorf("%w: must be between 1 and %d, got %d", ErrInvalidTopK, MaxTopK, c.TopK)
	}
	if c.SearchWidth < 1 || c.SearchWidth > MaxTopK {
		return fmt.Errorf("%w: must be between 1 and %d, got %d", ErrInvalidSearchWidth, MaxTopK, c.SearchWidth)
	}

	if c.GenerateTimeout <= 0 {
		return fmt.Errorf("%w: generate_timeout must be positive, got %s", ErrInvalidTimeout, c.GenerateTimeout)
	}
	if c.SearchTimeout <= 0 {
		return fmt.Errorf("%w: search_timeout must be positive, got %s", ErrInvalidTimeout, c.SearchTimeout)
	}

	if c.ChunkSize < 1 {
		return fmt.Errorf("%w: chunk_size must be positive, got %d", ErrInvalidChunking, c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: chunk_overlap must be in [0, chunk_size), got %d", ErrInvalidChunking, c.ChunkOverlap)
	}

	if c.PostgresHost == "" {
		return fmt.Errorf("%w: host cannot be empty", ErrInvalidPostgresHost)
	}
	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		return fmt.Errorf("%w: must be between 1 and 65535, got %d", ErrInvalidPostgresPort, c.PostgresPort)
	}
	if c.PostgresDBName == "" {
		return fmt.Errorf("%w: database name cannot be empty", ErrInvalidPostgresDBName)
	}

	if c.PostgresPassword == "lorekeep_dev_password" {
		slog.Warn("using default development password for PostgreSQL",
			"hint", "change postgres_password in config.yaml for production deployments")
	}

	return nil
}
