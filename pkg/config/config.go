// Package config loads application configuration from file and environment
// via viper, and manages the user-editable extraction configuration as a
// JSON document with YAML export/import.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/viper"

	"github.com/lexigraph/lexigraph/pkg/alert"
)

// Config holds all configuration for the application
type Config struct {
	// Log configuration
	Log LogConfig `mapstructure:"log"`

	// Server configuration
	Server ServerConfig `mapstructure:"server"`

	// Store configuration
	Store StoreConfig `mapstructure:"store"`

	// Cache configuration
	Cache CacheConfig `mapstructure:"cache"`

	// Chunking configuration
	Chunking ChunkingConfig `mapstructure:"chunking"`

	// Retrieval configuration
	Retrieval RetrievalConfig `mapstructure:"retrieval"`

	// CircuitBreaker configuration
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`

	// Telemetry configuration
	Telemetry TelemetryConfig `mapstructure:"telemetry"`

	// Embedding configuration
	Embedding EmbeddingConfig `mapstructure:"embedding"`

	// Extraction configuration
	Extraction ExtractionConfig `mapstructure:"extraction"`

	// Alert configuration
	Alert alert.Config `mapstructure:"alert"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // gin mode: debug, release, test
}

// StoreConfig holds persistence configuration
type StoreConfig struct {
	Type     string `mapstructure:"type"` // memory, badger, neo4j
	Path     string `mapstructure:"path"` // badger data directory
	URI      string `mapstructure:"uri"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
}

// CacheConfig holds query cache configuration
type CacheConfig struct {
	Backend    string `mapstructure:"backend"` // memory, redis
	MaxSize    int    `mapstructure:"max_size"`
	TTLSeconds int    `mapstructure:"ttl_seconds"`
	RedisAddr  string `mapstructure:"redis_addr"`
	RedisDB    int    `mapstructure:"redis_db"`
	KeyPrefix  string `mapstructure:"key_prefix"`
}

// ChunkingConfig holds chunking configuration
type ChunkingConfig struct {
	Mode       string `mapstructure:"mode"` // semantic, adaptive
	MaxSize    int    `mapstructure:"max_size"`
	MinSize    int    `mapstructure:"min_size"`
	Overlap    int    `mapstructure:"overlap"`
	TargetSize int    `mapstructure:"target_size"`
}

// RetrievalConfig holds retrieval configuration
type RetrievalConfig struct {
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
	MaxRetries     int     `mapstructure:"max_retries"`
	KeywordWeight  float64 `mapstructure:"keyword_weight"`
	VectorWeight   float64 `mapstructure:"vector_weight"`
}

// CircuitBreakerConfig holds configuration for circuit breaking
type CircuitBreakerConfig struct {
	Enabled          bool    `mapstructure:"enabled"`
	MaxRequests      uint32  `mapstructure:"max_requests"`
	Interval         int     `mapstructure:"interval"` // in seconds
	Timeout          int     `mapstructure:"timeout"`  // in seconds
	ReadyToTripRatio float64 `mapstructure:"ready_to_trip_ratio"`
}

// TelemetryConfig holds telemetry configuration
type TelemetryConfig struct {
	ParquetPath string `mapstructure:"parquet_path"`
	BatchSize   int    `mapstructure:"batch_size"`
}

// EmbeddingConfig holds embedding configuration
type EmbeddingConfig struct {
	Provider   string `mapstructure:"provider"` // openai, embedeverything
	Model      string `mapstructure:"model"`
	APIKey     string `mapstructure:"api_key"`
	BaseURL    string `mapstructure:"base_url"`
	Dimensions int    `mapstructure:"dimensions"`
}

// ExtractionConfig points at the user-editable extraction configuration.
type ExtractionConfig struct {
	ConfigPath string `mapstructure:"config_path"`
}

// Load loads configuration from file and environment variables
func Load() (*Config, error) {
	setDefaults()

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	overrideWithEnv(config)

	return config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Log defaults
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")

	// Server defaults
	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "debug")

	// Store defaults
	viper.SetDefault("store.type", "memory")
	viper.SetDefault("store.database", "")

	// Cache defaults
	viper.SetDefault("cache.backend", "memory")
	viper.SetDefault("cache.max_size", 256)
	viper.SetDefault("cache.ttl_seconds", 300)

	// Chunking defaults
	viper.SetDefault("chunking.mode", "semantic")
	viper.SetDefault("chunking.max_size", 800)
	viper.SetDefault("chunking.min_size", 100)
	viper.SetDefault("chunking.overlap", 50)
	viper.SetDefault("chunking.target_size", 500)

	// Retrieval defaults
	viper.SetDefault("retrieval.timeout_seconds", 10)
	viper.SetDefault("retrieval.max_retries", 3)
	viper.SetDefault("retrieval.keyword_weight", 0.3)
	viper.SetDefault("retrieval.vector_weight", 0.7)

	// Circuit breaker defaults
	viper.SetDefault("circuit_breaker.enabled", true)
	viper.SetDefault("circuit_breaker.max_requests", 1)
	viper.SetDefault("circuit_breaker.interval", 60)
	viper.SetDefault("circuit_breaker.timeout", 30)
	viper.SetDefault("circuit_breaker.ready_to_trip_ratio", 0.6)

	// Alert defaults
	viper.SetDefault("alert.enabled", false)

	// Embedding defaults
	viper.SetDefault("embedding.provider", "embedeverything")
	viper.SetDefault("embedding.model", "all-MiniLM-L6-v2")
	viper.SetDefault("embedding.dimensions", 384)

	home, err := os.UserHomeDir()
	if err == nil {
		viper.SetDefault("store.path", home+"/.lexigraph/store")
		viper.SetDefault("telemetry.parquet_path", home+"/.lexigraph/telemetry")
		viper.SetDefault("extraction.config_path", home+"/.lexigraph/extraction.json")
	}
}

// overrideWithEnv overrides config with environment variables
func overrideWithEnv(config *Config) {
	// Store credentials
	if uri := os.Getenv("NEO4J_URI"); uri != "" {
		config.Store.URI = uri
	}
	if user := os.Getenv("NEO4J_USER"); user != "" {
		config.Store.Username = user
	}
	if pass := os.Getenv("NEO4J_PASSWORD"); pass != "" {
		config.Store.Password = pass
	}
	if storeType := os.Getenv("LEXIGRAPH_STORE_TYPE"); storeType != "" {
		config.Store.Type = storeType
	}
	if path := os.Getenv("LEXIGRAPH_STORE_PATH"); path != "" {
		config.Store.Path = path
	}

	// Embedding credentials
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		config.Embedding.APIKey = apiKey
	}

	// Cache settings
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		config.Cache.Backend = "redis"
		config.Cache.RedisAddr = addr
	}

	// Server settings
	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if n, err := strconv.Atoi(port); err == nil {
			config.Server.Port = n
		}
	}

	// Telemetry settings
	if path := os.Getenv("TELEMETRY_PARQUET_PATH"); path != "" {
		config.Telemetry.ParquetPath = path
	}
}
