package lexigraph

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/lexigraph/lexigraph"
	"github.com/lexigraph/lexigraph/pkg/alert"
	"github.com/lexigraph/lexigraph/pkg/cache"
	"github.com/lexigraph/lexigraph/pkg/chunker"
	"github.com/lexigraph/lexigraph/pkg/config"
	"github.com/lexigraph/lexigraph/pkg/embedder"
	"github.com/lexigraph/lexigraph/pkg/logger"
	"github.com/lexigraph/lexigraph/pkg/retrieval"
	"github.com/lexigraph/lexigraph/pkg/server"
	"github.com/lexigraph/lexigraph/pkg/store"
	"github.com/lexigraph/lexigraph/pkg/telemetry"
	"github.com/lexigraph/lexigraph/pkg/vectorindex"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the Lexigraph HTTP server",
	Long: `Start the Lexigraph HTTP server to provide REST API access to ingestion,
search and knowledge graphs.

The server provides endpoints for:
- Ingesting and managing documents
- Vector and hybrid search
- Building and querying per-document knowledge graphs
- Managing the extraction configuration
- Health checks

Configuration can be provided through config files, environment variables, or command-line flags.`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(serverCmd)

	serverCmd.Flags().String("host", "localhost", "Server host")
	serverCmd.Flags().Int("port", 8080, "Server port")
	serverCmd.Flags().String("mode", "debug", "Server mode (debug, release, test)")

	serverCmd.Flags().String("store-type", "", "Store backend (memory, badger, neo4j)")
	serverCmd.Flags().String("store-path", "", "Badger data directory")
	serverCmd.Flags().String("store-uri", "", "Neo4j URI")
	serverCmd.Flags().String("store-username", "", "Neo4j username")
	serverCmd.Flags().String("store-password", "", "Neo4j password")

	serverCmd.Flags().String("embedding-provider", "", "Embedding provider (openai, embedeverything)")
	serverCmd.Flags().String("embedding-model", "", "Embedding model")
	serverCmd.Flags().String("embedding-api-key", "", "Embedding API key")
	serverCmd.Flags().String("embedding-base-url", "", "Embedding base URL")

	serverCmd.Flags().String("telemetry-parquet-path", "", "Directory for parquet latency samples")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	overrideConfigWithFlags(cmd, cfg)

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", cfg.Server.Port)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)

	engine, extraction, err := buildEngine(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize engine: %w", err)
	}
	defer engine.Close()

	srv := server.New(cfg, engine, extraction, log)
	srv.Setup()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			serverErrChan <- err
		}
	}()

	select {
	case err := <-serverErrChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		log.Info("received signal, shutting down", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Stop(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		return nil
	}
}

// buildEngine wires the store, embedder, cache, telemetry and extraction
// configuration into an Engine.
func buildEngine(cfg *config.Config) (*lexigraph.Engine, *config.ExtractionStore, error) {
	log := logger.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)

	s, err := store.New(store.Config{
		Type:     store.Type(cfg.Store.Type),
		Path:     cfg.Store.Path,
		URI:      cfg.Store.URI,
		Username: cfg.Store.Username,
		Password: cfg.Store.Password,
		Database: cfg.Store.Database,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create store: %w", err)
	}

	embed, err := buildEmbedder(cfg)
	if err != nil {
		return nil, nil, err
	}

	queryCache, err := buildCache(cfg)
	if err != nil {
		return nil, nil, err
	}

	metrics, err := buildTelemetry(cfg)
	if err != nil {
		return nil, nil, err
	}

	extraction := config.NewExtractionStore(cfg.Extraction.ConfigPath, log)
	extractionCfg, err := extraction.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load extraction config: %w", err)
	}

	opts := lexigraph.DefaultOptions()
	opts.ChunkMode = lexigraph.ChunkMode(cfg.Chunking.Mode)
	opts.Chunking = chunker.Options{
		MaxSize: cfg.Chunking.MaxSize,
		MinSize: cfg.Chunking.MinSize,
		Overlap: cfg.Chunking.Overlap,
	}
	opts.Adaptive = chunker.AdaptiveOptions{
		TargetSize: cfg.Chunking.TargetSize,
		MinSize:    cfg.Chunking.MinSize,
		MaxSize:    cfg.Chunking.MaxSize,
	}
	opts.Retrieval = retrieval.Config{
		SearchTimeout: time.Duration(cfg.Retrieval.TimeoutSeconds) * time.Second,
		Retry:         retrieval.RetryConfig{MaxRetries: cfg.Retrieval.MaxRetries},
		Breaker: retrieval.BreakerConfig{
			Enabled:          cfg.CircuitBreaker.Enabled,
			MaxRequests:      cfg.CircuitBreaker.MaxRequests,
			Interval:         time.Duration(cfg.CircuitBreaker.Interval) * time.Second,
			Timeout:          time.Duration(cfg.CircuitBreaker.Timeout) * time.Second,
			ReadyToTripRatio: cfg.CircuitBreaker.ReadyToTripRatio,
		},
	}
	if cfg.Alert.Enabled {
		alerter := alert.NewEmailAlerter(cfg.Alert)
		opts.Retrieval.Breaker.OnOpen = func(name string) {
			if err := alerter.Alert("circuit breaker open",
				fmt.Sprintf("circuit breaker %q opened; vector search is degraded", name)); err != nil {
				log.Warn("failed to send breaker alert", "error", err)
			}
		}
	}
	opts.KeywordWeight = cfg.Retrieval.KeywordWeight
	opts.VectorWeight = cfg.Retrieval.VectorWeight
	opts.Extraction = &extractionCfg
	opts.Summarize = true
	opts.Cache = queryCache
	opts.Metrics = metrics

	engine, err := lexigraph.New(s, vectorindex.NewMemoryIndex(), embed, opts, log)
	if err != nil {
		return nil, nil, err
	}
	return engine, extraction, nil
}

func buildEmbedder(cfg *config.Config) (embedder.Client, error) {
	embedderCfg := embedder.Config{
		Model:      cfg.Embedding.Model,
		BaseURL:    cfg.Embedding.BaseURL,
		Dimensions: cfg.Embedding.Dimensions,
	}
	switch cfg.Embedding.Provider {
	case "openai":
		if cfg.Embedding.APIKey == "" {
			return nil, fmt.Errorf("openai embedding provider requires an API key")
		}
		return embedder.NewOpenAIEmbedder(cfg.Embedding.APIKey, embedderCfg), nil
	case "embedeverything", "":
		return embedder.NewEmbedEverythingClient(embedderCfg)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Embedding.Provider)
	}
}

func buildCache(cfg *config.Config) (cache.QueryCache, error) {
	ttl := time.Duration(cfg.Cache.TTLSeconds) * time.Second
	switch cfg.Cache.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr: cfg.Cache.RedisAddr,
			DB:   cfg.Cache.RedisDB,
		})
		return cache.NewRedisCache(client, ttl, cfg.Cache.KeyPrefix), nil
	case "memory", "":
		return cache.NewMemoryCache(cfg.Cache.MaxSize, ttl), nil
	default:
		return nil, fmt.Errorf("unsupported cache backend: %s", cfg.Cache.Backend)
	}
}

func buildTelemetry(cfg *config.Config) (*telemetry.Recorder, error) {
	if cfg.Telemetry.ParquetPath == "" {
		return telemetry.NewRecorder(0, nil), nil
	}
	if err := os.MkdirAll(cfg.Telemetry.ParquetPath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create telemetry directory: %w", err)
	}
	sink, err := telemetry.NewParquetSink(cfg.Telemetry.ParquetPath, cfg.Telemetry.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create telemetry sink: %w", err)
	}
	return telemetry.NewRecorder(0, sink), nil
}

func overrideConfigWithFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("host") {
		cfg.Server.Host, _ = cmd.Flags().GetString("host")
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port, _ = cmd.Flags().GetInt("port")
	}
	if cmd.Flags().Changed("mode") {
		cfg.Server.Mode, _ = cmd.Flags().GetString("mode")
	}

	if cmd.Flags().Changed("store-type") {
		cfg.Store.Type, _ = cmd.Flags().GetString("store-type")
	}
	if cmd.Flags().Changed("store-path") {
		cfg.Store.Path, _ = cmd.Flags().GetString("store-path")
	}
	if cmd.Flags().Changed("store-uri") {
		cfg.Store.URI, _ = cmd.Flags().GetString("store-uri")
	}
	if cmd.Flags().Changed("store-username") {
		cfg.Store.Username, _ = cmd.Flags().GetString("store-username")
	}
	if cmd.Flags().Changed("store-password") {
		cfg.Store.Password, _ = cmd.Flags().GetString("store-password")
	}

	if cmd.Flags().Changed("embedding-provider") {
		cfg.Embedding.Provider, _ = cmd.Flags().GetString("embedding-provider")
	}
	if cmd.Flags().Changed("embedding-model") {
		cfg.Embedding.Model, _ = cmd.Flags().GetString("embedding-model")
	}
	if cmd.Flags().Changed("embedding-api-key") {
		cfg.Embedding.APIKey, _ = cmd.Flags().GetString("embedding-api-key")
	}
	if cmd.Flags().Changed("embedding-base-url") {
		cfg.Embedding.BaseURL, _ = cmd.Flags().GetString("embedding-base-url")
	}

	if cmd.Flags().Changed("telemetry-parquet-path") {
		cfg.Telemetry.ParquetPath, _ = cmd.Flags().GetString("telemetry-parquet-path")
	}
}
