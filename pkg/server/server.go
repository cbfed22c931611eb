// Package server exposes the engine over HTTP with gin.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lexigraph/lexigraph"
	"github.com/lexigraph/lexigraph/pkg/config"
	"github.com/lexigraph/lexigraph/pkg/server/handlers"
)

// Server is the HTTP server around an Engine.
type Server struct {
	config     *config.Config
	engine     *lexigraph.Engine
	extraction *config.ExtractionStore
	router     *gin.Engine
	server     *http.Server
	logger     *slog.Logger
}

// New creates a server. extraction may be nil, which disables the
// extraction-config endpoints.
func New(cfg *config.Config, engine *lexigraph.Engine, extraction *config.ExtractionStore, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		config:     cfg,
		engine:     engine,
		extraction: extraction,
		logger:     logger,
	}
}

// Setup builds the router, middleware and routes.
func (s *Server) Setup() {
	gin.SetMode(s.config.Server.Mode)

	s.router = gin.New()
	s.router.Use(gin.Recovery())
	s.router.Use(corsMiddleware())
	s.router.Use(s.loggingMiddleware())

	s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}
}

// Router returns the configured router, for tests.
func (s *Server) Router() *gin.Engine { return s.router }

func (s *Server) setupRoutes() {
	healthHandler := handlers.NewHealthHandler(s.engine)
	documentsHandler := handlers.NewDocumentsHandler(s.engine)
	searchHandler := handlers.NewSearchHandler(s.engine)
	graphHandler := handlers.NewGraphHandler(s.engine)

	s.router.GET("/health", healthHandler.HealthCheck)
	s.router.GET("/ready", healthHandler.ReadinessCheck)

	v1 := s.router.Group("/api/v1")
	{
		documents := v1.Group("/documents")
		{
			documents.POST("", documentsHandler.Ingest)
			documents.GET("", documentsHandler.List)
			documents.GET("/:id", documentsHandler.Get)
			documents.GET("/:id/chunks", documentsHandler.Chunks)
			documents.DELETE("/:id", documentsHandler.Delete)

			documents.GET("/:id/graph", graphHandler.Build)
			documents.GET("/:id/graph/statistics", graphHandler.Statistics)
			documents.GET("/:id/graph/neighbors", graphHandler.Neighbors)
			documents.GET("/:id/graph/paths", graphHandler.Paths)
			documents.GET("/:id/graph/similar", graphHandler.Similar)
		}

		v1.POST("/search", searchHandler.Search)
		v1.POST("/search/hybrid", searchHandler.HybridSearch)
		v1.GET("/search/stats", searchHandler.Stats)
		v1.DELETE("/cache", searchHandler.ClearCache)

		v1.POST("/analyze/chunking", documentsHandler.Analyze)

		if s.extraction != nil {
			extractionHandler := handlers.NewExtractionHandler(s.extraction)
			cfg := v1.Group("/config/extraction")
			{
				cfg.GET("", extractionHandler.Get)
				cfg.PUT("", extractionHandler.Put)
				cfg.POST("/reset", extractionHandler.Reset)
				cfg.GET("/yaml", extractionHandler.ExportYAML)
				cfg.PUT("/yaml", extractionHandler.ImportYAML)
			}
		}
	}
}

// Start starts the server and blocks until it stops.
func (s *Server) Start() error {
	s.logger.Info("starting http server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping http server")
	return s.server.Shutdown(ctx)
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		s.logger.Debug("request handled",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status())
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, Cache-Control")
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
