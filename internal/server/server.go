package server

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"audiotoc/audiobook"
	"audiotoc/config"
	"audiotoc/internal/job"
	"audiotoc/internal/manifest"
)

// Server handles HTTP requests for timeline resolution and chapter export.
type Server struct {
	cfg        *config.Config
	router     *gin.Engine
	jobManager *job.Manager
	processor  *audiobook.Processor
	importer   manifest.Importer
}

// New creates a new HTTP server instance
func New(ctx context.Context, cfg *config.Config) (*Server, error) {
	processor, err := audiobook.NewProcessor(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create processor: %w", err)
	}

	if slog.Level(cfg.LogLevel) > slog.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	server := &Server{
		cfg:        cfg,
		router:     router,
		jobManager: job.NewManager(),
		processor:  processor,
		importer:   manifest.NewImporter(cfg),
	}

	server.setupRoutes(router)
	return server, nil
}

// setupRoutes configures the HTTP routes
func (s *Server) setupRoutes(router *gin.Engine) {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type"}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", s.health)

	// API endpoints
	api := router.Group("/api/v1")
	{
		api.POST("/timeline", s.resolveTimeline)
		api.POST("/export", s.startExport)
		api.GET("/jobs", s.listJobs)
		api.GET("/jobs/:id", s.getJobStatus)
		api.DELETE("/jobs/:id", s.cancelJob)
		api.GET("/jobs/:id/download", s.downloadChapters)
		api.GET("/jobs/:id/chapters/:chapterNumber/download", s.downloadChapter)
	}
}

// Start starts the HTTP server
func (s *Server) Start(port string) error {
	s.StartCleanupWorker()
	return s.router.Run(":" + port)
}
