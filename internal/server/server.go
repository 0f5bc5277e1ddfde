// Package server provides the HTTP API for the filings Q&A service.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/joybratasarkar/financial-system-rag/internal/agent"
	"github.com/joybratasarkar/financial-system-rag/internal/index"
	"github.com/joybratasarkar/financial-system-rag/internal/ingest"
	"github.com/joybratasarkar/financial-system-rag/internal/segmenter"
)

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int
}

// Server exposes the query pipeline and ingestion over HTTP.
type Server struct {
	echo     *echo.Echo
	pipeline *agent.Pipeline
	ingestor *ingest.Service
	index    *index.Index
	logger   *zap.Logger
	config   *Config
}

// New creates an HTTP server over the given core services.
func New(pipeline *agent.Pipeline, ingestor *ingest.Service, ix *index.Index, logger *zap.Logger, cfg *Config) (*Server, error) {
	if pipeline == nil {
		return nil, fmt.Errorf("pipeline cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{Host: "localhost", Port: 9090}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)
			return err
		}
	})

	s := &Server{
		echo:     e,
		pipeline: pipeline,
		ingestor: ingestor,
		index:    ix,
		logger:   logger,
		config:   cfg,
	}
	s.registerRoutes()
	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/stats", s.handleStats)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := s.echo.Group("/api/v1")
	v1.POST("/query", s.handleQuery)
	v1.POST("/ingest", s.handleIngest)
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// StatsResponse is the response body for GET /stats.
type StatsResponse struct {
	Index  index.Stats `json:"index"`
	Status string      `json:"status"`
}

// handleStats reports index contents.
func (s *Server) handleStats(c echo.Context) error {
	return c.JSON(http.StatusOK, StatsResponse{
		Index:  s.index.Stats(),
		Status: "operational",
	})
}

// QueryRequest is the request body for POST /api/v1/query.
type QueryRequest struct {
	Query string `json:"query"`
}

// handleQuery runs the full pipeline for one question. The pipeline is
// total, so this handler only fails on malformed requests.
func (s *Server) handleQuery(c echo.Context) error {
	var req QueryRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid query request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query field is required")
	}

	start := time.Now()
	response := s.pipeline.Answer(c.Request().Context(), req.Query)

	return c.JSON(http.StatusOK, map[string]interface{}{
		"query":              response.Query,
		"answer":             response.Answer,
		"reasoning":          response.Reasoning,
		"sub_queries":        response.SubQueries,
		"sources":            response.Sources,
		"processing_time_ms": time.Since(start).Milliseconds(),
	})
}

// IngestRequest is the request body for POST /api/v1/ingest. Text must be
// already extracted; the service does not parse filing markup.
type IngestRequest struct {
	Company    string `json:"company"`
	Year       string `json:"year"`
	FilingType string `json:"filing_type"`
	Text       string `json:"text"`
	TotalPages int    `json:"total_pages"`
}

// handleIngest segments and indexes one document synchronously.
func (s *Server) handleIngest(c echo.Context) error {
	if s.ingestor == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "ingestion not configured")
	}

	var req IngestRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid ingest request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Company == "" || req.Year == "" || req.Text == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "company, year and text fields are required")
	}

	result, err := s.ingestor.Ingest(c.Request().Context(), segmenter.Document{
		Company:    req.Company,
		Year:       req.Year,
		FilingType: req.FilingType,
		Text:       req.Text,
		TotalPages: req.TotalPages,
	})
	if err != nil {
		s.logger.Error("ingestion failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "ingestion failed")
	}

	return c.JSON(http.StatusOK, result)
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
