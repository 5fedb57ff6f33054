// Package server exposes the assessment service over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ahrav/go-champion/infrastructure/units"
	"github.com/ahrav/go-champion/internal/application"
	"github.com/ahrav/go-champion/internal/domain"
	"github.com/ahrav/go-champion/internal/ports"
	"github.com/ahrav/go-champion/internal/rdf"
)

// Service is the part of the orchestrator the HTTP surface calls.
type Service interface {
	ProcessByID(ctx context.Context, id string, req application.Request) (*domain.EvaluationOutcome, error)
	Register(ctx context.Context, calculationURI string) (*domain.AlgorithmDefinition, error)
	Describe(ctx context.Context, id string) (*domain.AlgorithmDefinition, *rdf.Graph, error)
	List(ctx context.Context) ([]ports.AlgorithmRecord, error)
}

// Options configures a Server.
type Options struct {
	// Gatherer backs /metrics. Nil uses the default Prometheus registry.
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
	Debug    bool
}

// Server routes HTTP requests to a Service.
type Server struct {
	svc    Service
	engine *gin.Engine
	logger *slog.Logger
}

// AssessRequest is the body of POST /assess/algorithm/:id.
type AssessRequest struct {
	GUID      string `json:"guid"`
	ResultSet string `json:"resultset"`
}

// RegisterRequest is the body of POST /algorithms.
type RegisterRequest struct {
	CalculationURI string `json:"calculation_uri" binding:"required"`
}

// RegisterResponse identifies a newly registered algorithm.
type RegisterResponse struct {
	ID   string `json:"id"`
	GUID string `json:"guid"`
}

const (
	mimeJSONLD   = "application/ld+json"
	mimeNTriples = "application/n-triples"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Stage string `json:"stage,omitempty"`
}

// New creates a Server with its routes installed.
func New(svc Service, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	if opts.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger(opts.Logger))

	s := &Server{svc: svc, engine: engine, logger: opts.Logger}

	engine.GET("/healthz", s.health)
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	engine.POST("/assess/algorithm/:id", s.assess)

	algorithms := engine.Group("/algorithms")
	{
		algorithms.GET("", s.list)
		algorithms.POST("", s.register)
		algorithms.GET("/:id", s.describe)
	}
	return s
}

// Handler returns the server's http.Handler.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves on addr until ctx is done, then drains in-flight requests for
// at most shutdownTimeout.
func (s *Server) Run(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("http server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) assess(c *gin.Context) {
	var req AssessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("invalid request: %v", err)})
		return
	}

	outcome, err := s.svc.ProcessByID(c.Request.Context(), c.Param("id"), application.Request{
		GUID:      req.GUID,
		ResultSet: req.ResultSet,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, outcome)
}

func (s *Server) register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("invalid request: %v", err)})
		return
	}

	def, err := s.svc.Register(c.Request.Context(), req.CalculationURI)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, RegisterResponse{ID: def.AlgorithmID, GUID: def.GUID()})
}

func (s *Server) list(c *gin.Context) {
	records, err := s.svc.List(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	if records == nil {
		records = []ports.AlgorithmRecord{}
	}
	c.JSON(http.StatusOK, records)
}

// describe answers with the algorithm's DCAT description as JSON-LD, or as
// N-Triples when the client asks for them.
func (s *Server) describe(c *gin.Context) {
	_, metadata, err := s.svc.Describe(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	if c.NegotiateFormat(mimeJSONLD, mimeNTriples) == mimeNTriples {
		c.Data(http.StatusOK, mimeNTriples, []byte(metadata.NTriples()))
		return
	}
	data, err := metadata.MarshalJSONLD()
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Data(http.StatusOK, mimeJSONLD, data)
}

func (s *Server) fail(c *gin.Context, err error) {
	status := StatusFor(err)
	stage := application.StageOf(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", c.FullPath(), "stage", stage, "error", err)
	}
	c.JSON(status, ErrorResponse{Error: err.Error(), Stage: stage})
}

// StatusFor maps a service error to an HTTP status.
func StatusFor(err error) int {
	var (
		structure *domain.ConfigStructureError
		fetch     *domain.ConfigFetchError
	)
	switch {
	case errors.Is(err, ports.ErrAlgorithmNotFound):
		return http.StatusNotFound
	case errors.Is(err, application.ErrInvalidRequest), errors.Is(err, units.ErrInvalidResultSet):
		return http.StatusBadRequest
	case errors.As(err, &structure):
		return http.StatusUnprocessableEntity
	case errors.As(err, &fetch):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case application.StageOf(err) == domain.StageRegistry:
		return http.StatusBadGateway
	case errors.Is(err, application.ErrNoAlgorithmRegistry):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// requestLogger logs one line per request.
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}
