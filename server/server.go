// Package server exposes the engine over HTTP.
//
// Routes:
//
//	POST /optimize  transform a sample sequence
//	GET  /health    liveness and cache counters
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/arloliu/vecopt/cache"
	"github.com/arloliu/vecopt/engine"
	"github.com/arloliu/vecopt/errs"
	"github.com/arloliu/vecopt/internal/options"
	"github.com/arloliu/vecopt/metrics"
)

// DefaultMaxBodyBytes bounds request bodies, about 4M samples of JSON.
const DefaultMaxBodyBytes = 64 << 20

// Processor runs optimization jobs.
type Processor interface {
	Process(ctx context.Context, job engine.Job) (*engine.Result, error)
}

// StatsProvider reports cache counters for the health endpoint.
type StatsProvider interface {
	Stats() cache.Stats
}

// OptimizeRequest is the POST /optimize body. Data and Dimensions are
// required; an empty data array is valid.
type OptimizeRequest struct {
	Data       []float64 `json:"data"`
	Dimensions *int      `json:"dimensions"`
	BatchSize  int       `json:"batch_size"`
}

// OptimizeResponse is the POST /optimize success body.
type OptimizeResponse struct {
	Result             []float64       `json:"result"`
	PerformanceMetrics metrics.Metrics `json:"performance_metrics"`
}

// ErrorResponse is the body of every 4xx/5xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Server routes HTTP requests to a Processor.
type Server struct {
	processor    Processor
	stats        StatsProvider
	logger       *zap.Logger
	maxBodyBytes int64
	router       *gin.Engine
}

// Option configures a Server.
type Option = options.Option[*Server]

// WithLogger sets the access and error logger.
func WithLogger(logger *zap.Logger) Option {
	return options.NoError(func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	})
}

// WithMaxBodyBytes limits request body size. Larger bodies get 413.
func WithMaxBodyBytes(n int64) Option {
	return options.New(func(s *Server) error {
		if n < 1 {
			return errors.New("max body bytes must be positive")
		}
		s.maxBodyBytes = n

		return nil
	})
}

// WithStats exposes cache counters on GET /health.
func WithStats(stats StatsProvider) Option {
	return options.NoError(func(s *Server) {
		s.stats = stats
	})
}

// New creates a Server. Call gin.SetMode before New to pick the gin mode.
func New(processor Processor, opts ...Option) (*Server, error) {
	if processor == nil {
		return nil, errors.New("server: processor must not be nil")
	}

	s := &Server{
		processor:    processor,
		logger:       zap.NewNop(),
		maxBodyBytes: DefaultMaxBodyBytes,
	}
	if err := options.Apply(s, opts...); err != nil {
		return nil, err
	}

	s.router = gin.New()
	s.router.Use(RequestID(), AccessLog(s.logger), gin.CustomRecovery(s.recover))
	s.router.POST("/optimize", s.handleOptimize)
	s.router.GET("/health", s.handleHealth)

	return s, nil
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) recover(c *gin.Context, recovered any) {
	s.logger.Error("panic serving request",
		zap.String("request_id", c.GetString(requestIDKey)),
		zap.Any("panic", recovered),
	)
	c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}

func (s *Server) handleOptimize(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxBodyBytes)

	var req OptimizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "request body too large"})
			return
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "malformed request body: " + err.Error()})

		return
	}
	if req.Data == nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "data: field is required"})
		return
	}
	if req.Dimensions == nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "dimensions: field is required"})
		return
	}

	res, err := s.processor.Process(c.Request.Context(), engine.Job{
		Samples:   req.Data,
		Dimension: *req.Dimensions,
		BatchSize: req.BatchSize,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}

	if res.Cached {
		c.Header("X-Cache", "HIT")
	} else {
		c.Header("X-Cache", "MISS")
	}
	c.JSON(http.StatusOK, OptimizeResponse{
		Result:             res.Values,
		PerformanceMetrics: res.Metrics,
	})
}

func (s *Server) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errs.ErrInvalidDimension):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "dimensions: " + err.Error()})
	case errors.Is(err, errs.ErrInvalidBatchSize):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "batch_size: " + err.Error()})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		s.logger.Info("request abandoned",
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.Error(err),
		)
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "request cancelled"})
	default:
		s.logger.Error("optimize failed",
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}

type healthResponse struct {
	Status  string       `json:"status"`
	TimeUTC string       `json:"time_utc"`
	Cache   *cache.Stats `json:"cache,omitempty"`
}

func (s *Server) handleHealth(c *gin.Context) {
	resp := healthResponse{
		Status:  "healthy",
		TimeUTC: time.Now().UTC().Format(time.RFC3339),
	}
	if s.stats != nil {
		stats := s.stats.Stats()
		resp.Cache = &stats
	}
	c.JSON(http.StatusOK, resp)
}
