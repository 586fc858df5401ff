// Package httpapi exposes the admin surface over HTTP.
package httpapi

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"ProductCurator/internal/domain"
	"ProductCurator/internal/metrics"
)

// Operations is the admin use case surface the API drives.
type Operations interface {
	SystemStatus(ctx context.Context) (domain.SystemStatus, error)
	TriggerJob(ctx context.Context, name string) (domain.JobState, error)
	SetJobEnabled(ctx context.Context, name string, enabled bool) (domain.JobState, error)
	Thresholds() []domain.QualityThreshold
	UpdateThreshold(ctx context.Context, th domain.QualityThreshold) (domain.QualityThreshold, error)
	ReviewQueue(ctx context.Context, limit int) ([]domain.ReviewQueueItem, error)
	ApproveReview(ctx context.Context, itemID, reviewerID, notes string) (domain.CuratedProduct, error)
	RejectReview(ctx context.Context, itemID, reviewerID, reason string) (domain.CuratedProduct, error)
	LatestReport(ctx context.Context) (domain.CurationReport, error)
	Products(ctx context.Context, status domain.ProductStatus, limit int) ([]domain.CuratedProduct, error)
	Rejections(ctx context.Context, limit int) ([]domain.Rejection, error)
}

// Server wires echo routes to the admin operations.
type Server struct {
	Echo *echo.Echo

	ops    Operations
	secret string
	logger *slog.Logger
}

type errorResponse struct {
	Error string `json:"error"`
}

type toggleRequest struct {
	Enabled *bool `json:"enabled"`
}

type approveRequest struct {
	ReviewerID string `json:"reviewerId"`
	Notes      string `json:"notes"`
}

type rejectRequest struct {
	ReviewerID string `json:"reviewerId"`
	Reason     string `json:"reason"`
}

// NewServer builds the router. An empty secret is replaced by a random one that is
// logged once, so the admin routes are never open.
func NewServer(ops Operations, secret string, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	secret = strings.TrimSpace(secret)
	if secret == "" {
		generated, err := randomSecret()
		if err != nil {
			return nil, err
		}
		secret = generated
		logger.Warn("ADMIN_SECRET not set, generated a one-off admin secret", "secret", secret)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(requestLogger(logger))
	e.Use(recordMetrics)

	s := &Server{Echo: e, ops: ops, secret: secret, logger: logger}
	e.HTTPErrorHandler = s.handleError
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.Echo.GET("/health", s.handleHealth)
	s.Echo.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	api := s.Echo.Group("/api/v1")
	api.Use(s.adminMiddleware)
	api.GET("/status", s.handleStatus)
	api.POST("/jobs/:name/trigger", s.handleTriggerJob)
	api.PATCH("/jobs/:name", s.handleToggleJob)
	api.GET("/thresholds", s.handleListThresholds)
	api.PUT("/thresholds/:id", s.handleUpdateThreshold)
	api.GET("/review-queue", s.handleReviewQueue)
	api.POST("/review-queue/:id/approve", s.handleApprove)
	api.POST("/review-queue/:id/reject", s.handleReject)
	api.GET("/reports/latest", s.handleLatestReport)
	api.GET("/products", s.handleProducts)
	api.GET("/rejections", s.handleRejections)
}

// Start serves on addr until Shutdown.
func (s *Server) Start(addr string) error {
	err := s.Echo.Start(addr)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting requests and drains in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.Echo.Shutdown(ctx)
}

func (s *Server) adminMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		adminHeader := c.Request().Header.Get("X-Admin-Secret")

		if adminHeader != "" && s.secretMatches(adminHeader) {
			return next(c)
		}
		if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") && s.secretMatches(authHeader[7:]) {
			return next(c)
		}
		return c.JSON(http.StatusUnauthorized, errorResponse{Error: "unauthorized admin access"})
	}
}

func (s *Server) secretMatches(candidate string) bool {
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(s.secret)) == 1
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(c echo.Context) error {
	status, err := s.ops.SystemStatus(c.Request().Context())
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, status)
}

func (s *Server) handleTriggerJob(c echo.Context) error {
	state, err := s.ops.TriggerJob(c.Request().Context(), c.Param("name"))
	if err != nil {
		var schedErr *domain.SchedulerError
		if errors.As(err, &schedErr) {
			// The job ran and failed; its state carries the error.
			return c.JSON(http.StatusInternalServerError, map[string]any{"error": err.Error(), "job": state})
		}
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, state)
}

func (s *Server) handleToggleJob(c echo.Context) error {
	var req toggleRequest
	if err := c.Bind(&req); err != nil || req.Enabled == nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: `body must be {"enabled": true|false}`})
	}
	state, err := s.ops.SetJobEnabled(c.Request().Context(), c.Param("name"), *req.Enabled)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, state)
}

func (s *Server) handleListThresholds(c echo.Context) error {
	return c.JSON(http.StatusOK, s.ops.Thresholds())
}

func (s *Server) handleUpdateThreshold(c echo.Context) error {
	var th domain.QualityThreshold
	if err := c.Bind(&th); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid threshold payload"})
	}
	th.ID = c.Param("id")
	updated, err := s.ops.UpdateThreshold(c.Request().Context(), th)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

func (s *Server) handleReviewQueue(c echo.Context) error {
	limit, err := queryInt(c, "limit")
	if err != nil {
		return s.fail(c, err)
	}
	items, err := s.ops.ReviewQueue(c.Request().Context(), limit)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, nonNil(items))
}

func (s *Server) handleApprove(c echo.Context) error {
	var req approveRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request"})
	}
	product, err := s.ops.ApproveReview(c.Request().Context(), c.Param("id"), req.ReviewerID, req.Notes)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, product)
}

func (s *Server) handleReject(c echo.Context) error {
	var req rejectRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request"})
	}
	product, err := s.ops.RejectReview(c.Request().Context(), c.Param("id"), req.ReviewerID, req.Reason)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, product)
}

func (s *Server) handleLatestReport(c echo.Context) error {
	report, err := s.ops.LatestReport(c.Request().Context())
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, report)
}

func (s *Server) handleProducts(c echo.Context) error {
	limit, err := queryInt(c, "limit")
	if err != nil {
		return s.fail(c, err)
	}
	status := domain.ProductStatus(c.QueryParam("status"))
	if status == "" {
		status = domain.StatusAutoApproved
	}
	products, err := s.ops.Products(c.Request().Context(), status, limit)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, nonNil(products))
}

func (s *Server) handleRejections(c echo.Context) error {
	limit, err := queryInt(c, "limit")
	if err != nil {
		return s.fail(c, err)
	}
	rejections, err := s.ops.Rejections(c.Request().Context(), limit)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, nonNil(rejections))
}

// fail maps domain errors to HTTP status codes.
func (s *Server) fail(c echo.Context, err error) error {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		s.logger.Error("admin request failed", "path", c.Path(), "error", err)
	}
	return c.JSON(code, errorResponse{Error: err.Error()})
}

// handleError renders errors that escape a handler with the same mapping as fail.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		s.Echo.DefaultHTTPErrorHandler(err, c)
		return
	}
	if ferr := s.fail(c, err); ferr != nil {
		s.logger.Error("write error response failed", "path", c.Path(), "error", ferr)
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnknownJob), errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrNotPending):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrJobRunning):
		return http.StatusConflict
	case errors.Is(err, domain.ErrRunnerStopped):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrInvalidThreshold):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func queryInt(c echo.Context, name string) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", domain.ErrInvalidInput, name)
	}
	return v, nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

func recordMetrics(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		endpoint := c.Path()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		metrics.RecordRequest(c.Request().Method, endpoint, responseStatus(c, err), time.Since(start))
		return err
	}
}

// responseStatus is the status the client sees once the error handler has run.
func responseStatus(c echo.Context, err error) int {
	if err == nil || c.Response().Committed {
		return c.Response().Status
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return statusFor(err)
}

func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			args := []any{"method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency}
			if v.Error != nil {
				args = append(args, "error", v.Error)
			}
			logger.Debug("http request", args...)
			return nil
		},
	})
}

func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate admin secret: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
