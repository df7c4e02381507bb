package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"horse.fit/decant/internal/db"
	"horse.fit/decant/internal/enrich"
	"horse.fit/decant/internal/globaltime"
)

const (
	defaultPageSize = 25
	maxPageSize     = 200
)

type Options struct {
	Host            string
	Port            int
	AllowedOrigins  []string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// Server is the ops/review surface over the catalog: product browsing,
// the review queue, enrichment dry runs and stats.
type Server struct {
	pool      *db.Pool
	validator *enrich.Validator
	logger    zerolog.Logger
	opts      Options
}

func NewServer(pool *db.Pool, validator *enrich.Validator, logger zerolog.Logger, opts Options) *Server {
	host := strings.TrimSpace(opts.Host)
	if host == "" {
		host = "0.0.0.0"
	}
	port := opts.Port
	if port <= 0 {
		port = 8091
	}
	readTimeout := opts.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 10 * time.Second
	}
	writeTimeout := opts.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 30 * time.Second
	}
	shutdownTimeout := opts.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	return &Server{
		pool:      pool,
		validator: validator,
		logger:    logger,
		opts: Options{
			Host:            host,
			Port:            port,
			AllowedOrigins:  origins,
			ReadTimeout:     readTimeout,
			WriteTimeout:    writeTimeout,
			ShutdownTimeout: shutdownTimeout,
		},
	}
}

func (s *Server) Start(ctx context.Context) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("server is not initialized")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.httpErrorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: s.opts.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       3600,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				s.logger.Error().
					Err(v.Error).
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Str("remote_ip", v.RemoteIP).
					Str("request_id", v.RequestID).
					Msg("http request failed")
				return nil
			}

			s.logger.Info().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Str("request_id", v.RequestID).
				Msg("http request")
			return nil
		},
	}))

	e.GET("/healthz", s.handleHealth)

	api := e.Group("/api/v1")
	api.GET("/products", s.handleProducts)
	api.GET("/products/:product_uuid", s.handleProductDetail)
	api.GET("/candidates", s.handleCandidates)
	api.POST("/candidates/:candidate_uuid/resolve", s.handleCandidateResolve)
	api.POST("/enrichment/validate", s.handleEnrichmentValidate)
	api.GET("/stats", s.handleStats)

	addr := fmt.Sprintf("%s:%d", s.opts.Host, s.opts.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      e,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		if shutdownErr := e.Shutdown(shutdownCtx); shutdownErr != nil {
			s.logger.Error().Err(shutdownErr).Msg("server shutdown failed")
		}
	}()

	s.logger.Info().Str("addr", addr).Msg("decant api server started")

	if err := e.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("start server: %w", err)
	}
	s.logger.Info().Msg("decant api server stopped")
	return nil
}

func (s *Server) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := "Internal server error"
	if he, ok := err.(*echo.HTTPError); ok {
		status = he.Code
		switch v := he.Message.(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				message = v
			}
		default:
			if text := strings.TrimSpace(http.StatusText(status)); text != "" {
				message = text
			}
		}
	} else if err != nil {
		message = err.Error()
	}

	if status >= 500 {
		_ = internalError(c, "Internal server error")
		return
	}
	_ = fail(c, status, message, nil)
}

func (s *Server) handleHealth(c echo.Context) error {
	return success(c, map[string]any{
		"service": "decant",
		"time":    globaltime.UTC(),
	})
}

func (s *Server) handleProducts(c echo.Context) error {
	page, pageSize := parsePaging(c)
	products, err := s.pool.ListProducts(c.Request().Context(), db.ProductListOptions{
		Brand:       c.QueryParam("brand"),
		ProductType: c.QueryParam("product_type"),
		Query:       c.QueryParam("q"),
		Limit:       pageSize,
		Offset:      (page - 1) * pageSize,
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("list products failed")
		return internalError(c, "Failed to list products")
	}
	return success(c, map[string]any{
		"page":      page,
		"page_size": pageSize,
		"products":  products,
	})
}

func (s *Server) handleProductDetail(c echo.Context) error {
	productUUID := strings.TrimSpace(c.Param("product_uuid"))
	if productUUID == "" {
		return fail(c, http.StatusBadRequest, "product_uuid is required", nil)
	}

	product, err := s.pool.GetProductByUUID(c.Request().Context(), productUUID)
	if err != nil {
		s.logger.Error().Err(err).Str("product_uuid", productUUID).Msg("get product failed")
		return internalError(c, "Failed to load product")
	}
	if product == nil {
		return failNotFound(c, "Product not found")
	}
	return success(c, product)
}

func (s *Server) handleCandidates(c echo.Context) error {
	page, pageSize := parsePaging(c)
	status := strings.TrimSpace(c.QueryParam("status"))
	switch status {
	case "", db.CandidatePending, db.CandidateMatched, db.CandidateNeedsReview, db.CandidateNewProduct:
	default:
		return fail(c, http.StatusBadRequest, "unknown status filter", nil)
	}

	candidates, err := s.pool.ListCandidates(c.Request().Context(), db.CandidateListOptions{
		Status: status,
		Limit:  pageSize,
		Offset: (page - 1) * pageSize,
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("list candidates failed")
		return internalError(c, "Failed to list candidates")
	}
	return success(c, map[string]any{
		"page":       page,
		"page_size":  pageSize,
		"candidates": candidates,
	})
}

type resolveRequest struct {
	Action    string `json:"action"`
	ProductID *int64 `json:"product_id,omitempty"`
}

// handleCandidateResolve applies a reviewer decision to a needs_review
// candidate: confirm the proposed merge or declare it a new product.
func (s *Server) handleCandidateResolve(c echo.Context) error {
	candidateUUID := strings.TrimSpace(c.Param("candidate_uuid"))
	if candidateUUID == "" {
		return fail(c, http.StatusBadRequest, "candidate_uuid is required", nil)
	}

	var req resolveRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body", nil)
	}

	var status string
	switch strings.TrimSpace(req.Action) {
	case "approve":
		status = db.CandidateMatched
	case "new_product":
		status = db.CandidateNewProduct
	default:
		return fail(c, http.StatusBadRequest, "action must be approve or new_product", nil)
	}

	ctx := c.Request().Context()
	candidate, err := s.pool.GetCandidateByUUID(ctx, candidateUUID)
	if err != nil {
		s.logger.Error().Err(err).Str("candidate_uuid", candidateUUID).Msg("get candidate failed")
		return internalError(c, "Failed to load candidate")
	}
	if candidate == nil {
		return failNotFound(c, "Candidate not found")
	}

	matchedProductID := req.ProductID
	if status == db.CandidateMatched && matchedProductID == nil {
		matchedProductID = candidate.MatchedProductID
	}
	if status == db.CandidateMatched && matchedProductID == nil {
		return fail(c, http.StatusBadRequest, "approve requires a product_id", nil)
	}
	if status == db.CandidateNewProduct {
		matchedProductID = nil
	}

	if err := s.pool.ReassignCandidate(ctx, candidate.CandidateID, status, matchedProductID); err != nil {
		s.logger.Warn().Err(err).Str("candidate_uuid", candidateUUID).Msg("reassign candidate rejected")
		return fail(c, http.StatusConflict, "Candidate is not awaiting review", nil)
	}

	updated, err := s.pool.GetCandidateByUUID(ctx, candidateUUID)
	if err != nil {
		s.logger.Error().Err(err).Str("candidate_uuid", candidateUUID).Msg("reload candidate failed")
		return internalError(c, "Failed to reload candidate")
	}
	return success(c, updated)
}

type validateRequest struct {
	Target    enrich.Fields `json:"target"`
	Extracted enrich.Fields `json:"extracted"`
}

// handleEnrichmentValidate runs the cross-contamination gate without
// merging anything.
func (s *Server) handleEnrichmentValidate(c echo.Context) error {
	var req validateRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body", nil)
	}

	result := s.validator.Validate(req.Target, req.Extracted)
	return success(c, map[string]any{
		"valid":  result.OK,
		"reason": result.Reason,
	})
}

func (s *Server) handleStats(c echo.Context) error {
	stats, err := s.pool.LoadStats(c.Request().Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("load stats failed")
		return internalError(c, "Failed to load stats")
	}
	return success(c, stats)
}

func parsePaging(c echo.Context) (page, pageSize int) {
	page = parsePositiveInt(c.QueryParam("page"), 1)
	pageSize = parsePositiveInt(c.QueryParam("page_size"), defaultPageSize)
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

func parsePositiveInt(raw string, fallback int) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return fallback
	}
	return v
}
