// Package dashboard serves the brief API over HTTP.
package dashboard

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/chain-brief/pkg/brief"
	"github.com/chain-brief/pkg/db"
	"github.com/chain-brief/pkg/observability"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
	requestIDHeader     = "X-Request-ID"
)

type Briefer interface {
	Run(ctx context.Context, query, lang string) (*brief.BriefResult, error)
}

// History is the brief store; *db.Store implements it.
type History interface {
	InsertBrief(r *brief.BriefResult) (int64, error)
	RecentBriefs(address string, limit int) ([]db.BriefRecord, error)
	GetBrief(id int64) (*brief.BriefResult, error)
	GetStats() (db.Stats, error)
}

type Server struct {
	briefer Briefer
	history History
	metrics *observability.Metrics
	engine  *gin.Engine
	limiter *RateLimiter
}

type briefRequest struct {
	Query string `json:"query" binding:"required,min=1,max=4000"`
	Lang  string `json:"lang" binding:"omitempty,max=16"`
}

type briefResponse struct {
	ID int64 `json:"id,omitempty"`
	*brief.BriefResult
}

// New builds the router. history may be nil; gatherer may be nil to skip /metrics.
func New(b Briefer, history History, m *observability.Metrics, gatherer prometheus.Gatherer, ratePerMin int) *Server {
	s := &Server{briefer: b, history: history, metrics: m, engine: gin.New()}
	if ratePerMin > 0 {
		s.limiter = NewRateLimiter(ratePerMin, time.Minute)
	}

	r := s.engine
	r.Use(gin.Recovery(), s.requestID(), s.accessLog())
	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", requestIDHeader},
		ExposeHeaders: []string{"Content-Length", requestIDHeader},
		MaxAge:        12 * time.Hour,
	}))

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })
	if gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api")
	{
		if s.limiter != nil {
			api.POST("/brief", RateLimitMiddleware(s.limiter), s.createBrief)
		} else {
			api.POST("/brief", s.createBrief)
		}
		api.GET("/history", s.listHistory)
		api.GET("/history/:id", s.getHistory)
		api.GET("/stats", s.stats)
	}
	return s
}

func (s *Server) Handler() http.Handler { return s.engine }

// Run serves on addr until ctx is cancelled, then drains for up to 10s.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.engine, ReadHeaderTimeout: 10 * time.Second}

	if s.limiter != nil {
		go func() {
			ticker := time.NewTicker(time.Minute)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					s.limiter.Cleanup()
				}
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("api listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		code := c.Writer.Status()
		s.metrics.ObserveHTTP(route, strconv.Itoa(code))
		log.Debug().
			Str("request_id", c.GetString("request_id")).
			Str("method", c.Request.Method).
			Str("route", route).
			Int("status", code).
			Dur("elapsed", time.Since(start)).
			Msg("http")
	}
}

func (s *Server) createBrief(c *gin.Context) {
	var req briefRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := s.briefer.Run(c.Request.Context(), req.Query, req.Lang)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	out := briefResponse{BriefResult: res}
	if s.history != nil {
		id, err := s.history.InsertBrief(res)
		if err != nil {
			log.Warn().Err(err).Str("request_id", c.GetString("request_id")).Msg("history insert failed")
		} else {
			out.ID = id
		}
	}
	c.JSON(http.StatusOK, out)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, brief.ErrInvalidAddress):
		return http.StatusBadRequest
	case errors.Is(err, brief.ErrResolutionFailure):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) listHistory(c *gin.Context) {
	if s.history == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "history disabled"})
		return
	}
	limit := defaultHistoryLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, maxHistoryLimit)
	}
	recs, err := s.history.RecentBriefs(c.Query("address"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if recs == nil {
		recs = []db.BriefRecord{}
	}
	c.JSON(http.StatusOK, recs)
}

func (s *Server) getHistory(c *gin.Context) {
	if s.history == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "history disabled"})
		return
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	res, err := s.history.GetBrief(id)
	if errors.Is(err, db.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, briefResponse{ID: id, BriefResult: res})
}

func (s *Server) stats(c *gin.Context) {
	if s.history == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "history disabled"})
		return
	}
	st, err := s.history.GetStats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, st)
}
