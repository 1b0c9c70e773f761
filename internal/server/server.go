// Package server exposes the ingestion trigger endpoints invoked by the
// scheduler: one crawl route per configured site plus the sales cleanup
// pass. Handlers are thin wrappers around the worker.
package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"aspingest/internal/adapter"
	"aspingest/logger"
	"aspingest/services/worker"
)

// Runner is the worker surface the trigger routes call.
type Runner interface {
	RunSite(ctx context.Context, site string, r adapter.PageRange) (worker.Summary, error)
	CleanupSales(ctx context.Context) (int64, error)
	Sites() []string
}

// Server handles the cron trigger HTTP surface.
type Server struct {
	router   *gin.Engine
	runner   Runner
	verifier AuthVerifier
	log      *logger.Logger
}

// New creates the trigger server and registers its routes.
func New(runner Runner, verifier AuthVerifier) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		router:   gin.New(),
		runner:   runner,
		verifier: verifier,
		log:      logger.ForServer(),
	}
	s.routes()
	return s
}

// Handler returns the http.Handler for the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authed := s.router.Group("/api/cron", s.authMiddleware())
	for _, site := range s.runner.Sites() {
		site := site
		authed.GET("/crawl-"+site, func(c *gin.Context) {
			s.handleCrawl(c, site)
		})
	}
	authed.GET("/cleanup-sales", s.handleCleanupSales)
}

func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.verifier.Verify(c.Request); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		c.Next()
	}
}

func (s *Server) handleCrawl(c *gin.Context, site string) {
	r := adapter.PageRange{
		Page:  queryInt(c, "page"),
		Limit: queryInt(c, "limit"),
		Start: queryInt(c, "start"),
	}

	summary, err := s.runner.RunSite(c.Request.Context(), site, r)
	if err != nil {
		if errors.Is(err, worker.ErrUnknownSite) {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown site"})
			return
		}
		s.log.Error().Err(err).Str("site", site).Msg("Crawl trigger failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   err.Error(),
			"summary": summary,
		})
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *Server) handleCleanupSales(c *gin.Context) {
	n, err := s.runner.CleanupSales(c.Request.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("Sales cleanup trigger failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deactivated": n})
}

func queryInt(c *gin.Context, key string) int {
	v := c.Query(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}
