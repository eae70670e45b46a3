package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/arenaplay/arena/application"
	"github.com/arenaplay/arena/domain/entities"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

const shutdownTimeout = 10 * time.Second

// Sweeper runs an on-demand cleanup sweep
type Sweeper interface {
	RunSweep(ctx context.Context) *entities.SweepReport
}

// Handlers groups the application handlers the HTTP surface delegates to
type Handlers struct {
	Bingo    application.BingoHandler
	Dice     application.DiceHandler
	Ledger   application.LedgerHandler
	Presence application.PresenceHandler
	Sweeper  Sweeper
}

// Server is the inbound HTTP adapter. Caller identity comes from the trusted
// web layer in the X-User-ID header.
type Server struct {
	handlers   Handlers
	router     *gin.Engine
	httpServer *http.Server
}

// NewServer builds the router and binds it to addr
func NewServer(addr string, handlers Handlers) *Server {
	s := &Server{handlers: handlers}
	s.router = s.setupRouter()
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the router, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves in the background and returns a function that shuts the
// server down gracefully
func (s *Server) Start() func() {
	go func() {
		log.WithField("addr", s.httpServer.Addr).Info("HTTP server listening")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("HTTP server stopped unexpectedly")
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(ctx); err != nil {
			log.WithError(err).Error("HTTP server shutdown failed")
			return
		}
		log.Info("HTTP server stopped")
	}
}

func (s *Server) setupRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/v1", requireUser())
	s.registerBingoRoutes(v1.Group("/bingo"))
	s.registerDiceRoutes(v1.Group("/dice"))
	s.registerAccountRoutes(v1.Group("/accounts"))
	s.registerPresenceRoutes(v1.Group("/presence"))
	s.registerAdminRoutes(v1.Group("/admin"))

	return r
}

// requestLogger logs every request with logrus
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()

		entry := log.WithFields(log.Fields{
			"method":   c.Request.Method,
			"path":     c.FullPath(),
			"status":   c.Writer.Status(),
			"duration": time.Since(started),
		})
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Warn("HTTP request failed")
			return
		}
		entry.Debug("HTTP request")
	}
}
