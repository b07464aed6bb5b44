// Package api exposes the application over HTTP for the web dashboard.
package api

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/ewhitmore/ledgible/internal/common"
	"github.com/ewhitmore/ledgible/internal/engine"
	"github.com/ewhitmore/ledgible/internal/service"
	"github.com/ewhitmore/ledgible/internal/storage"
)

// LinkTokenProvider is the slice of the bank feed client the API needs for
// the account linking flow.
type LinkTokenProvider interface {
	CreateLinkToken(ctx context.Context) (string, error)
	ExchangePublicToken(ctx context.Context, publicToken string) (string, string, error)
}

// Config holds the API server configuration. TLS is optional; when set
// the server listens over HTTPS.
type Config struct {
	TLS            *tls.Config
	Addr           string
	AllowedOrigins []string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Addr:           ":8080",
		AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
	}
}

// Server wires the engine and storage into HTTP handlers.
type Server struct {
	engine  *engine.Engine
	storage service.Storage
	linker  LinkTokenProvider
	logger  *slog.Logger
	config  Config
}

// NewServer creates an API server. The linker may be nil when no bank feed
// is configured; the linking routes then return 503.
func NewServer(eng *engine.Engine, store service.Storage, linker LinkTokenProvider, config Config, logger *slog.Logger) *Server {
	return &Server{
		engine:  eng,
		storage: store,
		linker:  linker,
		config:  config,
		logger:  logger,
	}
}

// Router builds the gin router with all routes registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/api/health"},
	}))

	router.Use(cors.New(cors.Config{
		AllowOrigins:     s.config.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api := router.Group("/api")
	{
		api.GET("/health", s.getHealth)

		api.GET("/transactions", s.listTransactions)
		api.GET("/transactions/:id", s.getTransaction)
		api.PATCH("/transactions/:id", s.patchTransaction)
		api.POST("/transactions/:id/assign", s.assignTransaction)

		api.POST("/proposals/commit", s.commitProposal)
		api.POST("/classify", s.reclassify)
		api.POST("/import/csv", s.importCSV)
		api.POST("/import/ofx", s.importOFX)

		api.GET("/rules", s.listRules)
		api.POST("/rules", s.createRule)
		api.PUT("/rules/:id", s.updateRule)
		api.DELETE("/rules/:id", s.deleteRule)

		api.GET("/businesses", s.listBusinesses)
		api.POST("/businesses", s.createBusiness)

		api.GET("/report", s.getReport)
		api.GET("/report/csv", s.getReportCSV)

		api.POST("/link/token", s.createLinkToken)
		api.POST("/link/exchange", s.exchangePublicToken)
	}

	return router
}

// Run starts the HTTP server and blocks until the context is canceled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.Router(),
		TLSConfig:         s.config.TLS,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("API server listening", "addr", s.config.Addr, "tls", s.config.TLS != nil)
		var err error
		if s.config.TLS != nil {
			err = srv.ListenAndServeTLS("", "")
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) getHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// respondError maps application errors onto HTTP status codes.
func (s *Server) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, common.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, common.ErrDuplicateEntry):
		status = http.StatusConflict
	case errors.Is(err, storage.ErrNotReviewable),
		errors.Is(err, storage.ErrInvalidRule),
		errors.Is(err, storage.ErrInvalidTransaction),
		errors.Is(err, storage.ErrEmptyString):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "path", c.FullPath(), "error", err)
	}

	c.JSON(status, gin.H{"error": err.Error()})
}
