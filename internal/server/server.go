// Package server exposes the recap service over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/suykerbuyk/recap/internal/config"
	"github.com/suykerbuyk/recap/internal/quota"
	"github.com/suykerbuyk/recap/internal/recap"
	"github.com/suykerbuyk/recap/internal/store"
)

const (
	maxBodyBytes    = 1 << 20
	shutdownTimeout = 10 * time.Second
)

// Recaps is the service surface the handlers need.
type Recaps interface {
	Generate(ctx context.Context, userID, text string) (*recap.Result, error)
	Usage(ctx context.Context, userID string) (quota.Usage, error)
	History(ctx context.Context, userID string, limit int) ([]store.Recap, error)
	Get(ctx context.Context, userID, id string) (*store.Recap, error)
	Delete(ctx context.Context, userID, id string) error
}

// Server routes HTTP requests to a Recaps implementation.
type Server struct {
	svc    Recaps
	auth   Authenticator
	log    *zap.Logger
	engine *gin.Engine
}

// New builds the router. auth decides who the caller is; a nil log discards.
func New(svc Recaps, auth Authenticator, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	gin.SetMode(gin.ReleaseMode)

	s := &Server{svc: svc, auth: auth, log: log, engine: gin.New()}
	s.engine.Use(requestLogger(log), recovery(log))

	s.engine.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Recap server is running")
	})

	api := s.engine.Group("/api", s.authenticate)
	api.POST("/generate", s.handleGenerate)
	api.GET("/usage", s.handleUsage)
	api.GET("/recaps", s.handleList)
	api.GET("/recaps/:id", s.handleGet)
	api.DELETE("/recaps/:id", s.handleDelete)

	return s
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler { return s.engine }

// NewAuthenticator builds the authenticator selected by cfg.
func NewAuthenticator(cfg config.AuthConfig) (Authenticator, error) {
	switch cfg.Mode {
	case "jwt":
		secret := cfg.JWTSecret()
		if secret == "" {
			return nil, fmt.Errorf("auth mode jwt: %s not set", cfg.JWTSecretEnv)
		}
		return JWTAuth{Secret: []byte(secret)}, nil
	case "header":
		return HeaderAuth{Header: cfg.UserHeader}, nil
	default:
		return nil, fmt.Errorf("unknown auth mode %q", cfg.Mode)
	}
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info("server listening", zap.String("addr", ln.Addr().String()))
		errc <- srv.Serve(ln)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	s.log.Info("server stopped")
	return nil
}
