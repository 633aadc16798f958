package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Adda-Baaj/hscide-client/internal/logger"
	"github.com/Adda-Baaj/hscide-client/pkg/api"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	ServiceName     = "hscide-backend"
	shutdownTimeout = 10 * time.Second
)

// Server is the demo HTTP backend.
type Server struct {
	router *gin.Engine
	server *http.Server
	log    logger.Logger
}

// NewServer builds the router and binds it to port.
func NewServer(port int, greeter Greeter, log logger.Logger) *Server {
	if log == nil {
		log = logger.NopLogger{}
	}
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(recoveryMiddleware(log))
	router.Use(loggerMiddleware(log))
	router.Use(corsMiddleware())
	registerRoutes(router, greeter)

	return &Server{
		router: router,
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", port),
			Handler:      router,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		log: log,
	}
}

// Handler exposes the router for httptest.
func (s *Server) Handler() http.Handler { return s.router }

func registerRoutes(router *gin.Engine, greeter Greeter) {
	router.GET(api.HelloPath, func(c *gin.Context) {
		c.JSON(http.StatusOK, greeter.Greet())
	})
	router.GET(api.HealthPath, func(c *gin.Context) {
		c.JSON(http.StatusOK, api.HealthResponse{
			Status:          api.HealthyStatus,
			NativeAvailable: greeter.Native(),
			Service:         ServiceName,
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.InfoObj("backend listening", "address", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server error: %w", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	// ctx is already cancelled; shutdown needs its own deadline.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	s.log.InfoObj("backend stopped", "address", s.server.Addr)
	return nil
}
