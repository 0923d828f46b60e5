package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kitbuilder587/estimator-agents/internal/agent"
	"github.com/kitbuilder587/estimator-agents/internal/metrics"
	"github.com/kitbuilder587/estimator-agents/internal/ratelimit"
	"github.com/kitbuilder587/estimator-agents/internal/repository"
	"github.com/kitbuilder587/estimator-agents/internal/service"
	"github.com/kitbuilder587/estimator-agents/internal/tool"
)

const bodyLimit = "1M"

type Deps struct {
	Agents   *agent.Registry
	Tools    *tool.Registry
	Activity service.ActivityService
	Limiter  *ratelimit.Limiter
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Logger   *zap.Logger
}

type Server struct {
	echo     *echo.Echo
	agents   *agent.Registry
	tools    *tool.Registry
	activity service.ActivityService
	limiter  *ratelimit.Limiter
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

func New(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	m := deps.Metrics
	if m == nil {
		m = metrics.New(prometheus.NewRegistry())
	}

	if deps.Agents == nil {
		deps.Agents = agent.NewRegistry()
	}
	if deps.Tools == nil {
		deps.Tools = tool.NewRegistry(logger, m)
	}
	if deps.Activity == nil {
		deps.Activity = service.NewActivityService(repository.NewInMemoryActivityRepository(), logger, m)
	}

	s := &Server{
		echo:     echo.New(),
		agents:   deps.Agents,
		tools:    deps.Tools,
		activity: deps.Activity,
		limiter:  deps.Limiter,
		metrics:  m,
		logger:   logger.Named("http"),
	}

	e := s.echo
	e.HideBanner = true
	e.HidePort = true
	e.Validator = NewValidator()
	e.HTTPErrorHandler = s.errorHandler()

	e.Use(middleware.RequestID())
	e.Use(s.observe())
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			s.logger.Error("panic recovered",
				zap.String("uri", c.Request().RequestURI),
				zap.Error(err),
				zap.ByteString("stack", stack),
			)
			return err
		},
	}))
	e.Use(middleware.BodyLimit(bodyLimit))
	e.Use(s.rateLimit())

	s.routes(deps.Gatherer)
	return s
}

func (s *Server) routes(g prometheus.Gatherer) {
	e := s.echo

	e.GET("/health", s.health)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler(g)))

	api := e.Group("/api")
	api.GET("/agents", s.listAgents)
	api.POST("/agents/:name", s.chat)
	api.GET("/tools", s.listTools)
	api.POST("/tools/:name", s.callTool)
	api.POST("/system/agent-activity", s.logActivity)
	api.GET("/system/agent-activity", s.recentActivity)
}

// Handler нужен тестам и для встраивания в чужой http.Server
func (s *Server) Handler() http.Handler { return s.echo }

// Run слушает addr до отмены ctx, затем закрывается с таймаутом shutdownTimeout
func (s *Server) Run(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", zap.String("addr", addr))
		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return <-errCh
}
