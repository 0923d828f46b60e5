package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kitbuilder587/estimator-agents/internal/agent"
	"github.com/kitbuilder587/estimator-agents/internal/config"
	"github.com/kitbuilder587/estimator-agents/internal/metrics"
	"github.com/kitbuilder587/estimator-agents/internal/ratelimit"
	"github.com/kitbuilder587/estimator-agents/internal/repository"
	"github.com/kitbuilder587/estimator-agents/internal/repository/postgres"
	"github.com/kitbuilder587/estimator-agents/internal/search/bigbox"
	"github.com/kitbuilder587/estimator-agents/internal/server"
	"github.com/kitbuilder587/estimator-agents/internal/service"
	"github.com/kitbuilder587/estimator-agents/internal/tool"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "estimator-agents: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	activityRepo, closeRepo, err := openActivityRepo(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeRepo()

	searchClient := bigbox.New(bigbox.Config{
		APIKey:  cfg.BigBox.APIKey,
		BaseURL: cfg.BigBox.BaseURL,
		Timeout: cfg.BigBox.Timeout,
	}, logger.Named("bigbox"), m)
	if !searchClient.Configured() {
		logger.Warn("BIGBOX_API_KEY is not set, product searches will return credential errors")
	}

	tools := tool.NewRegistry(logger.Named("tools"), m)
	if err := tools.Register(tool.NewAllTools(searchClient, cfg.Tools.MaxConcurrency)...); err != nil {
		return fmt.Errorf("register tools: %w", err)
	}

	limiter := ratelimit.New(ratelimit.Config{RequestsPerMinute: cfg.RateLimit.RequestsPerMinute})

	srv := server.New(server.Deps{
		Agents:   agent.NewRegistry(agent.NewAllAgents(logger.Named("agent"))...),
		Tools:    tools,
		Activity: service.NewActivityService(activityRepo, logger.Named("activity"), m),
		Limiter:  limiter,
		Metrics:  m,
		Gatherer: reg,
		Logger:   logger,
	})

	logger.Info("estimator-agents starting",
		zap.String("addr", cfg.HTTP.Addr),
		zap.Bool("database", cfg.UseDatabase()),
		zap.Int("rate_limit_per_minute", limiter.Limit()),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		limiter.Run(gctx)
		return nil
	})
	g.Go(func() error {
		return srv.Run(gctx, cfg.HTTP.Addr, cfg.HTTP.ShutdownTimeout)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server stopped with error", zap.Error(err))
		return err
	}
	logger.Info("estimator-agents stopped")
	return nil
}

// openActivityRepo: с DATABASE_URL - postgres, без него - память
func openActivityRepo(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.ActivityRepository, func(), error) {
	if !cfg.UseDatabase() {
		logger.Info("DATABASE_URL is not set, agent activity is kept in memory")
		return repository.NewInMemoryActivityRepository(), func() {}, nil
	}

	db, err := postgres.New(ctx, cfg.Database.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	return postgres.NewActivityRepo(db), db.Close, nil
}
