package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/RichardoC/dentalchat/internal/api"
	"github.com/RichardoC/dentalchat/internal/config"
	"github.com/RichardoC/dentalchat/internal/db"
	"github.com/RichardoC/dentalchat/internal/intake"
	"github.com/RichardoC/dentalchat/internal/llm"
	"github.com/RichardoC/dentalchat/internal/metrics"
	"github.com/RichardoC/dentalchat/internal/widget"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	server, cleanup, err := newServer(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize server", zap.Error(err))
	}
	defer cleanup()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Warn("graceful shutdown failed", zap.Error(err))
		}
	}()

	logger.Info("starting server", zap.String("addr", cfg.ListenAddr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("failed to start server", zap.Error(err))
	}
}

// newServer wires every component from cfg. The returned cleanup releases
// the database and Redis connections.
func newServer(cfg config.Config, logger *zap.Logger) (*http.Server, func(), error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	database, err := db.New(cfg.DatabasePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database %s: %w", cfg.DatabasePath, err)
	}
	closers := []func() error{database.Close}
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				logger.Warn("cleanup failed", zap.Error(err))
			}
		}
	}

	m := metrics.New()
	llmService, err := llm.New(llm.Options{
		BaseURL:   cfg.UpstreamBaseURL,
		APIKey:    cfg.UpstreamAPIKey,
		Model:     cfg.DefaultModel,
		SiteURL:   cfg.SiteURL,
		SiteTitle: cfg.SiteTitle,
		Metrics:   m,
	}, logger)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to initialize LLM service: %w", err)
	}

	var publisher intake.Publisher
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		closers = append(closers, rdb.Close)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.RedisAddr, err)
		}
		publisher = intake.NewRedisPublisher(rdb, intake.DefaultStream)
		logger.Info("publishing leads to Redis", zap.String("stream", intake.DefaultStream))
	}

	var forwarder intake.Forwarder
	if cfg.LeadWebhookURL != "" {
		forwarder = intake.NewWebhookForwarder(cfg.LeadWebhookURL)
	}

	leads := intake.NewService(database, publisher, forwarder, m, logger)

	handler := api.NewHandler(llmService, leads, database, m, cfg, logger)
	chatWidget := widget.NewHandler(widget.UpstreamCompleter{Upstream: llmService, Metrics: m}, leads, cfg, m, logger)

	return &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           api.NewRouter(handler, chatWidget),
		ReadHeaderTimeout: 5 * time.Second,
	}, cleanup, nil
}
