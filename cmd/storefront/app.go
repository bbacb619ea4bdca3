package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ecosopis/storefront/internal/auth"
	"github.com/ecosopis/storefront/internal/cache"
	"github.com/ecosopis/storefront/internal/catalog"
	"github.com/ecosopis/storefront/internal/chat"
	"github.com/ecosopis/storefront/internal/config"
	h "github.com/ecosopis/storefront/internal/http"
	"github.com/ecosopis/storefront/internal/logger"
	"github.com/ecosopis/storefront/internal/metrics"
	"github.com/ecosopis/storefront/internal/order"
	"github.com/ecosopis/storefront/internal/repository"
	"github.com/ecosopis/storefront/internal/seed"
	"github.com/redis/go-redis/v9"
)

type app struct {
	cfg    *config.Config
	logger *slog.Logger
	repo   *repository.Repository
}

func newApp(logLevel string) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log := logger.New(os.Stderr, cfg.LogFormat, logger.ParseLevel(logLevel))
	slog.SetDefault(log)

	repo, err := repository.NewRepository(cfg.DB)
	if err != nil {
		return nil, err
	}
	log.Info("connected to postgres", "host", cfg.DB.Host, "db", cfg.DB.DBName)

	return &app{cfg: cfg, logger: log, repo: repo}, nil
}

func (a *app) migrate() error {
	if err := a.repo.RunMigrations(a.cfg.DB); err != nil {
		return err
	}
	a.logger.Info("migrations applied", "path", a.cfg.DB.MigrationsDirPath)
	return nil
}

func (a *app) seed(ctx context.Context) (int, error) {
	return seed.Run(ctx, a.repo, a.logger)
}

func (a *app) close() {
	if err := a.repo.Close(); err != nil {
		a.logger.Warn("closing database failed", "error", err)
	}
}

func serve(ctx context.Context, logLevel string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := newApp(logLevel)
	if err != nil {
		return err
	}
	defer a.close()
	cfg := a.cfg

	if err := a.migrate(); err != nil {
		return err
	}
	if !cfg.IsProduction() {
		if _, err := a.seed(ctx); err != nil {
			return err
		}
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}

	m := metrics.New()
	productCache := cache.NewRedisCache(redisClient, cfg.CacheTTL)
	catalogSvc := catalog.NewService(a.repo, productCache, m, a.logger)
	// checkout reads prices straight from postgres, never from the cache
	orderSvc := order.NewService(a.repo, a.repo, m, a.logger)
	authSvc := auth.NewService(a.repo, auth.NewRedisSessionStore(redisClient, cfg.Session.TTL), a.logger)
	chatRelay := chat.NewRelay(cfg.Chat, m, a.logger)
	if cfg.Chat.APIKey == "" {
		a.logger.Warn("OPENAI_API_KEY is not set, chat requests will fail")
	}

	router := h.NewRouter(cfg, h.Services{
		Products: catalogSvc,
		Orders:   orderSvc,
		Chat:     chatRelay,
		Auth:     authSvc,
	}, m, a.repo, a.logger)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + cfg.Chat.Timeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("storefront starting", "port", cfg.HTTPPort, "env", cfg.Env, "version", Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-quit:
	}

	a.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	a.logger.Info("server exited")
	return nil
}
