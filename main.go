package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"finance-form/config"
	httpLayer "finance-form/http"
	"finance-form/obs"
	"finance-form/repository"
	"finance-form/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel)
	log.Logger = logger

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, closeRepo, err := newFieldRepository(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Str("store", cfg.StoreBackend).Msg("init field store")
	}
	defer closeRepo()

	saver := service.NewRemoteSaver(repo, cfg.SaveDelay)

	formOpts := []service.Option{service.WithLogger(logger)}
	var metricsHandler http.Handler
	if cfg.MetricsEnabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		formOpts = append(formOpts, service.WithMetrics(obs.NewCommitMetrics(cfg.MetricsNamespace, reg)))
		metricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	}
	forms := service.NewFormService(saver, formOpts...)

	rateLimiter := httpLayer.NewRateLimiter(cfg.RateLimitCapacity, cfg.RateLimitWindow)
	defer rateLimiter.Stop()

	server := &http.Server{
		Addr: cfg.HTTPAddr(),
		Handler: httpLayer.NewRouter(httpLayer.RouterConfig{
			Forms:          forms,
			Logger:         logger,
			RateLimiter:    rateLimiter,
			AllowedOrigins: cfg.CORSAllowedOrigins,
			MetricsHandler: metricsHandler,
		}),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().
			Str("addr", server.Addr).
			Str("env", cfg.AppEnv).
			Str("store", cfg.StoreBackend).
			Dur("save_delay", cfg.SaveDelay).
			Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("server stopped with error")
		return
	}
	logger.Info().Msg("server exited")
}

func newFieldRepository(ctx context.Context, cfg *config.Config) (repository.FieldRepository, func(), error) {
	if cfg.StoreBackend != config.StoreRedis {
		return repository.NewFieldRepositoryMemory(), func() {}, nil
	}

	redisRepo := repository.NewRedisFieldRepository(cfg.RedisAddr, cfg.RedisTTL)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := redisRepo.Ping(pingCtx); err != nil {
		_ = redisRepo.Close()
		return nil, nil, err
	}
	closeFn := func() {
		if err := redisRepo.Close(); err != nil {
			log.Warn().Err(err).Msg("close redis")
		}
	}
	return redisRepo, closeFn, nil
}
