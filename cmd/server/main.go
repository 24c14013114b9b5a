package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hualin/feishu-weather-bot/internal/advice"
	"github.com/hualin/feishu-weather-bot/internal/api"
	"github.com/hualin/feishu-weather-bot/internal/cache"
	"github.com/hualin/feishu-weather-bot/internal/config"
	"github.com/hualin/feishu-weather-bot/internal/feishu"
	"github.com/hualin/feishu-weather-bot/internal/llm"
	"github.com/hualin/feishu-weather-bot/internal/query"
	"github.com/hualin/feishu-weather-bot/internal/weather"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if err := run(log); err != nil {
		log.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	ctx := context.Background()

	// The LLM is optional: with AI disabled the interpreter falls back to
	// rule-based extraction and advice requests get the fixed apology.
	var completer llm.Completer
	if !cfg.AIDisabled {
		completer = llm.NewClient(llm.Options{
			APIKey:      cfg.LLMAPIKey,
			BaseURL:     cfg.LLMBaseURL,
			Model:       cfg.LLMModel,
			MaxAttempts: cfg.RetryMaxAttempts,
			BaseDelay:   cfg.RetryBaseDelay,
		}, log)
		log.Info("llm client configured", "model", cfg.LLMModel, "base_url", cfg.LLMBaseURL)
	} else {
		log.Info("AI disabled, using heuristic interpretation only")
	}

	// Snapshot caching is optional as well.
	var redisClient *redis.Client
	var snapCache api.SnapshotCache
	if cfg.RedisURL != "" {
		redisClient, err = cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer func() { _ = redisClient.Close() }()
		snapCache = cache.NewCache(redisClient)
		log.Info("snapshot cache enabled")
	}

	// Wire dependencies.
	interpreter := query.NewInterpreter(completer, log)
	fetcher := weather.NewClient(cfg.WeatherAPIKey, log)
	advisor := advice.NewAdvisor(completer, log)
	messenger := feishu.NewClientWithURL(cfg.FeishuBaseURL, cfg.FeishuAppID, cfg.FeishuAppSecret)
	handlers := api.NewHandlers(interpreter, fetcher, advisor, messenger, snapCache, cfg.FeishuVerificationToken, log)

	var pinger api.Pinger
	if redisClient != nil {
		pinger = &redisPingerAdapter{client: redisClient}
	}
	router := api.NewRouter(handlers, pinger, log)

	srv := &http.Server{
		Addr:         cfg.Host + ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // a reply may wait on several LLM retries
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error("server goroutine panicked", "recover", r)
				errCh <- fmt.Errorf("server panicked: %v", r)
			}
		}()
		log.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("listening: %w", err)
		}
	}()

	select {
	case sig := <-quit:
		log.Info("shutdown signal received", "signal", sig)
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	log.Info("server shut down cleanly")
	return nil
}

// redisPingerAdapter adapts redis.Client to the health check's pinger interface.
type redisPingerAdapter struct {
	client *redis.Client
}

func (r *redisPingerAdapter) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
