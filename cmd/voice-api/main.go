package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nikhilbhutani/genservices/internal/api"
	"github.com/nikhilbhutani/genservices/internal/config"
	"github.com/nikhilbhutani/genservices/internal/queue"
	"github.com/nikhilbhutani/genservices/internal/storage"
	"github.com/nikhilbhutani/genservices/internal/tts"
	"github.com/nikhilbhutani/genservices/internal/voice"
)

func main() {
	flags, err := config.ParseFlags("voice-api", os.Args[1:], false)
	if err != nil {
		slog.Error("invalid arguments", "error", err)
		os.Exit(2)
	}

	cfg, err := config.LoadVoice(flags.EnvFile)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	flags.Apply(&cfg.Server)

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Server.SlogLevel()}))
	slog.SetDefault(logger)

	models := tts.NewRegistry()
	tts.RegisterDefaults(models, cfg.TTS)
	stores := storage.NewRegistry()
	storage.RegisterDefaults(stores, cfg.Storage)

	deps := api.VoiceDeps{Service: voice.NewService(models, stores, voice.DefaultsFrom(cfg))}

	// Redis is optional; without it the async routes are not mounted.
	if cfg.Redis.Enabled() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			slog.Warn("redis unavailable at startup", "error", err)
		}
		defer rdb.Close()

		qc := queue.NewClient(cfg.Redis)
		defer qc.Close()
		insp := queue.NewInspector(cfg.Redis)
		defer insp.Close()

		deps.Redis = rdb
		deps.Queue = qc
		deps.Tasks = insp
	}

	router := api.NewVoiceRouter(cfg, deps)
	stop := make(chan struct{})
	go router.RateLimiter().Run(stop)

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.Setup(),
		ReadHeaderTimeout: 15 * time.Second,
		// No write timeout: synthesis of long texts has no upper bound.
		IdleTimeout: 120 * time.Second,
	}

	go func() {
		slog.Info("starting voice service",
			"addr", cfg.Server.Addr(),
			"models", models.Names(),
			"storage", stores.Names(),
			"default_model", cfg.TTS.DefaultModel,
			"async", cfg.Redis.Enabled(),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")
	close(stop)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced shutdown", "error", err)
	}
	slog.Info("server stopped")
}
