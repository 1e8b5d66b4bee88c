package main

import (
	"log/slog"
	"os"

	"github.com/hibiken/asynq"

	"github.com/nikhilbhutani/genservices/internal/config"
	"github.com/nikhilbhutani/genservices/internal/queue"
	"github.com/nikhilbhutani/genservices/internal/queue/workers"
	"github.com/nikhilbhutani/genservices/internal/storage"
	"github.com/nikhilbhutani/genservices/internal/tts"
	"github.com/nikhilbhutani/genservices/internal/voice"
)

func main() {
	flags, err := config.ParseFlags("voice-worker", os.Args[1:], true)
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

	if !cfg.Redis.Enabled() {
		slog.Error("REDIS_ADDR is required for the worker")
		os.Exit(1)
	}

	models := tts.NewRegistry()
	tts.RegisterDefaults(models, cfg.TTS)
	stores := storage.NewRegistry()
	storage.RegisterDefaults(stores, cfg.Storage)
	svc := voice.NewService(models, stores, voice.DefaultsFrom(cfg))

	srv := queue.NewServer(cfg.Redis, flags.Concurrency)

	registry := queue.NewHandlersRegistry()
	voiceWorker := workers.NewVoiceWorker(svc)
	registry.Register(queue.TypeVoiceSave, asynq.HandlerFunc(voiceWorker.ProcessTask))

	slog.Info("starting worker", "concurrency", flags.Concurrency, "queue", queue.QueueVoice)
	// Run blocks until SIGINT/SIGTERM and drains in-flight tasks.
	if err := srv.Run(registry.Mux()); err != nil {
		slog.Error("worker error", "error", err)
		os.Exit(1)
	}
}
