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

	"github.com/nikhilbhutani/genservices/internal/api"
	"github.com/nikhilbhutani/genservices/internal/config"
	"github.com/nikhilbhutani/genservices/internal/slides"
)

func main() {
	flags, err := config.ParseFlags("slide-api", os.Args[1:], false)
	if err != nil {
		slog.Error("invalid arguments", "error", err)
		os.Exit(2)
	}

	cfg, err := config.LoadSlide(flags.EnvFile)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	flags.Apply(&cfg.Server)

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Server.SlogLevel()}))
	slog.SetDefault(logger)

	renderer, err := slides.NewRenderer(cfg.Marp)
	if err != nil {
		slog.Error("failed to prepare renderer", "error", err)
		os.Exit(1)
	}

	router := api.NewSlideRouter(cfg, renderer)
	stop := make(chan struct{})
	go router.RateLimiter().Run(stop)

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.Setup(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("starting slide service", "addr", cfg.Server.Addr(), "marp", cfg.Marp.BinPath, "work_dir", cfg.Marp.WorkDir)
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
