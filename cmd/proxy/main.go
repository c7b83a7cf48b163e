package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/rickgao/renance-monitor/internal/config"
	"github.com/rickgao/renance-monitor/internal/logging"
	"github.com/rickgao/renance-monitor/internal/proxy"
	"github.com/rickgao/renance-monitor/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/monitor.yaml", "path to config file")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Error("failed to load .env", "error", err)
		os.Exit(1)
	}

	cfg, err := config.LoadWithDefaults(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.ValidateProxy(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	logger, logCloser, err := logging.New(cfg.Logging)
	if err != nil {
		slog.Error("failed to set up logging", "error", err)
		os.Exit(1)
	}
	defer logCloser.Close()
	slog.SetDefault(logger)

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	logger.Info("starting proxy",
		"version", version.Version,
		"commit", version.Commit,
		"listen", cfg.Proxy.Listen,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := proxy.New(proxy.Config{
		TargetURL:    cfg.Proxy.TargetURL,
		VolumeURL:    cfg.Proxy.VolumeURL,
		VolumeAPIKey: cfg.Proxy.VolumeAPIKey,
		Timeout:      cfg.Proxy.Timeout,
	}, logger)

	if err := srv.Run(ctx, cfg.Proxy.Listen); err != nil {
		logger.Error("proxy failed", "error", err)
		os.Exit(1)
	}
}
