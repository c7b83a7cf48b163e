package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/rickgao/renance-monitor/internal/api"
	"github.com/rickgao/renance-monitor/internal/auth"
	"github.com/rickgao/renance-monitor/internal/config"
	"github.com/rickgao/renance-monitor/internal/connection"
	"github.com/rickgao/renance-monitor/internal/logging"
	"github.com/rickgao/renance-monitor/internal/market"
	"github.com/rickgao/renance-monitor/internal/poller"
	"github.com/rickgao/renance-monitor/internal/stats"
	"github.com/rickgao/renance-monitor/internal/version"
)

const viewInterval = 5 * time.Second

func main() {
	configPath := flag.String("config", "configs/monitor.yaml", "path to config file")
	symbol := flag.String("symbol", "", "symbol to follow (overrides market.symbol)")
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
	if *symbol != "" {
		cfg.Market.Symbol = *symbol
	}
	if err := cfg.Validate(); err != nil {
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

	logger.Info("starting monitor",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
		"symbol", cfg.Market.Symbol,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGUSR1, syscall.SIGUSR2)

	rest := api.NewClient(cfg.API.RestURL, clientOptions(cfg, logger)...)
	statsClient := api.NewClient(cfg.API.StatsURL, clientOptions(cfg, logger)...)

	syncer := market.NewSyncer(syncerConfig(cfg), rest, logger)
	if err := syncer.Select(ctx, cfg.Market.Symbol); err != nil {
		logger.Error("failed to select symbol", "error", err)
		os.Exit(1)
	}

	orders := poller.New(poller.Config{
		Interval: cfg.Orders.Interval,
		Limit:    cfg.Orders.Limit,
	}, rest, logger.With("component", "orders"))

	session, err := loadSession(cfg.Session)
	switch {
	case err != nil:
		logger.Error("failed to load session", "error", err)
		os.Exit(1)
	case session != nil:
		logger.Info("session loaded", "session", session.LogValue(), "expires_at", session.ExpiresAt)
		orders.SetToken(ctx, session.Token)
	default:
		logger.Info("no session configured, order polling disabled")
	}

	volume := stats.NewFetcher(statsClient, logger.With("component", "stats"))
	go volume.FetchDaily(ctx, time.Now())

	ticker := time.NewTicker(viewInterval)
	defer ticker.Stop()

loop:
	for {
		select {
		case sig := <-sigCh:
			switch sig {
			case syscall.SIGUSR1:
				logger.Info("manual order refresh")
				go orders.Refresh(ctx)
			case syscall.SIGUSR2:
				next := nextSymbol(cfg.Market.Symbols, syncer.Symbol())
				logger.Info("switching symbol", "from", syncer.Symbol(), "to", next)
				if err := syncer.Select(ctx, next); err != nil {
					logger.Error("failed to switch symbol", "error", err)
				}
			default:
				logger.Info("received shutdown signal", "signal", sig)
				break loop
			}
		case <-ticker.C:
			logView(logger, syncer.View(), orders)
		}
	}

	logger.Info("shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	orders.Stop(shutdownCtx)
	syncer.Stop(shutdownCtx)

	logger.Info("monitor stopped")
}

func clientOptions(cfg *config.MonitorConfig, logger *slog.Logger) []api.ClientOption {
	return []api.ClientOption{
		api.WithLogger(logger),
		api.WithTimeout(cfg.API.Timeout),
		api.WithRetries(cfg.API.MaxRetries, cfg.API.RetryBackoff),
		api.WithRateLimit(cfg.API.RateLimit, cfg.API.RateBurst),
	}
}

func syncerConfig(cfg *config.MonitorConfig) market.Config {
	clientCfg := connection.DefaultClientConfig()
	clientCfg.URL = cfg.API.WSURL
	clientCfg.PingTimeout = cfg.Channel.PingTimeout
	clientCfg.PingInterval = cfg.Channel.PingTimeout / 2
	clientCfg.WriteTimeout = cfg.Channel.WriteTimeout
	clientCfg.BufferSize = cfg.Channel.BufferSize

	return market.Config{
		Channel: connection.ChannelConfig{
			Client:         clientCfg,
			ReconnectDelay: cfg.Channel.ReconnectDelay,
		},
	}
}

func loadSession(cfg config.SessionConfig) (*auth.Session, error) {
	switch {
	case cfg.TokenFile != "":
		return auth.LoadSession(cfg.TokenFile)
	case cfg.Token != "":
		return auth.NewSession(cfg.Token)
	}
	return nil, nil
}

// nextSymbol returns the symbol after current in symbols, wrapping around.
func nextSymbol(symbols []string, current string) string {
	if len(symbols) == 0 {
		return current
	}
	i := slices.Index(symbols, current)
	return symbols[(i+1)%len(symbols)]
}

func logView(logger *slog.Logger, v market.View, orders *poller.Poller) {
	attrs := []any{
		"symbol", v.Symbol,
		"channel", v.ChannelState,
		"trades", len(v.Trades),
		"open_orders", len(orders.Orders()),
	}

	if bid, ok := v.Book.BestBid(); ok {
		attrs = append(attrs, "bid", bid.Price.String())
	}
	if ask, ok := v.Book.BestAsk(); ok {
		attrs = append(attrs, "ask", ask.Price.String())
	}
	if spread, pct, ok := v.Book.Spread(); ok {
		attrs = append(attrs, "spread", spread.String(), "spread_pct", pct.StringFixed(3))
	}
	if v.Ticker != nil {
		attrs = append(attrs, "last", v.Ticker.LastPrice.String())
	}
	if !v.LastMessageAt.IsZero() {
		attrs = append(attrs, "last_message_age", time.Since(v.LastMessageAt).Round(time.Millisecond))
	}
	if !v.HasBook && v.BookLoadedAt.IsZero() {
		attrs = append(attrs, "book", "loading")
	}

	logger.Info("market view", attrs...)
}
