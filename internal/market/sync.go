package market

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rickgao/renance-monitor/internal/model"
)

// MarketData is the REST surface the snapshot fetcher pulls from.
type MarketData interface {
	GetOrderbook(ctx context.Context, symbol string) (model.OrderBookSnapshot, error)
	GetTrades(ctx context.Context, symbol string) ([]model.Trade, error)
	GetTicker(ctx context.Context, symbol string) (model.Ticker, error)
}

// SnapshotResult reports the outcome of each pull of a snapshot.
type SnapshotResult struct {
	OrderbookErr error
	TradesErr    error
	TickerErr    error
}

// Err joins the failures of all pulls; nil if every pull succeeded.
func (r SnapshotResult) Err() error {
	return errors.Join(r.OrderbookErr, r.TradesErr, r.TickerErr)
}

// FetchSnapshot pulls the orderbook, recent trades and ticker of the state's
// symbol concurrently and writes each result into state as it completes.
// A failed pull leaves its slice untouched and never aborts the others.
// Results arriving after the state was retired are discarded.
func FetchSnapshot(ctx context.Context, src MarketData, state *State, logger *slog.Logger) SnapshotResult {
	if logger == nil {
		logger = slog.Default()
	}
	symbol := state.Symbol()
	start := time.Now()

	var res SnapshotResult
	var g errgroup.Group

	g.Go(func() error {
		book, err := src.GetOrderbook(ctx, symbol)
		if err != nil {
			res.OrderbookErr = err
			return nil
		}
		if !state.SetOrderbookSnapshot(book) {
			logger.Debug("discarding orderbook snapshot for retired selection")
		}
		return nil
	})

	g.Go(func() error {
		trades, err := src.GetTrades(ctx, symbol)
		if err != nil {
			res.TradesErr = err
			return nil
		}
		if !state.SetTradesSnapshot(trades) {
			logger.Debug("discarding trades snapshot for retired selection")
		}
		return nil
	})

	g.Go(func() error {
		ticker, err := src.GetTicker(ctx, symbol)
		if err != nil {
			res.TickerErr = err
			return nil
		}
		if !state.SetTickerSnapshot(ticker) {
			logger.Debug("discarding ticker snapshot for retired selection")
		}
		return nil
	})

	g.Wait()

	if err := res.Err(); err != nil && ctx.Err() == nil {
		logger.Warn("snapshot incomplete",
			"orderbook_err", res.OrderbookErr,
			"trades_err", res.TradesErr,
			"ticker_err", res.TickerErr,
			"duration", time.Since(start),
		)
	} else if err == nil {
		logger.Info("snapshot loaded", "duration", time.Since(start))
	}

	return res
}
