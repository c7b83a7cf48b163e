// Package stats fetches daily traded-volume statistics and formats them for display.
package stats

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"math"
	"slices"
	"sync"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/rickgao/renance-monitor/internal/model"
)

// VolumeSource serves volume statistics for a day range.
type VolumeSource interface {
	GetVolume(ctx context.Context, start, end time.Time) (*model.VolumeStats, error)
}

// Fetcher fetches daily volume statistics and keeps the last good result.
type Fetcher struct {
	src    VolumeSource
	logger *slog.Logger

	mu        sync.RWMutex
	last      *model.VolumeStats
	lastDay   time.Time
	fetchedAt time.Time
}

// NewFetcher creates a Fetcher.
func NewFetcher(src VolumeSource, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		src:    src,
		logger: logger,
	}
}

// FetchDaily fetches statistics for the calendar day (UTC) containing day.
// On failure the previous result is kept; cancellation by the caller is not logged.
func (f *Fetcher) FetchDaily(ctx context.Context, day time.Time) (*model.VolumeStats, error) {
	d := day.UTC().Truncate(24 * time.Hour)

	stats, err := f.src.GetVolume(ctx, d, d)
	if err != nil {
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			return nil, err
		}
		f.logger.Warn("stats unavailable", "day", d.Format(time.DateOnly), "error", err)
		return nil, err
	}

	f.mu.Lock()
	f.last = stats
	f.lastDay = d
	f.fetchedAt = time.Now()
	f.mu.Unlock()

	attrs := []any{
		"day", d.Format(time.DateOnly),
		"volume", FormatUSD(stats.Summary.TotalVolumeUSD),
		"trades", FormatCount(stats.Summary.TradeCount),
	}
	if top := TopSymbols(stats, 1); len(top) == 1 {
		attrs = append(attrs, "top_symbol", top[0].Symbol, "top_volume", FormatUSD(top[0].VolumeUSD))
	}
	f.logger.Info("daily volume", attrs...)
	return stats, nil
}

// Last returns the last successfully fetched statistics and the day they cover.
// stats is nil if nothing has been fetched yet.
func (f *Fetcher) Last() (stats *model.VolumeStats, day time.Time) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.last, f.lastDay
}

// FetchedAt returns the completion time of the last successful fetch.
func (f *Fetcher) FetchedAt() time.Time {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.fetchedAt
}

var printer = message.NewPrinter(language.English)

// FormatUSD renders a whole-dollar amount with thousands separators, e.g. "$1,234,568".
func FormatUSD(v float64) string {
	n := int64(math.Round(v))
	if n < 0 {
		return printer.Sprintf("-$%d", -n)
	}
	return printer.Sprintf("$%d", n)
}

// FormatCount renders an integer with thousands separators.
func FormatCount(n int64) string {
	return printer.Sprintf("%d", n)
}

// TopSymbols returns up to n per-symbol entries ordered by volume, largest first.
func TopSymbols(stats *model.VolumeStats, n int) []model.SymbolVolume {
	if stats == nil || n <= 0 {
		return nil
	}
	out := append([]model.SymbolVolume(nil), stats.BySymbol...)
	slices.SortStableFunc(out, func(a, b model.SymbolVolume) int {
		return cmp.Compare(b.VolumeUSD, a.VolumeUSD)
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
