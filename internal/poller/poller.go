package poller

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/rickgao/renance-monitor/internal/api"
	"github.com/rickgao/renance-monitor/internal/model"
)

// OrderFetcher fetches the open orders of the session owning token.
type OrderFetcher interface {
	GetOpenOrders(ctx context.Context, token string, opts api.GetOrdersOptions) ([]model.Order, error)
}

// Config holds poller configuration.
type Config struct {
	Interval time.Duration // Poll interval (default: 3s)
	Limit    int           // Max orders per fetch (default: 50)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Interval: 3 * time.Second,
		Limit:    50,
	}
}

// Poller periodically fetches the user's open orders.
type Poller struct {
	cfg     Config
	fetcher OrderFetcher
	logger  *slog.Logger

	mu        sync.RWMutex
	token     string
	gen       uint64 // incremented on every token change
	orders    []model.Order
	fetchedAt time.Time
	lastErr   error

	// loopCtx is the running loop's context, nil while stopped.
	loopCtx context.Context
	cancel  context.CancelFunc

	wg sync.WaitGroup
}

// New creates a new Poller. Nothing runs until SetToken is called.
func New(cfg Config, fetcher OrderFetcher, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		cfg:     cfg,
		fetcher: fetcher,
		logger:  logger,
	}
}

// SetToken starts polling for token, replacing any running loop.
// An empty token is equivalent to ClearToken.
func (p *Poller) SetToken(ctx context.Context, token string) {
	if token == "" {
		p.ClearToken()
		return
	}

	p.mu.Lock()
	p.stopLocked()
	p.token = token
	p.gen++
	gen := p.gen
	loopCtx, cancel := context.WithCancel(ctx)
	p.loopCtx = loopCtx
	p.cancel = cancel
	p.mu.Unlock()

	p.wg.Add(1)
	go p.run(loopCtx, token, gen)

	p.logger.Info("order poller started", "interval", p.cfg.Interval)
}

// ClearToken stops polling and drops the current order set.
func (p *Poller) ClearToken() {
	p.mu.Lock()
	wasRunning := p.cancel != nil
	p.stopLocked()
	p.token = ""
	p.gen++
	p.orders = nil
	p.fetchedAt = time.Time{}
	p.lastErr = nil
	p.mu.Unlock()

	if wasRunning {
		p.logger.Info("order poller stopped: session cleared")
	}
}

// HasToken reports whether a session token is set.
func (p *Poller) HasToken() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.token != ""
}

// Refresh performs one extra fetch now without resetting the polling phase.
// It is a no-op unless polling is running, and the fetch is cancelled as soon
// as the token is cleared or replaced or the poller stops.
func (p *Poller) Refresh(ctx context.Context) error {
	p.mu.RLock()
	token, gen, loopCtx := p.token, p.gen, p.loopCtx
	p.mu.RUnlock()

	if token == "" || loopCtx == nil {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(loopCtx, cancel)
	defer stop()
	if loopCtx.Err() != nil {
		return nil
	}

	return p.poll(ctx, token, gen)
}

// Stop cancels the loop and any in-flight Refresh and waits for the loop to
// exit or ctx to expire. The token and the last order set are kept; polling
// resumes on the next SetToken.
func (p *Poller) Stop(ctx context.Context) error {
	p.mu.Lock()
	p.stopLocked()
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Debug("order poller stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Orders returns a copy of the latest open-order set.
func (p *Poller) Orders() []model.Order {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]model.Order(nil), p.orders...)
}

// LastFetchedAt returns the completion time of the last successful fetch.
func (p *Poller) LastFetchedAt() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.fetchedAt
}

// LastError returns the error of the last failed fetch, cleared on success.
func (p *Poller) LastError() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastErr
}

func (p *Poller) stopLocked() {
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.loopCtx = nil
}

// run is the polling loop for one token.
func (p *Poller) run(ctx context.Context, token string, gen uint64) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	// Poll immediately on start.
	p.poll(ctx, token, gen)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.poll(ctx, token, gen)
		}
	}
}

// poll fetches once and stores the result if token is still current.
func (p *Poller) poll(ctx context.Context, token string, gen uint64) error {
	start := time.Now()

	orders, err := p.fetcher.GetOpenOrders(ctx, token, api.GetOrdersOptions{Limit: p.cfg.Limit})

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.gen != gen {
		p.logger.Debug("discarding orders fetched under a previous session")
		return nil
	}

	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		p.lastErr = err
		p.logger.Warn("failed to fetch open orders", "error", err)
		return err
	}

	p.orders = orders
	p.fetchedAt = time.Now()
	p.lastErr = nil

	p.logger.Debug("open orders refreshed",
		"count", len(orders),
		"duration", time.Since(start),
	)
	return nil
}
