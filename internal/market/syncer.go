package market

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/rickgao/renance-monitor/internal/connection"
	"github.com/rickgao/renance-monitor/internal/model"
	"github.com/rickgao/renance-monitor/internal/router"
)

// ErrNoSymbol is returned by Select for an empty symbol.
var ErrNoSymbol = errors.New("no symbol selected")

// Config holds Syncer configuration.
type Config struct {
	Channel connection.ChannelConfig
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Channel: connection.DefaultChannelConfig(),
	}
}

// selection is everything owned by one symbol selection.
type selection struct {
	state   *State
	router  *router.Router
	channel *connection.Channel
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// HandleMessage implements connection.Handler.
func (sel *selection) HandleMessage(msg connection.RawMessage) {
	sel.router.Route(msg)
}

// HandleState implements connection.Handler.
func (sel *selection) HandleState(state model.ChannelState) {
	sel.state.SetChannelState(state)
}

// Syncer keeps the state of the selected symbol in sync through a REST
// snapshot and a push channel. At most one channel is live per Syncer.
type Syncer struct {
	cfg    Config
	rest   MarketData
	logger *slog.Logger

	// selectMu serializes Select and Stop.
	selectMu sync.Mutex

	mu  sync.RWMutex
	cur *selection
}

// NewSyncer creates a Syncer. No symbol is selected until Select is called.
func NewSyncer(cfg Config, rest MarketData, logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Syncer{
		cfg:    cfg,
		rest:   rest,
		logger: logger,
	}
}

// Select tears down the current selection and starts syncing symbol:
// a fresh state, a snapshot pull and a push channel.
// ctx bounds the lifetime of the selection.
func (s *Syncer) Select(ctx context.Context, symbol string) error {
	if symbol == "" {
		return ErrNoSymbol
	}

	s.selectMu.Lock()
	defer s.selectMu.Unlock()

	s.stopLocked(ctx)

	logger := s.logger.With("symbol", symbol)
	selCtx, cancel := context.WithCancel(ctx)

	sel := &selection{
		state:  NewState(symbol, logger),
		cancel: cancel,
	}
	sel.router = router.New(sel.state, logger)
	sel.channel = connection.NewChannel(s.cfg.Channel, symbol, sel, logger)

	s.mu.Lock()
	s.cur = sel
	s.mu.Unlock()

	sel.wg.Add(1)
	go func() {
		defer sel.wg.Done()
		FetchSnapshot(selCtx, s.rest, sel.state, logger)
	}()

	sel.channel.Start(selCtx)

	logger.Info("symbol selected")
	return nil
}

// Stop releases the current selection: the snapshot pull is cancelled, the
// channel closes without reconnecting and the state stops accepting writes.
func (s *Syncer) Stop(ctx context.Context) error {
	s.selectMu.Lock()
	defer s.selectMu.Unlock()

	return s.stopLocked(ctx)
}

func (s *Syncer) stopLocked(ctx context.Context) error {
	s.mu.Lock()
	sel := s.cur
	s.cur = nil
	s.mu.Unlock()

	if sel == nil {
		return nil
	}

	sel.state.Retire()
	sel.cancel()
	err := sel.channel.Stop(ctx)

	done := make(chan struct{})
	go func() {
		sel.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		s.logger.Warn("snapshot pull did not finish before stop deadline", "symbol", sel.state.Symbol())
		if err == nil {
			err = ctx.Err()
		}
	}

	s.logger.Debug("selection released", "symbol", sel.state.Symbol())
	return err
}

// Symbol returns the selected symbol, or "" if none.
func (s *Syncer) Symbol() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cur == nil {
		return ""
	}
	return s.cur.state.Symbol()
}

// View returns a copy of the selected symbol's state.
func (s *Syncer) View() View {
	s.mu.RLock()
	sel := s.cur
	s.mu.RUnlock()

	if sel == nil {
		return View{ChannelState: model.ChannelClosed}
	}
	return sel.state.View()
}

// RouterStats returns push message statistics of the current selection.
func (s *Syncer) RouterStats() router.RouterStats {
	s.mu.RLock()
	sel := s.cur
	s.mu.RUnlock()

	if sel == nil {
		return router.RouterStats{}
	}
	return sel.router.Stats()
}
