package connection

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/rickgao/renance-monitor/internal/model"
)

// Handler receives everything a Channel produces.
// Both methods are called from the channel's goroutines and must not block for long.
type Handler interface {
	HandleMessage(msg RawMessage)
	HandleState(state model.ChannelState)
}

// Channel keeps one push connection alive for one symbol.
type Channel struct {
	cfg     ChannelConfig
	symbol  string
	handler Handler
	logger  *slog.Logger

	// newClient builds the client for each connection attempt.
	newClient func(cfg ClientConfig, logger *slog.Logger) Client

	mu             sync.Mutex
	state          model.ChannelState
	client         Client
	connID         string
	stopped        bool
	reconnectTimer *time.Timer // non-nil while a reconnect is pending
	ctx            context.Context
	cancel         context.CancelFunc

	wg sync.WaitGroup
}

// NewChannel creates a Channel for symbol. It reports connecting until the
// first attempt resolves. Call Start to connect.
func NewChannel(cfg ChannelConfig, symbol string, handler Handler, logger *slog.Logger) *Channel {
	if logger == nil {
		logger = slog.Default()
	}

	return &Channel{
		cfg:       cfg,
		symbol:    symbol,
		handler:   handler,
		logger:    logger.With("symbol", symbol),
		newClient: NewClient,
		state:     model.ChannelConnecting,
	}
}

// Symbol returns the symbol this channel subscribes to.
func (ch *Channel) Symbol() string {
	return ch.symbol
}

// State returns the current lifecycle state.
func (ch *Channel) State() model.ChannelState {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.state
}

// Start opens the first connection in the background. Cancelling ctx releases
// the channel like Stop, without waiting. Calling Start more than once, or
// after Stop, has no effect.
func (ch *Channel) Start(ctx context.Context) {
	ch.mu.Lock()
	if ch.ctx != nil || ch.stopped {
		ch.mu.Unlock()
		return
	}
	ch.ctx, ch.cancel = context.WithCancel(ctx)
	ch.mu.Unlock()

	ch.wg.Add(1)
	go ch.connect()
}

// Stop disables reconnection, closes the live connection and waits for the
// channel goroutines to exit or ctx to expire.
func (ch *Channel) Stop(ctx context.Context) error {
	ch.mu.Lock()
	if ch.stopped {
		ch.mu.Unlock()
		return nil
	}
	ch.stopped = true

	if ch.reconnectTimer != nil && ch.reconnectTimer.Stop() {
		ch.wg.Done()
	}
	ch.reconnectTimer = nil

	client := ch.client
	ch.client = nil
	cancel := ch.cancel
	changed := ch.setStateLocked(model.ChannelClosed)
	ch.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if client != nil {
		client.Close()
	}
	if changed {
		ch.handler.HandleState(model.ChannelClosed)
	}

	done := make(chan struct{})
	go func() {
		ch.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		ch.logger.Debug("channel stopped")
		return nil
	case <-ctx.Done():
		ch.logger.Warn("channel stop timed out")
		return ctx.Err()
	}
}

// connect runs one connection attempt and, on success, its read loop.
func (ch *Channel) connect() {
	defer ch.wg.Done()

	ch.mu.Lock()
	ch.reconnectTimer = nil
	if ch.stopped {
		ch.mu.Unlock()
		return
	}
	if ch.ctx.Err() != nil {
		changed := ch.setStateLocked(model.ChannelClosed)
		ch.mu.Unlock()
		if changed {
			ch.handler.HandleState(model.ChannelClosed)
		}
		return
	}
	ch.connID = uuid.NewString()
	connID := ch.connID
	client := ch.newClient(ch.cfg.Client, ch.logger.With("conn_id", connID))
	ch.client = client
	changed := ch.setStateLocked(model.ChannelConnecting)
	ctx := ch.ctx
	ch.mu.Unlock()

	if changed {
		ch.handler.HandleState(model.ChannelConnecting)
	}

	if err := client.Connect(ctx); err != nil {
		ch.fail(client, err)
		return
	}

	ch.mu.Lock()
	if ch.stopped || ch.client != client {
		ch.mu.Unlock()
		client.Close()
		return
	}
	changed = ch.setStateLocked(model.ChannelOpen)
	ch.mu.Unlock()

	if changed {
		ch.handler.HandleState(model.ChannelOpen)
	}
	ch.logger.Info("channel open", "conn_id", connID)

	for _, stream := range []string{StreamOrderbook, StreamTrades} {
		cmd, err := SubscribeCommand(stream, ch.symbol)
		if err != nil {
			ch.fail(client, err)
			return
		}
		if err := client.Send(cmd); err != nil {
			ch.fail(client, err)
			return
		}
	}

	ch.readLoop(ctx, client, connID)
}

// readLoop forwards frames until the connection fails or the channel stops.
func (ch *Channel) readLoop(ctx context.Context, client Client, connID string) {
	for {
		select {
		case <-ctx.Done():
			ch.fail(client, ctx.Err())
			return

		case err := <-client.Errors():
			ch.fail(client, err)
			return

		case msg, ok := <-client.Messages():
			if !ok {
				return
			}
			ch.handler.HandleMessage(RawMessage{
				Data:       msg.Data,
				Symbol:     ch.symbol,
				ConnID:     connID,
				ReceivedAt: msg.ReceivedAt,
			})
		}
	}
}

// fail records the failure of client and schedules a reconnect unless one is
// already pending or the channel was stopped or its context is done.
func (ch *Channel) fail(client Client, err error) {
	ch.mu.Lock()
	if ch.stopped || ch.client != client {
		ch.mu.Unlock()
		client.Close()
		return
	}
	ch.client = nil

	if ctxErr := ch.ctx.Err(); ctxErr != nil {
		changed := ch.setStateLocked(model.ChannelClosed)
		ch.mu.Unlock()

		client.Close()
		if changed {
			ch.handler.HandleState(model.ChannelClosed)
		}
		ch.logger.Info("channel released", "reason", ctxErr)
		return
	}

	state := model.ChannelErrored
	if isRemoteClose(err) {
		state = model.ChannelClosed
	}
	changed := ch.setStateLocked(state)

	scheduled := false
	if ch.reconnectTimer == nil {
		ch.wg.Add(1)
		ch.reconnectTimer = time.AfterFunc(ch.cfg.ReconnectDelay, ch.connect)
		scheduled = true
	}
	ch.mu.Unlock()

	client.Close()

	if changed {
		ch.handler.HandleState(state)
	}
	ch.logger.Warn("channel down",
		"state", state,
		"error", err,
		"reconnect_in", ch.cfg.ReconnectDelay,
		"scheduled", scheduled,
	)
}

func (ch *Channel) setStateLocked(state model.ChannelState) bool {
	if ch.state == state {
		return false
	}
	ch.state = state
	return true
}

// isRemoteClose reports whether the server ended the connection with a close frame.
// A dropped connection surfaces as an abnormal-closure CloseError and is not one.
func isRemoteClose(err error) bool {
	var ce *websocket.CloseError
	return errors.As(err, &ce) && ce.Code != websocket.CloseAbnormalClosure
}
