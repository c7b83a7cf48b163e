package router

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rickgao/renance-monitor/internal/api"
	"github.com/rickgao/renance-monitor/internal/connection"
)

// Handler applies parsed messages to market state.
type Handler interface {
	ApplyOrderbook(msg Message)
	ApplyTrades(msg Message)
}

// Router parses raw push frames and hands them to a Handler.
// Frames that fail to parse are dropped.
type Router struct {
	handler Handler
	logger  *slog.Logger

	mu              sync.Mutex
	received        int64
	routed          int64
	parseErrors     int64
	unknownMessages int64
}

// New creates a Router.
func New(handler Handler, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		handler: handler,
		logger:  logger,
	}
}

// Route parses and routes a single frame.
func (r *Router) Route(raw connection.RawMessage) {
	r.mu.Lock()
	r.received++
	r.mu.Unlock()

	msg, err := Parse(raw.Data, raw.ReceivedAt)
	if err != nil {
		r.mu.Lock()
		if errors.Is(err, ErrUnknownMessage) {
			r.unknownMessages++
		} else {
			r.parseErrors++
		}
		r.mu.Unlock()

		r.logger.Debug("dropping push message", "conn_id", raw.ConnID, "error", err)
		return
	}

	switch msg.Kind {
	case KindOrderbook:
		r.handler.ApplyOrderbook(msg)
	case KindTrades:
		r.handler.ApplyTrades(msg)
	}

	r.mu.Lock()
	r.routed++
	r.mu.Unlock()
}

// Stats returns current statistics.
func (r *Router) Stats() RouterStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	return RouterStats{
		MessagesReceived: r.received,
		MessagesRouted:   r.routed,
		ParseErrors:      r.parseErrors,
		UnknownMessages:  r.unknownMessages,
	}
}

// Parse decodes one push frame.
//
// Accepted shapes:
//
//	{"channel":"orderbook:BTCUSDT","data":{"bids":[...],"asks":[...]}}
//	{"channel":"trades:BTCUSDT","data":{...} | [...]}
//	{"type":"orderbook"|"trades"|"trade","symbol":"BTCUSDT","data":...}
//
// Control frames and frames without a payload return ErrUnknownMessage.
func Parse(data []byte, receivedAt time.Time) (Message, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	kind, symbol, err := env.stream()
	if err != nil {
		return Message{}, err
	}

	payload := bytes.TrimSpace(env.Data)
	if len(payload) == 0 || bytes.Equal(payload, []byte("null")) {
		return Message{}, fmt.Errorf("%w: %s:%s without data", ErrUnknownMessage, kind, symbol)
	}

	msg := Message{
		Kind:       kind,
		Symbol:     symbol,
		ReceivedAt: receivedAt,
	}

	switch kind {
	case KindOrderbook:
		if payload[0] != '{' {
			return Message{}, fmt.Errorf("%w: orderbook payload is not an object", ErrMalformed)
		}
		var ob api.OrderbookResponse
		if err := json.Unmarshal(payload, &ob); err != nil {
			return Message{}, fmt.Errorf("%w: orderbook: %v", ErrMalformed, err)
		}
		msg.Book = ob.ToSnapshot(receivedAt)

	case KindTrades:
		if payload[0] != '{' && payload[0] != '[' {
			return Message{}, fmt.Errorf("%w: trades payload is not an object or array", ErrMalformed)
		}
		msg.Trades = api.DecodeTrades(payload)
	}

	return msg, nil
}

// stream resolves the message kind and symbol from the envelope.
func (e envelope) stream() (Kind, string, error) {
	if e.Channel != "" {
		name, symbol, ok := strings.Cut(e.Channel, ":")
		if !ok || symbol == "" {
			return "", "", fmt.Errorf("%w: channel %q", ErrUnknownMessage, e.Channel)
		}
		kind, ok := parseKind(name)
		if !ok {
			return "", "", fmt.Errorf("%w: channel %q", ErrUnknownMessage, e.Channel)
		}
		return kind, symbol, nil
	}

	kind, ok := parseKind(e.Type)
	if !ok || e.Symbol == "" {
		return "", "", fmt.Errorf("%w: type %q", ErrUnknownMessage, e.Type)
	}
	return kind, e.Symbol, nil
}

func parseKind(s string) (Kind, bool) {
	switch s {
	case connection.StreamOrderbook:
		return KindOrderbook, true
	case connection.StreamTrades, "trade":
		return KindTrades, true
	}
	return "", false
}
