package router

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rickgao/renance-monitor/internal/connection"
)

type recordingHandler struct {
	mu        sync.Mutex
	orderbook []Message
	trades    []Message
}

func (h *recordingHandler) ApplyOrderbook(msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.orderbook = append(h.orderbook, msg)
}

func (h *recordingHandler) ApplyTrades(msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.trades = append(h.trades, msg)
}

func TestParse(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		data       string
		wantKind   Kind
		wantSymbol string
		wantErr    error
	}{
		{
			name:       "orderbook by channel",
			data:       `{"channel":"orderbook:BTCUSDT","data":{"bids":[["100","1"]],"asks":[["100.5","1"]]}}`,
			wantKind:   KindOrderbook,
			wantSymbol: "BTCUSDT",
		},
		{
			name:       "trades by channel, single object",
			data:       `{"channel":"trades:ETHUSDT","data":{"id":"t1","price":"3000","amount":"1","side":"buy"}}`,
			wantKind:   KindTrades,
			wantSymbol: "ETHUSDT",
		},
		{
			name:       "trades by type and symbol",
			data:       `{"type":"trade","symbol":"SOLUSDT","data":[{"price":"150"}]}`,
			wantKind:   KindTrades,
			wantSymbol: "SOLUSDT",
		},
		{
			name:       "orderbook by type and symbol",
			data:       `{"type":"orderbook","symbol":"BTCUSDT","data":{"bids":[],"asks":[]}}`,
			wantKind:   KindOrderbook,
			wantSymbol: "BTCUSDT",
		},
		{name: "not json", data: `hello`, wantErr: ErrMalformed},
		{name: "unknown channel", data: `{"channel":"ticker:BTCUSDT","data":{}}`, wantErr: ErrUnknownMessage},
		{name: "channel without symbol", data: `{"channel":"orderbook","data":{}}`, wantErr: ErrUnknownMessage},
		{name: "subscribe ack", data: `{"type":"subscribed","channel":"orderbook:BTCUSDT"}`, wantErr: ErrUnknownMessage},
		{name: "no discriminator", data: `{"data":{}}`, wantErr: ErrUnknownMessage},
		{name: "orderbook payload is array", data: `{"channel":"orderbook:BTCUSDT","data":[1,2]}`, wantErr: ErrMalformed},
		{name: "trades payload is string", data: `{"channel":"trades:BTCUSDT","data":"x"}`, wantErr: ErrMalformed},
		{name: "orderbook with bad bids", data: `{"channel":"orderbook:BTCUSDT","data":{"bids":"x"}}`, wantErr: ErrMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := Parse([]byte(tt.data), now)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if msg.Kind != tt.wantKind {
				t.Errorf("Kind = %q, want %q", msg.Kind, tt.wantKind)
			}
			if msg.Symbol != tt.wantSymbol {
				t.Errorf("Symbol = %q, want %q", msg.Symbol, tt.wantSymbol)
			}
			if !msg.ReceivedAt.Equal(now) {
				t.Errorf("ReceivedAt = %v, want %v", msg.ReceivedAt, now)
			}
		})
	}
}

func TestParse_OrderbookPayload(t *testing.T) {
	msg, err := Parse([]byte(`{"channel":"orderbook:BTCUSDT","data":{"bids":[{"price":"99","size":"2"},["100","1"]],"asks":[["101","1"]]}}`), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(msg.Book.Bids) != 2 || len(msg.Book.Asks) != 1 {
		t.Fatalf("book = %+v", msg.Book)
	}
	if msg.Book.Bids[0].Price.String() != "100" {
		t.Errorf("best bid = %s, want 100", msg.Book.Bids[0].Price)
	}
}

func TestParse_EmptyOrderbookIsHeartbeat(t *testing.T) {
	msg, err := Parse([]byte(`{"channel":"orderbook:BTCUSDT","data":{"bids":[],"asks":[]}}`), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !msg.Book.IsEmpty() {
		t.Error("expected empty book")
	}
}

func TestParse_TradeArray(t *testing.T) {
	msg, err := Parse([]byte(`{"channel":"trades:BTCUSDT","data":[{"id":"a","price":"1"},{"id":"b","price":"2"},{"id":"c"}]}`), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(msg.Trades) != 3 {
		t.Fatalf("len = %d, want 3", len(msg.Trades))
	}
	if msg.Trades[0].Trade.ID != "a" || msg.Trades[2].Priced {
		t.Errorf("trades = %+v", msg.Trades)
	}
}

func TestRouter_Route(t *testing.T) {
	h := &recordingHandler{}
	r := New(h, nil)

	frames := []string{
		`{"channel":"orderbook:BTCUSDT","data":{"bids":[["100","1"]],"asks":[]}}`,
		`{"channel":"trades:BTCUSDT","data":{"price":"100.25"}}`,
		`garbage`,
		`{"type":"pong"}`,
	}
	for _, f := range frames {
		r.Route(connection.RawMessage{Data: []byte(f), Symbol: "BTCUSDT", ReceivedAt: time.Now()})
	}

	if len(h.orderbook) != 1 {
		t.Errorf("orderbook messages = %d, want 1", len(h.orderbook))
	}
	if len(h.trades) != 1 {
		t.Errorf("trade messages = %d, want 1", len(h.trades))
	}

	stats := r.Stats()
	if stats.MessagesReceived != 4 {
		t.Errorf("MessagesReceived = %d, want 4", stats.MessagesReceived)
	}
	if stats.MessagesRouted != 2 {
		t.Errorf("MessagesRouted = %d, want 2", stats.MessagesRouted)
	}
	if stats.ParseErrors != 1 {
		t.Errorf("ParseErrors = %d, want 1", stats.ParseErrors)
	}
	if stats.UnknownMessages != 1 {
		t.Errorf("UnknownMessages = %d, want 1", stats.UnknownMessages)
	}
}
