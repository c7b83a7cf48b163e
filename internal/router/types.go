package router

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/rickgao/renance-monitor/internal/api"
	"github.com/rickgao/renance-monitor/internal/model"
)

// Errors returned by Parse.
var (
	ErrMalformed      = errors.New("malformed message")
	ErrUnknownMessage = errors.New("unknown message")
)

// Kind identifies the stream a push message belongs to.
type Kind string

const (
	KindOrderbook Kind = "orderbook"
	KindTrades    Kind = "trades"
)

// Message is a parsed push message.
type Message struct {
	Kind       Kind
	Symbol     string
	ReceivedAt time.Time

	// Orderbook messages only. Book.IsEmpty() marks a heartbeat.
	Book model.OrderBookSnapshot

	// Trade messages only, in wire order.
	Trades []api.DecodedTrade
}

// RouterStats contains runtime statistics.
type RouterStats struct {
	MessagesReceived int64
	MessagesRouted   int64
	ParseErrors      int64
	UnknownMessages  int64
}

// envelope is the wire format of every push frame.
// The stream is named either by channel ("orderbook:BTCUSDT") or by type + symbol.
type envelope struct {
	Channel string          `json:"channel"`
	Type    string          `json:"type"`
	Symbol  string          `json:"symbol"`
	Data    json.RawMessage `json:"data"`
}
