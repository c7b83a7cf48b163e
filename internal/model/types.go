package model

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// -----------------------------------------------------------------------------
// Market Data
// -----------------------------------------------------------------------------

// PriceLevel represents a single price level in an orderbook.
type PriceLevel struct {
	Price decimal.Decimal
	Size  decimal.Decimal
}

// OrderBookSide is an ordered list of price levels.
// Asks are ascending by price, bids descending.
type OrderBookSide []PriceLevel

// OrderBookSnapshot is a full-depth orderbook at a point in time.
// It is always replaced wholesale, never merged with a prior snapshot.
type OrderBookSnapshot struct {
	Bids OrderBookSide
	Asks OrderBookSide
	AsOf time.Time
}

// IsEmpty reports whether both sides carry no levels.
func (s OrderBookSnapshot) IsEmpty() bool {
	return len(s.Bids) == 0 && len(s.Asks) == 0
}

// BestBid returns the top bid level, if any.
func (s OrderBookSnapshot) BestBid() (PriceLevel, bool) {
	if len(s.Bids) == 0 {
		return PriceLevel{}, false
	}
	return s.Bids[0], true
}

// BestAsk returns the top ask level, if any.
func (s OrderBookSnapshot) BestAsk() (PriceLevel, bool) {
	if len(s.Asks) == 0 {
		return PriceLevel{}, false
	}
	return s.Asks[0], true
}

// Spread returns best ask minus best bid and that spread as a percentage of the best ask.
// ok is false when either side is empty or the best ask is zero.
// A crossed book yields a negative spread.
func (s OrderBookSnapshot) Spread() (spread, percent decimal.Decimal, ok bool) {
	bid, hasBid := s.BestBid()
	ask, hasAsk := s.BestAsk()
	if !hasBid || !hasAsk || ask.Price.IsZero() {
		return decimal.Zero, decimal.Zero, false
	}

	spread = ask.Price.Sub(bid.Price)
	percent = spread.Div(ask.Price).Mul(decimal.NewFromInt(100))
	return spread, percent, true
}

// Side is the aggressor side of a trade or the side of an order.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// ParseSide normalizes venue side strings. Unknown values map to "".
func ParseSide(s string) Side {
	switch s {
	case "buy", "BUY", "Buy", "bid", "b":
		return SideBuy
	case "sell", "SELL", "Sell", "ask", "s":
		return SideSell
	}
	return ""
}

// Trade represents an executed trade on the public tape.
type Trade struct {
	ID         string // Unique per trade (generated when the venue omits it)
	Price      decimal.Decimal
	Size       decimal.Decimal
	Side       Side
	OccurredAt time.Time // Venue timestamp; not used for ordering
}

// Ticker is the last price plus optional 24h statistics for a symbol.
type Ticker struct {
	LastPrice    decimal.Decimal
	Change24hPct decimal.NullDecimal
	High24h      decimal.NullDecimal
	Low24h       decimal.NullDecimal
	Volume24h    decimal.NullDecimal
}

// ChannelState is the lifecycle state of the push channel.
type ChannelState string

const (
	ChannelConnecting ChannelState = "connecting"
	ChannelOpen       ChannelState = "open"
	ChannelClosed     ChannelState = "closed"
	ChannelErrored    ChannelState = "errored"
)

// -----------------------------------------------------------------------------
// Account
// -----------------------------------------------------------------------------

// Order is a point-in-time view of one of the user's open orders.
// Lifecycle is owned by the venue; the client only observes it.
type Order struct {
	ID        string
	Symbol    string
	Side      Side
	Type      string // "limit", "market", ...
	Price     decimal.Decimal
	Size      decimal.Decimal
	Status    string
	CreatedAt time.Time
}

// -----------------------------------------------------------------------------
// Statistics
// -----------------------------------------------------------------------------

// VolumeSummary aggregates traded volume over the requested range.
type VolumeSummary struct {
	TotalVolumeUSD float64 `json:"total_volume_usd"`
	TradeCount     int64   `json:"trade_count"`
	TotalFees      float64 `json:"total_fees"`
}

// SymbolVolume is the per-symbol volume breakdown.
type SymbolVolume struct {
	Symbol     string  `json:"symbol"`
	VolumeUSD  float64 `json:"volume_usd"`
	TradeCount int64   `json:"trade_count"`
	Fees       float64 `json:"fees"`
}

// VolumeStats is the response of the volume statistics endpoint.
// ByTime is kept raw since its bucket shape is not fixed by the venue.
type VolumeStats struct {
	Summary  VolumeSummary     `json:"summary"`
	BySymbol []SymbolVolume    `json:"by_symbol"`
	ByTime   []json.RawMessage `json:"by_time"`
}
