package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rickgao/renance-monitor/internal/model"
)

// ErrMalformedLevel is returned for a level that is neither a pair nor an object with a price.
var ErrMalformedLevel = errors.New("malformed price level")

// levelObject is the object form of a price level.
type levelObject struct {
	Price    FlexString `json:"price"`
	Size     FlexString `json:"size"`
	Amount   FlexString `json:"amount"`
	Quantity FlexString `json:"quantity"`
}

// NormalizeLevel converts one wire level into the canonical shape.
// Accepts [price, size] (elements quoted or not) or {price, size|amount|quantity}.
func NormalizeLevel(raw json.RawMessage) (model.PriceLevel, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return model.PriceLevel{}, ErrMalformedLevel
	}

	var price, size string
	switch raw[0] {
	case '[':
		var pair []FlexString
		if err := json.Unmarshal(raw, &pair); err != nil {
			return model.PriceLevel{}, fmt.Errorf("%w: %v", ErrMalformedLevel, err)
		}
		if len(pair) < 2 {
			return model.PriceLevel{}, fmt.Errorf("%w: pair has %d elements", ErrMalformedLevel, len(pair))
		}
		price, size = string(pair[0]), string(pair[1])
	case '{':
		var obj levelObject
		if err := json.Unmarshal(raw, &obj); err != nil {
			return model.PriceLevel{}, fmt.Errorf("%w: %v", ErrMalformedLevel, err)
		}
		price, size = string(obj.Price), firstNonEmpty(obj.Size, obj.Amount, obj.Quantity)
	default:
		return model.PriceLevel{}, ErrMalformedLevel
	}

	p, err := decimal.NewFromString(price)
	if err != nil {
		return model.PriceLevel{}, fmt.Errorf("%w: price %q", ErrMalformedLevel, price)
	}
	s, err := decimal.NewFromString(size)
	if err != nil {
		return model.PriceLevel{}, fmt.Errorf("%w: size %q", ErrMalformedLevel, size)
	}

	return model.PriceLevel{Price: p, Size: s}, nil
}

// NormalizeSide converts wire levels into an ordered side, skipping malformed entries.
// Bids are sorted descending and asks ascending by price.
func NormalizeSide(raw []json.RawMessage, bids bool) model.OrderBookSide {
	side := make(model.OrderBookSide, 0, len(raw))
	for _, r := range raw {
		lvl, err := NormalizeLevel(r)
		if err != nil {
			continue
		}
		side = append(side, lvl)
	}

	sortSide(side, bids)
	return side
}

// ToSnapshot converts an orderbook payload into a canonical snapshot.
// now is used when the payload carries no timestamp.
func (o *OrderbookResponse) ToSnapshot(now time.Time) model.OrderBookSnapshot {
	asOf := o.Timestamp.Time()
	if asOf.IsZero() {
		asOf = now
	}
	return model.OrderBookSnapshot{
		Bids: NormalizeSide(o.Bids, true),
		Asks: NormalizeSide(o.Asks, false),
		AsOf: asOf,
	}
}

// ToModel converts an APITrade to model.Trade.
// priced is false when the trade carries no usable price.
func (t *APITrade) ToModel() (trade model.Trade, priced bool) {
	id := firstNonEmpty(t.ID, t.TradeID)
	if id == "" {
		id = uuid.NewString()
	}

	trade = model.Trade{
		ID:         id,
		Side:       model.ParseSide(strings.TrimSpace(t.Side)),
		OccurredAt: firstTime(t.Timestamp, t.Time),
	}

	if p, err := decimal.NewFromString(string(t.Price)); err == nil {
		trade.Price = p
		priced = true
	}
	if s, err := decimal.NewFromString(firstNonEmpty(t.Amount, t.Size, t.Quantity)); err == nil {
		trade.Size = s
	}

	return trade, priced
}

// ToModel converts a TickerResponse to model.Ticker.
func (t *TickerResponse) ToModel() (model.Ticker, error) {
	raw := firstNonEmpty(t.Price, t.LastPrice, t.LastPriceC)
	last, err := decimal.NewFromString(raw)
	if err != nil {
		return model.Ticker{}, fmt.Errorf("ticker last price %q: %w", raw, err)
	}

	return model.Ticker{
		LastPrice:    last,
		Change24hPct: nullDecimal(firstNonEmpty(t.Change24h, t.Change24hS)),
		High24h:      nullDecimal(firstNonEmpty(t.High24h, t.High24hS)),
		Low24h:       nullDecimal(firstNonEmpty(t.Low24h, t.Low24hS)),
		Volume24h:    nullDecimal(firstNonEmpty(t.Volume24h, t.Volume24hS)),
	}, nil
}

// ToModel converts an APIOrder to model.Order.
func (o *APIOrder) ToModel() model.Order {
	order := model.Order{
		ID:        firstNonEmpty(o.ID, o.OrderID),
		Symbol:    o.Symbol,
		Side:      model.ParseSide(o.Side),
		Type:      o.Type,
		Status:    o.Status,
		CreatedAt: firstTime(o.CreatedAt, o.CreatedAC),
	}
	if p, err := decimal.NewFromString(string(o.Price)); err == nil {
		order.Price = p
	}
	if s, err := decimal.NewFromString(firstNonEmpty(o.Size, o.Amount, o.Quantity)); err == nil {
		order.Size = s
	}
	return order
}

// DecodeList extracts a list payload that is either a bare JSON array or an object
// wrapping the array under one of keys.
func DecodeList(body []byte, keys ...string) ([]json.RawMessage, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, errors.New("empty body")
	}

	if body[0] == '[' {
		var list []json.RawMessage
		if err := json.Unmarshal(body, &list); err != nil {
			return nil, err
		}
		return list, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return nil, err
	}
	for _, k := range keys {
		inner, ok := obj[k]
		if !ok {
			continue
		}
		var list []json.RawMessage
		if err := json.Unmarshal(inner, &list); err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		return list, nil
	}

	return nil, fmt.Errorf("no list under any of %v", keys)
}

// DecodedTrade is a trade plus whether the wire payload carried a usable price.
type DecodedTrade struct {
	Trade  model.Trade
	Priced bool
}

// DecodeTrades decodes a single trade object or a list of trades, preserving wire order.
// Entries that fail to decode are skipped.
func DecodeTrades(raw json.RawMessage) []DecodedTrade {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}

	items := []json.RawMessage{raw}
	if raw[0] == '[' {
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil
		}
	}

	trades := make([]DecodedTrade, 0, len(items))
	for _, item := range items {
		var at APITrade
		if err := json.Unmarshal(item, &at); err != nil {
			continue
		}
		tr, priced := at.ToModel()
		trades = append(trades, DecodedTrade{Trade: tr, Priced: priced})
	}
	return trades
}

func nullDecimal(s string) decimal.NullDecimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

func sortSide(side model.OrderBookSide, desc bool) {
	slices.SortStableFunc(side, func(a, b model.PriceLevel) int {
		if desc {
			return b.Price.Cmp(a.Price)
		}
		return a.Price.Cmp(b.Price)
	})
}
