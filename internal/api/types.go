package api

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// FlexString decodes a JSON string or number as its textual form; null decodes to "".
// Venues are inconsistent about quoting prices, sizes and IDs.
type FlexString string

func (s *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*s = ""
		return nil
	}
	if b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = FlexString(strings.TrimSpace(v))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*s = FlexString(n.String())
	return nil
}

// FlexTime decodes epoch seconds/milliseconds (number or numeric string) or an RFC 3339 string.
type FlexTime time.Time

func (t *FlexTime) UnmarshalJSON(b []byte) error {
	var s FlexString
	if err := s.UnmarshalJSON(b); err != nil {
		return err
	}
	*t = FlexTime(ParseTimestamp(string(s)))
	return nil
}

// Time returns the decoded time; zero if absent or invalid.
func (t FlexTime) Time() time.Time {
	return time.Time(t)
}

// ParseTimestamp parses epoch seconds, epoch milliseconds or RFC 3339.
// Returns the zero time for empty or invalid input.
func ParseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}

	if f, err := strconv.ParseFloat(s, 64); err == nil {
		// Anything past year 5138 in seconds is milliseconds.
		if f >= 1e11 {
			return time.UnixMilli(int64(f)).UTC()
		}
		return time.Unix(int64(f), 0).UTC()
	}

	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		// Try without timezone
		t, err = time.Parse("2006-01-02T15:04:05", s)
		if err != nil {
			return time.Time{}
		}
	}
	return t.UTC()
}

// OrderbookResponse from GET /markets/{symbol}/orderbook and the orderbook push payload.
// Levels are kept raw: they arrive either as [price, size] pairs or as objects.
type OrderbookResponse struct {
	Bids      []json.RawMessage `json:"bids"`
	Asks      []json.RawMessage `json:"asks"`
	Timestamp FlexTime          `json:"timestamp"`
}

// APITrade is a trade from GET /markets/{symbol}/trades or the trades push payload.
type APITrade struct {
	ID        FlexString `json:"id"`
	TradeID   FlexString `json:"trade_id"`
	Price     FlexString `json:"price"`
	Amount    FlexString `json:"amount"`
	Size      FlexString `json:"size"`
	Quantity  FlexString `json:"quantity"`
	Side      string     `json:"side"`
	Timestamp FlexTime   `json:"timestamp"`
	Time      FlexTime   `json:"time"`
}

// TickerResponse from GET /markets/{symbol}/ticker.
type TickerResponse struct {
	Price      FlexString `json:"price"`
	LastPrice  FlexString `json:"last_price"`
	LastPriceC FlexString `json:"lastPrice"`
	Change24h  FlexString `json:"change24h"`
	Change24hS FlexString `json:"change_24h"`
	High24h    FlexString `json:"high24h"`
	High24hS   FlexString `json:"high_24h"`
	Low24h     FlexString `json:"low24h"`
	Low24hS    FlexString `json:"low_24h"`
	Volume24h  FlexString `json:"volume24h"`
	Volume24hS FlexString `json:"volume_24h"`
}

// APIOrder is an order from GET /account/orders.
type APIOrder struct {
	ID        FlexString `json:"id"`
	OrderID   FlexString `json:"order_id"`
	Symbol    string     `json:"symbol"`
	Side      string     `json:"side"`
	Type      string     `json:"type"`
	Price     FlexString `json:"price"`
	Size      FlexString `json:"size"`
	Amount    FlexString `json:"amount"`
	Quantity  FlexString `json:"quantity"`
	Status    string     `json:"status"`
	CreatedAt FlexTime   `json:"created_at"`
	CreatedAC FlexTime   `json:"createdAt"`
}

// GetOrdersOptions configures a GetOpenOrders request.
type GetOrdersOptions struct {
	Status string // default "open"
	Limit  int    // default 50
}

// firstNonEmpty returns the first non-empty value.
func firstNonEmpty(values ...FlexString) string {
	for _, v := range values {
		if v != "" {
			return string(v)
		}
	}
	return ""
}

// firstTime returns the first non-zero time.
func firstTime(values ...FlexTime) time.Time {
	for _, v := range values {
		if !v.Time().IsZero() {
			return v.Time()
		}
	}
	return time.Time{}
}
