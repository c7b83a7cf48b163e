package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/rickgao/renance-monitor/internal/model"
)

func marketPath(symbol, resource string) string {
	return "/markets/" + url.PathEscape(symbol) + "/" + resource
}

// GetOrderbook fetches the full-depth orderbook for a symbol.
func (c *Client) GetOrderbook(ctx context.Context, symbol string) (model.OrderBookSnapshot, error) {
	var resp OrderbookResponse
	if err := c.get(ctx, marketPath(symbol, "orderbook"), nil, nil, &resp); err != nil {
		return model.OrderBookSnapshot{}, fmt.Errorf("get orderbook %s: %w", symbol, err)
	}

	return resp.ToSnapshot(time.Now()), nil
}

// GetTrades fetches the most recent trades for a symbol, newest first as served.
func (c *Client) GetTrades(ctx context.Context, symbol string) ([]model.Trade, error) {
	body, err := c.getRaw(ctx, marketPath(symbol, "trades"), nil, nil)
	if err != nil {
		return nil, fmt.Errorf("get trades %s: %w", symbol, err)
	}

	items, err := DecodeList(body, "trades", "data")
	if err != nil {
		return nil, fmt.Errorf("get trades %s: unmarshal response: %w", symbol, err)
	}

	trades := make([]model.Trade, 0, len(items))
	for _, item := range items {
		var at APITrade
		if err := json.Unmarshal(item, &at); err != nil {
			c.logger.Debug("skipping malformed trade", "symbol", symbol, "error", err)
			continue
		}
		tr, _ := at.ToModel()
		trades = append(trades, tr)
	}

	return trades, nil
}

// GetTicker fetches the ticker for a symbol.
func (c *Client) GetTicker(ctx context.Context, symbol string) (model.Ticker, error) {
	var resp TickerResponse
	if err := c.get(ctx, marketPath(symbol, "ticker"), nil, nil, &resp); err != nil {
		return model.Ticker{}, fmt.Errorf("get ticker %s: %w", symbol, err)
	}

	ticker, err := resp.ToModel()
	if err != nil {
		return model.Ticker{}, fmt.Errorf("get ticker %s: %w", symbol, err)
	}
	return ticker, nil
}
