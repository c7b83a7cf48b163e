package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/rickgao/renance-monitor/internal/model"
)

// ErrNoSession is returned when an authenticated call is made without a token.
var ErrNoSession = errors.New("no session token")

// GetOpenOrders fetches the user's open orders with the given bearer token.
func (c *Client) GetOpenOrders(ctx context.Context, token string, opts GetOrdersOptions) ([]model.Order, error) {
	if token == "" {
		return nil, ErrNoSession
	}

	if opts.Status == "" {
		opts.Status = "open"
	}
	if opts.Limit <= 0 {
		opts.Limit = 50
	}

	query := url.Values{}
	query.Set("status", opts.Status)
	query.Set("limit", strconv.Itoa(opts.Limit))

	body, err := c.getRaw(ctx, "/account/orders", query, bearer(token))
	if err != nil {
		return nil, fmt.Errorf("get open orders: %w", err)
	}

	items, err := DecodeList(body, "orders", "data")
	if err != nil {
		return nil, fmt.Errorf("get open orders: unmarshal response: %w", err)
	}

	orders := make([]model.Order, 0, len(items))
	for _, item := range items {
		var ao APIOrder
		if err := json.Unmarshal(item, &ao); err != nil {
			c.logger.Debug("skipping malformed order", "error", err)
			continue
		}
		orders = append(orders, ao.ToModel())
	}

	return orders, nil
}
