package config

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
)

// Validate checks that all required fields are set and values are valid.
func (c *MonitorConfig) Validate() error {
	if err := validateURL("api.rest_url", c.API.RestURL, "http", "https"); err != nil {
		return err
	}
	if err := validateURL("api.stats_url", c.API.StatsURL, "http", "https"); err != nil {
		return err
	}
	if err := validateURL("api.ws_url", c.API.WSURL, "ws", "wss"); err != nil {
		return err
	}
	if c.API.Timeout <= 0 {
		return errors.New("api.timeout must be > 0")
	}
	if c.API.MaxRetries < 0 {
		return fmt.Errorf("api.max_retries must be >= 0, got %d", c.API.MaxRetries)
	}
	if c.API.RateLimit < 0 {
		return errors.New("api.rate_limit must be >= 0")
	}

	if c.Channel.ReconnectDelay <= 0 {
		return errors.New("channel.reconnect_delay must be > 0")
	}
	if c.Channel.BufferSize < 1 {
		return errors.New("channel.buffer_size must be >= 1")
	}

	if c.Market.Symbol == "" {
		return errors.New("market.symbol is required")
	}
	if len(c.Market.Symbols) > 0 && !slices.Contains(c.Market.Symbols, c.Market.Symbol) {
		return fmt.Errorf("market.symbol %q is not listed in market.symbols", c.Market.Symbol)
	}

	if c.Orders.Interval <= 0 {
		return errors.New("orders.interval must be > 0")
	}
	if c.Orders.Limit < 1 {
		return errors.New("orders.limit must be >= 1")
	}

	if c.Session.Token != "" && c.Session.TokenFile != "" {
		return errors.New("session.token and session.token_file are mutually exclusive")
	}

	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}

	return nil
}

// ValidateProxy checks the settings the proxy binary needs.
func (c *MonitorConfig) ValidateProxy() error {
	if c.Proxy.Listen == "" {
		return errors.New("proxy.listen is required")
	}
	if err := validateURL("proxy.target_url", c.Proxy.TargetURL, "http", "https"); err != nil {
		return err
	}
	if err := validateURL("proxy.volume_url", c.Proxy.VolumeURL, "http", "https"); err != nil {
		return err
	}
	if c.Proxy.VolumeAPIKey == "" {
		return errors.New("proxy.volume_api_key is required")
	}
	return nil
}

func validateURL(field, raw string, schemes ...string) error {
	if raw == "" {
		return fmt.Errorf("%s is required", field)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if !slices.Contains(schemes, u.Scheme) {
		return fmt.Errorf("%s scheme must be one of %v, got %q", field, schemes, u.Scheme)
	}
	return nil
}
