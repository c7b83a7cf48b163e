package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultRestURL        = "http://localhost:8080/api/proxy"
	DefaultStatsURL       = "http://localhost:8080/api"
	DefaultWSURL          = "ws://api.renance.xyz/ws/"
	DefaultAPITimeout     = 8 * time.Second
	DefaultMaxRetries     = 3
	DefaultRetryBackoff   = 500 * time.Millisecond
	DefaultRateBurst      = 1
	DefaultReconnectDelay = 3 * time.Second
	DefaultPingTimeout    = 60 * time.Second
	DefaultWriteTimeout   = 5 * time.Second
	DefaultBufferSize     = 1024
	DefaultSymbol         = "BTCUSDT"
	DefaultOrdersInterval = 3 * time.Second
	DefaultOrdersLimit    = 50
	DefaultProxyListen    = ":8080"
	DefaultProxyTarget    = "https://api.renance.xyz/api/v1"
	DefaultVolumeURL      = "https://api.renance.xyz/api/v1/admin/stats/trade-volume"
	DefaultProxyTimeout   = 30 * time.Second
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "text"
	DefaultLogOutput      = "stdout"
)

// DefaultSymbols are the symbols offered when none are configured.
var DefaultSymbols = []string{"BTCUSDT", "ETHUSDT", "SOLUSDT"}

// ApplyDefaults fills zero-valued optional fields.
func (c *MonitorConfig) ApplyDefaults() {
	// API defaults
	if c.API.RestURL == "" {
		c.API.RestURL = DefaultRestURL
	}
	if c.API.StatsURL == "" {
		c.API.StatsURL = DefaultStatsURL
	}
	if c.API.WSURL == "" {
		c.API.WSURL = DefaultWSURL
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultAPITimeout
	}
	if c.API.MaxRetries == 0 {
		c.API.MaxRetries = DefaultMaxRetries
	}
	if c.API.RetryBackoff == 0 {
		c.API.RetryBackoff = DefaultRetryBackoff
	}
	if c.API.RateLimit > 0 && c.API.RateBurst == 0 {
		c.API.RateBurst = DefaultRateBurst
	}

	// Channel defaults
	if c.Channel.ReconnectDelay == 0 {
		c.Channel.ReconnectDelay = DefaultReconnectDelay
	}
	if c.Channel.PingTimeout == 0 {
		c.Channel.PingTimeout = DefaultPingTimeout
	}
	if c.Channel.WriteTimeout == 0 {
		c.Channel.WriteTimeout = DefaultWriteTimeout
	}
	if c.Channel.BufferSize == 0 {
		c.Channel.BufferSize = DefaultBufferSize
	}

	// Market defaults
	if len(c.Market.Symbols) == 0 {
		c.Market.Symbols = append([]string(nil), DefaultSymbols...)
	}
	if c.Market.Symbol == "" {
		c.Market.Symbol = DefaultSymbol
	}

	// Orders defaults
	if c.Orders.Interval == 0 {
		c.Orders.Interval = DefaultOrdersInterval
	}
	if c.Orders.Limit == 0 {
		c.Orders.Limit = DefaultOrdersLimit
	}

	// Proxy defaults
	if c.Proxy.Listen == "" {
		c.Proxy.Listen = DefaultProxyListen
	}
	if c.Proxy.TargetURL == "" {
		c.Proxy.TargetURL = DefaultProxyTarget
	}
	if c.Proxy.VolumeURL == "" {
		c.Proxy.VolumeURL = DefaultVolumeURL
	}
	if c.Proxy.Timeout == 0 {
		c.Proxy.Timeout = DefaultProxyTimeout
	}

	// Logging defaults
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}
	if c.Logging.Output == "" {
		c.Logging.Output = DefaultLogOutput
	}
}
