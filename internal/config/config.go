package config

import "time"

// MonitorConfig is the root configuration shared by the monitor and proxy binaries.
type MonitorConfig struct {
	API     APIConfig     `yaml:"api"`
	Channel ChannelConfig `yaml:"channel"`
	Market  MarketConfig  `yaml:"market"`
	Orders  OrdersConfig  `yaml:"orders"`
	Session SessionConfig `yaml:"session"`
	Proxy   ProxyConfig   `yaml:"proxy"`
	Logging LoggingConfig `yaml:"logging"`
}

// APIConfig holds REST and push endpoint settings.
type APIConfig struct {
	RestURL      string        `yaml:"rest_url"`  // Same-origin proxy base, e.g. http://localhost:8080/api/proxy
	StatsURL     string        `yaml:"stats_url"` // Base serving /volume, e.g. http://localhost:8080/api
	WSURL        string        `yaml:"ws_url"`
	Timeout      time.Duration `yaml:"timeout"` // Per-attempt deadline
	MaxRetries   int           `yaml:"max_retries"`
	RetryBackoff time.Duration `yaml:"retry_backoff"` // First retry delay, doubled each retry
	RateLimit    float64       `yaml:"rate_limit"`    // Requests per second, 0 = unlimited
	RateBurst    int           `yaml:"rate_burst"`
}

// ChannelConfig holds push channel settings.
type ChannelConfig struct {
	ReconnectDelay time.Duration `yaml:"reconnect_delay"`
	PingTimeout    time.Duration `yaml:"ping_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	BufferSize     int           `yaml:"buffer_size"`
}

// MarketConfig selects the symbol to follow.
type MarketConfig struct {
	Symbol  string   `yaml:"symbol"`
	Symbols []string `yaml:"symbols"` // Symbols the operator may switch between
}

// OrdersConfig holds open-order polling settings.
type OrdersConfig struct {
	Interval time.Duration `yaml:"interval"`
	Limit    int           `yaml:"limit"`
}

// SessionConfig carries the opaque bearer token, inline or in a file.
// Neither set disables order polling.
type SessionConfig struct {
	Token     string `yaml:"token"`
	TokenFile string `yaml:"token_file"`
}

// ProxyConfig holds the same-origin proxy settings.
type ProxyConfig struct {
	Listen       string        `yaml:"listen"`
	TargetURL    string        `yaml:"target_url"`
	VolumeURL    string        `yaml:"volume_url"`
	VolumeAPIKey string        `yaml:"volume_api_key"`
	Timeout      time.Duration `yaml:"timeout"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level      string `yaml:"level"`  // debug, info, warn, error
	Format     string `yaml:"format"` // text or json
	Output     string `yaml:"output"` // stdout, stderr or a file path
	MaxAgeDays int    `yaml:"max_age_days"`
}
