package connection

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"
)

// Errors
var (
	ErrNotConnected    = errors.New("not connected")
	ErrStaleConnection = errors.New("connection stale (no ping)")
	ErrAlreadyClosed   = errors.New("already closed")
)

// Stream names used in channel identifiers ("orderbook:BTCUSDT").
const (
	StreamOrderbook = "orderbook"
	StreamTrades    = "trades"
)

// TimestampedMessage wraps raw message data with receive timestamp.
type TimestampedMessage struct {
	Data       []byte    // Raw message bytes from WebSocket
	ReceivedAt time.Time // Local timestamp when ReadMessage() returned
}

// RawMessage is a frame handed from a Channel to its owner.
type RawMessage struct {
	Data       []byte
	Symbol     string    // Symbol the channel was opened for
	ConnID     string    // Connection that delivered the frame
	ReceivedAt time.Time // Local timestamp when WS Client received message
}

// Command is an outbound channel control message.
type Command struct {
	Type    string `json:"type"`
	Channel string `json:"channel"`
}

// ChannelName returns the channel identifier for a stream of a symbol.
func ChannelName(stream, symbol string) string {
	return stream + ":" + symbol
}

// SubscribeCommand encodes a subscribe request for a stream of a symbol.
func SubscribeCommand(stream, symbol string) ([]byte, error) {
	return json.Marshal(Command{Type: "subscribe", Channel: ChannelName(stream, symbol)})
}

// ClientConfig configures a WebSocket client.
type ClientConfig struct {
	URL          string        // WebSocket URL (e.g., ws://api.renance.xyz/ws/)
	Header       http.Header   // Extra handshake headers
	PingInterval time.Duration // How often to send a keepalive ping
	PingTimeout  time.Duration // Max time without ping/pong before considering connection stale
	WriteTimeout time.Duration // Write deadline for sends
	BufferSize   int           // Message channel buffer size
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		PingInterval: 30 * time.Second,
		PingTimeout:  60 * time.Second,
		WriteTimeout: 5 * time.Second,
		BufferSize:   1024,
	}
}

// ChannelConfig configures a Channel.
type ChannelConfig struct {
	Client         ClientConfig
	ReconnectDelay time.Duration // Fixed wait before reconnecting (default: 3s)
}

// DefaultChannelConfig returns sensible defaults.
func DefaultChannelConfig() ChannelConfig {
	return ChannelConfig{
		Client:         DefaultClientConfig(),
		ReconnectDelay: 3 * time.Second,
	}
}
