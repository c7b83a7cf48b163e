// Package connection manages the push channel to the venue.
//
// A Client wraps one websocket connection with a read loop and a ping/pong
// heartbeat. A Channel owns the per-symbol lifecycle on top of it:
//   - connecting, open, closed, errored
//   - subscribe to the orderbook and trades streams on every open
//   - exactly one pending reconnect after a fixed delay on failure
//   - no reconnect once stopped
package connection
