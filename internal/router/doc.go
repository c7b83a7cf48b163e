// Package router parses push frames into orderbook and trade messages and
// routes them to the market state.
package router
