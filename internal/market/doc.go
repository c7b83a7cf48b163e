// Package market keeps the local view of one symbol's order book, trade tape
// and ticker.
//
// A Syncer owns at most one selection at a time. Each selection gets a fresh
// State, a REST snapshot pull and a push Channel; switching symbols retires
// the previous State so late results for it are discarded.
package market
