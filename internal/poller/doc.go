// Package poller keeps the user's open orders current.
//
// Polling runs only while a session token is set: an immediate fetch, then
// one per interval. Clearing the token stops the loop and discards results
// of fetches issued under it.
package poller
