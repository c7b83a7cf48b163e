// Package api provides the REST client for the venue, reached through the same-origin proxy.
//
// Endpoints (relative to the configured base URL):
//   - GET /markets/{symbol}/orderbook
//   - GET /markets/{symbol}/trades
//   - GET /markets/{symbol}/ticker
//   - GET /account/orders?status=open&limit=50 (bearer token)
//   - GET /volume?start_date=YYYY-MM-DD&end_date=YYYY-MM-DD
//
// Every call runs through an Executor: per-attempt deadline, bounded retries,
// exponential backoff. Only idempotent reads are issued.
package api
