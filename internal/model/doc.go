// Package model defines the canonical market-data types shared across the monitor.
//
// Conventions:
//   - Prices and sizes: shopspring decimal, never float64
//   - Order book sides: asks ascending by price, bids descending by price
//   - Timestamps: time.Time (UTC where the venue reports one)
//   - Trade tape: newest first by arrival, not by OccurredAt
package model
