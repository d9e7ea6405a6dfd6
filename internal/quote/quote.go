// Package quote fetches current market prices for the allocation assets.
// Quote failures are always recoverable: callers keep the last manually
// entered price, so a provider returns ErrQuoteUnavailable rather than
// anything fatal.
package quote

import (
	"context"
	"time"
)

// Quote is the current market price of one symbol in its quote currency.
type Quote struct {
	Symbol   string    `json:"symbol"`
	Price    float64   `json:"price"`
	Currency string    `json:"currency"`
	AsOf     time.Time `json:"as_of"`
}

// Provider fetches a single quote. Implementations must wrap failures in
// ErrQuoteUnavailable so the service layer can fall back per symbol.
type Provider interface {
	FetchQuote(ctx context.Context, symbol string) (*Quote, error)
}
