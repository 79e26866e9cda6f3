package source

import (
    "context"
    "errors"
    "time"
)

// ErrUnavailable is the single outcome for every adapter-level failure:
// timeout, non-2xx status, malformed payload, or an empty offer list.
// Adapters wrap it so callers can match with errors.Is while logs keep detail.
var ErrUnavailable = errors.New("source unavailable")

// Quote is a normalized upstream price observation. Value is in the
// source's native unit (e.g. TWD, CNY, KRW per 1 USDT) and is always
// sampled at call time; quotes are never cached or persisted.
type Quote struct {
    Value      float64   `json:"value"`
    Currency   string    `json:"currency"`
    Source     string    `json:"source"`
    Advertiser string    `json:"advertiser,omitempty"` // P2P counterparty, when applicable
    FetchedAt  time.Time `json:"fetched_at"`
}

type Source interface {
    Name() string
    Fetch(ctx context.Context) (Quote, error)
}

// Fallback tries Primary and, only if it fails, Secondary.
// The primary's error is kept when both legs fail.
type Fallback struct {
    Primary   Source
    Secondary Source
}

func (f *Fallback) Name() string { return f.Primary.Name() }

func (f *Fallback) Fetch(ctx context.Context) (Quote, error) {
    q, err := f.Primary.Fetch(ctx)
    if err == nil {
        return q, nil
    }
    if f.Secondary == nil {
        return Quote{}, err
    }
    q2, err2 := f.Secondary.Fetch(ctx)
    if err2 != nil {
        return Quote{}, err
    }
    return q2, nil
}
