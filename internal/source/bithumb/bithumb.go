package bithumb

import (
    "context"
    "fmt"
    "strconv"
    "time"

    "quotebot/internal/httpx"
    "quotebot/internal/source"
)

type Config struct {
    Name       string
    Endpoint   string
    Currency   string
    TimeoutSec int
}

// Ticker fetches the Bithumb closing price for a single pair. It backs the
// KRW path as the fallback leg behind the P2P search.
type Ticker struct {
    cfg    Config
    client *httpx.Client
}

func New(cfg Config, hc *httpx.Client) *Ticker {
    if cfg.Name == "" { cfg.Name = "Bithumb" }
    if cfg.Endpoint == "" { cfg.Endpoint = "https://api.bithumb.com/public/ticker/USDT_KRW" }
    if cfg.Currency == "" { cfg.Currency = "KRW" }
    if cfg.TimeoutSec <= 0 { cfg.TimeoutSec = 5 }
    return &Ticker{cfg: cfg, client: hc}
}

func (t *Ticker) Name() string { return t.cfg.Name }

func (t *Ticker) Fetch(ctx context.Context) (source.Quote, error) {
    ctx, cancel := context.WithTimeout(ctx, time.Duration(t.cfg.TimeoutSec)*time.Second)
    defer cancel()

    var body apiResponse
    if err := t.client.GetJSON(ctx, t.cfg.Endpoint, &body); err != nil {
        return source.Quote{}, fmt.Errorf("%w: bithumb: %v", source.ErrUnavailable, err)
    }
    if body.Status != "0000" {
        return source.Quote{}, fmt.Errorf("%w: bithumb: status %s", source.ErrUnavailable, body.Status)
    }
    v, err := strconv.ParseFloat(body.Data.ClosingPrice, 64)
    if err != nil || v <= 0 {
        return source.Quote{}, fmt.Errorf("%w: bithumb: bad closing_price %q", source.ErrUnavailable, body.Data.ClosingPrice)
    }
    return source.Quote{
        Value:     v,
        Currency:  t.cfg.Currency,
        Source:    t.cfg.Name,
        FetchedAt: time.Now().UTC(),
    }, nil
}

type apiResponse struct {
    Status string `json:"status"`
    Data   struct {
        ClosingPrice string `json:"closing_price"`
    } `json:"data"`
}
