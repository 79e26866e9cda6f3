package bitopro

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
    Endpoint   string // ticker endpoint incl. pair, default usdt_twd
    Currency   string
    TimeoutSec int
}

// Ticker fetches the BitoPro spot last price for a single pair.
type Ticker struct {
    cfg    Config
    client *httpx.Client
}

func New(cfg Config, hc *httpx.Client) *Ticker {
    if cfg.Name == "" { cfg.Name = "BitoPro" }
    if cfg.Endpoint == "" { cfg.Endpoint = "https://api.bitopro.com/v3/tickers/usdt_twd" }
    if cfg.Currency == "" { cfg.Currency = "TWD" }
    if cfg.TimeoutSec <= 0 { cfg.TimeoutSec = 5 }
    return &Ticker{cfg: cfg, client: hc}
}

func (t *Ticker) Name() string { return t.cfg.Name }

func (t *Ticker) Fetch(ctx context.Context) (source.Quote, error) {
    ctx, cancel := context.WithTimeout(ctx, time.Duration(t.cfg.TimeoutSec)*time.Second)
    defer cancel()

    var body apiResponse
    if err := t.client.GetJSON(ctx, t.cfg.Endpoint, &body); err != nil {
        return source.Quote{}, fmt.Errorf("%w: bitopro: %v", source.ErrUnavailable, err)
    }
    v, err := strconv.ParseFloat(body.Data.LastPrice, 64)
    if err != nil || v <= 0 {
        return source.Quote{}, fmt.Errorf("%w: bitopro: bad lastPrice %q", source.ErrUnavailable, body.Data.LastPrice)
    }
    return source.Quote{
        Value:     v,
        Currency:  t.cfg.Currency,
        Source:    t.cfg.Name,
        FetchedAt: time.Now().UTC(),
    }, nil
}

type apiResponse struct {
    Data struct {
        Pair      string `json:"pair"`
        LastPrice string `json:"lastPrice"`
    } `json:"data"`
}
