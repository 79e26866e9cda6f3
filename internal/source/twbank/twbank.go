package twbank

import (
    "context"
    "fmt"
    "time"

    "quotebot/internal/httpx"
    "quotebot/internal/source"
)

// Benchmark is the bank's official buy/sell quote for the diagnostic
// comparison. It never feeds the primary quote path.
type Benchmark struct {
    Buy       float64
    Sell      float64
    FetchedAt time.Time
}

func (b Benchmark) Mid() float64 { return (b.Buy + b.Sell) / 2 }

type Config struct {
    Name       string
    Endpoint   string
    TimeoutSec int
}

// Feed fetches the official reference rate (bank CNY cash rate in TWD).
type Feed struct {
    cfg    Config
    client *httpx.Client
}

func New(cfg Config, hc *httpx.Client) *Feed {
    if cfg.Name == "" { cfg.Name = "TaiwanBank" }
    if cfg.TimeoutSec <= 0 { cfg.TimeoutSec = 5 }
    return &Feed{cfg: cfg, client: hc}
}

func (f *Feed) Name() string { return f.cfg.Name }

func (f *Feed) Fetch(ctx context.Context) (Benchmark, error) {
    if f.cfg.Endpoint == "" {
        return Benchmark{}, fmt.Errorf("%w: twbank: missing endpoint", source.ErrUnavailable)
    }
    ctx, cancel := context.WithTimeout(ctx, time.Duration(f.cfg.TimeoutSec)*time.Second)
    defer cancel()

    var body apiResponse
    if err := f.client.GetJSON(ctx, f.cfg.Endpoint, &body); err != nil {
        return Benchmark{}, fmt.Errorf("%w: twbank: %v", source.ErrUnavailable, err)
    }
    if body.Buy <= 0 || body.Sell <= 0 {
        return Benchmark{}, fmt.Errorf("%w: twbank: bad rates buy=%v sell=%v", source.ErrUnavailable, body.Buy, body.Sell)
    }
    return Benchmark{Buy: body.Buy, Sell: body.Sell, FetchedAt: time.Now().UTC()}, nil
}

type apiResponse struct {
    Buy  float64 `json:"buy"`
    Sell float64 `json:"sell"`
}
