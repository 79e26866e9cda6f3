package dispatch

import (
    "context"
    "errors"
    "fmt"
    "math"
    "strconv"

    "go.uber.org/zap"
    "golang.org/x/sync/errgroup"

    "quotebot/internal/rate"
    "quotebot/internal/source"
    "quotebot/internal/source/twbank"
    "quotebot/internal/spread"
)

// Mode is a recognized request mode. Identifiers are case-sensitive and
// match the callback payload suffixes used by the transport.
type Mode string

const (
    ModeCNY    Mode = "cny"    // asset -> CNY, P2P quote
    ModeU2TW   Mode = "u2tw"   // asset -> TWD, no spread
    ModeTW2U   Mode = "tw2u"   // TWD -> asset, spread applied
    ModeTW2CNY Mode = "tw2cny" // TWD -> CNY cross-rate, spread applied
    ModeKRW2U  Mode = "krw2u"  // asset -> KRW, cash surcharge shown
    ModeCost   Mode = "cost"   // operator-only margin diagnostic
)

// Kind distinguishes a typed message from an inline-button callback. The
// transport resolves this once at the boundary; the dispatcher only carries
// it through so replies can be routed the right way.
type Kind int

const (
    KindMessage Kind = iota
    KindCallback
)

// Request is one inbound quote request. No state survives across requests.
type Request struct {
    Mode   Mode
    Kind   Kind
    UserID int64
    Arg    string // optional operator argument (explicit comparison price)
}

// Comparison is one margin report from the cost diagnostic.
type Comparison struct {
    Reference string `json:"reference"`
    Cost      string `json:"cost"`
    Diff      string `json:"diff"`
    Pct       string `json:"pct"`
    Premium   bool   `json:"premium"`
}

// Result is the dispatcher's success payload: formatted numeric fields plus
// provenance, ready for the transport's own markup layer.
type Result struct {
    Mode       Mode        `json:"mode"`
    Price      string      `json:"price"`
    Currency   string      `json:"currency"`
    Advertiser string      `json:"advertiser,omitempty"`
    Surcharge  string      `json:"surcharge,omitempty"` // krw2u cash figure
    Bench      *Comparison `json:"bench,omitempty"`
    Manual     *Comparison `json:"manual,omitempty"`
}

var (
    // ErrPartialData marks a composed request where one leg succeeded and
    // the other did not; no partial cross-rate is ever produced.
    ErrPartialData = errors.New("partial data unavailable")
    // ErrInvalidInput rejects a non-numeric operator argument.
    ErrInvalidInput = errors.New("invalid input")
    // ErrPermissionDenied rejects operator-only commands from anyone else.
    ErrPermissionDenied = errors.New("permission denied")
    // ErrUnknownMode rejects unrecognized modes before any fetch starts.
    ErrUnknownMode = errors.New("unknown mode")
)

// BenchmarkFeed supplies the official reference rate for diagnostics.
type BenchmarkFeed interface {
    Fetch(ctx context.Context) (twbank.Benchmark, error)
}

// Dispatcher orchestrates adapters, the spread engine and the rate
// composer for one request at a time.
type Dispatcher struct {
    TWD   source.Source // spot TWD/asset leg
    CNY   source.Source // P2P CNY/asset leg
    KRW   source.Source // KRW/asset leg (P2P primary with spot fallback)
    Bench BenchmarkFeed

    Spread     *spread.Config
    OperatorID int64
    CashPct    float64 // cash-handling surcharge percentage for krw2u

    Log *zap.Logger
}

func (d *Dispatcher) logger() *zap.Logger {
    if d.Log != nil {
        return d.Log
    }
    return zap.NewNop()
}

// Handle runs one request to completion. Every adapter failure arrives here
// as an error wrapping source.ErrUnavailable; nothing else escapes the
// adapter boundary.
func (d *Dispatcher) Handle(ctx context.Context, req Request) (Result, error) {
    switch req.Mode {
    case ModeCNY:
        q, err := d.CNY.Fetch(ctx)
        if err != nil {
            return Result{}, err
        }
        return Result{
            Mode:       req.Mode,
            Price:      rate.FormatFixed(q.Value, 2),
            Currency:   q.Currency,
            Advertiser: q.Advertiser,
        }, nil

    case ModeU2TW, ModeTW2U:
        q, err := d.TWD.Fetch(ctx)
        if err != nil {
            return Result{}, err
        }
        dir := spread.AssetToLocal
        if req.Mode == ModeTW2U {
            dir = spread.LocalToAsset
        }
        return Result{
            Mode:     req.Mode,
            Price:    rate.FormatFixed(d.Spread.Apply(q.Value, dir), 2),
            Currency: q.Currency,
        }, nil

    case ModeTW2CNY:
        twd, cny, err := d.fetchLegs(ctx)
        if err != nil {
            return Result{}, err
        }
        cross, err := rate.Cross(twd.Value, d.Spread.Value(), cny.Value)
        if err != nil {
            return Result{}, fmt.Errorf("%w: %v", source.ErrUnavailable, err)
        }
        return Result{
            Mode:       req.Mode,
            Price:      rate.FormatFixed(cross, 3),
            Currency:   "TWD/CNY",
            Advertiser: cny.Advertiser,
        }, nil

    case ModeKRW2U:
        q, err := d.KRW.Fetch(ctx)
        if err != nil {
            return Result{}, err
        }
        return Result{
            Mode:       req.Mode,
            Price:      rate.FormatFixed(q.Value, 0),
            Currency:   q.Currency,
            Advertiser: q.Advertiser,
            Surcharge:  rate.Surcharge(q.Value, d.CashPct),
        }, nil

    case ModeCost:
        return d.handleCost(ctx, req)

    default:
        return Result{}, fmt.Errorf("%w: %q", ErrUnknownMode, req.Mode)
    }
}

// SetSpread parses and applies a new markup. The config is left untouched
// on any rejection.
func (d *Dispatcher) SetSpread(userID int64, arg string) (float64, error) {
    if userID != d.OperatorID {
        return 0, ErrPermissionDenied
    }
    v, err := strconv.ParseFloat(arg, 64)
    if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
        return 0, fmt.Errorf("%w: spread %q", ErrInvalidInput, arg)
    }
    d.Spread.Set(v)
    d.logger().Info("spread updated", zap.Float64("spread", v))
    return v, nil
}

// handleCost computes the live cross-rate, compares it against the bank
// benchmark mid, and optionally against an explicit operator-supplied
// price. Both comparisons are reported when the argument is present.
func (d *Dispatcher) handleCost(ctx context.Context, req Request) (Result, error) {
    if req.UserID != d.OperatorID {
        return Result{}, ErrPermissionDenied
    }

    var manual float64
    hasManual := req.Arg != ""
    if hasManual {
        v, err := strconv.ParseFloat(req.Arg, 64)
        if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
            return Result{}, fmt.Errorf("%w: comparison price %q", ErrInvalidInput, req.Arg)
        }
        manual = v
    }

    g, gctx := errgroup.WithContext(ctx)
    var (
        twd, cny       source.Quote
        bench          twbank.Benchmark
        twdErr, cnyErr error
        benchErr       error
    )
    g.Go(func() error { twd, twdErr = d.TWD.Fetch(gctx); return nil })
    g.Go(func() error { cny, cnyErr = d.CNY.Fetch(gctx); return nil })
    g.Go(func() error { bench, benchErr = d.Bench.Fetch(gctx); return nil })
    _ = g.Wait()

    if err := classify(twdErr, cnyErr, benchErr); err != nil {
        d.logger().Warn("cost diagnostic failed", zap.Error(err))
        return Result{}, err
    }

    cost, err := rate.Cross(twd.Value, d.Spread.Value(), cny.Value)
    if err != nil {
        return Result{}, fmt.Errorf("%w: %v", source.ErrUnavailable, err)
    }

    res := Result{
        Mode:     req.Mode,
        Price:    rate.FormatFixed(cost, 3),
        Currency: "TWD/CNY",
        Bench:    comparison(rate.Compare(cost, bench.Mid())),
    }
    if hasManual {
        res.Manual = comparison(rate.Compare(cost, manual))
    }
    return res, nil
}

// fetchLegs obtains the two cross-rate legs concurrently. Each adapter
// carries its own timeout, so neither goroutine can outlive the request by
// more than that bound.
func (d *Dispatcher) fetchLegs(ctx context.Context) (twd, cny source.Quote, err error) {
    g, gctx := errgroup.WithContext(ctx)
    var twdErr, cnyErr error
    g.Go(func() error { twd, twdErr = d.TWD.Fetch(gctx); return nil })
    g.Go(func() error { cny, cnyErr = d.CNY.Fetch(gctx); return nil })
    _ = g.Wait()
    if err := classify(twdErr, cnyErr); err != nil {
        d.logger().Warn("cross-rate legs incomplete", zap.Error(err))
        return source.Quote{}, source.Quote{}, err
    }
    return twd, cny, nil
}

// classify folds per-leg errors into the request-level taxonomy: all legs
// down reads as plain unavailability, a strict subset as partial data.
func classify(errs ...error) error {
    var failed []error
    for _, e := range errs {
        if e != nil {
            failed = append(failed, e)
        }
    }
    switch {
    case len(failed) == 0:
        return nil
    case len(failed) == len(errs):
        return failed[0]
    default:
        return fmt.Errorf("%w: %v", ErrPartialData, failed[0])
    }
}

func comparison(m rate.Margin) *Comparison {
    return &Comparison{
        Reference: rate.FormatFixed(m.Reference, 3),
        Cost:      rate.FormatFixed(m.Cost, 3),
        Diff:      rate.FormatFixed(m.Diff, 3),
        Pct:       rate.FormatFixed(m.Pct, 2),
        Premium:   m.Premium,
    }
}
