package dispatch

import (
    "context"
    "errors"
    "fmt"
    "testing"

    "quotebot/internal/source"
    "quotebot/internal/source/twbank"
    "quotebot/internal/spread"
)

const operatorID int64 = 42

type fakeSource struct {
    name  string
    quote source.Quote
    err   error
}

func (f fakeSource) Name() string { return f.name }
func (f fakeSource) Fetch(ctx context.Context) (source.Quote, error) {
    return f.quote, f.err
}

type fakeBench struct {
    bench twbank.Benchmark
    err   error
}

func (f fakeBench) Fetch(ctx context.Context) (twbank.Benchmark, error) {
    return f.bench, f.err
}

func unavailable(name string) error {
    return fmt.Errorf("%w: %s down", source.ErrUnavailable, name)
}

func newDispatcher() *Dispatcher {
    return &Dispatcher{
        TWD:        fakeSource{name: "twd", quote: source.Quote{Value: 31.5, Currency: "TWD", Source: "BitoPro"}},
        CNY:        fakeSource{name: "cny", quote: source.Quote{Value: 7.2, Currency: "CNY", Source: "BinanceP2P:CNY", Advertiser: "米果"}},
        KRW:        fakeSource{name: "krw", quote: source.Quote{Value: 1350, Currency: "KRW", Source: "BinanceP2P:KRW"}},
        Bench:      fakeBench{bench: twbank.Benchmark{Buy: 4.39, Sell: 4.47}},
        Spread:     spread.New(0.4),
        OperatorID: operatorID,
        CashPct:    1.0,
    }
}

func TestHandle_TW2U_SpreadApplied(t *testing.T) {
    d := newDispatcher()
    res, err := d.Handle(context.Background(), Request{Mode: ModeTW2U, UserID: 1})
    if err != nil { t.Fatalf("handle: %v", err) }
    if res.Price != "31.90" {
        t.Fatalf("tw2u: want 31.90, got %s", res.Price)
    }
}

func TestHandle_U2TW_NoSpread(t *testing.T) {
    d := newDispatcher()
    res, err := d.Handle(context.Background(), Request{Mode: ModeU2TW, UserID: 1})
    if err != nil { t.Fatalf("handle: %v", err) }
    if res.Price != "31.50" {
        t.Fatalf("u2tw: want 31.50, got %s", res.Price)
    }
}

func TestHandle_CNY_QuotesAdvertiser(t *testing.T) {
    d := newDispatcher()
    res, err := d.Handle(context.Background(), Request{Mode: ModeCNY, UserID: 1})
    if err != nil { t.Fatalf("handle: %v", err) }
    if res.Price != "7.20" || res.Advertiser != "米果" {
        t.Fatalf("cny: unexpected result %+v", res)
    }
}

func TestHandle_TW2CNY_CrossRate(t *testing.T) {
    d := newDispatcher()
    res, err := d.Handle(context.Background(), Request{Mode: ModeTW2CNY, UserID: 1})
    if err != nil { t.Fatalf("handle: %v", err) }
    // (31.5 + 0.4) / 7.2 = 4.431
    if res.Price != "4.431" {
        t.Fatalf("tw2cny: want 4.431, got %s", res.Price)
    }
}

func TestHandle_KRW2U_SurchargeField(t *testing.T) {
    d := newDispatcher()
    res, err := d.Handle(context.Background(), Request{Mode: ModeKRW2U, UserID: 1})
    if err != nil { t.Fatalf("handle: %v", err) }
    if res.Price != "1350" || res.Surcharge != "1364" {
        t.Fatalf("krw2u: want 1350/1364, got %s/%s", res.Price, res.Surcharge)
    }
}

func TestHandle_UnknownMode_NeverFetches(t *testing.T) {
    d := newDispatcher()
    d.TWD = fakeSource{name: "twd", err: errors.New("must not be called")}
    _, err := d.Handle(context.Background(), Request{Mode: Mode("bogus"), UserID: 1})
    if !errors.Is(err, ErrUnknownMode) {
        t.Fatalf("want ErrUnknownMode, got %v", err)
    }
}

func TestHandle_ModeIsCaseSensitive(t *testing.T) {
    d := newDispatcher()
    if _, err := d.Handle(context.Background(), Request{Mode: Mode("TW2U"), UserID: 1}); !errors.Is(err, ErrUnknownMode) {
        t.Fatalf("upper-cased mode must be rejected, got %v", err)
    }
}

func TestHandle_SingleLegUnavailable(t *testing.T) {
    d := newDispatcher()
    d.TWD = fakeSource{name: "twd", err: unavailable("bitopro")}
    _, err := d.Handle(context.Background(), Request{Mode: ModeTW2U, UserID: 1})
    if !errors.Is(err, source.ErrUnavailable) {
        t.Fatalf("want ErrUnavailable, got %v", err)
    }
}

func TestHandle_TW2CNY_OneLegDown_IsPartial(t *testing.T) {
    d := newDispatcher()
    d.CNY = fakeSource{name: "cny", err: unavailable("binancep2p")}
    _, err := d.Handle(context.Background(), Request{Mode: ModeTW2CNY, UserID: 1})
    if !errors.Is(err, ErrPartialData) {
        t.Fatalf("want ErrPartialData, got %v", err)
    }
}

func TestHandle_TW2CNY_BothLegsDown_IsUnavailable(t *testing.T) {
    d := newDispatcher()
    d.TWD = fakeSource{name: "twd", err: unavailable("bitopro")}
    d.CNY = fakeSource{name: "cny", err: unavailable("binancep2p")}
    _, err := d.Handle(context.Background(), Request{Mode: ModeTW2CNY, UserID: 1})
    if !errors.Is(err, source.ErrUnavailable) {
        t.Fatalf("want plain ErrUnavailable, got %v", err)
    }
    if errors.Is(err, ErrPartialData) {
        t.Fatalf("both legs down must not read as partial: %v", err)
    }
}

func TestHandle_Cost_OperatorOnly(t *testing.T) {
    d := newDispatcher()
    _, err := d.Handle(context.Background(), Request{Mode: ModeCost, UserID: 7})
    if !errors.Is(err, ErrPermissionDenied) {
        t.Fatalf("want ErrPermissionDenied, got %v", err)
    }
}

func TestHandle_Cost_BenchComparison(t *testing.T) {
    d := newDispatcher()
    res, err := d.Handle(context.Background(), Request{Mode: ModeCost, UserID: operatorID})
    if err != nil { t.Fatalf("handle: %v", err) }
    if res.Price != "4.431" { t.Fatalf("cost: want 4.431, got %s", res.Price) }
    if res.Bench == nil { t.Fatal("bench comparison missing") }
    // mid = (4.39+4.47)/2 = 4.43 < 4.431 -> discount
    if res.Bench.Premium { t.Fatalf("want discount, got premium: %+v", res.Bench) }
    if res.Manual != nil { t.Fatalf("no manual comparison requested: %+v", res.Manual) }
}

func TestHandle_Cost_ManualComparisonReportsBoth(t *testing.T) {
    d := newDispatcher()
    res, err := d.Handle(context.Background(), Request{Mode: ModeCost, UserID: operatorID, Arg: "4.5"})
    if err != nil { t.Fatalf("handle: %v", err) }
    if res.Bench == nil || res.Manual == nil {
        t.Fatalf("want both comparisons, got %+v", res)
    }
    // 4.5 > 4.431 -> premium
    if !res.Manual.Premium { t.Fatalf("manual: want premium, got %+v", res.Manual) }
    if res.Manual.Reference != "4.500" { t.Fatalf("manual reference: %+v", res.Manual) }
}

func TestHandle_Cost_InvalidArg(t *testing.T) {
    d := newDispatcher()
    _, err := d.Handle(context.Background(), Request{Mode: ModeCost, UserID: operatorID, Arg: "abc"})
    if !errors.Is(err, ErrInvalidInput) {
        t.Fatalf("want ErrInvalidInput, got %v", err)
    }
}

func TestHandle_Cost_BenchDown_IsPartial(t *testing.T) {
    d := newDispatcher()
    d.Bench = fakeBench{err: unavailable("twbank")}
    _, err := d.Handle(context.Background(), Request{Mode: ModeCost, UserID: operatorID})
    if !errors.Is(err, ErrPartialData) {
        t.Fatalf("want ErrPartialData, got %v", err)
    }
}

func TestSetSpread_OperatorOnly(t *testing.T) {
    d := newDispatcher()
    if _, err := d.SetSpread(7, "1.0"); !errors.Is(err, ErrPermissionDenied) {
        t.Fatalf("want ErrPermissionDenied, got %v", err)
    }
    if d.Spread.Value() != 0.4 {
        t.Fatalf("spread must be untouched, got %v", d.Spread.Value())
    }
}

func TestSetSpread_InvalidInputLeavesValue(t *testing.T) {
    d := newDispatcher()
    for _, arg := range []string{"abc", "", "NaN", "+Inf"} {
        if _, err := d.SetSpread(operatorID, arg); !errors.Is(err, ErrInvalidInput) {
            t.Fatalf("arg %q: want ErrInvalidInput, got %v", arg, err)
        }
    }
    if d.Spread.Value() != 0.4 {
        t.Fatalf("spread must be untouched, got %v", d.Spread.Value())
    }
}

func TestSetSpread_UpdatesQuotePath(t *testing.T) {
    d := newDispatcher()
    v, err := d.SetSpread(operatorID, "1.2")
    if err != nil { t.Fatalf("set: %v", err) }
    if v != 1.2 { t.Fatalf("want 1.2, got %v", v) }

    res, err := d.Handle(context.Background(), Request{Mode: ModeTW2U, UserID: 1})
    if err != nil { t.Fatalf("handle: %v", err) }
    if res.Price != "32.70" { t.Fatalf("tw2u after set: want 32.70, got %s", res.Price) }

    // no-spread direction must not move
    res, err = d.Handle(context.Background(), Request{Mode: ModeU2TW, UserID: 1})
    if err != nil { t.Fatalf("handle: %v", err) }
    if res.Price != "31.50" { t.Fatalf("u2tw after set: want 31.50, got %s", res.Price) }
}
