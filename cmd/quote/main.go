package main

import (
    "context"
    "encoding/json"
    "flag"
    "fmt"
    "os"
    "time"

    "go.uber.org/zap"

    "quotebot/internal/config"
    "quotebot/internal/dispatch"
    "quotebot/internal/httpx"
    "quotebot/internal/source"
    "quotebot/internal/source/binancep2p"
    "quotebot/internal/source/bitopro"
    "quotebot/internal/source/bithumb"
    "quotebot/internal/source/twbank"
    "quotebot/internal/spread"
)

// One-shot CLI: run a single quote mode against live sources and print the
// structured result for inspection.
func main() {
    var mode string
    var arg string
    var sp float64
    var configPath string
    var timeout int

    flag.StringVar(&mode, "mode", "u2tw", "request mode: cny|u2tw|tw2u|tw2cny|krw2u|cost")
    flag.StringVar(&arg, "arg", "", "optional comparison price for cost mode")
    flag.Float64Var(&sp, "spread", 0.4, "spread override")
    flag.StringVar(&configPath, "config", os.Getenv("CONFIG_FILE"), "path to config.json (optional)")
    flag.IntVar(&timeout, "timeout", 20, "overall timeout seconds")
    flag.Parse()

    log := zap.Must(zap.NewDevelopment())
    defer log.Sync()

    cfg, err := config.Load(configPath)
    if err != nil { log.Fatal("config", zap.Error(err)) }
    cfg.Spread.Default = sp

    httpClient := httpx.New(time.Duration(cfg.P2P.TimeoutSec) * time.Second)

    twd := bitopro.New(bitopro.Config{Endpoint: cfg.Bitopro.Endpoint, TimeoutSec: cfg.Bitopro.TimeoutSec}, httpClient)
    cny := binancep2p.New(binancep2p.Config{
        Endpoint:   cfg.P2P.Endpoint,
        Asset:      cfg.P2P.Asset,
        Fiat:       "CNY",
        Rows:       cfg.P2P.Rows,
        TimeoutSec: cfg.P2P.TimeoutSec,
        Band:       binancep2p.Band{Min: cfg.P2P.CNYBand.Min, Max: cfg.P2P.CNYBand.Max},
        PickRank:   cfg.P2P.PickRank,
    }, binancep2p.WithHTTPClient(httpClient.HTTP))
    krw := &source.Fallback{
        Primary: binancep2p.New(binancep2p.Config{
            Endpoint:   cfg.P2P.Endpoint,
            Asset:      cfg.P2P.Asset,
            Fiat:       "KRW",
            Rows:       cfg.P2P.Rows,
            TimeoutSec: cfg.P2P.TimeoutSec,
            Band:       binancep2p.Band{Min: cfg.P2P.KRWBand.Min, Max: cfg.P2P.KRWBand.Max},
            PickRank:   cfg.P2P.PickRank,
        }, binancep2p.WithHTTPClient(httpClient.HTTP)),
        Secondary: bithumb.New(bithumb.Config{Endpoint: cfg.Bithumb.Endpoint, TimeoutSec: cfg.Bithumb.TimeoutSec}, httpClient),
    }

    d := &dispatch.Dispatcher{
        TWD:        twd,
        CNY:        cny,
        KRW:        krw,
        Bench:      twbank.New(twbank.Config{Endpoint: cfg.Benchmark.Endpoint, TimeoutSec: cfg.Benchmark.TimeoutSec}, httpClient),
        Spread:     spread.New(cfg.Spread.Default),
        OperatorID: cfg.Telegram.OperatorID,
        CashPct:    cfg.Quote.CashSurchargePct,
        Log:        log,
    }

    ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeout)*time.Second)
    defer cancel()

    // the CLI always runs as the operator so cost mode is reachable
    res, err := d.Handle(ctx, dispatch.Request{
        Mode:   dispatch.Mode(mode),
        Kind:   dispatch.KindMessage,
        UserID: cfg.Telegram.OperatorID,
        Arg:    arg,
    })
    if err != nil { log.Fatal("quote", zap.Error(err)) }

    b, _ := json.MarshalIndent(res, "", "  ")
    fmt.Println(string(b))
}
