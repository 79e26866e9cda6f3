package main

import (
    "context"
    "errors"
    "os"
    "os/signal"
    "syscall"
    "time"

    tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
    "go.uber.org/zap"

    "quotebot/internal/audit"
    "quotebot/internal/bot"
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

func main() {
    log := newLogger()
    defer log.Sync()

    cfgPath := os.Getenv("CONFIG_FILE")
    cfg, err := config.Load(cfgPath)
    if err != nil { log.Fatal("config", zap.Error(err)) }
    if cfg.Telegram.Token == "" {
        log.Fatal("config: TELEGRAM_TOKEN not set")
    }
    if cfg.Telegram.OperatorID == 0 {
        log.Warn("operator_id not set; /spread and /cost will refuse everyone")
    }
    if cfg.Benchmark.Endpoint == "" {
        log.Warn("benchmark endpoint not set; /cost comparison will be unavailable")
    }

    httpClient := httpx.New(time.Duration(cfg.P2P.TimeoutSec) * time.Second)

    d := buildDispatcher(cfg, httpClient, log)

    var recorder *audit.Recorder
    if cfg.Audit.WebhookURL != "" {
        sink := &audit.Webhook{URL: cfg.Audit.WebhookURL, TimeoutSec: cfg.Audit.TimeoutSec, Client: httpClient}
        recorder = audit.NewRecorder(sink, cfg.Audit.QueueSize, log)
        defer recorder.Close()
    }

    api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
    if err != nil { log.Fatal("telegram", zap.Error(err)) }
    api.Debug = cfg.Telegram.Debug

    b := bot.New(api, d, recorder, bot.Config{
        OperatorID: cfg.Telegram.OperatorID,
        RetryDelay: time.Duration(cfg.Telegram.RetryDelaySec) * time.Second,
    }, log)

    ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
    defer stop()
    if err := b.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
        log.Fatal("bot", zap.Error(err))
    }
    log.Info("shutting down")
}

func buildDispatcher(cfg config.Config, httpClient *httpx.Client, log *zap.Logger) *dispatch.Dispatcher {
    twd := bitopro.New(bitopro.Config{
        Endpoint:   cfg.Bitopro.Endpoint,
        TimeoutSec: cfg.Bitopro.TimeoutSec,
    }, httpClient)

    cny := binancep2p.New(binancep2p.Config{
        Endpoint:   cfg.P2P.Endpoint,
        Asset:      cfg.P2P.Asset,
        Fiat:       "CNY",
        Rows:       cfg.P2P.Rows,
        TimeoutSec: cfg.P2P.TimeoutSec,
        Band:       binancep2p.Band{Min: cfg.P2P.CNYBand.Min, Max: cfg.P2P.CNYBand.Max},
        PickRank:   cfg.P2P.PickRank,
    }, binancep2p.WithHTTPClient(httpClient.HTTP))

    krwPrimary := binancep2p.New(binancep2p.Config{
        Endpoint:   cfg.P2P.Endpoint,
        Asset:      cfg.P2P.Asset,
        Fiat:       "KRW",
        Rows:       cfg.P2P.Rows,
        TimeoutSec: cfg.P2P.TimeoutSec,
        Band:       binancep2p.Band{Min: cfg.P2P.KRWBand.Min, Max: cfg.P2P.KRWBand.Max},
        PickRank:   cfg.P2P.PickRank,
    }, binancep2p.WithHTTPClient(httpClient.HTTP))

    krwFallback := bithumb.New(bithumb.Config{
        Endpoint:   cfg.Bithumb.Endpoint,
        TimeoutSec: cfg.Bithumb.TimeoutSec,
    }, httpClient)

    bench := twbank.New(twbank.Config{
        Endpoint:   cfg.Benchmark.Endpoint,
        TimeoutSec: cfg.Benchmark.TimeoutSec,
    }, httpClient)

    return &dispatch.Dispatcher{
        TWD:        twd,
        CNY:        cny,
        KRW:        &source.Fallback{Primary: krwPrimary, Secondary: krwFallback},
        Bench:      bench,
        Spread:     spread.New(cfg.Spread.Default),
        OperatorID: cfg.Telegram.OperatorID,
        CashPct:    cfg.Quote.CashSurchargePct,
        Log:        log,
    }
}

func newLogger() *zap.Logger {
    if v := os.Getenv("LOG_DEV"); v == "1" || v == "true" {
        return zap.Must(zap.NewDevelopment())
    }
    return zap.Must(zap.NewProduction())
}
