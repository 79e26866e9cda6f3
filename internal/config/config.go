package config

import (
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "strings"
)

type Telegram struct {
    Token         string `json:"token"`
    OperatorID    int64  `json:"operator_id"`
    RetryDelaySec int    `json:"retry_delay_sec"`
    Debug         bool   `json:"debug"`
}

type Spread struct {
    Default float64 `json:"default"`
}

type Band struct {
    Min float64 `json:"min"`
    Max float64 `json:"max"`
}

type Bitopro struct {
    Endpoint   string `json:"endpoint"`
    TimeoutSec int    `json:"timeout_sec"`
}

type P2P struct {
    Endpoint   string `json:"endpoint"`
    Asset      string `json:"asset"`
    Rows       int    `json:"rows"`
    TimeoutSec int    `json:"timeout_sec"`
    PickRank   int    `json:"pick_rank"`
    CNYBand    Band   `json:"cny_band"`
    KRWBand    Band   `json:"krw_band"`
}

type Bithumb struct {
    Endpoint   string `json:"endpoint"`
    TimeoutSec int    `json:"timeout_sec"`
}

type Benchmark struct {
    Endpoint   string `json:"endpoint"`
    TimeoutSec int    `json:"timeout_sec"`
}

type Audit struct {
    WebhookURL string `json:"webhook_url"`
    QueueSize  int    `json:"queue_size"`
    TimeoutSec int    `json:"timeout_sec"`
}

type Quote struct {
    CashSurchargePct float64 `json:"cash_surcharge_pct"`
}

type Config struct {
    Telegram  Telegram  `json:"telegram"`
    Spread    Spread    `json:"spread"`
    Bitopro   Bitopro   `json:"bitopro"`
    P2P       P2P       `json:"p2p"`
    Bithumb   Bithumb   `json:"bithumb"`
    Benchmark Benchmark `json:"benchmark"`
    Audit     Audit     `json:"audit"`
    Quote     Quote     `json:"quote"`
}

func Default() Config {
    return Config{
        Telegram: Telegram{RetryDelaySec: 5},
        Spread:   Spread{Default: 0.4},
        Bitopro: Bitopro{
            Endpoint:   "https://api.bitopro.com/v3/tickers/usdt_twd",
            TimeoutSec: 5,
        },
        P2P: P2P{
            Endpoint:   "https://p2p.binance.com/bapi/c2c/v2/friendly/c2c/adv/search",
            Asset:      "USDT",
            Rows:       10,
            TimeoutSec: 10,
            PickRank:   2,
            // manually tuned plausibility bands; see cny/krw P2P listings
            CNYBand: Band{Min: 6.0, Max: 9.0},
            KRWBand: Band{Min: 1200, Max: 1600},
        },
        Bithumb: Bithumb{
            Endpoint:   "https://api.bithumb.com/public/ticker/USDT_KRW",
            TimeoutSec: 5,
        },
        Benchmark: Benchmark{TimeoutSec: 5},
        Audit:     Audit{QueueSize: 64, TimeoutSec: 5},
        Quote:     Quote{CashSurchargePct: 1.0},
    }
}

// Load reads JSON config from path. If path is empty or file does not exist,
// it returns defaults. Environment variables override select fields for secrecy.
func Load(path string) (Config, error) {
    cfg := Default()
    if path == "" {
        if _, err := os.Stat("config.json"); err == nil {
            path = "config.json"
        }
    }
    if path != "" {
        b, err := os.ReadFile(path)
        if err != nil && !errors.Is(err, os.ErrNotExist) {
            return cfg, fmt.Errorf("read config: %w", err)
        }
        if err == nil {
            if err := json.Unmarshal(b, &cfg); err != nil {
                return cfg, fmt.Errorf("parse config: %w", err)
            }
        }
    }
    applyEnv(&cfg)
    return cfg, nil
}

func applyEnv(cfg *Config) {
    if v := os.Getenv("TELEGRAM_TOKEN"); v != "" { cfg.Telegram.Token = v }
    if v := os.Getenv("OPERATOR_ID"); v != "" {
        var x int64; fmt.Sscanf(v, "%d", &x); if x != 0 { cfg.Telegram.OperatorID = x }
    }
    if v := os.Getenv("TELEGRAM_RETRY_DELAY_SEC"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.Telegram.RetryDelaySec = x }
    }
    if v := os.Getenv("TELEGRAM_DEBUG"); v != "" {
        switch strings.ToLower(v) {
        case "1","true","yes","y": cfg.Telegram.Debug = true
        case "0","false","no","n": cfg.Telegram.Debug = false
        }
    }
    if v := os.Getenv("SPREAD_DEFAULT"); v != "" {
        var x float64; fmt.Sscanf(v, "%g", &x); cfg.Spread.Default = x
    }
    if v := os.Getenv("BITOPRO_ENDPOINT"); v != "" { cfg.Bitopro.Endpoint = v }
    if v := os.Getenv("BITOPRO_TIMEOUT_SEC"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.Bitopro.TimeoutSec = x }
    }
    if v := os.Getenv("P2P_ENDPOINT"); v != "" { cfg.P2P.Endpoint = v }
    if v := os.Getenv("P2P_ROWS"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.P2P.Rows = x }
    }
    if v := os.Getenv("P2P_TIMEOUT_SEC"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.P2P.TimeoutSec = x }
    }
    if v := os.Getenv("P2P_PICK_RANK"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x >= 0 { cfg.P2P.PickRank = x }
    }
    if v := os.Getenv("BITHUMB_ENDPOINT"); v != "" { cfg.Bithumb.Endpoint = v }
    if v := os.Getenv("BITHUMB_TIMEOUT_SEC"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.Bithumb.TimeoutSec = x }
    }
    if v := os.Getenv("BENCHMARK_ENDPOINT"); v != "" { cfg.Benchmark.Endpoint = v }
    if v := os.Getenv("BENCHMARK_TIMEOUT_SEC"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.Benchmark.TimeoutSec = x }
    }
    if v := os.Getenv("AUDIT_WEBHOOK_URL"); v != "" { cfg.Audit.WebhookURL = v }
    if v := os.Getenv("AUDIT_QUEUE_SIZE"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.Audit.QueueSize = x }
    }
    if v := os.Getenv("CASH_SURCHARGE_PCT"); v != "" {
        var x float64; fmt.Sscanf(v, "%g", &x); if x >= 0 { cfg.Quote.CashSurchargePct = x }
    }
}
