package binancep2p

import (
    "bytes"
    "context"
    "encoding/json"
    "fmt"
    "io"
    "net/http"
    "strconv"
    "time"

    "quotebot/internal/source"
)

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=binancep2p_test -destination=mock_http_client_test.go -source=binancep2p.go HTTPClient
type HTTPClient interface {
    Do(req *http.Request) (*http.Response, error)
}

// Band is the plausibility range for P2P offer prices, inclusive on both
// ends. Offers outside the band are stale or manipulated listings and are
// never considered. The bounds are operator-tuned per fiat.
type Band struct {
    Min float64
    Max float64
}

func (b Band) contains(v float64) bool { return v >= b.Min && v <= b.Max }

type Config struct {
    Name       string
    Endpoint   string
    Asset      string // traded asset, default USDT
    Fiat       string // target fiat, e.g. CNY or KRW
    Rows       int    // adverts requested per search, default 10
    TimeoutSec int    // default 10; search endpoints are slower than tickers
    Band       Band
    // PickRank is the zero-based rank of the preferred eligible offer;
    // zero quotes the top of book, a negative value selects the standard
    // rank of 2 (skip the loss-leaders, quote the third eligible advert).
    // Falls back to the first eligible offer when fewer remain.
    PickRank int
}

// Market searches the Binance C2C advert book and quotes one
// representative offer per call.
type Market struct {
    cfg        Config
    httpClient HTTPClient
    header     http.Header
}

type Option func(*Market)

// WithHTTPClient sets the HTTP client used for the search request.
func WithHTTPClient(hc HTTPClient) Option {
    return func(m *Market) { m.httpClient = hc }
}

// WithHeader adds headers to be sent with each search request.
func WithHeader(header http.Header) Option {
    return func(m *Market) {
        for key, values := range header {
            for _, value := range values {
                m.header.Add(key, value)
            }
        }
    }
}

func New(cfg Config, options ...Option) *Market {
    if cfg.Name == "" { cfg.Name = "BinanceP2P" }
    if cfg.Endpoint == "" { cfg.Endpoint = "https://p2p.binance.com/bapi/c2c/v2/friendly/c2c/adv/search" }
    if cfg.Asset == "" { cfg.Asset = "USDT" }
    if cfg.Rows <= 0 { cfg.Rows = 10 }
    if cfg.TimeoutSec <= 0 { cfg.TimeoutSec = 10 }
    if cfg.PickRank < 0 { cfg.PickRank = 2 }
    m := &Market{cfg: cfg, httpClient: http.DefaultClient, header: http.Header{}}
    m.header.Set("User-Agent", "Mozilla/5.0")
    for _, option := range options {
        option(m)
    }
    return m
}

func (m *Market) Name() string { return fmt.Sprintf("%s:%s", m.cfg.Name, m.cfg.Fiat) }

func (m *Market) Fetch(ctx context.Context) (source.Quote, error) {
    ctx, cancel := context.WithTimeout(ctx, time.Duration(m.cfg.TimeoutSec)*time.Second)
    defer cancel()

    offers, err := m.search(ctx)
    if err != nil {
        return source.Quote{}, fmt.Errorf("%w: binancep2p %s: %v", source.ErrUnavailable, m.cfg.Fiat, err)
    }
    picked, ok := Pick(offers, m.cfg.Band, m.cfg.PickRank)
    if !ok {
        return source.Quote{}, fmt.Errorf("%w: binancep2p %s: no eligible offers", source.ErrUnavailable, m.cfg.Fiat)
    }
    return source.Quote{
        Value:      picked.Price,
        Currency:   m.cfg.Fiat,
        Source:     m.Name(),
        Advertiser: picked.Advertiser,
        FetchedAt:  time.Now().UTC(),
    }, nil
}

// Offer is one advert from the ranked search result.
type Offer struct {
    Price      float64
    Advertiser string
}

// Pick applies the selection policy: drop offers outside band, then prefer
// the eligible offer at zero-based rank, falling back to the first eligible
// one when fewer than rank+1 remain. ok is false when nothing is eligible.
func Pick(offers []Offer, band Band, rank int) (Offer, bool) {
    eligible := make([]Offer, 0, len(offers))
    for _, o := range offers {
        if band.contains(o.Price) {
            eligible = append(eligible, o)
        }
    }
    if len(eligible) == 0 {
        return Offer{}, false
    }
    if len(eligible) > rank {
        return eligible[rank], true
    }
    return eligible[0], true
}

func (m *Market) search(ctx context.Context) ([]Offer, error) {
    payload := map[string]any{
        "asset":         m.cfg.Asset,
        "fiat":          m.cfg.Fiat,
        "merchantCheck": false,
        "page":          1,
        "payTypes":      []string{},
        "publisherType": nil,
        "rows":          m.cfg.Rows,
        "tradeType":     "BUY",
    }
    body, _ := json.Marshal(payload)
    req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.Endpoint, bytes.NewReader(body))
    if err != nil { return nil, err }
    req.Header = m.header.Clone()
    req.Header.Set("Content-Type", "application/json")

    resp, err := m.httpClient.Do(req)
    if err != nil { return nil, err }
    defer resp.Body.Close()
    if resp.StatusCode < 200 || resp.StatusCode >= 300 {
        b, _ := io.ReadAll(io.LimitReader(resp.Body, 2<<10))
        return nil, fmt.Errorf("POST %s -> %d: %s", m.cfg.Endpoint, resp.StatusCode, string(b))
    }
    var api apiResponse
    dec := json.NewDecoder(resp.Body)
    if err := dec.Decode(&api); err != nil { return nil, fmt.Errorf("decode: %w", err) }

    out := make([]Offer, 0, len(api.Data))
    for _, ad := range api.Data {
        v, err := strconv.ParseFloat(ad.Adv.Price, 64)
        if err != nil || v <= 0 {
            continue
        }
        out = append(out, Offer{Price: v, Advertiser: ad.Advertiser.NickName})
    }
    return out, nil
}

type apiResponse struct {
    Data []advert `json:"data"`
}

type advert struct {
    Adv struct {
        Price string `json:"price"`
    } `json:"adv"`
    Advertiser struct {
        NickName string `json:"nickName"`
    } `json:"advertiser"`
}
