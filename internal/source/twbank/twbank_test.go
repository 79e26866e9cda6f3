package twbank

import (
    "context"
    "errors"
    "net/http"
    "net/http/httptest"
    "testing"
    "time"

    "quotebot/internal/httpx"
    "quotebot/internal/source"
)

func newFeed(t *testing.T, handler http.HandlerFunc) *Feed {
    t.Helper()
    srv := httptest.NewServer(handler)
    t.Cleanup(srv.Close)
    return New(Config{Endpoint: srv.URL}, httpx.New(2*time.Second))
}

func TestFetch_BuySellMid(t *testing.T) {
    f := newFeed(t, func(w http.ResponseWriter, r *http.Request) {
        w.Write([]byte(`{"buy":4.39,"sell":4.47}`))
    })
    b, err := f.Fetch(context.Background())
    if err != nil { t.Fatalf("fetch: %v", err) }
    if b.Buy != 4.39 || b.Sell != 4.47 {
        t.Fatalf("unexpected benchmark: %+v", b)
    }
    if b.Mid() != 4.43 {
        t.Fatalf("mid: want 4.43, got %v", b.Mid())
    }
}

func TestFetch_BadRates(t *testing.T) {
    f := newFeed(t, func(w http.ResponseWriter, r *http.Request) {
        w.Write([]byte(`{"buy":0,"sell":4.47}`))
    })
    if _, err := f.Fetch(context.Background()); !errors.Is(err, source.ErrUnavailable) {
        t.Fatalf("want ErrUnavailable, got %v", err)
    }
}

func TestFetch_MissingEndpoint(t *testing.T) {
    f := New(Config{}, httpx.New(time.Second))
    if _, err := f.Fetch(context.Background()); !errors.Is(err, source.ErrUnavailable) {
        t.Fatalf("want ErrUnavailable, got %v", err)
    }
}
