package spread

import "sync"

// Direction tells whether the markup applies to a quote.
type Direction int

const (
    // AssetToLocal quotes the traded asset sold for local currency; the
    // spread never applies here.
    AssetToLocal Direction = iota
    // LocalToAsset quotes local currency buying the traded asset; this is
    // the revenue direction and carries the spread.
    LocalToAsset
)

// Config holds the single operator-adjustable markup. It is a guarded cell
// rather than a package global so concurrent quote computations always see
// either the old or the new value, whatever the caller's scheduling model.
// The value reverts to the compiled-in default on restart; there is no
// durable storage of operator overrides.
type Config struct {
    mu    sync.RWMutex
    value float64
}

func New(def float64) *Config {
    return &Config{value: def}
}

// Set stores a new markup. Any finite value is accepted, including zero
// and negatives; bounds are the operator's problem.
func (c *Config) Set(v float64) {
    c.mu.Lock()
    c.value = v
    c.mu.Unlock()
}

func (c *Config) Value() float64 {
    c.mu.RLock()
    defer c.mu.RUnlock()
    return c.value
}

// Apply adds the markup to base for the LocalToAsset direction and returns
// base unchanged otherwise.
func (c *Config) Apply(base float64, d Direction) float64 {
    if d == LocalToAsset {
        return base + c.Value()
    }
    return base
}
