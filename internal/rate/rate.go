package rate

import (
    "errors"

    "github.com/shopspring/decimal"
)

// ErrBadLeg rejects a cross-rate with a non-positive denominator leg.
var ErrBadLeg = errors.New("rate: non-positive leg quote")

// Cross derives the cross-currency rate from two single-currency legs that
// share the same pivot asset: (legA + sp) / legB, where legA is the
// local-currency leg carrying the spread and legB is the foreign leg.
func Cross(legA, sp, legB float64) (float64, error) {
    if legB <= 0 {
        return 0, ErrBadLeg
    }
    v := decimal.NewFromFloat(legA).
        Add(decimal.NewFromFloat(sp)).
        Div(decimal.NewFromFloat(legB))
    f, _ := v.Float64()
    return f, nil
}

// FormatFixed renders v with a fixed number of decimals, rounding half away
// from zero. Presentation precision: 3 for cross-rates, 2 for single-leg
// quotes, 0 for the high-magnitude KRW leg.
func FormatFixed(v float64, places int32) string {
    return decimal.NewFromFloat(v).StringFixed(places)
}

// Surcharge returns base plus a percentage-based cash-handling fee, rounded
// to the nearest integer: round(base * (1 + pct/100)).
func Surcharge(base, pct float64) string {
    return decimal.NewFromFloat(base).
        Mul(decimal.NewFromFloat(1).Add(decimal.NewFromFloat(pct).Div(decimal.NewFromInt(100)))).
        Round(0).String()
}

// Margin is the diagnostic comparison of a computed cost against a
// reference rate. Premium means the reference sits above our cost.
type Margin struct {
    Cost      float64
    Reference float64
    Diff      float64 // Reference - Cost
    Pct       float64 // Diff / Cost * 100
    Premium   bool
}

// Compare computes the margin of reference over cost.
func Compare(cost, reference float64) Margin {
    c := decimal.NewFromFloat(cost)
    diff := decimal.NewFromFloat(reference).Sub(c)
    var pct decimal.Decimal
    if !c.IsZero() {
        pct = diff.Div(c).Mul(decimal.NewFromInt(100))
    }
    df, _ := diff.Float64()
    pf, _ := pct.Float64()
    return Margin{
        Cost:      cost,
        Reference: reference,
        Diff:      df,
        Pct:       pf,
        Premium:   df > 0,
    }
}
