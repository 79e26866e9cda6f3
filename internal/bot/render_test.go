package bot

import (
    "strings"
    "testing"
    "time"

    "quotebot/internal/dispatch"
)

func TestModeForLabel(t *testing.T) {
    cases := map[string]dispatch.Mode{
        labelCNY:    dispatch.ModeCNY,
        labelU2TW:   dispatch.ModeU2TW,
        labelTW2U:   dispatch.ModeTW2U,
        labelTW2CNY: dispatch.ModeTW2CNY,
        labelKRW2U:  dispatch.ModeKRW2U,
    }
    for label, want := range cases {
        got, ok := modeForLabel(label)
        if !ok || got != want {
            t.Fatalf("label %q: want %s, got %s (%v)", label, want, got, ok)
        }
    }
    if _, ok := modeForLabel("hello"); ok {
        t.Fatal("arbitrary text must not map to a mode")
    }
}

func TestModeForCallback(t *testing.T) {
    cases := map[string]dispatch.Mode{
        "switch_cny":    dispatch.ModeCNY,
        "switch_u2tw":   dispatch.ModeU2TW,
        "switch_tw2u":   dispatch.ModeTW2U,
        "switch_tw2cny": dispatch.ModeTW2CNY,
        "switch_krw2u":  dispatch.ModeKRW2U,
    }
    for data, want := range cases {
        got, ok := modeForCallback(data)
        if !ok || got != want {
            t.Fatalf("callback %q: want %s, got %s (%v)", data, want, got, ok)
        }
    }
    if _, ok := modeForCallback("switch_usd"); ok {
        t.Fatal("unknown callback payload must not map to a mode")
    }
}

func TestRenderResult_ContainsFormattedFields(t *testing.T) {
    now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

    out := renderResult(dispatch.Result{Mode: dispatch.ModeTW2U, Price: "31.90"}, now)
    if !strings.Contains(out, "31.90") || !strings.Contains(out, "2026-08-28 12:00:00") {
        t.Fatalf("tw2u render: %s", out)
    }

    out = renderResult(dispatch.Result{Mode: dispatch.ModeCNY, Price: "6.50", Advertiser: "某商家"}, now)
    if !strings.Contains(out, "6.50") || !strings.Contains(out, "某商家") {
        t.Fatalf("cny render: %s", out)
    }

    out = renderResult(dispatch.Result{Mode: dispatch.ModeKRW2U, Price: "1350", Surcharge: "1364"}, now)
    if !strings.Contains(out, "1350") || !strings.Contains(out, "1364") {
        t.Fatalf("krw2u render: %s", out)
    }
}

func TestRenderCost_BothComparisons(t *testing.T) {
    now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
    res := dispatch.Result{
        Mode:  dispatch.ModeCost,
        Price: "4.431",
        Bench: &dispatch.Comparison{Reference: "4.430", Cost: "4.431", Diff: "-0.001", Pct: "-0.02", Premium: false},
        Manual: &dispatch.Comparison{Reference: "4.500", Cost: "4.431", Diff: "0.069", Pct: "1.56", Premium: true},
    }
    out := renderResult(res, now)
    if !strings.Contains(out, "4.431") || !strings.Contains(out, "4.430") || !strings.Contains(out, "4.500") {
        t.Fatalf("cost render missing figures: %s", out)
    }
    if !strings.Contains(out, "溢價") || !strings.Contains(out, "折價") {
        t.Fatalf("cost render missing premium/discount labels: %s", out)
    }
}
