package market

import (
	"testing"
	"time"

	"github.com/houseofai/orderbook-reflex/internal/quote"
)

func q(bid, ask float64, sizeBid, sizeAsk int) quote.Quote {
	return quote.Quote{Time: time.Unix(0, 0), PriceBid: bid, PriceAsk: ask, SizeBid: sizeBid, SizeAsk: sizeAsk}
}

func TestTransformFirstTickFlat(t *testing.T) {
	ex := NewExtractor(0.9, 0.01, 0.01)
	f := ex.Transform(q(100.10, 100.12, 300, 200))
	if f.Dp != 0 {
		t.Fatalf("first dp should be 0, got %f", f.Dp)
	}
	if f.Size != 500 {
		t.Fatalf("expected aggregate size 500, got %d", f.Size)
	}
	if f.Momentum {
		t.Fatalf("momentum should not trigger on the first tick")
	}
}

func TestTransformTracksDelta(t *testing.T) {
	ex := NewExtractor(0.9, 0.01, 0.01)
	ex.Transform(q(100.10, 100.12, 100, 100))
	f := ex.Transform(q(100.15, 100.17, 100, 100))
	if f.Dp < 0.049 || f.Dp > 0.051 {
		t.Fatalf("expected dp near 0.05, got %f", f.Dp)
	}
}

func TestTransformMomentumEWMA(t *testing.T) {
	ex := NewExtractor(0.5, 0.01, 0.01)
	ex.Transform(q(100.10, 100.12, 100, 100))
	// Repeated five-cent jumps push EWMA(|dp|) well past one cent.
	var f Features
	px := 100.10
	for i := 0; i < 5; i++ {
		px += 0.05
		f = ex.Transform(q(px, px+0.02, 100, 100))
	}
	if !f.Momentum {
		t.Fatalf("expected momentum after sustained moves")
	}
}

func TestTransformBreakoutLevels(t *testing.T) {
	cases := []struct {
		bid, ask float64
		want     bool
	}{
		{99.99, 100.01, true},   // mid 100.00, round dollar
		{100.49, 100.51, true},  // mid 100.50, half dollar
		{100.495, 100.515, true}, // mid 100.505, within a cent of 100.50
		{100.24, 100.26, false}, // mid 100.25, between levels
		{100.10, 100.12, false}, // mid 100.11
	}
	for _, tc := range cases {
		ex := NewExtractor(0.9, 0.01, 0.01)
		f := ex.Transform(q(tc.bid, tc.ask, 100, 100))
		if f.Breakout != tc.want {
			t.Fatalf("mid %.3f: breakout=%v, want %v", (tc.bid+tc.ask)/2, f.Breakout, tc.want)
		}
	}
}
