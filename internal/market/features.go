package market

import (
	"math"

	"github.com/houseofai/orderbook-reflex/internal/quote"
)

// Features is the per-tick signal bundle consumed by the learner.
type Features struct {
	Dp       float64
	Spread   float64
	Size     int
	Momentum bool
	Breakout bool
}

// Extractor converts raw quotes into Features. It is stateful: momentum needs
// the previous mid-price, so Transform must be called in chronological order
// and one instance must not be shared across concurrent callers.
type Extractor struct {
	alpha        float64
	momentumThr  float64
	breakoutTol  float64
	prevMid      float64
	havePrev     bool
	ewmaAbsDp    float64
}

// NewExtractor builds an extractor; non-positive arguments fall back to the
// defaults (alpha 0.9, momentum threshold one cent, breakout tolerance one
// cent).
func NewExtractor(alpha, momentumThreshold, breakoutTolerance float64) *Extractor {
	if alpha <= 0 || alpha >= 1 {
		alpha = 0.9
	}
	if momentumThreshold <= 0 {
		momentumThreshold = 0.01
	}
	if breakoutTolerance <= 0 {
		breakoutTolerance = 0.01
	}
	return &Extractor{
		alpha:       alpha,
		momentumThr: momentumThreshold,
		breakoutTol: breakoutTolerance,
	}
}

// Transform converts one quote into Features. The first call yields Dp = 0.
func (e *Extractor) Transform(q quote.Quote) Features {
	mid := q.Mid()
	spread := q.PriceAsk - q.PriceBid

	dp := 0.0
	if e.havePrev {
		dp = mid - e.prevMid
	}
	e.prevMid = mid
	e.havePrev = true

	e.ewmaAbsDp = e.alpha*e.ewmaAbsDp + (1-e.alpha)*math.Abs(dp)

	// Round-dollar and half-dollar levels act as magnets; flag the mid when
	// it sits within the tolerance of one.
	nearestLevel := math.Round(mid*2) / 2
	breakout := math.Abs(mid-nearestLevel) < e.breakoutTol

	return Features{
		Dp:       dp,
		Spread:   spread,
		Size:     q.SizeBid + q.SizeAsk,
		Momentum: e.ewmaAbsDp > e.momentumThr,
		Breakout: breakout,
	}
}
