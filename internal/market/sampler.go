package market

import (
	"math"
	"math/rand"
	"time"

	"github.com/houseofai/orderbook-reflex/internal/quote"
)

// Sampler turns a trained Model into a stream of synthetic NBBO ticks. It
// carries the running bid/ask across seconds; one instance per session.
type Sampler struct {
	model    *Model
	rng      *rand.Rand
	tickSize float64
	bid      float64
	ask      float64
}

// NewSampler seeds the sampler with its model, an explicitly owned random
// source, the display price increment, and the opening bid/ask.
func NewSampler(model *Model, rng *rand.Rand, tickSize, bid0, ask0 float64) *Sampler {
	if tickSize <= 0 {
		tickSize = 0.01
	}
	return &Sampler{model: model, rng: rng, tickSize: tickSize, bid: bid0, ask: ask0}
}

// Bid returns the current running best bid.
func (s *Sampler) Bid() float64 { return s.bid }

// Ask returns the current running best ask.
func (s *Sampler) Ask() float64 { return s.ask }

// StepSecond generates every tick for the second at ts and returns them with
// the sign of the last generated change, which the caller feeds back on the
// next call to keep the chain coherent. All ticks share the second-level
// timestamp; sub-second ordering is not modeled.
func (s *Sampler) StepSecond(ts time.Time, regime Regime, sign Sign) ([]quote.Quote, Sign) {
	n := s.model.SampleCount(s.rng, regime)
	ticks := make([]quote.Quote, 0, n)
	for i := 0; i < n; i++ {
		t := s.model.SampleTick(s.rng, regime, sign)

		s.bid += t.Dp
		// The spread never drops below one increment.
		s.ask = math.Max(s.bid+t.Spread, s.bid+s.tickSize)

		ticks = append(ticks, quote.Quote{
			Time:     ts,
			PriceBid: s.round(s.bid),
			PriceAsk: s.round(s.ask),
			SizeBid:  t.Size / 2,
			SizeAsk:  t.Size / 2,
		})

		sign = SignOf(t.Dp)
	}
	return ticks, sign
}

func (s *Sampler) round(px float64) float64 {
	return math.Round(px/s.tickSize) * s.tickSize
}
