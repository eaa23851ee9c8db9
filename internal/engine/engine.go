// Package engine drives the per-second simulation: it steps the tick
// sampler, decomposes the NBBO across venues, and runs pivot detection over
// the resulting mid-price stream.
package engine

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/houseofai/orderbook-reflex/internal/market"
	"github.com/houseofai/orderbook-reflex/internal/metrics"
	"github.com/houseofai/orderbook-reflex/internal/pivot"
	"github.com/houseofai/orderbook-reflex/internal/quote"
	"github.com/houseofai/orderbook-reflex/internal/venue"
)

// Engine owns one simulation session. All methods are driven synchronously
// by a single caller, once per simulated second.
type Engine struct {
	log       zerolog.Logger
	symbol    string
	sampler   *market.Sampler
	allocator *venue.Allocator
	detector  *pivot.Detector
	extractor *market.Extractor

	regime market.Regime
	sign   market.Sign
	last   quote.Quote
	venues []quote.VenueQuote
}

// New wires a session from its pre-built components. The extractor tracks
// the regime of the generated stream itself, so the sampler's conditioning
// evolves with the synthetic prices instead of staying pinned to one regime.
func New(symbol string, sampler *market.Sampler, allocator *venue.Allocator, detector *pivot.Detector, extractor *market.Extractor, log zerolog.Logger) *Engine {
	return &Engine{
		log:       log,
		symbol:    symbol,
		sampler:   sampler,
		allocator: allocator,
		detector:  detector,
		extractor: extractor,
		sign:      market.Flat,
		last: quote.Quote{
			PriceBid: sampler.Bid(),
			PriceAsk: sampler.Ask(),
		},
	}
}

// StepSecond advances the simulation by one second and returns the book for
// that second. A second with no generated ticks carries the last known
// prices forward before re-presenting them to the pivot detector; the
// detector itself never interpolates.
func (e *Engine) StepSecond(ts time.Time) quote.Book {
	ticks, sign := e.sampler.StepSecond(ts, e.regime, e.sign)
	e.sign = sign

	if len(ticks) > 0 {
		e.last = ticks[len(ticks)-1]
		e.venues = e.allocator.Generate(e.last)
		metrics.TicksTotal.WithLabelValues(e.symbol).Add(float64(len(ticks)))

		var regime market.Regime
		for _, tk := range ticks {
			f := e.extractor.Transform(tk)
			regime.Momentum = regime.Momentum || f.Momentum
			regime.Breakout = regime.Breakout || f.Breakout
		}
		e.regime = regime
	} else {
		e.last.Time = ts
	}

	piv := e.detector.Append(e.last.PriceBid, e.last.PriceAsk)
	if piv.Kind != quote.PivotNone {
		metrics.PivotsTotal.WithLabelValues(string(piv.Kind)).Inc()
		e.log.Debug().
			Str("kind", string(piv.Kind)).
			Float64("bid", piv.Bid).
			Float64("ask", piv.Ask).
			Msg("pivot")
	}

	return quote.Book{Time: ts, NBBO: e.last, Venues: e.venues, Pivot: piv}
}

// BestBid returns the current best bid of the synthetic stream.
func (e *Engine) BestBid() float64 { return e.last.PriceBid }

// BestAsk returns the current best ask of the synthetic stream.
func (e *Engine) BestAsk() float64 { return e.last.PriceAsk }

// Run paces StepSecond on a wall-clock second ticker and pushes books onto
// out until the context is canceled.
func (e *Engine) Run(ctx context.Context, out chan<- quote.Book) error {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ts := <-ticker.C:
			book := e.StepSecond(ts.UTC().Truncate(time.Second))
			select {
			case out <- book:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}
