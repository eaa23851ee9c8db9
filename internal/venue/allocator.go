// Package venue expands top-of-book ticks into a consistent multi-venue
// Level-1 book.
package venue

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/rs/zerolog"

	"github.com/houseofai/orderbook-reflex/internal/metrics"
	"github.com/houseofai/orderbook-reflex/internal/quote"
)

// DefaultShares is the stock venue market-share table used when the config
// does not provide one.
var DefaultShares = map[string]float64{
	"NSDQ": 0.30,
	"ARCA": 0.18,
	"NYSE": 0.12,
	"BATS": 0.10,
	"EDGX": 0.07,
	"BATY": 0.06,
	"IEXG": 0.05,
	"EDGA": 0.03,
	"AMEX": 0.03,
	"MEMX": 0.03,
	"PHLX": 0.01,
	"MIAX": 0.01,
	"LTSE": 0.01,
	"BOSX": 0.00, // marginal volume, kept for variety
}

// DefaultOffsets is the default tick-offset distribution per venue per side.
var DefaultOffsets = map[int]float64{0: 0.35, 1: 0.30, -1: 0.20, 2: 0.10, -2: 0.05}

// Config carries the injectable allocator parameters.
type Config struct {
	Shares   map[string]float64
	Offsets  map[int]float64
	LotSize  int
	TickSize float64
	Seed     int64
}

// Allocator splits NBBO sizes across venues. Not safe for concurrent use:
// it owns a single seeded random source.
type Allocator struct {
	venues   []string
	weights  []float64
	offsets  []int
	offsetCP []float64 // cumulative probabilities aligned with offsets
	lot      int
	tickSize float64
	rng      *rand.Rand
	log      zerolog.Logger
}

// NewAllocator validates the share and offset tables and builds an
// allocator. A non-positive total market share is a fatal configuration
// error, never silently normalized away.
func NewAllocator(cfg Config, log zerolog.Logger) (*Allocator, error) {
	shares := cfg.Shares
	if len(shares) == 0 {
		shares = DefaultShares
	}
	offsets := cfg.Offsets
	if len(offsets) == 0 {
		offsets = DefaultOffsets
	}
	lot := cfg.LotSize
	if lot <= 0 {
		lot = 100
	}
	tickSize := cfg.TickSize
	if tickSize <= 0 {
		tickSize = 0.01
	}

	var totalShare float64
	for venue, share := range shares {
		if share < 0 {
			return nil, fmt.Errorf("venue %s: negative market share %f", venue, share)
		}
		totalShare += share
	}
	if totalShare <= 0 {
		return nil, fmt.Errorf("sum of market shares must be > 0")
	}

	a := &Allocator{
		lot:      lot,
		tickSize: tickSize,
		rng:      rand.New(rand.NewSource(cfg.Seed)),
		log:      log,
	}

	// Sorted venue order so a fixed seed reproduces the same books.
	for venue := range shares {
		a.venues = append(a.venues, venue)
	}
	sort.Strings(a.venues)
	for _, venue := range a.venues {
		a.weights = append(a.weights, shares[venue]/totalShare)
	}

	var offsetMass float64
	for off, p := range offsets {
		if p < 0 {
			return nil, fmt.Errorf("offset %d: negative probability %f", off, p)
		}
		offsetMass += p
		a.offsets = append(a.offsets, off)
	}
	if offsetMass <= 0 {
		return nil, fmt.Errorf("offset distribution must have positive mass")
	}
	sort.Ints(a.offsets)
	cum := 0.0
	for _, off := range a.offsets {
		cum += offsets[off] / offsetMass
		a.offsetCP = append(a.offsetCP, cum)
	}
	return a, nil
}

// Generate produces one VenueQuote per active venue for the given NBBO tick.
// Per side, venue sizes sum exactly to the tick's side size and every
// allocation is a positive lot multiple (sub-lot remainders ride on the
// largest allocation).
func (a *Allocator) Generate(tick quote.Quote) []quote.VenueQuote {
	n := a.pickCount(min(tick.SizeBid, tick.SizeAsk))
	picked := a.pickVenues(n)
	n = len(picked)

	bidSizes := a.split(tick.SizeBid, n, "bid")
	askSizes := a.split(tick.SizeAsk, n, "ask")

	bidOff := a.drawOffsets(n)
	askOff := a.drawOffsets(n)

	if n > 1 {
		a.ensureInsideVolume(bidSizes, bidOff, "bid")
		a.ensureInsideVolume(askSizes, askOff, "ask")
	}

	quotes := make([]quote.VenueQuote, 0, n)
	for i, venue := range picked {
		quotes = append(quotes, quote.VenueQuote{
			Time:     tick.Time,
			Venue:    venue,
			PriceBid: a.round(tick.PriceBid + float64(bidOff[i])*a.tickSize),
			SizeBid:  bidSizes[i],
			PriceAsk: a.round(tick.PriceAsk + float64(askOff[i])*a.tickSize),
			SizeAsk:  askSizes[i],
		})
		metrics.VenueQuotesTotal.WithLabelValues(venue).Inc()
	}
	return quotes
}

// pickCount chooses how many venues quote this second: uniform on
// [3, min(7, lots-of-the-thinner-side)], degrading to a single venue when
// fewer than three lots are available.
func (a *Allocator) pickCount(minSideSize int) int {
	maxN := min(7, minSideSize/a.lot)
	maxN = min(maxN, a.positiveWeightCount())
	if maxN < 3 {
		return 1
	}
	return 3 + a.rng.Intn(maxN-2)
}

func (a *Allocator) positiveWeightCount() int {
	count := 0
	for _, w := range a.weights {
		if w > 0 {
			count++
		}
	}
	return count
}

// pickVenues selects n distinct venues without replacement, weighted by
// market share.
func (a *Allocator) pickVenues(n int) []string {
	remainingW := make([]float64, len(a.weights))
	copy(remainingW, a.weights)
	total := 0.0
	for _, w := range remainingW {
		total += w
	}

	picked := make([]string, 0, n)
	for len(picked) < n && total > 0 {
		target := a.rng.Float64() * total
		idx := -1
		for i, w := range remainingW {
			if w <= 0 {
				continue
			}
			target -= w
			if target < 0 {
				idx = i
				break
			}
		}
		if idx < 0 {
			break
		}
		picked = append(picked, a.venues[idx])
		total -= remainingW[idx]
		remainingW[idx] = 0
	}
	return picked
}

// split partitions total into n strictly positive lot-quantized allocations
// summing exactly to total. A symmetric Dirichlet draw sets the proportions;
// floor-quantization drift is reconciled by shaving the largest allocation
// (surplus) or topping up random allocations (deficit).
func (a *Allocator) split(total, n int, side string) []int {
	if n <= 1 {
		return []int{total}
	}

	lots := total / a.lot
	remainder := total - lots*a.lot

	// Dirichlet(1,...,1) via normalized unit exponentials.
	weights := make([]float64, n)
	var wsum float64
	for i := range weights {
		weights[i] = a.rng.ExpFloat64()
		wsum += weights[i]
	}

	counts := make([]int, n)
	sum := 0
	for i := range counts {
		counts[i] = int(math.Floor(weights[i] / wsum * float64(lots)))
		if counts[i] < 1 {
			counts[i] = 1
		}
		sum += counts[i]
	}

	// Surplus: shave the currently largest allocation while it can spare a
	// lot. Bounded: each pass removes one lot or stops.
	for sum > lots {
		idx := argmax(counts)
		if counts[idx] <= 1 {
			a.reportDeficit(side, (sum-lots)*a.lot)
			break
		}
		counts[idx]--
		sum--
	}
	// Deficit: hand extra lots to random venues. Bounded by the deficit.
	for sum < lots {
		counts[a.rng.Intn(n)]++
		sum++
	}

	sizes := make([]int, n)
	for i, c := range counts {
		sizes[i] = c * a.lot
	}
	if remainder > 0 {
		sizes[argmax(sizes)] += remainder
	}
	return sizes
}

// drawOffsets picks one tick offset per venue; if no venue landed on the
// NBBO (offset zero), one is forced there so the reference price is quoted.
func (a *Allocator) drawOffsets(n int) []int {
	out := make([]int, n)
	haveZero := false
	for i := range out {
		target := a.rng.Float64()
		idx := len(a.offsetCP) - 1
		for j, cp := range a.offsetCP {
			if target < cp {
				idx = j
				break
			}
		}
		out[i] = a.offsets[idx]
		if out[i] == 0 {
			haveZero = true
		}
	}
	if !haveZero {
		out[a.rng.Intn(n)] = 0
	}
	return out
}

// ensureInsideVolume guarantees every zero-offset venue carries at least one
// lot, transferring the shortfall from the largest holder when the donor can
// keep a lot. An unresolvable shortfall is reported, never silently dropped.
func (a *Allocator) ensureInsideVolume(sizes []int, offsets []int, side string) {
	for i, off := range offsets {
		if off != 0 || sizes[i] >= a.lot {
			continue
		}
		need := a.lot - sizes[i]
		donor := argmax(sizes)
		if donor != i && sizes[donor]-need >= a.lot {
			sizes[donor] -= need
			sizes[i] += need
		} else {
			a.reportDeficit(side, need)
		}
	}
}

func (a *Allocator) reportDeficit(side string, shares int) {
	metrics.AllocationDeficitsTotal.WithLabelValues(side).Inc()
	a.log.Warn().Str("side", side).Int("shortfall", shares).Msg("allocation shortfall left unresolved")
}

func (a *Allocator) round(px float64) float64 {
	return math.Round(px/a.tickSize) * a.tickSize
}

func argmax(values []int) int {
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}
	return best
}
