package market

import (
	"math"
	"math/rand"
	"sort"
)

// Config fixes the discretization quanta for (dp, spread, size). Binning is
// reversible: multiplying a bin index by its quantum recovers the value.
type Config struct {
	DpQuantum     float64
	SpreadQuantum float64
	SizeQuantum   int
}

// DefaultConfig mirrors the quanta the model was historically trained with:
// half a cent for dp, one cent for spread, one round lot for size.
func DefaultConfig() Config {
	return Config{DpQuantum: 0.005, SpreadQuantum: 0.01, SizeQuantum: 100}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.DpQuantum <= 0 {
		c.DpQuantum = d.DpQuantum
	}
	if c.SpreadQuantum <= 0 {
		c.SpreadQuantum = d.SpreadQuantum
	}
	if c.SizeQuantum <= 0 {
		c.SizeQuantum = d.SizeQuantum
	}
	return c
}

// Bins is a discretized (dp, spread, size) tick shape.
type Bins struct {
	Dp     int
	Spread int
	Size   int
}

// Tick is a dequantized tick shape drawn from the model.
type Tick struct {
	Dp     float64
	Spread float64
	Size   int
}

type bucketKey struct {
	Regime Regime
	Sign   Sign
}

// Model is a small non-parametric quote model learned online. Per regime it
// tracks the empirical tick intensity (a Poisson rate) and, conditioned on
// the sign of the last change, a frequency table over discretized tick
// shapes. The model is mutable during the learning pass and treated as
// read-only while sampling; concurrent UpdateSecond calls are unsupported.
type Model struct {
	cfg Config

	transition       map[bucketKey]map[Bins]int
	ticksPerRegime   map[Regime]int
	secondsPerRegime map[Regime]int
}

// New returns an empty model using the supplied quanta (defaults applied).
func New(cfg Config) *Model {
	return &Model{
		cfg:              cfg.withDefaults(),
		transition:       make(map[bucketKey]map[Bins]int),
		ticksPerRegime:   make(map[Regime]int),
		secondsPerRegime: make(map[Regime]int),
	}
}

// Quanta returns the discretization configuration the model was built with.
func (m *Model) Quanta() Config { return m.cfg }

func (m *Model) bin(f Features) Bins {
	return Bins{
		Dp:     int(math.Round(f.Dp / m.cfg.DpQuantum)),
		Spread: int(math.Round(f.Spread / m.cfg.SpreadQuantum)),
		Size:   int(math.Round(float64(f.Size) / float64(m.cfg.SizeQuantum))),
	}
}

// UpdateSecond folds one second's worth of time-ordered features into the
// model. The second's regime is momentum/breakout if any feature inside it
// was; its sign is the sign of the last feature's dp.
func (m *Model) UpdateSecond(feats []Features) {
	if len(feats) == 0 {
		return
	}

	var regime Regime
	for _, f := range feats {
		regime.Momentum = regime.Momentum || f.Momentum
		regime.Breakout = regime.Breakout || f.Breakout
	}
	sign := SignOf(feats[len(feats)-1].Dp)

	m.ticksPerRegime[regime] += len(feats)
	m.secondsPerRegime[regime]++

	key := bucketKey{Regime: regime, Sign: sign}
	bucket := m.transition[key]
	if bucket == nil {
		bucket = make(map[Bins]int)
		m.transition[key] = bucket
	}
	for _, f := range feats {
		bucket[m.bin(f)]++
	}
}

// Lambda returns the empirical ticks-per-second rate for a regime; an
// unobserved regime yields 0.
func (m *Model) Lambda(regime Regime) float64 {
	secs := m.secondsPerRegime[regime]
	if secs < 1 {
		secs = 1
	}
	return float64(m.ticksPerRegime[regime]) / float64(secs)
}

// SampleCount draws how many ticks the coming second should hold, Poisson
// with rate Lambda(regime).
func (m *Model) SampleCount(rng *rand.Rand, regime Regime) int {
	return poisson(rng, m.Lambda(regime))
}

// SampleTick draws one dequantized tick shape for (regime, sign) with
// probability proportional to observed counts. An empty bucket falls back to
// the default shape: no move, one-quantum spread, one-quantum size.
func (m *Model) SampleTick(rng *rand.Rand, regime Regime, sign Sign) Tick {
	bucket := m.transition[bucketKey{Regime: regime, Sign: sign}]
	if len(bucket) == 0 {
		return Tick{Dp: 0, Spread: m.cfg.SpreadQuantum, Size: m.cfg.SizeQuantum}
	}

	// Stable bin order so a fixed seed reproduces the same stream.
	bins := make([]Bins, 0, len(bucket))
	total := 0
	for b, count := range bucket {
		bins = append(bins, b)
		total += count
	}
	sort.Slice(bins, func(i, j int) bool {
		if bins[i].Dp != bins[j].Dp {
			return bins[i].Dp < bins[j].Dp
		}
		if bins[i].Spread != bins[j].Spread {
			return bins[i].Spread < bins[j].Spread
		}
		return bins[i].Size < bins[j].Size
	})

	target := rng.Intn(total)
	for _, b := range bins {
		target -= bucket[b]
		if target < 0 {
			return Tick{
				Dp:     float64(b.Dp) * m.cfg.DpQuantum,
				Spread: float64(b.Spread) * m.cfg.SpreadQuantum,
				Size:   b.Size * m.cfg.SizeQuantum,
			}
		}
	}
	// Unreachable: target < total by construction.
	last := bins[len(bins)-1]
	return Tick{
		Dp:     float64(last.Dp) * m.cfg.DpQuantum,
		Spread: float64(last.Spread) * m.cfg.SpreadQuantum,
		Size:   last.Size * m.cfg.SizeQuantum,
	}
}

// poisson draws a Poisson variate via Knuth's product-of-uniforms method.
// The learned rates stay in single digits, so the O(lambda) loop is fine.
func poisson(rng *rand.Rand, lambda float64) int {
	if lambda <= 0 {
		return 0
	}
	threshold := math.Exp(-lambda)
	k := 0
	p := 1.0
	for {
		p *= rng.Float64()
		if p <= threshold {
			return k
		}
		k++
	}
}
