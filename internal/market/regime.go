// Package market implements the learned quote model: online feature
// extraction, per-regime frequency learning, and stochastic tick sampling.
package market

import "fmt"

// Regime is the joint (momentum, breakout) market state used to condition
// the stochastic model. The four variants are labeled MB, MO, NB, NO.
type Regime struct {
	Momentum bool
	Breakout bool
}

// Label renders the two-letter regime code (e.g. "NO" for normal/outside).
func (r Regime) Label() string {
	m, b := "N", "O"
	if r.Momentum {
		m = "M"
	}
	if r.Breakout {
		b = "B"
	}
	return m + b
}

// Regimes lists the four variants in a stable order.
var Regimes = []Regime{
	{Momentum: true, Breakout: true},
	{Momentum: true, Breakout: false},
	{Momentum: false, Breakout: true},
	{Momentum: false, Breakout: false},
}

// Sign is the direction of the most recent mid-price change.
type Sign string

const (
	Up   Sign = "U"
	Down Sign = "D"
	Flat Sign = "F"
)

// SignOf classifies a price delta, Flat on exact zero.
func SignOf(dp float64) Sign {
	switch {
	case dp > 0:
		return Up
	case dp < 0:
		return Down
	default:
		return Flat
	}
}

func parseRegimeParts(momentum, breakout string) (Regime, error) {
	var r Regime
	switch momentum {
	case "M":
		r.Momentum = true
	case "N":
	default:
		return Regime{}, fmt.Errorf("bad momentum flag %q", momentum)
	}
	switch breakout {
	case "B":
		r.Breakout = true
	case "O":
	default:
		return Regime{}, fmt.Errorf("bad breakout flag %q", breakout)
	}
	return r, nil
}

func parseSign(s string) (Sign, error) {
	switch Sign(s) {
	case Up, Down, Flat:
		return Sign(s), nil
	default:
		return "", fmt.Errorf("bad sign %q", s)
	}
}
