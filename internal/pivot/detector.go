// Package pivot flags local extrema in the simulated mid-price stream with a
// fixed observation lag.
package pivot

import "github.com/houseofai/orderbook-reflex/internal/quote"

// Snapshot is one second of top-of-book state retained by the detector.
type Snapshot struct {
	Bid float64
	Ask float64
	Mid float64
}

// Detector keeps a ring of 2W+1 snapshots and, on every append, classifies
// the element W seconds behind the newest entry as a pivot high, pivot low,
// or neither. The buffer is pre-filled with the opening snapshot, so the
// detector reports from the first append; every report describes the past,
// never the current second. Classification is a pure function of the buffer
// contents: exact mid equality against the window max/min, so every point of
// a flat plateau at the extreme qualifies.
type Detector struct {
	window int
	ring   []Snapshot
	head   int // index of the oldest element
}

// NewDetector builds a detector with lag w seconds, warmed up with the
// session's opening bid/ask.
func NewDetector(w int, openBid, openAsk float64) *Detector {
	if w < 1 {
		w = 1
	}
	length := 2*w + 1
	snap := Snapshot{Bid: openBid, Ask: openAsk, Mid: (openBid + openAsk) / 2}
	ring := make([]Snapshot, length)
	for i := range ring {
		ring[i] = snap
	}
	return &Detector{window: w, ring: ring}
}

// Window returns the detector's lag W.
func (d *Detector) Window() int { return d.window }

// Append pushes the newest snapshot, evicting the oldest, and returns the
// pivot decision for the centre element.
func (d *Detector) Append(bid, ask float64) quote.Pivot {
	d.ring[d.head] = Snapshot{Bid: bid, Ask: ask, Mid: (bid + ask) / 2}
	d.head = (d.head + 1) % len(d.ring)

	centre := d.at(d.window)
	kind := quote.PivotNone

	maxMid, minMid := d.ring[0].Mid, d.ring[0].Mid
	for _, s := range d.ring[1:] {
		if s.Mid > maxMid {
			maxMid = s.Mid
		}
		if s.Mid < minMid {
			minMid = s.Mid
		}
	}
	switch centre.Mid {
	case maxMid:
		kind = quote.PivotHigh
	case minMid:
		kind = quote.PivotLow
	}
	// A perfectly flat window is both max and min; report it as a high,
	// matching the max-first check order.
	return quote.Pivot{Kind: kind, Bid: centre.Bid, Ask: centre.Ask}
}

// at returns the element i positions from the oldest end.
func (d *Detector) at(i int) Snapshot {
	return d.ring[(d.head+i)%len(d.ring)]
}
