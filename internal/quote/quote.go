// Package quote standardizes payloads shared between the market model, venue
// book synthesis, and the downstream signal/rendering layers.
package quote

import "time"

// Quote models one top-of-book (NBBO) update for the simulated instrument.
type Quote struct {
	Time     time.Time `json:"time"`
	PriceBid float64   `json:"priceBid"`
	PriceAsk float64   `json:"priceAsk"`
	SizeBid  int       `json:"sizeBid"`
	SizeAsk  int       `json:"sizeAsk"`
}

// Mid returns the mid-price of the quote.
func (q Quote) Mid() float64 { return (q.PriceBid + q.PriceAsk) / 2 }

// VenueQuote is one venue's Level-1 contribution to the synthesized book.
type VenueQuote struct {
	Time     time.Time `json:"time"`
	Venue    string    `json:"venue"`
	PriceBid float64   `json:"priceBid"`
	SizeBid  int       `json:"sizeBid"`
	PriceAsk float64   `json:"priceAsk"`
	SizeAsk  int       `json:"sizeAsk"`
}

// PivotKind labels a retrospective local extremum in the mid-price series.
type PivotKind string

const (
	// PivotHigh marks a local maximum (exit prompt).
	PivotHigh PivotKind = "PH"
	// PivotLow marks a local minimum (entry prompt).
	PivotLow PivotKind = "PL"
	// PivotNone means the lagged centre point is not an extremum.
	PivotNone PivotKind = ""
)

// Pivot reports the classification of the snapshot sitting W seconds behind
// the newest buffer entry, together with that snapshot's prices.
type Pivot struct {
	Kind PivotKind `json:"kind"`
	Bid  float64   `json:"bid"`
	Ask  float64   `json:"ask"`
}

// Book is the per-second output of the engine: the NBBO, the per-venue
// decomposition, and the lagged pivot decision for that second.
type Book struct {
	Time   time.Time    `json:"time"`
	NBBO   Quote        `json:"nbbo"`
	Venues []VenueQuote `json:"venues"`
	Pivot  Pivot        `json:"pivot"`
}
