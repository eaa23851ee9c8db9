// Package learn runs the offline pass: historical NBBO quotes in, trained
// quote model out.
package learn

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/houseofai/orderbook-reflex/internal/market"
	"github.com/houseofai/orderbook-reflex/internal/quote"
)

var csvHeader = []string{"time", "priceBid", "priceAsk", "sizeBid", "sizeAsk"}

// QuotesFromCSV parses historical quotes. The file must carry the canonical
// header and RFC 3339 timestamps; any malformed row is an error.
func QuotesFromCSV(r io.Reader) ([]quote.Quote, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) != len(csvHeader) {
		return nil, fmt.Errorf("header has %d columns, want %d", len(header), len(csvHeader))
	}
	for i, want := range csvHeader {
		if !strings.EqualFold(strings.TrimSpace(header[i]), want) {
			return nil, fmt.Errorf("column %d is %q, want %q", i, header[i], want)
		}
	}

	var quotes []quote.Quote
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		q, err := parseRow(record)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		quotes = append(quotes, q)
	}
	return quotes, nil
}

func parseRow(record []string) (quote.Quote, error) {
	ts, err := time.Parse(time.RFC3339, record[0])
	if err != nil {
		return quote.Quote{}, fmt.Errorf("time: %w", err)
	}
	bid, err := strconv.ParseFloat(record[1], 64)
	if err != nil {
		return quote.Quote{}, fmt.Errorf("priceBid: %w", err)
	}
	ask, err := strconv.ParseFloat(record[2], 64)
	if err != nil {
		return quote.Quote{}, fmt.Errorf("priceAsk: %w", err)
	}
	if bid <= 0 || ask <= bid {
		return quote.Quote{}, fmt.Errorf("prices %f/%f violate 0 < bid < ask", bid, ask)
	}
	sizeBid, err := strconv.Atoi(record[3])
	if err != nil {
		return quote.Quote{}, fmt.Errorf("sizeBid: %w", err)
	}
	sizeAsk, err := strconv.Atoi(record[4])
	if err != nil {
		return quote.Quote{}, fmt.Errorf("sizeAsk: %w", err)
	}
	if sizeBid <= 0 || sizeAsk <= 0 {
		return quote.Quote{}, fmt.Errorf("sizes %d/%d must be positive", sizeBid, sizeAsk)
	}
	return quote.Quote{Time: ts, PriceBid: bid, PriceAsk: ask, SizeBid: sizeBid, SizeAsk: sizeAsk}, nil
}

// Train folds chronologically ordered quotes into the model, one
// UpdateSecond call per wall-clock second, and reports how many seconds were
// learned. The extractor is stateful, so quotes must arrive in order.
func Train(model *market.Model, extractor *market.Extractor, quotes []quote.Quote) int {
	var (
		second  time.Time
		feats   []market.Features
		seconds int
	)
	flush := func() {
		if len(feats) > 0 {
			model.UpdateSecond(feats)
			seconds++
			feats = feats[:0]
		}
	}
	for _, q := range quotes {
		bucket := q.Time.Truncate(time.Second)
		if !bucket.Equal(second) {
			flush()
			second = bucket
		}
		feats = append(feats, extractor.Transform(q))
	}
	flush()
	return seconds
}
