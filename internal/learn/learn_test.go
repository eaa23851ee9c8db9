package learn

import (
	"strings"
	"testing"

	"github.com/houseofai/orderbook-reflex/internal/market"
)

const sampleCSV = `time,priceBid,priceAsk,sizeBid,sizeAsk
2026-08-20T09:30:00Z,100.10,100.12,300,200
2026-08-20T09:30:00Z,100.11,100.13,400,300
2026-08-20T09:30:01Z,100.12,100.14,200,200
2026-08-20T09:30:03Z,100.11,100.13,500,400
`

func TestQuotesFromCSV(t *testing.T) {
	quotes, err := QuotesFromCSV(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("QuotesFromCSV returned error: %v", err)
	}
	if len(quotes) != 4 {
		t.Fatalf("expected 4 quotes, got %d", len(quotes))
	}
	if quotes[0].PriceBid != 100.10 || quotes[0].SizeAsk != 200 {
		t.Fatalf("first quote parsed wrong: %+v", quotes[0])
	}
}

func TestQuotesFromCSVRejectsBadInput(t *testing.T) {
	cases := map[string]string{
		"bad header":   "ts,bid,ask,sb,sa\n",
		"short header": "time,priceBid,priceAsk\n",
		"bad time":     "time,priceBid,priceAsk,sizeBid,sizeAsk\nyesterday,100,100.02,100,100\n",
		"crossed book": "time,priceBid,priceAsk,sizeBid,sizeAsk\n2026-08-20T09:30:00Z,100.02,100.00,100,100\n",
		"zero size":    "time,priceBid,priceAsk,sizeBid,sizeAsk\n2026-08-20T09:30:00Z,100.00,100.02,0,100\n",
		"bad number":   "time,priceBid,priceAsk,sizeBid,sizeAsk\n2026-08-20T09:30:00Z,abc,100.02,100,100\n",
	}
	for name, payload := range cases {
		if _, err := QuotesFromCSV(strings.NewReader(payload)); err == nil {
			t.Fatalf("%s: expected parse error", name)
		}
	}
}

func TestTrainGroupsBySecond(t *testing.T) {
	quotes, err := QuotesFromCSV(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("QuotesFromCSV returned error: %v", err)
	}

	model := market.New(market.DefaultConfig())
	extractor := market.NewExtractor(0.9, 0.01, 0.01)
	seconds := Train(model, extractor, quotes)

	// Three distinct seconds appear in the fixture (09:30:02 is absent).
	if seconds != 3 {
		t.Fatalf("expected 3 learned seconds, got %d", seconds)
	}

	// All fixture mids sit away from half-dollar levels with tiny moves,
	// so everything lands in the calm NO regime: 4 ticks over 3 seconds.
	no := market.Regime{}
	if got := model.Lambda(no); got < 1.33 || got > 1.34 {
		t.Fatalf("lambda(NO) = %f, want 4/3", got)
	}
}

func TestTrainEmptyInput(t *testing.T) {
	model := market.New(market.DefaultConfig())
	extractor := market.NewExtractor(0.9, 0.01, 0.01)
	if got := Train(model, extractor, nil); got != 0 {
		t.Fatalf("expected 0 seconds for empty input, got %d", got)
	}
}
