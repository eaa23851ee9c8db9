package record

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/houseofai/orderbook-reflex/internal/quote"
)

func TestJSONLRecorder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "books.jsonl")

	recorder, err := NewJSONLRecorder(path)
	if err != nil {
		t.Fatalf("NewJSONLRecorder error: %v", err)
	}
	book := quote.Book{
		Time: time.Date(2026, 8, 23, 9, 30, 0, 0, time.UTC),
		NBBO: quote.Quote{PriceBid: 100.00, PriceAsk: 100.02, SizeBid: 500, SizeAsk: 500},
		Venues: []quote.VenueQuote{
			{Venue: "NSDQ", PriceBid: 100.00, SizeBid: 300, PriceAsk: 100.02, SizeAsk: 200},
		},
		Pivot: quote.Pivot{Kind: quote.PivotLow, Bid: 99.95, Ask: 99.97},
	}
	recorder.Record(book)
	if err := recorder.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open recorded file: %v", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	if !scanner.Scan() {
		t.Fatalf("expected one line in recorder output")
	}
	var decoded quote.Book
	if err := json.Unmarshal(scanner.Bytes(), &decoded); err != nil {
		t.Fatalf("json decode: %v", err)
	}
	if decoded.NBBO.SizeBid != 500 || len(decoded.Venues) != 1 {
		t.Fatalf("unexpected decoded book: %+v", decoded)
	}
	if decoded.Pivot.Kind != quote.PivotLow {
		t.Fatalf("pivot kind lost in round trip")
	}
}

func TestJSONLRecorderCloseIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "books.jsonl")
	recorder, err := NewJSONLRecorder(path)
	if err != nil {
		t.Fatalf("NewJSONLRecorder error: %v", err)
	}
	if err := recorder.Close(); err != nil {
		t.Fatalf("first Close error: %v", err)
	}
	if err := recorder.Close(); err != nil {
		t.Fatalf("second Close should be a no-op, got %v", err)
	}
}
