package session

import (
	"testing"
	"time"

	"github.com/houseofai/orderbook-reflex/internal/quote"
)

func pivotLow() quote.Pivot {
	return quote.Pivot{Kind: quote.PivotLow, Bid: 99.95, Ask: 99.97}
}

func pivotHigh() quote.Pivot {
	return quote.Pivot{Kind: quote.PivotHigh, Bid: 100.10, Ask: 100.12}
}

func TestOnPivotOpensPrompt(t *testing.T) {
	s := New(Config{})
	now := time.Unix(0, 0)

	if s.OnPivot(quote.Pivot{Kind: quote.PivotNone}, now) {
		t.Fatalf("no prompt expected for a non-pivot")
	}
	if !s.OnPivot(pivotLow(), now) {
		t.Fatalf("expected prompt for pivot low")
	}
	dir, active := s.Active()
	if !active || dir != Entry {
		t.Fatalf("expected active ENTRY prompt, got %q active=%v", dir, active)
	}
	// A second pivot while one prompt is pending is ignored.
	if s.OnPivot(pivotHigh(), now.Add(time.Second)) {
		t.Fatalf("pending prompt should suppress new ones")
	}
}

func TestRecordReactionScoresHit(t *testing.T) {
	s := New(Config{})
	now := time.Unix(100, 0)
	s.OnPivot(pivotLow(), now)

	res, ok := s.RecordReaction(Entry, now.Add(300*time.Millisecond), 99.90, 99.92)
	if !ok {
		t.Fatalf("expected a scored result")
	}
	if !res.OK {
		t.Fatalf("in-window correct key should score OK")
	}
	if res.Dir != Entry {
		t.Fatalf("direction %q, want ENTRY", res.Dir)
	}
	if res.SigPrice != 99.95 {
		t.Fatalf("sig price %f, want pivot bid", res.SigPrice)
	}
	if res.UserPrice != 99.90 {
		t.Fatalf("user price %f, want best bid at press", res.UserPrice)
	}
	if _, active := s.Active(); active {
		t.Fatalf("prompt should close after scoring")
	}
}

func TestRecordReactionWrongKeyOrLate(t *testing.T) {
	s := New(Config{})
	now := time.Unix(0, 0)

	s.OnPivot(pivotLow(), now)
	if res, _ := s.RecordReaction(Exit, now.Add(100*time.Millisecond), 99, 99.02); res.OK {
		t.Fatalf("wrong key must not score")
	}

	s.OnPivot(pivotHigh(), now.Add(5*time.Second))
	if res, _ := s.RecordReaction(Exit, now.Add(7*time.Second), 99, 99.02); res.OK {
		t.Fatalf("late press must not score")
	}
}

func TestRecordReactionWithoutPrompt(t *testing.T) {
	s := New(Config{})
	if _, ok := s.RecordReaction(Entry, time.Unix(0, 0), 99, 99.02); ok {
		t.Fatalf("no result expected without an open prompt")
	}
}

func TestAdaptiveWindowShrinksOnSuccess(t *testing.T) {
	s := New(Config{CheckEvery: 5, HistoryLimit: 10})
	now := time.Unix(0, 0)

	for i := 0; i < 5; i++ {
		now = now.Add(10 * time.Second)
		s.OnPivot(pivotLow(), now)
		s.RecordReaction(Entry, now.Add(50*time.Millisecond), 99, 99.02)
	}
	if got := s.ReactionWindow(); got != 900*time.Millisecond {
		t.Fatalf("window %v after clean streak, want 900ms", got)
	}
}

func TestAdaptiveWindowFloor(t *testing.T) {
	s := New(Config{CheckEvery: 2, MinWindow: 800 * time.Millisecond})
	now := time.Unix(0, 0)
	for i := 0; i < 40; i++ {
		now = now.Add(10 * time.Second)
		s.OnPivot(pivotLow(), now)
		s.RecordReaction(Entry, now.Add(10*time.Millisecond), 99, 99.02)
	}
	if got := s.ReactionWindow(); got != 800*time.Millisecond {
		t.Fatalf("window %v, want the 800ms floor", got)
	}
}

func TestAdaptiveWindowHoldsOnMisses(t *testing.T) {
	s := New(Config{CheckEvery: 4})
	now := time.Unix(0, 0)
	for i := 0; i < 8; i++ {
		now = now.Add(10 * time.Second)
		s.OnPivot(pivotLow(), now)
		// Alternate hit/miss: 50% success stays under the 80% threshold.
		key := Entry
		if i%2 == 0 {
			key = Exit
		}
		s.RecordReaction(key, now.Add(20*time.Millisecond), 99, 99.02)
	}
	if got := s.ReactionWindow(); got != time.Second {
		t.Fatalf("window %v, want unchanged 1s", got)
	}
}

func TestSnapshotBounded(t *testing.T) {
	s := New(Config{HistoryLimit: 3})
	now := time.Unix(0, 0)
	for i := 0; i < 10; i++ {
		now = now.Add(10 * time.Second)
		s.OnPivot(pivotLow(), now)
		s.RecordReaction(Entry, now.Add(10*time.Millisecond), 99, 99.02)
	}
	if got := len(s.Snapshot()); got != 3 {
		t.Fatalf("history length %d, want 3", got)
	}
}
