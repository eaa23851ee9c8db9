// Package session scores the trainee's reactions to pivot prompts and
// adapts the difficulty over time.
package session

import (
	"sync"
	"time"

	"github.com/houseofai/orderbook-reflex/internal/quote"
)

// Direction is the prompt shown to the trainee.
type Direction string

const (
	// Entry prompts a buy reflex on a pivot low.
	Entry Direction = "ENTRY"
	// Exit prompts a sell reflex on a pivot high.
	Exit Direction = "EXIT"
)

// Result captures one scored reaction.
type Result struct {
	Ts        time.Time
	Dir       Direction
	SigPrice  float64
	UserPrice float64
	RT        time.Duration
	OK        bool
}

// Config tunes the difficulty loop.
type Config struct {
	InitialWindow    time.Duration
	MinWindow        time.Duration
	DecreaseFactor   float64
	CheckEvery       int
	SuccessThreshold float64
	HistoryLimit     int
}

// DefaultConfig mirrors the historical trainer settings: a one-second
// window shrinking by 10% down to 120ms once 80% of the last 20 prompts
// succeed.
func DefaultConfig() Config {
	return Config{
		InitialWindow:    time.Second,
		MinWindow:        120 * time.Millisecond,
		DecreaseFactor:   0.90,
		CheckEvery:       20,
		SuccessThreshold: 0.80,
		HistoryLimit:     50,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.InitialWindow <= 0 {
		c.InitialWindow = d.InitialWindow
	}
	if c.MinWindow <= 0 {
		c.MinWindow = d.MinWindow
	}
	if c.DecreaseFactor <= 0 || c.DecreaseFactor >= 1 {
		c.DecreaseFactor = d.DecreaseFactor
	}
	if c.CheckEvery <= 0 {
		c.CheckEvery = d.CheckEvery
	}
	if c.SuccessThreshold <= 0 || c.SuccessThreshold > 1 {
		c.SuccessThreshold = d.SuccessThreshold
	}
	if c.HistoryLimit <= 0 {
		c.HistoryLimit = d.HistoryLimit
	}
	return c
}

// Session holds the live prompt state and scoring history. Safe for use from
// the driver and the input callback.
type Session struct {
	mu       sync.Mutex
	cfg      Config
	window   time.Duration
	current  Direction
	signalAt time.Time
	sigBid   float64
	sigAsk   float64
	results  []Result
	outcomes []bool
}

// New builds a session with defaults applied.
func New(cfg Config) *Session {
	cfg = cfg.withDefaults()
	return &Session{cfg: cfg, window: cfg.InitialWindow}
}

// ReactionWindow returns the currently allowed reaction time.
func (s *Session) ReactionWindow() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.window
}

// Active returns the open prompt, if any.
func (s *Session) Active() (Direction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.current != ""
}

// OnPivot opens a prompt for a pivot event when none is pending: a pivot low
// asks for an entry, a pivot high for an exit. Returns true when a new
// prompt was raised.
func (s *Session) OnPivot(p quote.Pivot, now time.Time) bool {
	if p.Kind == quote.PivotNone {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != "" {
		return false
	}
	if p.Kind == quote.PivotLow {
		s.current = Entry
	} else {
		s.current = Exit
	}
	s.signalAt = now
	s.sigBid = p.Bid
	s.sigAsk = p.Ask
	return true
}

// RecordReaction scores a key press against the open prompt using the best
// prices at press time, closes the prompt, and adapts the window. The
// second return is false when no prompt was pending.
func (s *Session) RecordReaction(pressed Direction, now time.Time, bestBid, bestAsk float64) (Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == "" {
		return Result{}, false
	}

	rt := now.Sub(s.signalAt)
	ok := pressed == s.current && rt <= s.window

	res := Result{Ts: now, Dir: s.current, RT: rt, OK: ok}
	if s.current == Entry {
		res.SigPrice = s.sigBid
		res.UserPrice = bestBid
	} else {
		res.SigPrice = s.sigAsk
		res.UserPrice = bestAsk
	}

	s.results = append(s.results, res)
	if len(s.results) > s.cfg.HistoryLimit {
		s.results = s.results[len(s.results)-s.cfg.HistoryLimit:]
	}
	s.outcomes = append(s.outcomes, ok)
	if len(s.outcomes) > s.cfg.CheckEvery {
		s.outcomes = s.outcomes[len(s.outcomes)-s.cfg.CheckEvery:]
	}

	s.current = ""
	s.adaptLocked()
	return res, true
}

// adaptLocked shrinks the reaction window once the recent success rate
// clears the threshold. Caller holds the mutex.
func (s *Session) adaptLocked() {
	if len(s.outcomes) < s.cfg.CheckEvery {
		return
	}
	hits := 0
	for _, ok := range s.outcomes {
		if ok {
			hits++
		}
	}
	rate := float64(hits) / float64(s.cfg.CheckEvery)
	if rate >= s.cfg.SuccessThreshold {
		next := time.Duration(float64(s.window) * s.cfg.DecreaseFactor)
		if next < s.cfg.MinWindow {
			next = s.cfg.MinWindow
		}
		s.window = next
	}
}

// Snapshot returns a copy of the bounded result history.
func (s *Session) Snapshot() []Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Result, len(s.results))
	copy(out, s.results)
	return out
}
