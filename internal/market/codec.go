package market

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// persistedModel is the self-describing export format: exactly three
// integer-valued maps. Transition keys flatten (regime, sign, dpBin,
// spreadBin, sizeBin) into "M,B,U,1,2,3"; the regime counters use "M,B".
type persistedModel struct {
	Transition       map[string]int `json:"transition"`
	TicksPerRegime   map[string]int `json:"ticks_per_regime"`
	SecondsPerRegime map[string]int `json:"seconds_per_regime"`
}

func regimeKey(r Regime) string {
	m, b := "N", "O"
	if r.Momentum {
		m = "M"
	}
	if r.Breakout {
		b = "B"
	}
	return m + "," + b
}

func parseRegimeKey(key string) (Regime, error) {
	parts := strings.Split(key, ",")
	if len(parts) != 2 {
		return Regime{}, fmt.Errorf("regime key %q: want 2 fields", key)
	}
	return parseRegimeParts(parts[0], parts[1])
}

// Export writes the model as JSON. The output round-trips through Import.
func (m *Model) Export(w io.Writer) error {
	out := persistedModel{
		Transition:       make(map[string]int),
		TicksPerRegime:   make(map[string]int),
		SecondsPerRegime: make(map[string]int),
	}
	for key, bucket := range m.transition {
		prefix := regimeKey(key.Regime) + "," + string(key.Sign)
		for b, count := range bucket {
			flat := fmt.Sprintf("%s,%d,%d,%d", prefix, b.Dp, b.Spread, b.Size)
			out.Transition[flat] = count
		}
	}
	for r, n := range m.ticksPerRegime {
		out.TicksPerRegime[regimeKey(r)] = n
	}
	for r, n := range m.secondsPerRegime {
		out.SecondsPerRegime[regimeKey(r)] = n
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// Import reconstructs a model from its JSON export. Any malformed key or
// missing map is a hard error; a partial model is never fabricated.
func Import(cfg Config, r io.Reader) (*Model, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var in persistedModel
	if err := dec.Decode(&in); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	if in.Transition == nil || in.TicksPerRegime == nil || in.SecondsPerRegime == nil {
		return nil, fmt.Errorf("decode model: missing transition or regime counters")
	}

	m := New(cfg)
	for flat, count := range in.Transition {
		parts := strings.Split(flat, ",")
		if len(parts) != 6 {
			return nil, fmt.Errorf("transition key %q: want 6 fields", flat)
		}
		regime, err := parseRegimeParts(parts[0], parts[1])
		if err != nil {
			return nil, fmt.Errorf("transition key %q: %w", flat, err)
		}
		sign, err := parseSign(parts[2])
		if err != nil {
			return nil, fmt.Errorf("transition key %q: %w", flat, err)
		}
		var bins Bins
		for i, dst := range []*int{&bins.Dp, &bins.Spread, &bins.Size} {
			v, err := strconv.Atoi(parts[3+i])
			if err != nil {
				return nil, fmt.Errorf("transition key %q: %w", flat, err)
			}
			*dst = v
		}
		if count < 0 {
			return nil, fmt.Errorf("transition key %q: negative count %d", flat, count)
		}
		key := bucketKey{Regime: regime, Sign: sign}
		bucket := m.transition[key]
		if bucket == nil {
			bucket = make(map[Bins]int)
			m.transition[key] = bucket
		}
		bucket[bins] = count
	}
	for key, n := range in.TicksPerRegime {
		regime, err := parseRegimeKey(key)
		if err != nil {
			return nil, fmt.Errorf("ticks_per_regime: %w", err)
		}
		m.ticksPerRegime[regime] = n
	}
	for key, n := range in.SecondsPerRegime {
		regime, err := parseRegimeKey(key)
		if err != nil {
			return nil, fmt.Errorf("seconds_per_regime: %w", err)
		}
		m.secondsPerRegime[regime] = n
	}
	return m, nil
}

// ObservedBuckets lists the (regime, sign) pairs with at least one count,
// in a stable order. Used by tests and the learn CLI summary.
func (m *Model) ObservedBuckets() []string {
	out := make([]string, 0, len(m.transition))
	for key := range m.transition {
		out = append(out, key.Regime.Label()+"/"+string(key.Sign))
	}
	sort.Strings(out)
	return out
}
