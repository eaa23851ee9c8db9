package record

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/houseofai/orderbook-reflex/internal/session"
)

var statsHeader = []string{"ts", "dir", "sig_price", "user_price", "rt_ms", "ok"}

// WriteStatsCSV dumps scored reactions in the trainer's historical CSV
// schema, one row per prompt.
func WriteStatsCSV(path string, results []session.Result) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("stats dir: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create stats: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(statsHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, res := range results {
		row := []string{
			res.Ts.UTC().Format(time.DateTime),
			string(res.Dir),
			fmt.Sprintf("%.2f", res.SigPrice),
			fmt.Sprintf("%.2f", res.UserPrice),
			fmt.Sprintf("%d", res.RT.Milliseconds()),
			fmt.Sprintf("%t", res.OK),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}
