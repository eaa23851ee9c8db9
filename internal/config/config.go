// Package config exposes strongly typed application configuration structs loaded from YAML.
package config

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// App captures process-wide runtime settings such as name, environment, metrics, and logging levels.
type App struct {
	Name        string `yaml:"name"`
	Env         string `yaml:"env"`
	MetricsAddr string `yaml:"metrics_addr" envconfig:"METRICS_ADDR"`
	StreamAddr  string `yaml:"stream_addr" envconfig:"STREAM_ADDR"`
	LogLevel    string `yaml:"log_level" envconfig:"LOG_LEVEL"`
}

// Instrument describes the simulated security: price grid, display lot, and
// the seed quote the session starts from.
type Instrument struct {
	Symbol     string  `yaml:"symbol"`
	TickSize   float64 `yaml:"tick_size"`
	LotSize    int     `yaml:"lot_size"`
	BaseBid    float64 `yaml:"base_bid"`
	BaseSpread float64 `yaml:"base_spread"`
}

// Model groups the feature-extraction and discretization knobs of the
// learned quote model, plus the path the trained model is persisted to.
type Model struct {
	Path              string  `yaml:"path"`
	EWMAAlpha         float64 `yaml:"ewma_alpha"`
	MomentumThreshold float64 `yaml:"momentum_threshold"`
	BreakoutTolerance float64 `yaml:"breakout_tolerance"`
	DpQuantum         float64 `yaml:"dp_quantum"`
	SpreadQuantum     float64 `yaml:"spread_quantum"`
	SizeQuantum       int     `yaml:"size_quantum"`
}

// Venues holds the market-share table and the tick-offset distribution used
// to decompose the NBBO into per-venue quotes.
type Venues struct {
	Shares  map[string]float64 `yaml:"shares"`
	Offsets map[int]float64    `yaml:"offsets"`
}

// Simulation controls the generation session: pivot window, RNG seed, run
// length, and where per-second books are recorded.
type Simulation struct {
	WindowSecs   int    `yaml:"window_secs"`
	Seed         int64  `yaml:"seed"`
	DurationSecs int    `yaml:"duration_secs"`
	BooksPath    string `yaml:"books_path"`
}

// Session tunes the reflex-training difficulty loop and stats persistence.
type Session struct {
	InitialReactionMs int     `yaml:"initial_reaction_ms"`
	MinReactionMs     int     `yaml:"min_reaction_ms"`
	DecreaseFactor    float64 `yaml:"decrease_factor"`
	CheckEvery        int     `yaml:"check_every"`
	SuccessThreshold  float64 `yaml:"success_threshold"`
	HistoryLimit      int     `yaml:"history_limit"`
	StatsPath         string  `yaml:"stats_path"`
}

// Learning points the offline pass at its historical quote input.
type Learning struct {
	QuotesCSV string `yaml:"quotes_csv"`
}

// Config collects every configuration leaf for easy marshaling from YAML.
type Config struct {
	App        App        `yaml:"app"`
	Instrument Instrument `yaml:"instrument"`
	Model      Model      `yaml:"model"`
	Venues     Venues     `yaml:"venues"`
	Simulation Simulation `yaml:"simulation"`
	Session    Session    `yaml:"session"`
	Learning   Learning   `yaml:"learning"`
}

// Load reads a YAML file from disk and hydrates a Config struct, then lets
// OBR_* environment variables override the app section.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var config Config
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	if err := envconfig.Process("obr", &config.App); err != nil {
		return nil, fmt.Errorf("env overrides: %w", err)
	}
	return &config, nil
}

// Save persists a Config struct to disk as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
