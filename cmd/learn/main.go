package main

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/houseofai/orderbook-reflex/internal/config"
	"github.com/houseofai/orderbook-reflex/internal/learn"
	"github.com/houseofai/orderbook-reflex/internal/market"
	"github.com/houseofai/orderbook-reflex/internal/util"
)

const defaultConfigPath = "internal/config/config.yaml"

func main() {
	_ = godotenv.Load()
	log := util.NewLogger("info")

	cfg, err := config.Load(getEnv("OBR_CONFIG", defaultConfigPath))
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	log = util.NewLogger(cfg.App.LogLevel)

	file, err := os.Open(cfg.Learning.QuotesCSV)
	if err != nil {
		log.Fatal().Err(err).Msg("open quotes csv")
	}
	quotes, err := learn.QuotesFromCSV(file)
	file.Close()
	if err != nil {
		log.Fatal().Err(err).Msg("parse quotes csv")
	}

	model := market.New(market.Config{
		DpQuantum:     cfg.Model.DpQuantum,
		SpreadQuantum: cfg.Model.SpreadQuantum,
		SizeQuantum:   cfg.Model.SizeQuantum,
	})
	extractor := market.NewExtractor(cfg.Model.EWMAAlpha, cfg.Model.MomentumThreshold, cfg.Model.BreakoutTolerance)
	seconds := learn.Train(model, extractor, quotes)

	if dir := filepath.Dir(cfg.Model.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatal().Err(err).Msg("model dir")
		}
	}
	out, err := os.Create(cfg.Model.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("create model file")
	}
	if err := model.Export(out); err != nil {
		out.Close()
		log.Fatal().Err(err).Msg("export model")
	}
	if err := out.Close(); err != nil {
		log.Fatal().Err(err).Msg("close model file")
	}

	log.Info().
		Int("quotes", len(quotes)).
		Int("seconds", seconds).
		Strs("buckets", model.ObservedBuckets()).
		Str("path", cfg.Model.Path).
		Msg("model trained")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
