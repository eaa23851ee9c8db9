package main

import (
	"bufio"
	"context"
	"math/rand"
	"os"
	ossignal "os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/houseofai/orderbook-reflex/internal/config"
	"github.com/houseofai/orderbook-reflex/internal/engine"
	"github.com/houseofai/orderbook-reflex/internal/market"
	"github.com/houseofai/orderbook-reflex/internal/metrics"
	"github.com/houseofai/orderbook-reflex/internal/pivot"
	"github.com/houseofai/orderbook-reflex/internal/quote"
	"github.com/houseofai/orderbook-reflex/internal/record"
	"github.com/houseofai/orderbook-reflex/internal/session"
	"github.com/houseofai/orderbook-reflex/internal/stream"
	"github.com/houseofai/orderbook-reflex/internal/util"
	"github.com/houseofai/orderbook-reflex/internal/venue"
)

const defaultConfigPath = "internal/config/config.yaml"

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load(getEnv("OBR_CONFIG", defaultConfigPath))
	if err != nil {
		lg := util.NewLogger("info")
		lg.Fatal().Err(err).Msg("load config")
	}
	log := util.NewConsoleLogger(cfg.App.LogLevel)

	_ = metrics.Serve(cfg.App.MetricsAddr)
	log.Info().Str("addr", cfg.App.MetricsAddr).Msg("metrics up")

	hub := stream.NewHub(log)
	_ = hub.Serve(cfg.App.StreamAddr)
	defer hub.Close()
	log.Info().Str("addr", cfg.App.StreamAddr).Msg("stream up")

	model := loadModel(cfg, log)
	log.Info().Strs("buckets", model.ObservedBuckets()).Msg("model loaded")

	baseAsk := cfg.Instrument.BaseBid + cfg.Instrument.BaseSpread
	rng := rand.New(rand.NewSource(cfg.Simulation.Seed))
	sampler := market.NewSampler(model, rng, cfg.Instrument.TickSize, cfg.Instrument.BaseBid, baseAsk)

	allocator, err := venue.NewAllocator(venue.Config{
		Shares:   cfg.Venues.Shares,
		Offsets:  cfg.Venues.Offsets,
		LotSize:  cfg.Instrument.LotSize,
		TickSize: cfg.Instrument.TickSize,
		// Decouple the allocator draws from the tick stream so replaying a
		// seed reproduces both independently.
		Seed: cfg.Simulation.Seed + 1,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("build allocator")
	}

	detector := pivot.NewDetector(cfg.Simulation.WindowSecs, cfg.Instrument.BaseBid, baseAsk)
	extractor := market.NewExtractor(cfg.Model.EWMAAlpha, cfg.Model.MomentumThreshold, cfg.Model.BreakoutTolerance)
	eng := engine.New(cfg.Instrument.Symbol, sampler, allocator, detector, extractor, log)

	sess := session.New(session.Config{
		InitialWindow:    time.Duration(cfg.Session.InitialReactionMs) * time.Millisecond,
		MinWindow:        time.Duration(cfg.Session.MinReactionMs) * time.Millisecond,
		DecreaseFactor:   cfg.Session.DecreaseFactor,
		CheckEvery:       cfg.Session.CheckEvery,
		SuccessThreshold: cfg.Session.SuccessThreshold,
		HistoryLimit:     cfg.Session.HistoryLimit,
	})

	var recorder *record.JSONLRecorder
	if cfg.Simulation.BooksPath != "" {
		recorder, err = record.NewJSONLRecorder(cfg.Simulation.BooksPath)
		if err != nil {
			log.Fatal().Err(err).Msg("open book recorder")
		}
		defer recorder.Close()
	}

	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	books := make(chan quote.Book, 16)
	go func() { _ = eng.Run(ctx, books) }()

	keys := make(chan session.Direction, 4)
	go readKeys(keys)

	log.Info().
		Str("symbol", cfg.Instrument.Symbol).
		Int64("seed", cfg.Simulation.Seed).
		Msg("trainer started; e<Enter> answers ENTRY, x<Enter> answers EXIT")

	var lastBook quote.Book
	seconds := 0
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("shutting down")
			writeStats(cfg, sess, log)
			return
		case book := <-books:
			lastBook = book
			seconds++
			if recorder != nil {
				recorder.Record(book)
			}
			hub.Broadcast(book)
			if sess.OnPivot(book.Pivot, time.Now()) {
				dir, _ := sess.Active()
				log.Info().
					Str("prompt", string(dir)).
					Float64("bid", book.Pivot.Bid).
					Float64("ask", book.Pivot.Ask).
					Dur("window", sess.ReactionWindow()).
					Msg("signal")
			}
			if cfg.Simulation.DurationSecs > 0 && seconds >= cfg.Simulation.DurationSecs {
				cancel()
			}
		case dir := <-keys:
			res, ok := sess.RecordReaction(dir, time.Now(), lastBook.NBBO.PriceBid, lastBook.NBBO.PriceAsk)
			if !ok {
				log.Warn().Str("key", string(dir)).Msg("no prompt pending")
				continue
			}
			log.Info().
				Bool("ok", res.OK).
				Dur("rt", res.RT).
				Float64("sig_price", res.SigPrice).
				Float64("user_price", res.UserPrice).
				Dur("window", sess.ReactionWindow()).
				Msg("reaction scored")
		}
	}
}

func loadModel(cfg *config.Config, log zerolog.Logger) *market.Model {
	file, err := os.Open(cfg.Model.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("open model file; run cmd/learn first")
	}
	defer file.Close()

	model, err := market.Import(market.Config{
		DpQuantum:     cfg.Model.DpQuantum,
		SpreadQuantum: cfg.Model.SpreadQuantum,
		SizeQuantum:   cfg.Model.SizeQuantum,
	}, file)
	if err != nil {
		log.Fatal().Err(err).Msg("import model")
	}
	return model
}

// readKeys maps line-buffered stdin to prompt answers.
func readKeys(out chan<- session.Direction) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "e":
			out <- session.Entry
		case "x":
			out <- session.Exit
		}
	}
}

func writeStats(cfg *config.Config, sess *session.Session, log zerolog.Logger) {
	if cfg.Session.StatsPath == "" {
		return
	}
	results := sess.Snapshot()
	if len(results) == 0 {
		return
	}
	if err := record.WriteStatsCSV(cfg.Session.StatsPath, results); err != nil {
		log.Error().Err(err).Msg("write stats")
		return
	}
	log.Info().Int("results", len(results)).Str("path", cfg.Session.StatsPath).Msg("stats written")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
