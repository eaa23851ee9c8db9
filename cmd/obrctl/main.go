package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/houseofai/orderbook-reflex/internal/config"
)

const defaultConfigPath = "internal/config/config.yaml"

func main() {
	reader := bufio.NewReader(os.Stdin)

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	for {
		fmt.Println("\n=== Order Book Reflex Control ===")
		fmt.Println("1) Show configuration summary")
		fmt.Println("2) Edit instrument and simulation knobs")
		fmt.Println("3) Edit reflex session knobs")
		fmt.Println("4) Save config")
		fmt.Println("5) Run learning pass")
		fmt.Println("6) Launch trainer")
		fmt.Println("7) Reload config from disk")
		fmt.Println("0) Exit")
		fmt.Print("Select option: ")

		input, _ := reader.ReadString('\n')
		choice := strings.TrimSpace(input)

		switch choice {
		case "1":
			printSummary(cfg)
		case "2":
			editSimulation(reader, cfg)
		case "3":
			editSession(reader, cfg)
		case "4":
			if err := saveConfig(cfg); err != nil {
				fmt.Fprintf(os.Stderr, "save failed: %v\n", err)
			} else {
				fmt.Println("config saved")
			}
		case "5":
			runCommand(reader, "./cmd/learn")
		case "6":
			runCommand(reader, "./cmd/trainer")
		case "7":
			reloaded, err := loadConfig()
			if err != nil {
				fmt.Fprintf(os.Stderr, "reload failed: %v\n", err)
			} else {
				cfg = reloaded
				fmt.Println("config reloaded")
			}
		case "0":
			return
		default:
			fmt.Println("unknown option")
		}
	}
}

func printSummary(cfg *config.Config) {
	fmt.Println("\n--- Configuration Summary ---")
	fmt.Printf("Instrument: %s (tick $%.2f, lot %d)\n", cfg.Instrument.Symbol, cfg.Instrument.TickSize, cfg.Instrument.LotSize)
	fmt.Printf("Opening quote: %.2f / %.2f\n", cfg.Instrument.BaseBid, cfg.Instrument.BaseBid+cfg.Instrument.BaseSpread)
	fmt.Printf("Model path: %s\n", cfg.Model.Path)
	fmt.Printf("Venues: %d | offset levels: %d\n", len(cfg.Venues.Shares), len(cfg.Venues.Offsets))
	fmt.Printf("Pivot window: %ds | seed: %d | duration: %ds (0 = until Ctrl+C)\n",
		cfg.Simulation.WindowSecs, cfg.Simulation.Seed, cfg.Simulation.DurationSecs)
	fmt.Printf("Reaction window: %dms shrinking x%.2f to %dms\n",
		cfg.Session.InitialReactionMs, cfg.Session.DecreaseFactor, cfg.Session.MinReactionMs)
	fmt.Printf("Difficulty check: %.0f%% over last %d prompts\n",
		cfg.Session.SuccessThreshold*100, cfg.Session.CheckEvery)
	fmt.Printf("Books: %s | stats: %s\n", cfg.Simulation.BooksPath, cfg.Session.StatsPath)
}

func editSimulation(reader *bufio.Reader, cfg *config.Config) {
	fmt.Println("\n--- Edit Instrument / Simulation ---")
	cfg.Instrument.BaseBid = promptFloat(reader, "Opening bid", cfg.Instrument.BaseBid)
	cfg.Instrument.BaseSpread = promptFloat(reader, "Opening spread", cfg.Instrument.BaseSpread)
	cfg.Simulation.WindowSecs = promptInt(reader, "Pivot window (seconds)", cfg.Simulation.WindowSecs)
	cfg.Simulation.Seed = int64(promptInt(reader, "RNG seed", int(cfg.Simulation.Seed)))
	cfg.Simulation.DurationSecs = promptInt(reader, "Run duration (seconds, 0 = unbounded)", cfg.Simulation.DurationSecs)
}

func editSession(reader *bufio.Reader, cfg *config.Config) {
	fmt.Println("\n--- Edit Reflex Session ---")
	cfg.Session.InitialReactionMs = promptInt(reader, "Initial reaction window (ms)", cfg.Session.InitialReactionMs)
	cfg.Session.MinReactionMs = promptInt(reader, "Minimum reaction window (ms)", cfg.Session.MinReactionMs)
	cfg.Session.DecreaseFactor = promptFloat(reader, "Window decrease factor", cfg.Session.DecreaseFactor)
	cfg.Session.CheckEvery = promptInt(reader, "Prompts per difficulty check", cfg.Session.CheckEvery)
	cfg.Session.SuccessThreshold = promptPercent(reader, "Success threshold (%)", cfg.Session.SuccessThreshold)
}

func runCommand(reader *bufio.Reader, pkg string) {
	fmt.Printf("Launching %s (Ctrl+C to stop)...\n", pkg)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cmd := exec.CommandContext(ctx, "go", "run", pkg)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin

	if err := cmd.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start %s: %v\n", pkg, err)
		return
	}

	go func() {
		_ = cmd.Wait()
		cancel()
	}()

	fmt.Print("\nPress ENTER to stop and return to menu...")
	_, _ = reader.ReadString('\n')
	cancel()
	time.Sleep(500 * time.Millisecond)
}

func promptFloat(reader *bufio.Reader, label string, current float64) float64 {
	fmt.Printf("%s [%.2f]: ", label, current)
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return current
	}
	val, err := strconv.ParseFloat(line, 64)
	if err != nil {
		fmt.Printf("invalid number, keeping %.2f\n", current)
		return current
	}
	return val
}

func promptInt(reader *bufio.Reader, label string, current int) int {
	fmt.Printf("%s [%d]: ", label, current)
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return current
	}
	val, err := strconv.Atoi(line)
	if err != nil {
		fmt.Printf("invalid number, keeping %d\n", current)
		return current
	}
	return val
}

func promptPercent(reader *bufio.Reader, label string, current float64) float64 {
	pct := promptFloat(reader, label, current*100)
	return pct / 100
}

func loadConfig() (*config.Config, error) {
	return config.Load(locateConfig())
}

func saveConfig(cfg *config.Config) error {
	return config.Save(locateConfig(), cfg)
}

func locateConfig() string {
	if path := os.Getenv("OBR_CONFIG"); path != "" {
		return path
	}
	if filepath.IsAbs(defaultConfigPath) {
		return defaultConfigPath
	}
	return filepath.Clean(defaultConfigPath)
}
