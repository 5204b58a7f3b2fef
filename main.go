package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/iburimskiy/cymatics/internal/config"
	"github.com/iburimskiy/cymatics/internal/game"
	"github.com/iburimskiy/cymatics/internal/telemetry"
)

func main() {
	configPath := flag.String("config", "", "path to config YAML file (empty = use defaults)")
	seed := flag.Int64("seed", 0, "random seed for the particle set (0 = time based)")
	particleCount := flag.Int("particles", 0, "override particles.count")
	workers := flag.Int("workers", 0, "override particles.workers")
	telemetryPath := flag.String("telemetry", "", "write per-tick stats to this CSV file")
	logJSON := flag.Bool("log-json", false, "log as JSON instead of text")
	dumpConfig := flag.String("dump-config", "", "write the effective config as YAML to this file (- for stdout) and exit")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] [audio file]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	var handler slog.Handler = slog.NewTextHandler(os.Stderr, nil)
	if *logJSON {
		handler = slog.NewJSONHandler(os.Stderr, nil)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)

	if err := run(logger, *configPath, *seed, *particleCount, *workers, *telemetryPath, *dumpConfig, flag.Arg(0)); err != nil {
		logger.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, configPath string, seed int64, particleCount, workers int, telemetryPath, dumpPath, audioPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if particleCount > 0 {
		cfg.Particles.Count = particleCount
	}
	if workers > 0 {
		cfg.Particles.Workers = workers
	}
	if dumpPath != "" {
		if err := cfg.Validate(); err != nil {
			return err
		}
		return dumpConfig(cfg, dumpPath)
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	csv, err := telemetry.CreateCSV(telemetryPath)
	if err != nil {
		return err
	}

	g, err := game.New(game.Options{
		Config:    cfg,
		Rand:      rand.New(rand.NewSource(seed)),
		Telemetry: csv,
		Logger:    logger,
	})
	if err != nil {
		_ = csv.Close()
		return err
	}
	defer func() {
		if err := g.Close(); err != nil {
			logger.Error("shutdown", "err", err)
		}
	}()

	logger.Info("starting",
		"seed", seed,
		"particles", cfg.Particles.Count,
		"workers", cfg.Particles.Workers,
		"size", fmt.Sprintf("%dx%d", cfg.Screen.Width, cfg.Screen.Height),
	)

	if audioPath != "" {
		if err := g.Open(audioPath); err != nil {
			// Stay idle on failure
			logger.Error("opening audio file", "file", audioPath, "err", err)
		}
	}

	ebiten.SetWindowSize(cfg.Screen.Width, cfg.Screen.Height)
	ebiten.SetWindowTitle(cfg.Screen.Title)
	if cfg.Screen.Resizable {
		ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	}

	if err := ebiten.RunGame(g); err != nil && !errors.Is(err, ebiten.Termination) {
		return err
	}
	return nil
}

func dumpConfig(cfg *config.Config, path string) error {
	if path == "-" {
		return cfg.Dump(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating config dump: %w", err)
	}
	if err := cfg.Dump(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
