package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/lao-tseu-is-alive/go-vicsek/internal/simulation"
	"github.com/tochemey/goakt/v3/log"
)

func main() {
	configFile := flag.String("config", "", "JSON, YAML or TOML configuration file")
	backend := flag.String("backend", "", "kernel backend: sequential, parallel, masked or distributed")
	workers := flag.Int("workers", 0, "parallel workers or distributed ranks (0 = one per CPU)")
	seed := flag.Uint64("seed", 0, "random seed")
	diagnostics := flag.Bool("diagnostics", false, "print step, agent, x, y, vx, vy for every agent and step")
	telemetryFile := flag.String("telemetry", "", "write per-step order parameter CSV to this file")
	unit := flag.String("unit", "", "timing report unit: s, ms, us or ns")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] [N]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	level := log.InfoLevel
	if *verbose {
		level = log.DebugLevel
	}
	logger := log.New(level, os.Stderr)

	cfg := simulation.DefaultConfig()
	if *configFile != "" {
		loaded, err := simulation.LoadConfig(*configFile)
		if err != nil {
			logger.Errorf("loading %s: %v", *configFile, err)
			os.Exit(1)
		}
		cfg = loaded
	}

	// Flags given on the command line override the file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "backend":
			cfg.Backend = strings.ToLower(*backend)
		case "workers":
			cfg.Workers = *workers
		case "seed":
			cfg.Seed = *seed
		case "diagnostics":
			cfg.Diagnostics = *diagnostics
		case "telemetry":
			cfg.TelemetryFile = *telemetryFile
		case "unit":
			cfg.TimeUnit = *unit
		}
	})
	cfg.Agents = simulation.AgentsFromArgs(flag.Args(), cfg.Agents)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := simulation.Run(ctx, cfg, logger, os.Stdout); err != nil {
		logger.Errorf("simulation failed: %v", err)
		stop()
		os.Exit(1)
	}
}
