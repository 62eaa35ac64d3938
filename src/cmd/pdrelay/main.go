package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"pdrelay/src/internal/config"
	"pdrelay/src/internal/version"

	"github.com/lixenwraith/log"
)

var logger *log.Logger

func main() {
	// Parse flags first to get quiet mode early
	overrides, err := parseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Initialize output handler with quiet mode
	InitOutputHandler(overrides.Quiet)

	// Handle version flag
	if *showVersion {
		fmt.Println(version.String())
		os.Exit(0)
	}

	// Set config file environment if specified
	if *configFile != "" {
		os.Setenv("PDRELAY_CONFIG_FILE", *configFile)
	}

	// Load configuration with CLI overrides
	cfg, err := config.LoadWithCLI(os.Args[1:], overrides)
	if err != nil {
		if *configFile != "" && strings.Contains(err.Error(), "not found") {
			FatalError(2, "Config file not found: %s\n", *configFile)
		}
		FatalError(1, "Failed to load config: %v\n", err)
	}

	// Initialize logger with quiet mode awareness
	if err := initializeLogger(cfg); err != nil {
		FatalError(1, "Failed to initialize logger: %v\n", err)
	}
	defer shutdownLogger()

	logger.Info("msg", "pdrelay starting",
		"version", version.String(),
		"since", cfg.PagerDuty.Since,
		"until", cfg.PagerDuty.Until,
		"destination", cfg.Address())

	// A run normally proceeds to completion; signals cut it short
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	relay, udpSink, err := bootstrapRelay(cfg)
	if err != nil {
		logger.Error("msg", "Failed to bootstrap relay", "error", err)
		FatalError(1, "Failed to bootstrap relay: %v\n", err)
	}
	defer udpSink.Close()

	if err := relay.Run(ctx); err != nil {
		logger.Error("msg", "Relay run failed", "error", err)
		FatalError(1, "Relay run failed: %v\n", err)
	}

	stats := relay.GetStats()
	Print("Relayed %v entries across %v pages to %s\n",
		stats["entries_sent"], stats["pages"], cfg.Address())
}

func shutdownLogger() {
	if logger != nil {
		if err := logger.Shutdown(2 * time.Second); err != nil {
			// Best effort - can't log the shutdown error
			Error("Logger shutdown error: %v\n", err)
		}
	}
}
