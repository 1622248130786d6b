// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/bureau-foundation/safetybus/lib/buslog"
	"github.com/bureau-foundation/safetybus/lib/busservice"
	"github.com/bureau-foundation/safetybus/lib/config"
	"github.com/bureau-foundation/safetybus/lib/version"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var showVersion bool
	flag.BoolVar(&showVersion, "version", false, "print version information and exit")

	var (
		configPath string
		socketPath string
		memoryOnly bool
	)
	flag.StringVar(&configPath, "config", "", "path to safetybus.yaml (default: $SAFETYBUS_CONFIG, then built-in development defaults)")
	flag.StringVar(&socketPath, "socket", "", "Unix socket path (overrides config)")
	flag.BoolVar(&memoryOnly, "memory", false, "keep logs in memory only, without journals (overrides config)")
	flag.Parse()

	if showVersion {
		fmt.Printf("safetybus-service %s\n", version.Info())
		return nil
	}

	logger := newLogger()

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if socketPath != "" {
		cfg.SocketPath = socketPath
	}
	if memoryOnly {
		cfg.Service.Persist = false
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.EnsurePaths(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := newStore(cfg)
	defer store.Close()

	if cfg.Service.Persist {
		replayed, err := busservice.PreloadJournals(store, cfg.Service.JournalDir)
		if err != nil {
			return err
		}
		if replayed > 0 {
			logger.Info("journals replayed", "buses", replayed)
		}
	}

	server, err := busservice.NewServer(busservice.ServerOptions{
		Store:      store,
		SocketPath: cfg.SocketPath,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	// Start the socket listener in a goroutine.
	socketDone := make(chan error, 1)
	go func() {
		socketDone <- server.Serve(ctx)
	}()

	logger.Info("bus service running",
		"socket", cfg.SocketPath,
		"persist", cfg.Service.Persist,
		"journal_dir", cfg.Service.JournalDir,
		"buses", len(store.List()),
	)

	// Wait for shutdown signal.
	<-ctx.Done()
	logger.Info("shutting down")

	// Wait for the socket listener to drain active connections.
	if err := <-socketDone; err != nil {
		logger.Error("socket listener error", "error", err)
	}

	return nil
}

// newLogger builds the daemon's JSON logger and installs it as the
// slog default.
func newLogger() *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)
	return logger
}

// loadConfig resolves configuration with --config taking precedence
// over SAFETYBUS_CONFIG, falling back to built-in development
// defaults so the service runs without any configuration.
func loadConfig(flagPath string) (*config.Config, error) {
	if flagPath != "" {
		return config.LoadFile(flagPath)
	}
	if os.Getenv("SAFETYBUS_CONFIG") != "" {
		return config.Load()
	}
	return config.Default(), nil
}

// newStore builds the per-bus log store. With persistence enabled,
// each bus's log is backed by a journal file in the configured
// directory; creating a log replays any existing journal first.
func newStore(cfg *config.Config) *buslog.Store {
	if !cfg.Service.Persist {
		return buslog.NewStore(nil)
	}
	return busservice.NewJournalStore(cfg.Service.JournalDir)
}
