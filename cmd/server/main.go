// Pantry Exchange — a real-time multiplayer trading game built on a
// continuous double auction.
//
// Architecture:
//
//	main.go              — entry point: loads config, starts engine + API, waits for SIGINT/SIGTERM
//	engine/engine.go     — single-writer core: one goroutine owns all game state, commands queue onto it
//	engine/session.go    — session lifecycle: lobby, join/leave, start, timer, endgame scoring
//	engine/match.go      — order validation, price-time matching, integer settlement, cancels
//	game/                — pure domain: ledger, books (skiplist levels), inventory generation, scoring
//	api/server.go        — HTTP/WebSocket transport over the Exchange interface
//	api/stream.go        — hub fan-out: broadcasts plus per-participant targeted events
//	store/store.go       — append-only JSONL record log, optional remote collector
//
// How the game works:
//
//	Players start with cash and a randomized inventory of products. For a
//	fixed number of seconds they trade against each other on per-product
//	order books. At the bell, complete recipe sets score a bonus, leftovers
//	score scrap value, and the highest total wins.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"pantry-exchange/internal/api"
	"pantry-exchange/internal/config"
	"pantry-exchange/internal/engine"
	"pantry-exchange/internal/store"
)

func main() {
	// Load config
	cfgPath := "configs/config.yaml"
	if p := os.Getenv("PANTRY_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("failed to load config", "error", err, "path", cfgPath)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	// Set up logger
	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Logging.Level)}
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)

	// Open the record sink: local JSONL log, plus a remote collector when
	// configured.
	logSink, err := store.OpenLog(cfg.Store.DataDir)
	if err != nil {
		logger.Error("failed to open record log", "error", err, "dir", cfg.Store.DataDir)
		os.Exit(1)
	}
	var sink store.Sink = logSink
	if cfg.Store.RemoteURL != "" {
		sink = store.Fan(logSink, store.NewRemote(cfg.Store.RemoteURL, logger))
		logger.Info("shipping records to remote collector", "url", cfg.Store.RemoteURL)
	}

	// Create and start engine
	eng := engine.New(*cfg, sink, logger)
	eng.Start()

	apiServer := api.NewServer(cfg.Server, eng, logger)
	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Error("api server failed", "error", err)
		}
	}()

	logger.Info("pantry exchange started",
		"url", fmt.Sprintf("http://localhost:%d", cfg.Server.Port),
		"products", cfg.Game.Products,
		"game_duration_seconds", cfg.Game.DurationSeconds,
		"max_players", cfg.Game.MaxPlayers,
	)

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("received shutdown signal", "signal", sig.String())

	// Stop the transport first so no new commands arrive mid-shutdown.
	if err := apiServer.Stop(); err != nil {
		logger.Error("failed to stop api server", "error", err)
	}

	eng.Stop()
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
