// Package api is the HTTP/WebSocket transport for the exchange.
//
// Clients connect to /ws, send command frames, and receive synchronous
// replies plus the asynchronous event stream (config, session state, books,
// trades, timer, leaderboard, final scores). The engine is consumed through
// the Exchange interface; the transport holds no handles into engine state.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"pantry-exchange/internal/config"
)

// Server runs the HTTP/WebSocket API for the exchange.
type Server struct {
	cfg      config.ServerConfig
	exchange Exchange
	hub      *Hub
	handlers *Handlers
	server   *http.Server
	logger   *slog.Logger
}

// NewServer creates a new API server wired to the engine.
func NewServer(cfg config.ServerConfig, exchange Exchange, logger *slog.Logger) *Server {
	hub := NewHub(exchange.Disconnect, logger)
	handlers := NewHandlers(exchange, hub, cfg.AllowedOrigins, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", handlers.HandleHealth)
	mux.HandleFunc("/api/snapshot", handlers.HandleSnapshot)
	mux.HandleFunc("/ws", handlers.HandleWebSocket)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		cfg:      cfg,
		exchange: exchange,
		hub:      hub,
		handlers: handlers,
		server:   server,
		logger:   logger.With("component", "api-server"),
	}
}

// Start runs the hub, the event consumer, and the HTTP listener. Blocks
// until the listener stops.
func (s *Server) Start() error {
	go s.hub.Run()
	go s.consumeEvents()

	s.logger.Info("server starting", "addr", s.server.Addr)

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Stop gracefully stops the HTTP listener.
func (s *Server) Stop() error {
	s.logger.Info("stopping server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return s.server.Shutdown(ctx)
}

// consumeEvents drains the engine's outbound queue into the hub.
func (s *Server) consumeEvents() {
	for evt := range s.exchange.Events() {
		s.hub.Dispatch(evt)
	}
}
