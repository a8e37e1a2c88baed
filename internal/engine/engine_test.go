package engine

import (
	"io"
	"log/slog"
	"testing"

	"pantry-exchange/internal/config"
	"pantry-exchange/internal/store"
)

func testConfig() config.Config {
	return config.Config{
		Server: config.ServerConfig{Port: 8080},
		Game: config.GameConfig{
			DurationSeconds:                300,
			StartingCash:                   100,
			MaxPlayers:                     8,
			Products:                       []string{"bread", "veggies", "cheese", "meat"},
			ScrapValues:                    map[string]int64{"bread": 2, "veggies": 4, "cheese": 6, "meat": 8},
			SetValue:                       30,
			SetRecipe:                      map[string]int64{"bread": 1, "veggies": 1, "cheese": 1, "meat": 1},
			StartingInventoryTargetValue:   50,
			StartingInventoryRandomization: 0.2,
			MinOrderSize:                   1,
			MaxOrderSize:                   100,
			ShowOrderNames:                 true,
			Seed:                           42,
		},
		Store:   config.StoreConfig{DataDir: "testdata"},
		Logging: config.LoggingConfig{Level: "error"},
	}
}

// newTestEngine returns an engine whose handlers are driven directly from
// the test goroutine, without the run loop. Handlers are plain functions of
// engine state, so single-threaded tests exercise exactly what the loop
// serializes in production.
func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(testConfig(), store.Discard{}, logger)
}

// joinPair creates a session with alice (host) and bob and returns their ids.
func joinPair(t *testing.T, e *Engine) (alice, bob string) {
	t.Helper()
	if _, err := e.createSession(""); err != nil {
		t.Fatalf("createSession: %v", err)
	}
	a, err := e.join("alice")
	if err != nil {
		t.Fatalf("join alice: %v", err)
	}
	b, err := e.join("bob")
	if err != nil {
		t.Fatalf("join bob: %v", err)
	}
	return a.Player.ID, b.Player.ID
}

// setHoldings pins a participant's balances so matching tests are exact.
func setHoldings(t *testing.T, e *Engine, pid string, cash int64, inv map[string]int64) {
	t.Helper()
	p, ok := e.ledger.Get(pid)
	if !ok {
		t.Fatalf("unknown participant %s", pid)
	}
	p.Cash = cash
	for product := range p.Inventory {
		p.Inventory[product] = 0
	}
	for product, n := range inv {
		p.Inventory[product] = n
	}
}

// totalCash sums every participant's cash for conservation checks.
func totalCash(e *Engine) int64 {
	var total int64
	for _, p := range e.ledger.All() {
		total += p.Cash
	}
	return total
}

func totalInventory(e *Engine, product string) int64 {
	var total int64
	for _, p := range e.ledger.All() {
		total += p.Inventory[product]
	}
	return total
}
