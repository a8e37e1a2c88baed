package engine

import (
	"errors"
	"testing"
	"time"

	"pantry-exchange/internal/api"
	"pantry-exchange/internal/game"
	"pantry-exchange/pkg/types"
)

func TestCreateSessionTwiceFails(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)

	if _, err := e.createSession(""); err != nil {
		t.Fatalf("createSession: %v", err)
	}
	if _, err := e.createSession(""); !errors.Is(err, game.ErrAlreadyActive) {
		t.Errorf("second createSession err = %v, want ErrAlreadyActive", err)
	}
}

func TestCreateSessionAfterEndedSucceeds(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)

	alice, _ := joinPair(t, e)
	if err := e.startGame(alice); err != nil {
		t.Fatalf("startGame: %v", err)
	}
	e.endSession(time.Now().UTC())

	if _, err := e.createSession(""); err != nil {
		t.Errorf("createSession after ended: %v", err)
	}
}

func TestJoinValidation(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)

	if _, err := e.join("alice"); !errors.Is(err, game.ErrNoSession) {
		t.Errorf("join without session err = %v, want ErrNoSession", err)
	}

	joinPair(t, e)

	if _, err := e.join("  "); !errors.Is(err, game.ErrEmptyName) {
		t.Errorf("blank name err = %v, want ErrEmptyName", err)
	}
	if _, err := e.join("ALICE"); !errors.Is(err, game.ErrNameTaken) {
		t.Errorf("case-insensitive duplicate err = %v, want ErrNameTaken", err)
	}
}

func TestJoinFullSession(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	e.cfg.Game.MaxPlayers = 2

	joinPair(t, e)

	if _, err := e.join("carol"); !errors.Is(err, game.ErrSessionFull) {
		t.Errorf("join full err = %v, want ErrSessionFull", err)
	}
}

func TestJoinGrantsStartingHoldings(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)

	if _, err := e.createSession(""); err != nil {
		t.Fatalf("createSession: %v", err)
	}
	state, err := e.join("alice")
	if err != nil {
		t.Fatalf("join: %v", err)
	}

	if state.Player.Cash != 100 {
		t.Errorf("cash = %d, want 100", state.Player.Cash)
	}
	v := game.InventoryValue(state.Player.Inventory, e.cfg.Game.ScrapValues)
	if float64(v) < 40 || float64(v) > 60 {
		t.Errorf("inventory value = %d, want within 50 ± 20%%", v)
	}
}

func TestNameReusableAfterLeave(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)

	alice, _ := joinPair(t, e)
	if err := e.leave(alice); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if _, err := e.join("alice"); err != nil {
		t.Errorf("rejoin with freed name: %v", err)
	}
}

func TestHostMigrationOnLeave(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)

	alice, bob := joinPair(t, e)
	if e.session.HostID != alice {
		t.Fatalf("host = %s, want first joiner", e.session.HostID)
	}

	if err := e.leave(alice); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if e.session.HostID != bob {
		t.Errorf("host after leave = %s, want %s", e.session.HostID, bob)
	}
}

func TestStartGameGuards(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)

	if err := e.startGame("x"); !errors.Is(err, game.ErrNoSession) {
		t.Errorf("start without session err = %v, want ErrNoSession", err)
	}

	if _, err := e.createSession(""); err != nil {
		t.Fatalf("createSession: %v", err)
	}
	a, _ := e.join("alice")

	if err := e.startGame(a.Player.ID); !errors.Is(err, game.ErrTooFewPlayers) {
		t.Errorf("start with one player err = %v, want ErrTooFewPlayers", err)
	}

	b, _ := e.join("bob")
	if err := e.startGame(b.Player.ID); !errors.Is(err, game.ErrNotHost) {
		t.Errorf("non-host start err = %v, want ErrNotHost", err)
	}

	if err := e.startGame(a.Player.ID); err != nil {
		t.Fatalf("host start: %v", err)
	}
	if e.session.Status != types.SessionRunning {
		t.Errorf("status = %s, want running", e.session.Status)
	}

	// No joining or leaving mid-game.
	if _, err := e.join("carol"); !errors.Is(err, game.ErrNotLobby) {
		t.Errorf("join while running err = %v, want ErrNotLobby", err)
	}
	if err := e.leave(a.Player.ID); !errors.Is(err, game.ErrNotLobby) {
		t.Errorf("leave while running err = %v, want ErrNotLobby", err)
	}
	if err := e.startGame(a.Player.ID); !errors.Is(err, game.ErrNotLobby) {
		t.Errorf("double start err = %v, want ErrNotLobby", err)
	}
}

func TestEndSessionSweepsBooksAndScores(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)

	alice, bob := joinPair(t, e)
	if err := e.startGame(alice); err != nil {
		t.Fatalf("startGame: %v", err)
	}
	setHoldings(t, e, alice, 100, map[string]int64{"bread": 2})
	setHoldings(t, e, bob, 100, map[string]int64{"meat": 1})

	if _, err := e.submitOrder(alice, api.OrderRequest{
		Product: "bread", Side: types.SideSell, Type: types.OrderTypeLimit, Qty: 1, Price: 10,
	}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	e.endSession(time.Now().UTC())

	if e.session.Status != types.SessionEnded {
		t.Fatalf("status = %s, want ended", e.session.Status)
	}
	if e.books["bread"].Len() != 0 {
		t.Error("resting orders must be swept at game end")
	}
	p, _ := e.ledger.Get(alice)
	if n := len(p.OpenOrders()); n != 0 {
		t.Errorf("open orders after end = %d, want 0", n)
	}
	// Swept, not filled: alice keeps her bread.
	if p.Inventory["bread"] != 2 {
		t.Errorf("bread = %d, want 2", p.Inventory["bread"])
	}
}

func TestHandleTickEndsExpiredGame(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	e.cfg.Game.DurationSeconds = 1

	alice, _ := joinPair(t, e)
	if err := e.startGame(alice); err != nil {
		t.Fatalf("startGame: %v", err)
	}
	// Backdate the start past the game duration.
	e.session.StartedAt = e.session.StartedAt.Add(-2 * time.Second)

	e.handleTick()

	if e.session.Status != types.SessionEnded {
		t.Errorf("status = %s, want ended after expiry tick", e.session.Status)
	}
}

func TestResetClearsEverything(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)

	alice, _ := joinPair(t, e)
	if err := e.startGame(alice); err != nil {
		t.Fatalf("startGame: %v", err)
	}
	if err := e.reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}

	if e.session != nil {
		t.Error("session should be nil after reset")
	}
	if e.ledger.Len() != 0 {
		t.Errorf("ledger len = %d, want 0", e.ledger.Len())
	}
	if _, err := e.createSession(""); err != nil {
		t.Errorf("createSession after reset: %v", err)
	}
}

func TestSweepParticipantInLobbyLeaves(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)

	alice, bob := joinPair(t, e)
	e.sweepParticipant(alice)

	if _, ok := e.ledger.Get(alice); ok {
		t.Error("lobby disconnect should remove the participant")
	}
	if e.session.HostID != bob {
		t.Errorf("host = %s, want migrated to %s", e.session.HostID, bob)
	}
}

func TestSweepParticipantMidGameCancelsOrders(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)

	alice, bob := joinPair(t, e)
	if err := e.startGame(alice); err != nil {
		t.Fatalf("startGame: %v", err)
	}
	setHoldings(t, e, bob, 100, map[string]int64{"bread": 5})
	res, err := e.submitOrder(bob, api.OrderRequest{
		Product: "bread", Side: types.SideSell, Type: types.OrderTypeLimit, Qty: 5, Price: 10,
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	e.sweepParticipant(bob)

	if _, ok := e.ledger.Get(bob); !ok {
		t.Fatal("mid-game disconnect must keep the participant for scoring")
	}
	if e.books["bread"].Contains(res.Order.ID) {
		t.Error("resting order should be cancelled on disconnect")
	}
	if e.orders[res.Order.ID].Status != types.OrderCancelled {
		t.Errorf("order status = %s, want cancelled", e.orders[res.Order.ID].Status)
	}
}

func TestSnapshotProjection(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)

	snap := e.snapshot()
	if snap.Session != nil {
		t.Error("session should be nil before creation")
	}
	if len(snap.Books) != len(e.cfg.Game.Products) {
		t.Errorf("books = %d, want %d", len(snap.Books), len(e.cfg.Game.Products))
	}
	if snap.Config.SetValue != 30 {
		t.Errorf("config set value = %d, want 30", snap.Config.SetValue)
	}

	alice, _ := joinPair(t, e)
	snap = e.snapshot()
	if snap.Session == nil || snap.Session.Status != types.SessionLobby {
		t.Fatal("snapshot should carry the lobby session")
	}
	if len(snap.Session.Players) != 2 {
		t.Errorf("players = %d, want 2", len(snap.Session.Players))
	}
	if snap.Session.HostID != alice {
		t.Errorf("host = %s, want %s", snap.Session.HostID, alice)
	}
}
