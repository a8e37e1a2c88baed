package engine

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"pantry-exchange/internal/api"
	"pantry-exchange/internal/game"
	"pantry-exchange/pkg/types"
)

// lifecycleEvent is the persisted form of admissions, departures, starts,
// ends, and resets.
type lifecycleEvent struct {
	Event         string `json:"event"`
	SessionID     string `json:"session_id,omitempty"`
	ParticipantID string `json:"participant_id,omitempty"`
	Name          string `json:"name,omitempty"`
}

func (e *Engine) createSession(requesterID string) (string, error) {
	if e.session != nil && e.session.Status != types.SessionEnded {
		return "", game.ErrAlreadyActive
	}

	_, now := e.clock.Tick()
	e.freshState()
	// Host is assigned on first join; the creator has no participant yet.
	e.session = game.NewSession("", now)

	e.persist("session", e.session.Clone())
	e.persist("event", lifecycleEvent{Event: "created", SessionID: e.session.ID, ParticipantID: requesterID})
	e.emitSessionState()

	e.logger.Info("session created", "session_id", e.session.ID)
	return e.session.ID, nil
}

func (e *Engine) join(name string) (api.PlayerState, error) {
	if e.session == nil {
		return api.PlayerState{}, game.ErrNoSession
	}
	if e.session.Status != types.SessionLobby {
		return api.PlayerState{}, game.ErrNotLobby
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return api.PlayerState{}, game.ErrEmptyName
	}
	if len(e.session.Participants) >= e.cfg.Game.MaxPlayers {
		return api.PlayerState{}, game.ErrSessionFull
	}
	// Uniqueness is case-insensitive among currently joined players only;
	// a name freed by leave may be reused.
	for _, p := range e.ledger.All() {
		if strings.EqualFold(p.Name, name) {
			return api.PlayerState{}, game.ErrNameTaken
		}
	}

	_, now := e.clock.Tick()
	inv := game.GenerateInventory(
		e.rng,
		e.cfg.Game.Products,
		e.cfg.Game.ScrapValues,
		e.cfg.Game.StartingInventoryTargetValue,
		e.cfg.Game.StartingInventoryRandomization,
	)
	p := game.NewParticipant(uuid.NewString(), name, e.cfg.Game.StartingCash, inv, now)

	e.ledger.Admit(p)
	e.session.AddParticipant(p.ID)
	if e.session.HostID == "" {
		e.session.HostID = p.ID
	}

	e.persist("participant", p.Snapshot())
	e.persist("event", lifecycleEvent{Event: "joined", SessionID: e.session.ID, ParticipantID: p.ID, Name: name})
	e.emitSessionState()

	state := e.playerState(p)
	e.emit(api.EventPlayerState, p.ID, state)

	e.logger.Info("player joined", "name", name, "participant_id", p.ID, "players", e.ledger.Len())
	return state, nil
}

func (e *Engine) leave(pid string) error {
	if e.session == nil {
		return game.ErrNoSession
	}
	if e.session.Status != types.SessionLobby {
		return game.ErrNotLobby
	}
	p, ok := e.ledger.Get(pid)
	if !ok {
		return game.ErrUnknownPlayer
	}

	e.ledger.Remove(pid)
	e.session.RemoveParticipant(pid)
	if e.session.HostID == pid {
		// Host migration: earliest remaining participant takes over.
		e.session.HostID = ""
		if len(e.session.Participants) > 0 {
			e.session.HostID = e.session.Participants[0]
		}
	}

	e.persist("event", lifecycleEvent{Event: "left", SessionID: e.session.ID, ParticipantID: pid, Name: p.Name})
	e.emitSessionState()

	e.logger.Info("player left", "name", p.Name, "players", e.ledger.Len())
	return nil
}

func (e *Engine) startGame(pid string) error {
	if e.session == nil {
		return game.ErrNoSession
	}
	if e.session.Status != types.SessionLobby {
		return game.ErrNotLobby
	}
	if pid != e.session.HostID {
		return game.ErrNotHost
	}
	if len(e.session.Participants) < 2 {
		return game.ErrTooFewPlayers
	}

	_, now := e.clock.Tick()
	e.session.Status = types.SessionRunning
	e.session.StartedAt = now
	e.ticks = 0

	e.persist("session", e.session.Clone())
	e.persist("event", lifecycleEvent{Event: "started", SessionID: e.session.ID})
	e.emitSessionState()
	e.emitBooks()
	e.emitLeaderboard()

	e.logger.Info("game started", "session_id", e.session.ID, "players", e.ledger.Len(),
		"duration_seconds", e.cfg.Game.DurationSeconds)
	return nil
}

// handleTick runs once per second on the engine goroutine. It emits the
// timer event, periodically refreshes the live leaderboard, and ends the
// session exactly once when time runs out.
func (e *Engine) handleTick() {
	if e.session == nil || e.session.Status != types.SessionRunning {
		return
	}

	_, now := e.clock.Tick()
	e.ticks++

	remaining := e.session.Remaining(e.duration(), now)
	e.emit(api.EventTimer, "", api.TimerPayload{RemainingSeconds: int64(remaining / time.Second)})

	if remaining <= 0 {
		e.endSession(now)
		return
	}
	if e.ticks%5 == 0 {
		e.emitLeaderboard()
	}
}

// endSession sweeps every book, freezes the ledger behind the ended status,
// scores the game, and fans out the results.
func (e *Engine) endSession(now time.Time) {
	for _, product := range e.cfg.Game.Products {
		for _, o := range e.books[product].SweepCancel(now) {
			e.ledger.RemoveOpenOrder(o.ParticipantID, o.ID)
			e.persist("order", o.Clone())
		}
	}

	e.session.Status = types.SessionEnded
	e.session.EndedAt = now

	scores := game.FinalScores(e.ledger, e.cfg.Game.SetRecipe, e.cfg.Game.ScrapValues, e.cfg.Game.SetValue)

	e.persist("session", e.session.Clone())
	for _, p := range e.ledger.All() {
		e.persist("participant", p.Snapshot())
	}
	e.persist("event", lifecycleEvent{Event: "ended", SessionID: e.session.ID})

	e.emitSessionState()
	e.emitBooks()
	e.emit(api.EventGameEnded, "", api.GameEndedPayload{Scores: scores})
	for _, sc := range scores {
		e.emit(api.EventFinalScore, sc.ParticipantID, api.FinalScorePayload{Score: sc})
	}

	e.logger.Info("game ended", "session_id", e.session.ID, "trades", len(e.trades))
}

func (e *Engine) reset() error {
	if e.session != nil && e.session.Status == types.SessionRunning {
		_, now := e.clock.Tick()
		e.endSession(now)
	}

	sessionID := ""
	if e.session != nil {
		sessionID = e.session.ID
	}
	e.session = nil
	e.freshState()

	e.persist("event", lifecycleEvent{Event: "reset", SessionID: sessionID})
	e.emitSessionState()
	e.emitBooks()

	e.logger.Info("session reset")
	return nil
}

func (e *Engine) duration() time.Duration {
	return time.Duration(e.cfg.Game.DurationSeconds) * time.Second
}

// sessionState projects the current session; nil means no session exists.
func (e *Engine) sessionState() *api.SessionState {
	if e.session == nil {
		return nil
	}
	players := make([]api.PlayerSummary, 0, len(e.session.Participants))
	for _, pid := range e.session.Participants {
		if p, ok := e.ledger.Get(pid); ok {
			players = append(players, api.PlayerSummary{ID: p.ID, Name: p.Name})
		}
	}
	remaining := e.session.Remaining(e.duration(), time.Now().UTC())
	return &api.SessionState{
		SessionID:        e.session.ID,
		Status:           e.session.Status,
		HostID:           e.session.HostID,
		Players:          players,
		RemainingSeconds: int64(remaining / time.Second),
	}
}

func (e *Engine) emitSessionState() {
	e.emit(api.EventSessionState, "", e.sessionState())
}

func (e *Engine) bookDepths() []types.BookDepth {
	depths := make([]types.BookDepth, 0, len(e.cfg.Game.Products))
	for _, product := range e.cfg.Game.Products {
		depths = append(depths, e.books[product].Depth(e.cfg.Game.ShowOrderNames))
	}
	return depths
}

func (e *Engine) emitBooks() {
	e.emit(api.EventOrderBooks, "", api.BooksPayload{Books: e.bookDepths()})
}

func (e *Engine) emitLeaderboard() {
	rows := game.LiveLeaderboard(e.ledger, e.cfg.Game.SetRecipe, e.cfg.Game.ScrapValues)
	e.emit(api.EventLeaderboard, "", api.LeaderboardPayload{Rows: rows})
}

// playerState builds the targeted projection for one participant.
func (e *Engine) playerState(p *game.Participant) api.PlayerState {
	open := make([]game.Order, 0, 4)
	for _, oid := range p.OpenOrders() {
		if o, ok := e.orders[oid]; ok {
			open = append(open, o.Clone())
		}
	}
	sort.Slice(open, func(i, j int) bool { return open[i].Seq < open[j].Seq })
	return api.PlayerState{Player: p.Snapshot(), OpenOrders: open}
}

func (e *Engine) emitPlayerState(pid string) {
	if p, ok := e.ledger.Get(pid); ok {
		e.emit(api.EventPlayerState, pid, e.playerState(p))
	}
}

// snapshot assembles the full subscription projection.
func (e *Engine) snapshot() api.Snapshot {
	g := e.cfg.Game
	snap := api.Snapshot{
		Config: api.ConfigPayload{
			Products:            g.Products,
			ScrapValues:         g.ScrapValues,
			SetRecipe:           g.SetRecipe,
			SetValue:            g.SetValue,
			StartingCash:        g.StartingCash,
			GameDurationSeconds: g.DurationSeconds,
			MaxPlayers:          g.MaxPlayers,
			MinOrderSize:        g.MinOrderSize,
			MaxOrderSize:        g.MaxOrderSize,
			ShowOrderNames:      g.ShowOrderNames,
		},
		Session: e.sessionState(),
		Books:   e.bookDepths(),
	}
	if e.session != nil && e.session.Status != types.SessionLobby {
		snap.Leaderboard = game.LiveLeaderboard(e.ledger, g.SetRecipe, g.ScrapValues)
	}
	return snap
}
