package api

import (
	"time"

	"pantry-exchange/internal/game"
	"pantry-exchange/pkg/types"
)

// Event is the wrapper for everything pushed to observers. Target selects a
// single participant; an empty Target broadcasts to every connected client.
// Each event is a coherent point-in-time snapshot, never a delta that
// assumes client-side reconciliation.
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Target    string    `json:"-"`
	Data      any       `json:"data"`
}

const (
	EventConfig       = "config"
	EventSessionState = "session_state"
	EventPlayerState  = "player_state"
	EventOrderBooks   = "order_books"
	EventLeaderboard  = "leaderboard"
	EventTimer        = "timer"
	EventTrades       = "trades"
	EventGameEnded    = "game_ended"
	EventFinalScore   = "final_score"
)

// ConfigPayload is sent once per subscription.
type ConfigPayload struct {
	Products            []string         `json:"products"`
	ScrapValues         map[string]int64 `json:"scrap_values"`
	SetRecipe           map[string]int64 `json:"set_recipe"`
	SetValue            int64            `json:"set_value"`
	StartingCash        int64            `json:"starting_cash"`
	GameDurationSeconds int              `json:"game_duration_seconds"`
	MaxPlayers          int              `json:"max_players"`
	MinOrderSize        int64            `json:"min_order_size"`
	MaxOrderSize        int64            `json:"max_order_size"`
	ShowOrderNames      bool             `json:"show_order_names"`
}

// PlayerSummary is the public view of a participant.
type PlayerSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SessionState is broadcast on every lifecycle transition and participant
// set change. A nil payload (JSON null) means no session exists.
type SessionState struct {
	SessionID        string              `json:"session_id"`
	Status           types.SessionStatus `json:"status"`
	HostID           string              `json:"host_id"`
	Players          []PlayerSummary     `json:"players"`
	RemainingSeconds int64               `json:"remaining_seconds"`
}

// PlayerState is targeted at one participant after any mutation that
// affects them.
type PlayerState struct {
	Player     game.Participant `json:"player"`
	OpenOrders []game.Order     `json:"open_orders"`
}

// BooksPayload carries a full depth snapshot of every product's book.
type BooksPayload struct {
	Books []types.BookDepth `json:"books"`
}

// LeaderboardPayload is broadcast every few timer ticks and at game end.
type LeaderboardPayload struct {
	Rows []game.LeaderboardRow `json:"rows"`
}

// TimerPayload is broadcast once per timer tick while running.
type TimerPayload struct {
	RemainingSeconds int64 `json:"remaining_seconds"`
}

// TradesPayload is the batch of trades one submission produced.
type TradesPayload struct {
	Trades []game.Trade `json:"trades"`
}

// GameEndedPayload carries the final ranked scores.
type GameEndedPayload struct {
	Scores []game.ScoreBreakdown `json:"scores"`
}

// FinalScorePayload is targeted at each participant at game end.
type FinalScorePayload struct {
	Score game.ScoreBreakdown `json:"score"`
}
