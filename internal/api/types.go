package api

import (
	"pantry-exchange/internal/game"
	"pantry-exchange/pkg/types"
)

// Exchange is the engine surface the transport consumes. Every method is a
// synchronous command from the client's point of view; the engine serializes
// them internally. Events delivers the asynchronous fan-out stream.
type Exchange interface {
	CreateSession(requesterID string) (sessionID string, err error)
	Join(name string) (PlayerState, error)
	Leave(participantID string) error
	StartGame(participantID string) error
	SubmitOrder(participantID string, req OrderRequest) (SubmitResult, error)
	CancelOrder(participantID, orderID string) error
	Reset() error

	// Disconnect sweeps the participant's resting orders. Not an error path.
	Disconnect(participantID string)

	Snapshot() Snapshot
	Events() <-chan Event
}

// OrderRequest is the submit_order payload. Price is required for limit
// orders and ignored for market orders.
type OrderRequest struct {
	Product string          `json:"product"`
	Side    types.Side      `json:"side"`
	Type    types.OrderType `json:"type"`
	Qty     int64           `json:"qty"`
	Price   int64           `json:"price,omitempty"`
}

// SubmitResult is the reply to a successful submission: the order as it
// stands after matching plus the trades the submission produced.
type SubmitResult struct {
	Order  game.Order   `json:"order"`
	Trades []game.Trade `json:"trades"`
}

// Snapshot is the projection a new subscriber (or the REST snapshot
// endpoint) receives.
type Snapshot struct {
	Config      ConfigPayload         `json:"config"`
	Session     *SessionState         `json:"session"`
	Books       []types.BookDepth     `json:"books"`
	Leaderboard []game.LeaderboardRow `json:"leaderboard,omitempty"`
}

// ClientMessage is one command frame from a websocket client.
type ClientMessage struct {
	ID      string        `json:"id,omitempty"` // echoed back for correlation
	Cmd     string        `json:"cmd"`
	Name    string        `json:"name,omitempty"`
	Order   *OrderRequest `json:"order,omitempty"`
	OrderID string        `json:"order_id,omitempty"`
}

// Reply is the synchronous answer to a ClientMessage.
type Reply struct {
	Type  string `json:"type"` // always "reply"
	ID    string `json:"id,omitempty"`
	Cmd   string `json:"cmd"`
	OK    bool   `json:"ok"`
	Code  string `json:"code,omitempty"`
	Error string `json:"error,omitempty"`
	Data  any    `json:"data,omitempty"`
}

func okReply(msg ClientMessage, data any) Reply {
	return Reply{Type: "reply", ID: msg.ID, Cmd: msg.Cmd, OK: true, Data: data}
}

func errReply(msg ClientMessage, err error) Reply {
	return Reply{
		Type:  "reply",
		ID:    msg.ID,
		Cmd:   msg.Cmd,
		OK:    false,
		Code:  game.ErrorCode(err),
		Error: err.Error(),
	}
}
