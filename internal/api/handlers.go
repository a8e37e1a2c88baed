package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"pantry-exchange/internal/game"
)

// dispatch executes one client command against the engine. Identity is the
// connection: a client acts as the participant it joined as.
func (c *Client) dispatch(msg ClientMessage) Reply {
	switch msg.Cmd {
	case "create_session":
		id, err := c.exchange.CreateSession(c.playerID)
		if err != nil {
			return errReply(msg, err)
		}
		return okReply(msg, map[string]string{"session_id": id})

	case "join":
		state, err := c.exchange.Join(msg.Name)
		if err != nil {
			return errReply(msg, err)
		}
		c.playerID = state.Player.ID
		c.hub.BindPlayer(c, state.Player.ID)
		return okReply(msg, state)

	case "leave":
		if c.playerID == "" {
			return errReply(msg, game.ErrUnknownPlayer)
		}
		if err := c.exchange.Leave(c.playerID); err != nil {
			return errReply(msg, err)
		}
		c.hub.UnbindPlayer(c, c.playerID)
		c.playerID = ""
		return okReply(msg, nil)

	case "start":
		if c.playerID == "" {
			return errReply(msg, game.ErrUnknownPlayer)
		}
		if err := c.exchange.StartGame(c.playerID); err != nil {
			return errReply(msg, err)
		}
		return okReply(msg, nil)

	case "submit_order":
		if c.playerID == "" {
			return errReply(msg, game.ErrUnknownPlayer)
		}
		if msg.Order == nil {
			return Reply{Type: "reply", ID: msg.ID, Cmd: msg.Cmd, OK: false, Code: "bad_message", Error: "submit_order requires an order payload"}
		}
		res, err := c.exchange.SubmitOrder(c.playerID, *msg.Order)
		if err != nil {
			return errReply(msg, err)
		}
		return okReply(msg, res)

	case "cancel_order":
		if c.playerID == "" {
			return errReply(msg, game.ErrUnknownPlayer)
		}
		if err := c.exchange.CancelOrder(c.playerID, msg.OrderID); err != nil {
			return errReply(msg, err)
		}
		return okReply(msg, nil)

	case "reset":
		if err := c.exchange.Reset(); err != nil {
			return errReply(msg, err)
		}
		return okReply(msg, nil)

	default:
		return Reply{Type: "reply", ID: msg.ID, Cmd: msg.Cmd, OK: false, Code: "unknown_command", Error: "unknown command " + msg.Cmd}
	}
}

// Handlers holds all HTTP handler dependencies.
type Handlers struct {
	exchange Exchange
	hub      *Hub
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewHandlers creates a new handlers instance. allowedOrigins empty means
// any origin is accepted (local play).
func NewHandlers(exchange Exchange, hub *Hub, allowedOrigins []string, logger *slog.Logger) *Handlers {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}

	return &Handlers{
		exchange: exchange,
		hub:      hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if len(allowed) == 0 {
					return true
				}
				return allowed[r.Header.Get("Origin")]
			},
		},
		logger: logger.With("component", "api-handlers"),
	}
}

// HandleHealth returns a simple health check response.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// HandleSnapshot returns the current session projection.
func (h *Handlers) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	snapshot := h.exchange.Snapshot()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snapshot); err != nil {
		h.logger.Error("failed to encode snapshot", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// HandleWebSocket upgrades the connection, queues the subscription preamble
// (the config event, then a full snapshot as a session_state/books/
// leaderboard bundle), and only then registers the client and starts its
// pumps. Queuing before registration means the hub cannot be closing the
// send channel underneath the preamble writes.
func (h *Handlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	client := NewClient(h.hub, conn, h.exchange, h.logger)

	snapshot := h.exchange.Snapshot()
	now := time.Now().UTC()

	preamble := []Event{
		{Type: EventConfig, Timestamp: now, Data: snapshot.Config},
		{Type: EventSessionState, Timestamp: now, Data: snapshot.Session},
		{Type: EventOrderBooks, Timestamp: now, Data: BooksPayload{Books: snapshot.Books}},
	}
	if len(snapshot.Leaderboard) > 0 {
		preamble = append(preamble, Event{Type: EventLeaderboard, Timestamp: now, Data: LeaderboardPayload{Rows: snapshot.Leaderboard}})
	}

	for _, evt := range preamble {
		data, err := json.Marshal(evt)
		if err != nil {
			h.logger.Error("failed to marshal preamble event", "type", evt.Type, "error", err)
			conn.Close()
			return
		}
		client.send <- data
	}

	client.Start()
}
