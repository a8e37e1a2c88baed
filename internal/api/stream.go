package api

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Hub manages WebSocket clients, broadcasts events to all of them, and
// routes targeted events to the clients bound to a participant.
type Hub struct {
	clients    map[*Client]bool
	byPlayer   map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	direct     chan directMsg
	onGone     func(participantID string) // last connection for a player closed
	mu         sync.RWMutex
	logger     *slog.Logger
}

type directMsg struct {
	participantID string
	data          []byte
}

// NewHub creates a new WebSocket hub. onGone is invoked when a participant's
// last connection drops (the engine sweeps their resting orders).
func NewHub(onGone func(string), logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		byPlayer:   make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 256),
		direct:     make(chan directMsg, 256),
		onGone:     onGone,
		logger:     logger.With("component", "ws-hub"),
	}
}

// Run starts the hub's main loop (should be called in a goroutine).
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.logger.Info("client connected", "count", len(h.clients))

		case client := <-h.unregister:
			h.dropClient(client)

		case message := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Client can't keep up; it will be dropped by its pumps.
				}
			}
			h.mu.RUnlock()

		case msg := <-h.direct:
			h.mu.RLock()
			for client := range h.byPlayer[msg.participantID] {
				select {
				case client.send <- msg.data:
				default:
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *Hub) dropClient(client *Client) {
	h.mu.Lock()
	gone := ""
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
		if pid := client.playerID; pid != "" {
			set := h.byPlayer[pid]
			delete(set, client)
			if len(set) == 0 {
				delete(h.byPlayer, pid)
				gone = pid
			}
		}
	}
	h.mu.Unlock()
	h.logger.Info("client disconnected", "count", len(h.clients))

	if gone != "" && h.onGone != nil {
		h.onGone(gone)
	}
}

// BindPlayer associates a client with a participant for targeted delivery.
func (h *Hub) BindPlayer(client *Client, participantID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.byPlayer[participantID]
	if set == nil {
		set = make(map[*Client]bool)
		h.byPlayer[participantID] = set
	}
	set[client] = true
}

// UnbindPlayer detaches a client from its participant (lobby leave).
func (h *Hub) UnbindPlayer(client *Client, participantID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.byPlayer[participantID]
	delete(set, client)
	if len(set) == 0 {
		delete(h.byPlayer, participantID)
	}
}

// Dispatch routes one engine event: broadcast when Target is empty,
// targeted otherwise.
func (h *Hub) Dispatch(evt Event) {
	data, err := json.Marshal(evt)
	if err != nil {
		h.logger.Error("failed to marshal event", "type", evt.Type, "error", err)
		return
	}

	if evt.Target == "" {
		select {
		case h.broadcast <- data:
		default:
			h.logger.Warn("broadcast channel full, dropping event", "type", evt.Type)
		}
		return
	}

	select {
	case h.direct <- directMsg{participantID: evt.Target, data: data}:
	default:
		h.logger.Warn("direct channel full, dropping event", "type", evt.Type)
	}
}

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024 // 64 KB; command frames are small
)

// Client represents a connected WebSocket client. playerID is set by the
// read pump after a successful join and read by the hub on disconnect.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	exchange Exchange
	send     chan []byte
	playerID string
	logger   *slog.Logger
}

// NewClient creates a client for an upgraded connection. The caller may
// queue messages (the subscription preamble) on the send channel before
// Start; until the client is registered the hub cannot close that channel.
func NewClient(hub *Hub, conn *websocket.Conn, exchange Exchange, logger *slog.Logger) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		exchange: exchange,
		send:     make(chan []byte, 256),
		logger:   logger.With("component", "ws-client"),
	}
}

// Start registers the client on the hub and starts its pumps.
func (c *Client) Start() {
	c.hub.register <- c

	go c.writePump()
	go c.readPump()
}

// writePump pumps messages from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump decodes command frames from the connection, dispatches them to
// the engine, and queues the synchronous reply on the send channel.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("websocket error", "error", err)
			}
			break
		}

		var msg ClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.reply(Reply{Type: "reply", OK: false, Code: "bad_message", Error: "malformed command frame"})
			continue
		}

		c.reply(c.dispatch(msg))
	}
}

func (c *Client) reply(r Reply) {
	data, err := json.Marshal(r)
	if err != nil {
		c.logger.Error("failed to marshal reply", "cmd", r.Cmd, "error", err)
		return
	}
	select {
	case c.send <- data:
	default:
		c.logger.Warn("send buffer full, dropping reply", "cmd", r.Cmd)
	}
}
