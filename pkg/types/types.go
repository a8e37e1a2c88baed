// Package types defines the shared vocabulary of the exchange: order sides,
// kinds, and statuses, session states, fills, book depth projections, and the
// envelope for persisted records.
package types

import "time"

// Side is the side of the book an order belongs to.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Valid reports whether s is one of the two known sides.
func (s Side) Valid() bool {
	return s == SideBuy || s == SideSell
}

// Opposite returns the side an incoming order on s matches against.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// OrderType distinguishes priced limit orders from market orders.
type OrderType string

const (
	OrderTypeLimit  OrderType = "limit"
	OrderTypeMarket OrderType = "market"
)

// Valid reports whether t is one of the two known order types.
func (t OrderType) Valid() bool {
	return t == OrderTypeLimit || t == OrderTypeMarket
}

// OrderStatus tracks an order through its fill lifecycle.
type OrderStatus string

const (
	OrderOpen      OrderStatus = "open"
	OrderPartial   OrderStatus = "partial"
	OrderFilled    OrderStatus = "filled"
	OrderCancelled OrderStatus = "cancelled"
)

// Terminal reports whether the status admits no further fills.
func (s OrderStatus) Terminal() bool {
	return s == OrderFilled || s == OrderCancelled
}

// SessionStatus is the game-session lifecycle state.
type SessionStatus string

const (
	SessionLobby   SessionStatus = "lobby"
	SessionRunning SessionStatus = "running"
	SessionEnded   SessionStatus = "ended"
)

// Fill is one execution applied to an order.
type Fill struct {
	TradeID string    `json:"trade_id"`
	Qty     int64     `json:"qty"`
	Price   int64     `json:"price"`
	Time    time.Time `json:"time"`
}

// OrderSummary is one resting order inside a depth level. Name is populated
// only when the session is configured to reveal order ownership.
type OrderSummary struct {
	Qty  int64  `json:"qty"`
	Name string `json:"name,omitempty"`
}

// PriceLevel aggregates the resting quantity at one price.
type PriceLevel struct {
	Price  int64          `json:"price"`
	Qty    int64          `json:"qty"`
	Orders []OrderSummary `json:"orders,omitempty"`
}

// BookDepth is a point-in-time projection of one product's book.
// Bids are sorted descending by price, asks ascending.
type BookDepth struct {
	Product string       `json:"product"`
	Bids    []PriceLevel `json:"bids"`
	Asks    []PriceLevel `json:"asks"`
}

// Record is the envelope for every row written to a persistence sink.
// Time is ISO-8601 in UTC; all monetary and quantity fields inside Data
// are integers.
type Record struct {
	Kind string `json:"kind"` // "session", "participant", "order", "trade", "event"
	Time string `json:"time"`
	Data any    `json:"data"`
}

// NewRecord stamps a record with the current UTC time.
func NewRecord(kind string, data any) Record {
	return Record{
		Kind: kind,
		Time: time.Now().UTC().Format(time.RFC3339Nano),
		Data: data,
	}
}
