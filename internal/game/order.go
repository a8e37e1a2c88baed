package game

import (
	"time"

	"pantry-exchange/pkg/types"
)

// Order carries immutable identity plus mutable fill state. Price is zero on
// a freshly submitted market order; if a market remainder comes to rest, the
// engine assigns it a synthetic extreme price first.
type Order struct {
	ID              string            `json:"id"`
	SessionID       string            `json:"session_id"`
	ParticipantID   string            `json:"participant_id"`
	ParticipantName string            `json:"participant_name"`
	Product         string            `json:"product"`
	Side            types.Side        `json:"side"`
	Type            types.OrderType   `json:"type"`
	Quantity        int64             `json:"quantity"`
	Remaining       int64             `json:"remaining"`
	Price           int64             `json:"price"`
	Status          types.OrderStatus `json:"status"`
	Fills           []types.Fill      `json:"fills,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`

	// Seq breaks price ties: lower means earlier submission.
	Seq int64 `json:"-"`
}

// ApplyFill appends a fill, reduces the remainder, and recomputes status.
func (o *Order) ApplyFill(f types.Fill) {
	o.Fills = append(o.Fills, f)
	o.Remaining -= f.Qty
	if o.Remaining == 0 {
		o.Status = types.OrderFilled
	} else {
		o.Status = types.OrderPartial
	}
	o.UpdatedAt = f.Time
}

// MarkCancelled moves the order to its terminal cancelled state.
func (o *Order) MarkCancelled(ts time.Time) {
	o.Status = types.OrderCancelled
	o.UpdatedAt = ts
}

// Terminal reports whether the order can still fill.
func (o *Order) Terminal() bool {
	return o.Status.Terminal()
}

// Clone returns a copy safe to hand across the engine boundary.
func (o *Order) Clone() Order {
	cp := *o
	cp.Fills = append([]types.Fill(nil), o.Fills...)
	return cp
}

// Trade is an immutable execution record. Price is always the resting
// (maker) order's price; Value = Qty * Price.
type Trade struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"session_id"`
	BuyOrderID  string    `json:"buy_order_id"`
	SellOrderID string    `json:"sell_order_id"`
	BuyerID     string    `json:"buyer_id"`
	SellerID    string    `json:"seller_id"`
	Product     string    `json:"product"`
	Qty         int64     `json:"qty"`
	Price       int64     `json:"price"`
	Value       int64     `json:"value"`
	ExecutedAt  time.Time `json:"executed_at"`
}
