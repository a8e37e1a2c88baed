package engine

import (
	"slices"

	"github.com/google/uuid"

	"pantry-exchange/internal/api"
	"pantry-exchange/internal/game"
	"pantry-exchange/pkg/types"
)

func (e *Engine) submitOrder(pid string, req api.OrderRequest) (api.SubmitResult, error) {
	if e.session == nil {
		return api.SubmitResult{}, game.ErrNoSession
	}
	if e.session.Status != types.SessionRunning {
		return api.SubmitResult{}, game.ErrNotRunning
	}
	p, ok := e.ledger.Get(pid)
	if !ok {
		return api.SubmitResult{}, game.ErrUnknownPlayer
	}

	book, ok := e.books[req.Product]
	if !ok {
		return api.SubmitResult{}, game.ErrUnknownProduct
	}
	if !req.Side.Valid() {
		return api.SubmitResult{}, game.ErrBadSide
	}
	if !req.Type.Valid() {
		return api.SubmitResult{}, game.ErrBadType
	}
	if req.Qty < e.cfg.Game.MinOrderSize || req.Qty > e.cfg.Game.MaxOrderSize {
		return api.SubmitResult{}, game.ErrQtyBounds
	}
	if req.Type == types.OrderTypeLimit && (req.Price <= 0 || req.Price > game.MaxLimitPrice) {
		return api.SubmitResult{}, game.ErrBadPrice
	}

	// Submission-time resource check. Nothing is escrowed: a resting order
	// reserves nothing, so every execution re-checks before settling.
	switch req.Side {
	case types.SideBuy:
		required := req.Qty * req.Price
		if req.Type == types.OrderTypeMarket {
			required = book.EstimateMarketBuyCost(req.Qty, p.ID)
		}
		if p.Cash < required {
			return api.SubmitResult{}, game.ErrInsufficientCash
		}
	case types.SideSell:
		if p.Inventory[req.Product] < req.Qty {
			return api.SubmitResult{}, game.ErrInsufficientInventory
		}
	}

	seq, now := e.clock.Tick()
	o := &game.Order{
		ID:              uuid.NewString(),
		SessionID:       e.session.ID,
		ParticipantID:   p.ID,
		ParticipantName: p.Name,
		Product:         req.Product,
		Side:            req.Side,
		Type:            req.Type,
		Quantity:        req.Qty,
		Remaining:       req.Qty,
		Price:           req.Price,
		Status:          types.OrderOpen,
		CreatedAt:       now,
		UpdatedAt:       now,
		Seq:             seq,
	}
	e.orders[o.ID] = o

	trades := e.matchLoop(book, o)

	if o.Remaining > 0 && !o.Terminal() {
		if o.Type == types.OrderTypeMarket {
			// The remainder rests as the most aggressive order on its side.
			if o.Side == types.SideBuy {
				o.Price = game.SyntheticBuyPrice
			} else {
				o.Price = game.SyntheticSellPrice
			}
		}
		book.Add(o)
		e.ledger.AddOpenOrder(p.ID, o.ID)
	}

	e.persist("order", o.Clone())

	e.emitBooks()
	e.emitPlayerState(p.ID)
	for _, cp := range counterparties(trades, p.ID) {
		e.emitPlayerState(cp)
	}
	if len(trades) > 0 {
		e.emit(api.EventTrades, "", api.TradesPayload{Trades: trades})
		e.emitLeaderboard()
	}

	e.logger.Info("order submitted", "participant_id", p.ID, "product", o.Product,
		"side", o.Side, "type", o.Type, "qty", o.Quantity, "price", o.Price,
		"trades", len(trades), "status", o.Status)

	return api.SubmitResult{Order: o.Clone(), Trades: trades}, nil
}

// matchLoop fills the taker against the opposing queue in price-time order.
// The loop halts, leaving the remainder to rest, when the book empties, when
// prices stop crossing, when the best opposing order belongs to the taker,
// or when a settlement re-check fails.
func (e *Engine) matchLoop(book *game.Book, taker *game.Order) []game.Trade {
	var trades []game.Trade
	for taker.Remaining > 0 {
		resting := book.BestOpposing(taker.Side)
		if resting == nil {
			break
		}
		if resting.ParticipantID == taker.ParticipantID {
			// Self-trade prevention halts matching rather than skipping past
			// the taker's own order.
			break
		}
		if !crosses(taker, resting) {
			break
		}
		trade, ok := e.executeTrade(book, taker, resting)
		if !ok {
			break
		}
		trades = append(trades, trade)
	}
	return trades
}

// crosses reports whether the taker's price is compatible with the resting
// order's. Market takers cross everything.
func crosses(taker, resting *game.Order) bool {
	if taker.Type == types.OrderTypeMarket {
		return true
	}
	if taker.Side == types.SideBuy {
		return taker.Price >= resting.Price
	}
	return taker.Price <= resting.Price
}

// executeTrade settles one fill at the resting order's price. Returns false
// when the execution-time re-check fails, which aborts this trade and halts
// the match loop; both orders are left as they were.
func (e *Engine) executeTrade(book *game.Book, taker, resting *game.Order) (game.Trade, bool) {
	qty := min(taker.Remaining, resting.Remaining)
	price := resting.Price

	buy, sell := taker, resting
	if taker.Side == types.SideSell {
		buy, sell = resting, taker
	}

	buyer, _ := e.ledger.Get(buy.ParticipantID)
	seller, _ := e.ledger.Get(sell.ParticipantID)

	// No escrow, so a resting order may have gone stale: the owner's cash or
	// inventory can have been consumed by a later trade.
	if buyer.Cash < qty*price {
		e.logger.Error("execution re-check failed, halting match",
			"reason", "insufficient cash", "participant_id", buyer.ID,
			"order_id", buy.ID, "required", qty*price, "cash", buyer.Cash)
		return game.Trade{}, false
	}
	if seller.Inventory[taker.Product] < qty {
		e.logger.Error("execution re-check failed, halting match",
			"reason", "insufficient inventory", "participant_id", seller.ID,
			"order_id", sell.ID, "required", qty, "held", seller.Inventory[taker.Product])
		return game.Trade{}, false
	}

	_, ts := e.clock.Tick()
	trade := game.Trade{
		ID:          uuid.NewString(),
		SessionID:   e.session.ID,
		BuyOrderID:  buy.ID,
		SellOrderID: sell.ID,
		BuyerID:     buyer.ID,
		SellerID:    seller.ID,
		Product:     taker.Product,
		Qty:         qty,
		Price:       price,
		Value:       qty * price,
		ExecutedAt:  ts,
	}

	e.ledger.DebitCash(buyer.ID, trade.Value)
	e.ledger.CreditCash(seller.ID, trade.Value)
	e.ledger.DebitInventory(seller.ID, trade.Product, qty)
	e.ledger.CreditInventory(buyer.ID, trade.Product, qty)

	fill := types.Fill{TradeID: trade.ID, Qty: qty, Price: price, Time: ts}
	taker.ApplyFill(fill)
	resting.ApplyFill(fill)

	e.ledger.RecordTrade(buyer.ID, trade.ID)
	e.ledger.RecordTrade(seller.ID, trade.ID)

	if resting.Remaining == 0 {
		book.Remove(resting.ID)
		e.ledger.RemoveOpenOrder(resting.ParticipantID, resting.ID)
		e.persist("order", resting.Clone())
	}

	e.trades[trade.ID] = &trade
	e.persist("trade", trade)
	return trade, true
}

func (e *Engine) cancelOrder(pid, orderID string) error {
	if e.session == nil {
		return game.ErrNoSession
	}
	o, ok := e.orders[orderID]
	if !ok {
		return game.ErrOrderNotFound
	}
	if o.ParticipantID != pid {
		return game.ErrNotOwner
	}
	if o.Terminal() {
		return game.ErrAlreadyTerminal
	}

	_, now := e.clock.Tick()
	e.books[o.Product].Remove(o.ID)
	e.ledger.RemoveOpenOrder(pid, o.ID)
	o.MarkCancelled(now)

	e.persist("order", o.Clone())
	e.emitBooks()
	e.emitPlayerState(pid)

	e.logger.Info("order cancelled", "participant_id", pid, "order_id", o.ID, "product", o.Product)
	return nil
}

// sweepParticipant handles a player's last connection dropping. In the lobby
// the player leaves outright; in a running game their resting orders are
// cancelled and the position stays on the books for scoring.
func (e *Engine) sweepParticipant(pid string) {
	if e.session == nil {
		return
	}
	p, ok := e.ledger.Get(pid)
	if !ok {
		return
	}

	switch e.session.Status {
	case types.SessionLobby:
		if err := e.leave(pid); err != nil {
			e.logger.Warn("disconnect leave failed", "participant_id", pid, "error", err)
		}
		return
	case types.SessionRunning:
	default:
		return
	}

	_, now := e.clock.Tick()
	swept := 0
	for _, oid := range p.OpenOrders() {
		o, ok := e.orders[oid]
		if !ok {
			continue
		}
		e.books[o.Product].Remove(o.ID)
		e.ledger.RemoveOpenOrder(pid, o.ID)
		o.MarkCancelled(now)
		e.persist("order", o.Clone())
		swept++
	}

	if swept > 0 {
		e.emitBooks()
	}
	e.logger.Info("participant disconnected", "participant_id", pid, "orders_swept", swept)
}

// counterparties collects the distinct other participants involved in a
// trade batch, preserving trade order.
func counterparties(trades []game.Trade, takerID string) []string {
	var out []string
	for _, t := range trades {
		for _, pid := range []string{t.BuyerID, t.SellerID} {
			if pid != takerID && !slices.Contains(out, pid) {
				out = append(out, pid)
			}
		}
	}
	return out
}
