package game

import (
	"time"

	"github.com/huandu/skiplist"

	"pantry-exchange/pkg/types"
)

const (
	// Synthetic prices assigned to unfilled market remainders so they rest
	// with the most aggressive possible priority on their side.
	SyntheticBuyPrice  int64 = 1_000_000_000
	SyntheticSellPrice int64 = 1

	// MaxLimitPrice caps submitted limit prices at the synthetic ceiling.
	// Together with the config bound on max_order_size this keeps every
	// qty*price product far inside int64.
	MaxLimitPrice = SyntheticBuyPrice

	// Per-unit cost assumed for market-buy quantity not covered by visible
	// liquidity. Deliberately punitive: a market buy that outruns the book
	// is rejected at submission unless the buyer is flush.
	uncoveredUnitCost int64 = 1_000_000
)

// bookLevel holds the resting orders at one price, oldest first.
type bookLevel struct {
	price  int64
	orders []*Order
}

func (l *bookLevel) qty() int64 {
	var total int64
	for _, o := range l.orders {
		total += o.Remaining
	}
	return total
}

// Book is the per-product order book: two skiplists of price levels, bids
// keyed descending and asks ascending, with FIFO order queues per level so
// (price, submission seq) ordering falls out of the structure. The book only
// ever holds open or partial orders.
type Book struct {
	product string
	bids    *skiplist.SkipList
	asks    *skiplist.SkipList
	byID    map[string]*Order
}

func NewBook(product string) *Book {
	return &Book{
		product: product,
		bids:    skiplist.New(skiplist.Reverse(skiplist.Int64)),
		asks:    skiplist.New(skiplist.Int64),
		byID:    make(map[string]*Order),
	}
}

func (b *Book) Product() string {
	return b.product
}

func (b *Book) side(s types.Side) *skiplist.SkipList {
	if s == types.SideBuy {
		return b.bids
	}
	return b.asks
}

// Add rests an order at its price level, behind earlier arrivals.
func (b *Book) Add(o *Order) {
	list := b.side(o.Side)
	var lvl *bookLevel
	if el := list.Get(o.Price); el != nil {
		lvl = el.Value.(*bookLevel)
	} else {
		lvl = &bookLevel{price: o.Price}
		list.Set(o.Price, lvl)
	}
	lvl.orders = append(lvl.orders, o)
	b.byID[o.ID] = o
}

// Remove unlinks an order regardless of its status. Returns nil if the
// order is not resting here.
func (b *Book) Remove(orderID string) *Order {
	o, ok := b.byID[orderID]
	if !ok {
		return nil
	}
	list := b.side(o.Side)
	if el := list.Get(o.Price); el != nil {
		lvl := el.Value.(*bookLevel)
		for i, rest := range lvl.orders {
			if rest.ID == orderID {
				lvl.orders = append(lvl.orders[:i], lvl.orders[i+1:]...)
				break
			}
		}
		if len(lvl.orders) == 0 {
			list.Remove(o.Price)
		}
	}
	delete(b.byID, orderID)
	return o
}

func (b *Book) Contains(orderID string) bool {
	_, ok := b.byID[orderID]
	return ok
}

func (b *Book) Len() int {
	return len(b.byID)
}

func frontOrder(list *skiplist.SkipList) *Order {
	el := list.Front()
	if el == nil {
		return nil
	}
	lvl := el.Value.(*bookLevel)
	if len(lvl.orders) == 0 {
		return nil
	}
	return lvl.orders[0]
}

// BestBid returns the highest-priced, earliest bid, or nil.
func (b *Book) BestBid() *Order {
	return frontOrder(b.bids)
}

// BestAsk returns the lowest-priced, earliest ask, or nil.
func (b *Book) BestAsk() *Order {
	return frontOrder(b.asks)
}

// BestOpposing returns the order an incoming submission on side s would
// match first.
func (b *Book) BestOpposing(s types.Side) *Order {
	if s == types.SideBuy {
		return b.BestAsk()
	}
	return b.BestBid()
}

// EstimateMarketBuyCost walks the ask queue in price-time order consuming
// qty. The walk stops at the taker's own resting ask, where matching would
// halt; that quantity, like anything beyond visible liquidity, is costed at
// a punitive per-unit constant so clearly unaffordable market buys fail the
// submission check.
func (b *Book) EstimateMarketBuyCost(qty int64, takerID string) int64 {
	var cost int64
	rem := qty
walk:
	for el := b.asks.Front(); el != nil && rem > 0; el = el.Next() {
		lvl := el.Value.(*bookLevel)
		for _, o := range lvl.orders {
			if rem <= 0 {
				break
			}
			if o.ParticipantID == takerID {
				break walk
			}
			take := min(rem, o.Remaining)
			cost += take * lvl.price
			rem -= take
		}
	}
	if rem > 0 {
		cost += rem * uncoveredUnitCost
	}
	return cost
}

func depthLevels(list *skiplist.SkipList, revealNames bool) []types.PriceLevel {
	out := make([]types.PriceLevel, 0, list.Len())
	for el := list.Front(); el != nil; el = el.Next() {
		lvl := el.Value.(*bookLevel)
		pl := types.PriceLevel{
			Price:  lvl.price,
			Qty:    lvl.qty(),
			Orders: make([]types.OrderSummary, 0, len(lvl.orders)),
		}
		for _, o := range lvl.orders {
			sum := types.OrderSummary{Qty: o.Remaining}
			if revealNames {
				sum.Name = o.ParticipantName
			}
			pl.Orders = append(pl.Orders, sum)
		}
		out = append(out, pl)
	}
	return out
}

// Depth projects the book into per-price aggregates, bids descending and
// asks ascending, optionally revealing order ownership.
func (b *Book) Depth(revealNames bool) types.BookDepth {
	return types.BookDepth{
		Product: b.product,
		Bids:    depthLevels(b.bids, revealNames),
		Asks:    depthLevels(b.asks, revealNames),
	}
}

// SweepCancel marks every resting order cancelled, empties the book, and
// returns the cancelled orders in book order (bids first).
func (b *Book) SweepCancel(ts time.Time) []*Order {
	cancelled := make([]*Order, 0, len(b.byID))
	for _, list := range []*skiplist.SkipList{b.bids, b.asks} {
		for el := list.Front(); el != nil; el = el.Next() {
			lvl := el.Value.(*bookLevel)
			for _, o := range lvl.orders {
				o.MarkCancelled(ts)
				cancelled = append(cancelled, o)
			}
		}
	}
	b.bids = skiplist.New(skiplist.Reverse(skiplist.Int64))
	b.asks = skiplist.New(skiplist.Int64)
	b.byID = make(map[string]*Order)
	return cancelled
}
