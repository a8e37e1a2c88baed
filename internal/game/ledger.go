// Package game is the pure domain core of the exchange: the participant
// ledger, orders and trades, per-product books, starting-inventory
// generation, and scoring. It has no goroutines, no I/O, and no direct
// clock reads — time enters through Clock values handed in by the engine.
//
// All cash and quantity arithmetic is integer arithmetic. The ledger treats
// an attempted under-zero balance as an engine bug and panics; resource
// checks belong to the caller.
package game

import (
	"fmt"
	"sort"
	"time"
)

// Participant is one player's account: cash, inventory, open orders, trade
// history, and an immutable snapshot of the holdings they started with.
type Participant struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	Cash             int64            `json:"cash"`
	Inventory        map[string]int64 `json:"inventory"`
	TradeIDs         []string         `json:"trade_ids,omitempty"`
	InitialCash      int64            `json:"initial_cash"`
	InitialInventory map[string]int64 `json:"initial_inventory"`
	JoinedAt         time.Time        `json:"joined_at"`

	// OpenOrderIDs is filled on Snapshot only; the live set lives in open.
	OpenOrderIDs []string `json:"open_orders,omitempty"`

	open map[string]struct{}
}

// NewParticipant creates an account with its initial holdings frozen.
func NewParticipant(id, name string, cash int64, inventory map[string]int64, joinedAt time.Time) *Participant {
	initial := make(map[string]int64, len(inventory))
	for p, n := range inventory {
		initial[p] = n
	}
	return &Participant{
		ID:               id,
		Name:             name,
		Cash:             cash,
		Inventory:        inventory,
		InitialCash:      cash,
		InitialInventory: initial,
		JoinedAt:         joinedAt,
		open:             make(map[string]struct{}),
	}
}

// Snapshot returns a deep copy safe to hand to observers and sinks.
func (p *Participant) Snapshot() Participant {
	cp := *p
	cp.Inventory = make(map[string]int64, len(p.Inventory))
	for prod, n := range p.Inventory {
		cp.Inventory[prod] = n
	}
	cp.InitialInventory = make(map[string]int64, len(p.InitialInventory))
	for prod, n := range p.InitialInventory {
		cp.InitialInventory[prod] = n
	}
	cp.TradeIDs = append([]string(nil), p.TradeIDs...)
	cp.OpenOrderIDs = make([]string, 0, len(p.open))
	for oid := range p.open {
		cp.OpenOrderIDs = append(cp.OpenOrderIDs, oid)
	}
	sort.Strings(cp.OpenOrderIDs)
	cp.open = nil
	return cp
}

// OpenOrders returns the ids of the participant's resting orders.
func (p *Participant) OpenOrders() []string {
	ids := make([]string, 0, len(p.open))
	for oid := range p.open {
		ids = append(ids, oid)
	}
	sort.Strings(ids)
	return ids
}

// Ledger holds every participant of the current session in admission order.
// Mutations are total functions; the engine performs all sufficiency checks
// before calling, and the ledger panics if a balance would go negative.
type Ledger struct {
	byID  map[string]*Participant
	admit []string
}

func NewLedger() *Ledger {
	return &Ledger{byID: make(map[string]*Participant)}
}

// Admit registers a participant. Admission order is preserved for
// leaderboard tie-breaking.
func (l *Ledger) Admit(p *Participant) {
	l.byID[p.ID] = p
	l.admit = append(l.admit, p.ID)
}

// Remove drops a participant (lobby leave).
func (l *Ledger) Remove(pid string) {
	delete(l.byID, pid)
	for i, id := range l.admit {
		if id == pid {
			l.admit = append(l.admit[:i], l.admit[i+1:]...)
			break
		}
	}
}

func (l *Ledger) Get(pid string) (*Participant, bool) {
	p, ok := l.byID[pid]
	return p, ok
}

// All returns participants in admission order.
func (l *Ledger) All() []*Participant {
	out := make([]*Participant, 0, len(l.admit))
	for _, id := range l.admit {
		out = append(out, l.byID[id])
	}
	return out
}

func (l *Ledger) Len() int {
	return len(l.admit)
}

func (l *Ledger) mustGet(pid string) *Participant {
	p, ok := l.byID[pid]
	if !ok {
		panic(fmt.Sprintf("ledger: unknown participant %s", pid))
	}
	return p
}

func (l *Ledger) CreditCash(pid string, n int64) {
	l.mustGet(pid).Cash += n
}

func (l *Ledger) DebitCash(pid string, n int64) {
	p := l.mustGet(pid)
	if p.Cash < n {
		panic(fmt.Sprintf("ledger: cash of %s would go negative (%d - %d)", pid, p.Cash, n))
	}
	p.Cash -= n
}

func (l *Ledger) CreditInventory(pid, product string, n int64) {
	l.mustGet(pid).Inventory[product] += n
}

func (l *Ledger) DebitInventory(pid, product string, n int64) {
	p := l.mustGet(pid)
	if p.Inventory[product] < n {
		panic(fmt.Sprintf("ledger: %s of %s would go negative (%d - %d)", product, pid, p.Inventory[product], n))
	}
	p.Inventory[product] -= n
}

func (l *Ledger) AddOpenOrder(pid, oid string) {
	l.mustGet(pid).open[oid] = struct{}{}
}

func (l *Ledger) RemoveOpenOrder(pid, oid string) {
	delete(l.mustGet(pid).open, oid)
}

// RecordTrade appends a trade id to the participant's history.
func (l *Ledger) RecordTrade(pid, tid string) {
	p := l.mustGet(pid)
	p.TradeIDs = append(p.TradeIDs, tid)
}

// CompleteSets returns how many full recipe bundles the participant holds:
// the minimum over recipe products of inventory[p] / recipe[p].
func (l *Ledger) CompleteSets(pid string, recipe map[string]int64) int64 {
	p := l.mustGet(pid)
	sets := int64(-1)
	for product, need := range recipe {
		k := p.Inventory[product] / need
		if sets < 0 || k < sets {
			sets = k
		}
	}
	if sets < 0 {
		return 0
	}
	return sets
}

// ScrapValue values the participant's current inventory at scrap prices.
func (l *Ledger) ScrapValue(pid string, scrap map[string]int64) int64 {
	p := l.mustGet(pid)
	var total int64
	for product, n := range p.Inventory {
		total += n * scrap[product]
	}
	return total
}

// InitialScrapValue values the starting inventory at scrap prices.
func (l *Ledger) InitialScrapValue(pid string, scrap map[string]int64) int64 {
	p := l.mustGet(pid)
	var total int64
	for product, n := range p.InitialInventory {
		total += n * scrap[product]
	}
	return total
}
