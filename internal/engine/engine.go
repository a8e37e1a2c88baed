// Package engine is the single-writer core of the exchange.
//
// All state — the session, the ledger, the per-product books, the order and
// trade tables — is owned by one goroutine. Client commands arrive on a
// queue and run to completion (validation, matching, settlement, event
// enqueue) before the next begins, so matching is deterministic in arrival
// order and no mutation ever races. The game timer fires inside the same
// loop. Persistence writes and observer pushes only ever enqueue onto
// buffered channels drained outside the loop, so a slow sink or observer
// cannot stall matching.
//
// Lifecycle: New() → Start() → [serves commands until Stop()] → Stop()
package engine

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"pantry-exchange/internal/api"
	"pantry-exchange/internal/config"
	"pantry-exchange/internal/game"
	"pantry-exchange/internal/store"
	"pantry-exchange/pkg/types"
)

var errShutdown = errors.New("engine is shutting down")

// Engine owns all game state and serializes every mutation on its run loop.
type Engine struct {
	cfg    config.Config
	clock  *game.Clock
	rng    *rand.Rand
	sink   store.Sink
	logger *slog.Logger

	// Engine-goroutine state. Touched only from run().
	session *game.Session
	ledger  *game.Ledger
	books   map[string]*game.Book
	orders  map[string]*game.Order
	trades  map[string]*game.Trade
	ticks   int

	cmds    chan func()
	events  chan api.Event
	records chan types.Record

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates an engine. A zero seed picks a random one, so configured
// seeds reproduce starting inventories exactly.
func New(cfg config.Config, sink store.Sink, logger *slog.Logger) *Engine {
	seed := cfg.Game.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}

	ctx, cancel := context.WithCancel(context.Background())

	e := &Engine{
		cfg:     cfg,
		clock:   game.NewClock(),
		rng:     rand.New(rand.NewPCG(seed, seed)),
		sink:    sink,
		logger:  logger.With("component", "engine"),
		cmds:    make(chan func(), 64),
		events:  make(chan api.Event, 256),
		records: make(chan types.Record, 256),
		ctx:     ctx,
		cancel:  cancel,
	}
	e.freshState()
	return e
}

// freshState resets every table for a new session.
func (e *Engine) freshState() {
	e.ledger = game.NewLedger()
	e.books = make(map[string]*game.Book, len(e.cfg.Game.Products))
	for _, product := range e.cfg.Game.Products {
		e.books[product] = game.NewBook(product)
	}
	e.orders = make(map[string]*game.Order)
	e.trades = make(map[string]*game.Trade)
	e.ticks = 0
}

// Start launches the run loop and the record drain goroutine.
func (e *Engine) Start() {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.run()
	}()

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.drainRecords()
	}()
}

// Stop shuts the engine down: the run loop exits, queued records are
// flushed, the event stream is closed, and the sink is released.
func (e *Engine) Stop() {
	e.logger.Info("shutting down...")

	e.cancel()
	e.wg.Wait()
	close(e.events)

	if err := e.sink.Close(); err != nil {
		e.logger.Error("failed to close record sink", "error", err)
	}

	e.logger.Info("shutdown complete")
}

// run is the single-writer loop. Commands and timer ticks interleave here
// and nowhere else.
func (e *Engine) run() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-e.ctx.Done():
			return
		case fn := <-e.cmds:
			fn()
		case <-ticker.C:
			e.handleTick()
		}
	}
}

// drainRecords moves persisted records from the queue to the sink, outside
// the engine's critical section.
func (e *Engine) drainRecords() {
	flush := func(rec types.Record) {
		if err := e.sink.Append(rec); err != nil {
			e.logger.Error("failed to persist record", "kind", rec.Kind, "error", err)
		}
	}

	for {
		select {
		case rec := <-e.records:
			flush(rec)
		case <-e.ctx.Done():
			for {
				select {
				case rec := <-e.records:
					flush(rec)
				default:
					return
				}
			}
		}
	}
}

// do runs fn on the engine goroutine and waits for it to complete.
func (e *Engine) do(fn func()) error {
	done := make(chan struct{})
	wrapped := func() {
		defer close(done)
		fn()
	}

	select {
	case e.cmds <- wrapped:
	case <-e.ctx.Done():
		return errShutdown
	}

	select {
	case <-done:
		return nil
	case <-e.ctx.Done():
		return errShutdown
	}
}

// emit enqueues an event for the fan-out consumer. Never blocks; delivery
// is best-effort.
func (e *Engine) emit(evtType, target string, data any) {
	evt := api.Event{
		Type:      evtType,
		Timestamp: time.Now().UTC(),
		Target:    target,
		Data:      data,
	}
	select {
	case e.events <- evt:
	default:
		e.logger.Warn("event queue full, dropping event", "type", evtType)
	}
}

// persist enqueues a record for the drain goroutine. Never blocks.
func (e *Engine) persist(kind string, data any) {
	select {
	case e.records <- types.NewRecord(kind, data):
	default:
		e.logger.Warn("record queue full, dropping record", "kind", kind)
	}
}

// Events returns the outbound event stream. Closed on Stop.
func (e *Engine) Events() <-chan api.Event {
	return e.events
}

// CreateSession opens a new lobby. Fails while a session is live.
func (e *Engine) CreateSession(requesterID string) (string, error) {
	var (
		id  string
		err error
	)
	if derr := e.do(func() { id, err = e.createSession(requesterID) }); derr != nil {
		return "", derr
	}
	return id, err
}

// Join admits a participant to the lobby.
func (e *Engine) Join(name string) (api.PlayerState, error) {
	var (
		state api.PlayerState
		err   error
	)
	if derr := e.do(func() { state, err = e.join(name) }); derr != nil {
		return api.PlayerState{}, derr
	}
	return state, err
}

// Leave removes a lobby participant.
func (e *Engine) Leave(participantID string) error {
	var err error
	if derr := e.do(func() { err = e.leave(participantID) }); derr != nil {
		return derr
	}
	return err
}

// StartGame moves the session from lobby to running. Host only.
func (e *Engine) StartGame(participantID string) error {
	var err error
	if derr := e.do(func() { err = e.startGame(participantID) }); derr != nil {
		return derr
	}
	return err
}

// SubmitOrder validates, matches, and settles one order submission.
func (e *Engine) SubmitOrder(participantID string, req api.OrderRequest) (api.SubmitResult, error) {
	var (
		res api.SubmitResult
		err error
	)
	if derr := e.do(func() { res, err = e.submitOrder(participantID, req) }); derr != nil {
		return api.SubmitResult{}, derr
	}
	return res, err
}

// CancelOrder cancels one resting order owned by the requester.
func (e *Engine) CancelOrder(participantID, orderID string) error {
	var err error
	if derr := e.do(func() { err = e.cancelOrder(participantID, orderID) }); derr != nil {
		return derr
	}
	return err
}

// Reset ends any running game and clears the session and books.
func (e *Engine) Reset() error {
	var err error
	if derr := e.do(func() { err = e.reset() }); derr != nil {
		return derr
	}
	return err
}

// Disconnect sweeps the participant's resting orders. Runs as a normal
// command on the engine queue; a disconnect is not an error.
func (e *Engine) Disconnect(participantID string) {
	_ = e.do(func() { e.sweepParticipant(participantID) })
}

// Snapshot builds the coherent projection new subscribers receive.
func (e *Engine) Snapshot() api.Snapshot {
	var snap api.Snapshot
	_ = e.do(func() { snap = e.snapshot() })
	return snap
}
