package events

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeBalanceChange EventType = "balance_change"
	EventTypeWager         EventType = "wager"
	EventTypePaycheck      EventType = "paycheck"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// BalanceChangeReason says why a balance moved
type BalanceChangeReason string

const (
	BalanceChangePaycheck    BalanceChangeReason = "paycheck"
	BalanceChangeEscrow      BalanceChangeReason = "escrow"
	BalanceChangeRefund      BalanceChangeReason = "refund"
	BalanceChangeWagerPayout BalanceChangeReason = "wager_payout"
)

// BalanceChangeEvent represents a balance change that occurred
type BalanceChangeEvent struct {
	CommunityID  string
	UserID       string
	OldBalance   int64
	NewBalance   int64
	ChangeAmount int64
	Reason       BalanceChangeReason
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}

// WagerAction is the lifecycle transition a WagerEvent reports
type WagerAction string

const (
	WagerProposed        WagerAction = "proposed"
	WagerAccepted        WagerAction = "accepted"
	WagerRejected        WagerAction = "rejected"
	WagerCancelRequested WagerAction = "cancel_requested"
	WagerCanceled        WagerAction = "canceled"
	WagerSettled         WagerAction = "settled"
)

// WagerEvent represents a wager lifecycle transition
type WagerEvent struct {
	CommunityID  string
	Action       WagerAction
	Actor        string
	Proposer     string
	Counterparty string
	Arbitrator   string
	Amount       int64
	Winner       string // Set for settled wagers only
}

func (e WagerEvent) Type() EventType {
	return EventTypeWager
}

// PaycheckEvent represents a granted daily paycheck
type PaycheckEvent struct {
	CommunityID string
	UserID      string
	Amount      int64
}

func (e PaycheckEvent) Type() EventType {
	return EventTypePaycheck
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
	inflight sync.WaitGroup
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type on main event bus")
}

// SubscribeAll adds a handler for every known event type
func (b *Bus) SubscribeAll(handler Handler) {
	for _, eventType := range []EventType{EventTypeBalanceChange, EventTypeWager, EventTypePaycheck} {
		b.Subscribe(eventType, handler)
	}
}

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	log.WithFields(log.Fields{
		"eventType":    event.Type(),
		"handlerCount": len(handlers),
	}).Debug("Emitting event to handlers on main event bus")

	// Call handlers asynchronously to avoid blocking
	for i, handler := range handlers {
		b.inflight.Add(1)
		go func(h Handler, handlerIndex int) {
			defer b.inflight.Done()
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// Wait blocks until every handler started by Emit has returned.
// Short-lived processes call it before exiting so audit handlers are not cut off.
func (b *Bus) Wait() {
	b.inflight.Wait()
}

// TransactionalBus holds events raised inside a ledger transaction.
// They reach the underlying bus only after the transaction commits.
type TransactionalBus struct {
	real    *Bus
	pending []Event // stashed until Flush
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	log.WithFields(log.Fields{
		"eventType":    e.Type(),
		"pendingCount": len(b.pending),
	}).Debug("Adding event to transactional bus pending queue")
	b.pending = append(b.pending, e)
}

// Pending returns the events queued so far
func (b *TransactionalBus) Pending() []Event {
	return b.pending
}

// called after a successful commit
func (b *TransactionalBus) Flush(ctx context.Context) {
	log.WithFields(log.Fields{
		"pendingEventCount": len(b.pending),
	}).Debug("Flushing pending events from transactional bus to main event bus")

	// Handlers outlive the request, so they get a context that is not cancelled with it
	eventCtx := context.WithoutCancel(ctx)

	if b.real != nil {
		for _, ev := range b.pending {
			b.real.Emit(eventCtx, ev)
		}
	}
	b.pending = nil
}

// called after an aborted transaction
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
