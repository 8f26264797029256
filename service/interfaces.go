package service

import (
	"context"
	"time"

	"wagerbank/events"
	"wagerbank/models"
)

// Clock returns the current time; injected so tests control it
type Clock func() time.Time

// LedgerStore defines exclusive, transactional access to one community's ledger
type LedgerStore interface {
	// Transact locks the community's record, hands its ledger to fn and writes the
	// result back only if fn returns nil. Any error from fn is returned unchanged.
	Transact(ctx context.Context, communityID string, fn func(ledger *models.Ledger) error) error

	// View locks the community's record and hands its ledger to fn without ever writing
	View(ctx context.Context, communityID string, fn func(ledger *models.Ledger) error) error
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// WagerService defines the wager state machine. Every method mutates the ledger in
// place and reports the outcome as user-facing text; failures never touch the ledger.
type WagerService interface {
	// Propose escrows the proposer's stake and records a pending wager
	Propose(ledger *models.Ledger, bus EventPublisher, proposerID, counterpartyID, arbitratorID string, amount int64, condition string) string

	// Accept escrows the counterparty's stake and activates a pending wager
	Accept(ledger *models.Ledger, bus EventPublisher, actorID, counterpartyID string) string

	// Reject vetoes a pending wager as its counterparty; otherwise acts like Cancel
	Reject(ledger *models.Ledger, bus EventPublisher, actorID, counterpartyID string) string

	// Cancel records the actor's consent to cancel and refunds once it is sufficient
	Cancel(ledger *models.Ledger, bus EventPublisher, actorID, counterpartyID string) string

	// Decide settles an accepted wager in favour of victorID, if actorID is its arbitrator
	Decide(ledger *models.Ledger, bus EventPublisher, actorID, victorID, loserID string) string

	// Wagers lists the actor's active wagers
	Wagers(ledger *models.Ledger, actorID string) string

	// History lists up to limit of the actor's finished wagers, newest first
	History(ledger *models.Ledger, actorID string, limit int) string
}

// UserService defines the interface for per-user operations
type UserService interface {
	// ClaimPaycheck grants the daily paycheck if the user has not had one since the last cutover
	ClaimPaycheck(ledger *models.Ledger, bus EventPublisher, user *models.User) *models.PaycheckResult

	// Bank claims the paycheck and reports the user's balance
	Bank(ledger *models.Ledger, bus EventPublisher, user *models.User) string
}

// BankService defines the entry point used by command routers
type BankService interface {
	// Operate runs one operation for actorID inside a transaction on the community's ledger.
	// Validation failures and conflicts come back as text; only storage faults are errors.
	Operate(ctx context.Context, communityID, actorID string, operation Operation, args Arguments) (string, error)
}
