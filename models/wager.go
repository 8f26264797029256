package models

import (
	"time"
)

// NotEnded marks the end time of a wager that has not been settled or canceled
var NotEnded = time.Date(9999, time.December, 31, 23, 59, 59, 999999000, time.UTC)

// WagerState represents where a wager is in its lifecycle
type WagerState string

const (
	WagerStateProposed WagerState = "proposed"
	WagerStateAccepted WagerState = "accepted"
	WagerStateSettled  WagerState = "settled"
	WagerStateCanceled WagerState = "canceled"
	WagerStateRejected WagerState = "rejected"
)

// Wager represents a two-party bet decided by an arbitrator
type Wager struct {
	Proposer     string
	Counterparty string
	Arbitrator   string
	Amount       int64
	Condition    string
	StartTime    time.Time
	EndTime      time.Time

	Pending     bool // True until the counterparty accepts
	ProposerWon bool // Only meaningful once settled
	Rejected    bool // Vetoed by the counterparty while pending

	ProposerWantsCancel     bool
	CounterpartyWantsCancel bool
}

// IsParticipant checks if a user is one of the two sides of the wager
func (w *Wager) IsParticipant(userID string) bool {
	return w.Proposer == userID || w.Counterparty == userID
}

// Opponent returns the other side of the wager for a participant, or "" for anyone else
func (w *Wager) Opponent(userID string) string {
	switch userID {
	case w.Proposer:
		return w.Counterparty
	case w.Counterparty:
		return w.Proposer
	}
	return ""
}

// Between checks if the wager is between a and b in either order
func (w *Wager) Between(a, b string) bool {
	return (w.Proposer == a && w.Counterparty == b) || (w.Proposer == b && w.Counterparty == a)
}

// HasEnded checks if the wager was settled or canceled
func (w *Wager) HasEnded() bool {
	return !w.EndTime.Equal(NotEnded)
}

// BothWantCancel checks if both sides consented to canceling
func (w *Wager) BothWantCancel() bool {
	return w.ProposerWantsCancel && w.CounterpartyWantsCancel
}

// Winner returns the user who won a settled wager
func (w *Wager) Winner() string {
	if w.ProposerWon {
		return w.Proposer
	}
	return w.Counterparty
}

// Loser returns the user who lost a settled wager
func (w *Wager) Loser() string {
	return w.Opponent(w.Winner())
}

// State derives the lifecycle state from the wager's flags
func (w *Wager) State() WagerState {
	switch {
	case !w.HasEnded() && w.Pending:
		return WagerStateProposed
	case !w.HasEnded():
		return WagerStateAccepted
	case w.Rejected:
		return WagerStateRejected
	case w.Pending || w.BothWantCancel():
		return WagerStateCanceled
	default:
		return WagerStateSettled
	}
}

// Escrowed returns how much currency the wager currently holds
func (w *Wager) Escrowed() int64 {
	if w.HasEnded() {
		return 0
	}
	if w.Pending {
		return w.Amount
	}
	return 2 * w.Amount
}
