package service

import (
	"wagerbank/events"
	"wagerbank/models"
)

// adjustBalance applies a balance change and emits the matching event.
// This is the single entry point for all balance changes in the system.
func adjustBalance(bus EventPublisher, communityID string, user *models.User, change int64, reason events.BalanceChangeReason) {
	oldBalance := user.Balance
	user.Balance += change

	if bus == nil {
		return
	}
	// Emitted to subscribers only after the transaction commits
	bus.Publish(events.BalanceChangeEvent{
		CommunityID:  communityID,
		UserID:       user.ID,
		OldBalance:   oldBalance,
		NewBalance:   user.Balance,
		ChangeAmount: change,
		Reason:       reason,
	})
}

func publish(bus EventPublisher, event events.Event) {
	if bus != nil {
		bus.Publish(event)
	}
}

func wagerEvent(ledger *models.Ledger, action events.WagerAction, actorID string, wager *models.Wager) events.WagerEvent {
	event := events.WagerEvent{
		CommunityID:  ledger.CommunityID,
		Action:       action,
		Actor:        actorID,
		Proposer:     wager.Proposer,
		Counterparty: wager.Counterparty,
		Arbitrator:   wager.Arbitrator,
		Amount:       wager.Amount,
	}
	if action == events.WagerSettled {
		event.Winner = wager.Winner()
	}
	return event
}
