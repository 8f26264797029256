package testutil

import (
	"time"

	"wagerbank/models"
)

// LegacyRecord is a record in the untagged shape written before version lines existed.
// Its open bet has no stake taken yet; reading it moves 250 from u1 into escrow.
const LegacyRecord = `{"users": {"u1": {"id": "u1", "balance": 1000, "lastPaycheck": "2023-06-01T09:15:00"},` +
	` "u2": {"id": "u2", "balance": 750, "lastPaycheck": "2023-06-01T09:20:00"}},` +
	` "currentBets": [{"p1": "u1", "p2": "u2", "arbitrator": "u3", "amount": 250, "condition": "coin flip",` +
	` "startTime": "2023-06-01T10:00:00", "endTime": "9999-12-31T23:59:59.999999", "pending": true, "p1Won": false}],` +
	` "history": []}`

// CreateTestUser creates a test user with a balance and no paycheck yet
func CreateTestUser(id string, balance int64) *models.User {
	return &models.User{
		ID:      id,
		Balance: balance,
	}
}

// CreateTestWager creates an accepted wager started at the given time
func CreateTestWager(proposer, counterparty, arbitrator string, amount int64, start time.Time) *models.Wager {
	return &models.Wager{
		Proposer:     proposer,
		Counterparty: counterparty,
		Arbitrator:   arbitrator,
		Amount:       amount,
		Condition:    "test condition",
		StartTime:    start.UTC(),
		EndTime:      models.NotEnded,
	}
}

// CreateTestLedger creates a ledger holding the given users
func CreateTestLedger(users ...*models.User) *models.Ledger {
	ledger := models.NewLedger()
	for _, user := range users {
		ledger.Users[user.ID] = user
	}
	return ledger
}
