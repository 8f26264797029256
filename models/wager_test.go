package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func activeWager(proposer, counterparty string, amount int64, pending bool) *Wager {
	return &Wager{
		Proposer:     proposer,
		Counterparty: counterparty,
		Arbitrator:   "arb",
		Amount:       amount,
		Condition:    "condition",
		StartTime:    time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		EndTime:      NotEnded,
		Pending:      pending,
	}
}

func TestWager_State(t *testing.T) {
	ended := time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC)

	proposed := activeWager("a", "b", 10, true)
	assert.Equal(t, WagerStateProposed, proposed.State())

	accepted := activeWager("a", "b", 10, false)
	assert.Equal(t, WagerStateAccepted, accepted.State())

	settled := activeWager("a", "b", 10, false)
	settled.ProposerWon = true
	settled.EndTime = ended
	assert.Equal(t, WagerStateSettled, settled.State())
	assert.Equal(t, "a", settled.Winner())
	assert.Equal(t, "b", settled.Loser())

	canceled := activeWager("a", "b", 10, false)
	canceled.ProposerWantsCancel = true
	canceled.CounterpartyWantsCancel = true
	canceled.EndTime = ended
	assert.Equal(t, WagerStateCanceled, canceled.State())

	withdrawn := activeWager("a", "b", 10, true)
	withdrawn.ProposerWantsCancel = true
	withdrawn.EndTime = ended
	assert.Equal(t, WagerStateCanceled, withdrawn.State())

	rejected := activeWager("a", "b", 10, true)
	rejected.Rejected = true
	rejected.EndTime = ended
	assert.Equal(t, WagerStateRejected, rejected.State())
}

func TestWager_Escrowed(t *testing.T) {
	assert.Equal(t, int64(10), activeWager("a", "b", 10, true).Escrowed())
	assert.Equal(t, int64(20), activeWager("a", "b", 10, false).Escrowed())

	ended := activeWager("a", "b", 10, false)
	ended.EndTime = time.Now()
	assert.Zero(t, ended.Escrowed())
}

func TestWager_Participants(t *testing.T) {
	w := activeWager("a", "b", 10, false)

	assert.True(t, w.Between("a", "b"))
	assert.True(t, w.Between("b", "a"))
	assert.False(t, w.Between("a", "arb"))
	assert.False(t, w.IsParticipant("arb"))
	assert.Equal(t, "b", w.Opponent("a"))
	assert.Equal(t, "a", w.Opponent("b"))
	assert.Equal(t, "", w.Opponent("arb"))
}

func TestLedger_LookupsAndArchive(t *testing.T) {
	ledger := NewLedger()
	assert.Zero(t, ledger.Balance("ghost"))
	_, exists := ledger.User("ghost")
	assert.False(t, exists, "Balance must not create users")

	ledger.GetOrCreateUser("a").Balance = 90
	ledger.GetOrCreateUser("b").Balance = 90
	first := activeWager("a", "b", 10, false)
	second := activeWager("a", "c", 5, true)
	ledger.ActiveWagers = append(ledger.ActiveWagers, first, second)

	assert.Same(t, first, ledger.FindActiveWager("b", "a"))
	assert.Nil(t, ledger.FindActiveWager("b", "c"))
	assert.Len(t, ledger.ActiveWagersFor("a"), 2)
	assert.Equal(t, int64(25), ledger.Escrowed())
	assert.Equal(t, int64(180), ledger.TotalBalance())

	end := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)
	ledger.Archive(first, end)

	assert.Equal(t, []*Wager{second}, ledger.ActiveWagers)
	assert.Equal(t, []*Wager{first}, ledger.History)
	assert.Equal(t, end, first.EndTime)

	// Archiving twice is a no-op
	ledger.Archive(first, time.Now())
	assert.Len(t, ledger.History, 1)
}

func TestLedger_HistoryForNewestFirst(t *testing.T) {
	ledger := NewLedger()
	for i := 0; i < 5; i++ {
		w := activeWager("a", "b", int64(i+1), false)
		w.EndTime = time.Date(2024, time.January, i+1, 0, 0, 0, 0, time.UTC)
		ledger.History = append(ledger.History, w)
	}
	ledger.History = append(ledger.History, activeWager("x", "y", 99, false))

	recent := ledger.HistoryFor("a", 3)

	assert.Len(t, recent, 3)
	assert.Equal(t, int64(5), recent[0].Amount)
	assert.Equal(t, int64(3), recent[2].Amount)
	assert.Len(t, ledger.HistoryFor("a", 0), 5)
}
