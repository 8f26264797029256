package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"wagerbank/events"
	"wagerbank/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testCommunity = "guild-1"

type bankFixture struct {
	store *MockLedgerStore
	bus   *events.Bus
	bank  BankService

	mu       sync.Mutex
	received []events.Event
}

func newBankFixture(t *testing.T) *bankFixture {
	t.Helper()
	f := &bankFixture{
		store: NewMockLedgerStore(),
		bus:   events.NewBus(),
	}
	f.bus.SubscribeAll(func(_ context.Context, event events.Event) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.received = append(f.received, event)
	})
	f.store.On("Transact", mock.Anything, testCommunity).Return(nil)

	clock := fixedClock(testNow)
	f.bank = NewBankService(
		f.store,
		f.bus,
		NewWagerService(clock),
		NewUserService(PaycheckConfig{Amount: 1000, Location: time.UTC}, clock),
		10,
	)
	return f
}

func (f *bankFixture) operate(t *testing.T, actor string, op Operation, args Arguments) string {
	t.Helper()
	content, err := f.bank.Operate(context.Background(), testCommunity, actor, op, args)
	require.NoError(t, err)
	return content
}

func (f *bankFixture) events() []events.Event {
	f.bus.Wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]events.Event(nil), f.received...)
}

// fund gives each user one paycheck
func (f *bankFixture) fund(t *testing.T, users ...string) {
	t.Helper()
	for _, user := range users {
		f.operate(t, user, OperationBank, nil)
	}
}

func betArgs(against, arbitrator string, amount any, condition string) Arguments {
	return Arguments{
		ArgAgainst:    against,
		ArgArbitrator: arbitrator,
		ArgAmount:     amount,
		ArgCondition:  condition,
	}
}

func TestBankService_ScenarioA_Paycheck(t *testing.T) {
	f := newBankFixture(t)

	first := f.operate(t, "u1", OperationBank, nil)
	second := f.operate(t, "u1", OperationBank, nil)

	assert.Equal(t, "Balance: $1,000\nAdded daily paycheck: +$1,000", first)
	assert.Contains(t, second, "Balance: $1,000\n")
	assert.Contains(t, second, "until next paycheck")
	assert.Equal(t, int64(1000), f.store.Snapshot(testCommunity).Balance("u1"))
}

func TestBankService_ScenariosBThroughD(t *testing.T) {
	f := newBankFixture(t)
	f.fund(t, "u1", "u2")

	// B: proposal escrows the proposer's stake
	msg := f.operate(t, "u1", OperationBet, betArgs("u2", "u3", 500, "coin flip"))
	assert.Contains(t, msg, "<@u1> has requested a bet!")
	ledger := f.store.Snapshot(testCommunity)
	assert.Equal(t, int64(500), ledger.Balance("u1"))
	require.Len(t, ledger.ActiveWagers, 1)
	assert.True(t, ledger.ActiveWagers[0].Pending)

	// C: acceptance escrows the counterparty's stake
	f.operate(t, "u2", OperationAccept, Arguments{ArgAgainst: "u1"})
	ledger = f.store.Snapshot(testCommunity)
	assert.Equal(t, int64(500), ledger.Balance("u2"))
	assert.False(t, ledger.ActiveWagers[0].Pending)

	// D: the arbitrator pays out both stakes
	msg = f.operate(t, "u3", OperationDecide, Arguments{ArgVictor: "u1", ArgLoser: "u2"})
	assert.Contains(t, msg, "<@u1> won $500 from <@u2>")
	ledger = f.store.Snapshot(testCommunity)
	assert.Equal(t, int64(1500), ledger.Balance("u1"))
	assert.Equal(t, int64(500), ledger.Balance("u2"))
	assert.Empty(t, ledger.ActiveWagers)
	require.Len(t, ledger.History, 1)
	assert.True(t, ledger.History[0].ProposerWon)

	var settled int
	for _, event := range f.events() {
		if wagerEvt, ok := event.(events.WagerEvent); ok && wagerEvt.Action == events.WagerSettled {
			settled++
			assert.Equal(t, "u1", wagerEvt.Winner)
			assert.Equal(t, testCommunity, wagerEvt.CommunityID)
		}
	}
	assert.Equal(t, 1, settled)
}

func TestBankService_ScenarioE_CancelPending(t *testing.T) {
	f := newBankFixture(t)
	f.fund(t, "u1", "u2")
	f.operate(t, "u1", OperationBet, betArgs("u2", "u3", 500, "coin flip"))

	msg := f.operate(t, "u1", OperationCancel, Arguments{ArgAgainst: "u2"})

	assert.Contains(t, msg, "Bet canceled")
	ledger := f.store.Snapshot(testCommunity)
	assert.Equal(t, int64(1000), ledger.Balance("u1"))
	assert.Equal(t, int64(1000), ledger.Balance("u2"))
	assert.Empty(t, ledger.ActiveWagers)
	assert.Len(t, ledger.History, 1)
}

func TestBankService_ScenarioF_MutualCancel(t *testing.T) {
	f := newBankFixture(t)
	f.fund(t, "u1", "u2")
	f.operate(t, "u1", OperationBet, betArgs("u2", "u3", 500, "coin flip"))
	f.operate(t, "u2", OperationAccept, Arguments{ArgAgainst: "u1"})

	f.operate(t, "u1", OperationCancel, Arguments{ArgAgainst: "u2"})
	ledger := f.store.Snapshot(testCommunity)
	assert.Equal(t, int64(500), ledger.Balance("u1"))
	assert.Equal(t, int64(500), ledger.Balance("u2"))
	assert.Len(t, ledger.ActiveWagers, 1)

	f.operate(t, "u2", OperationCancel, Arguments{ArgAgainst: "u1"})
	ledger = f.store.Snapshot(testCommunity)
	assert.Equal(t, int64(1000), ledger.Balance("u1"))
	assert.Equal(t, int64(1000), ledger.Balance("u2"))
	assert.Empty(t, ledger.ActiveWagers)
	assert.Len(t, ledger.History, 1)
}

func TestBankService_RejectAndListings(t *testing.T) {
	f := newBankFixture(t)
	f.fund(t, "u1", "u2")
	f.operate(t, "u1", OperationBet, betArgs("u2", "u3", 200, "rain tomorrow"))

	assert.Contains(t, f.operate(t, "u1", OperationWagers, nil), "<@u1> bets $200 against <@u2>")

	msg := f.operate(t, "u2", OperationReject, Arguments{ArgAgainst: "u1"})
	assert.Contains(t, msg, "<@u2> rejected the bet")

	assert.Equal(t, "<@u1> has no active bets", f.operate(t, "u1", OperationWagers, nil))
	assert.Equal(t, "<@u2> rejected a $200 bet from <@u1>\nCondition: rain tomorrow", f.operate(t, "u1", OperationHistory, nil))
}

func TestBankService_AmountArgumentForms(t *testing.T) {
	tests := []struct {
		name     string
		amount   any
		accepted bool
	}{
		{"int", 100, true},
		{"float from JSON", float64(100), true},
		{"json number", json.Number("100"), true},
		{"decimal string", " 100 ", true},
		{"fractional", 99.5, false},
		{"word", "lots", false},
		{"missing", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newBankFixture(t)
			f.fund(t, "u1", "u2")

			msg := f.operate(t, "u1", OperationBet, betArgs("u2", "u3", tt.amount, "coin flip"))

			if tt.accepted {
				assert.Contains(t, msg, "has requested a bet!")
				assert.Equal(t, int64(900), f.store.Snapshot(testCommunity).Balance("u1"))
			} else {
				assert.Equal(t, "Error: 'amount' is invalid", msg)
				assert.Empty(t, f.store.Snapshot(testCommunity).ActiveWagers)
			}
		})
	}
}

func TestBankService_MissingArgumentsReportedInOrder(t *testing.T) {
	f := newBankFixture(t)

	assert.Equal(t, "Error: 'against' is invalid", f.operate(t, "u1", OperationBet, Arguments{}))
	assert.Equal(t, "Error: 'arbitrator' is invalid", f.operate(t, "u1", OperationBet, Arguments{ArgAgainst: "u2"}))
	assert.Equal(t, "Error: 'victor' is invalid", f.operate(t, "u1", OperationDecide, Arguments{ArgLoser: "u2"}))
}

func TestBankService_RejectedProposalOnlyRegistersActor(t *testing.T) {
	f := newBankFixture(t)
	f.fund(t, "u2")
	before := f.store.Snapshot(testCommunity)

	content := f.operate(t, "newcomer", OperationBet, betArgs("u2", "u3", 0, "rain"))

	assert.Equal(t, "Error: 'amount' is invalid", content)
	after := f.store.Snapshot(testCommunity)
	assert.Empty(t, after.ActiveWagers)
	assert.Empty(t, after.History)
	assert.Equal(t, before.Balance("u2"), after.Balance("u2"))
	assert.Equal(t, before.TotalBalance(), after.TotalBalance())
	require.Contains(t, after.Users, "newcomer")
	assert.Zero(t, after.Users["newcomer"].Balance)
	assert.NotContains(t, after.Users, "u3")
	assert.Len(t, after.Users, 2)
}

func TestBankService_UnknownOperationDoesNotOpenStore(t *testing.T) {
	store := NewMockLedgerStore()
	bank := NewBankService(store, nil, NewWagerService(nil), NewUserService(PaycheckConfig{}, nil), 10)

	content, err := bank.Operate(context.Background(), testCommunity, "u1", Operation("gamble"), nil)

	require.NoError(t, err)
	assert.Equal(t, "Failed to parse command. Got unknown option: gamble", content)
	store.AssertNotCalled(t, "Transact", mock.Anything, mock.Anything)
}

func TestBankService_StorageFaultIsAnError(t *testing.T) {
	storageErr := errors.New("disk on fire")
	store := NewMockLedgerStore()
	store.On("Transact", mock.Anything, testCommunity).Return(storageErr)
	bus := events.NewBus()
	var delivered int
	var mu sync.Mutex
	bus.SubscribeAll(func(context.Context, events.Event) {
		mu.Lock()
		defer mu.Unlock()
		delivered++
	})
	bank := NewBankService(store, bus, NewWagerService(nil), NewUserService(PaycheckConfig{}, nil), 10)

	content, err := bank.Operate(context.Background(), testCommunity, "u1", OperationBank, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, storageErr)
	assert.Empty(t, content)
	bus.Wait()
	assert.Zero(t, delivered)
	assert.Nil(t, store.Record(testCommunity))
}

func TestWithLedger_AbortLeavesRecordUnchanged(t *testing.T) {
	store := NewMockLedgerStore()
	store.On("Transact", mock.Anything, testCommunity).Return(nil)
	seed := models.NewLedger()
	seed.GetOrCreateUser("u1").Balance = 42
	store.Seed(testCommunity, seed)
	before := store.Record(testCommunity)
	abort := errors.New("changed my mind")

	value, err := WithLedger(context.Background(), store, testCommunity, func(ledger *models.Ledger) (int, error) {
		ledger.GetOrCreateUser("u1").Balance = 0
		return 7, abort
	})

	assert.ErrorIs(t, err, abort)
	assert.Zero(t, value)
	assert.Equal(t, before, store.Record(testCommunity))

	value, err = WithLedger(context.Background(), store, testCommunity, func(ledger *models.Ledger) (int, error) {
		return int(ledger.Balance("u1")), nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, value)
}

func TestArguments_String(t *testing.T) {
	args := Arguments{"name": "  u1 ", "number": json.Number("123"), "int": 5}

	assert.Equal(t, "u1", args.String("name"))
	assert.Equal(t, "123", args.String("number"))
	assert.Equal(t, "", args.String("int"))
	assert.Equal(t, "", args.String("missing"))
}
