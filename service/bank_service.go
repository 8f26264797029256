package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"wagerbank/events"
	"wagerbank/models"

	log "github.com/sirupsen/logrus"
)

// Operation names one command a user can run against a community's ledger
type Operation string

const (
	OperationBank    Operation = "bank"
	OperationBet     Operation = "bet"
	OperationAccept  Operation = "accept"
	OperationReject  Operation = "reject"
	OperationDecide  Operation = "decide"
	OperationCancel  Operation = "cancel"
	OperationWagers  Operation = "wagers"
	OperationHistory Operation = "history"
)

// Operations lists every supported operation in help order
var Operations = []Operation{
	OperationBank, OperationBet, OperationAccept, OperationReject,
	OperationDecide, OperationCancel, OperationWagers, OperationHistory,
}

// Valid checks if the operation is supported
func (o Operation) Valid() bool {
	for _, op := range Operations {
		if o == op {
			return true
		}
	}
	return false
}

// Argument names as the chat command declares them
const (
	ArgAgainst    = "against"
	ArgArbitrator = "arbitrator"
	ArgAmount     = "amount"
	ArgCondition  = "condition"
	ArgVictor     = "victor"
	ArgLoser      = "loser"
)

// Arguments maps argument names to the loosely typed values a command router decoded
type Arguments map[string]any

// String returns a text argument, or "" when it is missing or not text
func (a Arguments) String(name string) string {
	switch v := a[name].(type) {
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	case fmt.Stringer:
		return strings.TrimSpace(v.String())
	}
	return ""
}

// Int returns a whole-number argument. ok is false when the argument is missing
// or cannot be read as an integer without losing precision.
func (a Arguments) Int(name string) (value int64, ok bool) {
	switch v := a[name].(type) {
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case float64:
		if v != math.Trunc(v) || math.Abs(v) >= math.MaxInt64 {
			return 0, false
		}
		return int64(v), true
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		return n, err == nil
	}
	return 0, false
}

type bankService struct {
	store        LedgerStore
	eventBus     *events.Bus
	wagers       WagerService
	users        UserService
	historyLimit int
}

// NewBankService creates the operation dispatcher. eventBus may be nil.
func NewBankService(store LedgerStore, eventBus *events.Bus, wagers WagerService, users UserService, historyLimit int) BankService {
	return &bankService{
		store:        store,
		eventBus:     eventBus,
		wagers:       wagers,
		users:        users,
		historyLimit: historyLimit,
	}
}

// Operate runs one operation inside a ledger transaction and emits its events once committed
func (s *bankService) Operate(ctx context.Context, communityID, actorID string, operation Operation, args Arguments) (string, error) {
	if !operation.Valid() {
		return fmt.Sprintf("Failed to parse command. Got unknown option: %s", operation), nil
	}
	if actorID == "" {
		return "Error: acting user is missing", nil
	}

	logger := log.WithFields(log.Fields{
		"community": communityID,
		"actor":     actorID,
		"operation": operation,
	})

	txBus := events.NewTransactionalBus(s.eventBus)
	content, err := WithLedger(ctx, s.store, communityID, func(ledger *models.Ledger) (string, error) {
		user := ledger.GetOrCreateUser(actorID)
		return s.dispatch(ledger, txBus, user, operation, args), nil
	})
	if err != nil {
		txBus.Discard()
		logger.WithError(err).Error("Ledger transaction aborted")
		return "", fmt.Errorf("failed to run %s: %w", operation, err)
	}

	eventCount := len(txBus.Pending())
	txBus.Flush(ctx)
	logger.WithField("events", eventCount).Info("Ledger operation committed")

	return content, nil
}

func (s *bankService) dispatch(ledger *models.Ledger, bus EventPublisher, user *models.User, operation Operation, args Arguments) string {
	switch operation {
	case OperationBank:
		return s.users.Bank(ledger, bus, user)
	case OperationBet:
		// An unreadable amount is reported after the arguments listed before it
		amount, _ := args.Int(ArgAmount)
		return s.wagers.Propose(ledger, bus, user.ID, args.String(ArgAgainst), args.String(ArgArbitrator), amount, args.String(ArgCondition))
	case OperationAccept:
		return s.wagers.Accept(ledger, bus, user.ID, args.String(ArgAgainst))
	case OperationReject:
		return s.wagers.Reject(ledger, bus, user.ID, args.String(ArgAgainst))
	case OperationCancel:
		return s.wagers.Cancel(ledger, bus, user.ID, args.String(ArgAgainst))
	case OperationDecide:
		return s.wagers.Decide(ledger, bus, user.ID, args.String(ArgVictor), args.String(ArgLoser))
	case OperationWagers:
		return s.wagers.Wagers(ledger, user.ID)
	case OperationHistory:
		return s.wagers.History(ledger, user.ID, s.historyLimit)
	}
	return fmt.Sprintf("Failed to parse command. Got unknown option: %s", operation)
}
