package service

import (
	"fmt"
	"strings"
	"time"

	"wagerbank/events"
	"wagerbank/models"
)

type wagerService struct {
	now Clock
}

// NewWagerService creates a new wager service
func NewWagerService(clock Clock) WagerService {
	if clock == nil {
		clock = time.Now
	}
	return &wagerService{
		now: clock,
	}
}

// Propose creates a new wager proposal and escrows the proposer's stake
func (s *wagerService) Propose(ledger *models.Ledger, bus EventPublisher, proposerID, counterpartyID, arbitratorID string, amount int64, condition string) string {
	// Validate inputs
	if counterpartyID == "" {
		return invalidArgument(ArgAgainst)
	}
	if arbitratorID == "" {
		return invalidArgument(ArgArbitrator)
	}
	if amount <= 0 {
		return invalidArgument(ArgAmount)
	}
	if strings.TrimSpace(condition) == "" {
		return invalidArgument(ArgCondition)
	}
	if counterpartyID == proposerID {
		return "You cannot bet against yourself"
	}

	now := s.now().UTC()
	wager := &models.Wager{
		Proposer:     proposerID,
		Counterparty: counterpartyID,
		Arbitrator:   arbitratorID,
		Amount:       amount,
		Condition:    condition,
		StartTime:    now,
		EndTime:      models.NotEnded,
		Pending:      true,
	}

	const failMsg = "Failed to place bet"
	if existing := ledger.FindActiveWager(proposerID, counterpartyID); existing != nil {
		return fmt.Sprintf("%s\n%s\nCannot place bet. There is already a bet between %s and %s",
			failMsg, describeActive(existing), mention(proposerID), mention(counterpartyID))
	}

	// Balance checks must not create either user
	proposerShort := ledger.Balance(proposerID) < amount
	counterpartyShort := ledger.Balance(counterpartyID) < amount
	switch {
	case proposerShort && counterpartyShort:
		return fmt.Sprintf("%s\n%s\nNeither %s nor %s has enough money for this bet!",
			failMsg, describeActive(wager), mention(proposerID), mention(counterpartyID))
	case proposerShort:
		return fmt.Sprintf("%s\n%s\n%s does not have enough money for this bet!",
			failMsg, describeActive(wager), mention(proposerID))
	case counterpartyShort:
		return fmt.Sprintf("%s\n%s\n%s does not have enough money for this bet!",
			failMsg, describeActive(wager), mention(counterpartyID))
	}

	proposer := ledger.GetOrCreateUser(proposerID)
	adjustBalance(bus, ledger.CommunityID, proposer, -amount, events.BalanceChangeEscrow)
	ledger.ActiveWagers = append(ledger.ActiveWagers, wager)
	publish(bus, wagerEvent(ledger, events.WagerProposed, proposerID, wager))

	return fmt.Sprintf("%s has requested a bet!\n%s\nWill %s accept?",
		mention(proposerID), describeActive(wager), mention(counterpartyID))
}

// Accept activates a pending wager once its counterparty escrows the matching stake
func (s *wagerService) Accept(ledger *models.Ledger, bus EventPublisher, actorID, counterpartyID string) string {
	if counterpartyID == "" {
		return invalidArgument(ArgAgainst)
	}
	wager := ledger.FindActiveWager(actorID, counterpartyID)
	if wager == nil {
		return noBetBetween(actorID, counterpartyID)
	}
	if !wager.Pending {
		return fmt.Sprintf("The bet between %s and %s has already been accepted", mention(actorID), mention(counterpartyID))
	}
	if wager.Proposer == actorID {
		return fmt.Sprintf("Waiting for %s to accept the bet", mention(wager.Counterparty))
	}

	counterparty := ledger.GetOrCreateUser(actorID)
	if !counterparty.CanAfford(wager.Amount) {
		return fmt.Sprintf("Failed to accept bet\n%s\n%s does not have enough money for this bet!",
			describeActive(wager), mention(actorID))
	}

	adjustBalance(bus, ledger.CommunityID, counterparty, -wager.Amount, events.BalanceChangeEscrow)
	wager.Pending = false
	wager.StartTime = s.now().UTC()
	publish(bus, wagerEvent(ledger, events.WagerAccepted, actorID, wager))

	return fmt.Sprintf("%s accepted the bet!\n%s", mention(actorID), describeActive(wager))
}

// Reject vetoes a pending wager as its counterparty. Anything else is a cancellation request.
func (s *wagerService) Reject(ledger *models.Ledger, bus EventPublisher, actorID, counterpartyID string) string {
	if counterpartyID == "" {
		return invalidArgument(ArgAgainst)
	}
	wager := ledger.FindActiveWager(actorID, counterpartyID)
	if wager == nil {
		return noBetBetween(actorID, counterpartyID)
	}
	if !wager.Pending || wager.Counterparty != actorID {
		return s.requestCancel(ledger, bus, actorID, wager)
	}

	wager.CounterpartyWantsCancel = true
	wager.Rejected = true
	s.finalizeCancel(ledger, bus, actorID, wager, events.WagerRejected)

	return fmt.Sprintf("%s rejected the bet\n%s\n%s refunded to %s",
		mention(actorID), describeFinished(wager), FormatMoney(wager.Amount), mention(wager.Proposer))
}

// Cancel records the actor's consent to cancel the wager between actor and counterparty
func (s *wagerService) Cancel(ledger *models.Ledger, bus EventPublisher, actorID, counterpartyID string) string {
	if counterpartyID == "" {
		return invalidArgument(ArgAgainst)
	}
	wager := ledger.FindActiveWager(actorID, counterpartyID)
	if wager == nil {
		return noBetBetween(actorID, counterpartyID)
	}
	return s.requestCancel(ledger, bus, actorID, wager)
}

func (s *wagerService) requestCancel(ledger *models.Ledger, bus EventPublisher, actorID string, wager *models.Wager) string {
	if actorID == wager.Proposer {
		wager.ProposerWantsCancel = true
	} else {
		wager.CounterpartyWantsCancel = true
	}

	if !wager.Pending && !wager.BothWantCancel() {
		publish(bus, wagerEvent(ledger, events.WagerCancelRequested, actorID, wager))
		return fmt.Sprintf("%s wants to cancel the bet\n%s\nWaiting for %s to cancel too",
			mention(actorID), describeActive(wager), mention(wager.Opponent(actorID)))
	}

	wasPending := wager.Pending
	s.finalizeCancel(ledger, bus, actorID, wager, events.WagerCanceled)

	if wasPending {
		return fmt.Sprintf("Bet canceled\n%s\n%s refunded to %s",
			describeFinished(wager), FormatMoney(wager.Amount), mention(wager.Proposer))
	}
	return fmt.Sprintf("Bet canceled\n%s\n%s refunded to %s and %s",
		describeFinished(wager), FormatMoney(wager.Amount), mention(wager.Proposer), mention(wager.Counterparty))
}

// finalizeCancel refunds every escrowed stake and archives the wager
func (s *wagerService) finalizeCancel(ledger *models.Ledger, bus EventPublisher, actorID string, wager *models.Wager, action events.WagerAction) {
	adjustBalance(bus, ledger.CommunityID, ledger.GetOrCreateUser(wager.Proposer), wager.Amount, events.BalanceChangeRefund)
	if !wager.Pending {
		adjustBalance(bus, ledger.CommunityID, ledger.GetOrCreateUser(wager.Counterparty), wager.Amount, events.BalanceChangeRefund)
	}
	ledger.Archive(wager, s.now().UTC())
	publish(bus, wagerEvent(ledger, action, actorID, wager))
}

// Decide settles an accepted wager; only its arbitrator may do so
func (s *wagerService) Decide(ledger *models.Ledger, bus EventPublisher, actorID, victorID, loserID string) string {
	if victorID == "" {
		return invalidArgument(ArgVictor)
	}
	if loserID == "" || loserID == victorID {
		return invalidArgument(ArgLoser)
	}
	wager := ledger.FindActiveWager(victorID, loserID)
	if wager == nil {
		return noBetBetween(victorID, loserID)
	}
	if wager.Arbitrator != actorID {
		return fmt.Sprintf("Only %s can decide this bet\n%s", mention(wager.Arbitrator), describeActive(wager))
	}
	if wager.Pending {
		return fmt.Sprintf("%s has not accepted the bet yet\n%s", mention(wager.Counterparty), describeActive(wager))
	}

	wager.ProposerWon = victorID == wager.Proposer
	adjustBalance(bus, ledger.CommunityID, ledger.GetOrCreateUser(victorID), 2*wager.Amount, events.BalanceChangeWagerPayout)
	ledger.Archive(wager, s.now().UTC())
	publish(bus, wagerEvent(ledger, events.WagerSettled, actorID, wager))

	return fmt.Sprintf("%s decided the bet!\n%s", mention(actorID), describeFinished(wager))
}

// Wagers lists the actor's active wagers
func (s *wagerService) Wagers(ledger *models.Ledger, actorID string) string {
	wagers := ledger.ActiveWagersFor(actorID)
	if len(wagers) == 0 {
		return fmt.Sprintf("%s has no active bets", mention(actorID))
	}
	lines := make([]string, 0, len(wagers))
	for _, wager := range wagers {
		lines = append(lines, describeActive(wager))
	}
	return strings.Join(lines, "\n\n")
}

// History lists the actor's finished wagers, newest first
func (s *wagerService) History(ledger *models.Ledger, actorID string, limit int) string {
	wagers := ledger.HistoryFor(actorID, limit)
	if len(wagers) == 0 {
		return fmt.Sprintf("%s has no finished bets", mention(actorID))
	}
	lines := make([]string, 0, len(wagers))
	for _, wager := range wagers {
		lines = append(lines, describeFinished(wager))
	}
	return strings.Join(lines, "\n\n")
}
