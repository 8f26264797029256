package service

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"wagerbank/models"

	"github.com/bwmarrin/discordgo"
	"github.com/dustin/go-humanize"
)

// mention renders a user id as a chat mention
func mention(userID string) string {
	return (&discordgo.User{ID: userID}).Mention()
}

// FormatMoney formats a currency amount with thousand separators
func FormatMoney(amount int64) string {
	if amount < 0 {
		return "-$" + humanize.Comma(-amount)
	}
	return "$" + humanize.Comma(amount)
}

// FormatRemaining renders how long until a future instant, e.g. "3 hours"
func FormatRemaining(now, then time.Time) string {
	return strings.TrimSpace(humanize.RelTime(now, then, "", ""))
}

func invalidArgument(name string) string {
	return fmt.Sprintf("Error: '%s' is invalid", name)
}

func noBetBetween(a, b string) string {
	return fmt.Sprintf("There is no bet between %s and %s", mention(a), mention(b))
}

// describeActive summarizes a wager still in flight
func describeActive(w *models.Wager) string {
	status := "accepted"
	if w.Pending {
		status = "waiting for " + mention(w.Counterparty) + " to accept"
	}
	return fmt.Sprintf("%s bets %s against %s (%s)\nCondition: %s\nArbitrator: %s",
		mention(w.Proposer), FormatMoney(w.Amount), mention(w.Counterparty), status, w.Condition, mention(w.Arbitrator))
}

// describeFinished summarizes a wager from history
func describeFinished(w *models.Wager) string {
	switch w.State() {
	case models.WagerStateSettled:
		return fmt.Sprintf("%s won %s from %s\nCondition: %s",
			mention(w.Winner()), FormatMoney(w.Amount), mention(w.Loser()), w.Condition)
	case models.WagerStateRejected:
		return fmt.Sprintf("%s rejected a %s bet from %s\nCondition: %s",
			mention(w.Counterparty), FormatMoney(w.Amount), mention(w.Proposer), w.Condition)
	default:
		return fmt.Sprintf("Canceled: %s vs %s for %s\nCondition: %s",
			mention(w.Proposer), mention(w.Counterparty), FormatMoney(w.Amount), w.Condition)
	}
}

// DescribeLedger summarizes every balance and wager of a community, for operators
func DescribeLedger(ledger *models.Ledger) string {
	var b strings.Builder

	ids := make([]string, 0, len(ledger.Users))
	for id := range ledger.Users {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	fmt.Fprintf(&b, "Users: %d\n", len(ids))
	for _, id := range ids {
		fmt.Fprintf(&b, "  %s: %s\n", id, FormatMoney(ledger.Users[id].Balance))
	}

	fmt.Fprintf(&b, "Active bets: %d (escrowed %s)\n", len(ledger.ActiveWagers), FormatMoney(ledger.Escrowed()))
	for _, wager := range ledger.ActiveWagers {
		fmt.Fprintf(&b, "  %s vs %s for %s [%s], arbitrator %s: %s\n",
			wager.Proposer, wager.Counterparty, FormatMoney(wager.Amount), wager.State(), wager.Arbitrator, wager.Condition)
	}

	fmt.Fprintf(&b, "Finished bets: %d\n", len(ledger.History))
	return b.String()
}
