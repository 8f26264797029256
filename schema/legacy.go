package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Records written before the version line existed are plain JSON objects.
// This file is the only place that knows how to recognise them.

// looksLegacy reports whether content has no usable version line
func looksLegacy(content []byte) bool {
	head := content[:min(len(content), MaxTagLength+1)]
	newline := bytes.IndexByte(head, '\n')
	if newline < 0 {
		return true
	}
	line := bytes.TrimSuffix(head[:newline], []byte("\r"))
	if len(line) == 0 || line[0] == '{' {
		return true
	}
	for _, c := range line {
		if c < 0x21 || c > 0x7e {
			return true
		}
	}
	return false
}

// Layouts the old serializer produced: naive ISO-8601, with or without fraction
var legacyTimeLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	time.RFC3339Nano,
}

// legacyTime decodes timestamps written without a zone. They are read as UTC,
// which is what the old process clock ran in.
type legacyTime time.Time

func (t *legacyTime) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*t = legacyTime(time.Time{})
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("timestamp is not a string: %w", err)
	}
	for _, layout := range legacyTimeLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			*t = legacyTime(parsed.UTC())
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", raw)
}

func (t legacyTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(t).UTC().Format("2006-01-02T15:04:05.999999"))
}

type legacyUser struct {
	ID           string     `json:"id"`
	Balance      int64      `json:"balance"`
	LastPaycheck legacyTime `json:"lastPaycheck"`
}

type betV1 struct {
	P1         string     `json:"p1"`
	P2         string     `json:"p2"`
	Arbitrator string     `json:"arbitrator"`
	Amount     int64      `json:"amount"`
	Condition  string     `json:"condition"`
	StartTime  legacyTime `json:"startTime"`
	EndTime    legacyTime `json:"endTime"`
	P1Won      bool       `json:"p1Won"`
}

// legacyBet is a bet as the untagged shape stored it. Later writers of that shape
// included pending; the earliest did not.
type legacyBet struct {
	betV1
	Pending *bool `json:"pending"`
}

type ledgerV1 struct {
	Users       map[string]legacyUser `json:"users"`
	CurrentBets []legacyBet           `json:"currentBets"`
	History     []legacyBet           `json:"history"`
}

func (l *ledgerV1) version() Version { return V1 }

// upgrade funds the open bets. Untagged records never took stakes out of balances,
// so each open bet is paid for now, in record order, by the rules in fund. A bet
// nobody can pay for is canceled after the existing history.
func (l *ledgerV1) upgrade() envelope {
	next := &ledgerV2{Users: make(map[string]legacyUser, len(l.Users))}
	for key, user := range l.Users {
		next.Users[key] = user
	}
	for _, bet := range l.History {
		next.History = append(next.History, betV2{betV1: bet.betV1, Pending: bet.Pending != nil && *bet.Pending})
	}

	for _, bet := range l.CurrentBets {
		pending := bet.Pending == nil || *bet.Pending
		funded, stillPending := next.fund(bet.betV1, pending)
		if !funded {
			// Ended at its own start so it never looks like a later cancellation
			canceled := bet.betV1
			canceled.EndTime = canceled.StartTime
			next.History = append(next.History, betV2{betV1: canceled, Pending: true})
			continue
		}
		next.CurrentBets = append(next.CurrentBets, betV2{betV1: bet.betV1, Pending: stillPending})
	}

	return next
}

// fund takes the stakes of an open legacy bet out of its participants' balances.
// An accepted bet keeps its status only if both sides can pay; otherwise the
// proposer alone pays and the bet waits for acceptance again.
func (l *ledgerV2) fund(bet betV1, pending bool) (funded, stillPending bool) {
	if bet.Amount <= 0 || bet.P1 == bet.P2 {
		return false, false
	}

	proposer, ok := l.Users[bet.P1]
	if !ok || proposer.Balance < bet.Amount {
		return false, false
	}
	if !pending {
		if counterparty, ok := l.Users[bet.P2]; ok && counterparty.Balance >= bet.Amount {
			proposer.Balance -= bet.Amount
			counterparty.Balance -= bet.Amount
			l.Users[bet.P1] = proposer
			l.Users[bet.P2] = counterparty
			return true, false
		}
	}
	proposer.Balance -= bet.Amount
	l.Users[bet.P1] = proposer
	return true, true
}
