package schema

import (
	"time"

	"wagerbank/models"
)

// envelope is one historical shape of a ledger record. Each shape knows how to
// turn itself into the next one; the chain ends at the current shape.
type envelope interface {
	version() Version
	upgrade() envelope
}

type betV2 struct {
	betV1
	Pending bool `json:"pending"`
}

type ledgerV2 struct {
	Users       map[string]legacyUser `json:"users"`
	CurrentBets []betV2               `json:"currentBets"`
	History     []betV2               `json:"history"`
}

func (l *ledgerV2) version() Version { return V2 }

func (l *ledgerV2) upgrade() envelope {
	next := &ledgerV3{Users: l.Users}
	for _, bet := range l.CurrentBets {
		next.CurrentBets = append(next.CurrentBets, betV3{betV2: bet})
	}
	for _, bet := range l.History {
		next.History = append(next.History, betV3{betV2: bet})
	}
	return next
}

type betV3 struct {
	betV2
	P1WantsCancel bool `json:"p1WantsCancel"`
	P2WantsCancel bool `json:"p2WantsCancel"`
}

type ledgerV3 struct {
	Users       map[string]legacyUser `json:"users"`
	CurrentBets []betV3               `json:"currentBets"`
	History     []betV3               `json:"history"`
}

func (l *ledgerV3) version() Version { return V3 }

func (l *ledgerV3) upgrade() envelope {
	next := &ledgerV4{Users: l.Users}
	for _, bet := range l.CurrentBets {
		next.CurrentBets = append(next.CurrentBets, betV4{betV3: bet})
	}
	for _, bet := range l.History {
		next.History = append(next.History, betV4{betV3: bet})
	}
	return next
}

type betV4 struct {
	betV3
	Rejected bool `json:"rejected"`
}

type ledgerV4 struct {
	Users       map[string]legacyUser `json:"users"`
	CurrentBets []betV4               `json:"currentBets"`
	History     []betV4               `json:"history"`
}

func (l *ledgerV4) version() Version { return V4 }

func (l *ledgerV4) upgrade() envelope {
	next := &ledgerV5{
		Users:        make(map[string]userV5, len(l.Users)),
		ActiveWagers: make([]wagerV5, 0, len(l.CurrentBets)),
		History:      make([]wagerV5, 0, len(l.History)),
	}
	for key, user := range l.Users {
		next.Users[key] = userV5{
			ID:           user.ID,
			Balance:      user.Balance,
			LastPaycheck: time.Time(user.LastPaycheck),
		}
	}
	for _, bet := range l.CurrentBets {
		next.ActiveWagers = append(next.ActiveWagers, bet.rename())
	}
	for _, bet := range l.History {
		next.History = append(next.History, bet.rename())
	}
	return next
}

func (b betV4) rename() wagerV5 {
	return wagerV5{
		Proposer:                b.P1,
		Counterparty:            b.P2,
		Arbitrator:              b.Arbitrator,
		Amount:                  b.Amount,
		Condition:               b.Condition,
		StartTime:               time.Time(b.StartTime),
		EndTime:                 time.Time(b.EndTime),
		Pending:                 b.Pending,
		ProposerWon:             b.P1Won,
		Rejected:                b.Rejected,
		ProposerWantsCancel:     b.P1WantsCancel,
		CounterpartyWantsCancel: b.P2WantsCancel,
	}
}

type userV5 struct {
	ID           string    `json:"id"`
	Balance      int64     `json:"balance"`
	LastPaycheck time.Time `json:"last_paycheck"`
}

type wagerV5 struct {
	Proposer                string    `json:"proposer"`
	Counterparty            string    `json:"counterparty"`
	Arbitrator              string    `json:"arbitrator"`
	Amount                  int64     `json:"amount"`
	Condition               string    `json:"condition"`
	StartTime               time.Time `json:"start_time"`
	EndTime                 time.Time `json:"end_time"`
	Pending                 bool      `json:"pending"`
	ProposerWon             bool      `json:"proposer_won"`
	Rejected                bool      `json:"rejected"`
	ProposerWantsCancel     bool      `json:"proposer_wants_cancel"`
	CounterpartyWantsCancel bool      `json:"counterparty_wants_cancel"`
}

type ledgerV5 struct {
	Users        map[string]userV5 `json:"users"`
	ActiveWagers []wagerV5         `json:"active_wagers"`
	History      []wagerV5         `json:"history"`
}

func (l *ledgerV5) version() Version { return V5 }

func (l *ledgerV5) upgrade() envelope { return nil }

func (l *ledgerV5) toLedger() *models.Ledger {
	ledger := models.NewLedger()
	for key, user := range l.Users {
		id := user.ID
		if id == "" {
			id = key
		}
		ledger.Users[id] = &models.User{
			ID:           id,
			Balance:      user.Balance,
			LastPaycheck: user.LastPaycheck.UTC(),
		}
	}
	for _, wager := range l.ActiveWagers {
		ledger.ActiveWagers = append(ledger.ActiveWagers, wager.toWager())
	}
	for _, wager := range l.History {
		ledger.History = append(ledger.History, wager.toWager())
	}
	return ledger
}

func (w wagerV5) toWager() *models.Wager {
	return &models.Wager{
		Proposer:                w.Proposer,
		Counterparty:            w.Counterparty,
		Arbitrator:              w.Arbitrator,
		Amount:                  w.Amount,
		Condition:               w.Condition,
		StartTime:               w.StartTime.UTC(),
		EndTime:                 w.EndTime.UTC(),
		Pending:                 w.Pending,
		ProposerWon:             w.ProposerWon,
		Rejected:                w.Rejected,
		ProposerWantsCancel:     w.ProposerWantsCancel,
		CounterpartyWantsCancel: w.CounterpartyWantsCancel,
	}
}

func fromLedger(ledger *models.Ledger) *ledgerV5 {
	record := &ledgerV5{
		Users:        make(map[string]userV5, len(ledger.Users)),
		ActiveWagers: make([]wagerV5, 0, len(ledger.ActiveWagers)),
		History:      make([]wagerV5, 0, len(ledger.History)),
	}
	for id, user := range ledger.Users {
		record.Users[id] = userV5{
			ID:           user.ID,
			Balance:      user.Balance,
			LastPaycheck: user.LastPaycheck.UTC(),
		}
	}
	for _, wager := range ledger.ActiveWagers {
		record.ActiveWagers = append(record.ActiveWagers, toWagerV5(wager))
	}
	for _, wager := range ledger.History {
		record.History = append(record.History, toWagerV5(wager))
	}
	return record
}

func toWagerV5(w *models.Wager) wagerV5 {
	return wagerV5{
		Proposer:                w.Proposer,
		Counterparty:            w.Counterparty,
		Arbitrator:              w.Arbitrator,
		Amount:                  w.Amount,
		Condition:               w.Condition,
		StartTime:               w.StartTime.UTC(),
		EndTime:                 w.EndTime.UTC(),
		Pending:                 w.Pending,
		ProposerWon:             w.ProposerWon,
		Rejected:                w.Rejected,
		ProposerWantsCancel:     w.ProposerWantsCancel,
		CounterpartyWantsCancel: w.CounterpartyWantsCancel,
	}
}
