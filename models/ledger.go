package models

import (
	"slices"
	"time"
)

// Ledger holds every balance and wager of one community
type Ledger struct {
	CommunityID  string // Set by the store, not persisted
	Users        map[string]*User
	ActiveWagers []*Wager
	History      []*Wager
}

// NewLedger creates an empty ledger
func NewLedger() *Ledger {
	return &Ledger{
		Users:        make(map[string]*User),
		ActiveWagers: []*Wager{},
		History:      []*Wager{},
	}
}

// User returns the user with the given id without creating it
func (l *Ledger) User(userID string) (*User, bool) {
	user, ok := l.Users[userID]
	return user, ok
}

// GetOrCreateUser returns the user with the given id, creating it with a zero balance on first reference
func (l *Ledger) GetOrCreateUser(userID string) *User {
	if user, ok := l.Users[userID]; ok {
		return user
	}
	if l.Users == nil {
		l.Users = make(map[string]*User)
	}
	user := &User{ID: userID}
	l.Users[userID] = user
	return user
}

// Balance returns a user's balance, treating unknown users as broke
func (l *Ledger) Balance(userID string) int64 {
	if user, ok := l.Users[userID]; ok {
		return user.Balance
	}
	return 0
}

// FindActiveWager returns the first active wager between a and b in either order
func (l *Ledger) FindActiveWager(a, b string) *Wager {
	for _, wager := range l.ActiveWagers {
		if wager.Between(a, b) {
			return wager
		}
	}
	return nil
}

// Archive moves an active wager into history with the given end time
func (l *Ledger) Archive(wager *Wager, endTime time.Time) {
	idx := slices.Index(l.ActiveWagers, wager)
	if idx < 0 {
		return
	}
	l.ActiveWagers = slices.Delete(l.ActiveWagers, idx, idx+1)
	wager.EndTime = endTime
	l.History = append(l.History, wager)
}

// ActiveWagersFor returns the active wagers a user takes part in
func (l *Ledger) ActiveWagersFor(userID string) []*Wager {
	var wagers []*Wager
	for _, wager := range l.ActiveWagers {
		if wager.IsParticipant(userID) {
			wagers = append(wagers, wager)
		}
	}
	return wagers
}

// HistoryFor returns up to limit of the user's most recent finished wagers, newest first
func (l *Ledger) HistoryFor(userID string, limit int) []*Wager {
	var wagers []*Wager
	for i := len(l.History) - 1; i >= 0; i-- {
		if limit > 0 && len(wagers) >= limit {
			break
		}
		if l.History[i].IsParticipant(userID) {
			wagers = append(wagers, l.History[i])
		}
	}
	return wagers
}

// Escrowed returns the total currency held by active wagers
func (l *Ledger) Escrowed() int64 {
	var total int64
	for _, wager := range l.ActiveWagers {
		total += wager.Escrowed()
	}
	return total
}

// TotalBalance returns the sum of all user balances
func (l *Ledger) TotalBalance() int64 {
	var total int64
	for _, user := range l.Users {
		total += user.Balance
	}
	return total
}
