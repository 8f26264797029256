package models

import (
	"time"
)

// User represents a community member with a balance
type User struct {
	ID           string
	Balance      int64
	LastPaycheck time.Time // Zero time for a user who was never paid
}

// CanAfford checks if the user's balance covers the given amount
func (u *User) CanAfford(amount int64) bool {
	return u != nil && u.Balance >= amount
}
