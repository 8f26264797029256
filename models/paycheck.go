package models

import "time"

// PaycheckResult represents the outcome of a daily paycheck request (returned to the user)
type PaycheckResult struct {
	Granted    bool
	Amount     int64
	NewBalance int64
	NextReset  time.Time
	Remaining  time.Duration // Zero when granted
}
