package service

import (
	"time"
	// Reference zones must resolve on hosts without a zoneinfo database
	_ "time/tzdata"
)

// GetNextResetTime calculates the first daily cutover strictly after now, in the reference zone
func GetNextResetTime(now time.Time, loc *time.Location, resetHour int) time.Time {
	local := now.In(loc)
	resetTime := time.Date(local.Year(), local.Month(), local.Day(), resetHour, 0, 0, 0, loc)

	// If current time is past today's reset, use tomorrow's
	if !local.Before(resetTime) {
		resetTime = time.Date(local.Year(), local.Month(), local.Day()+1, resetHour, 0, 0, 0, loc)
	}

	return resetTime
}

// GetCurrentPeriodStart calculates the most recent daily cutover at or before now, in the reference zone
func GetCurrentPeriodStart(now time.Time, loc *time.Location, resetHour int) time.Time {
	local := now.In(loc)
	periodStart := time.Date(local.Year(), local.Month(), local.Day(), resetHour, 0, 0, 0, loc)

	// If current time is before today's reset, use yesterday's reset time
	if local.Before(periodStart) {
		periodStart = time.Date(local.Year(), local.Month(), local.Day()-1, resetHour, 0, 0, 0, loc)
	}

	return periodStart
}
