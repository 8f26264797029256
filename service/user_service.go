package service

import (
	"fmt"
	"time"

	"wagerbank/events"
	"wagerbank/models"
)

// DefaultPaycheckAmount is the daily grant when none is configured
const DefaultPaycheckAmount int64 = 1000

// PaycheckConfig holds the daily paycheck rules
type PaycheckConfig struct {
	Amount    int64
	Location  *time.Location // Reference zone for the daily cutover
	ResetHour int            // Hour of the cutover in Location, 0-23
}

// userService implements the UserService interface
type userService struct {
	paycheck PaycheckConfig
	now      Clock
}

// NewUserService creates a new user service
func NewUserService(paycheck PaycheckConfig, clock Clock) UserService {
	if paycheck.Amount <= 0 {
		paycheck.Amount = DefaultPaycheckAmount
	}
	if paycheck.Location == nil {
		paycheck.Location = time.UTC
	}
	if clock == nil {
		clock = time.Now
	}
	return &userService{
		paycheck: paycheck,
		now:      clock,
	}
}

// ClaimPaycheck grants the daily paycheck when the user's last one predates the current period
func (s *userService) ClaimPaycheck(ledger *models.Ledger, bus EventPublisher, user *models.User) *models.PaycheckResult {
	now := s.now()
	periodStart := GetCurrentPeriodStart(now, s.paycheck.Location, s.paycheck.ResetHour)
	nextReset := GetNextResetTime(now, s.paycheck.Location, s.paycheck.ResetHour)

	if !user.LastPaycheck.Before(periodStart) {
		return &models.PaycheckResult{
			Granted:    false,
			NewBalance: user.Balance,
			NextReset:  nextReset,
			Remaining:  nextReset.Sub(now),
		}
	}

	adjustBalance(bus, ledger.CommunityID, user, s.paycheck.Amount, events.BalanceChangePaycheck)
	user.LastPaycheck = now.UTC()
	publish(bus, events.PaycheckEvent{
		CommunityID: ledger.CommunityID,
		UserID:      user.ID,
		Amount:      s.paycheck.Amount,
	})

	return &models.PaycheckResult{
		Granted:    true,
		Amount:     s.paycheck.Amount,
		NewBalance: user.Balance,
		NextReset:  nextReset,
	}
}

// Bank claims the paycheck and reports the balance
func (s *userService) Bank(ledger *models.Ledger, bus EventPublisher, user *models.User) string {
	result := s.ClaimPaycheck(ledger, bus, user)

	var paycheckMessage string
	if result.Granted {
		paycheckMessage = fmt.Sprintf("Added daily paycheck: +%s", FormatMoney(result.Amount))
	} else {
		paycheckMessage = fmt.Sprintf("%s until next paycheck", FormatRemaining(s.now(), result.NextReset))
	}
	return fmt.Sprintf("Balance: %s\n%s", FormatMoney(result.NewBalance), paycheckMessage)
}
