package cmd

import (
	"context"
	"os"

	"wagerbank/config"
	"wagerbank/events"

	log "github.com/sirupsen/logrus"
)

// SetupLogging configures the global logger: JSON lines in production, text otherwise
func SetupLogging(cfg *config.Config) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
	log.SetOutput(os.Stderr)

	if cfg.IsProduction() {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}

// subscribeAudit logs every committed domain event
func subscribeAudit(bus *events.Bus) {
	bus.SubscribeAll(func(_ context.Context, event events.Event) {
		entry := log.WithField("eventType", event.Type())

		switch e := event.(type) {
		case events.BalanceChangeEvent:
			entry.WithFields(log.Fields{
				"community":  e.CommunityID,
				"user":       e.UserID,
				"oldBalance": e.OldBalance,
				"newBalance": e.NewBalance,
				"change":     e.ChangeAmount,
				"reason":     e.Reason,
			}).Info("Balance changed")
		case events.WagerEvent:
			fields := log.Fields{
				"community":    e.CommunityID,
				"action":       e.Action,
				"actor":        e.Actor,
				"proposer":     e.Proposer,
				"counterparty": e.Counterparty,
				"arbitrator":   e.Arbitrator,
				"amount":       e.Amount,
			}
			if e.Winner != "" {
				fields["winner"] = e.Winner
			}
			entry.WithFields(fields).Info("Wager transition")
		case events.PaycheckEvent:
			entry.WithFields(log.Fields{
				"community": e.CommunityID,
				"user":      e.UserID,
				"amount":    e.Amount,
			}).Info("Paycheck granted")
		default:
			entry.Warn("Unhandled event type")
		}
	})
}
