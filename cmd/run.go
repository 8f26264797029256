package cmd

import (
	"context"
	"fmt"
	"time"

	"wagerbank/config"
	"wagerbank/database"
	"wagerbank/events"
	"wagerbank/repository"
	"wagerbank/service"

	log "github.com/sirupsen/logrus"
)

// App holds the wired services of one process
type App struct {
	Config   *config.Config
	Store    service.LedgerStore
	Bank     service.BankService
	EventBus *events.Bus

	closers []func()
}

// NewApp connects the configured storage backend and wires the services
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	log.WithFields(log.Fields{
		"environment": cfg.Environment,
		"storage":     cfg.StorageBackend,
		"lock":        cfg.LockBackend,
	}).Debug("Initializing wagerbank")

	app := &App{
		Config:   cfg,
		EventBus: events.NewBus(),
	}

	store, err := app.openStore(ctx)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Store = store

	loc, err := cfg.PaycheckLocation()
	if err != nil {
		app.Close()
		return nil, err
	}

	clock := service.Clock(time.Now)
	wagerService := service.NewWagerService(clock)
	userService := service.NewUserService(service.PaycheckConfig{
		Amount:    cfg.PaycheckAmount,
		Location:  loc,
		ResetHour: cfg.PaycheckResetHour,
	}, clock)
	app.Bank = service.NewBankService(store, app.EventBus, wagerService, userService, cfg.HistoryLimit)

	subscribeAudit(app.EventBus)

	return app, nil
}

func (a *App) openStore(ctx context.Context) (service.LedgerStore, error) {
	cfg := a.Config

	switch cfg.StorageBackend {
	case config.StoragePostgres:
		db, err := database.NewConnection(ctx, database.ConstructDatabaseURL(cfg.DatabaseURL, cfg.DatabaseName))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		log.Debug("Database connection established")
		return repository.NewPostgresLedgerStore(db), nil

	case config.StorageFile:
		locker, err := a.openLocker(ctx)
		if err != nil {
			return nil, err
		}
		store, err := repository.NewFileLedgerStore(cfg.DataDir, locker)
		if err != nil {
			return nil, fmt.Errorf("failed to open data directory: %w", err)
		}
		return store, nil
	}

	return nil, fmt.Errorf("unknown storage backend: %s", cfg.StorageBackend)
}

func (a *App) openLocker(ctx context.Context) (repository.Locker, error) {
	cfg := a.Config
	if cfg.LockBackend != config.LockRedis {
		return repository.NewFileLocker(cfg.DataDir, cfg.LockTimeout), nil
	}

	client, err := repository.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	a.closers = append(a.closers, func() {
		if err := client.Close(); err != nil {
			log.WithError(err).Warn("Failed to close redis client")
		}
	})

	locker, err := repository.NewRedisLocker(client, cfg.LockTTL, cfg.LockTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to create redis locker: %w", err)
	}
	return locker, nil
}

// Close drains event handlers and releases connections, newest first
func (a *App) Close() {
	a.EventBus.Wait()
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
