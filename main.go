package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"wagerbank/cmd"
	"wagerbank/config"
	"wagerbank/database"
	"wagerbank/models"
	"wagerbank/service"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

const usage = `usage:
  wagerbank operate --community C --actor U <operation> [name=value...]
  wagerbank show --community C
  wagerbank upgrade --community C
  wagerbank migrate up|down [steps]|status`

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		return errors.New(usage)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	cmd.SetupLogging(cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	switch args[0] {
	case "operate":
		return runOperate(ctx, cfg, args[1:])
	case "show":
		return runShow(ctx, cfg, args[1:])
	case "upgrade":
		return runUpgrade(ctx, cfg, args[1:])
	case "migrate":
		return runMigrate(cfg, args[1:])
	default:
		return fmt.Errorf("unknown command %q\n%s", args[0], usage)
	}
}

func runOperate(ctx context.Context, cfg *config.Config, args []string) error {
	var communityID, actorID string
	flagSet := pflag.NewFlagSet("operate", pflag.ContinueOnError)
	flagSet.StringVar(&communityID, "community", "", "community whose ledger to operate on")
	flagSet.StringVar(&actorID, "actor", "", "id of the user issuing the operation")
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	rest := flagSet.Args()
	if len(rest) == 0 {
		return errors.New("operate needs an operation")
	}
	arguments, err := cmd.ParseArguments(rest[1:])
	if err != nil {
		return err
	}

	app, err := cmd.NewApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	content, err := app.Bank.Operate(ctx, communityID, actorID, service.Operation(rest[0]), arguments)
	if err != nil {
		return err
	}
	fmt.Println(content)
	return nil
}

func runShow(ctx context.Context, cfg *config.Config, args []string) error {
	communityID, err := parseCommunity("show", args)
	if err != nil {
		return err
	}

	app, err := cmd.NewApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	return app.Store.View(ctx, communityID, func(ledger *models.Ledger) error {
		fmt.Print(service.DescribeLedger(ledger))
		return nil
	})
}

// runUpgrade commits an untouched ledger, which rewrites an older record in the current version
func runUpgrade(ctx context.Context, cfg *config.Config, args []string) error {
	communityID, err := parseCommunity("upgrade", args)
	if err != nil {
		return err
	}

	app, err := cmd.NewApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.Store.Transact(ctx, communityID, func(*models.Ledger) error { return nil }); err != nil {
		return err
	}
	log.WithField("community", communityID).Info("Ledger record is at the current version")
	return nil
}

func parseCommunity(name string, args []string) (string, error) {
	var communityID string
	flagSet := pflag.NewFlagSet(name, pflag.ContinueOnError)
	flagSet.StringVar(&communityID, "community", "", "community whose ledger to use")
	if err := flagSet.Parse(args); err != nil {
		return "", err
	}
	if flagSet.NArg() > 0 {
		return "", fmt.Errorf("unexpected argument: %s", flagSet.Arg(0))
	}
	return communityID, nil
}

func runMigrate(cfg *config.Config, args []string) error {
	if cfg.StorageBackend != config.StoragePostgres {
		return fmt.Errorf("migrations only apply to the %s storage backend", config.StoragePostgres)
	}
	if len(args) == 0 {
		return errors.New("usage: wagerbank migrate up|down [steps]|status")
	}
	databaseURL := database.ConstructDatabaseURL(cfg.DatabaseURL, cfg.DatabaseName)

	switch args[0] {
	case "up":
		return database.MigrateUp(databaseURL)
	case "down":
		steps := 1
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil || n < 1 {
				return fmt.Errorf("invalid step count: %s", args[1])
			}
			steps = n
		}
		return database.MigrateDown(databaseURL, steps)
	case "status":
		status, err := database.GetMigrationStatus(databaseURL)
		if err != nil {
			return err
		}
		fmt.Printf("version: %d\ndirty: %t\napplied: %t\n", status.Version, status.Dirty, status.Applied)
		return nil
	default:
		return fmt.Errorf("unknown migration command: %s", args[0])
	}
}
