package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/arenaplay/arena/application"
	"github.com/arenaplay/arena/application/dto"
	"github.com/arenaplay/arena/config"
	"github.com/arenaplay/arena/database"

	"github.com/pterm/pterm"
)

// MigrationStatus prints the schema version
func MigrationStatus() error {
	status, err := database.MigrateStatus()
	if err != nil {
		return err
	}
	if !status.Applied {
		pterm.Info.Println("No migrations applied")
		return nil
	}

	state := pterm.LightGreen("clean")
	if status.Dirty {
		state = pterm.LightRed("dirty")
	}
	pterm.Info.Printfln("Schema version %d (%s)", status.Version, state)
	return nil
}

// Sweep runs one cleanup sweep and prints what it refunded
func Sweep(ctx context.Context) error {
	return withCLIFactory(ctx, func(factory application.UnitOfWorkFactory) error {
		report := dto.NewSweepDTO(application.NewCleanupWorker(factory, nil).RunSweep(ctx))

		data := pterm.TableData{
			{"Battles expired", "Stakes refunded", "Tickets expired", "Failures"},
			{
				strconv.Itoa(report.BattlesExpired),
				strconv.FormatInt(report.StakesRefunded, 10),
				strconv.FormatInt(report.TicketsExpired, 10),
				strconv.Itoa(report.Failures),
			},
		}
		if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
			return err
		}
		if report.Failures > 0 {
			return fmt.Errorf("sweep finished with %d failures", report.Failures)
		}
		return nil
	})
}

// Reconcile compares one account with its ledger and prints the drift
func Reconcile(ctx context.Context, userID int64) error {
	return withCLIFactory(ctx, func(factory application.UnitOfWorkFactory) error {
		report, err := application.NewLedgerHandler(factory).Reconcile(ctx, userID)
		if err != nil {
			return err
		}
		r := dto.NewReconciliationDTO(report)

		data := pterm.TableData{
			{"", "Stored", "Ledger", "Drift"},
			{"Total", strconv.FormatInt(r.AvailableBalance+r.BlockedBalance, 10), strconv.FormatInt(r.LedgerTotal, 10), strconv.FormatInt(r.TotalDrift, 10)},
			{"Blocked", strconv.FormatInt(r.BlockedBalance, 10), strconv.FormatInt(r.LedgerBlocked, 10), strconv.FormatInt(r.BlockedDrift, 10)},
		}
		pterm.DefaultSection.Printfln("Account %d (%d entries)", r.UserID, r.EntryCount)
		if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
			return err
		}

		if r.Balanced {
			pterm.Success.Println("Ledger balanced")
			return nil
		}
		pterm.Warning.Println("Ledger drift detected")
		return nil
	})
}

func withCLIFactory(ctx context.Context, fn func(application.UnitOfWorkFactory) error) error {
	cfg := config.Get()
	cfg.ConfigureLogging()

	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	return fn(NewCLIFactory(db))
}
