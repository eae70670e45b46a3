package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/arenaplay/arena/cmd"
	"github.com/arenaplay/arena/database"

	log "github.com/sirupsen/logrus"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if len(os.Args) > 1 {
		if err := runCommand(ctx, os.Args[1], os.Args[2:]); err != nil {
			log.WithError(err).Fatalf("%s failed", os.Args[1])
		}
		return
	}

	if err := cmd.Run(ctx); err != nil {
		log.WithError(err).Fatal("Application error")
	}
}

func runCommand(ctx context.Context, name string, args []string) error {
	switch name {
	case "serve":
		return cmd.Run(ctx)
	case "migrate":
		return handleMigrationCommand(args)
	case "sweep":
		return cmd.Sweep(ctx)
	case "reconcile":
		if len(args) < 1 {
			return fmt.Errorf("usage: arena reconcile <user-id>")
		}
		userID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid user id %q: %w", args[0], err)
		}
		return cmd.Reconcile(ctx, userID)
	default:
		return fmt.Errorf("unknown command %q (expected serve, migrate, sweep or reconcile)", name)
	}
}

func handleMigrationCommand(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: arena migrate [up|down|status] [args...]")
	}

	switch args[0] {
	case "up":
		return database.MigrateUp()
	case "down":
		steps := "1"
		if len(args) > 1 {
			steps = args[1]
		}
		return database.MigrateDown(steps)
	case "status":
		return cmd.MigrationStatus()
	default:
		return fmt.Errorf("unknown migration command: %s", args[0])
	}
}
