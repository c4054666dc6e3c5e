package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ragforge/console/internal/bootstrap"
	"github.com/ragforge/console/internal/data"
	"github.com/ragforge/console/internal/domain/model"
)

const defaultMigrationTimeout = 5 * time.Minute

type runsOptions struct {
	Kind  *model.JobKind
	Limit int
	Query string
}

type migrateOptions struct {
	Timeout time.Duration
}

func runRuns(cmdCtx *commandContext, args []string) error {
	opts, err := parseRunsFlags(args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, time.Minute)
	defer cancel()

	db, err := bootstrap.ConnectDB(bootstrap.DatabaseConfig{
		DBConfig: cmdCtx.Config.Postgres,
		Logger:   cmdCtx.Logger,
	})
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			cmdCtx.Logger.Warn("db close failed", "error", closeErr)
		}
	}()

	runs, err := data.NewJobRunRepo(db).Recent(ctx, data.RecentRunsOptions{
		Kind:  opts.Kind,
		Limit: opts.Limit,
	})
	if err != nil {
		return err
	}
	if runs == nil {
		runs = []model.JobRun{}
	}
	return printJSON(os.Stdout, map[string]any{"runs": runs}, opts.Query)
}

func runMigrations(cmdCtx *commandContext, args []string) error {
	opts, err := parseMigrateFlags(args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmdCtx.Ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	db, err := bootstrap.ConnectDB(bootstrap.DatabaseConfig{
		DBConfig: cmdCtx.Config.Postgres,
		Logger:   cmdCtx.Logger,
	})
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			cmdCtx.Logger.Warn("db close failed", "error", closeErr)
		}
	}()

	cmdCtx.Logger.Info("running database migrations")

	if migrateErr := bootstrap.RunMigrations(ctx, db, cmdCtx.Logger); migrateErr != nil {
		return fmt.Errorf("run migrations: %w", migrateErr)
	}

	cmdCtx.Logger.Info("migrations completed successfully")
	return nil
}

func parseRunsFlags(args []string) (runsOptions, error) {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var (
		opts    runsOptions
		kindRaw string
	)
	fs.StringVar(&kindRaw, "kind", "", "Filter by job kind")
	fs.IntVar(&opts.Limit, "limit", 20, "Maximum runs to list")
	fs.StringVar(&opts.Query, "query", "", "JMESPath expression applied to the output")

	if err := fs.Parse(args); err != nil {
		return runsOptions{}, err
	}

	if kindRaw != "" {
		var kind model.JobKind
		if err := kind.UnmarshalText([]byte(kindRaw)); err != nil {
			return runsOptions{}, fmt.Errorf("--kind: %w", err)
		}
		opts.Kind = &kind
	}
	if opts.Limit < 0 {
		return runsOptions{}, errors.New("--limit must not be negative")
	}
	return opts, nil
}

func parseMigrateFlags(args []string) (migrateOptions, error) {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := migrateOptions{
		Timeout: defaultMigrationTimeout,
	}
	fs.DurationVar(
		&opts.Timeout,
		"timeout",
		defaultMigrationTimeout,
		"Maximum duration to wait for migrations to complete",
	)

	if err := fs.Parse(args); err != nil {
		return migrateOptions{}, err
	}

	if opts.Timeout <= 0 {
		return migrateOptions{}, errors.New("--timeout must be greater than zero")
	}
	return opts, nil
}
