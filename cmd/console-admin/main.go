// Command console-admin is the operator CLI for the console: it starts,
// inspects, watches, and cancels backend jobs, lists recorded runs, and runs
// database migrations.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/ragforge/console/config"
	"github.com/ragforge/console/internal/bootstrap"
)

type commandFn func(ctx *commandContext, args []string) error

type command struct {
	name        string
	description string
	run         commandFn
}

type commandContext struct {
	Ctx    context.Context
	Logger *slog.Logger
	Config config.AppConfig
}

func main() {
	logger := bootstrap.InitLogger()

	if len(os.Args) < 2 {
		if err := printUsage(); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when no command is provided
	}

	cmdName := os.Args[1]
	cmd, ok := commands()[cmdName]
	if !ok {
		if err := writef(os.Stderr, "unknown command %q\n\n", cmdName); err != nil {
			logger.Error("print unknown command message failed", "error", err)
		}
		if err := printUsage(); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when command is unknown
	}

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		logger.ErrorContext(context.Background(), "load config", "error", err)
		os.Exit(1) //nolint:forbidigo // CLI must signal configuration load failure to shell scripts
	}

	cmdCtx := &commandContext{
		Ctx:    context.Background(),
		Logger: logger,
		Config: cfg,
	}
	if runErr := cmd.run(cmdCtx, os.Args[2:]); runErr != nil {
		logger.ErrorContext(cmdCtx.Ctx, "command failed", "command", cmdName, "error", runErr)
		os.Exit(1) //nolint:forbidigo // CLI must propagate command execution failure to callers
	}
}

func commands() map[string]command {
	return map[string]command{
		"start": {
			name:        "start",
			description: "Start a backend job and print its id",
			run:         runStart,
		},
		"status": {
			name:        "status",
			description: "Print the current snapshot of a backend job",
			run:         runStatus,
		},
		"watch": {
			name:        "watch",
			description: "Stream live progress of a backend job until it finishes",
			run:         runWatch,
		},
		"cancel": {
			name:        "cancel",
			description: "Request cancellation of a backend job",
			run:         runCancel,
		},
		"runs": {
			name:        "runs",
			description: "List recorded terminal job runs, newest first",
			run:         runRuns,
		},
		"migrate": {
			name:        "migrate",
			description: "Run database migrations",
			run:         runMigrations,
		},
	}
}

func printUsage() error {
	if err := writef(os.Stdout, "Usage: console-admin <command> [flags]\n\n"); err != nil {
		return err
	}
	if err := writef(os.Stdout, "Available commands:\n"); err != nil {
		return err
	}
	for _, name := range []string{"start", "status", "watch", "cancel", "runs", "migrate"} {
		c := commands()[name]
		if err := writef(os.Stdout, "  %-10s %s\n", c.name, c.description); err != nil {
			return err
		}
	}
	return nil
}
