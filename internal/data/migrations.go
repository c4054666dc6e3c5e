package data

import (
	"context"
	"database/sql"

	"github.com/ragforge/console/internal/migrate"
)

// RunMigrations applies the console schema by delegating to the migrate package.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	return migrate.Run(ctx, db)
}
