package database

import (
	"context"
	"embed"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// Schema returns the DDL for the given driver name.
func Schema(driver string) (string, error) {
	raw, err := schemaFS.ReadFile("schema/" + driver + ".sql")
	if err != nil {
		return "", fmt.Errorf("no schema for driver %q: %w", driver, err)
	}
	return string(raw), nil
}

// Migrate creates any missing tables and indexes. Statements are idempotent so
// it is safe to run on every start.
func Migrate(ctx context.Context, db *sqlx.DB, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	ddl, err := Schema(db.DriverName())
	if err != nil {
		return err
	}

	logger.Info("applying schema", zap.String("driver", db.DriverName()))
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
