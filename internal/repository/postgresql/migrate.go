package postgresql

import (
	"context"
	"embed"
	"io/fs"
	"sort"

	"github.com/cmlabs-hris/contractor-backend-go/internal/pkg/database"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

const migrationLockID = 70312

// Migrate applies pending SQL migrations in lexicographic order and records
// each applied file in schema_migrations.
func Migrate(ctx context.Context, db *database.DB) error {
	log := zap.L().With(zap.String("component", "migrate"))

	if _, err := db.Exec(ctx, "SELECT pg_advisory_lock($1)", migrationLockID); err != nil {
		return eris.Wrap(err, "migrate: acquire advisory lock")
	}
	defer func() {
		if _, err := db.Exec(ctx, "SELECT pg_advisory_unlock($1)", migrationLockID); err != nil {
			log.Warn("migrate: failed to release advisory lock", zap.Error(err))
		}
	}()

	if _, err := db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			filename   TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`); err != nil {
		return eris.Wrap(err, "migrate: ensure migration table")
	}

	entries, err := fs.ReadDir(migrationFS, "migrations")
	if err != nil {
		return eris.Wrap(err, "migrate: read migration dir")
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	applied, err := appliedMigrations(ctx, db)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		name := entry.Name()
		if applied[name] {
			continue
		}

		data, err := migrationFS.ReadFile("migrations/" + name)
		if err != nil {
			return eris.Wrapf(err, "migrate: read %s", name)
		}

		err = WithTransaction(ctx, db, func(txCtx context.Context) error {
			q := GetQuerier(txCtx, db)
			if _, err := q.Exec(txCtx, string(data)); err != nil {
				return eris.Wrapf(err, "migrate: apply %s", name)
			}
			if _, err := q.Exec(txCtx, "INSERT INTO schema_migrations (filename) VALUES ($1)", name); err != nil {
				return eris.Wrapf(err, "migrate: record %s", name)
			}
			return nil
		})
		if err != nil {
			return err
		}
		log.Info("migration applied", zap.String("file", name))
	}

	return nil
}

func appliedMigrations(ctx context.Context, db *database.DB) (map[string]bool, error) {
	rows, err := db.Query(ctx, "SELECT filename FROM schema_migrations")
	if err != nil {
		return nil, eris.Wrap(err, "migrate: query applied migrations")
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, eris.Wrap(err, "migrate: scan migration row")
		}
		applied[name] = true
	}
	return applied, rows.Err()
}
