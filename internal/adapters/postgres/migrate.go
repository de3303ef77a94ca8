package postgres

import (
    "context"
    "embed"

    "github.com/jackc/pgx/v5/stdlib"
    "github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate brings the schema up to date. Runs at startup so the server is
// self-migrating; goose no-ops when nothing is pending.
func (db *DB) Migrate(ctx context.Context) error {
    goose.SetBaseFS(migrations)
    if err := goose.SetDialect("postgres"); err != nil {
        return err
    }
    sqldb := stdlib.OpenDBFromPool(db.Pool)
    defer sqldb.Close()
    return goose.UpContext(ctx, sqldb, "migrations")
}
