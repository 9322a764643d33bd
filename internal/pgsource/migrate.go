package pgsource

import (
	"context"
	"embed"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed sql/migrations/*.sql
var embedMigrations embed.FS

// Migrate runs the goose migrations describing the upstream mirror schema,
// grounded on the teacher's DatabaseConnection.Migrate.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	stdDB := stdlib.OpenDBFromPool(pool)
	defer stdDB.Close()

	return goose.UpContext(ctx, stdDB, "sql/migrations")
}
