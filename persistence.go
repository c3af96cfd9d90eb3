package identity

import (
	"context"
	"database/sql"
	"io/fs"

	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/schema"
)

// NewSQLiteDB opens a sqlite-backed bun.DB. Suitable for tests and small
// single-node deployments; the caller closes the returned *sql.DB.
func NewSQLiteDB(dsn string) (*bun.DB, *sql.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, nil, err
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())
	return db, sqldb, nil
}

// RegisterPersistenceModels registers the package models with the
// persistence client so fixtures and relations resolve.
func RegisterPersistenceModels() {
	persistence.RegisterModel((*Account)(nil))
	persistence.RegisterModel((*ActivityRecord)(nil))
}

// SetupPersistence wires a persistence client over the given database and
// runs the embedded migrations. Callers own the *sql.DB lifecycle.
func SetupPersistence(ctx context.Context, cfg persistence.Config, db *sql.DB, dialect schema.Dialect) (*persistence.Client, error) {
	RegisterPersistenceModels()

	client, err := persistence.New(cfg, db, dialect)
	if err != nil {
		return nil, err
	}

	migrations, err := fs.Sub(GetMigrationsFS(), "data/sql/migrations")
	if err != nil {
		return nil, err
	}

	client.RegisterDialectMigrations(
		migrations,
		persistence.WithDialectSourceLabel("data/sql/migrations"),
		persistence.WithValidationTargets("postgres", "sqlite"),
	)

	if err := client.ValidateDialects(ctx); err != nil {
		return nil, err
	}

	if err := client.Migrate(ctx); err != nil {
		return nil, err
	}

	return client, nil
}
