package database

import (
	"database/sql"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

// NewBunDB wraps an existing Postgres sql.DB connection in a Bun instance.
func NewBunDB(sqlDB *sql.DB) *bun.DB {
	return bun.NewDB(sqlDB, pgdialect.New())
}

// NewSQLiteBunDB wraps a SQLite connection in a Bun instance. Used by tests
// that need a real SQL engine without a Postgres server.
func NewSQLiteBunDB(sqlDB *sql.DB) *bun.DB {
	return bun.NewDB(sqlDB, sqlitedialect.New())
}
