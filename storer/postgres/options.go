package postgres

import (
	"context"
	"database/sql"

	"github.com/IA-UD-Tech/backend-boti/storer"
)

type connKey struct{}

// WithConn hands the storer an already opened database. Location is ignored.
func WithConn(conn *sql.DB) storer.Option {
	return func(o *storer.Options) {
		o.Context = context.WithValue(o.Context, connKey{}, conn)
	}
}

func ConnFrom(ctx context.Context) (*sql.DB, bool) {
	conn, ok := ctx.Value(connKey{}).(*sql.DB)
	return conn, ok && conn != nil
}

type migrateKey struct{}

// WithMigrate applies the embedded schema migrations on start.
func WithMigrate(migrate bool) storer.Option {
	return func(o *storer.Options) {
		o.Context = context.WithValue(o.Context, migrateKey{}, migrate)
	}
}

func MigrateFrom(ctx context.Context) (bool, bool) {
	migrate, ok := ctx.Value(migrateKey{}).(bool)
	return migrate, ok
}
