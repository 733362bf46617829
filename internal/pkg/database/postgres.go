package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Database is the postgres backed reading log and session store.
type Database struct {
	pool *pgxpool.Pool
}

// NewDatabase connects a pool; the schema is owned by the migration package.
func NewDatabase(ctx context.Context, url string) (*Database, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Database{pool: pool}, nil
}

func (db *Database) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

func (db *Database) Close() error {
	if db.pool == nil {
		return nil
	}
	db.pool.Close()
	return nil
}
