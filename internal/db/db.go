package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq" // The database driver
)

// ErrTextIndexUnavailable is returned by the search queries when the
// full-text column, configuration or function is missing from the schema.
var ErrTextIndexUnavailable = errors.New("db: text search index unavailable")

// Store is the Postgres-backed catalog, event and social-graph store.
// It is safe for concurrent use.
type Store struct {
	db *sqlx.DB
}

// NewStore wraps an open connection.
func NewStore(conn *sqlx.DB) *Store {
	return &Store{db: conn}
}

// Options tunes the connection pool.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Connect opens and pings the database.
func Connect(ctx context.Context, dbURL string, opts Options) (*sqlx.DB, error) {
	if dbURL == "" {
		return nil, errors.New("database url is not set")
	}

	conn, err := sqlx.ConnectContext(ctx, "postgres", dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if opts.MaxOpenConns > 0 {
		conn.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		conn.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		conn.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	if err = conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return conn, nil
}

// Ping checks the connection, for health probes.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Postgres error codes that mean the text-search machinery is not installed.
const (
	codeUndefinedColumn   = "42703"
	codeUndefinedObject   = "42704"
	codeUndefinedFunction = "42883"
)

func textIndexError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case codeUndefinedColumn, codeUndefinedObject, codeUndefinedFunction:
			return fmt.Errorf("%w: %s", ErrTextIndexUnavailable, pqErr.Message)
		}
	}
	return err
}
