package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	dbgen "github.com/noah-isme/toko-kasir/internal/db/gen"
)

// Store is the persistence boundary shared by every service. Reads go through
// the embedded Querier; writes that must be atomic run inside InTx.
type Store interface {
	dbgen.Querier
	// InTx runs fn against a transactional querier. The transaction commits
	// only when fn returns nil; any error rolls every write back.
	InTx(ctx context.Context, fn func(q dbgen.Querier) error) error
}

// PgStore implements Store on a pgx connection pool.
type PgStore struct {
	*dbgen.Queries
	Pool *pgxpool.Pool
}

// NewPgStore wraps pool in a Store.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{Queries: dbgen.New(pool), Pool: pool}
}

// InTx implements Store.
func (s *PgStore) InTx(ctx context.Context, fn func(q dbgen.Querier) error) error {
	if s == nil || s.Pool == nil {
		return errors.New("db: pool not configured")
	}
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if err := fn(s.Queries.WithTx(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Ping reports whether the database is reachable.
func (s *PgStore) Ping(ctx context.Context) error {
	if s == nil || s.Pool == nil {
		return errors.New("db: pool not configured")
	}
	return s.Pool.Ping(ctx)
}

// IsNotFound reports whether err means the row did not exist (or a guarded
// update matched nothing).
func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// IsUniqueViolation reports whether err is a Postgres unique_violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
