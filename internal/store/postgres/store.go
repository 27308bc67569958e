// Package postgres implements the record store on PostgreSQL. One generic
// repository serves every registered entity family; SQL is built with
// squirrel so runtime sort and filter specs stay parameterized.
package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
)

// builder is the squirrel starting point with pgx-style placeholders.
var builder = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Store owns the connection pool shared by the per-entity repositories.
type Store struct {
	pool      *pgxpool.Pool
	changeLog *ChangeLogRepo
}

func New(ctx context.Context, dsn string, maxConns int32) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: parse config: %w", err)
	}

	cfg.MaxConns = maxConns

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: connect: %w", err)
	}

	err = pool.Ping(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres.New: ping: %w", err)
	}

	return &Store{
		pool:      pool,
		changeLog: NewChangeLogRepo(pool),
	}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

// Pool exposes the underlying pool for entity repository registration.
func (s *Store) Pool() *pgxpool.Pool { return s.pool }

// ChangeLog reads back the audit trail appended by units of work.
func (s *Store) ChangeLog() *ChangeLogRepo { return s.changeLog }
