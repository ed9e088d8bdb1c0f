package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flexipay/wallet-service/internal/domain/repositories"
)

// Querier is the subset of pgx shared by the pool and an open transaction.
// Repository methods run against a Querier so they can join a caller's scope
// or operate autonomously on the pool.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// Store owns the pooled connections and opens unit-of-work scopes.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Begin(ctx context.Context) (repositories.Scope, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &TxScope{tx: tx}, nil
}

func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}

// TxScope wraps an open pgx transaction as a domain Scope.
type TxScope struct {
	tx pgx.Tx
}

func (s *TxScope) Commit(ctx context.Context) error {
	return s.tx.Commit(ctx)
}

func (s *TxScope) Rollback(ctx context.Context) error {
	return s.tx.Rollback(ctx)
}

func (s *TxScope) Tx() pgx.Tx {
	return s.tx
}

// ScopeQuerier resolves the querier for an optional scope: the scope's
// transaction when one was supplied, otherwise the fallback (the pool).
func ScopeQuerier(scope repositories.Scope, fallback Querier) Querier {
	if s, ok := scope.(*TxScope); ok {
		return s.tx
	}
	return fallback
}
