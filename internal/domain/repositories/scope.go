package repositories

import "context"

// Scope is one atomic unit of work. Balance mutations and ledger writes that
// must commit or roll back together are performed against the same Scope; the
// orchestrating operation owns the commit/rollback decision.
//
// Repository methods that accept a Scope may also be called with nil, in which
// case they run as their own autonomous unit.
type Scope interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Store opens unit-of-work scopes against the ledger store.
type Store interface {
	Begin(ctx context.Context) (Scope, error)
}
