package sqlite

import (
	"context"
	"database/sql"

	"github.com/openwaterco/agmdesk/internal/portal/store"
)

type txStore struct {
	tx *sql.Tx
}

func newTx(tx *sql.Tx) *txStore {
	return &txStore{tx: tx}
}

func (t *txStore) Commit() error   { return t.tx.Commit() }
func (t *txStore) Rollback() error { return t.tx.Rollback() }

func (t *txStore) Close() error { return nil } // outer DB stays open; caller commits/rolls back

// Ping is a no-op for transactions; the connection already exists.
func (t *txStore) Ping(ctx context.Context) error { return nil }

func (t *txStore) Tx(ctx context.Context) (store.Tx, error) {
	// Nested tx not supported; could emulate with SAVEPOINT if needed
	return nil, sql.ErrTxDone
}

func (t *txStore) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return sql.ErrTxDone
}

func (t *txStore) Meetings() store.Meetings         { return &meetingsRepo{db: t.tx} }
func (t *txStore) Shareholders() store.Shareholders { return &shareholdersRepo{db: t.tx} }
func (t *txStore) Properties() store.Properties     { return &propertiesRepo{db: t.tx} }
func (t *txStore) Transfers() store.Transfers       { return &transfersRepo{db: t.tx} }
func (t *txStore) UndoRequests() store.UndoRequests { return &undoRequestsRepo{db: t.tx} }

func (t *txStore) ApplyMigrations() error { return nil } // migrations run before any tx starts
