package repositories

import "context"

// TxFn is a function that runs within a transaction.
type TxFn func(ctx context.Context) error

// TransactionManager runs a function as a single atomic unit. Multi-entity
// mutations (cascade delete, version creation, share upsert) go through it
// so partial writes are never observable.
type TransactionManager interface {
	// ExecTx executes fn inside a transaction, committing on nil error and
	// rolling back otherwise.
	ExecTx(ctx context.Context, fn TxFn) error
}
