// Package repositories declares the persistence interfaces the service
// layer depends on, following meridian/internal/domain/repositories'
// ExecTx/TxFn transaction-manager shape.
package repositories

import "context"

// TxFn runs inside a transaction-bearing context.
type TxFn func(ctx context.Context) error

// TransactionManager executes a function within a single database
// transaction, rolling back on any returned error.
type TransactionManager interface {
	ExecTx(ctx context.Context, fn TxFn) error
}

type txKey struct{}

// WithTx returns a context carrying the active transaction handle tx,
// so repositories can participate transparently (GetTx below).
func WithTx(ctx context.Context, tx any) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// GetTx extracts a transaction handle previously attached with WithTx,
// or nil if none is present.
func GetTx(ctx context.Context) any {
	return ctx.Value(txKey{})
}
