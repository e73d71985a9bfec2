// Package tx provides transaction management abstractions.
// Domain code depends on these interfaces; the implementation lives in
// infrastructure/storage/postgres.
package tx

import (
	"context"
)

// ReadOnlyManager runs work inside read-only transactions.
type ReadOnlyManager interface {
	// ReadOnly executes fn in a read-only snapshot transaction, so every
	// query fn issues observes the same committed data. If fn returns an
	// error, the transaction is rolled back. Nested calls reuse the
	// existing transaction from context.
	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}
