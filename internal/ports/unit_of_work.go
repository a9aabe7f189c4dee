package ports

import "context"

// Tx is an opaque transaction handle. The persistence layer decides the
// concrete type (*gorm.DB here); usecases only pass it along in context.
type Tx interface{}

// UnitOfWork brackets a reconciler mutation: fn returning nil commits,
// any error rolls the whole mutation back.
type UnitOfWork interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type txKey struct{}

// WithTxContext attaches an open transaction to ctx so repository calls
// made inside a unit of work join it instead of the root connection.
func WithTxContext(ctx context.Context, tx Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// TxFromContext returns the transaction attached to ctx, or nil.
func TxFromContext(ctx context.Context) Tx {
	if ctx == nil {
		return nil
	}
	return ctx.Value(txKey{})
}
