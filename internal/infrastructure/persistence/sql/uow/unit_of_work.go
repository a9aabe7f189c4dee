package uow

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"surveybridge/internal/ports"
)

// UnitOfWork runs reconciler mutations inside a single gorm transaction.
// The open tx travels in the context, so repositories called from fn
// join it transparently via ports.TxFromContext.
type UnitOfWork struct {
	db *gorm.DB
}

var _ ports.UnitOfWork = (*UnitOfWork)(nil)

func NewUnitOfWork(db *gorm.DB) *UnitOfWork {
	return &UnitOfWork{db: db}
}

func (u *UnitOfWork) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	// Nested calls reuse the already-open transaction instead of
	// starting a second one.
	if ports.TxFromContext(ctx) != nil {
		return fn(ctx)
	}

	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ports.WithTxContext(ctx, tx))
	})
}
