package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// ErrNotFound is returned by repositories when a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrStockConflict is returned when a guarded stock decrement affects no rows,
// meaning concurrent writers drained the stock between read and write.
var ErrStockConflict = errors.New("stock conflict")

// TxManager runs a function inside a single database transaction. The
// transaction handle travels in the context so that every repository call made
// within fn shares one atomic unit.
type TxManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type txKey struct{}

// GormTxManager is the GORM implementation of TxManager.
type GormTxManager struct {
	db *gorm.DB
}

// NewGormTxManager creates a new GormTxManager.
func NewGormTxManager(db *gorm.DB) *GormTxManager {
	return &GormTxManager{db: db}
}

// WithTransaction opens a transaction, stores it in the context and commits if
// fn returns nil, rolling back otherwise.
func (m *GormTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// MockTxManager runs fn directly without a real transaction. Used with the
// in-memory repositories where there is nothing to roll back.
type MockTxManager struct{}

// NewMockTxManager creates a new MockTxManager.
func NewMockTxManager() *MockTxManager {
	return &MockTxManager{}
}

// WithTransaction invokes fn with the context unchanged.
func (m *MockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// conn returns the transaction bound to ctx when present, otherwise the
// repository's own connection.
func conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return db.WithContext(ctx)
}
