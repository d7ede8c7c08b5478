package repositories

import (
	"context"
	"database/sql"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type txKey struct{}

// TxManager implements Transactor on top of gorm
type TxManager struct {
	db      *gorm.DB
	timeout time.Duration
}

// NewTxManager creates a transaction manager. A zero timeout disables the deadline.
func NewTxManager(db *gorm.DB, timeout time.Duration) *TxManager {
	return &TxManager{db: db, timeout: timeout}
}

// WithinTransaction runs fn in a read-write transaction, joining one already in ctx
func (m *TxManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, fn, nil)
}

// WithinReadOnlyTransaction runs fn in a read-only transaction, joining one already in ctx
func (m *TxManager) WithinReadOnlyTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, fn, &sql.TxOptions{ReadOnly: true})
}

func (m *TxManager) run(ctx context.Context, fn func(ctx context.Context) error, opts *sql.TxOptions) error {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}

	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	}, readOnlyOpts(m.db, opts))
}

// readOnlyOpts drops the read-only flag for SQLite, whose driver ignores it
func readOnlyOpts(db *gorm.DB, opts *sql.TxOptions) *sql.TxOptions {
	if opts == nil || db.Dialector.Name() == "sqlite" {
		return nil
	}
	return opts
}

// conn returns the transaction carried by ctx, or the base connection
func conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}

// forUpdate adds a row lock. SQLite serialises writers and has no FOR UPDATE.
func forUpdate(db *gorm.DB) *gorm.DB {
	if db.Dialector.Name() == "sqlite" {
		return db
	}
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}
