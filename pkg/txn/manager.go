// Package txn carries a database transaction through context.Context so that
// several repositories can take part in one unit of work.
package txn

import (
	"context"
	"fmt"

	"github.com/fekuna/omnipos-workshop-service/pkg/apperror"
	"github.com/fekuna/omnipos-workshop-service/pkg/database"
	"github.com/jmoiron/sqlx"
)

type ctxKey struct{}

type Manager struct {
	db *sqlx.DB
}

func NewManager(db *sqlx.DB) *Manager {
	return &Manager{db: db}
}

func (m *Manager) DB() *sqlx.DB { return m.db }

// WithinTx runs fn in a transaction and commits when fn returns nil.
// If ctx already carries a transaction, fn joins it and the outermost
// caller decides the outcome.
func (m *Manager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if InTx(ctx) {
		return fn(ctx)
	}

	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return apperror.Storage("begin transaction", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(context.WithValue(ctx, ctxKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return apperror.Storage("commit", err)
	}
	return nil
}

func InTx(ctx context.Context) bool {
	_, ok := ctx.Value(ctxKey{}).(*sqlx.Tx)
	return ok
}

// Executor returns the transaction carried by ctx, or db when there is none.
func Executor(ctx context.Context, db *sqlx.DB) sqlx.ExtContext {
	if tx, ok := ctx.Value(ctxKey{}).(*sqlx.Tx); ok {
		return tx
	}
	return db
}

// ForUpdate is the row-lock suffix for the connected dialect. SQLite has no
// row locks; its single IMMEDIATE writer already serializes the read-modify-write.
func ForUpdate(db *sqlx.DB) string {
	if database.IsPostgres(db) {
		return " FOR UPDATE"
	}
	return ""
}

// ForUpdateSkipLocked is ForUpdate for queue-style consumers.
func ForUpdateSkipLocked(db *sqlx.DB) string {
	if database.IsPostgres(db) {
		return " FOR UPDATE SKIP LOCKED"
	}
	return ""
}
