package repository

import (
	"context"
	"database/sql"
)

const (
	mysqlDeadlock     = 1213
	mysqlLockWaitTime = 1205
	txAttempts        = 3
)

// inTx runs fn inside a transaction and commits when it returns nil.  Two
// writers gap-locking the same empty slot can deadlock; InnoDB rolls one
// back and the whole function is retried.
func inTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	return retryLocked(func() error { return runTx(ctx, db, fn) })
}

// retryLocked calls attempt until it returns something other than a
// deadlock or lock-wait timeout, at most txAttempts times.
func retryLocked(attempt func() error) error {
	var err error
	for i := 0; i < txAttempts; i++ {
		if err = attempt(); !lockRetryable(err) {
			return err
		}
	}
	return err
}

func lockRetryable(err error) bool {
	n := mysqlErrNumber(err)
	return n == mysqlDeadlock || n == mysqlLockWaitTime
}

func runTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}
