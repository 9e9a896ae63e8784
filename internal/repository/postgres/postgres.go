package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/yusay1498/vibe-coding-practice-api/internal/infra/database"
	"github.com/yusay1498/vibe-coding-practice-api/internal/repository"
)

const uniqueViolationCode = "23505"

type pgExecutor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// executorFor prefers the transaction bound to ctx over the default executor.
func executorFor(ctx context.Context, fallback pgExecutor) pgExecutor {
	if tx, ok := database.TxFromContext(ctx); ok {
		return tx
	}
	return fallback
}

// withSavepoint runs fn inside a savepoint when ctx carries a transaction, so a failed
// statement does not abort the enclosing transaction.
func withSavepoint(ctx context.Context, fallback pgExecutor, fn func(exec pgExecutor) error) error {
	tx, ok := database.TxFromContext(ctx)
	if !ok {
		return fn(fallback)
	}

	sp, err := tx.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin savepoint: %w", err)
	}
	if err := fn(sp); err != nil {
		if rbErr := sp.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return errors.Join(err, fmt.Errorf("rollback savepoint: %w", rbErr))
		}
		return err
	}
	if err := sp.Commit(ctx); err != nil {
		return fmt.Errorf("release savepoint: %w", err)
	}
	return nil
}

// translateWriteError maps unique violations to *repository.ConstraintViolationError.
func translateWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return &repository.ConstraintViolationError{Constraint: pgErr.ConstraintName, Err: err}
	}
	return err
}
