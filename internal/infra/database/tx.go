package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/yusay1498/vibe-coding-practice-api/internal/core/port"
)

type txKey struct{}

// WithTx binds tx to the returned context. Repositories pick it up through TxFromContext.
func WithTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// TxFromContext returns the transaction bound to ctx, if any.
func TxFromContext(ctx context.Context) (pgx.Tx, bool) {
	tx, ok := ctx.Value(txKey{}).(pgx.Tx)
	return tx, ok && tx != nil
}

// TxBeginner is satisfied by *pgxpool.Pool and pgxmock pools.
type TxBeginner interface {
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
}

// TxScope implements port.TransactionScope on top of a pgx pool.
type TxScope struct {
	db     TxBeginner
	opts   pgx.TxOptions
	logger *zap.Logger
}

// NewTxScope constructs a scope that opens read-committed transactions on db.
func NewTxScope(db TxBeginner, logger *zap.Logger) *TxScope {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TxScope{
		db:     db,
		opts:   pgx.TxOptions{IsoLevel: pgx.ReadCommitted},
		logger: logger,
	}
}

// Execute runs fn in a transaction, committing on success and rolling back on error or panic.
// When ctx already carries a transaction fn joins it and the outer caller decides the outcome.
func (s *TxScope) Execute(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := TxFromContext(ctx); ok {
		return fn(ctx)
	}

	tx, err := s.db.BeginTx(ctx, s.opts)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			s.rollback(ctx, tx)
			panic(p)
		}
	}()

	if err := fn(WithTx(ctx, tx)); err != nil {
		s.rollback(ctx, tx)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *TxScope) rollback(ctx context.Context, tx pgx.Tx) {
	// the caller's context may already be cancelled; the rollback must still reach the server
	if err := tx.Rollback(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		s.logger.Warn("transaction rollback failed", zap.Error(err))
	}
}

var _ port.TransactionScope = (*TxScope)(nil)
