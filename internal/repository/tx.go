package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is the subset of pgx shared by pools and transactions, so a
// repository method can run inside or outside a transaction unchanged.
type querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// pick resolves to the transaction when the caller is inside one, the pool
// otherwise.
func pick(tx pgx.Tx, db *pgxpool.Pool) querier {
	if tx != nil {
		return tx
	}

	return db
}

// AfterCommit collects callbacks that must run only once the surrounding
// transaction has committed. Releasing seat holds is the canonical user: a
// rolled-back reservation must never drop the holds that backed it.
type AfterCommit struct {
	hooks []func(context.Context)
}

func (a *AfterCommit) Register(fn func(context.Context)) {
	a.hooks = append(a.hooks, fn)
}

// Run fires the registered hooks in registration order. The transaction
// manager calls it once after a successful commit.
func (a *AfterCommit) Run(ctx context.Context) {
	for _, fn := range a.hooks {
		fn(ctx)
	}
}

// TxManager owns the transaction boundary for multi-repository operations.
type TxManager interface {
	RunInTx(ctx context.Context, fn func(tx pgx.Tx, hooks *AfterCommit) error) error
}

type PgxTxManager struct {
	db *pgxpool.Pool
}

func NewPgxTxManager(db *pgxpool.Pool) *PgxTxManager {
	return &PgxTxManager{db: db}
}

func (m *PgxTxManager) RunInTx(ctx context.Context, fn func(tx pgx.Tx, hooks *AfterCommit) error) error {
	var txOptions pgx.TxOptions

	tx, err := m.db.BeginTx(ctx, txOptions)
	if err != nil {
		return err
	}

	hooks := &AfterCommit{}

	err = fn(tx, hooks)
	if err == nil {
		err = tx.Commit(ctx)
		if err != nil {
			return err
		}

		hooks.Run(ctx)

		return nil
	}

	rollbackErr := tx.Rollback(ctx)
	if rollbackErr != nil {
		return errors.Join(err, rollbackErr)
	}

	return err
}
