// internal/database/tx.go
package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Transactor runs fn with a Querier bound to one transaction.
type Transactor interface {
	InTx(ctx context.Context, fn func(Querier) error) error
}

// TxPool is a Transactor over a pgx pool.
type TxPool struct {
	pool *pgxpool.Pool
}

func NewTxPool(pool *pgxpool.Pool) *TxPool {
	return &TxPool{pool: pool}
}

func (p *TxPool) InTx(ctx context.Context, fn func(Querier) error) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) // Rollback is a no-op if the transaction is already committed.

	if err := fn(New(tx)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
