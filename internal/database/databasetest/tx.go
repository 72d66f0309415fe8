// internal/database/databasetest/tx.go
package databasetest

import (
	"context"

	"catalog-sync/internal/database"
)

// InlineTx runs transactional callbacks directly against Q.
type InlineTx struct {
	Q     database.Querier
	Count int
}

func (t *InlineTx) InTx(_ context.Context, fn func(database.Querier) error) error {
	t.Count++
	return fn(t.Q)
}
