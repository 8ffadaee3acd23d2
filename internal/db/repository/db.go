package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gokatarajesh/question-bank/internal/db/postgres"
)

// ErrNotFound is returned by single-row reads that match nothing.
var ErrNotFound = errors.New("row not found")

// Queries holds the hand-written SQL for the question bank tables.
type Queries struct {
	db postgres.DBTX
}

// New binds queries to a pool or a transaction.
func New(db postgres.DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx returns a copy of q that runs every statement on tx.
func (q *Queries) WithTx(tx pgx.Tx) *Queries {
	return &Queries{db: tx}
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

// TxRunner binds Queries to a transaction for the length of one callback.
type TxRunner struct {
	tx      *postgres.Transactor
	queries *Queries
}

// NewTxRunner pairs a transactor with the queries it should rebind.
func NewTxRunner(tx *postgres.Transactor, queries *Queries) *TxRunner {
	return &TxRunner{tx: tx, queries: queries}
}

// Run executes fn with Queries bound to a fresh transaction.
func (r *TxRunner) Run(ctx context.Context, fn func(ctx context.Context, q *Queries) error) error {
	return r.tx.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		return fn(ctx, r.queries.WithTx(tx))
	})
}
