package category

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/gokatarajesh/question-bank/internal/db/postgres"
	"github.com/gokatarajesh/question-bank/internal/db/repository"
	"github.com/gokatarajesh/question-bank/internal/localize"
)

// Store is the label persistence (implemented by repository.Queries).
type Store interface {
	InsertLabel(ctx context.Context, t repository.Taxonomy, row repository.Label) error
	GetLabel(ctx context.Context, t repository.Taxonomy, id string, locale localize.Locale) (repository.Label, error)
	ListLabels(ctx context.Context, t repository.Taxonomy, locale localize.Locale) ([]repository.Label, error)
	UpdateLabel(ctx context.Context, t repository.Taxonomy, id string, title pgtype.Text, modifiedBy string, at time.Time) (int64, error)
	UpsertLabelLocalized(ctx context.Context, t repository.Taxonomy, row repository.LabelLocalized) error
	DeleteLabel(ctx context.Context, t repository.Taxonomy, id string) (int64, error)
	DeleteAllLabels(ctx context.Context, t repository.Taxonomy) error
}

var _ Store = (*repository.Queries)(nil)

// Transactor runs fn against a Store bound to one transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, store Store) error) error
}

type pgTransactor struct {
	runner *repository.TxRunner
}

func NewTransactor(tx *postgres.Transactor, queries *repository.Queries) Transactor {
	return pgTransactor{runner: repository.NewTxRunner(tx, queries)}
}

func (t pgTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context, store Store) error) error {
	return t.runner.Run(ctx, func(ctx context.Context, q *repository.Queries) error {
		return fn(ctx, q)
	})
}
