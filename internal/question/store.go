package question

import (
	"context"

	"github.com/google/uuid"

	"github.com/gokatarajesh/question-bank/internal/db/postgres"
	"github.com/gokatarajesh/question-bank/internal/db/repository"
	"github.com/gokatarajesh/question-bank/internal/localize"
)

// Store is the persistence the aggregate is built on (implemented by
// repository.Queries).
type Store interface {
	InsertQuestion(ctx context.Context, row repository.Question) error
	UpdateQuestion(ctx context.Context, arg repository.UpdateQuestionParams) (int64, error)
	UpdateQuestionAnswer(ctx context.Context, arg repository.UpdateQuestionParams) (int64, error)
	UpsertQuestionLocalized(ctx context.Context, row repository.QuestionLocalized) error
	GetQuestion(ctx context.Context, id uuid.UUID, locale localize.Locale) (repository.Question, error)
	ListQuestions(ctx context.Context, categories []string, locale localize.Locale) ([]repository.Question, error)
	DeleteQuestionLocalized(ctx context.Context, questionID uuid.UUID) error
	DeleteQuestion(ctx context.Context, id uuid.UUID, questionType string) (int64, error)
	DeleteAllQuestions(ctx context.Context) error

	InsertChoice(ctx context.Context, row repository.Choice) error
	UpdateChoice(ctx context.Context, arg repository.UpdateChoiceParams) (int64, error)
	UpsertChoiceLocalized(ctx context.Context, row repository.ChoiceLocalized) error
	ListChoices(ctx context.Context, questionID uuid.UUID, locale localize.Locale) ([]repository.Choice, error)
	DeleteChoiceLocalized(ctx context.Context, choiceIDs []uuid.UUID) error
	DeleteChoices(ctx context.Context, questionID uuid.UUID, choiceIDs []uuid.UUID) (int64, error)
	DeleteQuestionChoices(ctx context.Context, questionID uuid.UUID) error

	InsertMatch(ctx context.Context, row repository.Match) error
	UpdateMatch(ctx context.Context, row repository.Match) (int64, error)
	ListMatches(ctx context.Context, questionID uuid.UUID) ([]repository.Match, error)
	DeleteMatches(ctx context.Context, questionID uuid.UUID) error
	DeleteMatchesByID(ctx context.Context, questionID uuid.UUID, matchIDs []uuid.UUID) error

	EnsureLabel(ctx context.Context, t repository.Taxonomy, row repository.Label) error
	AttachLabel(ctx context.Context, t repository.Taxonomy, questionID uuid.UUID, labelID string) (int64, error)
	DetachLabels(ctx context.Context, t repository.Taxonomy, questionID uuid.UUID) error
}

var _ Store = (*repository.Queries)(nil)

// Transactor runs fn against a Store bound to one transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, store Store) error) error
}

type pgTransactor struct {
	runner *repository.TxRunner
}

// NewTransactor adapts a postgres transactor to the question Store.
func NewTransactor(tx *postgres.Transactor, queries *repository.Queries) Transactor {
	return pgTransactor{runner: repository.NewTxRunner(tx, queries)}
}

func (t pgTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context, store Store) error) error {
	return t.runner.Run(ctx, func(ctx context.Context, q *repository.Queries) error {
		return fn(ctx, q)
	})
}
