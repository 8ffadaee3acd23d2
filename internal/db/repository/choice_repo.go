package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/gokatarajesh/question-bank/internal/localize"
)

var choiceTable = localize.Table{
	Name:           "question_choice",
	Alias:          "qc",
	Columns:        []string{"id", "question_id", "c_value", "is_answer", "position"},
	Overlay:        "question_choice_localized",
	OverlayAlias:   "qcl",
	OverlayKey:     "choice_id",
	OverlayColumns: []string{"c_value"},
}

// InsertChoice stores a new choice (or match) row.
func (q *Queries) InsertChoice(ctx context.Context, row Choice) error {
	const query = `
		INSERT INTO question_choice (id, question_id, c_value, is_answer, position)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := q.db.Exec(ctx, query, row.ID, row.QuestionID, row.Value, row.IsAnswer, row.Position); err != nil {
		return fmt.Errorf("insert question_choice: %w", err)
	}
	return nil
}

// UpdateChoice updates a choice owned by the given question.
func (q *Queries) UpdateChoice(ctx context.Context, arg UpdateChoiceParams) (int64, error) {
	const query = `
		UPDATE question_choice
		SET c_value = COALESCE($3, c_value), is_answer = $4, position = $5
		WHERE id = $1 AND question_id = $2
	`
	tag, err := q.db.Exec(ctx, query, arg.ID, arg.QuestionID, arg.Value, arg.IsAnswer, arg.Position)
	if err != nil {
		return 0, fmt.Errorf("update question_choice: %w", err)
	}
	return tag.RowsAffected(), nil
}

// UpsertChoiceLocalized writes the overlay value of a choice for one locale.
func (q *Queries) UpsertChoiceLocalized(ctx context.Context, row ChoiceLocalized) error {
	const query = `
		INSERT INTO question_choice_localized (choice_id, locale, c_value)
		VALUES ($1, $2, $3)
		ON CONFLICT (choice_id, locale) DO UPDATE SET c_value = EXCLUDED.c_value
	`
	if _, err := q.db.Exec(ctx, query, row.ChoiceID, row.Locale, row.Value); err != nil {
		return fmt.Errorf("upsert question_choice_localized: %w", err)
	}
	return nil
}

// ListChoices returns every choice and match row of a question, resolved for
// locale, in stored order.
func (q *Queries) ListChoices(ctx context.Context, questionID uuid.UUID, locale localize.Locale) ([]Choice, error) {
	query := choiceTable.Select(2) + " WHERE qc.question_id = $1 ORDER BY qc.position, qc.id"
	rows, err := q.db.Query(ctx, query, questionID, locale.String())
	if err != nil {
		return nil, fmt.Errorf("list question_choice: %w", err)
	}
	defer rows.Close()

	var out []Choice
	for rows.Next() {
		c, err := scanChoice(rows, locale)
		if err != nil {
			return nil, fmt.Errorf("scan question_choice: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// DeleteChoiceLocalized removes overlays of the given choices.
func (q *Queries) DeleteChoiceLocalized(ctx context.Context, choiceIDs []uuid.UUID) error {
	if len(choiceIDs) == 0 {
		return nil
	}
	const query = `DELETE FROM question_choice_localized WHERE choice_id = ANY($1::uuid[])`
	if _, err := q.db.Exec(ctx, query, uuidStrings(choiceIDs)); err != nil {
		return fmt.Errorf("delete question_choice_localized: %w", err)
	}
	return nil
}

// DeleteChoices removes the given choices of a question.
func (q *Queries) DeleteChoices(ctx context.Context, questionID uuid.UUID, choiceIDs []uuid.UUID) (int64, error) {
	if len(choiceIDs) == 0 {
		return 0, nil
	}
	const query = `DELETE FROM question_choice WHERE question_id = $1 AND id = ANY($2::uuid[])`
	tag, err := q.db.Exec(ctx, query, questionID, uuidStrings(choiceIDs))
	if err != nil {
		return 0, fmt.Errorf("delete question_choice: %w", err)
	}
	return tag.RowsAffected(), nil
}

// DeleteQuestionChoices removes every choice of a question, overlays first.
func (q *Queries) DeleteQuestionChoices(ctx context.Context, questionID uuid.UUID) error {
	const localized = `
		DELETE FROM question_choice_localized
		WHERE choice_id IN (SELECT id FROM question_choice WHERE question_id = $1)
	`
	if _, err := q.db.Exec(ctx, localized, questionID); err != nil {
		return fmt.Errorf("delete question_choice_localized: %w", err)
	}
	if _, err := q.db.Exec(ctx, `DELETE FROM question_choice WHERE question_id = $1`, questionID); err != nil {
		return fmt.Errorf("delete question_choice: %w", err)
	}
	return nil
}

func scanChoice(row pgx.Row, locale localize.Locale) (Choice, error) {
	var (
		out           Choice
		localValue    pgtype.Text
		overlayLocale pgtype.Text
	)
	if err := row.Scan(&out.ID, &out.QuestionID, &out.Value, &out.IsAnswer, &out.Position, &localValue, &overlayLocale); err != nil {
		return Choice{}, err
	}
	var overlays []localize.Overlay[string]
	if overlayLocale.Valid {
		overlays = append(overlays, localize.Overlay[string]{
			Locale: localize.Locale(overlayLocale.String),
			Value:  localValue.String,
		})
	}
	out.Value = localize.Resolve(out.Value, locale, overlays...)
	return out, nil
}
