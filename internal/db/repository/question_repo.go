package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/gokatarajesh/question-bank/internal/localize"
)

var questionTable = localize.Table{
	Name:           "question",
	Alias:          "q",
	Columns:        []string{"id", "question", "explanation", "type", "answer", "created_at", "created_by", "modified_at", "modified_by"},
	Overlay:        "question_localized",
	OverlayAlias:   "ql",
	OverlayKey:     "question_id",
	OverlayColumns: []string{"question", "explanation"},
}

type questionText struct {
	Question    string
	Explanation pgtype.Text
}

// InsertQuestion stores the base-language row of a new question.
func (q *Queries) InsertQuestion(ctx context.Context, row Question) error {
	const query = `
		INSERT INTO question (id, question, explanation, type, answer, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := q.db.Exec(ctx, query,
		row.ID, row.Question, row.Explanation, row.Type, row.Answer, row.CreatedAt, row.CreatedBy)
	if err != nil {
		return fmt.Errorf("insert question: %w", err)
	}
	return nil
}

// UpdateQuestion rewrites the base-language fields. Only a row matching both
// id and type is touched.
func (q *Queries) UpdateQuestion(ctx context.Context, arg UpdateQuestionParams) (int64, error) {
	const query = `
		UPDATE question
		SET question = $3, explanation = $4, answer = $5, modified_at = $6, modified_by = $7
		WHERE id = $1 AND type = $2
	`
	tag, err := q.db.Exec(ctx, query,
		arg.ID, arg.Type, arg.Question, arg.Explanation, arg.Answer, arg.ModifiedAt, arg.ModifiedBy)
	if err != nil {
		return 0, fmt.Errorf("update question: %w", err)
	}
	return tag.RowsAffected(), nil
}

// UpdateQuestionAnswer is used for localized updates: the base text stays
// canonical and only the answer and audit columns change.
func (q *Queries) UpdateQuestionAnswer(ctx context.Context, arg UpdateQuestionParams) (int64, error) {
	const query = `
		UPDATE question
		SET answer = $3, modified_at = $4, modified_by = $5
		WHERE id = $1 AND type = $2
	`
	tag, err := q.db.Exec(ctx, query, arg.ID, arg.Type, arg.Answer, arg.ModifiedAt, arg.ModifiedBy)
	if err != nil {
		return 0, fmt.Errorf("update question answer: %w", err)
	}
	return tag.RowsAffected(), nil
}

// UpsertQuestionLocalized writes the overlay for one locale, creating it on
// first use.
func (q *Queries) UpsertQuestionLocalized(ctx context.Context, row QuestionLocalized) error {
	const query = `
		INSERT INTO question_localized (question_id, locale, question, explanation)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (question_id, locale)
		DO UPDATE SET question = EXCLUDED.question, explanation = EXCLUDED.explanation
	`
	if _, err := q.db.Exec(ctx, query, row.QuestionID, row.Locale, row.Question, row.Explanation); err != nil {
		return fmt.Errorf("upsert question_localized: %w", err)
	}
	return nil
}

// GetQuestion reads one question resolved for locale.
func (q *Queries) GetQuestion(ctx context.Context, id uuid.UUID, locale localize.Locale) (Question, error) {
	query := questionTable.Select(2) + " WHERE q.id = $1"
	row, err := scanQuestion(q.db.QueryRow(ctx, query, id, locale.String()), locale)
	if err != nil {
		return Question{}, notFound(err)
	}
	return row, nil
}

// ListQuestions returns questions linked to every one of categories, resolved
// for locale. An empty filter lists the whole bank.
func (q *Queries) ListQuestions(ctx context.Context, categories []string, locale localize.Locale) ([]Question, error) {
	categories = distinct(categories)

	query := questionTable.Select(1)
	args := []any{locale.String()}
	if len(categories) > 0 {
		query += `
		WHERE q.id IN (
			SELECT question_id FROM question_category
			WHERE category_id = ANY($2::text[])
			GROUP BY question_id
			HAVING COUNT(DISTINCT category_id) = $3
		)`
		args = append(args, categories, len(categories))
	}
	query += " ORDER BY q.created_at, q.id"

	rows, err := q.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()

	var out []Question
	for rows.Next() {
		row, err := scanQuestion(rows, locale)
		if err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// DeleteQuestionLocalized removes every overlay of a question.
func (q *Queries) DeleteQuestionLocalized(ctx context.Context, questionID uuid.UUID) error {
	if _, err := q.db.Exec(ctx, `DELETE FROM question_localized WHERE question_id = $1`, questionID); err != nil {
		return fmt.Errorf("delete question_localized: %w", err)
	}
	return nil
}

// DeleteQuestion removes the root row when both id and type match.
func (q *Queries) DeleteQuestion(ctx context.Context, id uuid.UUID, questionType string) (int64, error) {
	tag, err := q.db.Exec(ctx, `DELETE FROM question WHERE id = $1 AND type = $2`, id, questionType)
	if err != nil {
		return 0, fmt.Errorf("delete question: %w", err)
	}
	return tag.RowsAffected(), nil
}

// DeleteAllQuestions wipes every question table in dependency order.
func (q *Queries) DeleteAllQuestions(ctx context.Context) error {
	for _, table := range []string{
		"matches",
		"question_category",
		"question_tag",
		"question_choice_localized",
		"question_choice",
		"question_localized",
		"question",
	} {
		if _, err := q.db.Exec(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("delete %s: %w", table, err)
		}
	}
	return nil
}

func scanQuestion(row pgx.Row, locale localize.Locale) (Question, error) {
	var (
		out           Question
		localQuestion pgtype.Text
		localExplain  pgtype.Text
		overlayLocale pgtype.Text
	)
	err := row.Scan(
		&out.ID, &out.Question, &out.Explanation, &out.Type, &out.Answer,
		&out.CreatedAt, &out.CreatedBy, &out.ModifiedAt, &out.ModifiedBy,
		&localQuestion, &localExplain, &overlayLocale,
	)
	if err != nil {
		return Question{}, err
	}

	var overlays []localize.Overlay[questionText]
	if overlayLocale.Valid {
		overlays = append(overlays, localize.Overlay[questionText]{
			Locale: localize.Locale(overlayLocale.String),
			Value:  questionText{Question: localQuestion.String, Explanation: localExplain},
		})
	}
	text := localize.Resolve(questionText{Question: out.Question, Explanation: out.Explanation}, locale, overlays...)
	out.Question = text.Question
	out.Explanation = text.Explanation
	return out, nil
}

func distinct(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
