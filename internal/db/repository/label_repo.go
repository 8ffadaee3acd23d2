package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/gokatarajesh/question-bank/internal/localize"
)

// Taxonomy names the tables behind one kind of question label.
type Taxonomy struct {
	Name      string
	Table     string
	Localized string
	Key       string
	Link      string
}

var (
	// Categories are the subjects a question is filed under.
	Categories = Taxonomy{
		Name:      "category",
		Table:     "category",
		Localized: "category_localized",
		Key:       "category_id",
		Link:      "question_category",
	}
	// Tags are free-form markers on questions.
	Tags = Taxonomy{
		Name:      "tag",
		Table:     "tag",
		Localized: "tag_localized",
		Key:       "tag_id",
		Link:      "question_tag",
	}
)

func (t Taxonomy) table() localize.Table {
	return localize.Table{
		Name:           t.Table,
		Alias:          "l",
		Columns:        []string{"id", "title", "created_at", "created_by", "modified_at", "modified_by"},
		Overlay:        t.Localized,
		OverlayAlias:   "ll",
		OverlayKey:     t.Key,
		OverlayColumns: []string{"title"},
	}
}

// InsertLabel stores a new category or tag.
func (q *Queries) InsertLabel(ctx context.Context, t Taxonomy, row Label) error {
	query := fmt.Sprintf(`INSERT INTO %s (id, title, created_at, created_by) VALUES ($1, $2, $3, $4)`, t.Table)
	if _, err := q.db.Exec(ctx, query, row.ID, row.Title, row.CreatedAt, row.CreatedBy); err != nil {
		return fmt.Errorf("insert %s: %w", t.Name, err)
	}
	return nil
}

// EnsureLabel creates the label when it does not exist yet.
func (q *Queries) EnsureLabel(ctx context.Context, t Taxonomy, row Label) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, title, created_at, created_by) VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING`, t.Table)
	if _, err := q.db.Exec(ctx, query, row.ID, row.Title, row.CreatedAt, row.CreatedBy); err != nil {
		return fmt.Errorf("ensure %s: %w", t.Name, err)
	}
	return nil
}

// GetLabel reads one label resolved for locale.
func (q *Queries) GetLabel(ctx context.Context, t Taxonomy, id string, locale localize.Locale) (Label, error) {
	query := t.table().Select(2) + " WHERE l.id = $1"
	row, err := scanLabel(q.db.QueryRow(ctx, query, id, locale.String()), locale)
	if err != nil {
		return Label{}, notFound(err)
	}
	return row, nil
}

// ListLabels returns every label resolved for locale.
func (q *Queries) ListLabels(ctx context.Context, t Taxonomy, locale localize.Locale) ([]Label, error) {
	query := t.table().Select(1) + " ORDER BY l.id"
	rows, err := q.db.Query(ctx, query, locale.String())
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", t.Name, err)
	}
	defer rows.Close()

	var out []Label
	for rows.Next() {
		l, err := scanLabel(rows, locale)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", t.Name, err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// UpdateLabel rewrites the base title. When title is not Valid only the
// audit columns change.
func (q *Queries) UpdateLabel(ctx context.Context, t Taxonomy, id string, title pgtype.Text, modifiedBy string, at time.Time) (int64, error) {
	query := fmt.Sprintf(`
		UPDATE %s SET title = COALESCE($2, title), modified_by = $3, modified_at = $4
		WHERE id = $1`, t.Table)
	tag, err := q.db.Exec(ctx, query, id, title, modifiedBy, at)
	if err != nil {
		return 0, fmt.Errorf("update %s: %w", t.Name, err)
	}
	return tag.RowsAffected(), nil
}

// UpsertLabelLocalized writes the overlay title for one locale.
func (q *Queries) UpsertLabelLocalized(ctx context.Context, t Taxonomy, row LabelLocalized) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, locale, title) VALUES ($1, $2, $3)
		ON CONFLICT (%s, locale) DO UPDATE SET title = EXCLUDED.title`, t.Localized, t.Key, t.Key)
	if _, err := q.db.Exec(ctx, query, row.LabelID, row.Locale, row.Title); err != nil {
		return fmt.Errorf("upsert %s: %w", t.Localized, err)
	}
	return nil
}

// DeleteLabel removes a label, its overlays and its question links.
func (q *Queries) DeleteLabel(ctx context.Context, t Taxonomy, id string) (int64, error) {
	if _, err := q.db.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, t.Link, t.Key), id); err != nil {
		return 0, fmt.Errorf("delete %s: %w", t.Link, err)
	}
	if _, err := q.db.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, t.Localized, t.Key), id); err != nil {
		return 0, fmt.Errorf("delete %s: %w", t.Localized, err)
	}
	tag, err := q.db.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, t.Table), id)
	if err != nil {
		return 0, fmt.Errorf("delete %s: %w", t.Name, err)
	}
	return tag.RowsAffected(), nil
}

// AttachLabel links a question to an existing label. It reports zero rows
// when the label does not exist, instead of failing the transaction.
func (q *Queries) AttachLabel(ctx context.Context, t Taxonomy, questionID uuid.UUID, labelID string) (int64, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (question_id, %s)
		SELECT $1, $2 WHERE EXISTS (SELECT 1 FROM %s WHERE id = $2)
		ON CONFLICT DO NOTHING`, t.Link, t.Key, t.Table)
	tag, err := q.db.Exec(ctx, query, questionID, labelID)
	if err != nil {
		return 0, fmt.Errorf("attach %s: %w", t.Name, err)
	}
	return tag.RowsAffected(), nil
}

// DetachLabels removes every label link of a question.
func (q *Queries) DetachLabels(ctx context.Context, t Taxonomy, questionID uuid.UUID) error {
	if _, err := q.db.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE question_id = $1`, t.Link), questionID); err != nil {
		return fmt.Errorf("detach %s: %w", t.Name, err)
	}
	return nil
}

// DeleteAllLabels wipes every label of the taxonomy.
func (q *Queries) DeleteAllLabels(ctx context.Context, t Taxonomy) error {
	for _, table := range []string{t.Link, t.Localized, t.Table} {
		if _, err := q.db.Exec(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("delete %s: %w", table, err)
		}
	}
	return nil
}

func scanLabel(row pgx.Row, locale localize.Locale) (Label, error) {
	var (
		out           Label
		localTitle    pgtype.Text
		overlayLocale pgtype.Text
	)
	err := row.Scan(&out.ID, &out.Title, &out.CreatedAt, &out.CreatedBy, &out.ModifiedAt, &out.ModifiedBy,
		&localTitle, &overlayLocale)
	if err != nil {
		return Label{}, err
	}
	var overlays []localize.Overlay[string]
	if overlayLocale.Valid {
		overlays = append(overlays, localize.Overlay[string]{
			Locale: localize.Locale(overlayLocale.String),
			Value:  localTitle.String,
		})
	}
	out.Title = localize.Resolve(out.Title, locale, overlays...)
	return out, nil
}
