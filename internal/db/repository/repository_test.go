package repository

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/question-bank/internal/localize"
)

type mockDB struct {
	mock.Mock
}

func (m *mockDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	called := m.Called(append([]any{sql}, args...)...)
	return called.Get(0).(pgconn.CommandTag), called.Error(1)
}

func (m *mockDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	called := m.Called(append([]any{sql}, args...)...)
	rows, _ := called.Get(0).(pgx.Rows)
	return rows, called.Error(1)
}

func (m *mockDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	called := m.Called(append([]any{sql}, args...)...)
	return called.Get(0).(pgx.Row)
}

// fakeRow copies values into Scan destinations positionally.
type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *uuid.UUID:
			*p = r.values[i].(uuid.UUID)
		case *string:
			*p = r.values[i].(string)
		case *bool:
			*p = r.values[i].(bool)
		case *int32:
			*p = r.values[i].(int32)
		case *time.Time:
			*p = r.values[i].(time.Time)
		case *pgtype.Text:
			*p = r.values[i].(pgtype.Text)
		case *pgtype.Timestamptz:
			*p = r.values[i].(pgtype.Timestamptz)
		default:
			return errors.New("unsupported scan target")
		}
	}
	return nil
}

func text(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: true}
}

func TestUpdateQuestionReportsAffectedRows(t *testing.T) {
	db := new(mockDB)
	q := New(db)
	id := uuid.New()
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	db.On("Exec", mock.MatchedBy(func(sql string) bool {
		return strings.Contains(sql, "WHERE id = $1 AND type = $2")
	}), id, "MULTI_CHOICE", "Updated", pgtype.Text{}, pgtype.Text{}, at, text("tom")).
		Return(pgconn.NewCommandTag("UPDATE 0"), nil)

	n, err := q.UpdateQuestion(context.Background(), UpdateQuestionParams{
		ID:         id,
		Type:       "MULTI_CHOICE",
		Question:   "Updated",
		ModifiedAt: at,
		ModifiedBy: text("tom"),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
	db.AssertExpectations(t)
}

func TestDeleteChoicesSkipsEmptySet(t *testing.T) {
	db := new(mockDB)
	q := New(db)

	n, err := q.DeleteChoices(context.Background(), uuid.New(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	require.NoError(t, q.DeleteChoiceLocalized(context.Background(), nil))
	require.NoError(t, q.DeleteMatchesByID(context.Background(), uuid.New(), nil))
	assert.Empty(t, db.Calls)
}

func TestDeleteChoicesPassesIDsAsText(t *testing.T) {
	db := new(mockDB)
	q := New(db)
	qid, c1, c2 := uuid.New(), uuid.New(), uuid.New()

	db.On("Exec", mock.Anything, qid, []string{c1.String(), c2.String()}).
		Return(pgconn.NewCommandTag("DELETE 2"), nil)

	n, err := q.DeleteChoices(context.Background(), qid, []uuid.UUID{c1, c2})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestExecErrorsAreWrapped(t *testing.T) {
	db := new(mockDB)
	q := New(db)
	boom := errors.New("connection reset")

	db.On("Exec", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(pgconn.CommandTag{}, boom)

	err := q.UpsertChoiceLocalized(context.Background(), ChoiceLocalized{ChoiceID: uuid.New(), Locale: "de", Value: "eins"})
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "question_choice_localized")
}

func TestGetQuestionNotFound(t *testing.T) {
	db := new(mockDB)
	q := New(db)
	id := uuid.New()

	db.On("QueryRow", mock.Anything, id, "de").Return(fakeRow{err: pgx.ErrNoRows})

	_, err := q.GetQuestion(context.Background(), id, "de")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetQuestionResolvesOverlay(t *testing.T) {
	id := uuid.New()
	created := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	base := []any{
		id, "What is Go?", text("A language"), "SINGLE_LINE", text("Go"),
		created, "tom", pgtype.Timestamptz{}, pgtype.Text{},
	}

	cases := []struct {
		name      string
		locale    localize.Locale
		overlay   []any
		wantText  string
		wantExpla string
	}{
		{"overlay for locale", "de", []any{text("Was ist Go?"), text("Eine Sprache"), text("de")}, "Was ist Go?", "Eine Sprache"},
		{"no overlay", "de", []any{pgtype.Text{}, pgtype.Text{}, pgtype.Text{}}, "What is Go?", "A language"},
		{"no locale", localize.None, []any{pgtype.Text{}, pgtype.Text{}, pgtype.Text{}}, "What is Go?", "A language"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			db := new(mockDB)
			q := New(db)
			values := append(append([]any{}, base...), tc.overlay...)
			db.On("QueryRow", mock.MatchedBy(func(sql string) bool {
				return strings.Contains(sql, "LEFT JOIN question_localized ql ON ql.question_id = q.id AND ql.locale = $2")
			}), id, tc.locale.String()).Return(fakeRow{values: values})

			got, err := q.GetQuestion(context.Background(), id, tc.locale)
			require.NoError(t, err)
			assert.Equal(t, tc.wantText, got.Question)
			assert.Equal(t, tc.wantExpla, got.Explanation.String)
			assert.Equal(t, "Go", got.Answer.String)
		})
	}
}

func TestAttachLabelOnlyLinksExistingLabels(t *testing.T) {
	db := new(mockDB)
	q := New(db)
	qid := uuid.New()

	db.On("Exec", mock.MatchedBy(func(sql string) bool {
		return strings.Contains(sql, "INSERT INTO question_category (question_id, category_id)") &&
			strings.Contains(sql, "WHERE EXISTS (SELECT 1 FROM category WHERE id = $2)")
	}), qid, "c1").Return(pgconn.NewCommandTag("INSERT 0 0"), nil)

	n, err := q.AttachLabel(context.Background(), Categories, qid, "c1")
	require.NoError(t, err)
	assert.Zero(t, n)
	db.AssertExpectations(t)
}

func TestDistinct(t *testing.T) {
	assert.Equal(t, []string{"c1", "c2"}, distinct([]string{"c1", "c2", "c1"}))
	assert.Empty(t, distinct(nil))
}
