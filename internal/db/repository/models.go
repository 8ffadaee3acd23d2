package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// Question is a locale-resolved question row.
type Question struct {
	ID          uuid.UUID
	Question    string
	Explanation pgtype.Text
	Type        string
	Answer      pgtype.Text
	CreatedAt   time.Time
	CreatedBy   string
	ModifiedAt  pgtype.Timestamptz
	ModifiedBy  pgtype.Text
}

// QuestionLocalized is the overlay row of a question.
type QuestionLocalized struct {
	QuestionID  uuid.UUID
	Locale      string
	Question    string
	Explanation pgtype.Text
}

// UpdateQuestionParams rewrites the base-language fields of a question.
type UpdateQuestionParams struct {
	ID          uuid.UUID
	Type        string
	Question    string
	Explanation pgtype.Text
	Answer      pgtype.Text
	ModifiedAt  time.Time
	ModifiedBy  pgtype.Text
}

// Choice is a locale-resolved question_choice row. Matches share this shape.
type Choice struct {
	ID         uuid.UUID
	QuestionID uuid.UUID
	Value      string
	IsAnswer   bool
	Position   int32
}

// UpdateChoiceParams updates a choice in place. Value is left untouched when
// it is not Valid.
type UpdateChoiceParams struct {
	ID         uuid.UUID
	QuestionID uuid.UUID
	Value      pgtype.Text
	IsAnswer   bool
	Position   int32
}

// ChoiceLocalized is the overlay row of a choice.
type ChoiceLocalized struct {
	ChoiceID uuid.UUID
	Locale   string
	Value    string
}

// Match pairs a choice with a match. A NULL choice marks a distractor.
type Match struct {
	QuestionID uuid.UUID
	ChoiceID   uuid.NullUUID
	MatchID    uuid.UUID
	Position   int32
}

// Label is a category or tag row.
type Label struct {
	ID         string
	Title      string
	CreatedAt  time.Time
	CreatedBy  string
	ModifiedAt pgtype.Timestamptz
	ModifiedBy pgtype.Text
}

// LabelLocalized is the overlay row of a category or tag.
type LabelLocalized struct {
	LabelID string
	Locale  string
	Title   string
}
