package question

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/gokatarajesh/question-bank/internal/localize"
)

// Type decides the answer shape of a question. It is fixed at creation.
type Type string

// Type constants.
const (
	TypeChooseTheBest     Type = "CHOOSE_THE_BEST"
	TypeMultiChoice       Type = "MULTI_CHOICE"
	TypeMatchTheFollowing Type = "MATCH_THE_FOLLOWING"
	TypeSingleLine        Type = "SINGLE_LINE"
)

// ParseType accepts the type names case-insensitively, with '-' or '_'.
func ParseType(raw string) (Type, error) {
	t := Type(strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(raw), "-", "_")))
	switch t {
	case TypeChooseTheBest, TypeMultiChoice, TypeMatchTheFollowing, TypeSingleLine:
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownType, raw)
}

// HasChoices reports whether answers are given through choices.
func (t Type) HasChoices() bool {
	return t == TypeChooseTheBest || t == TypeMultiChoice || t == TypeMatchTheFollowing
}

func (t Type) String() string {
	return string(t)
}

// Question is the aggregate delivered to clients: the question text plus its
// choices and, for MATCH_THE_FOLLOWING, its matches.
type Question struct {
	ID          uuid.UUID   `json:"id"`
	Type        Type        `json:"type"`
	Prompt      string      `json:"question" validate:"notblank"`
	Explanation pgtype.Text `json:"explanation"`
	Answer      pgtype.Text `json:"answer"`
	Choices     []Choice    `json:"choices,omitempty"`
	Matches     []Choice    `json:"matches,omitempty"`
	CreatedBy   string      `json:"created_by,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	ModifiedBy  string      `json:"modified_by,omitempty"`
	ModifiedAt  *time.Time  `json:"modified_at,omitempty"`
}

// Choice is one option of a question. Matches share the same shape.
// An unset ID means the choice has not been persisted yet; an unset IsAnswer
// means the flag was not given (or is hidden from the caller).
type Choice struct {
	ID       uuid.NullUUID `json:"id"`
	Value    string        `json:"value"`
	IsAnswer pgtype.Bool   `json:"answer"`
}

// NewChoice builds an unsaved choice.
func NewChoice(value string, isAnswer bool) Choice {
	return Choice{Value: value, IsAnswer: pgtype.Bool{Bool: isAnswer, Valid: true}}
}

// Correct reports whether the choice is flagged as a right answer.
func (c Choice) Correct() bool {
	return c.IsAnswer.Valid && c.IsAnswer.Bool
}

// Viewer is the caller a question is read for. Only owners see which choices
// are correct and the canonical answer text.
type Viewer struct {
	Username string
	Owner    bool
}

// System is an owner viewer used by internal reads such as answer evaluation.
var System = Viewer{Username: "system", Owner: true}

// CreateParams carries everything a new question is created from.
type CreateParams struct {
	Categories []string
	Tags       []string
	Type       Type
	Locale     localize.Locale
	CreatedBy  string
	Question   Question
}

func (q *Question) redact(v Viewer) {
	if v.Owner {
		return
	}
	q.Answer = pgtype.Text{}
	for i := range q.Choices {
		q.Choices[i].IsAnswer = pgtype.Bool{}
	}
	for i := range q.Matches {
		q.Matches[i].IsAnswer = pgtype.Bool{}
	}
}

func (q Question) clone() Question {
	out := q
	out.Choices = append([]Choice(nil), q.Choices...)
	out.Matches = append([]Choice(nil), q.Matches...)
	return out
}
