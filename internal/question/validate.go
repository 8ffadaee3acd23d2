package question

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// Rule messages reported by Validate.
const (
	MsgNoChoices       = "No choices are provided"
	MsgNoMatches       = "No matches are provided"
	MsgNotEnoughMatch  = "Not Enough Matches"
	MsgMinimumChoices  = "Minimum 2 choices"
	MsgAnswerRequired  = "At-least One Answer should be available"
	MsgAnswerNotEmpty  = "Answer should not be empty"
	minimumChoiceCount = 2
)

// FieldValidator checks field-level constraints declared in struct tags.
// Violations are reported as "<json name> is mandatory".
type FieldValidator struct {
	validate *validator.Validate
}

// NewFieldValidator registers the tags used by question payloads.
func NewFieldValidator() *FieldValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	// Only fails for a malformed tag name.
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	return &FieldValidator{validate: v}
}

// Violations returns one message per failing field.
func (f *FieldValidator) Violations(v any) []string {
	err := f.validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []string{err.Error()}
	}
	out := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, fe.Field()+" is mandatory")
	}
	return out
}

// Rules returns every business rule the question breaks for type t.
func Rules(t Type, q Question) []string {
	var out []string
	switch t {
	case TypeMatchTheFollowing:
		if len(q.Choices) == 0 {
			out = append(out, MsgNoChoices)
		}
		if len(q.Matches) == 0 {
			out = append(out, MsgNoMatches)
		}
		if len(q.Choices) > len(q.Matches) {
			out = append(out, MsgNotEnoughMatch)
		}
	case TypeMultiChoice, TypeChooseTheBest:
		if len(q.Choices) < minimumChoiceCount {
			out = append(out, MsgMinimumChoices)
		}
		if !anyCorrect(q.Choices) {
			out = append(out, MsgAnswerRequired)
		}
	default:
		if !q.Answer.Valid || strings.TrimSpace(q.Answer.String) == "" {
			out = append(out, MsgAnswerNotEmpty)
		}
	}
	return out
}

// Validate runs field checks first; business rules only run when every field
// is valid.
func (f *FieldValidator) Validate(t Type, q Question) error {
	if v := f.Violations(q); len(v) > 0 {
		return violations(v)
	}
	return violations(Rules(t, q))
}

func anyCorrect(choices []Choice) bool {
	for _, c := range choices {
		if c.Correct() {
			return true
		}
	}
	return false
}
