package category

import (
	"errors"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when an update targets a label that does not exist.
	ErrNotFound = errors.New("label not found")
	// ErrAlreadyExists is returned when a label id is taken.
	ErrAlreadyExists = errors.New("label already exists")
)

// Label is a category or a tag. The id is chosen by the caller and is what
// questions refer to.
type Label struct {
	ID         string     `json:"id" validate:"notblank"`
	Title      string     `json:"title" validate:"notblank"`
	CreatedBy  string     `json:"created_by,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	ModifiedBy string     `json:"modified_by,omitempty"`
	ModifiedAt *time.Time `json:"modified_at,omitempty"`
}

// ValidationError lists the fields a label payload is missing.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Violations, "; ")
}
