package question

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound is returned when an update or delete targets an id and type
	// combination that does not exist.
	ErrNotFound = errors.New("question not found")
	// ErrUnknownType is returned for question type names outside the known set.
	ErrUnknownType = errors.New("unknown question type")
)

// ValidationError carries every violated rule of a rejected payload.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Violations, "; ")
}

// Has reports whether one of the violations contains msg.
func (e *ValidationError) Has(msg string) bool {
	for _, v := range e.Violations {
		if strings.Contains(v, msg) {
			return true
		}
	}
	return false
}

// StoreError wraps a failure of the underlying store.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func violations(msgs []string) error {
	if len(msgs) == 0 {
		return nil
	}
	return &ValidationError{Violations: msgs}
}

// storeFailure leaves validation and not-found errors untouched and wraps
// everything else.
func storeFailure(op string, err error) error {
	if err == nil {
		return nil
	}
	var serr *StoreError
	if isValidation(err) || isNotFound(err) || errors.As(err, &serr) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}

func isValidation(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
