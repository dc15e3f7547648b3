// services/errors.go - Allocation error taxonomy
package services

import (
	"errors"
	"fmt"

	"hackportal/models"
)

var (
	// ErrWindowClosed is returned when a claim arrives while the selection window is closed.
	ErrWindowClosed = errors.New("selection window is closed")
	// ErrProblemUnavailable means the problem does not exist or is hidden from teams.
	ErrProblemUnavailable = errors.New("problem is not available")
	// ErrProblemFull means the problem has no slots left.
	ErrProblemFull = errors.New("problem has reached its team limit")
	// ErrAlreadySelected means the team already holds a selection.
	ErrAlreadySelected = errors.New("team has already selected a problem")
	// ErrStorageUnavailable wraps connectivity and other backend failures.
	ErrStorageUnavailable = errors.New("storage unavailable")

	ErrNotFound           = errors.New("not found")
	ErrDuplicateTeamCode  = errors.New("team code already in use")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// AlreadySelectedError carries the selection the team already holds so the
// caller can render it as the confirmed assignment.
type AlreadySelectedError struct {
	Existing *models.Selection
}

func (e *AlreadySelectedError) Error() string {
	return ErrAlreadySelected.Error()
}

func (e *AlreadySelectedError) Unwrap() error {
	return ErrAlreadySelected
}

// Unavailable wraps a backend error as ErrStorageUnavailable.
func Unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, ErrStorageUnavailable, err)
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
