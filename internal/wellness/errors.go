package wellness

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrInsufficientData = errors.New("insufficient data")
	ErrDataAccess       = errors.New("data access failure")
)

// InsufficientDataError lists the inputs that were missing for a computation.
type InsufficientDataError struct {
	Missing []string
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("%s: missing [%s]", ErrInsufficientData, strings.Join(e.Missing, ", "))
}

func (e *InsufficientDataError) Is(target error) bool {
	return target == ErrInsufficientData
}

// DataAccess marks err as a persistence failure of the given operation.
func DataAccess(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, ErrDataAccess, err)
}

func InvalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
