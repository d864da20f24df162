package record

import (
	"errors"
	"fmt"

	"trailview/pkg/record/field"
)

var (
	// ErrTypeMismatch means a stored value's variant disagrees with the variant
	// an accessor expects. Correctly parsed data never produces it; seeing it
	// points at a decoder defect upstream.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrSealed is returned when writing to a builder that has already been sealed.
	ErrSealed = errors.New("record store is sealed")

	// ErrUnsupportedValue is returned by FromMap for Go values outside the
	// closed set of semantic types.
	ErrUnsupportedValue = errors.New("unsupported value type")
)

// TypeMismatchError carries the field and the two variants involved.
type TypeMismatchError struct {
	Field field.Name
	Want  Kind
	Got   Kind
}

func (e *TypeMismatchError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("type mismatch: want %s, got %s", e.Want, e.Got)
	}
	return fmt.Sprintf("type mismatch on %q: want %s, got %s", e.Field, e.Want, e.Got)
}

// Is lets errors.Is(err, ErrTypeMismatch) match.
func (e *TypeMismatchError) Is(target error) bool {
	return target == ErrTypeMismatch
}

// IsTypeMismatch reports whether err is or wraps a type mismatch.
func IsTypeMismatch(err error) bool {
	return errors.Is(err, ErrTypeMismatch)
}
