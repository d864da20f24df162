package record

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"trailview/pkg/record/field"
)

// lookup resolves f in s and converts it with as. Absent fields return the
// zero value with ok=false; a variant mismatch is reported with the field
// name attached.
func lookup[T any](s *Store, f field.Name, as func(Value) (T, error)) (T, bool, error) {
	var zero T
	v, ok := s.Get(f)
	if !ok {
		return zero, false, nil
	}
	out, err := as(v)
	if err != nil {
		var mismatch *TypeMismatchError
		if errors.As(err, &mismatch) {
			mismatch.Field = f
		}
		return zero, true, err
	}
	return out, true, nil
}

// GetText reads a text field.
func GetText(s *Store, f field.Name) (string, bool, error) {
	return lookup(s, f, Value.AsText)
}

// GetTimestamp reads a timestamp field.
func GetTimestamp(s *Store, f field.Name) (time.Time, bool, error) {
	return lookup(s, f, Value.AsTimestamp)
}

// GetUniqueID reads a unique-identifier field.
func GetUniqueID(s *Store, f field.Name) (uuid.UUID, bool, error) {
	return lookup(s, f, Value.AsUniqueID)
}

// GetFlag reads a boolean field.
func GetFlag(s *Store, f field.Name) (bool, bool, error) {
	return lookup(s, f, Value.AsFlag)
}

// GetNumber reads a numeric field.
func GetNumber(s *Store, f field.Name) (float64, bool, error) {
	return lookup(s, f, Value.AsNumber)
}

// GetRaw reads an opaque JSON field.
func GetRaw(s *Store, f field.Name) (json.RawMessage, bool, error) {
	return lookup(s, f, Value.AsRaw)
}

// GetNested reads a nested record and wraps it with view.
func GetNested[T any](s *Store, f field.Name, view func(*Store) T) (T, bool, error) {
	return lookup(s, f, func(v Value) (T, error) {
		var zero T
		nested, err := v.AsNested()
		if err != nil {
			return zero, err
		}
		return view(nested), nil
	})
}

// GetSequence reads a record sequence and wraps each element with view. The
// returned slice is freshly allocated and keeps insertion order.
func GetSequence[T any](s *Store, f field.Name, view func(*Store) T) ([]T, bool, error) {
	return lookup(s, f, func(v Value) ([]T, error) {
		items, err := v.AsSequence()
		if err != nil {
			return nil, err
		}
		out := make([]T, len(items))
		for i, item := range items {
			out[i] = view(item)
		}
		return out, nil
	})
}
