package record

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"trailview/pkg/record/field"
)

// FromMap builds and seals a store from an already-typed key/value mapping.
// Nested maps become nested records and lists of maps become record
// sequences, each with its own store. No text is parsed here: strings stay
// text even if they look like timestamps or UUIDs.
func FromMap(fields map[string]any) (*Store, error) {
	b := NewBuilder()
	for key, raw := range fields {
		v, err := ValueOf(raw)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", key, err)
		}
		if err := b.Put(field.Name(key), v); err != nil {
			return nil, err
		}
	}
	return b.Seal(), nil
}

// ValueOf maps one parser-produced Go value onto its Value variant.
func ValueOf(raw any) (Value, error) {
	switch x := raw.(type) {
	case Value:
		if !x.IsValid() {
			return Value{}, ErrUnsupportedValue
		}
		return x, nil
	case string:
		return Text(x), nil
	case time.Time:
		return Timestamp(x), nil
	case uuid.UUID:
		return UniqueID(x), nil
	case bool:
		return Flag(x), nil
	case float64:
		return Number(x), nil
	case float32:
		return Number(float64(x)), nil
	case int:
		return Number(float64(x)), nil
	case int64:
		return Number(float64(x)), nil
	case json.Number:
		n, err := x.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("%w: %v", ErrUnsupportedValue, err)
		}
		return Number(n), nil
	case json.RawMessage:
		return Raw(x), nil
	case *Store:
		return Nested(x), nil
	case map[string]any:
		s, err := FromMap(x)
		if err != nil {
			return Value{}, err
		}
		return Nested(s), nil
	case []*Store:
		return Sequence(x), nil
	case []map[string]any:
		return sequenceOf(len(x), func(i int) any { return x[i] })
	case []any:
		return sequenceOf(len(x), func(i int) any { return x[i] })
	default:
		return Value{}, fmt.Errorf("%w: %T", ErrUnsupportedValue, raw)
	}
}

func sequenceOf(n int, at func(int) any) (Value, error) {
	items := make([]*Store, 0, n)
	for i := 0; i < n; i++ {
		switch item := at(i).(type) {
		case map[string]any:
			s, err := FromMap(item)
			if err != nil {
				return Value{}, fmt.Errorf("element %d: %w", i, err)
			}
			items = append(items, s)
		case *Store:
			items = append(items, item)
		default:
			return Value{}, fmt.Errorf("element %d: %w: %T in record sequence", i, ErrUnsupportedValue, item)
		}
	}
	return Sequence(items), nil
}
