// Package record provides the single storage primitive shared by every
// CloudTrail record kind: a sealed map from field name to a tagged Value.
//
// A Builder is populated once by the decoder and sealed into a Store. Stores
// have no mutating methods, so a sealed graph of stores can be read from any
// number of goroutines without locking.
package record

import (
	"fmt"
	"sort"

	"trailview/pkg/record/field"
)

// Store is a read-only set of field values.
type Store struct {
	values map[field.Name]Value
}

// Get returns the value stored under f. The boolean is false if f is absent.
func (s *Store) Get(f field.Name) (Value, bool) {
	if s == nil {
		return Value{}, false
	}
	v, ok := s.values[f]
	return v, ok
}

// Contains reports whether a value is stored under f.
func (s *Store) Contains(f field.Name) bool {
	_, ok := s.Get(f)
	return ok
}

// Len returns the number of stored fields, known or not.
func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return len(s.values)
}

// Fields returns the stored field names in lexical order.
func (s *Store) Fields() []field.Name {
	if s == nil {
		return nil
	}
	out := make([]field.Name, 0, len(s.values))
	for f := range s.values {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Builder accumulates values for one record during decoding. It is not safe
// for concurrent use; a single producer owns it until Seal.
type Builder struct {
	values map[field.Name]Value
	store  *Store
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{values: make(map[field.Name]Value)}
}

// Put stores v under f, replacing any earlier value. Field names outside the
// schema are accepted. Invalid values and writes after Seal are rejected.
func (b *Builder) Put(f field.Name, v Value) error {
	if b.store != nil {
		return ErrSealed
	}
	if !v.IsValid() {
		return fmt.Errorf("%w: %q holds no value", ErrUnsupportedValue, f)
	}
	b.values[f] = v
	return nil
}

// Contains reports whether f has been written.
func (b *Builder) Contains(f field.Name) bool {
	_, ok := b.values[f]
	return ok
}

// Seal hands the accumulated values to a Store. The builder keeps no
// reference to the returned map and rejects further writes. Sealing twice
// returns the same Store.
func (b *Builder) Seal() *Store {
	if b.store == nil {
		b.store = &Store{values: b.values}
		b.values = nil
	}
	return b.store
}
