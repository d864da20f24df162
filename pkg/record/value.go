package record

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Kind tags which variant a Value holds.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindText
	KindTimestamp
	KindUniqueID
	KindFlag
	KindNumber
	KindNested
	KindSequence
	KindRaw
)

var kindNames = map[Kind]string{
	KindInvalid:   "invalid",
	KindText:      "text",
	KindTimestamp: "timestamp",
	KindUniqueID:  "unique_id",
	KindFlag:      "flag",
	KindNumber:    "number",
	KindNested:    "nested_record",
	KindSequence:  "record_sequence",
	KindRaw:       "raw",
}

// String returns the kind's name.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Value is a tagged union over the semantic types a store can hold. The zero
// Value is KindInvalid and is never stored.
type Value struct {
	kind   Kind
	text   string
	at     time.Time
	id     uuid.UUID
	flag   bool
	number float64
	nested *Store
	seq    []*Store
	raw    json.RawMessage
}

// Text wraps a string.
func Text(s string) Value {
	return Value{kind: KindText, text: s}
}

// Timestamp wraps an instant, normalised to UTC.
func Timestamp(t time.Time) Value {
	return Value{kind: KindTimestamp, at: t.UTC()}
}

// UniqueID wraps a UUID. Its canonical text form is lowercase and hyphenated.
func UniqueID(id uuid.UUID) Value {
	return Value{kind: KindUniqueID, id: id}
}

// Flag wraps a boolean.
func Flag(b bool) Value {
	return Value{kind: KindFlag, flag: b}
}

// Number wraps a numeric value.
func Number(n float64) Value {
	return Value{kind: KindNumber, number: n}
}

// Nested wraps a sealed sub-record.
func Nested(s *Store) Value {
	return Value{kind: KindNested, nested: s}
}

// Sequence wraps an ordered list of sealed sub-records. The slice is copied.
func Sequence(items []*Store) Value {
	return Value{kind: KindSequence, seq: append([]*Store(nil), items...)}
}

// Raw wraps an opaque JSON fragment. The bytes are copied.
func Raw(msg json.RawMessage) Value {
	return Value{kind: KindRaw, raw: append(json.RawMessage(nil), msg...)}
}

// Kind reports the variant held by v.
func (v Value) Kind() Kind {
	return v.kind
}

// IsValid reports whether v holds any variant.
func (v Value) IsValid() bool {
	return v.kind != KindInvalid
}

func (v Value) expect(k Kind) error {
	if v.kind != k {
		return &TypeMismatchError{Want: k, Got: v.kind}
	}
	return nil
}

// AsText returns the string payload.
func (v Value) AsText() (string, error) {
	if err := v.expect(KindText); err != nil {
		return "", err
	}
	return v.text, nil
}

// AsTimestamp returns the UTC instant payload.
func (v Value) AsTimestamp() (time.Time, error) {
	if err := v.expect(KindTimestamp); err != nil {
		return time.Time{}, err
	}
	return v.at, nil
}

// AsUniqueID returns the UUID payload.
func (v Value) AsUniqueID() (uuid.UUID, error) {
	if err := v.expect(KindUniqueID); err != nil {
		return uuid.Nil, err
	}
	return v.id, nil
}

// AsFlag returns the boolean payload.
func (v Value) AsFlag() (bool, error) {
	if err := v.expect(KindFlag); err != nil {
		return false, err
	}
	return v.flag, nil
}

// AsNumber returns the numeric payload.
func (v Value) AsNumber() (float64, error) {
	if err := v.expect(KindNumber); err != nil {
		return 0, err
	}
	return v.number, nil
}

// AsNested returns the sub-record payload.
func (v Value) AsNested() (*Store, error) {
	if err := v.expect(KindNested); err != nil {
		return nil, err
	}
	return v.nested, nil
}

// AsSequence returns a copy of the sub-record list, in insertion order.
func (v Value) AsSequence() ([]*Store, error) {
	if err := v.expect(KindSequence); err != nil {
		return nil, err
	}
	return append([]*Store(nil), v.seq...), nil
}

// AsRaw returns a copy of the JSON fragment payload.
func (v Value) AsRaw() (json.RawMessage, error) {
	if err := v.expect(KindRaw); err != nil {
		return nil, err
	}
	return append(json.RawMessage(nil), v.raw...), nil
}
