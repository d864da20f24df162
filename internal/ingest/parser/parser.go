// Package parser turns raw CloudTrail documents into typed event views.
//
// It owns all text parsing: timestamps, UUIDs and booleans are converted
// here, so the record stores it produces only hold typed values. Keys with no
// rule are kept under their raw name (scalars typed, objects and arrays as raw
// JSON) and reported at debug level.
package parser

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"trailview/pkg/cloudtrail"
	"trailview/pkg/record"
	"trailview/pkg/record/field"
)

// ErrMalformed is returned for documents or fields that cannot be decoded.
var ErrMalformed = errors.New("malformed cloudtrail document")

// Entry pairs a decoded event with the JSON it came from.
type Entry struct {
	Event cloudtrail.Event
	Raw   json.RawMessage
}

// rule converts one JSON value into a value accepted by record.ValueOf.
type rule func(p *Parser, raw json.RawMessage) (any, error)

type schema map[field.Name]rule

var (
	sessionAttributesSchema = schema{
		field.CreationDate:     timestampRule,
		field.MFAAuthenticated: flagRule,
	}

	webIdentitySchema = schema{
		field.FederatedProvider: textRule,
		field.Attributes:        rawRule,
	}

	sessionIssuerSchema = schema{
		field.Type:        textRule,
		field.PrincipalID: textRule,
		field.Arn:         textRule,
		field.AccountID:   textRule,
		field.UserName:    textRule,
	}

	sessionContextSchema = schema{
		field.Attributes:          nestedRule(sessionAttributesSchema),
		field.SessionIssuer:       nestedRule(sessionIssuerSchema),
		field.WebIDFederationData: nestedRule(webIdentitySchema),
	}

	identitySchema = schema{
		field.Type:                textRule,
		field.PrincipalID:         textRule,
		field.Arn:                 textRule,
		field.AccountID:           textRule,
		field.AccessKeyID:         textRule,
		field.UserName:            textRule,
		field.InvokedBy:           textRule,
		field.SessionContext:      nestedRule(sessionContextSchema),
		field.WebIDFederationData: nestedRule(webIdentitySchema),
	}

	resourceSchema = schema{
		field.Type:      textRule,
		field.ARN:       textRule,
		field.AccountID: textRule,
	}

	eventSchema = schema{
		field.EventVersion:        textRule,
		field.UserIdentity:        nestedRule(identitySchema),
		field.EventTime:           timestampRule,
		field.EventName:           textRule,
		field.EventSource:         textRule,
		field.AWSRegion:           textRule,
		field.SourceIPAddress:     textRule,
		field.UserAgent:           textRule,
		field.RequestID:           textRule,
		field.ErrorCode:           textRule,
		field.ErrorMessage:        textRule,
		field.RequestParameters:   rawRule,
		field.ResponseElements:    rawRule,
		field.AdditionalEventData: rawRule,
		field.EventID:             uniqueIDRule,
		field.ReadOnly:            flagRule,
		field.Resources:           sequenceRule(resourceSchema),
		field.AccountID:           textRule,
		field.EventType:           textRule,
		field.APIVersion:          textRule,
		field.RecipientAccountID:  textRule,
	}
)

// Parser decodes CloudTrail log files and single event documents.
type Parser struct {
	logger *slog.Logger
}

// Option configures a Parser.
type Option func(*Parser)

// WithLogger sets the logger used for unknown-field diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New constructs a Parser.
func New(opts ...Option) *Parser {
	p := &Parser{logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// RecordError reports one entry of a log file that could not be decoded.
// The rest of the file is unaffected.
type RecordError struct {
	Index int
	Raw   json.RawMessage
	Err   error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("Records[%d]: %v", e.Index, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }

// Parse decodes either a log file ({"Records":[...]}) or a single event object.
// A log file yields the entries that decoded and one RecordError per entry
// that did not. The returned error is reserved for documents that cannot be
// read at all; a single event that fails to decode is such a document.
func (p *Parser) Parse(data []byte) ([]Entry, []RecordError, error) {
	var top map[string]json.RawMessage
	if err := unmarshal(data, &top); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if top == nil {
		return nil, nil, fmt.Errorf("%w: document is null", ErrMalformed)
	}

	records, ok := top[field.Records.String()]
	if !ok {
		entry, err := p.parseEvent(data, top)
		if err != nil {
			return nil, nil, err
		}
		return []Entry{entry}, nil, nil
	}

	var raws []json.RawMessage
	if err := unmarshal(records, &raws); err != nil {
		return nil, nil, fmt.Errorf("%w: Records: %v", ErrMalformed, err)
	}
	entries := make([]Entry, 0, len(raws))
	var rejected []RecordError
	for i, raw := range raws {
		entry, err := p.parseRecord(raw)
		if err != nil {
			rejected = append(rejected, RecordError{
				Index: i,
				Raw:   append(json.RawMessage(nil), raw...),
				Err:   err,
			})
			continue
		}
		entries = append(entries, entry)
	}
	return entries, rejected, nil
}

func (p *Parser) parseRecord(raw json.RawMessage) (Entry, error) {
	var obj map[string]json.RawMessage
	if err := unmarshal(raw, &obj); err != nil {
		return Entry{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if obj == nil {
		return Entry{}, fmt.Errorf("%w: record is null", ErrMalformed)
	}
	return p.parseEvent(raw, obj)
}

func (p *Parser) parseEvent(raw json.RawMessage, obj map[string]json.RawMessage) (Entry, error) {
	fields, err := p.decodeObject(obj, eventSchema)
	if err != nil {
		return Entry{}, err
	}
	ev, err := cloudtrail.EventFromMap(fields)
	if err != nil {
		return Entry{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return Entry{Event: ev, Raw: append(json.RawMessage(nil), raw...)}, nil
}

func (p *Parser) decodeObject(obj map[string]json.RawMessage, s schema) (map[string]any, error) {
	out := make(map[string]any, len(obj))
	for key, raw := range obj {
		r, known := s[field.Name(key)]
		if !known {
			p.logger.Debug("storing field without accessor", "field", key)
			r = looseRule
		}
		v, err := r(p, raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, key, err)
		}
		if v != nil {
			out[key] = v
		}
	}
	return out, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// unmarshal decodes exactly one JSON value; anything after it is an error.
func unmarshal(raw json.RawMessage, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("unexpected data after JSON value")
	}
	return nil
}

func textRule(_ *Parser, raw json.RawMessage) (any, error) {
	if isNull(raw) {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	return s, nil
}

func timestampRule(_ *Parser, raw json.RawMessage) (any, error) {
	if isNull(raw) {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, err
	}
	return t.UTC(), nil
}

func uniqueIDRule(_ *Parser, raw json.RawMessage) (any, error) {
	if isNull(raw) {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	return uuid.Parse(s)
}

// flagRule accepts JSON booleans and the "true"/"false" strings CloudTrail
// uses for some session attributes.
func flagRule(_ *Parser, raw json.RawMessage) (any, error) {
	if isNull(raw) {
		return nil, nil
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	return strconv.ParseBool(s)
}

func rawRule(_ *Parser, raw json.RawMessage) (any, error) {
	return append(json.RawMessage(nil), bytes.TrimSpace(raw)...), nil
}

func nestedRule(s schema) rule {
	return func(p *Parser, raw json.RawMessage) (any, error) {
		if isNull(raw) {
			return nil, nil
		}
		var obj map[string]json.RawMessage
		if err := unmarshal(raw, &obj); err != nil {
			return nil, err
		}
		fields, err := p.decodeObject(obj, s)
		if err != nil {
			return nil, err
		}
		return record.FromMap(fields)
	}
}

func sequenceRule(s schema) rule {
	nested := nestedRule(s)
	return func(p *Parser, raw json.RawMessage) (any, error) {
		if isNull(raw) {
			return nil, nil
		}
		var items []json.RawMessage
		if err := unmarshal(raw, &items); err != nil {
			return nil, err
		}
		stores := make([]*record.Store, 0, len(items))
		for i, item := range items {
			v, err := nested(p, item)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			if v == nil {
				continue
			}
			stores = append(stores, v.(*record.Store))
		}
		return stores, nil
	}
}

// looseRule types scalars and keeps structured values as raw JSON.
func looseRule(_ *Parser, raw json.RawMessage) (any, error) {
	var v any
	if err := unmarshal(raw, &v); err != nil {
		return nil, err
	}
	switch x := v.(type) {
	case nil:
		return nil, nil
	case string, bool, json.Number:
		return x, nil
	default:
		return append(json.RawMessage(nil), bytes.TrimSpace(raw)...), nil
	}
}
