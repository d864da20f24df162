// Package cloudtrail exposes typed, read-only views over sealed record stores
// for CloudTrail events and their nested identity and resource records.
//
// Every accessor returns (value, present, err). A missing field reports
// present=false with a nil error. A stored value of the wrong variant reports
// an error matching record.ErrTypeMismatch.
package cloudtrail

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"trailview/pkg/record"
	"trailview/pkg/record/field"
)

// Event is the top-level CloudTrail record.
type Event struct {
	store *record.Store
}

// NewEvent wraps a sealed store as an Event.
func NewEvent(s *record.Store) Event {
	return Event{store: s}
}

// EventFromMap builds an Event from a parser-produced mapping. Nested
// userIdentity and resources values are built into their own stores.
func EventFromMap(fields map[string]any) (Event, error) {
	s, err := record.FromMap(fields)
	if err != nil {
		return Event{}, err
	}
	return NewEvent(s), nil
}

// UnknownFields lists stored keys that have no accessor on Event.
func (e Event) UnknownFields() []field.Name {
	return field.EventFields.Unknown(e.store.Fields())
}

// EventVersion is the version of the log event format.
func (e Event) EventVersion() (string, bool, error) {
	return record.GetText(e.store, field.EventVersion)
}

// UserIdentity describes who made the request.
func (e Event) UserIdentity() (Identity, bool, error) {
	return record.GetNested(e.store, field.UserIdentity, NewIdentity)
}

// EventTime is when the request completed, in UTC.
func (e Event) EventTime() (time.Time, bool, error) {
	return record.GetTimestamp(e.store, field.EventTime)
}

// EventName is the requested action, e.g. ConsoleLogin.
func (e Event) EventName() (string, bool, error) {
	return record.GetText(e.store, field.EventName)
}

// EventSource is the service the request was made to, e.g. s3.amazonaws.com.
func (e Event) EventSource() (string, bool, error) {
	return record.GetText(e.store, field.EventSource)
}

// AWSRegion is the region the request was made to.
func (e Event) AWSRegion() (string, bool, error) {
	return record.GetText(e.store, field.AWSRegion)
}

// SourceIPAddress is the caller's IP address, or a service name for calls
// made by an AWS service.
func (e Event) SourceIPAddress() (string, bool, error) {
	return record.GetText(e.store, field.SourceIPAddress)
}

// UserAgent is the agent through which the request was made.
func (e Event) UserAgent() (string, bool, error) {
	return record.GetText(e.store, field.UserAgent)
}

// RequestID identifies the request, as generated by the called service.
func (e Event) RequestID() (string, bool, error) {
	return record.GetText(e.store, field.RequestID)
}

// ErrorCode is the service error code, if the request failed.
func (e Event) ErrorCode() (string, bool, error) {
	return record.GetText(e.store, field.ErrorCode)
}

// ErrorMessage is the service error description, if the request failed.
func (e Event) ErrorMessage() (string, bool, error) {
	return record.GetText(e.store, field.ErrorMessage)
}

// RequestParameters is the request's parameter document.
func (e Event) RequestParameters() (json.RawMessage, bool, error) {
	return record.GetRaw(e.store, field.RequestParameters)
}

// ResponseElements is the response document for write actions.
func (e Event) ResponseElements() (json.RawMessage, bool, error) {
	return record.GetRaw(e.store, field.ResponseElements)
}

// AdditionalEventData is extra data about the event that is not part of the
// request or response.
func (e Event) AdditionalEventData() (json.RawMessage, bool, error) {
	return record.GetRaw(e.store, field.AdditionalEventData)
}

// EventID uniquely identifies the event.
func (e Event) EventID() (uuid.UUID, bool, error) {
	return record.GetUniqueID(e.store, field.EventID)
}

// ReadOnly reports whether the operation was read-only.
func (e Event) ReadOnly() (bool, bool, error) {
	return record.GetFlag(e.store, field.ReadOnly)
}

// Resources lists the resources accessed in the event, in the order they
// were recorded. The slice is a fresh copy.
func (e Event) Resources() ([]Resource, bool, error) {
	return record.GetSequence(e.store, field.Resources, NewResource)
}

// AccountID is the account that owns the event.
func (e Event) AccountID() (string, bool, error) {
	return record.GetText(e.store, field.AccountID)
}

// EventType is the type of event, e.g. AwsApiCall or AwsConsoleSignIn.
func (e Event) EventType() (string, bool, error) {
	return record.GetText(e.store, field.EventType)
}

// APIVersion is the API version associated with AwsApiCall events.
func (e Event) APIVersion() (string, bool, error) {
	return record.GetText(e.store, field.APIVersion)
}

// RecipientAccountID is the account that received the event.
func (e Event) RecipientAccountID() (string, bool, error) {
	return record.GetText(e.store, field.RecipientAccountID)
}
