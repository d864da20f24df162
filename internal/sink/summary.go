// Package sink persists finished events for downstream consumers.
package sink

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"trailview/pkg/cloudtrail"
)

// Summary is the flattened projection of an event that sinks persist. The
// full document travels along in Raw.
type Summary struct {
	EventID        uuid.UUID
	EventTime      time.Time
	EventName      string
	EventSource    string
	AWSRegion      string
	SourceIP       string
	UserAgent      string
	ErrorCode      string
	ReadOnly       bool
	AccountID      string
	ActorType      string
	ActorARN       string
	ActorUserName  string
	ActorAccountID string
	ResourceARNs   []string
	UnknownFields  []string
	Raw            json.RawMessage
}

// Summarize projects ev into a Summary. Events without an eventID get a
// deterministic name-based UUID derived from raw. Any type mismatch found
// while reading is returned; the summary is not usable in that case.
func Summarize(ev cloudtrail.Event, raw json.RawMessage) (Summary, error) {
	var errs []error
	text := func(get func() (string, bool, error)) string {
		v, _, err := get()
		errs = append(errs, err)
		return v
	}

	s := Summary{
		EventName:   text(ev.EventName),
		EventSource: text(ev.EventSource),
		AWSRegion:   text(ev.AWSRegion),
		SourceIP:    text(ev.SourceIPAddress),
		UserAgent:   text(ev.UserAgent),
		ErrorCode:   text(ev.ErrorCode),
		AccountID:   text(ev.AccountID),
		Raw:         raw,
	}

	id, ok, err := ev.EventID()
	errs = append(errs, err)
	if !ok {
		id = uuid.NewSHA1(uuid.NameSpaceOID, raw)
	}
	s.EventID = id

	s.EventTime, _, err = ev.EventTime()
	errs = append(errs, err)

	s.ReadOnly, _, err = ev.ReadOnly()
	errs = append(errs, err)

	identity, ok, err := ev.UserIdentity()
	errs = append(errs, err)
	if ok {
		s.ActorType = text(identity.Type)
		s.ActorARN = text(identity.ARN)
		s.ActorUserName = text(identity.UserName)
		s.ActorAccountID = text(identity.AccountID)
	}

	resources, _, err := ev.Resources()
	errs = append(errs, err)
	for _, r := range resources {
		if arn := text(r.ARN); arn != "" {
			s.ResourceARNs = append(s.ResourceARNs, arn)
		}
	}

	for _, f := range ev.UnknownFields() {
		s.UnknownFields = append(s.UnknownFields, f.String())
	}

	if err := errors.Join(errs...); err != nil {
		return Summary{}, err
	}
	return s, nil
}
