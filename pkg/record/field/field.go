// Package field defines the vocabulary used to address values in a record store.
//
// Names are the exact keys that appear in CloudTrail documents, so they are
// case-sensitive: ARN (resource) and Arn (identity) are different fields.
// Each record kind restricts itself to its own Set, which keeps the kinds from
// evolving in lockstep when one of them gains a field.
package field

import "sort"

// Name identifies one field within a single record store.
type Name string

// String returns the wire key.
func (n Name) String() string {
	return string(n)
}

// Envelope fields.
const (
	Records Name = "Records"
)

// Event-level fields.
const (
	EventVersion        Name = "eventVersion"
	UserIdentity        Name = "userIdentity"
	EventTime           Name = "eventTime"
	EventName           Name = "eventName"
	EventSource         Name = "eventSource"
	AWSRegion           Name = "awsRegion"
	SourceIPAddress     Name = "sourceIPAddress"
	UserAgent           Name = "userAgent"
	RequestID           Name = "requestID"
	ErrorCode           Name = "errorCode"
	ErrorMessage        Name = "errorMessage"
	RequestParameters   Name = "requestParameters"
	ResponseElements    Name = "responseElements"
	AdditionalEventData Name = "additionalEventData"
	EventID             Name = "eventID"
	ReadOnly            Name = "readOnly"
	Resources           Name = "resources"
	AccountID           Name = "accountId"
	EventType           Name = "eventType"
	APIVersion          Name = "apiVersion"
	RecipientAccountID  Name = "recipientAccountId"
)

// Identity-level fields. AccountID and Type are shared by name with other
// kinds but live in the identity's own store.
const (
	Type                Name = "type"
	PrincipalID         Name = "principalId"
	Arn                 Name = "arn"
	AccessKeyID         Name = "accessKeyId"
	UserName            Name = "userName"
	SessionContext      Name = "sessionContext"
	InvokedBy           Name = "invokedBy"
	WebIDFederationData Name = "webIdFederationData"
	FederatedProvider   Name = "federatedProvider"
	Attributes          Name = "attributes"
	SessionIssuer       Name = "sessionIssuer"
	CreationDate        Name = "creationDate"
	MFAAuthenticated    Name = "mfaAuthenticated"
)

// Resource-level fields.
const (
	ARN Name = "ARN"
)

// Set is an immutable group of field names valid for one record kind.
type Set struct {
	names map[Name]struct{}
}

// NewSet builds a Set from the given names. Duplicates are collapsed.
func NewSet(names ...Name) Set {
	m := make(map[Name]struct{}, len(names))
	for _, n := range names {
		m[n] = struct{}{}
	}
	return Set{names: m}
}

// Contains reports whether n belongs to the set.
func (s Set) Contains(n Name) bool {
	_, ok := s.names[n]
	return ok
}

// Len returns the number of names in the set.
func (s Set) Len() int {
	return len(s.names)
}

// Names returns the members in lexical order.
func (s Set) Names() []Name {
	out := make([]Name, 0, len(s.names))
	for n := range s.names {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Extend returns a new Set containing the receiver's names plus extra.
// The receiver is left untouched.
func (s Set) Extend(extra ...Name) Set {
	names := s.Names()
	return NewSet(append(names, extra...)...)
}

// Unknown returns the entries of names that are not part of the set,
// preserving their order.
func (s Set) Unknown(names []Name) []Name {
	var out []Name
	for _, n := range names {
		if !s.Contains(n) {
			out = append(out, n)
		}
	}
	return out
}

// Schemas per record kind.
var (
	EventFields = NewSet(
		EventVersion, UserIdentity, EventTime, EventName, EventSource,
		AWSRegion, SourceIPAddress, UserAgent, RequestID, ErrorCode,
		ErrorMessage, RequestParameters, ResponseElements, AdditionalEventData,
		EventID, ReadOnly, Resources, AccountID, EventType, APIVersion,
		RecipientAccountID,
	)

	IdentityFields = NewSet(
		Type, PrincipalID, Arn, AccountID, AccessKeyID, UserName,
		SessionContext, InvokedBy, WebIDFederationData,
	)

	ResourceFields = NewSet(Type, ARN, AccountID)

	SessionContextFields = NewSet(Attributes, SessionIssuer, WebIDFederationData)

	SessionAttributeFields = NewSet(CreationDate, MFAAuthenticated)

	SessionIssuerFields = NewSet(Type, PrincipalID, Arn, AccountID, UserName)

	WebIdentityFederationFields = NewSet(FederatedProvider, Attributes)
)
