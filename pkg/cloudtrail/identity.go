package cloudtrail

import (
	"trailview/pkg/record"
	"trailview/pkg/record/field"
)

// Identity is the userIdentity record of an event.
type Identity struct {
	store *record.Store
}

// NewIdentity wraps a sealed store as an Identity.
func NewIdentity(s *record.Store) Identity {
	return Identity{store: s}
}

// UnknownFields lists stored keys that have no accessor on Identity.
func (i Identity) UnknownFields() []field.Name {
	return field.IdentityFields.Unknown(i.store.Fields())
}

// Type is the identity type, e.g. IAMUser, AssumedRole or AWSService.
func (i Identity) Type() (string, bool, error) {
	return record.GetText(i.store, field.Type)
}

// PrincipalID is the unique identifier of the calling entity.
func (i Identity) PrincipalID() (string, bool, error) {
	return record.GetText(i.store, field.PrincipalID)
}

// ARN is the Amazon Resource Name of the calling principal.
func (i Identity) ARN() (string, bool, error) {
	return record.GetText(i.store, field.Arn)
}

// AccountID is the account that owns the calling principal. It is scoped to
// this identity and independent of the event's own accountId.
func (i Identity) AccountID() (string, bool, error) {
	return record.GetText(i.store, field.AccountID)
}

// AccessKeyID is the access key used to sign the request.
func (i Identity) AccessKeyID() (string, bool, error) {
	return record.GetText(i.store, field.AccessKeyID)
}

// UserName is the friendly name of the calling identity.
func (i Identity) UserName() (string, bool, error) {
	return record.GetText(i.store, field.UserName)
}

// SessionContext describes temporary credentials, if any were used.
func (i Identity) SessionContext() (SessionContext, bool, error) {
	return record.GetNested(i.store, field.SessionContext, NewSessionContext)
}

// InvokedBy names the AWS service that made the request on the caller's behalf.
func (i Identity) InvokedBy() (string, bool, error) {
	return record.GetText(i.store, field.InvokedBy)
}

// WebIdentityFederation describes the identity provider for web identity
// federated callers.
func (i Identity) WebIdentityFederation() (WebIdentityFederation, bool, error) {
	return record.GetNested(i.store, field.WebIDFederationData, NewWebIdentityFederation)
}
