package cloudtrail

import (
	"encoding/json"
	"time"

	"trailview/pkg/record"
	"trailview/pkg/record/field"
)

// SessionContext is present when the caller used temporary credentials.
type SessionContext struct {
	store *record.Store
}

// NewSessionContext wraps a sealed sessionContext store.
func NewSessionContext(s *record.Store) SessionContext {
	return SessionContext{store: s}
}

// Attributes holds the session's creation time and MFA state.
func (c SessionContext) Attributes() (SessionAttributes, bool, error) {
	return record.GetNested(c.store, field.Attributes, NewSessionAttributes)
}

// SessionIssuer is the entity that issued the temporary credentials.
func (c SessionContext) SessionIssuer() (SessionIssuer, bool, error) {
	return record.GetNested(c.store, field.SessionIssuer, NewSessionIssuer)
}

// WebIdentityFederation is set for sessions obtained through AssumeRoleWithWebIdentity.
func (c SessionContext) WebIdentityFederation() (WebIdentityFederation, bool, error) {
	return record.GetNested(c.store, field.WebIDFederationData, NewWebIdentityFederation)
}

// SessionAttributes describes when the session was created and whether MFA was used.
type SessionAttributes struct {
	store *record.Store
}

// NewSessionAttributes wraps a sealed attributes store.
func NewSessionAttributes(s *record.Store) SessionAttributes {
	return SessionAttributes{store: s}
}

// CreationDate is when the temporary credentials were issued, in UTC.
func (a SessionAttributes) CreationDate() (time.Time, bool, error) {
	return record.GetTimestamp(a.store, field.CreationDate)
}

// MFAAuthenticated reports whether the session was authenticated with MFA.
func (a SessionAttributes) MFAAuthenticated() (bool, bool, error) {
	return record.GetFlag(a.store, field.MFAAuthenticated)
}

// SessionIssuer mirrors the identity fields of the role or user that issued
// the session.
type SessionIssuer struct {
	store *record.Store
}

// NewSessionIssuer wraps a sealed sessionIssuer store.
func NewSessionIssuer(s *record.Store) SessionIssuer {
	return SessionIssuer{store: s}
}

// Type is the issuer kind, usually Role.
func (s SessionIssuer) Type() (string, bool, error) {
	return record.GetText(s.store, field.Type)
}

// PrincipalID is the issuer's internal principal identifier.
func (s SessionIssuer) PrincipalID() (string, bool, error) {
	return record.GetText(s.store, field.PrincipalID)
}

// ARN is the issuer's ARN, read from the lowercase arn field.
func (s SessionIssuer) ARN() (string, bool, error) {
	return record.GetText(s.store, field.Arn)
}

// AccountID is the account that owns the issuer.
func (s SessionIssuer) AccountID() (string, bool, error) {
	return record.GetText(s.store, field.AccountID)
}

// UserName is the issuer's friendly name.
func (s SessionIssuer) UserName() (string, bool, error) {
	return record.GetText(s.store, field.UserName)
}

// WebIdentityFederation names the external identity provider.
type WebIdentityFederation struct {
	store *record.Store
}

// NewWebIdentityFederation wraps a sealed webIdFederationData store.
func NewWebIdentityFederation(s *record.Store) WebIdentityFederation {
	return WebIdentityFederation{store: s}
}

// FederatedProvider is the provider name, e.g. accounts.google.com.
func (w WebIdentityFederation) FederatedProvider() (string, bool, error) {
	return record.GetText(w.store, field.FederatedProvider)
}

// Attributes carries provider-specific claims as raw JSON.
func (w WebIdentityFederation) Attributes() (json.RawMessage, bool, error) {
	return record.GetRaw(w.store, field.Attributes)
}
