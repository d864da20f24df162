package cloudtrail_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trailview/pkg/cloudtrail"
	"trailview/pkg/record"
)

func assumedRoleIdentity(t *testing.T) cloudtrail.Identity {
	t.Helper()
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	ev, err := cloudtrail.EventFromMap(map[string]any{
		"userIdentity": map[string]any{
			"type":        "AssumedRole",
			"principalId": "AROAEXAMPLE:session",
			"arn":         "arn:aws:sts::123456789012:assumed-role/Admin/session",
			"accountId":   "123456789012",
			"accessKeyId": "ASIAEXAMPLE",
			"invokedBy":   "cloudformation.amazonaws.com",
			"sessionContext": map[string]any{
				"attributes": map[string]any{
					"creationDate":     created,
					"mfaAuthenticated": false,
				},
				"sessionIssuer": map[string]any{
					"type":        "Role",
					"principalId": "AROAEXAMPLE",
					"arn":         "arn:aws:iam::123456789012:role/Admin",
					"accountId":   "123456789012",
					"userName":    "Admin",
				},
			},
			"webIdFederationData": map[string]any{
				"federatedProvider": "accounts.google.com",
				"attributes":        json.RawMessage(`{"accounts.google.com:aud":"app"}`),
			},
		},
	})
	require.NoError(t, err)
	identity, ok, err := ev.UserIdentity()
	require.NoError(t, err)
	require.True(t, ok)
	return identity
}

func TestIdentityAccessors(t *testing.T) {
	identity := assumedRoleIdentity(t)

	text := map[string]func() (string, bool, error){
		"AssumedRole":         identity.Type,
		"AROAEXAMPLE:session": identity.PrincipalID,
		"arn:aws:sts::123456789012:assumed-role/Admin/session": identity.ARN,
		"123456789012":                 identity.AccountID,
		"ASIAEXAMPLE":                  identity.AccessKeyID,
		"cloudformation.amazonaws.com": identity.InvokedBy,
	}
	for want, get := range text {
		got, ok, err := get()
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, want, got)
	}

	_, ok, err := identity.UserName()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSessionContext(t *testing.T) {
	identity := assumedRoleIdentity(t)

	sc, ok, err := identity.SessionContext()
	require.NoError(t, err)
	require.True(t, ok)

	attrs, ok, err := sc.Attributes()
	require.NoError(t, err)
	require.True(t, ok)
	created, _, err := attrs.CreationDate()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), created)
	mfa, ok, err := attrs.MFAAuthenticated()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, mfa)

	issuer, ok, err := sc.SessionIssuer()
	require.NoError(t, err)
	require.True(t, ok)
	name, _, _ := issuer.UserName()
	assert.Equal(t, "Admin", name)
	typ, _, _ := issuer.Type()
	assert.Equal(t, "Role", typ)
	arn, _, _ := issuer.ARN()
	assert.Equal(t, "arn:aws:iam::123456789012:role/Admin", arn)
	pid, _, _ := issuer.PrincipalID()
	assert.Equal(t, "AROAEXAMPLE", pid)
	acct, _, _ := issuer.AccountID()
	assert.Equal(t, "123456789012", acct)

	_, ok, err = sc.WebIdentityFederation()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWebIdentityFederation(t *testing.T) {
	identity := assumedRoleIdentity(t)

	fed, ok, err := identity.WebIdentityFederation()
	require.NoError(t, err)
	require.True(t, ok)
	provider, _, err := fed.FederatedProvider()
	require.NoError(t, err)
	assert.Equal(t, "accounts.google.com", provider)
	attrs, _, err := fed.Attributes()
	require.NoError(t, err)
	assert.JSONEq(t, `{"accounts.google.com:aud":"app"}`, string(attrs))
}

func TestSessionAttributesMismatch(t *testing.T) {
	ev, err := cloudtrail.EventFromMap(map[string]any{
		"userIdentity": map[string]any{
			"sessionContext": map[string]any{
				"attributes": map[string]any{"mfaAuthenticated": "false"},
			},
		},
	})
	require.NoError(t, err)
	identity, _, _ := ev.UserIdentity()
	sc, _, _ := identity.SessionContext()
	attrs, _, _ := sc.Attributes()

	_, ok, err := attrs.MFAAuthenticated()
	assert.True(t, ok)
	assert.ErrorIs(t, err, record.ErrTypeMismatch)
}

func TestClassifyUserAgent(t *testing.T) {
	t.Run("service principal", func(t *testing.T) {
		a := cloudtrail.ClassifyUserAgent("signin.amazonaws.com")
		assert.True(t, a.Service)
		assert.Empty(t, a.Browser)
	})

	t.Run("browser", func(t *testing.T) {
		a := cloudtrail.ClassifyUserAgent("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
		assert.False(t, a.Service)
		assert.Equal(t, "Chrome", a.Browser)
		assert.False(t, a.Mobile)
	})

	t.Run("event accessor", func(t *testing.T) {
		ev, err := cloudtrail.EventFromMap(map[string]any{"userAgent": "console.amazonaws.com"})
		require.NoError(t, err)
		a, ok, err := ev.Agent()
		require.NoError(t, err)
		assert.True(t, ok)
		assert.True(t, a.Service)
		assert.Equal(t, "console.amazonaws.com", a.Raw)
	})
}
