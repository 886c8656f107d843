package auth

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asistencia-app/attendance-service/internal/domain"
)

const hs256Header = `{"alg":"HS256","typ":"JWT"}`

func segment(s string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(s))
}

func unsignedToken(header, payload string) string {
	return segment(header) + "." + segment(payload) + ".c2lnbmF0dXJl"
}

func TestVerifier_Verify(t *testing.T) {
	v := NewVerifier()

	tests := []struct {
		name       string
		credential string
		wantRole   domain.Role
		wantErr    bool
	}{
		{name: "standard role", credential: unsignedToken(hs256Header, `{"rol":"user","sub":"u-1"}`), wantRole: domain.RoleStandard},
		{name: "admin role with bearer prefix", credential: "Bearer " + unsignedToken(hs256Header, `{"rol":"admin"}`), wantRole: domain.RoleAdmin},
		{name: "padded payload", credential: segment(hs256Header) + "." + base64.URLEncoding.EncodeToString([]byte(`{"rol":"user"}`)) + ".sig", wantRole: domain.RoleStandard},
		{name: "empty", credential: "", wantErr: true},
		{name: "two segments", credential: segment(hs256Header) + "." + segment(`{"rol":"user"}`), wantErr: true},
		{name: "undecodable payload", credential: segment(hs256Header) + ".@@@.sig", wantErr: true},
		{name: "non json payload", credential: unsignedToken(hs256Header, `rol=user`), wantErr: true},
		{name: "missing role", credential: unsignedToken(hs256Header, `{"sub":"u-1"}`), wantErr: true},
		{name: "unknown role", credential: unsignedToken(hs256Header, `{"rol":"root"}`), wantErr: true},
		{name: "empty header object", credential: unsignedToken(`{}`, `{"rol":"admin","sub":"u1"}`), wantRole: domain.RoleAdmin},
		{name: "unregistered alg", credential: unsignedToken(`{"alg":"ES256K","typ":"JWT"}`, `{"rol":"admin","sub":"u1"}`), wantRole: domain.RoleAdmin},
		{name: "header is not inspected", credential: "@@@." + segment(`{"rol":"user"}`) + ".sig", wantRole: domain.RoleStandard},
		{name: "four segments", credential: unsignedToken(hs256Header, `{"rol":"user"}`) + ".extra", wantErr: true},
		{name: "payload is a json array", credential: unsignedToken(hs256Header, `["admin"]`), wantErr: true},
		{name: "role is not a string", credential: unsignedToken(hs256Header, `{"rol":1}`), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			identity, err := v.Verify(tt.credential)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidCredential)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantRole, identity.Role)
		})
	}
}

func TestVerifier_ReadsIssuedTokens(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	token, _, err := tm.GenerateToken(&domain.User{ID: "u-9", FullName: "Ana", Role: domain.RoleAdmin})
	require.NoError(t, err)

	identity, err := NewVerifier().Verify(token)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, identity.Role)
	assert.Equal(t, "u-9", identity.Subject)
}

func TestGate_Authorize(t *testing.T) {
	gate := NewGate(NewVerifier())
	userToken := unsignedToken(hs256Header, `{"rol":"user"}`)
	adminToken := unsignedToken(hs256Header, `{"rol":"admin"}`)

	assert.Equal(t, Admit, gate.Authorize(userToken, domain.RoleStandard))
	assert.Equal(t, Deny, gate.Authorize(userToken, domain.RoleAdmin))
	assert.Equal(t, Admit, gate.Authorize(adminToken, domain.RoleAdmin))
	assert.Equal(t, Deny, gate.Authorize(adminToken, domain.RoleStandard))
	assert.Equal(t, Deny, gate.Authorize("garbage", domain.RoleStandard))
	assert.Equal(t, Admit, gate.Authorize(unsignedToken(`{"alg":"ES256K"}`, `{"rol":"admin"}`), domain.RoleAdmin),
		"signing algorithms unknown to the service do not affect the decision")
	assert.Equal(t, "deny", Deny.String())
	assert.Equal(t, "admit", Admit.String())
}

func TestBearerValue(t *testing.T) {
	assert.Equal(t, "abc", BearerValue("Bearer abc"))
	assert.Equal(t, "abc", BearerValue("bearer  abc "))
	assert.Equal(t, "abc", BearerValue("abc"))
	assert.Equal(t, "", BearerValue("  "))
}
