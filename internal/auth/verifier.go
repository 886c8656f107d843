package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/asistencia-app/attendance-service/internal/domain"
)

// ErrInvalidCredential is returned for absent, malformed or role-less credentials.
var ErrInvalidCredential = errors.New("invalid credential")

// Identity is what a credential claims about its holder.
type Identity struct {
	Role    domain.Role
	Subject string
}

// Verifier reads the claims of a three-segment bearer credential without
// checking its signature or its header. It is a routing hint for clients, never an access
// control decision: the API re-verifies every privileged call with TokenManager.
type Verifier struct {
	parser *jwt.Parser
}

// NewVerifier builds a verifier. Padded base64 payloads are accepted.
func NewVerifier() *Verifier {
	return &Verifier{parser: jwt.NewParser(jwt.WithPaddingAllowed())}
}

// Verify decodes the credential's payload and extracts its role claim.
func (v *Verifier) Verify(credential string) (Identity, error) {
	credential = BearerValue(credential)
	if credential == "" {
		return Identity{}, fmt.Errorf("%w: missing", ErrInvalidCredential)
	}

	parts := strings.Split(credential, ".")
	if len(parts) != 3 {
		return Identity{}, fmt.Errorf("%w: expected 3 segments, got %d", ErrInvalidCredential, len(parts))
	}
	payload, err := v.parser.DecodeSegment(parts[1])
	if err != nil {
		return Identity{}, fmt.Errorf("%w: payload encoding: %v", ErrInvalidCredential, err)
	}
	var claims map[string]any
	if err := json.Unmarshal(payload, &claims); err != nil {
		return Identity{}, fmt.Errorf("%w: payload json: %v", ErrInvalidCredential, err)
	}

	rawRole, _ := claims["rol"].(string)
	role, ok := domain.ParseRole(rawRole)
	if !ok {
		return Identity{}, fmt.Errorf("%w: unrecognized role %v", ErrInvalidCredential, claims["rol"])
	}
	subject, _ := claims["sub"].(string)
	return Identity{Role: role, Subject: subject}, nil
}

// BearerValue strips an optional "Bearer " scheme from an Authorization value.
// The web client sends the raw token.
func BearerValue(header string) string {
	header = strings.TrimSpace(header)
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return header
}
