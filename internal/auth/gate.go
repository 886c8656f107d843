package auth

import "github.com/asistencia-app/attendance-service/internal/domain"

// Decision is the outcome of a gate check.
type Decision int

const (
	Deny Decision = iota
	Admit
)

func (d Decision) String() string {
	if d == Admit {
		return "admit"
	}
	return "deny"
}

// Gate admits a credential to views that require a given role. Deny means the
// client should send the caller back to the login entry point.
type Gate struct {
	verifier *Verifier
}

// NewGate composes a gate over verifier.
func NewGate(verifier *Verifier) *Gate {
	return &Gate{verifier: verifier}
}

// Authorize admits the credential only when it verifies and its role equals required.
func (g *Gate) Authorize(credential string, required domain.Role) Decision {
	identity, err := g.verifier.Verify(credential)
	if err != nil {
		return Deny
	}
	if identity.Role != required {
		return Deny
	}
	return Admit
}
