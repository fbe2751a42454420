package auth

import "testing"

func TestSessionClaims_UserID(t *testing.T) {
	c := &SessionClaims{}
	c.Subject = "user-123"
	if got := c.UserID(); got != "user-123" {
		t.Errorf("UserID() = %q, want %q", got, "user-123")
	}
}

func TestAllowedAlgorithms_OnlyAsymmetric(t *testing.T) {
	cases := map[string]bool{
		"RS256": true,
		"ES256": true,
		"HS256": false,
		"none":  false,
		"":      false,
	}
	for alg, want := range cases {
		if got := allowedAlgorithms[alg]; got != want {
			t.Errorf("allowedAlgorithms[%q] = %v, want %v", alg, got, want)
		}
	}
}

func TestNewJWKSVerifier_RejectsEmptyURL(t *testing.T) {
	if _, err := NewJWKSVerifier(nil, "", nil); err == nil { //nolint:staticcheck // nil ctx intentionally exercises the validation guard before ctx is used
		t.Fatal("expected an error for an empty JWKS URL")
	}
}
