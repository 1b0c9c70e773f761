package server

import (
	"crypto/subtle"
	"net/http"
	"strings"

	apperr "aspingest/pkg/errors"
)

// AuthVerifier verifies that a cron trigger request is authorized. The trust
// boundary lives here, in-process, instead of being delegated to the
// hosting platform.
type AuthVerifier interface {
	Verify(r *http.Request) error
}

// BearerVerifier checks the Authorization bearer token against a configured
// secret using a constant-time comparison.
type BearerVerifier struct {
	token string
}

// NewBearerVerifier creates a bearer-token verifier.
func NewBearerVerifier(token string) *BearerVerifier {
	return &BearerVerifier{token: token}
}

// Verify implements AuthVerifier
func (v *BearerVerifier) Verify(r *http.Request) error {
	h := r.Header.Get("Authorization")
	if h == "" || !strings.HasPrefix(strings.ToLower(h), "bearer ") {
		return apperr.NewAuth("missing bearer token")
	}
	raw := strings.TrimSpace(h[len("Bearer "):])
	if v.token == "" || subtle.ConstantTimeCompare([]byte(raw), []byte(v.token)) != 1 {
		return apperr.NewAuth("invalid bearer token")
	}
	return nil
}

// DevSecretVerifier accepts a shared secret header. Only wired up outside
// production.
type DevSecretVerifier struct {
	secret string
}

// NewDevSecretVerifier creates a shared-secret header verifier.
func NewDevSecretVerifier(secret string) *DevSecretVerifier {
	return &DevSecretVerifier{secret: secret}
}

// Verify implements AuthVerifier
func (v *DevSecretVerifier) Verify(r *http.Request) error {
	raw := r.Header.Get("X-Cron-Secret")
	if raw == "" || v.secret == "" || subtle.ConstantTimeCompare([]byte(raw), []byte(v.secret)) != 1 {
		return apperr.NewAuth("invalid cron secret")
	}
	return nil
}

// AnyVerifier accepts a request that passes any of its verifiers.
type AnyVerifier struct {
	verifiers []AuthVerifier
}

// NewAnyVerifier combines verifiers.
func NewAnyVerifier(verifiers ...AuthVerifier) *AnyVerifier {
	return &AnyVerifier{verifiers: verifiers}
}

// Verify implements AuthVerifier
func (v *AnyVerifier) Verify(r *http.Request) error {
	var lastErr error
	for _, verifier := range v.verifiers {
		if err := verifier.Verify(r); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}
	if lastErr == nil {
		lastErr = apperr.NewAuth("no verifier configured")
	}
	return lastErr
}
