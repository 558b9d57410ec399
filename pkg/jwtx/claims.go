// Package jwtx verifies bearer tokens issued by the external identity
// provider. The portal never mints tokens of its own; it only checks
// signatures, expiry, and the issuer, and lifts the claims it cares about
// (subject, display name, scopes) out of the token.
package jwtx

import (
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the access-token claims the portal understands. Additive
// changes only, to stay compatible with whatever else the IdP serves.
type Claims struct {
	jwt.RegisteredClaims

	// Permission scopes, e.g. "checkin:write admin:read" flattened into a list.
	Scopes []string `json:"scopes,omitempty"`

	// PreferredName is the display name for the authenticated user.
	PreferredName string `json:"preferred_name,omitempty"`
}

// ValidateIssuer checks if the issuer matches expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil // nothing to enforce
	}
	if c.Issuer != expected {
		return ErrIssuer
	}
	return nil
}

// ValidateAudience checks if at least one expected audience is present.
func (c *Claims) ValidateAudience(expected []string) error {
	if len(expected) == 0 {
		return nil // nothing to enforce
	}
	for _, want := range expected {
		if slices.Contains(c.Audience, want) {
			return nil
		}
	}
	return ErrAudience
}

// ValidateExpiry ensures the token hasn't expired (exp) and isn't used
// before it becomes valid (nbf).
func (c *Claims) ValidateExpiry() error {
	now := time.Now().UTC()

	if c.ExpiresAt != nil && now.After(c.ExpiresAt.Time) {
		return ErrExpired
	}
	if c.NotBefore != nil && now.Before(c.NotBefore.Time) {
		return ErrNotYetValid
	}
	return nil
}
