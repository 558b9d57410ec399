package jwtx

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier validates a JWT and gives you back the claims if it's legit.
type Verifier interface {
	Verify(token string) (Claims, error)
}

var (
	ErrMalformed  = errors.New("jwtx: malformed token")
	ErrUnknownKID = errors.New("jwtx: unknown kid")
	ErrInvalidSig = errors.New("jwtx: invalid signature")

	ErrIssuer      = errors.New("jwtx: issuer mismatch")
	ErrAudience    = errors.New("jwtx: audience mismatch")
	ErrExpired     = errors.New("jwtx: token expired")
	ErrNotYetValid = errors.New("jwtx: token not yet valid")
)

// HS256Verifier validates tokens signed with a shared secret. Dev-mode
// only; production verifies against the IdP's JWKS instead.
type HS256Verifier struct {
	secret   []byte
	issuer   string
	audience []string
}

func NewHS256Verifier(secret []byte, issuer string, audience []string) *HS256Verifier {
	return &HS256Verifier{secret: secret, issuer: issuer, audience: audience}
}

func (v *HS256Verifier) Verify(tokenStr string) (Claims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return Claims{}, fmt.Errorf("jwtx: parse or verify: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return Claims{}, ErrMalformed
	}

	return validateCommon(*claims, v.issuer, v.audience)
}

// RS256Verifier validates tokens against the IdP's published JWKS.
type RS256Verifier struct {
	keys     *KeySet
	issuer   string
	audience []string
}

func NewRS256Verifier(keys *KeySet, issuer string, audience []string) *RS256Verifier {
	return &RS256Verifier{keys: keys, issuer: issuer, audience: audience}
}

func (v *RS256Verifier) Verify(tokenStr string) (Claims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}))

	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("jwtx: missing kid")
		}

		pub, err := v.keys.Get(kid)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrUnknownKID, kid)
		}
		return pub, nil
	})
	if err != nil {
		return Claims{}, fmt.Errorf("jwtx: parse or verify: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return Claims{}, ErrMalformed
	}

	return validateCommon(*claims, v.issuer, v.audience)
}

func validateCommon(c Claims, issuer string, audience []string) (Claims, error) {
	if err := c.ValidateIssuer(issuer); err != nil {
		return Claims{}, err
	}
	if err := c.ValidateAudience(audience); err != nil {
		return Claims{}, err
	}
	if err := c.ValidateExpiry(); err != nil {
		return Claims{}, err
	}
	return c, nil
}
