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
	ErrMalformed   = errors.New("jwtx: malformed token")
	ErrAlgMismatch = errors.New("jwtx: algorithm mismatch")
	ErrUnknownKID  = errors.New("jwtx: unknown kid")
	ErrInvalidSig  = errors.New("jwtx: invalid signature")

	ErrIssuer       = errors.New("jwtx: issuer mismatch")
	ErrExpired      = errors.New("jwtx: token expired")
	ErrNotYetValid  = errors.New("jwtx: token not yet valid")
	ErrInvalidClaim = errors.New("jwtx: invalid claims")
)

// keySetVerifier validates JWTs against a KeySet of public keys. The key
// is selected by the "kid" header and the signing method is pinned to a
// single expected algorithm.
type keySetVerifier struct {
	keys   *KeySet
	alg    string
	issuer string
}

// NewVerifier creates a Verifier for the given algorithm backed by a KeySet.
// Supported algorithms: EdDSA, ES256, RS256.
func NewVerifier(alg string, keys *KeySet, issuer string) (Verifier, error) {
	switch alg {
	case AlgorithmEdDSA, AlgorithmES256, AlgorithmRS256:
	default:
		return nil, fmt.Errorf("jwtx: unsupported algorithm %q", alg)
	}
	return &keySetVerifier{keys: keys, alg: alg, issuer: issuer}, nil
}

// Verify validates the JWT string and returns its parsed Claims.
func (v *keySetVerifier) Verify(tokenStr string) (Claims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{v.alg}))

	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		// Need the kid to know which key to use
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, ErrUnknownKID
		}
		pub, err := v.keys.Get(kid)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrUnknownKID, kid)
		}
		return pub, nil
	})
	if err != nil {
		return Claims{}, mapParseError(err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return Claims{}, ErrInvalidClaim
	}

	// Now check the claim requirements
	if err := claims.ValidateIssuer(v.issuer); err != nil {
		return Claims{}, err
	}
	if err := claims.ValidateExpiry(); err != nil {
		return Claims{}, err
	}

	return *claims, nil
}

// mapParseError folds the jwt library's error tree into our sentinels so
// callers can errors.Is against a stable set.
func mapParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrInvalidSig
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return ErrNotYetValid
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		if errors.Is(err, ErrUnknownKID) {
			return ErrUnknownKID
		}
		return ErrAlgMismatch
	default:
		return fmt.Errorf("jwtx: parse or verify: %w", err)
	}
}
