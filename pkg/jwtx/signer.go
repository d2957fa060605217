package jwtx

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Signer is our interface for anything that can sign JWTs.
type Signer interface {
	Alg() string
	KID() string
	Sign(Claims) (string, error)
	PublicJWK() JWK
	Validate() error
}

// NewSignerEdDSA creates an EdDSA signer from PEM bytes.
// Ed25519 keys must be in PKCS8 format.
func NewSignerEdDSA(kid string, pemKey []byte) (Signer, error) {
	key, err := parsePKCS8(pemKey)
	if err != nil {
		return nil, err
	}
	priv, ok := key.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("jwtx: not an Ed25519 private key")
	}
	return &eddsaSigner{kid: kid, key: priv, pub: priv.Public().(ed25519.PublicKey)}, nil
}

// NewSignerES256 creates an ES256 signer from PEM bytes.
// ECDSA P-256 keys must be in PKCS8 format.
func NewSignerES256(kid string, pemKey []byte) (Signer, error) {
	key, err := parsePKCS8(pemKey)
	if err != nil {
		return nil, err
	}
	priv, ok := key.(*ecdsa.PrivateKey)
	if !ok {
		return nil, errors.New("jwtx: not an ECDSA private key")
	}
	if priv.Curve != elliptic.P256() {
		return nil, errors.New("jwtx: ES256 requires a P-256 key")
	}
	return &es256Signer{kid: kid, key: priv}, nil
}

// NewSignerRS256 creates an RS256 signer from PEM bytes.
func NewSignerRS256(kid string, pemKey []byte) (Signer, error) {
	key, err := parsePKCS8(pemKey)
	if err != nil {
		return nil, err
	}
	priv, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.New("jwtx: not an RSA private key")
	}
	if priv.N.BitLen() < 2048 {
		return nil, errors.New("jwtx: RSA key must be at least 2048 bits")
	}
	return &rs256Signer{kid: kid, key: priv}, nil
}

// parsePKCS8 decodes a PEM block and parses the PKCS8 private key inside.
func parsePKCS8(pemKey []byte) (any, error) {
	block, _ := pem.Decode(pemKey)
	if block == nil {
		return nil, errors.New("jwtx: invalid PEM")
	}
	if block.Type != "PRIVATE KEY" {
		return nil, fmt.Errorf("jwtx: expected PRIVATE KEY, got %q (keys must be PKCS8)", block.Type)
	}
	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("jwtx: parse PKCS8: %w", err)
	}
	return key, nil
}

type eddsaSigner struct {
	kid string
	key ed25519.PrivateKey
	pub ed25519.PublicKey
}

func (s *eddsaSigner) Alg() string { return jwt.SigningMethodEdDSA.Alg() }
func (s *eddsaSigner) KID() string { return s.kid }

func (s *eddsaSigner) Sign(claims Claims) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	t.Header["kid"] = s.kid
	return t.SignedString(s.key)
}

func (s *eddsaSigner) PublicJWK() JWK {
	return NewEd25519JWK(s.kid, "sig", s.Alg(), s.pub)
}

func (s *eddsaSigner) Validate() error {
	if len(s.key) != ed25519.PrivateKeySize || len(s.pub) != ed25519.PublicKeySize {
		return errors.New("jwtx: invalid Ed25519 key size")
	}
	return nil
}

type es256Signer struct {
	kid string
	key *ecdsa.PrivateKey
}

func (s *es256Signer) Alg() string { return jwt.SigningMethodES256.Alg() }
func (s *es256Signer) KID() string { return s.kid }

func (s *es256Signer) Sign(claims Claims) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	t.Header["kid"] = s.kid
	return t.SignedString(s.key)
}

func (s *es256Signer) PublicJWK() JWK {
	return NewES256JWK(s.kid, "sig", s.Alg(), &s.key.PublicKey)
}

func (s *es256Signer) Validate() error {
	if s.key == nil || s.key.Curve != elliptic.P256() {
		return errors.New("jwtx: invalid ES256 key")
	}
	return nil
}

type rs256Signer struct {
	kid string
	key *rsa.PrivateKey
}

func (s *rs256Signer) Alg() string { return jwt.SigningMethodRS256.Alg() }
func (s *rs256Signer) KID() string { return s.kid }

func (s *rs256Signer) Sign(claims Claims) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	t.Header["kid"] = s.kid
	return t.SignedString(s.key)
}

func (s *rs256Signer) PublicJWK() JWK {
	return NewRSAJWK(s.kid, "sig", s.Alg(), &s.key.PublicKey)
}

func (s *rs256Signer) Validate() error {
	if s.key == nil {
		return errors.New("jwtx: nil RSA key")
	}
	return s.key.Validate()
}
