package cryptox

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
)

// GenerateEd25519Key generates a fresh Ed25519 keypair and returns the
// private key as PKCS8 PEM bytes.
func GenerateEd25519Key() ([]byte, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("cryptox: generate ed25519: %w", err)
	}
	return marshalPKCS8(priv)
}

// GenerateES256Key generates a fresh ECDSA P-256 keypair and returns the
// private key as PKCS8 PEM bytes.
func GenerateES256Key() ([]byte, error) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("cryptox: generate p256: %w", err)
	}
	return marshalPKCS8(priv)
}

// GenerateRSAKey generates an RSA keypair of the given size and returns the
// private key as PKCS8 PEM bytes. Bits must be at least 2048.
func GenerateRSAKey(bits int) ([]byte, error) {
	if bits < 2048 {
		return nil, fmt.Errorf("cryptox: rsa key size %d below minimum 2048", bits)
	}
	priv, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, fmt.Errorf("cryptox: generate rsa: %w", err)
	}
	return marshalPKCS8(priv)
}

func marshalPKCS8(priv any) ([]byte, error) {
	der, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return nil, fmt.Errorf("cryptox: marshal pkcs8: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), nil
}
