package jwtx

import (
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/pgnest/pgnest/pkg/cryptox"
)

// Supported JWT signing algorithms
const (
	AlgorithmRS256 = "RS256"
	AlgorithmES256 = "ES256"
	AlgorithmEdDSA = "EdDSA"
)

// KeyManager owns the signing and verification keys for an instance.
// It wires together key generation (cryptox), signing/verification and
// the KeySet used for JWKS publishing.
//
// Multiple signing keys are kept live at once and picked randomly per
// signing call, so rotating a key never drops in-flight verification.
type KeyManager struct {
	Verifier Verifier
	KeySet   *KeySet

	algorithm string
	signers   []Signer
	mu        sync.RWMutex
}

// KeyManagerOptions configures the KeyManager.
type KeyManagerOptions struct {
	// Algorithm selects the signing algorithm: "RS256", "ES256" or "EdDSA".
	Algorithm string

	// Issuer is the issuer claim (iss) stamped into and validated on tokens.
	Issuer string

	// RSABits is the RSA key size for RS256. Defaults to 4096.
	// Must be at least 2048.
	RSABits int

	// NumKeys is how many signing keys to generate. Defaults to 3,
	// clamped to [1, 10].
	NumKeys int
}

// NewEphemeralKeyManager creates a KeyManager with in-memory keys that are
// never persisted. All issued tokens become invalid when the service
// restarts, which doubles as stateless key rotation.
func NewEphemeralKeyManager(opts KeyManagerOptions) (*KeyManager, error) {
	if opts.Issuer == "" {
		return nil, fmt.Errorf("jwtx: Issuer is required")
	}

	numKeys := opts.NumKeys
	if numKeys <= 0 {
		numKeys = 3
	}
	if numKeys > 10 {
		numKeys = 10
	}

	keyset := NewKeySet()
	signers := make([]Signer, 0, numKeys)

	for i := 0; i < numKeys; i++ {
		kid, err := newRandomKID()
		if err != nil {
			return nil, fmt.Errorf("jwtx: generate key ID: %w", err)
		}

		signer, err := generateSigner(opts.Algorithm, kid, opts.RSABits)
		if err != nil {
			return nil, fmt.Errorf("jwtx: generate signer %d: %w", i+1, err)
		}
		signers = append(signers, signer)

		if err := keyset.AddSigner(signer); err != nil {
			return nil, fmt.Errorf("jwtx: add signer %d to keyset: %w", i+1, err)
		}
	}

	verifier, err := NewVerifier(opts.Algorithm, keyset, opts.Issuer)
	if err != nil {
		return nil, err
	}

	return &KeyManager{
		Verifier:  verifier,
		KeySet:    keyset,
		algorithm: opts.Algorithm,
		signers:   signers,
	}, nil
}

// generateSigner creates a fresh keypair for the given algorithm.
func generateSigner(algorithm, kid string, rsaBits int) (Signer, error) {
	switch algorithm {
	case AlgorithmRS256:
		bits := rsaBits
		if bits == 0 {
			bits = 4096
		}
		pemBytes, err := cryptox.GenerateRSAKey(bits)
		if err != nil {
			return nil, fmt.Errorf("generate RS256 key: %w", err)
		}
		return NewSignerRS256(kid, pemBytes)

	case AlgorithmES256:
		pemBytes, err := cryptox.GenerateES256Key()
		if err != nil {
			return nil, fmt.Errorf("generate ES256 key: %w", err)
		}
		return NewSignerES256(kid, pemBytes)

	case AlgorithmEdDSA:
		pemBytes, err := cryptox.GenerateEd25519Key()
		if err != nil {
			return nil, fmt.Errorf("generate EdDSA key: %w", err)
		}
		return NewSignerEdDSA(kid, pemBytes)

	default:
		return nil, fmt.Errorf("unsupported algorithm %q (supported: RS256, ES256, EdDSA)", algorithm)
	}
}

// Algorithm returns the signing algorithm being used.
func (km *KeyManager) Algorithm() string {
	return km.algorithm
}

// IsReady returns true if the KeyManager has valid keys loaded.
func (km *KeyManager) IsReady() bool {
	return km.KeySet.IsReady()
}

// GetSigner returns a randomly selected signer to spread signing load
// across the active keys.
func (km *KeyManager) GetSigner() Signer {
	km.mu.RLock()
	defer km.mu.RUnlock()

	switch len(km.signers) {
	case 0:
		return nil
	case 1:
		return km.signers[0]
	default:
		return km.signers[rand.IntN(len(km.signers))]
	}
}

// NumSigners returns the number of active signing keys.
func (km *KeyManager) NumSigners() int {
	km.mu.RLock()
	defer km.mu.RUnlock()
	return len(km.signers)
}

// AddSigner registers a new signing key for both signing and verification.
// Safe for runtime key rotation.
func (km *KeyManager) AddSigner(signer Signer) error {
	if signer == nil {
		return fmt.Errorf("jwtx: signer cannot be nil")
	}

	km.mu.Lock()
	defer km.mu.Unlock()

	if err := km.KeySet.AddSigner(signer); err != nil {
		return fmt.Errorf("jwtx: add signer to keyset: %w", err)
	}
	km.signers = append(km.signers, signer)
	return nil
}

// RetireSignerByKid removes a key from active signing. The key stays in
// the KeySet so tokens signed with it keep verifying during the grace
// period. Refuses to retire the last key.
func (km *KeyManager) RetireSignerByKid(kid string) error {
	km.mu.Lock()
	defer km.mu.Unlock()

	if len(km.signers) <= 1 {
		return fmt.Errorf("jwtx: cannot retire the last signing key")
	}

	keep := make([]Signer, 0, len(km.signers)-1)
	found := false
	for _, s := range km.signers {
		if s.KID() == kid {
			found = true
			continue
		}
		keep = append(keep, s)
	}
	if !found {
		return fmt.Errorf("jwtx: signer with kid %q not found", kid)
	}

	km.signers = keep
	return nil
}

// newRandomKID creates a key identifier with 128 bits of entropy.
func newRandomKID() (string, error) {
	token, err := cryptox.GenerateToken(cryptox.TokenSize128)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("pgnest-%s", token), nil
}
