package authsdk

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/pgnest/pgnest/pkg/jwtx"
)

// GetJWKS retrieves the JSON Web Key Set for local token verification.
// The JWKS endpoint is served raw (RFC 7517 shape), not in the envelope.
func (c *SDKClient) GetJWKS(ctx context.Context) (*jwtx.JWKS, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url("/.well-known/jwks.json"), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("jwks request failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var jwks jwtx.JWKS
	if err := json.NewDecoder(resp.Body).Decode(&jwks); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &jwks, nil
}

// NewKeySet fetches the JWKS and loads it into a jwtx.KeySet, ready for a
// resource service to verify access tokens locally.
func (c *SDKClient) NewKeySet(ctx context.Context) (*jwtx.KeySet, error) {
	jwks, err := c.GetJWKS(ctx)
	if err != nil {
		return nil, err
	}

	keys := jwtx.NewKeySet()
	if err := keys.ResetFromJWKS(*jwks); err != nil {
		return nil, err
	}
	return keys, nil
}
