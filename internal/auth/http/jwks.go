package http

import (
	"net/http"

	"github.com/pgnest/pgnest/pkg/httpx"
	"github.com/pgnest/pgnest/pkg/jwtx"
)

// JWKSHandler exposes the JSON Web Key Set for public key discovery. Unlike
// the API endpoints, the body is the raw RFC 7517 document, not the response
// envelope, so standard JWKS clients can consume it.
//
//	@Summary		Get JWKS
//	@Description	Returns the JSON Web Key Set used to verify access tokens.
//	@Tags			well-known
//	@Produce		json
//	@Success		200	{object}	jwtx.JWKS	"The JSON Web Key Set"
//	@Router			/.well-known/jwks.json [get].
func JWKSHandler(keys *jwtx.KeySet) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, keys.PublicJWKS())
	}
}
