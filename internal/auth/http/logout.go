package http

import (
	"encoding/json"
	"net/http"

	"github.com/pgnest/pgnest/internal/auth/service"
	"github.com/pgnest/pgnest/pkg/authsdk"
	"github.com/pgnest/pgnest/pkg/httpx"
	"github.com/pgnest/pgnest/pkg/slogx"
)

type LogoutHandler struct {
	TokenService *service.TokenService
}

// ServeHTTP godoc
//
//	@Summary		Logout Endpoint
//	@Description	Revokes the presented refresh token. Idempotent: revoking an unknown or already
//	@Description	revoked token still returns 204.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body	authsdk.LogoutRequest	true	"Refresh token to revoke"
//	@Success		204		"revoked"
//	@Failure		400		{object}	httpx.ErrorEnvelope
//	@Router			/v1/auth/logout [post].
func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req authsdk.LogoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeInvalidRequest, "Invalid JSON body")
		return
	}
	if req.RefreshToken == "" {
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeInvalidRequest, "refreshToken is required")
		return
	}

	if err := h.TokenService.RevokeRefreshToken(ctx, req.RefreshToken); err != nil {
		log.Error("logout failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, httpx.CodeServerError, "Logout failed")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
