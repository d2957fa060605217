package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pgnest/pgnest/internal/auth/service"
	"github.com/pgnest/pgnest/pkg/authsdk"
	"github.com/pgnest/pgnest/pkg/httpx"
	"github.com/pgnest/pgnest/pkg/slogx"
)

type MFACompleteHandler struct {
	TokenService *service.TokenService
}

// ServeHTTP godoc
//
//	@Summary		MFA Completion Endpoint
//	@Description	Completes a pending MFA challenge with a TOTP code or a backup code and returns the token pair.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.MFARequest	true	"MFA challenge token, method and code"
//	@Success		200		{object}	httpx.SuccessEnvelope{data=authsdk.TokenResponse}
//	@Failure		400		{object}	httpx.ErrorEnvelope
//	@Failure		401		{object}	httpx.ErrorEnvelope
//	@Failure		429		{object}	httpx.ErrorEnvelope	"too many failed attempts"
//	@Router			/v1/auth/mfa [post].
func (h *MFACompleteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req authsdk.MFARequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeInvalidRequest, "Invalid JSON body")
		return
	}
	if req.MFAToken == "" || req.Method == "" || req.Code == "" {
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeInvalidRequest, "mfaToken, method and code are required")
		return
	}

	pair, err := h.TokenService.CompleteMFA(ctx, req.MFAToken, req.Method, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidMFASession):
			httpx.WriteError(w, http.StatusUnauthorized, httpx.CodeInvalidToken, "MFA session not found or expired")
		case errors.Is(err, service.ErrInvalidCode):
			httpx.WriteError(w, http.StatusUnauthorized, httpx.CodeInvalidCode, "Invalid verification code")
		case errors.Is(err, service.ErrTooManyAttempts):
			httpx.WriteError(w, http.StatusTooManyRequests, httpx.CodeRateLimited, "Too many failed attempts")
		case errors.Is(err, service.ErrAccountDisabled):
			httpx.WriteError(w, http.StatusForbidden, httpx.CodeAccountDisabled, "Account is disabled")
		default:
			log.Error("MFA completion failed", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, httpx.CodeServerError, "MFA completion failed")
		}
		return
	}

	httpx.WriteSuccess(w, http.StatusOK, tokenResponse(pair))
}
