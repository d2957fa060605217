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

type LoginHandler struct {
	TokenService *service.TokenService
}

// ServeHTTP godoc
//
//	@Summary		Login Endpoint
//	@Description	Verifies an email/password pair and returns an access/refresh token pair.
//	@Description	Accounts with MFA enabled receive a 409 carrying an MFA challenge token instead of tokens.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.LoginRequest	true	"Login credentials"
//	@Success		200		{object}	httpx.SuccessEnvelope{data=authsdk.TokenResponse}
//	@Failure		400		{object}	httpx.ErrorEnvelope
//	@Failure		401		{object}	httpx.ErrorEnvelope
//	@Failure		403		{object}	httpx.ErrorEnvelope
//	@Failure		409		{object}	httpx.ErrorDataEnvelope	"MFA challenge"
//	@Router			/v1/auth/login [post].
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req authsdk.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeInvalidRequest, "Invalid JSON body")
		return
	}
	if req.Email == "" || req.Password == "" {
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeInvalidRequest, "email and password are required")
		return
	}

	pair, err := h.TokenService.Login(ctx, req.Email, req.Password)
	if err != nil {
		var challenge *service.MFARequiredError
		switch {
		case errors.As(err, &challenge):
			httpx.WriteErrorData(w, http.StatusConflict, httpx.CodeMFARequired,
				"Multi-factor verification required", challenge)
		case errors.Is(err, service.ErrInvalidCredentials):
			httpx.WriteError(w, http.StatusUnauthorized, httpx.CodeInvalidCredentials, "Invalid email or password")
		case errors.Is(err, service.ErrAccountDisabled):
			httpx.WriteError(w, http.StatusForbidden, httpx.CodeAccountDisabled, "Account is disabled")
		default:
			log.Error("login failed", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, httpx.CodeServerError, "Login failed")
		}
		return
	}

	httpx.WriteSuccess(w, http.StatusOK, tokenResponse(pair))
}
