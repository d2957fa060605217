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

type ChangePasswordHandler struct {
	UserService *service.UserService
}

// ServeHTTP godoc
//
//	@Summary		Password Change Endpoint
//	@Description	Changes the authenticated user's password after verifying the current one.
//	@Description	Every refresh token the user holds is revoked; other devices must log in again.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body	authsdk.ChangePasswordRequest	true	"Current and new password"
//	@Success		204		"password changed"
//	@Failure		400		{object}	httpx.ErrorEnvelope
//	@Failure		401		{object}	httpx.ErrorEnvelope
//	@Security		BearerAuth
//	@Router			/v1/auth/password [post].
func (h *ChangePasswordHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID := httpx.UserIDFromCtx(ctx)
	if userID == "" {
		httpx.WriteError(w, http.StatusUnauthorized, httpx.CodeInvalidToken, "Authentication required")
		return
	}

	var req authsdk.ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeInvalidRequest, "Invalid JSON body")
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeInvalidRequest, "currentPassword and newPassword are required")
		return
	}

	err := h.UserService.ChangePassword(ctx, userID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrWrongPassword):
			httpx.WriteError(w, http.StatusUnauthorized, httpx.CodeInvalidCredentials, "Current password is incorrect")
		case errors.Is(err, service.ErrWeakPassword):
			httpx.WriteError(w, http.StatusBadRequest, httpx.CodeInvalidRequest, "New password is too short")
		default:
			log.Error("password change failed", "err", err, "user_id", userID)
			httpx.WriteError(w, http.StatusInternalServerError, httpx.CodeServerError, "Password change failed")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
