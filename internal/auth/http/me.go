package http

import (
	"net/http"

	"github.com/pgnest/pgnest/internal/auth/service"
	"github.com/pgnest/pgnest/pkg/httpx"
	"github.com/pgnest/pgnest/pkg/slogx"
)

type MeHandler struct {
	UserService *service.UserService
}

// ServeHTTP godoc
//
//	@Summary		Current User Endpoint
//	@Description	Returns the authenticated user's profile.
//	@Tags			Auth
//	@Produce		json
//	@Success		200	{object}	httpx.SuccessEnvelope{data=authsdk.User}
//	@Failure		401	{object}	httpx.ErrorEnvelope
//	@Security		BearerAuth
//	@Router			/v1/auth/me [get].
func (h *MeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID := httpx.UserIDFromCtx(ctx)
	if userID == "" {
		httpx.WriteError(w, http.StatusUnauthorized, httpx.CodeInvalidToken, "Authentication required")
		return
	}

	u, err := h.UserService.GetUserByID(ctx, userID)
	if err != nil {
		log.Error("failed to load user", "err", err, "user_id", userID)
		httpx.WriteError(w, http.StatusInternalServerError, httpx.CodeServerError, "Failed to load user")
		return
	}

	resp := userResponse(u.Snapshot())
	resp.LastSeenAt = u.LastSeenAt
	httpx.WriteSuccess(w, http.StatusOK, resp)
}
