package http

import (
	"net/http"

	"github.com/pgnest/pgnest/internal/auth/service"
	"github.com/pgnest/pgnest/pkg/authsdk"
	"github.com/pgnest/pgnest/pkg/httpx"
	"github.com/pgnest/pgnest/pkg/slogx"
)

type UsersHandler struct {
	UserService *service.UserService
}

// ServeHTTP godoc
//
//	@Summary		User Listing Endpoint
//	@Description	Lists users. Admins always see their own branch, whatever filter they pass;
//	@Description	superadmins may filter with ?branchId= or omit it to list everyone.
//	@Tags			Users
//	@Produce		json
//	@Param			branchId	query		string	false	"Branch filter (superadmin only)"
//	@Success		200			{object}	httpx.SuccessEnvelope{data=[]authsdk.User}
//	@Failure		401			{object}	httpx.ErrorEnvelope
//	@Failure		403			{object}	httpx.ErrorEnvelope
//	@Security		BearerAuth
//	@Router			/v1/users [get].
func (h *UsersHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID := httpx.UserIDFromCtx(ctx)
	if userID == "" {
		httpx.WriteError(w, http.StatusUnauthorized, httpx.CodeInvalidToken, "Authentication required")
		return
	}

	requester, err := h.UserService.GetUserByID(ctx, userID)
	if err != nil {
		log.Error("failed to load requester", "err", err, "user_id", userID)
		httpx.WriteError(w, http.StatusInternalServerError, httpx.CodeServerError, "Failed to list users")
		return
	}

	snapshots, err := h.UserService.ListUsers(ctx, requester, r.URL.Query().Get("branchId"))
	if err != nil {
		log.Error("failed to list users", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, httpx.CodeServerError, "Failed to list users")
		return
	}

	users := make([]authsdk.User, 0, len(snapshots))
	for _, s := range snapshots {
		users = append(users, userResponse(s))
	}

	httpx.WriteSuccess(w, http.StatusOK, users)
}
