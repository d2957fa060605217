package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pgnest/pgnest/internal/auth/domain"
	"github.com/pgnest/pgnest/internal/auth/service"
	"github.com/pgnest/pgnest/pkg/authsdk"
	"github.com/pgnest/pgnest/pkg/httpx"
	"github.com/pgnest/pgnest/pkg/slogx"
)

type BootstrapHandler struct {
	BootstrapService *service.BootstrapService
}

// ServeHTTP godoc
//
//	@Summary		System Bootstrap Endpoint
//	@Description	One-time setup: creates the first branch and its superadmin account. Guarded by
//	@Description	the X-Bootstrap-Token header and refuses to run on a non-empty system.
//	@Tags			System
//	@Accept			json
//	@Produce		json
//	@Param			X-Bootstrap-Token	header		string					true	"Pre-configured bootstrap token"
//	@Param			request				body		authsdk.BootstrapRequest	true	"First branch and superadmin"
//	@Success		201					{object}	httpx.SuccessEnvelope{data=authsdk.BootstrapResponse}
//	@Failure		400					{object}	httpx.ErrorEnvelope
//	@Failure		401					{object}	httpx.ErrorEnvelope
//	@Failure		409					{object}	httpx.ErrorEnvelope	"already bootstrapped"
//	@Router			/v1/bootstrap [post].
func (h *BootstrapHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req authsdk.BootstrapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeInvalidRequest, "Invalid JSON body")
		return
	}
	if problems := req.Validate(); problems != nil {
		for field, problem := range problems {
			httpx.WriteError(w, http.StatusBadRequest, httpx.CodeInvalidRequest, field+": "+problem)
			return
		}
	}

	branchID, userID, err := h.BootstrapService.Bootstrap(ctx, r.Header.Get("X-Bootstrap-Token"), domain.BootstrapData{
		BranchName:    req.BranchName,
		BranchCode:    req.BranchCode,
		AdminEmail:    req.AdminEmail,
		AdminName:     req.AdminName,
		AdminPassword: req.AdminPassword,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBootstrapAlready):
			httpx.WriteError(w, http.StatusConflict, httpx.CodeInvalidRequest, "System is already bootstrapped")
		case errors.Is(err, service.ErrBootstrapUnauthorized):
			httpx.WriteError(w, http.StatusUnauthorized, httpx.CodeInvalidToken, "Invalid bootstrap token")
		case errors.Is(err, service.ErrBootstrapInvalid), errors.Is(err, service.ErrWeakPassword):
			httpx.WriteError(w, http.StatusBadRequest, httpx.CodeInvalidRequest, "Invalid bootstrap request")
		default:
			log.Error("bootstrap failed", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, httpx.CodeServerError, "Bootstrap failed")
		}
		return
	}

	httpx.WriteSuccess(w, http.StatusCreated, authsdk.BootstrapResponse{
		BranchID: branchID,
		UserID:   userID,
	})
}
