package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/pgnest/pgnest/internal/auth/domain"
	"github.com/pgnest/pgnest/internal/auth/service"
	"github.com/pgnest/pgnest/pkg/authsdk"
	"github.com/pgnest/pgnest/pkg/httpx"
	"github.com/pgnest/pgnest/pkg/slogx"
)

type OnboardingMintHandler struct {
	OnboardingService *service.OnboardingService
	UserService       *service.UserService
}

// ServeHTTP godoc
//
//	@Summary		Onboarding Token Mint Endpoint
//	@Description	Mints an onboarding token bound to a branch and a role. The raw token is returned
//	@Description	once; the dashboard renders it as a QR code. Staff-role tokens require a superadmin.
//	@Tags			Onboarding
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.OnboardingMintRequest	true	"Mint request"
//	@Success		201		{object}	httpx.SuccessEnvelope{data=authsdk.OnboardingMintResponse}
//	@Failure		400		{object}	httpx.ErrorEnvelope
//	@Failure		401		{object}	httpx.ErrorEnvelope
//	@Failure		403		{object}	httpx.ErrorEnvelope
//	@Security		BearerAuth
//	@Router			/v1/onboarding/tokens [post].
func (h *OnboardingMintHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID := httpx.UserIDFromCtx(ctx)
	if userID == "" {
		httpx.WriteError(w, http.StatusUnauthorized, httpx.CodeInvalidToken, "Authentication required")
		return
	}

	var req authsdk.OnboardingMintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeInvalidRequest, "Invalid JSON body")
		return
	}
	if req.BranchID == "" || req.Role == "" {
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeInvalidRequest, "branchId and role are required")
		return
	}

	role, err := domain.ParseRole(req.Role)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeInvalidRequest, "Unknown role")
		return
	}

	var ttl time.Duration
	if req.TTL != "" {
		ttl, err = time.ParseDuration(req.TTL)
		if err != nil || ttl <= 0 {
			httpx.WriteError(w, http.StatusBadRequest, httpx.CodeInvalidRequest, "ttl must be a positive duration string")
			return
		}
	}

	createdBy, err := h.UserService.GetUserByID(ctx, userID)
	if err != nil {
		log.Error("failed to load requester", "err", err, "user_id", userID)
		httpx.WriteError(w, http.StatusInternalServerError, httpx.CodeServerError, "Failed to mint token")
		return
	}

	token, expiresAt, err := h.OnboardingService.MintOnboardingToken(ctx, createdBy, req.BranchID, role, ttl, req.Reusable)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrStaffTokenForbidden):
			httpx.WriteError(w, http.StatusForbidden, httpx.CodeInsufficientRole, "Only superadmins may mint staff onboarding tokens")
		case errors.Is(err, service.ErrStaffTokenReusable):
			httpx.WriteError(w, http.StatusBadRequest, httpx.CodeInvalidRequest, "Staff onboarding tokens cannot be reusable")
		case errors.Is(err, service.ErrBranchNotFound):
			httpx.WriteError(w, http.StatusBadRequest, httpx.CodeInvalidRequest, "Branch not found")
		case errors.Is(err, domain.ErrUnknownRole):
			httpx.WriteError(w, http.StatusBadRequest, httpx.CodeInvalidRequest, "Unknown role")
		default:
			log.Error("failed to mint onboarding token", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, httpx.CodeServerError, "Failed to mint token")
		}
		return
	}

	httpx.WriteSuccess(w, http.StatusCreated, authsdk.OnboardingMintResponse{
		Token:     token,
		ExpiresAt: expiresAt,
	})
}
