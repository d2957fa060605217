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

type OnboardingRedeemHandler struct {
	OnboardingService *service.OnboardingService
	TokenService      *service.TokenService
}

// ServeHTTP godoc
//
//	@Summary		Onboarding Redemption Endpoint
//	@Description	Redeems an onboarding token, creating the account against the token's branch and
//	@Description	role and returning a logged-in token pair. Unauthenticated: the token itself is
//	@Description	the authorization.
//	@Tags			Onboarding
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.OnboardingRedeemRequest	true	"Redemption request"
//	@Success		201		{object}	httpx.SuccessEnvelope{data=authsdk.TokenResponse}
//	@Failure		400		{object}	httpx.ErrorEnvelope
//	@Failure		404		{object}	httpx.ErrorEnvelope	"token unknown, expired, or used"
//	@Failure		409		{object}	httpx.ErrorEnvelope	"email already registered"
//	@Router			/v1/onboarding/redeem [post].
func (h *OnboardingRedeemHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req authsdk.OnboardingRedeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeInvalidRequest, "Invalid JSON body")
		return
	}

	user, err := h.OnboardingService.RedeemOnboardingToken(ctx, req.Token, req.Email, req.Name, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOnboardingTokenNotFound):
			httpx.WriteError(w, http.StatusNotFound, httpx.CodeInvalidToken, "Onboarding token not found, expired, or already used")
		case errors.Is(err, service.ErrEmailTaken):
			httpx.WriteError(w, http.StatusConflict, httpx.CodeEmailTaken, "Email is already registered")
		case errors.Is(err, service.ErrWeakPassword):
			httpx.WriteError(w, http.StatusBadRequest, httpx.CodeInvalidRequest, "Password is too short")
		case errors.Is(err, service.ErrInvalidOnboardingRequest):
			httpx.WriteError(w, http.StatusBadRequest, httpx.CodeInvalidRequest, "token, email, name and password are required")
		default:
			log.Error("onboarding redemption failed", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, httpx.CodeServerError, "Redemption failed")
		}
		return
	}

	pair, err := h.TokenService.IssueTokensForUser(ctx, user)
	if err != nil {
		log.Error("failed to issue tokens after redemption", "err", err, "user_id", user.ID)
		httpx.WriteError(w, http.StatusInternalServerError, httpx.CodeServerError, "Redemption failed")
		return
	}

	httpx.WriteSuccess(w, http.StatusCreated, tokenResponse(pair))
}
