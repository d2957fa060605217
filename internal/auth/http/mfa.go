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

// MFAHandler handles the MFA management endpoints.
type MFAHandler struct {
	MFAService *service.MFAService
}

// HandleEnroll handles POST /v1/mfa/totp/enroll
//
//	@Summary		Enroll in TOTP MFA
//	@Description	Generates a TOTP secret for the authenticated staff user and returns it with a
//	@Description	provisioning URL. MFA is not enabled until the code is verified.
//	@Tags			MFA
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	httpx.SuccessEnvelope{data=authsdk.TOTPEnrollResponse}
//	@Failure		400	{object}	httpx.ErrorEnvelope	"MFA already enabled"
//	@Failure		401	{object}	httpx.ErrorEnvelope
//	@Failure		403	{object}	httpx.ErrorEnvelope	"not a staff account"
//	@Router			/v1/mfa/totp/enroll [post].
func (h *MFAHandler) HandleEnroll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID := httpx.UserIDFromCtx(ctx)
	if userID == "" {
		httpx.WriteError(w, http.StatusUnauthorized, httpx.CodeInvalidToken, "Authentication required")
		return
	}

	enrollment, err := h.MFAService.EnrollTOTP(ctx, userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMFAAlreadyEnabled):
			httpx.WriteError(w, http.StatusBadRequest, httpx.CodeInvalidRequest, "MFA is already enabled")
		case errors.Is(err, service.ErrMFAStaffOnly):
			httpx.WriteError(w, http.StatusForbidden, httpx.CodeInsufficientRole, "MFA is only available to staff accounts")
		default:
			log.Error("failed to enroll TOTP", "user_id", userID, "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, httpx.CodeServerError, "Enrollment failed")
		}
		return
	}

	httpx.WriteSuccess(w, http.StatusOK, authsdk.TOTPEnrollResponse{
		Secret:  enrollment.Secret,
		QRCode:  enrollment.QRCode,
		Issuer:  enrollment.Issuer,
		Account: enrollment.Account,
	})
}

// HandleVerify handles POST /v1/mfa/totp/verify
//
//	@Summary		Verify TOTP code and enable MFA
//	@Description	Verifies a TOTP code against the enrolled secret, enables MFA, and returns the
//	@Description	one-time backup codes.
//	@Tags			MFA
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.TOTPCodeRequest	true	"TOTP code"
//	@Success		200		{object}	httpx.SuccessEnvelope{data=authsdk.BackupCodesResponse}
//	@Failure		400		{object}	httpx.ErrorEnvelope
//	@Failure		401		{object}	httpx.ErrorEnvelope
//	@Router			/v1/mfa/totp/verify [post].
func (h *MFAHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID := httpx.UserIDFromCtx(ctx)
	if userID == "" {
		httpx.WriteError(w, http.StatusUnauthorized, httpx.CodeInvalidToken, "Authentication required")
		return
	}

	var req authsdk.TOTPCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeInvalidRequest, "Invalid JSON body")
		return
	}

	backupCodes, err := h.MFAService.VerifyTOTP(ctx, userID, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidTOTPCode):
			httpx.WriteError(w, http.StatusBadRequest, httpx.CodeInvalidCode, "Invalid TOTP code")
		case errors.Is(err, service.ErrMFANotEnrolled):
			httpx.WriteError(w, http.StatusBadRequest, httpx.CodeInvalidRequest, "TOTP enrollment has not started")
		case errors.Is(err, service.ErrMFAAlreadyEnabled):
			httpx.WriteError(w, http.StatusBadRequest, httpx.CodeInvalidRequest, "MFA is already enabled")
		default:
			log.Error("failed to verify TOTP", "user_id", userID, "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, httpx.CodeServerError, "Verification failed")
		}
		return
	}

	httpx.WriteSuccess(w, http.StatusOK, authsdk.BackupCodesResponse{Codes: backupCodes})
}

// HandleRegenerateBackupCodes handles POST /v1/mfa/backup-codes
//
//	@Summary		Regenerate backup codes
//	@Description	Replaces the user's backup codes after TOTP verification.
//	@Tags			MFA
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.TOTPCodeRequest	true	"TOTP code for verification"
//	@Success		200		{object}	httpx.SuccessEnvelope{data=authsdk.BackupCodesResponse}
//	@Failure		400		{object}	httpx.ErrorEnvelope
//	@Failure		401		{object}	httpx.ErrorEnvelope
//	@Router			/v1/mfa/backup-codes [post].
func (h *MFAHandler) HandleRegenerateBackupCodes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID := httpx.UserIDFromCtx(ctx)
	if userID == "" {
		httpx.WriteError(w, http.StatusUnauthorized, httpx.CodeInvalidToken, "Authentication required")
		return
	}

	var req authsdk.TOTPCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeInvalidRequest, "Invalid JSON body")
		return
	}

	backupCodes, err := h.MFAService.RegenerateBackupCodes(ctx, userID, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidTOTPCode):
			httpx.WriteError(w, http.StatusBadRequest, httpx.CodeInvalidCode, "Invalid TOTP code")
		case errors.Is(err, service.ErrMFANotEnabled):
			httpx.WriteError(w, http.StatusBadRequest, httpx.CodeInvalidRequest, "MFA is not enabled")
		default:
			log.Error("failed to regenerate backup codes", "user_id", userID, "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, httpx.CodeServerError, "Regeneration failed")
		}
		return
	}

	httpx.WriteSuccess(w, http.StatusOK, authsdk.BackupCodesResponse{Codes: backupCodes})
}

// HandleRemove handles DELETE /v1/mfa/totp
//
//	@Summary		Remove TOTP MFA
//	@Description	Disables MFA after TOTP verification, deleting the secret and all backup codes.
//	@Tags			MFA
//	@Security		BearerAuth
//	@Accept			json
//	@Param			request	body	authsdk.TOTPCodeRequest	true	"TOTP code for verification"
//	@Success		204		"MFA removed"
//	@Failure		400		{object}	httpx.ErrorEnvelope
//	@Failure		401		{object}	httpx.ErrorEnvelope
//	@Router			/v1/mfa/totp [delete].
func (h *MFAHandler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID := httpx.UserIDFromCtx(ctx)
	if userID == "" {
		httpx.WriteError(w, http.StatusUnauthorized, httpx.CodeInvalidToken, "Authentication required")
		return
	}

	var req authsdk.TOTPCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeInvalidRequest, "Invalid JSON body")
		return
	}

	if err := h.MFAService.RemoveMFA(ctx, userID, req.Code); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidTOTPCode):
			httpx.WriteError(w, http.StatusBadRequest, httpx.CodeInvalidCode, "Invalid TOTP code")
		case errors.Is(err, service.ErrMFANotEnabled):
			httpx.WriteError(w, http.StatusBadRequest, httpx.CodeInvalidRequest, "MFA is not enabled")
		default:
			log.Error("failed to remove MFA", "user_id", userID, "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, httpx.CodeServerError, "Removal failed")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
