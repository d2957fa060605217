package authsdk

import (
	"context"
	"net/http"
)

// EnrollMFA starts TOTP enrollment for the authenticated staff user. The
// returned secret must be confirmed with VerifyMFA before MFA takes effect.
func (s *Session) EnrollMFA(ctx context.Context) (*TOTPEnrollResponse, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodPost, "/v1/mfa/totp/enroll", nil)
	if err != nil {
		return nil, err
	}

	var enrollment TOTPEnrollResponse
	if err := decodeEnvelope(resp, &enrollment, http.StatusOK); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// VerifyMFA confirms enrollment with a TOTP code and enables MFA. Returns
// the one-time backup codes.
func (s *Session) VerifyMFA(ctx context.Context, code string) ([]string, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodPost, "/v1/mfa/totp/verify", TOTPCodeRequest{Code: code})
	if err != nil {
		return nil, err
	}

	var codes BackupCodesResponse
	if err := decodeEnvelope(resp, &codes, http.StatusOK); err != nil {
		return nil, err
	}
	return codes.Codes, nil
}

// RegenerateBackupCodes replaces the backup codes after TOTP verification.
func (s *Session) RegenerateBackupCodes(ctx context.Context, code string) ([]string, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodPost, "/v1/mfa/backup-codes", TOTPCodeRequest{Code: code})
	if err != nil {
		return nil, err
	}

	var codes BackupCodesResponse
	if err := decodeEnvelope(resp, &codes, http.StatusOK); err != nil {
		return nil, err
	}
	return codes.Codes, nil
}

// RemoveMFA disables MFA after TOTP verification.
func (s *Session) RemoveMFA(ctx context.Context, code string) error {
	resp, err := s.doAuthRequest(ctx, http.MethodDelete, "/v1/mfa/totp", TOTPCodeRequest{Code: code})
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}
