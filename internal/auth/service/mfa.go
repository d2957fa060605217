package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/pgnest/pgnest/internal/auth/domain"
	"github.com/pgnest/pgnest/internal/auth/store"
	"github.com/pgnest/pgnest/pkg/cryptox"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	backupCodeCount = 10
	backupCodeBytes = cryptox.TokenSize128
)

var (
	ErrInvalidTOTPCode   = errors.New("invalid TOTP code")
	ErrMFANotEnabled     = errors.New("MFA not enabled for this user")
	ErrMFAAlreadyEnabled = errors.New("MFA already enabled for this user")
	ErrMFANotEnrolled    = errors.New("MFA not enrolled for this user")
	ErrMFAStaffOnly      = errors.New("MFA is only available to staff accounts")
)

type MFAService struct {
	Store  store.Store
	Issuer string // issuer name shown in authenticator apps
}

// EnrollTOTP generates a TOTP secret for a staff user and returns it along
// with the otpauth provisioning URL. MFA is not enabled until the user
// proves possession of the secret via VerifyTOTP.
func (s *MFAService) EnrollTOTP(ctx context.Context, userID string) (domain.MFAEnrollment, error) {
	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return domain.MFAEnrollment{}, err
	}
	if !u.Role.Staff() {
		return domain.MFAEnrollment{}, ErrMFAStaffOnly
	}
	if u.MFAEnabled != nil {
		return domain.MFAEnrollment{}, ErrMFAAlreadyEnabled
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.Issuer,
		AccountName: u.Email,
		Period:      30,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return domain.MFAEnrollment{}, fmt.Errorf("failed to generate TOTP key: %w", err)
	}

	if err := s.Store.Users().UpdateMFASecret(ctx, userID, key.Secret()); err != nil {
		return domain.MFAEnrollment{}, fmt.Errorf("failed to store MFA secret: %w", err)
	}

	return domain.MFAEnrollment{
		Secret:  key.Secret(),
		QRCode:  key.URL(),
		Issuer:  s.Issuer,
		Account: u.Email,
	}, nil
}

// VerifyTOTP checks the code against the enrolled secret and, if valid,
// enables MFA and returns a fresh set of backup codes. The codes are shown
// once; only fingerprints are stored.
func (s *MFAService) VerifyTOTP(ctx context.Context, userID string, code string) ([]string, error) {
	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if u.MFASecret == nil || *u.MFASecret == "" {
		return nil, ErrMFANotEnrolled
	}
	if u.MFAEnabled != nil {
		return nil, ErrMFAAlreadyEnabled
	}

	if !totp.Validate(code, *u.MFASecret) {
		return nil, ErrInvalidTOTPCode
	}

	backupCodes, err := generateBackupCodes()
	if err != nil {
		return nil, err
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		for _, c := range backupCodes {
			if err := tx.BackupCodes().CreateBackupCode(ctx, userID, cryptox.FingerprintToken(c)); err != nil {
				return fmt.Errorf("failed to store backup code: %w", err)
			}
		}
		if err := tx.Users().EnableMFA(ctx, userID); err != nil {
			return fmt.Errorf("failed to enable MFA: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return backupCodes, nil
}

// RegenerateBackupCodes replaces the user's backup codes after re-verifying
// a TOTP code.
func (s *MFAService) RegenerateBackupCodes(ctx context.Context, userID string, totpCode string) ([]string, error) {
	if err := s.verifyTOTPCode(ctx, userID, totpCode); err != nil {
		return nil, err
	}

	backupCodes, err := generateBackupCodes()
	if err != nil {
		return nil, err
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.BackupCodes().DeleteAllBackupCodes(ctx, userID); err != nil {
			return fmt.Errorf("failed to delete old backup codes: %w", err)
		}
		for _, c := range backupCodes {
			if err := tx.BackupCodes().CreateBackupCode(ctx, userID, cryptox.FingerprintToken(c)); err != nil {
				return fmt.Errorf("failed to store backup code: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return backupCodes, nil
}

// RemoveMFA disables MFA for a user after verifying a TOTP code, deleting
// the secret and every backup code.
func (s *MFAService) RemoveMFA(ctx context.Context, userID string, totpCode string) error {
	if err := s.verifyTOTPCode(ctx, userID, totpCode); err != nil {
		return err
	}

	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.BackupCodes().DeleteAllBackupCodes(ctx, userID); err != nil {
			return fmt.Errorf("failed to delete backup codes: %w", err)
		}
		if err := tx.Users().DisableMFA(ctx, userID); err != nil {
			return fmt.Errorf("failed to disable MFA: %w", err)
		}
		return nil
	})
}

// BackupCodesRemaining reports how many unused backup codes the user has.
func (s *MFAService) BackupCodesRemaining(ctx context.Context, userID string) (int, error) {
	return s.Store.BackupCodes().CountUserBackupCodes(ctx, userID)
}

func (s *MFAService) verifyTOTPCode(ctx context.Context, userID string, code string) error {
	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	if u.MFAEnabled == nil || u.MFASecret == nil || *u.MFASecret == "" {
		return ErrMFANotEnabled
	}

	if !totp.Validate(code, *u.MFASecret) {
		return ErrInvalidTOTPCode
	}

	return nil
}

func generateBackupCodes() ([]string, error) {
	codes := make([]string, backupCodeCount)
	for i := range backupCodeCount {
		c, err := cryptox.GenerateToken(backupCodeBytes)
		if err != nil {
			return nil, fmt.Errorf("failed to generate backup code: %w", err)
		}
		codes[i] = c
	}
	return codes, nil
}
