package service

import (
	"context"
	"testing"
	"time"

	"github.com/pgnest/pgnest/internal/auth/domain"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"
)

func TestMFAEnrollment(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := &MFAService{Store: st, Issuer: "PGNest"}

	branch := seedBranch(t, st)
	admin := seedUser(t, st, "warden@pgnest.in", domain.RoleAdmin, branch.ID, "correct horse battery")
	resident := seedUser(t, st, "resident@pgnest.in", domain.RoleResident, branch.ID, "correct horse battery")

	t.Run("residents cannot enroll", func(t *testing.T) {
		_, err := svc.EnrollTOTP(ctx, resident.ID)
		require.ErrorIs(t, err, ErrMFAStaffOnly)
	})

	t.Run("verify requires prior enrollment", func(t *testing.T) {
		_, err := svc.VerifyTOTP(ctx, admin.ID, "000000")
		require.ErrorIs(t, err, ErrMFANotEnrolled)
	})

	enrollment, err := svc.EnrollTOTP(ctx, admin.ID)
	require.NoError(t, err)
	require.NotEmpty(t, enrollment.Secret)
	require.Contains(t, enrollment.QRCode, "otpauth://totp/")
	require.Equal(t, "warden@pgnest.in", enrollment.Account)

	t.Run("enrollment alone does not enable MFA", func(t *testing.T) {
		u, err := st.Users().GetUserByID(ctx, admin.ID)
		require.NoError(t, err)
		require.Nil(t, u.MFAEnabled)
	})

	t.Run("verify rejects a wrong code", func(t *testing.T) {
		_, err := svc.VerifyTOTP(ctx, admin.ID, "000000")
		require.ErrorIs(t, err, ErrInvalidTOTPCode)
	})

	code, err := totp.GenerateCode(enrollment.Secret, time.Now())
	require.NoError(t, err)

	backupCodes, err := svc.VerifyTOTP(ctx, admin.ID, code)
	require.NoError(t, err)
	require.Len(t, backupCodes, backupCodeCount)

	t.Run("verify enables MFA", func(t *testing.T) {
		u, err := st.Users().GetUserByID(ctx, admin.ID)
		require.NoError(t, err)
		require.NotNil(t, u.MFAEnabled)

		remaining, err := svc.BackupCodesRemaining(ctx, admin.ID)
		require.NoError(t, err)
		require.Equal(t, backupCodeCount, remaining)
	})

	t.Run("cannot enroll twice", func(t *testing.T) {
		_, err := svc.EnrollTOTP(ctx, admin.ID)
		require.ErrorIs(t, err, ErrMFAAlreadyEnabled)
	})
}

func TestRegenerateBackupCodes(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := &MFAService{Store: st, Issuer: "PGNest"}

	branch := seedBranch(t, st)
	admin := seedUser(t, st, "warden@pgnest.in", domain.RoleAdmin, branch.ID, "correct horse battery")

	enrollment, err := svc.EnrollTOTP(ctx, admin.ID)
	require.NoError(t, err)

	code, err := totp.GenerateCode(enrollment.Secret, time.Now())
	require.NoError(t, err)
	first, err := svc.VerifyTOTP(ctx, admin.ID, code)
	require.NoError(t, err)

	t.Run("requires a valid code", func(t *testing.T) {
		_, err := svc.RegenerateBackupCodes(ctx, admin.ID, "000000")
		require.ErrorIs(t, err, ErrInvalidTOTPCode)
	})

	code, err = totp.GenerateCode(enrollment.Secret, time.Now())
	require.NoError(t, err)
	second, err := svc.RegenerateBackupCodes(ctx, admin.ID, code)
	require.NoError(t, err)
	require.Len(t, second, backupCodeCount)
	require.NotEqual(t, first, second)

	t.Run("old codes stop working", func(t *testing.T) {
		tokens := newTestTokenService(t, st)
		pair, err := tokens.Login(ctx, "warden@pgnest.in", "correct horse battery")
		require.Nil(t, pair)
		var challenge *MFARequiredError
		require.ErrorAs(t, err, &challenge)

		_, err = tokens.CompleteMFA(ctx, challenge.MFAToken, MFAMethodBackupCode, first[0])
		require.ErrorIs(t, err, ErrInvalidCode)

		_, err = tokens.CompleteMFA(ctx, challenge.MFAToken, MFAMethodBackupCode, second[0])
		require.NoError(t, err)
	})
}

func TestRemoveMFA(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := &MFAService{Store: st, Issuer: "PGNest"}

	branch := seedBranch(t, st)
	admin := seedUser(t, st, "warden@pgnest.in", domain.RoleAdmin, branch.ID, "correct horse battery")

	t.Run("requires MFA to be enabled", func(t *testing.T) {
		err := svc.RemoveMFA(ctx, admin.ID, "000000")
		require.ErrorIs(t, err, ErrMFANotEnabled)
	})

	enrollment, err := svc.EnrollTOTP(ctx, admin.ID)
	require.NoError(t, err)
	code, err := totp.GenerateCode(enrollment.Secret, time.Now())
	require.NoError(t, err)
	_, err = svc.VerifyTOTP(ctx, admin.ID, code)
	require.NoError(t, err)

	code, err = totp.GenerateCode(enrollment.Secret, time.Now())
	require.NoError(t, err)
	require.NoError(t, svc.RemoveMFA(ctx, admin.ID, code))

	t.Run("secret and backup codes are gone", func(t *testing.T) {
		u, err := st.Users().GetUserByID(ctx, admin.ID)
		require.NoError(t, err)
		require.Nil(t, u.MFAEnabled)
		require.Nil(t, u.MFASecret)

		remaining, err := svc.BackupCodesRemaining(ctx, admin.ID)
		require.NoError(t, err)
		require.Zero(t, remaining)
	})

	t.Run("login goes straight to tokens again", func(t *testing.T) {
		tokens := newTestTokenService(t, st)
		pair, err := tokens.Login(ctx, "warden@pgnest.in", "correct horse battery")
		require.NoError(t, err)
		require.NotEmpty(t, pair.AccessToken)
	})
}
