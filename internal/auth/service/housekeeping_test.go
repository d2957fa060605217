package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/pgnest/pgnest/internal/auth/domain"
	"github.com/pgnest/pgnest/internal/auth/store"
	"github.com/pgnest/pgnest/pkg/cryptox"
	"github.com/pgnest/pgnest/pkg/idx"
	"github.com/stretchr/testify/require"
)

func TestHousekeepingSweepsExpiredRecords(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	branch := seedBranch(t, st)
	user := seedUser(t, st, "resident@pgnest.in", domain.RoleResident, branch.ID, "correct horse battery")

	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)

	newRefresh := func(expires time.Time) string {
		opaque, err := cryptox.GenerateToken(cryptox.TokenSize256)
		require.NoError(t, err)
		hash := cryptox.FingerprintToken(opaque)
		require.NoError(t, st.RefreshTokens().CreateRefreshToken(ctx, domain.RefreshToken{
			ID:        idx.New().String(),
			UserID:    user.ID,
			TokenHash: hash,
			SessionID: idx.New().String(),
			ExpiresAt: expires,
		}))
		return hash
	}

	expiredHash := newRefresh(past)
	liveHash := newRefresh(future)

	require.NoError(t, st.OnboardingTokens().CreateOnboardingToken(ctx, domain.OnboardingToken{
		ID:        idx.New().String(),
		TokenHash: "expired-onboarding",
		BranchID:  branch.ID,
		Role:      domain.RoleResident,
		CreatedBy: user.ID,
		ExpiresAt: past,
	}))

	require.NoError(t, st.MFASessions().CreateMFASession(ctx, domain.MFASession{
		Token:     "expired-mfa",
		UserID:    user.ID,
		SessionID: idx.New().String(),
		ExpiresAt: past,
	}))

	svc := NewHousekeepingService(st, slog.Default(), time.Hour)
	svc.Start()
	svc.Stop()

	_, err := st.RefreshTokens().GetRefreshTokenByHash(ctx, expiredHash)
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = st.RefreshTokens().GetRefreshTokenByHash(ctx, liveHash)
	require.NoError(t, err)
}

func TestHousekeepingDefaultsInterval(t *testing.T) {
	svc := NewHousekeepingService(newTestStore(t), slog.Default(), 0)
	require.Equal(t, time.Hour, svc.Interval)
}
