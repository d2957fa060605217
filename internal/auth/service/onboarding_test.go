package service

import (
	"context"
	"testing"
	"time"

	"github.com/pgnest/pgnest/internal/auth/domain"
	"github.com/stretchr/testify/require"
)

func TestMintOnboardingToken(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := &OnboardingService{Store: st}

	branch := seedBranch(t, st)
	admin := seedUser(t, st, "warden@pgnest.in", domain.RoleAdmin, branch.ID, "correct horse battery")
	super := seedUser(t, st, "owner@pgnest.in", domain.RoleSuperAdmin, "", "correct horse battery")

	t.Run("admin mints a resident token", func(t *testing.T) {
		token, expiresAt, err := svc.MintOnboardingToken(ctx, admin, branch.ID, domain.RoleResident, time.Hour, true)
		require.NoError(t, err)
		require.Len(t, token, 43)
		require.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)
	})

	t.Run("omitted ttl falls back to the default", func(t *testing.T) {
		_, expiresAt, err := svc.MintOnboardingToken(ctx, super, branch.ID, domain.RoleResident, 0, false)
		require.NoError(t, err)
		require.WithinDuration(t, time.Now().Add(DefaultOnboardingTTL), expiresAt, 5*time.Second)
	})

	t.Run("admin cannot mint a staff token", func(t *testing.T) {
		_, _, err := svc.MintOnboardingToken(ctx, admin, branch.ID, domain.RoleAdmin, time.Hour, false)
		require.ErrorIs(t, err, ErrStaffTokenForbidden)
	})

	t.Run("superadmin mints a staff token", func(t *testing.T) {
		token, _, err := svc.MintOnboardingToken(ctx, super, branch.ID, domain.RoleAdmin, time.Hour, false)
		require.NoError(t, err)
		require.NotEmpty(t, token)
	})

	t.Run("staff tokens cannot be reusable", func(t *testing.T) {
		_, _, err := svc.MintOnboardingToken(ctx, super, branch.ID, domain.RoleAdmin, time.Hour, true)
		require.ErrorIs(t, err, ErrStaffTokenReusable)
	})

	t.Run("rejects unknown roles", func(t *testing.T) {
		_, _, err := svc.MintOnboardingToken(ctx, super, branch.ID, domain.Role("janitor"), time.Hour, false)
		require.ErrorIs(t, err, domain.ErrUnknownRole)
	})

	t.Run("rejects unknown branches", func(t *testing.T) {
		_, _, err := svc.MintOnboardingToken(ctx, super, "no-such-branch", domain.RoleResident, time.Hour, false)
		require.ErrorIs(t, err, ErrBranchNotFound)
	})
}

func TestRedeemOnboardingToken(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := &OnboardingService{Store: st}

	branch := seedBranch(t, st)
	admin := seedUser(t, st, "warden@pgnest.in", domain.RoleAdmin, branch.ID, "correct horse battery")

	t.Run("registers a resident against the token's branch", func(t *testing.T) {
		token, _, err := svc.MintOnboardingToken(ctx, admin, branch.ID, domain.RoleResident, time.Hour, false)
		require.NoError(t, err)

		u, err := svc.RedeemOnboardingToken(ctx, token, "New.Resident@PGnest.in", "New Resident", "a long enough password")
		require.NoError(t, err)
		require.Equal(t, "new.resident@pgnest.in", u.Email)
		require.Equal(t, domain.RoleResident, u.Role)
		require.Equal(t, branch.ID, u.BranchID)
		require.True(t, u.Active)

		t.Run("single-use tokens die on redemption", func(t *testing.T) {
			_, err := svc.RedeemOnboardingToken(ctx, token, "other@pgnest.in", "Other", "a long enough password")
			require.ErrorIs(t, err, ErrOnboardingTokenNotFound)
		})
	})

	t.Run("reusable tokens register many residents", func(t *testing.T) {
		token, _, err := svc.MintOnboardingToken(ctx, admin, branch.ID, domain.RoleResident, time.Hour, true)
		require.NoError(t, err)

		_, err = svc.RedeemOnboardingToken(ctx, token, "r1@pgnest.in", "R One", "a long enough password")
		require.NoError(t, err)
		_, err = svc.RedeemOnboardingToken(ctx, token, "r2@pgnest.in", "R Two", "a long enough password")
		require.NoError(t, err)
	})

	t.Run("rejects a taken email", func(t *testing.T) {
		token, _, err := svc.MintOnboardingToken(ctx, admin, branch.ID, domain.RoleResident, time.Hour, false)
		require.NoError(t, err)

		_, err = svc.RedeemOnboardingToken(ctx, token, "warden@pgnest.in", "Impostor", "a long enough password")
		require.ErrorIs(t, err, ErrEmailTaken)

		// The failed attempt must not burn the token.
		_, err = svc.RedeemOnboardingToken(ctx, token, "fresh@pgnest.in", "Fresh", "a long enough password")
		require.NoError(t, err)
	})

	t.Run("rejects an unknown token", func(t *testing.T) {
		_, err := svc.RedeemOnboardingToken(ctx, "bogus", "x@pgnest.in", "X", "a long enough password")
		require.ErrorIs(t, err, ErrOnboardingTokenNotFound)
	})

	t.Run("rejects an expired token", func(t *testing.T) {
		token, _, err := svc.MintOnboardingToken(ctx, admin, branch.ID, domain.RoleResident, time.Millisecond, false)
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond)

		_, err = svc.RedeemOnboardingToken(ctx, token, "late@pgnest.in", "Late", "a long enough password")
		require.ErrorIs(t, err, ErrOnboardingTokenNotFound)
	})

	t.Run("rejects a short password", func(t *testing.T) {
		token, _, err := svc.MintOnboardingToken(ctx, admin, branch.ID, domain.RoleResident, time.Hour, false)
		require.NoError(t, err)

		_, err = svc.RedeemOnboardingToken(ctx, token, "short@pgnest.in", "Short", "tiny")
		require.ErrorIs(t, err, ErrWeakPassword)
	})

	t.Run("rejects missing fields", func(t *testing.T) {
		_, err := svc.RedeemOnboardingToken(ctx, "", "", "", "a long enough password")
		require.ErrorIs(t, err, ErrInvalidOnboardingRequest)
	})
}
