package service

import (
	"context"
	"testing"

	"github.com/pgnest/pgnest/internal/auth/domain"
	"github.com/stretchr/testify/require"
)

func TestBootstrap(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := &BootstrapService{Store: st, Token: "bootstrap-secret"}
	tokens := newTestTokenService(t, st)

	req := domain.BootstrapData{
		BranchName:    "Lakeside PG",
		BranchCode:    "LKS",
		AdminEmail:    "Owner@PGnest.in",
		AdminName:     "The Owner",
		AdminPassword: "a long enough password",
	}

	t.Run("empty system is not bootstrapped", func(t *testing.T) {
		done, err := svc.IsBootstrapped(ctx)
		require.NoError(t, err)
		require.False(t, done)
	})

	t.Run("rejects a wrong token", func(t *testing.T) {
		_, _, err := svc.Bootstrap(ctx, "guess", req)
		require.ErrorIs(t, err, ErrBootstrapUnauthorized)
	})

	t.Run("rejects a short admin password", func(t *testing.T) {
		bad := req
		bad.AdminPassword = "tiny"
		_, _, err := svc.Bootstrap(ctx, "bootstrap-secret", bad)
		require.ErrorIs(t, err, ErrWeakPassword)
	})

	t.Run("rejects missing fields", func(t *testing.T) {
		bad := req
		bad.BranchCode = "  "
		_, _, err := svc.Bootstrap(ctx, "bootstrap-secret", bad)
		require.ErrorIs(t, err, ErrBootstrapInvalid)
	})

	branchID, userID, err := svc.Bootstrap(ctx, "bootstrap-secret", req)
	require.NoError(t, err)
	require.NotEmpty(t, branchID)
	require.NotEmpty(t, userID)

	t.Run("creates the branch and the superadmin", func(t *testing.T) {
		b, err := st.Branches().GetBranchByID(ctx, branchID)
		require.NoError(t, err)
		require.Equal(t, "LKS", b.Code)

		u, err := st.Users().GetUserByID(ctx, userID)
		require.NoError(t, err)
		require.Equal(t, "owner@pgnest.in", u.Email)
		require.Equal(t, domain.RoleSuperAdmin, u.Role)
		require.True(t, u.Active)

		pair, err := tokens.Login(ctx, "owner@pgnest.in", "a long enough password")
		require.NoError(t, err)
		require.NotEmpty(t, pair.AccessToken)
	})

	t.Run("runs exactly once", func(t *testing.T) {
		done, err := svc.IsBootstrapped(ctx)
		require.NoError(t, err)
		require.True(t, done)

		_, _, err = svc.Bootstrap(ctx, "bootstrap-secret", req)
		require.ErrorIs(t, err, ErrBootstrapAlready)
	})
}

func TestBootstrapRefusesWithoutConfiguredToken(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := &BootstrapService{Store: st, Token: ""}

	_, _, err := svc.Bootstrap(ctx, "", domain.BootstrapData{})
	require.ErrorIs(t, err, ErrBootstrapUnauthorized)
}
