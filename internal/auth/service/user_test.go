package service

import (
	"context"
	"testing"

	"github.com/pgnest/pgnest/internal/auth/domain"
	"github.com/stretchr/testify/require"
)

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	tokens := newTestTokenService(t, st)
	users := &UserService{Store: st}

	branch := seedBranch(t, st)
	user := seedUser(t, st, "resident@pgnest.in", domain.RoleResident, branch.ID, "old password 1234")

	pair, err := tokens.Login(ctx, "resident@pgnest.in", "old password 1234")
	require.NoError(t, err)

	t.Run("rejects a short new password", func(t *testing.T) {
		err := users.ChangePassword(ctx, user.ID, "old password 1234", "short")
		require.ErrorIs(t, err, ErrWeakPassword)
	})

	t.Run("rejects a wrong current password", func(t *testing.T) {
		err := users.ChangePassword(ctx, user.ID, "not the password", "new password 5678")
		require.ErrorIs(t, err, ErrWrongPassword)
	})

	t.Run("rotates the hash and kills other sessions", func(t *testing.T) {
		require.NoError(t, users.ChangePassword(ctx, user.ID, "old password 1234", "new password 5678"))

		_, err := tokens.Login(ctx, "resident@pgnest.in", "old password 1234")
		require.ErrorIs(t, err, ErrInvalidCredentials)

		_, err = tokens.Login(ctx, "resident@pgnest.in", "new password 5678")
		require.NoError(t, err)

		// The refresh token issued before the change is revoked.
		_, err = tokens.Refresh(ctx, pair.RefreshToken)
		require.ErrorIs(t, err, ErrInvalidRefresh)
	})
}

func TestListUsers(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	users := &UserService{Store: st}

	lakeside := seedBranch(t, st)
	hilltop := domain.Branch{ID: "branch-hilltop", Name: "Hilltop PG", Code: "HLT", Active: true}
	require.NoError(t, st.Branches().CreateBranch(ctx, hilltop))

	seedUser(t, st, "r1@pgnest.in", domain.RoleResident, lakeside.ID, "correct horse battery")
	seedUser(t, st, "r2@pgnest.in", domain.RoleResident, hilltop.ID, "correct horse battery")
	admin := seedUser(t, st, "warden@pgnest.in", domain.RoleAdmin, lakeside.ID, "correct horse battery")
	super := seedUser(t, st, "owner@pgnest.in", domain.RoleSuperAdmin, "", "correct horse battery")

	t.Run("admins are pinned to their own branch", func(t *testing.T) {
		// Even when asking for another branch.
		got, err := users.ListUsers(ctx, admin, hilltop.ID)
		require.NoError(t, err)
		for _, u := range got {
			require.Equal(t, lakeside.ID, u.BranchID)
		}
		require.Len(t, got, 2)
	})

	t.Run("superadmins may filter by any branch", func(t *testing.T) {
		got, err := users.ListUsers(ctx, super, hilltop.ID)
		require.NoError(t, err)
		require.Len(t, got, 1)
		require.Equal(t, "r2@pgnest.in", got[0].Email)
	})

	t.Run("superadmins see everyone with no filter", func(t *testing.T) {
		got, err := users.ListUsers(ctx, super, "")
		require.NoError(t, err)
		require.Len(t, got, 4)
	})

	t.Run("snapshots never leak secrets", func(t *testing.T) {
		got, err := users.ListUsers(ctx, super, "")
		require.NoError(t, err)
		for _, u := range got {
			require.NotEmpty(t, u.ID)
			require.NotEmpty(t, u.Email)
		}
	})
}

func TestSetActive(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	tokens := newTestTokenService(t, st)
	users := &UserService{Store: st}

	branch := seedBranch(t, st)
	user := seedUser(t, st, "resident@pgnest.in", domain.RoleResident, branch.ID, "correct horse battery")

	pair, err := tokens.Login(ctx, "resident@pgnest.in", "correct horse battery")
	require.NoError(t, err)

	require.NoError(t, users.SetActive(ctx, user.ID, false))

	_, err = tokens.Login(ctx, "resident@pgnest.in", "correct horse battery")
	require.ErrorIs(t, err, ErrAccountDisabled)

	_, err = tokens.Refresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidRefresh)

	t.Run("reactivation restores login", func(t *testing.T) {
		require.NoError(t, users.SetActive(ctx, user.ID, true))
		_, err := tokens.Login(ctx, "resident@pgnest.in", "correct horse battery")
		require.NoError(t, err)
	})
}
