package http

import (
	"github.com/pgnest/pgnest/internal/auth/domain"
	"github.com/pgnest/pgnest/pkg/authsdk"
)

func tokenResponse(pair *domain.TokenPair) authsdk.TokenResponse {
	user := userResponse(pair.User)
	return authsdk.TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    pair.TokenType,
		ExpiresIn:    int(pair.ExpiresIn.Seconds()),
		User:         &user,
	}
}

func userResponse(u domain.UserSnapshot) authsdk.User {
	return authsdk.User{
		ID:         u.ID,
		Email:      u.Email,
		Name:       u.Name,
		Role:       u.Role.String(),
		BranchID:   u.BranchID,
		Active:     u.Active,
		MFAEnabled: u.MFAEnabled,
		LastSeenAt: u.LastSeenAt,
		CreatedAt:  u.CreatedAt,
	}
}
