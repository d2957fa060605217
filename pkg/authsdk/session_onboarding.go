package authsdk

import (
	"context"
	"net/http"
)

// MintOnboardingToken creates an onboarding token for a new user. Requires
// a staff role; tokens for staff roles can only be minted by superadmins.
func (s *Session) MintOnboardingToken(ctx context.Context, req OnboardingMintRequest) (*OnboardingMintResponse, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodPost, "/v1/onboarding/tokens", req)
	if err != nil {
		return nil, err
	}

	var minted OnboardingMintResponse
	if err := decodeEnvelope(resp, &minted, http.StatusCreated); err != nil {
		return nil, err
	}
	return &minted, nil
}

// RedeemOnboardingToken redeems an onboarding token, creating the account
// and returning a logged-in session. Unauthenticated: the token is the
// authorization.
func (c *SDKClient) RedeemOnboardingToken(ctx context.Context, req OnboardingRedeemRequest) (*Session, error) {
	resp, err := c.postJSON(ctx, "/v1/onboarding/redeem", req)
	if err != nil {
		return nil, err
	}

	var tokenResp TokenResponse
	if err := decodeEnvelope(resp, &tokenResp, http.StatusCreated); err != nil {
		return nil, err
	}
	return newSession(c, &tokenResp), nil
}
