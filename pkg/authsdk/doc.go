/*
Package authsdk provides a client SDK for the pgnest authentication service.

# Overview

The package is organized around two main types:

  - SDKClient: unauthenticated operations, and the entry points that
    create authenticated sessions
  - Session: authenticated operations with automatic token refresh

Create an SDKClient to interact with public endpoints and log in:

	client := authsdk.NewSDKClient("https://auth.pgnest.in")

	// Check service health
	health, err := client.GetLiveness(ctx)

	// Bootstrap the service (one-time setup)
	resp, err := client.Bootstrap(ctx, token, req)

	// Log in to create a session
	session, err := client.Login(ctx, "mira@pgnest.in", "password")

Use a Session for authenticated operations:

	me, err := session.Me(ctx)
	users, err := session.ListUsers(ctx, "")

# MFA

Accounts with multi-factor authentication enabled return a typed error
from Login carrying the challenge token:

	session, err := client.Login(ctx, email, password)
	if mfaErr, ok := err.(*authsdk.MFARequiredError); ok {
		session, err = client.CompleteMFA(ctx, mfaErr, "totp", code)
	}

# Automatic Token Refresh

Session methods check expiry (with a 30-second buffer) before each request
and rotate the refresh token when the access token has lapsed. Refresh
tokens are single-use server-side: the SDK stores the replacement returned
by each rotation, and concurrent callers share one refresh rather than
racing. A refresh rejected as invalid clears the session's tokens, since
that token chain is dead and retrying cannot revive it.

# Thread Safety

Sessions are safe for concurrent use. Multiple goroutines can share a
single Session and make authenticated requests concurrently.
*/
package authsdk
