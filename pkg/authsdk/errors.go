package authsdk

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Error codes returned by the auth service. These mirror what the server
// writes in the error envelope.
const (
	ErrorCodeInvalidCredentials = "invalid_credentials"
	ErrorCodeInvalidToken       = "invalid_token"
	ErrorCodeInsufficientRole   = "insufficient_role"
	ErrorCodeInvalidRefresh     = "invalid_refresh"
	ErrorCodeMFARequired        = "mfa_required"
	ErrorCodeInvalidCode        = "invalid_code"
	ErrorCodeAccountDisabled    = "account_disabled"
	ErrorCodeEmailTaken         = "email_taken"
	ErrorCodeInvalidRequest     = "invalid_request"
	ErrorCodeRateLimited        = "rate_limit_exceeded"
	ErrorCodeServerError        = "server_error"
)

// APIError is a typed error parsed from the service's error envelope.
type APIError struct {
	// StatusCode is the HTTP status the server responded with.
	StatusCode int

	// Code is the stable error code, e.g. "invalid_refresh".
	Code string

	// Message is the human-readable description.
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsTerminal reports whether retrying the same request can't help, for
// example a revoked refresh token or a disabled account.
func (e *APIError) IsTerminal() bool {
	switch e.Code {
	case ErrorCodeInvalidRefresh, ErrorCodeInvalidToken,
		ErrorCodeInvalidCredentials, ErrorCodeAccountDisabled:
		return true
	}
	return false
}

// MFARequiredError is returned by Login when the account has multi-factor
// authentication enabled. Complete the login with CompleteMFA. Returned with
// HTTP 409 because the credentials were valid but the session is incomplete.
type MFARequiredError struct {
	// MFAToken is the short-lived challenge token to present with the code.
	MFAToken string `json:"mfaToken"`

	// Methods lists the accepted verification methods,
	// e.g. ["totp", "backup_code"].
	Methods []string `json:"mfaMethods"`
}

func (e *MFARequiredError) Error() string {
	return fmt.Sprintf("mfa required: available methods=%v", e.Methods)
}

// parseErrorResponse turns a non-2xx response body into a typed error.
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	// An MFA challenge rides on 409 with the challenge fields inside data.
	if resp.StatusCode == http.StatusConflict {
		var challenge struct {
			Error string `json:"error"`
			Data  struct {
				MFAToken string   `json:"mfaToken"`
				Methods  []string `json:"mfaMethods"`
			} `json:"data"`
		}
		if err := json.Unmarshal(body, &challenge); err == nil &&
			challenge.Error == ErrorCodeMFARequired && challenge.Data.MFAToken != "" {
			return &MFARequiredError{
				MFAToken: challenge.Data.MFAToken,
				Methods:  challenge.Data.Methods,
			}
		}
	}

	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err == nil && env.Error != "" {
		return &APIError{
			StatusCode: resp.StatusCode,
			Code:       env.Error,
			Message:    env.Message,
		}
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Code:       ErrorCodeServerError,
		Message:    fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
}
