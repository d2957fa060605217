package httpx

import (
	"encoding/json"
	"net/http"
)

// Stable error codes returned in the response envelope. Clients branch on
// these rather than on messages or status codes.
const (
	CodeInvalidCredentials = "invalid_credentials"
	CodeInvalidToken       = "invalid_token"
	CodeInsufficientRole   = "insufficient_role"
	CodeInvalidRefresh     = "invalid_refresh"
	CodeMFARequired        = "mfa_required"
	CodeInvalidCode        = "invalid_code"
	CodeAccountDisabled    = "account_disabled"
	CodeEmailTaken         = "email_taken"
	CodeInvalidRequest     = "invalid_request"
	CodeRateLimited        = "rate_limit_exceeded"
	CodeServerError        = "server_error"
)

// SuccessEnvelope is the body shape for all 2xx JSON responses.
type SuccessEnvelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

// ErrorEnvelope is the body shape for all error responses.
type ErrorEnvelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// WriteJSON writes a JSON response with the given status code. It sets the
// Content-Type and no-store cache headers, which token responses require.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteSuccess wraps data in the success envelope.
func WriteSuccess(w http.ResponseWriter, code int, data any) {
	WriteJSON(w, code, SuccessEnvelope{Success: true, Data: data})
}

// WriteError wraps a stable error code and human-readable message in the
// error envelope.
func WriteError(w http.ResponseWriter, status int, errCode, message string) {
	WriteJSON(w, status, ErrorEnvelope{Success: false, Error: errCode, Message: message})
}

// ErrorDataEnvelope is ErrorEnvelope plus a payload, for errors that carry
// actionable detail such as an MFA challenge.
type ErrorDataEnvelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// WriteErrorData writes an error envelope carrying a data payload.
func WriteErrorData(w http.ResponseWriter, status int, errCode, message string, data any) {
	WriteJSON(w, status, ErrorDataEnvelope{Success: false, Error: errCode, Message: message, Data: data})
}

// NoCache sets the Cache-Control and Pragma headers to prevent caching.
func NoCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}
