package core

import (
	"encoding/json"
	"net/http"
)

// Response codes. Generic messages are deliberate on the registration,
// resend and reset-request paths: the responses never reveal whether an
// email is registered.
const (
	CodeOkRegistered            = "ok_registered"
	CodeOkEmailVerified         = "ok_email_verified"
	CodeOkVerificationRequested = "ok_verification_requested"
	CodeOkResetRequested        = "ok_password_reset_requested"
	CodeOkPasswordReset         = "ok_password_reset"

	CodeErrorInvalidRequest     = "err_invalid_input"
	CodeErrorInvalidToken       = "err_invalid_token"
	CodeErrorInvalidCredentials = "err_invalid_credentials"
	CodeErrorTooManyRequests    = "err_too_many_requests"
	CodeErrorIpBlocked          = "err_ip_blocked"
	CodeErrorNoAuthHeader       = "err_no_auth_header"
	CodeErrorInvalidTokenFormat = "err_invalid_token_format"
	CodeErrorSessionExpired     = "err_session_expired"
	CodeErrorInvalidSession     = "err_invalid_session"
	CodeErrorForbidden          = "err_forbidden"
	CodeErrorNotFound           = "err_not_found"
	CodeErrorConflict           = "err_conflict"
	CodeErrorInvalidContentType = "err_invalid_content_type"
	CodeErrorInternal           = "err_internal"
)

// precomputeBasicResponse marshals the envelope once at init so request
// handling just writes the stored bytes.
func precomputeBasicResponse(status int, code, message string) jsonResponse {
	body, _ := json.Marshal(JsonBasic{Status: status, Code: code, Message: message})
	return jsonResponse{status: status, body: body}
}

var (
	okRegistered = precomputeBasicResponse(http.StatusCreated, CodeOkRegistered,
		"Registration received. If the address is new, a verification email is on its way")
	okEmailVerified = precomputeBasicResponse(http.StatusOK, CodeOkEmailVerified,
		"Email address verified, the account is now active")
	okVerificationRequested = precomputeBasicResponse(http.StatusOK, CodeOkVerificationRequested,
		"If the address belongs to an unverified account, a verification email is on its way")
	okResetRequested = precomputeBasicResponse(http.StatusAccepted, CodeOkResetRequested,
		"If the address belongs to an account, a password reset email is on its way")
	okPasswordReset = precomputeBasicResponse(http.StatusOK, CodeOkPasswordReset,
		"Password updated")

	errorInvalidRequest = precomputeBasicResponse(http.StatusBadRequest, CodeErrorInvalidRequest,
		"The request contains invalid data")
	errorInvalidToken = precomputeBasicResponse(http.StatusBadRequest, CodeErrorInvalidToken,
		"The token is invalid or has expired")
	errorInvalidCredentials = precomputeBasicResponse(http.StatusUnauthorized, CodeErrorInvalidCredentials,
		"Invalid credentials provided")
	errorTooManyRequests = precomputeBasicResponse(http.StatusTooManyRequests, CodeErrorTooManyRequests,
		"Too many requests, please try again later")
	errorIpBlocked = precomputeBasicResponse(http.StatusTooManyRequests, CodeErrorIpBlocked,
		"Address blocked due to excessive requests, please try again later")
	errorNoAuthHeader = precomputeBasicResponse(http.StatusUnauthorized, CodeErrorNoAuthHeader,
		"Authorization header is required")
	errorInvalidTokenFormat = precomputeBasicResponse(http.StatusUnauthorized, CodeErrorInvalidTokenFormat,
		"Invalid authorization token format")
	errorSessionExpired = precomputeBasicResponse(http.StatusUnauthorized, CodeErrorSessionExpired,
		"Session has expired")
	errorInvalidSession = precomputeBasicResponse(http.StatusUnauthorized, CodeErrorInvalidSession,
		"Invalid session token")
	errorForbidden = precomputeBasicResponse(http.StatusForbidden, CodeErrorForbidden,
		"Not allowed to perform this action")
	errorNotFound = precomputeBasicResponse(http.StatusNotFound, CodeErrorNotFound,
		"Requested resource not found")
	errorConflict = precomputeBasicResponse(http.StatusConflict, CodeErrorConflict,
		"The resource changed concurrently, retry the request")
	errorInvalidContentType = precomputeBasicResponse(http.StatusUnsupportedMediaType, CodeErrorInvalidContentType,
		"Unsupported media type")
	errorInternal = precomputeBasicResponse(http.StatusInternalServerError, CodeErrorInternal,
		"Something went wrong")
)
