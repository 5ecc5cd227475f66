package provider

import (
	"errors"
	"fmt"
)

// Code identifies a provider rejection. Only codes the gateway has an
// explicit mapping for are enumerated; anything the provider returns beyond
// this set collapses to CodeUnknown so that an unseen upstream code is never
// exposed to clients.
type Code string

const (
	// CodeNotAuthorized indicates the credentials were rejected.
	CodeNotAuthorized Code = "NotAuthorized"

	// CodeUserNotFound indicates no user exists for the given username.
	CodeUserNotFound Code = "UserNotFound"

	// CodeUsernameExists indicates the username is already taken.
	CodeUsernameExists Code = "UsernameExists"

	// CodeInvalidPassword indicates the password does not meet pool policy.
	CodeInvalidPassword Code = "InvalidPassword"

	// CodeInvalidParameter indicates the provider rejected a request parameter.
	CodeInvalidParameter Code = "InvalidParameter"

	// CodeCodeMismatch indicates the confirmation code does not match.
	CodeCodeMismatch Code = "CodeMismatch"

	// CodeExpiredCode indicates the confirmation code has expired.
	CodeExpiredCode Code = "ExpiredCode"

	// CodeLimitExceeded indicates a provider-side quota was exhausted.
	CodeLimitExceeded Code = "LimitExceeded"

	// CodeNotConfirmed indicates the account exists but was never confirmed.
	CodeNotConfirmed Code = "NotConfirmed"

	// CodeTooManyRequests indicates the provider throttled the call.
	CodeTooManyRequests Code = "TooManyRequests"

	// CodeUnknown covers every provider failure without an explicit mapping,
	// including transport faults.
	CodeUnknown Code = "Unknown"
)

// Error is a provider rejection: the upstream accepted the call shape but
// refused the operation for a domain reason, or failed outright.
type Error struct {
	Code    Code
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("provider: %s: %s", e.Code, e.Message)
}

// AsError unwraps a provider Error from err, or nil if err is not one.
func AsError(err error) *Error {
	var pe *Error
	if errors.As(err, &pe) {
		return pe
	}

	return nil
}
