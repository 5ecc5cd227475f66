package gateway

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/hgm-king/ostrich-api/pkg/provider"
)

// Envelope is the single external error shape. Every rejection, whatever its
// internal cause, is reduced to exactly one Envelope before leaving the
// gateway.
type Envelope struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Stable envelope codes.
const (
	codeInvalidRequest = "invalid_request"
	codeNotFound       = "not_found"
	codeInternalError  = "internal_error"
	codeLimitExceeded  = "limit_exceeded"
)

// genericInternalMessage is what clients see for any fault the gateway does
// not have an explicit mapping for. Raw upstream or internal error text must
// never reach a client.
const genericInternalMessage = "an internal error occurred"

// validationError is a client-caused rejection: the request never reaches
// the provider.
type validationError struct {
	reason string
}

func (e *validationError) Error() string {
	return "invalid request: " + e.reason
}

// statusMaps holds, per operation, the provider codes this gateway is
// willing to surface and the HTTP status each maps to. A code absent from an
// operation's map collapses to 500: an unseen provider code is never assumed
// safe to expose.
var statusMaps = map[operation]map[provider.Code]int{
	opLogin: {
		provider.CodeNotAuthorized: http.StatusUnauthorized,
		provider.CodeNotConfirmed:  http.StatusUnauthorized,
		provider.CodeUserNotFound:  http.StatusNotFound,
	},
	opSignUp: {
		provider.CodeUsernameExists:   http.StatusConflict,
		provider.CodeInvalidPassword:  http.StatusBadRequest,
		provider.CodeInvalidParameter: http.StatusBadRequest,
	},
	opVerify: {
		provider.CodeCodeMismatch: http.StatusBadRequest,
		provider.CodeExpiredCode:  http.StatusBadRequest,
		provider.CodeUserNotFound: http.StatusNotFound,
	},
	opResendCode: {
		provider.CodeUserNotFound:    http.StatusNotFound,
		provider.CodeLimitExceeded:   http.StatusTooManyRequests,
		provider.CodeTooManyRequests: http.StatusTooManyRequests,
	},
}

// envelopeCodes are the external spellings of mapped provider codes.
var envelopeCodes = map[provider.Code]string{
	provider.CodeNotAuthorized:    "not_authorized",
	provider.CodeUserNotFound:     "user_not_found",
	provider.CodeUsernameExists:   "username_exists",
	provider.CodeInvalidPassword:  "invalid_password",
	provider.CodeInvalidParameter: "invalid_parameter",
	provider.CodeCodeMismatch:     "code_mismatch",
	provider.CodeExpiredCode:      "expired_code",
	provider.CodeLimitExceeded:    "limit_exceeded",
	provider.CodeNotConfirmed:     "not_confirmed",
	provider.CodeTooManyRequests:  "too_many_requests",
}

// normalize is the one conversion point from a typed rejection to the
// external envelope. Validation failures win over everything else; they are
// produced before any provider dispatch.
func normalize(op operation, err error) Envelope {
	var ve *validationError
	if errors.As(err, &ve) {
		return Envelope{
			Status:  http.StatusBadRequest,
			Code:    codeInvalidRequest,
			Message: ve.reason,
		}
	}

	if pe := provider.AsError(err); pe != nil {
		if status, ok := statusMaps[op][pe.Code]; ok {
			return Envelope{
				Status:  status,
				Code:    envelopeCodes[pe.Code],
				Message: pe.Message,
			}
		}

		return Envelope{
			Status:  http.StatusInternalServerError,
			Code:    codeInternalError,
			Message: genericInternalMessage,
		}
	}

	return Envelope{
		Status:  http.StatusInternalServerError,
		Code:    codeInternalError,
		Message: genericInternalMessage,
	}
}

// notFoundEnvelope is the rejection for unmatched routes and methods.
func notFoundEnvelope() Envelope {
	return Envelope{
		Status:  http.StatusNotFound,
		Code:    codeNotFound,
		Message: "no such route",
	}
}

// writeJSON serializes body with the given status. Encoding failures are
// logged, not surfaced; the status line has already been written.
func writeJSON(log logrus.FieldLogger, w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.WithError(err).Error("Failed to encode response body")
	}
}

// writeEnvelope serializes a rejection envelope.
func writeEnvelope(log logrus.FieldLogger, w http.ResponseWriter, env Envelope) {
	writeJSON(log, w, env.Status, env)
}
