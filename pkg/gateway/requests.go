package gateway

import (
	"encoding/json"
	"net/http"
	"strings"
)

// operation identifies a gateway operation for dispatch, rejection mapping
// and metrics labels.
type operation string

const (
	opHealth     operation = "health"
	opLogin      operation = "login"
	opSignUp     operation = "sign_up"
	opVerify     operation = "verify"
	opResendCode operation = "resend_code"
)

// operationForPath resolves the operation label for middleware that rejects
// before a handler is reached.
func operationForPath(path string) operation {
	switch path {
	case "/login":
		return opLogin
	case "/sign-up":
		return opSignUp
	case "/verify":
		return opVerify
	case "/resend-code":
		return opResendCode
	case "/health":
		return opHealth
	}

	return operation(strings.TrimPrefix(path, "/"))
}

// Request bodies, one per operation. Validation is a pure function of the
// request: a body failing it never reaches the provider.

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r *loginRequest) validate() error {
	switch {
	case r.Username == "":
		return &validationError{reason: "username is required"}
	case r.Password == "":
		return &validationError{reason: "password is required"}
	}

	return nil
}

type signUpRequest struct {
	Username   string            `json:"username"`
	Password   string            `json:"password"`
	Email      string            `json:"email"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

func (r *signUpRequest) validate() error {
	switch {
	case r.Username == "":
		return &validationError{reason: "username is required"}
	case r.Password == "":
		return &validationError{reason: "password is required"}
	case r.Email == "":
		return &validationError{reason: "email is required"}
	}

	return nil
}

type verifyRequest struct {
	Username         string `json:"username"`
	ConfirmationCode string `json:"confirmation_code"`
}

func (r *verifyRequest) validate() error {
	switch {
	case r.Username == "":
		return &validationError{reason: "username is required"}
	case r.ConfirmationCode == "":
		return &validationError{reason: "confirmation_code is required"}
	}

	return nil
}

type resendCodeRequest struct {
	Username string `json:"username"`
}

func (r *resendCodeRequest) validate() error {
	if r.Username == "" {
		return &validationError{reason: "username is required"}
	}

	return nil
}

// decodeBody parses the JSON request body into v. An unparseable body is a
// validation rejection, not an internal fault.
func decodeBody(r *http.Request, v interface{ validate() error }) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &validationError{reason: "malformed body"}
	}

	return v.validate()
}
