package gateway

import (
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hgm-king/ostrich-api/pkg/observability"
	"github.com/hgm-king/ostrich-api/pkg/provider"
)

// handlerFunc is a gateway operation handler. It returns either a success
// status and body, or a typed error for the rejection normalizer. Handlers
// never write failure responses themselves; normalize is the only place a
// rejection becomes HTTP.
type handlerFunc func(r *http.Request) (int, any, error)

// maxRequestBodyBytes caps request bodies. All four request shapes are a few
// flat fields; anything bigger is not a request this gateway serves.
const maxRequestBodyBytes = 64 << 10

// handle adapts a handlerFunc into an http.HandlerFunc, funnelling every
// failure through normalize and recording per-operation metrics.
func (s *service) handle(op operation, fn handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
		}

		status, body, err := fn(r)
		if err != nil {
			env := normalize(op, err)
			status = env.Status

			s.log.WithFields(logrus.Fields{
				"operation": op,
				"status":    status,
				"code":      env.Code,
			}).Debug("Request rejected")

			writeEnvelope(s.log, w, env)
		} else {
			writeJSON(s.log, w, status, body)
		}

		observability.RequestsTotal.WithLabelValues(string(op), strconv.Itoa(status)).Inc()
		observability.RequestDuration.WithLabelValues(string(op)).Observe(time.Since(start).Seconds())
	}
}

// login exchanges credentials for the provider session payload.
func (s *service) login(r *http.Request) (int, any, error) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		return 0, nil, err
	}

	session, err := s.provider.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		return 0, nil, err
	}

	return http.StatusOK, session, nil
}

// signUp registers a new user with the provider.
func (s *service) signUp(r *http.Request) (int, any, error) {
	var req signUpRequest
	if err := decodeBody(r, &req); err != nil {
		return 0, nil, err
	}

	result, err := s.provider.SignUp(r.Context(), toSignUpInput(req))
	if err != nil {
		return 0, nil, err
	}

	return http.StatusCreated, result, nil
}

// verify confirms a registration with the emailed code.
func (s *service) verify(r *http.Request) (int, any, error) {
	var req verifyRequest
	if err := decodeBody(r, &req); err != nil {
		return 0, nil, err
	}

	if err := s.provider.Verify(r.Context(), req.Username, req.ConfirmationCode); err != nil {
		return 0, nil, err
	}

	return http.StatusOK, map[string]bool{"confirmed": true}, nil
}

// resendCode requests a fresh confirmation code.
func (s *service) resendCode(r *http.Request) (int, any, error) {
	var req resendCodeRequest
	if err := decodeBody(r, &req); err != nil {
		return 0, nil, err
	}

	delivery, err := s.provider.ResendCode(r.Context(), req.Username)
	if err != nil {
		return 0, nil, err
	}

	return http.StatusOK, delivery, nil
}

func toSignUpInput(req signUpRequest) provider.SignUpInput {
	return provider.SignUpInput{
		Username:   req.Username,
		Password:   req.Password,
		Email:      req.Email,
		Attributes: req.Attributes,
	}
}
