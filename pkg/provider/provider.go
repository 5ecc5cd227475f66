// Package provider wraps the external identity provider behind a small
// capability interface. The gateway core only ever sees this interface; the
// Cognito binding lives in cognito.go.
package provider

import (
	"context"
	"time"
)

// Session is the token payload issued by the provider on a successful login.
// The gateway passes it through verbatim; it never inspects or stores tokens.
type Session struct {
	AccessToken  string `json:"access_token,omitempty"`
	IDToken      string `json:"id_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
	ExpiresIn    int32  `json:"expires_in,omitempty"`
}

// SignUpInput carries the fields for a new user registration.
type SignUpInput struct {
	Username   string
	Password   string
	Email      string
	Attributes map[string]string
}

// SignUpResult is the provider acknowledgement of a registration.
type SignUpResult struct {
	UserSub       string `json:"user_sub,omitempty"`
	UserConfirmed bool   `json:"user_confirmed"`
}

// CodeDelivery describes where a confirmation code was sent.
type CodeDelivery struct {
	Medium      string `json:"medium,omitempty"`
	Destination string `json:"destination,omitempty"`
}

// HealthStatus reports provider reachability. Computed fresh per probe,
// never cached.
type HealthStatus struct {
	ProviderReachable bool      `json:"provider_reachable"`
	Timestamp         time.Time `json:"timestamp"`
}

// Client is the identity provider capability consumed by the gateway.
// Implementations bound every call with their own timeout; the gateway
// issues exactly one call per request and never retries.
type Client interface {
	// Login validates credentials and returns the provider session payload.
	Login(ctx context.Context, username, password string) (*Session, error)

	// SignUp registers a new user.
	SignUp(ctx context.Context, in SignUpInput) (*SignUpResult, error)

	// Verify confirms a registration with an emailed code.
	Verify(ctx context.Context, username, code string) error

	// ResendCode requests a fresh confirmation code.
	ResendCode(ctx context.Context, username string) (*CodeDelivery, error)

	// HealthCheck probes provider reachability. It is a lightweight call,
	// not an authentication attempt.
	HealthCheck(ctx context.Context) error
}
