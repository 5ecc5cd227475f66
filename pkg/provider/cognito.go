package provider

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/aws/smithy-go"
	"github.com/sirupsen/logrus"

	"github.com/hgm-king/ostrich-api/pkg/config"
	"github.com/hgm-king/ostrich-api/pkg/observability"
)

// healthCheckTimeout bounds the reachability probe independently of the
// regular call timeout so a slow pool cannot stall /health.
const healthCheckTimeout = 3 * time.Second

// cognitoAPI is the subset of the Cognito IDP API the client uses.
// Narrowed to an interface so tests can fake the upstream.
type cognitoAPI interface {
	InitiateAuth(ctx context.Context, in *cip.InitiateAuthInput, optFns ...func(*cip.Options)) (*cip.InitiateAuthOutput, error)
	SignUp(ctx context.Context, in *cip.SignUpInput, optFns ...func(*cip.Options)) (*cip.SignUpOutput, error)
	ConfirmSignUp(ctx context.Context, in *cip.ConfirmSignUpInput, optFns ...func(*cip.Options)) (*cip.ConfirmSignUpOutput, error)
	ResendConfirmationCode(ctx context.Context, in *cip.ResendConfirmationCodeInput, optFns ...func(*cip.Options)) (*cip.ResendConfirmationCodeOutput, error)
	DescribeUserPool(ctx context.Context, in *cip.DescribeUserPoolInput, optFns ...func(*cip.Options)) (*cip.DescribeUserPoolOutput, error)
}

// CognitoClient implements Client against an AWS Cognito user pool.
type CognitoClient struct {
	log          logrus.FieldLogger
	api          cognitoAPI
	userPoolID   string
	clientID     string
	clientSecret string
	timeout      time.Duration
}

// Compile-time interface compliance check.
var _ Client = (*CognitoClient)(nil)

// NewCognitoClient creates a Cognito-backed identity provider client.
func NewCognitoClient(ctx context.Context, log logrus.FieldLogger, cfg config.ProviderConfig) (*CognitoClient, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}

	if cfg.AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	api := cip.NewFromConfig(awsCfg, func(o *cip.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return &CognitoClient{
		log:          log.WithField("component", "cognito"),
		api:          api,
		userPoolID:   cfg.UserPoolID,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		timeout:      cfg.Timeout,
	}, nil
}

// Login validates credentials via the USER_PASSWORD_AUTH flow.
func (c *CognitoClient) Login(ctx context.Context, username, password string) (*Session, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := map[string]string{
		"USERNAME": username,
		"PASSWORD": password,
	}

	if c.clientSecret != "" {
		params["SECRET_HASH"] = c.secretHash(username)
	}

	out, err := c.api.InitiateAuth(ctx, &cip.InitiateAuthInput{
		AuthFlow:       types.AuthFlowTypeUserPasswordAuth,
		ClientId:       aws.String(c.clientID),
		AuthParameters: params,
	})
	if err != nil {
		observability.ProviderCallsTotal.WithLabelValues("login", "error").Inc()

		return nil, mapError(err)
	}

	if out.AuthenticationResult == nil {
		// Challenge flows (MFA, password reset) are not part of this
		// gateway's surface; the call did not produce a usable session.
		observability.ProviderCallsTotal.WithLabelValues("login", "error").Inc()

		return nil, &Error{Code: CodeNotAuthorized, Message: "authentication challenge not supported"}
	}

	observability.ProviderCallsTotal.WithLabelValues("login", "success").Inc()

	res := out.AuthenticationResult

	return &Session{
		AccessToken:  aws.ToString(res.AccessToken),
		IDToken:      aws.ToString(res.IdToken),
		RefreshToken: aws.ToString(res.RefreshToken),
		TokenType:    aws.ToString(res.TokenType),
		ExpiresIn:    res.ExpiresIn,
	}, nil
}

// SignUp registers a new user in the pool.
func (c *CognitoClient) SignUp(ctx context.Context, in SignUpInput) (*SignUpResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	attrs := []types.AttributeType{
		{Name: aws.String("email"), Value: aws.String(in.Email)},
	}

	for name, value := range in.Attributes {
		attrs = append(attrs, types.AttributeType{
			Name:  aws.String(name),
			Value: aws.String(value),
		})
	}

	input := &cip.SignUpInput{
		ClientId:       aws.String(c.clientID),
		Username:       aws.String(in.Username),
		Password:       aws.String(in.Password),
		UserAttributes: attrs,
	}

	if c.clientSecret != "" {
		input.SecretHash = aws.String(c.secretHash(in.Username))
	}

	out, err := c.api.SignUp(ctx, input)
	if err != nil {
		observability.ProviderCallsTotal.WithLabelValues("sign_up", "error").Inc()

		return nil, mapError(err)
	}

	observability.ProviderCallsTotal.WithLabelValues("sign_up", "success").Inc()

	return &SignUpResult{
		UserSub:       aws.ToString(out.UserSub),
		UserConfirmed: out.UserConfirmed,
	}, nil
}

// Verify confirms a registration with the emailed code.
func (c *CognitoClient) Verify(ctx context.Context, username, code string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	input := &cip.ConfirmSignUpInput{
		ClientId:         aws.String(c.clientID),
		Username:         aws.String(username),
		ConfirmationCode: aws.String(code),
	}

	if c.clientSecret != "" {
		input.SecretHash = aws.String(c.secretHash(username))
	}

	if _, err := c.api.ConfirmSignUp(ctx, input); err != nil {
		observability.ProviderCallsTotal.WithLabelValues("verify", "error").Inc()

		return mapError(err)
	}

	observability.ProviderCallsTotal.WithLabelValues("verify", "success").Inc()

	return nil
}

// ResendCode requests a fresh confirmation code for the user.
func (c *CognitoClient) ResendCode(ctx context.Context, username string) (*CodeDelivery, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	input := &cip.ResendConfirmationCodeInput{
		ClientId: aws.String(c.clientID),
		Username: aws.String(username),
	}

	if c.clientSecret != "" {
		input.SecretHash = aws.String(c.secretHash(username))
	}

	out, err := c.api.ResendConfirmationCode(ctx, input)
	if err != nil {
		observability.ProviderCallsTotal.WithLabelValues("resend_code", "error").Inc()

		return nil, mapError(err)
	}

	observability.ProviderCallsTotal.WithLabelValues("resend_code", "success").Inc()

	delivery := &CodeDelivery{}
	if out.CodeDeliveryDetails != nil {
		delivery.Medium = string(out.CodeDeliveryDetails.DeliveryMedium)
		delivery.Destination = aws.ToString(out.CodeDeliveryDetails.Destination)
	}

	return delivery, nil
}

// HealthCheck probes the user pool with a bounded describe call.
func (c *CognitoClient) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	_, err := c.api.DescribeUserPool(ctx, &cip.DescribeUserPoolInput{
		UserPoolId: aws.String(c.userPoolID),
	})
	if err != nil {
		observability.ProviderReachable.Set(0)

		return fmt.Errorf("describing user pool: %w", err)
	}

	observability.ProviderReachable.Set(1)

	return nil
}

// secretHash computes the Cognito SECRET_HASH for a username:
// base64(HMAC-SHA256(username + clientID, clientSecret)).
func (c *CognitoClient) secretHash(username string) string {
	mac := hmac.New(sha256.New, []byte(c.clientSecret))
	mac.Write([]byte(username + c.clientID))

	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// mapError reduces a Cognito SDK error to the provider error taxonomy.
// Anything without an explicit mapping, including transport and deadline
// failures, becomes CodeUnknown so the gateway never trusts an unseen code.
func mapError(err error) error {
	var (
		notAuthorized    *types.NotAuthorizedException
		userNotFound     *types.UserNotFoundException
		usernameExists   *types.UsernameExistsException
		invalidPassword  *types.InvalidPasswordException
		invalidParameter *types.InvalidParameterException
		codeMismatch     *types.CodeMismatchException
		expiredCode      *types.ExpiredCodeException
		limitExceeded    *types.LimitExceededException
		notConfirmed     *types.UserNotConfirmedException
		tooManyRequests  *types.TooManyRequestsException
	)

	switch {
	case errors.As(err, &notAuthorized):
		return &Error{Code: CodeNotAuthorized, Message: notAuthorized.ErrorMessage()}
	case errors.As(err, &userNotFound):
		return &Error{Code: CodeUserNotFound, Message: userNotFound.ErrorMessage()}
	case errors.As(err, &usernameExists):
		return &Error{Code: CodeUsernameExists, Message: usernameExists.ErrorMessage()}
	case errors.As(err, &invalidPassword):
		return &Error{Code: CodeInvalidPassword, Message: invalidPassword.ErrorMessage()}
	case errors.As(err, &invalidParameter):
		return &Error{Code: CodeInvalidParameter, Message: invalidParameter.ErrorMessage()}
	case errors.As(err, &codeMismatch):
		return &Error{Code: CodeCodeMismatch, Message: codeMismatch.ErrorMessage()}
	case errors.As(err, &expiredCode):
		return &Error{Code: CodeExpiredCode, Message: expiredCode.ErrorMessage()}
	case errors.As(err, &limitExceeded):
		return &Error{Code: CodeLimitExceeded, Message: limitExceeded.ErrorMessage()}
	case errors.As(err, &notConfirmed):
		return &Error{Code: CodeNotConfirmed, Message: notConfirmed.ErrorMessage()}
	case errors.As(err, &tooManyRequests):
		return &Error{Code: CodeTooManyRequests, Message: tooManyRequests.ErrorMessage()}
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return &Error{Code: CodeUnknown, Message: apiErr.ErrorMessage()}
	}

	return &Error{Code: CodeUnknown, Message: err.Error()}
}
