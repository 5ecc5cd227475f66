package provider

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/aws/smithy-go"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hgm-king/ostrich-api/pkg/observability"
)

// fakeCognitoAPI records inputs and returns canned outputs.
type fakeCognitoAPI struct {
	initiateAuthIn  *cip.InitiateAuthInput
	initiateAuthOut *cip.InitiateAuthOutput
	initiateAuthErr error

	signUpIn  *cip.SignUpInput
	signUpOut *cip.SignUpOutput
	signUpErr error

	confirmIn  *cip.ConfirmSignUpInput
	confirmErr error

	resendIn  *cip.ResendConfirmationCodeInput
	resendOut *cip.ResendConfirmationCodeOutput
	resendErr error

	describeIn  *cip.DescribeUserPoolInput
	describeErr error
}

func (f *fakeCognitoAPI) InitiateAuth(_ context.Context, in *cip.InitiateAuthInput, _ ...func(*cip.Options)) (*cip.InitiateAuthOutput, error) {
	f.initiateAuthIn = in
	return f.initiateAuthOut, f.initiateAuthErr
}

func (f *fakeCognitoAPI) SignUp(_ context.Context, in *cip.SignUpInput, _ ...func(*cip.Options)) (*cip.SignUpOutput, error) {
	f.signUpIn = in
	return f.signUpOut, f.signUpErr
}

func (f *fakeCognitoAPI) ConfirmSignUp(_ context.Context, in *cip.ConfirmSignUpInput, _ ...func(*cip.Options)) (*cip.ConfirmSignUpOutput, error) {
	f.confirmIn = in
	return &cip.ConfirmSignUpOutput{}, f.confirmErr
}

func (f *fakeCognitoAPI) ResendConfirmationCode(_ context.Context, in *cip.ResendConfirmationCodeInput, _ ...func(*cip.Options)) (*cip.ResendConfirmationCodeOutput, error) {
	f.resendIn = in
	return f.resendOut, f.resendErr
}

func (f *fakeCognitoAPI) DescribeUserPool(_ context.Context, in *cip.DescribeUserPoolInput, _ ...func(*cip.Options)) (*cip.DescribeUserPoolOutput, error) {
	f.describeIn = in
	return &cip.DescribeUserPoolOutput{}, f.describeErr
}

func testLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)

	return log
}

func newTestClient(api cognitoAPI, secret string) *CognitoClient {
	return &CognitoClient{
		log:          testLogger(),
		api:          api,
		userPoolID:   "us-east-1_test",
		clientID:     "client-id",
		clientSecret: secret,
		timeout:      time.Second,
	}
}

func TestLogin_PassesThroughSession(t *testing.T) {
	api := &fakeCognitoAPI{
		initiateAuthOut: &cip.InitiateAuthOutput{
			AuthenticationResult: &types.AuthenticationResultType{
				AccessToken:  aws.String("access"),
				IdToken:      aws.String("id"),
				RefreshToken: aws.String("refresh"),
				TokenType:    aws.String("Bearer"),
				ExpiresIn:    3600,
			},
		},
	}

	session, err := newTestClient(api, "").Login(context.Background(), "alice", "pw")
	require.NoError(t, err)

	assert.Equal(t, "access", session.AccessToken)
	assert.Equal(t, "id", session.IDToken)
	assert.Equal(t, "refresh", session.RefreshToken)
	assert.Equal(t, "Bearer", session.TokenType)
	assert.Equal(t, int32(3600), session.ExpiresIn)

	require.NotNil(t, api.initiateAuthIn)
	assert.Equal(t, types.AuthFlowTypeUserPasswordAuth, api.initiateAuthIn.AuthFlow)
	assert.Equal(t, "alice", api.initiateAuthIn.AuthParameters["USERNAME"])
	assert.NotContains(t, api.initiateAuthIn.AuthParameters, "SECRET_HASH")
}

func TestLogin_SecretHashIncludedWhenConfigured(t *testing.T) {
	api := &fakeCognitoAPI{
		initiateAuthOut: &cip.InitiateAuthOutput{
			AuthenticationResult: &types.AuthenticationResultType{},
		},
	}

	c := newTestClient(api, "top-secret")

	_, err := c.Login(context.Background(), "alice", "pw")
	require.NoError(t, err)

	mac := hmac.New(sha256.New, []byte("top-secret"))
	mac.Write([]byte("alice" + "client-id"))
	want := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	assert.Equal(t, want, api.initiateAuthIn.AuthParameters["SECRET_HASH"])
}

func TestLogin_ChallengeIsNotAuthorized(t *testing.T) {
	api := &fakeCognitoAPI{
		initiateAuthOut: &cip.InitiateAuthOutput{ChallengeName: types.ChallengeNameTypeSmsMfa},
	}

	successBefore := testutil.ToFloat64(observability.ProviderCallsTotal.WithLabelValues("login", "success"))
	errorBefore := testutil.ToFloat64(observability.ProviderCallsTotal.WithLabelValues("login", "error"))

	_, err := newTestClient(api, "").Login(context.Background(), "alice", "pw")
	require.Error(t, err)

	pe := AsError(err)
	require.NotNil(t, pe)
	assert.Equal(t, CodeNotAuthorized, pe.Code)

	// A challenge yields no usable session, so it must not count as a
	// successful provider call.
	assert.Equal(t, successBefore, testutil.ToFloat64(observability.ProviderCallsTotal.WithLabelValues("login", "success")))
	assert.Equal(t, errorBefore+1, testutil.ToFloat64(observability.ProviderCallsTotal.WithLabelValues("login", "error")))
}

func TestSignUp_SetsEmailAttribute(t *testing.T) {
	api := &fakeCognitoAPI{
		signUpOut: &cip.SignUpOutput{
			UserSub:       aws.String("sub-123"),
			UserConfirmed: false,
		},
	}

	result, err := newTestClient(api, "").SignUp(context.Background(), SignUpInput{
		Username:   "alice",
		Password:   "pw",
		Email:      "alice@example.com",
		Attributes: map[string]string{"name": "Alice"},
	})
	require.NoError(t, err)

	assert.Equal(t, "sub-123", result.UserSub)
	assert.False(t, result.UserConfirmed)

	attrs := map[string]string{}
	for _, a := range api.signUpIn.UserAttributes {
		attrs[aws.ToString(a.Name)] = aws.ToString(a.Value)
	}

	assert.Equal(t, "alice@example.com", attrs["email"])
	assert.Equal(t, "Alice", attrs["name"])
}

func TestResendCode_ReturnsDelivery(t *testing.T) {
	api := &fakeCognitoAPI{
		resendOut: &cip.ResendConfirmationCodeOutput{
			CodeDeliveryDetails: &types.CodeDeliveryDetailsType{
				DeliveryMedium: types.DeliveryMediumTypeEmail,
				Destination:    aws.String("a***@example.com"),
			},
		},
	}

	delivery, err := newTestClient(api, "").ResendCode(context.Background(), "alice")
	require.NoError(t, err)

	assert.Equal(t, "EMAIL", delivery.Medium)
	assert.Equal(t, "a***@example.com", delivery.Destination)
}

func TestHealthCheck(t *testing.T) {
	t.Run("reachable", func(t *testing.T) {
		api := &fakeCognitoAPI{}

		require.NoError(t, newTestClient(api, "").HealthCheck(context.Background()))
		require.NotNil(t, api.describeIn)
		assert.Equal(t, "us-east-1_test", aws.ToString(api.describeIn.UserPoolId))
	})

	t.Run("unreachable", func(t *testing.T) {
		api := &fakeCognitoAPI{describeErr: context.DeadlineExceeded}

		assert.Error(t, newTestClient(api, "").HealthCheck(context.Background()))
	})
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"not authorized", &types.NotAuthorizedException{Message: aws.String("bad creds")}, CodeNotAuthorized},
		{"user not found", &types.UserNotFoundException{Message: aws.String("no user")}, CodeUserNotFound},
		{"username exists", &types.UsernameExistsException{Message: aws.String("taken")}, CodeUsernameExists},
		{"invalid password", &types.InvalidPasswordException{Message: aws.String("weak")}, CodeInvalidPassword},
		{"invalid parameter", &types.InvalidParameterException{Message: aws.String("bad param")}, CodeInvalidParameter},
		{"code mismatch", &types.CodeMismatchException{Message: aws.String("wrong code")}, CodeCodeMismatch},
		{"expired code", &types.ExpiredCodeException{Message: aws.String("too late")}, CodeExpiredCode},
		{"limit exceeded", &types.LimitExceededException{Message: aws.String("quota")}, CodeLimitExceeded},
		{"not confirmed", &types.UserNotConfirmedException{Message: aws.String("confirm first")}, CodeNotConfirmed},
		{"too many requests", &types.TooManyRequestsException{Message: aws.String("slow down")}, CodeTooManyRequests},
		{"unrecognized api error", &smithy.GenericAPIError{Code: "SoftwareTokenMFANotFoundException", Message: "mfa"}, CodeUnknown},
		{"transport fault", errors.New("connection refused"), CodeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pe := AsError(mapError(tt.err))
			require.NotNil(t, pe)
			assert.Equal(t, tt.want, pe.Code)
		})
	}
}

func TestMapError_WrappedProviderErrorSurvives(t *testing.T) {
	err := mapError(&types.UserNotFoundException{Message: aws.String("no user")})

	pe := AsError(err)
	require.NotNil(t, pe)
	assert.Equal(t, CodeUserNotFound, pe.Code)
	assert.Equal(t, "no user", pe.Message)
}
