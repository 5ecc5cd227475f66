package gateway

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hgm-king/ostrich-api/pkg/provider"
)

func TestNormalize_ValidationTakesPrecedence(t *testing.T) {
	env := normalize(opLogin, &validationError{reason: "username is required"})

	assert.Equal(t, http.StatusBadRequest, env.Status)
	assert.Equal(t, codeInvalidRequest, env.Code)
	assert.Equal(t, "username is required", env.Message)
}

func TestNormalize_UntypedErrorNeverLeaks(t *testing.T) {
	env := normalize(opLogin, errors.New("dial tcp: connection refused to 10.0.0.5"))

	assert.Equal(t, http.StatusInternalServerError, env.Status)
	assert.Equal(t, codeInternalError, env.Code)
	assert.Equal(t, genericInternalMessage, env.Message)
}

func TestNormalize_MappedCodeKeepsProviderMessage(t *testing.T) {
	env := normalize(opSignUp, &provider.Error{
		Code:    provider.CodeUsernameExists,
		Message: "User already exists",
	})

	assert.Equal(t, http.StatusConflict, env.Status)
	assert.Equal(t, "username_exists", env.Code)
	assert.Equal(t, "User already exists", env.Message)
}

func TestStatusMaps_EveryMappedCodeHasEnvelopeSpelling(t *testing.T) {
	for op, codes := range statusMaps {
		for code := range codes {
			assert.Contains(t, envelopeCodes, code,
				"operation %s maps %s without an external spelling", op, code)
		}
	}
}
