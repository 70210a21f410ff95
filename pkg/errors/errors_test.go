package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Error(t *testing.T) {
	err := New(ErrCodeUserAlreadyExists, "User already registered")
	assert.Equal(t, "[USER_ALREADY_EXISTS] User already registered", err.Error())

	wrapped := Wrap(fmt.Errorf("boom"), ErrCodeInternal, "insert failed")
	assert.Equal(t, "[INTERNAL_ERROR] insert failed: boom", wrapped.Error())
}

func TestWrap_NilError(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrCodeInternal, "nothing"))
}

func TestIsCodeThroughWrapping(t *testing.T) {
	base := AlreadyExists("User already registered")
	outer := fmt.Errorf("create account: %w", base)

	assert.True(t, IsCode(outer, ErrCodeUserAlreadyExists))
	assert.False(t, IsCode(outer, ErrCodeTimeout))
	assert.Equal(t, ErrCodeUserAlreadyExists, GetCode(outer))
	assert.Equal(t, ErrCodeInternal, GetCode(errors.New("plain")))
}

func TestTimeoutUnwrapsDeadline(t *testing.T) {
	err := Timeout(context.DeadlineExceeded, "provider call timed out")
	require.NotNil(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, http.StatusServiceUnavailable, err.HTTPStatusCode())
}

func TestValidationFailedDetails(t *testing.T) {
	err := ValidationFailed(map[string]string{"email": "Sähköposti vaaditaan"})
	assert.Equal(t, "Sähköposti vaaditaan", GetDetails(err)["email"])
	assert.Equal(t, http.StatusBadRequest, err.HTTPStatusCode())
}

func TestMapErrorCodeToHTTPStatus(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{ErrCodeInvalidInput, http.StatusBadRequest},
		{ErrCodeTokenExpired, http.StatusBadRequest},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeUserAlreadyExists, http.StatusConflict},
		{ErrCodeProviderRejected, http.StatusBadGateway},
		{ErrCodeRateLimitExceeded, http.StatusTooManyRequests},
		{ErrCodeTimeout, http.StatusServiceUnavailable},
		{ErrCodeInternal, http.StatusInternalServerError},
		{ErrorCode("SOMETHING_ELSE"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, MapErrorCodeToHTTPStatus(tt.code))
		})
	}
}
