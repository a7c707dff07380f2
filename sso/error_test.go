package sso

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginError(t *testing.T) {
	assert, require := assert.New(t), require.New(t)

	err := NewLoginError(http.StatusUnauthorized, "user is not verified")
	assert.Equal(http.StatusUnauthorized, err.HTTPStatus)
	assert.Equal("login failed (status 401): user is not verified", err.Error())

	assert.True(errors.Is(err, ErrLoginFailed))

	var loginErr *LoginError
	require.True(errors.As(error(err), &loginErr))
	assert.Equal(http.StatusUnauthorized, loginErr.HTTPStatus)
	assert.Equal("user is not verified", loginErr.Message)
}
