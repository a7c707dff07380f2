package sso

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidParameter           = errors.New("invalid parameter")
	ErrNilParameter               = errors.New("nil parameter")
	ErrInvalidCACert              = errors.New("invalid CA certificate")
	ErrIDGeneratorFailed          = errors.New("id generation failed")
	ErrMissingRedirectURL         = errors.New("missing redirect URL")
	ErrUnsupportedProvider        = errors.New("provider not supported")
	ErrUnsupportedChallengeMethod = errors.New("unsupported challenge method")
	ErrMissingIDToken             = errors.New("id_token is missing")
	ErrLoginFailed                = errors.New("login failed")
	ErrUserInfoFailed             = errors.New("user info failed")
)

// LoginError represents a protocol-level login failure (a missing
// authorization code, a provider that did not return a required id_token, a
// provider-specific verification failure such as an unverified email). It
// carries an HTTP-style status code so callers can surface it directly as the
// callback endpoint's error response.
//
// LoginError unwraps to ErrLoginFailed, so errors.Is(err, ErrLoginFailed)
// matches every login failure regardless of status.
type LoginError struct {
	// HTTPStatus is the suggested status code for the callback response.
	HTTPStatus int

	// Message describes the failure. It is safe to return to the end user.
	Message string
}

// NewLoginError creates a LoginError with the given HTTP status and message.
func NewLoginError(status int, msg string) *LoginError {
	return &LoginError{
		HTTPStatus: status,
		Message:    msg,
	}
}

func (e *LoginError) Error() string {
	return fmt.Sprintf("login failed (status %d): %s", e.HTTPStatus, e.Message)
}

func (e *LoginError) Unwrap() error { return ErrLoginFailed }
