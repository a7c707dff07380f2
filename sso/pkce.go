package sso

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// ChallengeMethod represents a PKCE code challenge method (see RFC 7636).
type ChallengeMethod string

// S256 is the only currently supported challenge method. The "plain" method
// is deliberately not supported, since it defeats the purpose of PKCE.
const S256 ChallengeMethod = "S256"

const (
	// MinVerifierLen is the minimum legal verifier length per RFC 7636.
	MinVerifierLen = 43

	// MaxVerifierLen is the maximum legal verifier length per RFC 7636.
	MaxVerifierLen = 128

	// DefaultVerifierLen is the verifier length used when none is requested.
	DefaultVerifierLen = 96
)

// CodeVerifier represents an RFC 7636 PKCE code verifier together with its
// derived S256 code challenge. The verifier must be kept secret until the
// token exchange; the challenge is safe to expose in the authorization URL
// (it is a one-way digest of the verifier).
type CodeVerifier struct {
	verifier  string
	method    ChallengeMethod
	challenge string
}

// NewCodeVerifier creates a cryptographically random, URL-safe, padding-free
// code verifier and its S256 challenge.
//
// Supported options: WithVerifierLength. The requested length is clamped to
// the legal range [MinVerifierLen, MaxVerifierLen].
func NewCodeVerifier(opt ...Option) (*CodeVerifier, error) {
	const op = "sso.NewCodeVerifier"
	opts := getVerifierOpts(opt...)

	length := opts.withVerifierLength
	if length < MinVerifierLen {
		length = MinVerifierLen
	}
	if length > MaxVerifierLen {
		length = MaxVerifierLen
	}

	// base64url expands 3 bytes into 4 chars, so sample enough entropy to
	// cover the requested length before trimming.
	data := make([]byte, (length*3+3)/4)
	if _, err := rand.Read(data); err != nil {
		return nil, fmt.Errorf("%s: unable to generate verifier entropy: %w", op, err)
	}
	verifier := base64.RawURLEncoding.EncodeToString(data)[:length]

	return RestoreCodeVerifier(verifier), nil
}

// RestoreCodeVerifier rebuilds a CodeVerifier from a previously generated
// verifier string, e.g. one round-tripped through a cookie between the
// redirect and callback legs. The challenge is re-derived deterministically.
func RestoreCodeVerifier(verifier string) *CodeVerifier {
	v := &CodeVerifier{
		verifier: verifier,
		method:   S256,
	}
	v.challenge, _ = CreateCodeChallenge(S256, v)
	return v
}

// Verifier returns the verifier string.
func (v *CodeVerifier) Verifier() string { return v.verifier }

// Challenge returns the derived code challenge.
func (v *CodeVerifier) Challenge() string { return v.challenge }

// Method returns the challenge method.
func (v *CodeVerifier) Method() ChallengeMethod { return v.method }

// Copy returns a copy of the verifier.
func (v *CodeVerifier) Copy() *CodeVerifier {
	return &CodeVerifier{
		verifier:  v.verifier,
		method:    v.method,
		challenge: v.challenge,
	}
}

// CreateCodeChallenge creates a code challenge from the verifier using the
// given method. Only the S256 method is supported.
func CreateCodeChallenge(method ChallengeMethod, v *CodeVerifier) (string, error) {
	const op = "sso.CreateCodeChallenge"
	if v == nil {
		return "", fmt.Errorf("%s: verifier is nil: %w", op, ErrNilParameter)
	}
	if method != S256 {
		return "", fmt.Errorf("%s: %q is not supported: %w", op, method, ErrUnsupportedChallengeMethod)
	}
	sum := sha256.Sum256([]byte(v.verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:]), nil
}
