package sso

import (
	"context"
	"fmt"
	"net/http"
)

// Features describes the optional protocol capabilities a provider adapter
// declares. The zero value is a plain authorization code flow: no PKCE, no
// pre-generated state, identity from the userinfo endpoint, client
// authentication via HTTP Basic.
type Features struct {
	// UsesPKCE indicates the provider requires an RFC 7636
	// verifier/challenge pair. A fresh pair is generated on session entry
	// and the verifier is round-tripped through a cookie to the callback.
	UsesPKCE bool

	// RequiresState indicates a fresh anti-CSRF state value should be
	// generated on session entry and included in the login URL.
	RequiresState bool

	// UseIDTokenForUserInfo indicates the identity should be decoded from
	// the id_token returned by the token endpoint instead of fetched from
	// the userinfo endpoint. Adapters declaring this must implement
	// TokenConverter.
	UseIDTokenForUserInfo bool

	// DisableBasicAuth sends the client credentials in the token request
	// body instead of an HTTP Basic authorization header.
	DisableBasicAuth bool
}

// Provider is the adapter contract implemented once per identity provider.
// Adapter values are immutable and long-lived; per-login mutable state lives
// in the Session, never in the adapter.
type Provider interface {
	// Name returns the stable provider name (e.g. "github"). It is copied
	// into the Provider field of produced OpenID records.
	Name() string

	// Scopes returns the default OAuth2 scopes requested for this provider.
	// A Config.Scopes override takes precedence.
	Scopes() []string

	// Features declares the adapter's protocol capabilities.
	Features() Features

	// DiscoveryDocument resolves the provider's three endpoint URLs. The
	// supplied client must be used for any remote fetch. Adapters that hit
	// a network discovery endpoint are responsible for their own caching.
	DiscoveryDocument(ctx context.Context, client *http.Client) (DiscoveryDocument, error)

	// OpenIDFromResponse converts the raw userinfo response into a
	// normalized OpenID record. The supplied client carries the user's
	// access token and may be used for follow-up calls (e.g. a separate
	// emails endpoint).
	OpenIDFromResponse(ctx context.Context, response map[string]interface{}, client *http.Client) (*OpenID, error)
}

// TokenConverter is the optional capability for adapters that derive the
// identity from the id_token payload instead of the userinfo response.
// Required when Features.UseIDTokenForUserInfo is set; checked at Client
// construction.
type TokenConverter interface {
	OpenIDFromToken(ctx context.Context, claims map[string]interface{}, client *http.Client) (*OpenID, error)
}

// AuthParamsExtender is the optional capability for adapters that need extra
// query parameters on the authorization URL (e.g. a provider requiring its
// client secret in the query string, or a fixed response_mode).
type AuthParamsExtender interface {
	ExtraAuthParams(c Config) map[string]string
}

// TokenParamsExtender is the optional capability for adapters that need
// extra body parameters on the token request beyond the standard ones.
type TokenParamsExtender interface {
	ExtraTokenParams(c Config) map[string]string
}

// HeaderExtender is the optional capability for adapters that need extra
// headers on the userinfo request (e.g. GitHub's "accept:
// application/json").
type HeaderExtender interface {
	AdditionalHeaders() map[string]string
}

// UnimplementedProvider is a base for incomplete adapters: every method
// fails with ErrUnsupportedProvider. Embed it while building a new adapter
// to satisfy the Provider interface before all capabilities exist.
type UnimplementedProvider struct{}

var _ Provider = (*UnimplementedProvider)(nil)

func (UnimplementedProvider) Name() string       { return "" }
func (UnimplementedProvider) Scopes() []string   { return nil }
func (UnimplementedProvider) Features() Features { return Features{} }

func (UnimplementedProvider) DiscoveryDocument(context.Context, *http.Client) (DiscoveryDocument, error) {
	const op = "UnimplementedProvider.DiscoveryDocument"
	return DiscoveryDocument{}, fmt.Errorf("%s: no discovery document: %w", op, ErrUnsupportedProvider)
}

func (UnimplementedProvider) OpenIDFromResponse(context.Context, map[string]interface{}, *http.Client) (*OpenID, error) {
	const op = "UnimplementedProvider.OpenIDFromResponse"
	return nil, fmt.Errorf("%s: no response convertor: %w", op, ErrUnsupportedProvider)
}
