package sso

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"

	"github.com/oidcware/go-sso/internal/httputil"
	"github.com/oidcware/go-sso/internal/strutils"
)

// ClientSecret is the relying party secret. Its string and JSON
// representations are redacted so the secret cannot leak through logs.
type ClientSecret string

// RedactedClientSecret is the redacted string or json for an oauth client
// secret.
const RedactedClientSecret = "[REDACTED: client secret]"

// String will redact the client secret.
func (t ClientSecret) String() string {
	return RedactedClientSecret
}

// MarshalJSON will redact the client secret.
func (t ClientSecret) MarshalJSON() ([]byte, error) {
	return json.Marshal(RedactedClientSecret)
}

// Config holds the relying-party credentials and policy for one Client.
type Config struct {
	// ClientID is the relying party id issued by the provider.
	ClientID string

	// ClientSecret is the relying party secret issued by the provider.
	ClientSecret ClientSecret

	// RedirectURL is the callback URL registered with the provider. It may
	// be left empty and supplied per call via WithRedirectURL instead.
	RedirectURL string

	// AllowInsecureHTTP permits plain-http callback URLs. Intended for
	// local development only; when false, callback URLs are upgraded to
	// https before the token exchange.
	AllowInsecureHTTP bool

	// Scopes overrides the adapter's default scope list when non-empty.
	Scopes []string

	// ProviderCA is an optional CA cert PEM to trust when talking to the
	// provider.
	ProviderCA string

	// Logger receives the engine's non-fatal security warnings. Defaults
	// to hclog.Default() named "sso".
	Logger hclog.Logger

	// HTTPClient overrides the default cleanhttp-based client. Useful for
	// tests and custom transports.
	HTTPClient *http.Client
}

// Validate the client configuration. Failures are aggregated so a caller
// sees every problem at once. The RedirectURL is optional at construction
// but must be a valid http(s) URL when present.
func (c *Config) Validate() error {
	const op = "Config.Validate"
	if c == nil {
		return fmt.Errorf("%s: config is nil: %w", op, ErrNilParameter)
	}
	var result *multierror.Error
	if c.ClientID == "" {
		result = multierror.Append(result, fmt.Errorf("%s: client id is empty: %w", op, ErrInvalidParameter))
	}
	if c.ClientSecret == "" {
		result = multierror.Append(result, fmt.Errorf("%s: client secret is empty: %w", op, ErrInvalidParameter))
	}
	if c.RedirectURL != "" {
		u, err := url.Parse(c.RedirectURL)
		switch {
		case err != nil:
			result = multierror.Append(result, fmt.Errorf("%s: redirect URL %s is invalid: %w", op, c.RedirectURL, err))
		case !strutils.StrListContains([]string{"https", "http"}, u.Scheme):
			result = multierror.Append(result, fmt.Errorf("%s: redirect URL %s scheme is not http or https: %w", op, c.RedirectURL, ErrInvalidParameter))
		}
	}
	return result.ErrorOrNil()
}

// httpClient returns the configured client, or a new one trusting the
// optional provider CA.
func (c *Config) httpClient() (*http.Client, error) {
	const op = "Config.httpClient"
	if c.HTTPClient != nil {
		return c.HTTPClient, nil
	}
	client, err := httputil.NewClient(c.ProviderCA)
	if err != nil {
		if errors.Is(err, httputil.ErrInvalidCertificatePem) {
			return nil, fmt.Errorf("%s: could not parse CA PEM value: %w", op, ErrInvalidCACert)
		}
		return nil, fmt.Errorf("%s: could not get an http client: %w", op, err)
	}
	return client, nil
}
