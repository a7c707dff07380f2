package sso

import (
	"context"
	"fmt"
	"net/http"

	"github.com/hashicorp/go-hclog"

	"github.com/oidcware/go-sso/internal/strutils"
)

// Client drives the authorization code flow for one provider adapter. It is
// safe for concurrent use: per-login mutable state lives in Sessions, and
// Sessions obtained via NewSession are fully serialized per Client.
type Client struct {
	provider Provider
	config   *Config
	logger   hclog.Logger

	// loginSem serializes scoped login sessions. A channel rather than a
	// sync.Mutex so acquisition can honor context cancellation.
	loginSem chan struct{}
}

// New creates a Client for the given provider adapter and relying-party
// config.
//
// Construction fails when the config is invalid or when the adapter declares
// a capability it does not implement (e.g. Features.UseIDTokenForUserInfo
// without a TokenConverter implementation); incomplete adapters fail here
// rather than at call time.
func New(p Provider, c *Config) (*Client, error) {
	const op = "sso.New"
	if p == nil {
		return nil, fmt.Errorf("%s: provider adapter is nil: %w", op, ErrNilParameter)
	}
	if c == nil {
		return nil, fmt.Errorf("%s: client config is nil: %w", op, ErrNilParameter)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: client config is invalid: %w", op, err)
	}
	if p.Features().UseIDTokenForUserInfo {
		if _, ok := p.(TokenConverter); !ok {
			return nil, fmt.Errorf("%s: provider %q uses id_token for user info but does not implement TokenConverter: %w", op, p.Name(), ErrUnsupportedProvider)
		}
	}

	logger := c.Logger
	if logger == nil {
		logger = hclog.Default().Named("sso")
	}

	return &Client{
		provider: p,
		config:   c,
		logger:   logger,
		loginSem: make(chan struct{}, 1),
	}, nil
}

// Provider returns the client's provider adapter.
func (c *Client) Provider() Provider { return c.provider }

// DiscoveryDocument resolves the provider's discovery document.
func (c *Client) DiscoveryDocument(ctx context.Context) (DiscoveryDocument, error) {
	const op = "Client.DiscoveryDocument"
	client, err := c.config.httpClient()
	if err != nil {
		return DiscoveryDocument{}, fmt.Errorf("%s: %w", op, err)
	}
	return c.provider.DiscoveryDocument(ctx, client)
}

// AuthorizationEndpoint re-invokes discovery and projects the authorization
// endpoint. No caching happens at this layer.
func (c *Client) AuthorizationEndpoint(ctx context.Context) (string, error) {
	d, err := c.DiscoveryDocument(ctx)
	if err != nil {
		return "", err
	}
	return d.AuthorizationEndpoint, nil
}

// TokenEndpoint re-invokes discovery and projects the token endpoint.
func (c *Client) TokenEndpoint(ctx context.Context) (string, error) {
	d, err := c.DiscoveryDocument(ctx)
	if err != nil {
		return "", err
	}
	return d.TokenEndpoint, nil
}

// UserinfoEndpoint re-invokes discovery and projects the userinfo endpoint.
func (c *Client) UserinfoEndpoint(ctx context.Context) (string, error) {
	d, err := c.DiscoveryDocument(ctx)
	if err != nil {
		return "", err
	}
	return d.UserinfoEndpoint, nil
}

// scopes returns the effective scope list (config override or adapter
// defaults), with empty and duplicate entries removed.
func (c *Client) scopes() []string {
	scopes := c.config.Scopes
	if len(scopes) == 0 {
		scopes = c.provider.Scopes()
	}
	return strutils.RemoveDuplicatesStable(scopes, false)
}

// httpClient is a convenience wrapper over the config's client constructor.
func (c *Client) httpClient() (*http.Client, error) {
	return c.config.httpClient()
}
