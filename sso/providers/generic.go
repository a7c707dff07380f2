package providers

import (
	"context"
	"net/http"

	"github.com/oidcware/go-sso/sso"
)

// ResponseConvertor turns a raw userinfo response into an OpenID record.
type ResponseConvertor func(ctx context.Context, response map[string]interface{}, client *http.Client) (*sso.OpenID, error)

// DiscoveryFunc resolves a discovery document dynamically, e.g. from a
// remote well-known endpoint.
type DiscoveryFunc func(ctx context.Context, client *http.Client) (sso.DiscoveryDocument, error)

// Generic is a factory-built adapter for ad-hoc providers that have no
// dedicated type: configuration in, adapter out, no new code required.
type Generic struct {
	name        string
	scopes      []string
	features    sso.Features
	doc         sso.DiscoveryDocument
	discoveryFn DiscoveryFunc
	convert     ResponseConvertor
}

var _ sso.Provider = (*Generic)(nil)

// GenericOption configures a Generic adapter.
type GenericOption func(*Generic)

// WithDiscoveryFunc resolves the discovery document through fn instead of
// the static document.
func WithDiscoveryFunc(fn DiscoveryFunc) GenericOption {
	return func(g *Generic) {
		g.discoveryFn = fn
	}
}

// WithResponseConvertor installs a custom response-to-identity convertor.
// The convertor's output is returned as-is; in particular the Provider field
// is whatever the convertor set.
func WithResponseConvertor(fn ResponseConvertor) GenericOption {
	return func(g *Generic) {
		g.convert = fn
	}
}

// WithScopes overrides the default scope list.
func WithScopes(scopes ...string) GenericOption {
	return func(g *Generic) {
		g.scopes = scopes
	}
}

// WithFeatures declares the adapter's protocol capabilities.
func WithFeatures(f sso.Features) GenericOption {
	return func(g *Generic) {
		g.features = f
	}
}

// NewGeneric builds an ad-hoc provider adapter around a discovery document.
// Without a response convertor, produced identities carry only the provider
// name.
func NewGeneric(name string, doc sso.DiscoveryDocument, opt ...GenericOption) *Generic {
	g := &Generic{
		name:   name,
		scopes: []string{"openid"},
		doc:    doc,
	}
	for _, o := range opt {
		o(g)
	}
	return g
}

func (g *Generic) Name() string           { return g.name }
func (g *Generic) Scopes() []string       { return g.scopes }
func (g *Generic) Features() sso.Features { return g.features }

func (g *Generic) DiscoveryDocument(ctx context.Context, client *http.Client) (sso.DiscoveryDocument, error) {
	if g.discoveryFn != nil {
		return g.discoveryFn(ctx, client)
	}
	return g.doc, nil
}

func (g *Generic) OpenIDFromResponse(ctx context.Context, response map[string]interface{}, client *http.Client) (*sso.OpenID, error) {
	if g.convert == nil {
		return &sso.OpenID{Provider: g.name}, nil
	}
	return g.convert(ctx, response, client)
}
