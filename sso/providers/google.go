package providers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"

	"github.com/oidcware/go-sso/sso"
)

// GoogleIssuer is the issuer whose well-known configuration endpoint serves
// Google's discovery document.
const GoogleIssuer = "https://accounts.google.com"

// Google provides login via Google OAuth. Unlike most built-in adapters its
// discovery document is fetched remotely from the issuer's well-known
// configuration endpoint on every call; wrap the adapter if you want
// caching.
type Google struct {
	// Issuer may be overridden, e.g. to point tests at a local server.
	Issuer string
}

var _ sso.Provider = (*Google)(nil)

// NewGoogle creates the Google provider adapter.
func NewGoogle() *Google {
	return &Google{Issuer: GoogleIssuer}
}

func (p *Google) Name() string     { return "google" }
func (p *Google) Scopes() []string { return []string{"openid", "email", "profile"} }

func (p *Google) Features() sso.Features { return sso.Features{} }

// DiscoveryDocument fetches Google's discovery document from the issuer.
func (p *Google) DiscoveryDocument(ctx context.Context, client *http.Client) (sso.DiscoveryDocument, error) {
	const op = "Google.DiscoveryDocument"
	if client != nil {
		ctx = oidc.ClientContext(ctx, client)
	}
	remote, err := oidc.NewProvider(ctx, p.Issuer)
	if err != nil {
		return sso.DiscoveryDocument{}, fmt.Errorf("%s: unable to fetch discovery document: %w", op, err)
	}
	var doc sso.DiscoveryDocument
	if err := remote.Claims(&doc); err != nil {
		return sso.DiscoveryDocument{}, fmt.Errorf("%s: unable to decode discovery document: %w", op, err)
	}
	return doc, nil
}

// OpenIDFromResponse converts a Google userinfo response. Accounts whose
// email Google has not verified are rejected.
func (p *Google) OpenIDFromResponse(_ context.Context, response map[string]interface{}, _ *http.Client) (*sso.OpenID, error) {
	if verified, ok := response["email_verified"].(bool); !ok || !verified {
		return nil, sso.NewLoginError(http.StatusUnauthorized,
			fmt.Sprintf("user %s is not verified with Google", str(response, "email")))
	}
	return &sso.OpenID{
		ID:          str(response, "sub"),
		Email:       str(response, "email"),
		FirstName:   str(response, "given_name"),
		LastName:    str(response, "family_name"),
		DisplayName: str(response, "name"),
		Picture:     str(response, "picture"),
		Provider:    p.Name(),
	}, nil
}
