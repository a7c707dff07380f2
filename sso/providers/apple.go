package providers

import (
	"context"
	"net/http"

	"github.com/oidcware/go-sso/sso"
)

// Apple provides login via Apple ID OAuth. Apple rejects HTTP Basic client
// authentication (the secret goes in the request body), requires
// response_mode=form_post when requesting name or email, and carries the
// identity in the id_token.
type Apple struct {
	static
}

var (
	_ sso.Provider           = (*Apple)(nil)
	_ sso.TokenConverter     = (*Apple)(nil)
	_ sso.AuthParamsExtender = (*Apple)(nil)
)

// NewApple creates the Apple provider adapter.
func NewApple() *Apple {
	return &Apple{
		static: static{
			name:   "apple",
			scopes: []string{"openid", "email"},
			features: sso.Features{
				UseIDTokenForUserInfo: true,
				DisableBasicAuth:      true,
			},
			doc: sso.DiscoveryDocument{
				AuthorizationEndpoint: "https://appleid.apple.com/auth/authorize",
				TokenEndpoint:         "https://appleid.apple.com/auth/token",
				UserinfoEndpoint:      "https://appleid.apple.com/auth/keys",
			},
		},
	}
}

func (p *Apple) ExtraAuthParams(c sso.Config) map[string]string {
	return map[string]string{
		"response_mode": "form_post",
		"client_secret": string(c.ClientSecret),
	}
}

func (p *Apple) OpenIDFromToken(ctx context.Context, claims map[string]interface{}, client *http.Client) (*sso.OpenID, error) {
	return p.OpenIDFromResponse(ctx, claims, client)
}

func (p *Apple) OpenIDFromResponse(_ context.Context, response map[string]interface{}, _ *http.Client) (*sso.OpenID, error) {
	return &sso.OpenID{
		ID:       str(response, "sub"),
		Email:    str(response, "email"),
		Provider: p.name,
	}, nil
}
