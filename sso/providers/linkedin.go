package providers

import (
	"context"
	"net/http"

	"github.com/oidcware/go-sso/sso"
)

// LinkedIn provides login via LinkedIn OAuth. LinkedIn's userinfo endpoint
// is unreliable for freshly issued tokens, so the identity is decoded from
// the id_token instead; LinkedIn also wants the client secret repeated as a
// plain request parameter.
type LinkedIn struct {
	static
}

var (
	_ sso.Provider            = (*LinkedIn)(nil)
	_ sso.TokenConverter      = (*LinkedIn)(nil)
	_ sso.AuthParamsExtender  = (*LinkedIn)(nil)
	_ sso.TokenParamsExtender = (*LinkedIn)(nil)
	_ sso.HeaderExtender      = (*LinkedIn)(nil)
)

// NewLinkedIn creates the LinkedIn provider adapter.
func NewLinkedIn() *LinkedIn {
	return &LinkedIn{
		static: static{
			name:     "linkedin",
			scopes:   []string{"openid", "profile", "email"},
			features: sso.Features{UseIDTokenForUserInfo: true},
			doc: sso.DiscoveryDocument{
				AuthorizationEndpoint: "https://www.linkedin.com/oauth/v2/authorization",
				TokenEndpoint:         "https://www.linkedin.com/oauth/v2/accessToken",
				UserinfoEndpoint:      "https://api.linkedin.com/v2/userinfo",
			},
		},
	}
}

func (p *LinkedIn) AdditionalHeaders() map[string]string {
	return map[string]string{"accept": "application/json"}
}

func (p *LinkedIn) ExtraAuthParams(c sso.Config) map[string]string {
	return map[string]string{"client_secret": string(c.ClientSecret)}
}

func (p *LinkedIn) ExtraTokenParams(c sso.Config) map[string]string {
	return map[string]string{"client_secret": string(c.ClientSecret)}
}

func (p *LinkedIn) OpenIDFromToken(ctx context.Context, claims map[string]interface{}, client *http.Client) (*sso.OpenID, error) {
	return p.OpenIDFromResponse(ctx, claims, client)
}

func (p *LinkedIn) OpenIDFromResponse(_ context.Context, response map[string]interface{}, _ *http.Client) (*sso.OpenID, error) {
	return &sso.OpenID{
		ID:        str(response, "sub"),
		Email:     str(response, "email"),
		FirstName: str(response, "given_name"),
		LastName:  str(response, "family_name"),
		Picture:   str(response, "picture"),
		Provider:  p.name,
	}, nil
}
