package providers

import (
	"context"
	"net/http"

	"github.com/oidcware/go-sso/sso"
)

// Line provides login via LINE OAuth.
type Line struct {
	static
}

var _ sso.Provider = (*Line)(nil)

// NewLine creates the LINE provider adapter.
func NewLine() *Line {
	const baseURL = "https://api.line.me/oauth2/v2.1"
	return &Line{
		static: static{
			name:   "line",
			scopes: []string{"email", "profile", "openid"},
			doc: sso.DiscoveryDocument{
				AuthorizationEndpoint: "https://access.line.me/oauth2/v2.1/authorize",
				TokenEndpoint:         baseURL + "/token",
				UserinfoEndpoint:      baseURL + "/userinfo",
			},
		},
	}
}

func (p *Line) OpenIDFromResponse(_ context.Context, response map[string]interface{}, _ *http.Client) (*sso.OpenID, error) {
	return &sso.OpenID{
		ID:          str(response, "sub"),
		Email:       str(response, "email"),
		DisplayName: str(response, "name"),
		Picture:     str(response, "picture"),
		Provider:    p.name,
	}, nil
}
