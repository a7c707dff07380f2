package providers

import (
	"context"
	"net/http"

	"github.com/oidcware/go-sso/sso"
)

// Twitter provides login via X (Twitter) OAuth 2.0. Twitter requires PKCE.
type Twitter struct {
	static
}

var _ sso.Provider = (*Twitter)(nil)

// NewTwitter creates the Twitter provider adapter.
func NewTwitter() *Twitter {
	return &Twitter{
		static: static{
			name:     "twitter",
			scopes:   []string{"users.read", "tweet.read"},
			features: sso.Features{UsesPKCE: true},
			doc: sso.DiscoveryDocument{
				AuthorizationEndpoint: "https://twitter.com/i/oauth2/authorize",
				TokenEndpoint:         "https://api.twitter.com/2/oauth2/token",
				UserinfoEndpoint:      "https://api.twitter.com/2/users/me?user.fields=profile_image_url",
			},
		},
	}
}

func (p *Twitter) OpenIDFromResponse(_ context.Context, response map[string]interface{}, _ *http.Client) (*sso.OpenID, error) {
	data := childMap(response, "data")
	if data == nil {
		return nil, sso.NewLoginError(http.StatusUnauthorized, "failed to process login via Twitter")
	}
	first, last := splitFullName(data["name"])
	return &sso.OpenID{
		ID:          str(data, "id"),
		FirstName:   first,
		LastName:    last,
		DisplayName: str(data, "username"),
		Picture:     str(data, "profile_image_url"),
		Provider:    p.name,
	}, nil
}
