package providers

import (
	"context"
	"net/http"

	"github.com/oidcware/go-sso/sso"
)

// Facebook provides login via Facebook OAuth.
type Facebook struct {
	static
}

var _ sso.Provider = (*Facebook)(nil)

// NewFacebook creates the Facebook provider adapter.
func NewFacebook() *Facebook {
	const baseURL = "https://graph.facebook.com/v9.0"
	return &Facebook{
		static: static{
			name:   "facebook",
			scopes: []string{"email"},
			doc: sso.DiscoveryDocument{
				AuthorizationEndpoint: "https://www.facebook.com/v9.0/dialog/oauth",
				TokenEndpoint:         baseURL + "/oauth/access_token",
				UserinfoEndpoint:      baseURL + "/me?fields=id,name,email,first_name,last_name,picture",
			},
		},
	}
}

func (p *Facebook) OpenIDFromResponse(_ context.Context, response map[string]interface{}, _ *http.Client) (*sso.OpenID, error) {
	openid := &sso.OpenID{
		ID:          str(response, "id"),
		Email:       str(response, "email"),
		FirstName:   str(response, "first_name"),
		LastName:    str(response, "last_name"),
		DisplayName: str(response, "name"),
		Provider:    p.name,
	}
	if picture := childMap(response, "picture", "data"); picture != nil {
		openid.Picture = str(picture, "url")
	}
	return openid, nil
}
