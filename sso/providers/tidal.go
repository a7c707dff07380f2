package providers

import (
	"context"
	"net/http"

	"github.com/oidcware/go-sso/sso"
)

// Tidal provides login via TIDAL OAuth. TIDAL requires PKCE.
type Tidal struct {
	static
}

var _ sso.Provider = (*Tidal)(nil)

// NewTidal creates the TIDAL provider adapter.
func NewTidal() *Tidal {
	return &Tidal{
		static: static{
			name:     "tidal",
			scopes:   []string{"user.read"},
			features: sso.Features{UsesPKCE: true},
			doc: sso.DiscoveryDocument{
				AuthorizationEndpoint: "https://login.tidal.com/authorize",
				TokenEndpoint:         "https://auth.tidal.com/v1/oauth2/token",
				UserinfoEndpoint:      "https://openapi.tidal.com/v2/users/me",
			},
		},
	}
}

func (p *Tidal) OpenIDFromResponse(_ context.Context, response map[string]interface{}, _ *http.Client) (*sso.OpenID, error) {
	data := childMap(response, "data")
	if data == nil {
		return nil, sso.NewLoginError(http.StatusUnauthorized, "failed to process login via Tidal")
	}
	openid := &sso.OpenID{
		ID:       str(data, "id"),
		Provider: p.name,
	}
	if attributes := childMap(data, "attributes"); attributes != nil {
		openid.Email = str(attributes, "email")
		openid.DisplayName = str(attributes, "username")
	}
	return openid, nil
}
