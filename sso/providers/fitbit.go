package providers

import (
	"context"
	"net/http"

	"github.com/oidcware/go-sso/sso"
)

// Fitbit provides login via Fitbit OAuth.
type Fitbit struct {
	static
}

var _ sso.Provider = (*Fitbit)(nil)

// NewFitbit creates the Fitbit provider adapter.
func NewFitbit() *Fitbit {
	return &Fitbit{
		static: static{
			name:   "fitbit",
			scopes: []string{"profile"},
			doc: sso.DiscoveryDocument{
				AuthorizationEndpoint: "https://www.fitbit.com/oauth2/authorize?response_type=code",
				TokenEndpoint:         "https://api.fitbit.com/oauth2/token",
				UserinfoEndpoint:      "https://api.fitbit.com/1/user/-/profile.json",
			},
		},
	}
}

func (p *Fitbit) OpenIDFromResponse(_ context.Context, response map[string]interface{}, _ *http.Client) (*sso.OpenID, error) {
	info := childMap(response, "user")
	if info == nil {
		return nil, sso.NewLoginError(http.StatusUnauthorized, "failed to process login via Fitbit")
	}
	return &sso.OpenID{
		ID:          str(info, "encodedId"),
		FirstName:   str(info, "fullName"),
		DisplayName: str(info, "displayName"),
		Picture:     str(info, "avatar"),
		Provider:    p.name,
	}, nil
}
