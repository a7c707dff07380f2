package providers

import (
	"context"
	"net/http"

	"github.com/oidcware/go-sso/sso"
)

// Soundcloud provides login via SoundCloud OAuth.
type Soundcloud struct {
	static
}

var _ sso.Provider = (*Soundcloud)(nil)

// NewSoundcloud creates the SoundCloud provider adapter.
func NewSoundcloud() *Soundcloud {
	return &Soundcloud{
		static: static{
			name:   "soundcloud",
			scopes: []string{"openid"},
			doc: sso.DiscoveryDocument{
				AuthorizationEndpoint: "https://secure.soundcloud.com/authorize",
				TokenEndpoint:         "https://secure.soundcloud.com/oauth/token",
				UserinfoEndpoint:      "https://api.soundcloud.com/me",
			},
		},
	}
}

func (p *Soundcloud) OpenIDFromResponse(_ context.Context, response map[string]interface{}, _ *http.Client) (*sso.OpenID, error) {
	return &sso.OpenID{
		ID:          str(response, "id"),
		FirstName:   str(response, "first_name"),
		LastName:    str(response, "last_name"),
		DisplayName: str(response, "username"),
		Picture:     str(response, "avatar_url"),
		Provider:    p.name,
	}, nil
}
