package providers

import (
	"context"
	"net/http"

	"github.com/oidcware/go-sso/sso"
)

// Spotify provides login via Spotify OAuth.
type Spotify struct {
	static
}

var _ sso.Provider = (*Spotify)(nil)

// NewSpotify creates the Spotify provider adapter.
func NewSpotify() *Spotify {
	return &Spotify{
		static: static{
			name:   "spotify",
			scopes: []string{"user-read-private", "user-read-email"},
			doc: sso.DiscoveryDocument{
				AuthorizationEndpoint: "https://accounts.spotify.com/authorize",
				TokenEndpoint:         "https://accounts.spotify.com/api/token",
				UserinfoEndpoint:      "https://api.spotify.com/v1/me",
			},
		},
	}
}

func (p *Spotify) OpenIDFromResponse(_ context.Context, response map[string]interface{}, _ *http.Client) (*sso.OpenID, error) {
	openid := &sso.OpenID{
		ID:          str(response, "id"),
		Email:       str(response, "email"),
		DisplayName: str(response, "display_name"),
		Provider:    p.name,
	}
	if images, ok := response["images"].([]interface{}); ok && len(images) > 0 {
		if image, ok := images[0].(map[string]interface{}); ok {
			openid.Picture = str(image, "url")
		}
	}
	return openid, nil
}
