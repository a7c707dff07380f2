package providers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/oidcware/go-sso/sso"
)

// Discord provides login via Discord OAuth.
type Discord struct {
	static
}

var _ sso.Provider = (*Discord)(nil)

// NewDiscord creates the Discord provider adapter.
func NewDiscord() *Discord {
	return &Discord{
		static: static{
			name:   "discord",
			scopes: []string{"identify", "email", "openid"},
			doc: sso.DiscoveryDocument{
				AuthorizationEndpoint: "https://discord.com/oauth2/authorize",
				TokenEndpoint:         "https://discord.com/api/oauth2/token",
				UserinfoEndpoint:      "https://discord.com/api/users/@me",
			},
		},
	}
}

func (p *Discord) OpenIDFromResponse(_ context.Context, response map[string]interface{}, _ *http.Client) (*sso.OpenID, error) {
	userID := str(response, "id")
	avatar := str(response, "avatar")
	var picture string
	if userID != "" && avatar != "" {
		picture = fmt.Sprintf("https://cdn.discordapp.com/avatars/%s/%s.png", userID, avatar)
	}
	return &sso.OpenID{
		ID:          userID,
		Email:       str(response, "email"),
		FirstName:   str(response, "username"),
		DisplayName: str(response, "global_name"),
		Picture:     picture,
		Provider:    p.name,
	}, nil
}
