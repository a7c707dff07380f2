package providers

import (
	"context"
	"net/http"

	"github.com/oidcware/go-sso/sso"
)

// Notion provides login via Notion OAuth. Notion authenticates integrations
// ("bots"); the login only resolves to an identity when the bot is owned by
// a user.
type Notion struct {
	static
}

var _ sso.Provider = (*Notion)(nil)

// NewNotion creates the Notion provider adapter.
func NewNotion() *Notion {
	return &Notion{
		static: static{
			name: "notion",
			doc: sso.DiscoveryDocument{
				AuthorizationEndpoint: "https://api.notion.com/v1/oauth/authorize",
				TokenEndpoint:         "https://api.notion.com/v1/oauth/token",
				UserinfoEndpoint:      "https://api.notion.com/v1/users/me",
			},
		},
	}
}

func (p *Notion) OpenIDFromResponse(_ context.Context, response map[string]interface{}, _ *http.Client) (*sso.OpenID, error) {
	owner := childMap(response, "bot", "owner")
	if owner == nil || str(owner, "type") != "user" {
		return nil, sso.NewLoginError(http.StatusUnauthorized, "failed to process login via Notion: integration is not owned by a user")
	}
	user := childMap(owner, "user")
	if user == nil {
		return nil, sso.NewLoginError(http.StatusUnauthorized, "failed to process login via Notion: owner has no user record")
	}
	openid := &sso.OpenID{
		ID:          str(user, "id"),
		DisplayName: str(user, "name"),
		Picture:     str(user, "avatar_url"),
		Provider:    p.name,
	}
	if person := childMap(user, "person"); person != nil {
		openid.Email = str(person, "email")
	}
	return openid, nil
}
