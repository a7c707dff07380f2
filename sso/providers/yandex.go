package providers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/oidcware/go-sso/sso"
)

// Yandex provides login via Yandex OAuth.
type Yandex struct {
	static
}

var _ sso.Provider = (*Yandex)(nil)

// NewYandex creates the Yandex provider adapter.
func NewYandex() *Yandex {
	return &Yandex{
		static: static{
			name:   "yandex",
			scopes: []string{"login:email", "login:info", "login:avatar"},
			doc: sso.DiscoveryDocument{
				AuthorizationEndpoint: "https://oauth.yandex.ru/authorize",
				TokenEndpoint:         "https://oauth.yandex.ru/token",
				UserinfoEndpoint:      "https://login.yandex.ru/info",
			},
		},
	}
}

func (p *Yandex) OpenIDFromResponse(_ context.Context, response map[string]interface{}, _ *http.Client) (*sso.OpenID, error) {
	openid := &sso.OpenID{
		ID:          str(response, "id"),
		Email:       str(response, "default_email"),
		FirstName:   str(response, "first_name"),
		LastName:    str(response, "last_name"),
		DisplayName: str(response, "display_name"),
		Provider:    p.name,
	}
	if avatarID := str(response, "default_avatar_id"); avatarID != "" {
		openid.Picture = fmt.Sprintf("https://avatars.yandex.net/get-yapic/%s/islands-200", avatarID)
	}
	return openid, nil
}
