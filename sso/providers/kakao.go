package providers

import (
	"context"
	"net/http"

	"github.com/oidcware/go-sso/sso"
)

// Kakao provides login via Kakao OAuth.
type Kakao struct {
	static
}

var _ sso.Provider = (*Kakao)(nil)

// NewKakao creates the Kakao provider adapter.
func NewKakao() *Kakao {
	return &Kakao{
		static: static{
			name:   "kakao",
			scopes: []string{"openid"},
			doc: sso.DiscoveryDocument{
				AuthorizationEndpoint: "https://kauth.kakao.com/oauth/authorize",
				TokenEndpoint:         "https://kauth.kakao.com/oauth/token",
				UserinfoEndpoint:      "https://kapi.kakao.com/v2/user/me",
			},
		},
	}
}

func (p *Kakao) OpenIDFromResponse(_ context.Context, response map[string]interface{}, _ *http.Client) (*sso.OpenID, error) {
	openid := &sso.OpenID{
		Provider: p.name,
	}
	if properties := childMap(response, "properties"); properties != nil {
		openid.DisplayName = str(properties, "nickname")
	}
	return openid, nil
}
