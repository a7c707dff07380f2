package providers

import (
	"context"
	"net/http"

	"github.com/oidcware/go-sso/sso"
)

// Naver provides login via Naver OAuth.
type Naver struct {
	static
}

var (
	_ sso.Provider       = (*Naver)(nil)
	_ sso.HeaderExtender = (*Naver)(nil)
)

// NewNaver creates the Naver provider adapter.
func NewNaver() *Naver {
	return &Naver{
		static: static{
			name: "naver",
			doc: sso.DiscoveryDocument{
				AuthorizationEndpoint: "https://nid.naver.com/oauth2.0/authorize",
				TokenEndpoint:         "https://nid.naver.com/oauth2.0/token",
				UserinfoEndpoint:      "https://openapi.naver.com/v1/nid/me",
			},
		},
	}
}

func (p *Naver) AdditionalHeaders() map[string]string {
	return map[string]string{"accept": "application/json"}
}

func (p *Naver) OpenIDFromResponse(_ context.Context, response map[string]interface{}, _ *http.Client) (*sso.OpenID, error) {
	info := childMap(response, "response")
	if info == nil {
		return &sso.OpenID{Provider: p.name}, nil
	}
	return &sso.OpenID{
		ID:          str(info, "id"),
		Email:       str(info, "email"),
		DisplayName: str(info, "nickname"),
		Picture:     str(info, "profile_image"),
		Provider:    p.name,
	}, nil
}
