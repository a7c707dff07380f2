package providers

import (
	"context"
	"net/http"

	"github.com/oidcware/go-sso/sso"
)

// Gitlab provides login via GitLab OAuth.
type Gitlab struct {
	static
}

var (
	_ sso.Provider       = (*Gitlab)(nil)
	_ sso.HeaderExtender = (*Gitlab)(nil)
)

// NewGitlab creates the GitLab provider adapter.
func NewGitlab() *Gitlab {
	return &Gitlab{
		static: static{
			name:   "gitlab",
			scopes: []string{"read_user", "openid", "profile"},
			doc: sso.DiscoveryDocument{
				AuthorizationEndpoint: "https://gitlab.com/oauth/authorize",
				TokenEndpoint:         "https://gitlab.com/oauth/token",
				UserinfoEndpoint:      "https://gitlab.com/api/v4/user",
			},
		},
	}
}

func (p *Gitlab) AdditionalHeaders() map[string]string {
	return map[string]string{"accept": "application/json"}
}

func (p *Gitlab) OpenIDFromResponse(_ context.Context, response map[string]interface{}, _ *http.Client) (*sso.OpenID, error) {
	first, last := splitFullName(response["name"])
	return &sso.OpenID{
		ID:          str(response, "id"),
		Email:       str(response, "email"),
		FirstName:   first,
		LastName:    last,
		DisplayName: str(response, "username"),
		Picture:     str(response, "avatar_url"),
		Provider:    p.name,
	}, nil
}
