package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/oidcware/go-sso/sso"
)

const bitbucketEmailsEndpoint = "https://api.bitbucket.org/2.0/user/emails"

// Bitbucket provides login via Bitbucket OAuth. The userinfo response has no
// email field, so the emails endpoint is always consulted.
type Bitbucket struct {
	static
}

var _ sso.Provider = (*Bitbucket)(nil)

// NewBitbucket creates the Bitbucket provider adapter.
func NewBitbucket() *Bitbucket {
	return &Bitbucket{
		static: static{
			name:   "bitbucket",
			scopes: []string{"account", "email"},
			doc: sso.DiscoveryDocument{
				AuthorizationEndpoint: "https://bitbucket.org/site/oauth2/authorize",
				TokenEndpoint:         "https://bitbucket.org/site/oauth2/access_token",
				UserinfoEndpoint:      "https://api.bitbucket.org/2.0/user",
			},
		},
	}
}

func (p *Bitbucket) OpenIDFromResponse(ctx context.Context, response map[string]interface{}, client *http.Client) (*sso.OpenID, error) {
	const op = "Bitbucket.OpenIDFromResponse"
	if client == nil {
		return nil, fmt.Errorf("%s: an authenticated client is required to fetch the user's email: %w", op, sso.ErrNilParameter)
	}
	email, err := p.fetchEmail(ctx, client)
	if err != nil {
		return nil, err
	}
	openid := &sso.OpenID{
		ID:          strings.Trim(str(response, "uuid"), "{}"),
		Email:       email,
		FirstName:   str(response, "nickname"),
		DisplayName: str(response, "display_name"),
		Provider:    p.name,
	}
	if avatar := childMap(response, "links", "avatar"); avatar != nil {
		openid.Picture = str(avatar, "href")
	}
	return openid, nil
}

func (p *Bitbucket) fetchEmail(ctx context.Context, client *http.Client) (string, error) {
	const op = "Bitbucket.fetchEmail"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, bitbucketEmailsEndpoint, nil)
	if err != nil {
		return "", fmt.Errorf("%s: unable to build emails request: %w", op, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s: emails request failed: %w", op, err)
	}
	defer resp.Body.Close()

	var emails struct {
		Values []struct {
			Email string `json:"email"`
		} `json:"values"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&emails); err != nil {
		return "", fmt.Errorf("%s: unable to decode emails response: %w", op, err)
	}
	if len(emails.Values) == 0 {
		return "", nil
	}
	return emails.Values[0].Email, nil
}
