package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/oidcware/go-sso/sso"
)

const githubEmailsEndpoint = "https://api.github.com/user/emails"

// Github provides login via GitHub OAuth.
type Github struct {
	static
}

var (
	_ sso.Provider       = (*Github)(nil)
	_ sso.HeaderExtender = (*Github)(nil)
)

// NewGithub creates the GitHub provider adapter.
func NewGithub() *Github {
	return &Github{
		static: static{
			name:   "github",
			scopes: []string{"user:email"},
			doc: sso.DiscoveryDocument{
				AuthorizationEndpoint: "https://github.com/login/oauth/authorize",
				TokenEndpoint:         "https://github.com/login/oauth/access_token",
				UserinfoEndpoint:      "https://api.github.com/user",
			},
		},
	}
}

// AdditionalHeaders asks GitHub for JSON responses; its token endpoint
// defaults to form encoding otherwise.
func (p *Github) AdditionalHeaders() map[string]string {
	return map[string]string{"accept": "application/json"}
}

// OpenIDFromResponse converts a GitHub user response. Users may keep their
// email private, in which case the emails endpoint is consulted for the
// primary address.
func (p *Github) OpenIDFromResponse(ctx context.Context, response map[string]interface{}, client *http.Client) (*sso.OpenID, error) {
	email := str(response, "email")
	if email == "" && client != nil {
		fetched, err := p.fetchPrimaryEmail(ctx, client)
		if err != nil {
			return nil, err
		}
		email = fetched
	}
	if email == "" {
		return nil, sso.NewLoginError(http.StatusUnauthorized, "failed to process login via GitHub: no email address")
	}
	return &sso.OpenID{
		ID:          str(response, "id"),
		Email:       email,
		DisplayName: str(response, "login"),
		Picture:     str(response, "avatar_url"),
		Provider:    p.name,
	}, nil
}

// fetchPrimaryEmail lists the user's email addresses and picks the primary
// one.
func (p *Github) fetchPrimaryEmail(ctx context.Context, client *http.Client) (string, error) {
	const op = "Github.fetchPrimaryEmail"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, githubEmailsEndpoint, nil)
	if err != nil {
		return "", fmt.Errorf("%s: unable to build emails request: %w", op, err)
	}
	req.Header.Set("accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s: emails request failed: %w", op, err)
	}
	defer resp.Body.Close()

	var emails []struct {
		Email   string `json:"email"`
		Primary bool   `json:"primary"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&emails); err != nil {
		return "", fmt.Errorf("%s: unable to decode emails response: %w", op, err)
	}
	for _, e := range emails {
		if e.Primary {
			return e.Email, nil
		}
	}
	return "", nil
}
