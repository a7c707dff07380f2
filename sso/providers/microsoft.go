package providers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/oidcware/go-sso/sso"
)

// DefaultMicrosoftTenant is the multi-tenant endpoint segment.
const DefaultMicrosoftTenant = "common"

// Microsoft provides login via Microsoft (Entra ID / Office 365) OAuth.
type Microsoft struct {
	static
}

var _ sso.Provider = (*Microsoft)(nil)

// NewMicrosoft creates the Microsoft provider adapter for the common
// multi-tenant endpoints.
func NewMicrosoft() *Microsoft {
	return NewMicrosoftTenant(DefaultMicrosoftTenant)
}

// NewMicrosoftTenant creates the Microsoft provider adapter for a specific
// directory tenant.
func NewMicrosoftTenant(tenant string) *Microsoft {
	return &Microsoft{
		static: static{
			name:   "microsoft",
			scopes: []string{"openid"},
			doc: sso.DiscoveryDocument{
				AuthorizationEndpoint: fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/authorize", tenant),
				TokenEndpoint:         fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/token", tenant),
				UserinfoEndpoint:      "https://graph.microsoft.com/v1.0/me",
			},
		},
	}
}

func (p *Microsoft) OpenIDFromResponse(_ context.Context, response map[string]interface{}, _ *http.Client) (*sso.OpenID, error) {
	return &sso.OpenID{
		ID:          str(response, "id"),
		Email:       str(response, "mail"),
		FirstName:   str(response, "givenName"),
		LastName:    str(response, "surname"),
		DisplayName: str(response, "displayName"),
		Provider:    p.name,
	}, nil
}
