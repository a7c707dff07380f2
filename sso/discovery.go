package sso

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// DiscoveryDocument holds the three endpoint URLs needed to drive an
// authorization code flow against a provider. Adapters may configure it
// statically or fetch it from a remote discovery endpoint; once obtained it
// is immutable and freely shareable.
type DiscoveryDocument struct {
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	UserinfoEndpoint      string `json:"userinfo_endpoint"`
}

// Validate verifies that all three endpoints are present. Failures are
// aggregated so an incomplete document reports every missing endpoint at
// once.
func (d DiscoveryDocument) Validate() error {
	const op = "DiscoveryDocument.Validate"
	var result *multierror.Error
	if d.AuthorizationEndpoint == "" {
		result = multierror.Append(result, fmt.Errorf("%s: authorization_endpoint is empty: %w", op, ErrInvalidParameter))
	}
	if d.TokenEndpoint == "" {
		result = multierror.Append(result, fmt.Errorf("%s: token_endpoint is empty: %w", op, ErrInvalidParameter))
	}
	if d.UserinfoEndpoint == "" {
		result = multierror.Append(result, fmt.Errorf("%s: userinfo_endpoint is empty: %w", op, ErrInvalidParameter))
	}
	return result.ErrorOrNil()
}
