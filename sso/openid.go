package sso

import (
	"fmt"
	"net/mail"
)

// OpenID is the normalized identity record produced by a successful login.
// Providers vary widely in what they disclose, so every field is optional;
// the record is intentionally a superset schema. Equality is structural.
type OpenID struct {
	// ID is the provider's unique identifier for the user (the "sub" claim
	// for OIDC providers).
	ID string `json:"id,omitempty"`

	Email       string `json:"email,omitempty"`
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	DisplayName string `json:"display_name,omitempty"`

	// Picture is a URL to the user's avatar.
	Picture string `json:"picture,omitempty"`

	// Provider is the stable name of the identity provider that produced
	// this record (e.g. "github").
	Provider string `json:"provider,omitempty"`
}

// Validate checks the populated fields for shape. Only Email carries any
// structure worth checking; absent fields are always valid.
func (o *OpenID) Validate() error {
	const op = "OpenID.Validate"
	if o == nil {
		return fmt.Errorf("%s: openid is nil: %w", op, ErrNilParameter)
	}
	if o.Email != "" {
		if _, err := mail.ParseAddress(o.Email); err != nil {
			return fmt.Errorf("%s: email %q is not a valid address: %w", op, o.Email, ErrInvalidParameter)
		}
	}
	return nil
}
