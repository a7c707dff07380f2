package sso

import (
	"fmt"

	"github.com/hashicorp/go-uuid"
)

// NewState generates an opaque random value suitable for use as an anti-CSRF
// state parameter. Every call returns a fresh, unpredictable value.
func NewState() (string, error) {
	const op = "sso.NewState"
	state, err := uuid.GenerateUUID()
	if err != nil {
		return "", fmt.Errorf("%s: unable to generate state: %w", op, ErrIDGeneratorFailed)
	}
	return state, nil
}
