// Package providers contains the built-in provider adapters. Each adapter
// supplies a discovery document, default scopes, feature flags and a
// response-to-identity mapping for one identity provider; the sso package's
// engine drives the protocol itself.
//
// Adapters hold no credentials and no per-login state; they are safe to
// share across many concurrent logins.
package providers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/oidcware/go-sso/sso"
)

// static is the common base for adapters with a fixed discovery document.
type static struct {
	name     string
	scopes   []string
	features sso.Features
	doc      sso.DiscoveryDocument
}

func (p *static) Name() string           { return p.name }
func (p *static) Scopes() []string       { return p.scopes }
func (p *static) Features() sso.Features { return p.features }

func (p *static) DiscoveryDocument(context.Context, *http.Client) (sso.DiscoveryDocument, error) {
	return p.doc, nil
}

// str reads a string field from a decoded JSON object, stringifying numeric
// ids along the way (several providers return integer ids).
func str(m map[string]interface{}, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

// childMap descends into nested JSON objects, returning nil when any step is
// missing or not an object.
func childMap(m map[string]interface{}, keys ...string) map[string]interface{} {
	current := m
	for _, key := range keys {
		next, ok := current[key].(map[string]interface{})
		if !ok {
			return nil
		}
		current = next
	}
	return current
}

// splitFullName splits a free-form full name into first and last name: the
// first space-separated token becomes the first name, the remainder the last
// name. Non-string or empty values yield empty names.
func splitFullName(v interface{}) (first, last string) {
	full, ok := v.(string)
	if !ok || full == "" {
		return "", ""
	}
	parts := strings.SplitN(full, " ", 2)
	first = parts[0]
	if len(parts) == 2 {
		last = parts[1]
	}
	return first, last
}
