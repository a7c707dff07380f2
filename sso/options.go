package sso

import (
	"golang.org/x/text/language"
)

// Option defines a common functional options type.
type Option func(interface{})

// ApplyOpts takes a pointer to the options struct as a set of default options
// and applies the slice of opts as overrides.
func ApplyOpts(opts interface{}, opt ...Option) {
	for _, o := range opt {
		o(opts)
	}
}

// WithVerifierLength requests a specific PKCE verifier length. Values
// outside [MinVerifierLen, MaxVerifierLen] are clamped to the legal range.
func WithVerifierLength(length int) Option {
	return func(o interface{}) {
		if v, ok := o.(*verifierOptions); ok {
			v.withVerifierLength = length
		}
	}
}

// WithRedirectURL overrides the Config.RedirectURL for a single login URL or
// code exchange.
func WithRedirectURL(redirectURL string) Option {
	return func(o interface{}) {
		switch v := o.(type) {
		case *loginOptions:
			v.withRedirectURL = redirectURL
		case *exchangeOptions:
			v.withRedirectURL = redirectURL
		}
	}
}

// WithState supplies an explicit anti-CSRF state value for the login URL,
// taking precedence over the state generated at session entry.
func WithState(state string) Option {
	return func(o interface{}) {
		if v, ok := o.(*loginOptions); ok {
			v.withState = state
		}
	}
}

// WithAuthParams adds extension query parameters to the authorization URL.
func WithAuthParams(params map[string]string) Option {
	return func(o interface{}) {
		if v, ok := o.(*loginOptions); ok {
			v.withAuthParams = params
		}
	}
}

// WithUILocales adds the optional "ui_locales" authorization parameter,
// expressing the end user's preferred languages for the provider's login UI.
func WithUILocales(locales ...language.Tag) Option {
	return func(o interface{}) {
		if v, ok := o.(*loginOptions); ok {
			v.withUILocales = locales
		}
	}
}

// WithTokenParams adds extension body parameters to the token request.
func WithTokenParams(params map[string]string) Option {
	return func(o interface{}) {
		if v, ok := o.(*exchangeOptions); ok {
			v.withTokenParams = params
		}
	}
}

// WithHeaders adds headers to the userinfo request.
func WithHeaders(headers map[string]string) Option {
	return func(o interface{}) {
		if v, ok := o.(*exchangeOptions); ok {
			v.withHeaders = headers
		}
	}
}

// verifierOptions is the set of available options for NewCodeVerifier.
type verifierOptions struct {
	withVerifierLength int
}

func verifierDefaults() verifierOptions {
	return verifierOptions{
		withVerifierLength: DefaultVerifierLen,
	}
}

func getVerifierOpts(opt ...Option) verifierOptions {
	opts := verifierDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// loginOptions is the set of available options for Session.LoginURL and
// Session.LoginRedirect.
type loginOptions struct {
	withRedirectURL string
	withState       string
	withAuthParams  map[string]string
	withUILocales   []language.Tag
}

func getLoginOpts(opt ...Option) loginOptions {
	opts := loginOptions{}
	ApplyOpts(&opts, opt...)
	return opts
}

// exchangeOptions is the set of available options for Session.VerifyAndProcess
// and Session.ProcessLogin.
type exchangeOptions struct {
	withRedirectURL string
	withTokenParams map[string]string
	withHeaders     map[string]string
}

func getExchangeOpts(opt ...Option) exchangeOptions {
	opts := exchangeOptions{}
	ApplyOpts(&opts, opt...)
	return opts
}
