package sso

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/oauth2"

	"github.com/oidcware/go-sso/internal/httputil"
)

// PKCECookieName is the cookie used to carry the PKCE code verifier from the
// redirect leg to the callback leg. The verifier is needed again at the
// exchange step and must survive the round trip through the identity
// provider without being stored server-side.
const PKCECookieName = "pkce_code_verifier"

// pkceCookieMaxAge bounds how long a login attempt may take before the
// verifier cookie expires.
const pkceCookieMaxAge = 600

// Session represents one scoped login attempt. It owns all per-login mutable
// state: the anti-CSRF state value, the PKCE pair, and the tokens captured
// during the exchange. Entering a session resets every field to a blank
// state, so no residue from a prior login can leak into this one.
//
// Sessions from Client.NewSession hold the client's login lock until Close
// is called; Close must always be called (defer it), on success and failure
// alike, or all subsequent logins on the client will block.
type Session struct {
	client *Client

	// locked records whether this session holds the client's login lock.
	// Sessions built by UnsafeSession run without it.
	locked bool

	state         string
	returnedState string
	verifier      *CodeVerifier

	accessToken  string
	refreshToken RefreshToken
	idToken      IDToken

	closeOnce sync.Once
}

// NewSession enters a scoped login session, acquiring the client's exclusive
// login lock first. Two concurrent login attempts on one client are fully
// serialized: the second session cannot reset state until the first has
// closed. Acquisition honors ctx, so a cancelled caller cannot deadlock the
// client.
//
// If the adapter requires state, a fresh anti-CSRF value is generated; if it
// uses PKCE, a fresh verifier/challenge pair is generated.
func (c *Client) NewSession(ctx context.Context) (*Session, error) {
	const op = "Client.NewSession"
	if ctx == nil {
		return nil, fmt.Errorf("%s: context is nil: %w", op, ErrNilParameter)
	}
	select {
	case c.loginSem <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: waiting for login lock: %w", op, ctx.Err())
	}

	s := &Session{
		client: c,
		locked: true,
	}
	if err := s.reset(); err != nil {
		<-c.loginSem
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s, nil
}

// UnsafeSession builds a login session without acquiring the login lock.
// It exists for callers that cannot hold a lock across the whole login
// attempt; they get none of the serialization guarantees, and a security
// warning is emitted. Prefer NewSession.
func (c *Client) UnsafeSession() *Session {
	c.logger.Warn("login session created without the login lock; " +
		"concurrent logins on this client may interleave and complete with each other's tokens")
	s := &Session{
		client: c,
	}
	if err := s.reset(); err != nil {
		c.logger.Warn("unable to pre-generate login session state", "error", err)
	}
	return s
}

// Close exits the login session and releases the client's login lock. It is
// idempotent and must be called on every exit path.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		if s.locked {
			<-s.client.loginSem
		}
	})
}

// reset returns every session field to a blank state and pre-generates the
// state value and PKCE pair the adapter requires.
func (s *Session) reset() error {
	const op = "Session.reset"
	s.state = ""
	s.returnedState = ""
	s.verifier = nil
	s.resetTokens()

	features := s.client.provider.Features()
	if features.RequiresState {
		state, err := NewState()
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		s.state = state
	}
	if features.UsesPKCE {
		verifier, err := NewCodeVerifier()
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		s.verifier = verifier
	}
	return nil
}

func (s *Session) resetTokens() {
	s.accessToken = ""
	s.refreshToken = ""
	s.idToken = ""
}

// State returns the anti-CSRF state generated at session entry (empty when
// the adapter does not require state).
func (s *Session) State() string { return s.state }

// ReturnedState returns the state value the provider sent back on the
// callback request. It is captured for inspection only; the engine performs
// no cross-check, so callers using an external anti-CSRF mechanism are free
// to ignore it.
func (s *Session) ReturnedState() string { return s.returnedState }

// PKCEVerifier returns the session's PKCE verifier, or nil when the adapter
// does not use PKCE.
func (s *Session) PKCEVerifier() *CodeVerifier { return s.verifier }

// AccessToken returns the access token captured during the exchange.
func (s *Session) AccessToken() string { return s.accessToken }

// RefreshToken returns the refresh token, if the provider returned one.
func (s *Session) RefreshToken() RefreshToken { return s.refreshToken }

// IDToken returns the raw id_token, if the provider returned one.
func (s *Session) IDToken() IDToken { return s.idToken }

// LoginURL builds the authorization-endpoint URL the user should be sent to.
//
// A redirect URL must be available either from the config or via
// WithRedirectURL, otherwise ErrMissingRedirectURL is returned. Supported
// options: WithRedirectURL, WithState, WithAuthParams, WithUILocales.
func (s *Session) LoginURL(ctx context.Context, opt ...Option) (string, error) {
	const op = "Session.LoginURL"
	opts := getLoginOpts(opt...)

	redirectURL := opts.withRedirectURL
	if redirectURL == "" {
		redirectURL = s.client.config.RedirectURL
	}
	if redirectURL == "" {
		return "", fmt.Errorf("%s: no redirect URL was provided at construction or call time: %w", op, ErrMissingRedirectURL)
	}

	client, err := s.client.httpClient()
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	d, err := s.client.provider.DiscoveryDocument(ctx, client)
	if err != nil {
		return "", fmt.Errorf("%s: unable to resolve discovery document: %w", op, err)
	}
	if d.AuthorizationEndpoint == "" {
		return "", fmt.Errorf("%s: discovery document has no authorization endpoint: %w", op, ErrInvalidParameter)
	}

	features := s.client.provider.Features()

	state := opts.withState
	if state == "" && features.RequiresState {
		if s.state == "" {
			s.client.logger.Warn("provider requires state but no session state was generated; " +
				"the login URL will carry no anti-CSRF protection")
		}
		state = s.state
	}

	oauthCfg := oauth2.Config{
		ClientID:    s.client.config.ClientID,
		RedirectURL: redirectURL,
		Scopes:      s.client.scopes(),
		Endpoint: oauth2.Endpoint{
			AuthURL: d.AuthorizationEndpoint,
		},
	}

	var authOpts []oauth2.AuthCodeOption
	if features.UsesPKCE {
		if s.verifier == nil {
			s.client.logger.Warn("provider uses PKCE but the session has no verifier; " +
				"the login URL will carry no code challenge and the exchange will likely be rejected")
		} else {
			authOpts = append(authOpts,
				oauth2.SetAuthURLParam("code_challenge", s.verifier.Challenge()),
				oauth2.SetAuthURLParam("code_challenge_method", string(s.verifier.Method())),
			)
		}
	}
	if extender, ok := s.client.provider.(AuthParamsExtender); ok {
		for k, v := range extender.ExtraAuthParams(*s.client.config) {
			authOpts = append(authOpts, oauth2.SetAuthURLParam(k, v))
		}
	}
	for k, v := range opts.withAuthParams {
		authOpts = append(authOpts, oauth2.SetAuthURLParam(k, v))
	}
	if len(opts.withUILocales) > 0 {
		locales := make([]string, 0, len(opts.withUILocales))
		for _, l := range opts.withUILocales {
			locales = append(locales, l.String())
		}
		authOpts = append(authOpts, oauth2.SetAuthURLParam("ui_locales", strings.Join(locales, " ")))
	}

	return oauthCfg.AuthCodeURL(state, authOpts...), nil
}

// LoginRedirect writes a 303 See Other response whose Location header equals
// LoginURL called with identical options. When the adapter uses PKCE, the
// code verifier is set in a cookie so it survives the round trip to the
// provider and back.
func (s *Session) LoginRedirect(w http.ResponseWriter, r *http.Request, opt ...Option) error {
	const op = "Session.LoginRedirect"
	loginURL, err := s.LoginURL(r.Context(), opt...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if s.client.provider.Features().UsesPKCE && s.verifier != nil {
		http.SetCookie(w, &http.Cookie{
			Name:     PKCECookieName,
			Value:    s.verifier.Verifier(),
			MaxAge:   pkceCookieMaxAge,
			Path:     "/",
			HttpOnly: true,
			Secure:   !s.client.config.AllowInsecureHTTP,
		})
	}
	http.Redirect(w, r, loginURL, http.StatusSeeOther)
	return nil
}

// VerifyAndProcess is the callback-leg entry point: it extracts the
// authorization code (and returned state, and PKCE verifier cookie) from the
// callback request, then exchanges the code for an identity.
//
// A callback request without a "code" query parameter fails with a
// *LoginError carrying status 400. Supported options: WithRedirectURL,
// WithTokenParams, WithHeaders.
func (s *Session) VerifyAndProcess(ctx context.Context, r *http.Request, opt ...Option) (*OpenID, error) {
	openid, _, err := s.verifyAndProcess(ctx, r, opt...)
	return openid, err
}

// VerifyAndProcessRaw behaves like VerifyAndProcess but returns the raw
// userinfo response (or id_token claims) without normalizing it into an
// OpenID record.
func (s *Session) VerifyAndProcessRaw(ctx context.Context, r *http.Request, opt ...Option) (map[string]interface{}, error) {
	_, raw, err := s.verifyAndProcess(ctx, r, opt...)
	return raw, err
}

func (s *Session) verifyAndProcess(ctx context.Context, r *http.Request, opt ...Option) (*OpenID, map[string]interface{}, error) {
	const op = "Session.VerifyAndProcess"
	if r == nil {
		return nil, nil, fmt.Errorf("%s: request is nil: %w", op, ErrNilParameter)
	}
	query := r.URL.Query()
	code := query.Get("code")
	if code == "" {
		return nil, nil, NewLoginError(http.StatusBadRequest, "'code' parameter was not found in callback request")
	}
	s.returnedState = query.Get("state")

	if s.client.provider.Features().UsesPKCE {
		if cookie, err := r.Cookie(PKCECookieName); err == nil && cookie.Value != "" {
			s.verifier = RestoreCodeVerifier(cookie.Value)
		} else if s.verifier == nil {
			s.client.logger.Warn("provider uses PKCE but no code verifier cookie was found on the callback request; " +
				"the token exchange will probably be rejected")
		}
	}

	return s.processLogin(ctx, code, callbackURL(r), getExchangeOpts(opt...))
}

// ProcessLogin performs the authorization-code exchange directly, for
// callers that extracted the code themselves. This is the low-level leg;
// prefer VerifyAndProcess.
func (s *Session) ProcessLogin(ctx context.Context, code string, callback *url.URL, opt ...Option) (*OpenID, error) {
	openid, _, err := s.processLogin(ctx, code, callback, getExchangeOpts(opt...))
	return openid, err
}

// processLogin is the heart of the protocol: token request, token response
// parsing, userinfo request (or id_token decode) and normalization dispatch.
//
// Transport-level failures propagate untranslated; only protocol violations
// become LoginErrors. When no token endpoint resolves, it returns no
// identity and no error; callers must handle the nil result.
func (s *Session) processLogin(ctx context.Context, code string, callback *url.URL, opts exchangeOptions) (*OpenID, map[string]interface{}, error) {
	const op = "Session.ProcessLogin"

	// Defense in depth against reuse outside the scoped-lock discipline:
	// a session that already holds tokens was not properly closed.
	if s.accessToken != "" || s.idToken != "" || s.refreshToken != "" {
		s.client.logger.Warn("prior login state was still present on this session and has been reset; " +
			"use a fresh session per login attempt")
		s.resetTokens()
	}

	httpClient, err := s.client.httpClient()
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	d, err := s.client.provider.DiscoveryDocument(ctx, httpClient)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: unable to resolve discovery document: %w", op, err)
	}
	if d.TokenEndpoint == "" {
		// Soft miss: no token endpoint means no identity, not an error.
		return nil, nil, nil
	}

	current := normalizeCallbackURL(callback, s.client.config.AllowInsecureHTTP)

	redirectURL := opts.withRedirectURL
	if redirectURL == "" {
		redirectURL = s.client.config.RedirectURL
	}
	if redirectURL == "" && current != nil {
		redirectURL = currentPath(current)
	}

	features := s.client.provider.Features()
	authStyle := oauth2.AuthStyleInHeader
	if features.DisableBasicAuth {
		authStyle = oauth2.AuthStyleInParams
	}
	oauthCfg := oauth2.Config{
		ClientID:     s.client.config.ClientID,
		ClientSecret: string(s.client.config.ClientSecret),
		RedirectURL:  redirectURL,
		Endpoint: oauth2.Endpoint{
			TokenURL:  d.TokenEndpoint,
			AuthStyle: authStyle,
		},
	}

	var exchangeAuthOpts []oauth2.AuthCodeOption
	if features.UsesPKCE && s.verifier != nil {
		exchangeAuthOpts = append(exchangeAuthOpts, oauth2.SetAuthURLParam("code_verifier", s.verifier.Verifier()))
	}
	if extender, ok := s.client.provider.(TokenParamsExtender); ok {
		for k, v := range extender.ExtraTokenParams(*s.client.config) {
			exchangeAuthOpts = append(exchangeAuthOpts, oauth2.SetAuthURLParam(k, v))
		}
	}
	for k, v := range opts.withTokenParams {
		exchangeAuthOpts = append(exchangeAuthOpts, oauth2.SetAuthURLParam(k, v))
	}

	oauthCtx := httputil.ClientContext(ctx, httpClient)
	token, err := oauthCfg.Exchange(oauthCtx, code, exchangeAuthOpts...)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: unable to exchange auth code with provider: %w", op, err)
	}

	s.accessToken = token.AccessToken
	s.refreshToken = RefreshToken(token.RefreshToken)
	if idToken, ok := token.Extra("id_token").(string); ok {
		s.idToken = IDToken(idToken)
	}

	// Bearer-authed client for the userinfo request and any follow-up
	// calls the adapter needs (e.g. a separate emails endpoint).
	authedClient := oauth2.NewClient(oauthCtx, oauth2.StaticTokenSource(token))

	if features.UseIDTokenForUserInfo {
		if s.idToken == "" {
			return nil, nil, NewLoginError(http.StatusUnauthorized,
				fmt.Sprintf("provider %q did not return an id token", s.client.provider.Name()))
		}
		var claims map[string]interface{}
		if err := s.idToken.Claims(&claims); err != nil {
			return nil, nil, fmt.Errorf("%s: %w", op, err)
		}
		converter := s.client.provider.(TokenConverter) // checked at New
		openid, err := converter.OpenIDFromToken(ctx, claims, authedClient)
		if err != nil {
			return nil, claims, fmt.Errorf("%s: %w", op, err)
		}
		return openid, claims, nil
	}

	content, err := s.fetchUserInfo(ctx, d.UserinfoEndpoint, authedClient, opts.withHeaders)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	openid, err := s.client.provider.OpenIDFromResponse(ctx, content, authedClient)
	if err != nil {
		return nil, content, fmt.Errorf("%s: %w", op, err)
	}
	return openid, content, nil
}

// fetchUserInfo issues the userinfo request with the merged adapter and
// caller headers and decodes the JSON response.
func (s *Session) fetchUserInfo(ctx context.Context, endpoint string, client *http.Client, headers map[string]string) (map[string]interface{}, error) {
	const op = "Session.fetchUserInfo"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: unable to build userinfo request: %w", op, err)
	}
	if extender, ok := s.client.provider.(HeaderExtender); ok {
		for k, v := range extender.AdditionalHeaders() {
			req.Header.Set(k, v)
		}
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var content map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&content); err != nil {
		return nil, fmt.Errorf("%s: unable to decode userinfo response: %w", op, err)
	}
	return content, nil
}

// callbackURL reconstructs the absolute URL of an inbound callback request.
func callbackURL(r *http.Request) *url.URL {
	u := *r.URL
	if u.Host == "" {
		u.Host = r.Host
	}
	if u.Scheme == "" {
		if r.TLS != nil {
			u.Scheme = "https"
		} else {
			u.Scheme = "http"
		}
	}
	return &u
}

// normalizeCallbackURL upgrades the authorization-response URL from http to
// https unless insecure transport is explicitly allowed (local development).
func normalizeCallbackURL(u *url.URL, allowInsecureHTTP bool) *url.URL {
	if u == nil {
		return nil
	}
	normalized := *u
	if !allowInsecureHTTP && normalized.Scheme != "https" {
		normalized.Scheme = "https"
	}
	return &normalized
}

// currentPath strips the query and fragment, leaving scheme://host/path.
func currentPath(u *url.URL) string {
	trimmed := url.URL{
		Scheme: u.Scheme,
		Host:   u.Host,
		Path:   u.Path,
	}
	return trimmed.String()
}
