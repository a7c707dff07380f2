package sso

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func mustParseURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func captureLogs(c *Config) *bytes.Buffer {
	var buf bytes.Buffer
	c.Logger = hclog.New(&hclog.LoggerOptions{
		Name:   "sso-test",
		Output: &buf,
		Level:  hclog.Warn,
	})
	return &buf
}

func TestClient_NewSession(t *testing.T) {
	ctx := context.Background()
	tp := StartTestProvider(t)

	t.Run("plain-flow-generates-nothing", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		c, err := New(newFakeProvider(tp, Features{}), testConfig())
		require.NoError(err)
		s, err := c.NewSession(ctx)
		require.NoError(err)
		defer s.Close()
		assert.Empty(s.State())
		assert.Nil(s.PKCEVerifier())
	})
	t.Run("state-and-pkce-generated", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		c, err := New(newFakeProvider(tp, Features{RequiresState: true, UsesPKCE: true}), testConfig())
		require.NoError(err)
		s, err := c.NewSession(ctx)
		require.NoError(err)
		defer s.Close()
		assert.NotEmpty(s.State())
		require.NotNil(s.PKCEVerifier())
		assert.Len(s.PKCEVerifier().Verifier(), DefaultVerifierLen)
	})
	t.Run("fresh-state-per-session", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		c, err := New(newFakeProvider(tp, Features{RequiresState: true}), testConfig())
		require.NoError(err)

		first, err := c.NewSession(ctx)
		require.NoError(err)
		firstState := first.State()
		first.Close()

		second, err := c.NewSession(ctx)
		require.NoError(err)
		defer second.Close()
		assert.NotEmpty(firstState)
		assert.NotEqual(firstState, second.State())
	})
	t.Run("nil-context", func(t *testing.T) {
		c, err := New(newFakeProvider(tp, Features{}), testConfig())
		require.NoError(t, err)
		var nilCtx context.Context
		s, err := c.NewSession(nilCtx)
		require.Error(t, err)
		assert.Nil(t, s)
		assert.True(t, errors.Is(err, ErrNilParameter))
	})
	t.Run("serialized-with-context-cancellation", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		c, err := New(newFakeProvider(tp, Features{}), testConfig())
		require.NoError(err)

		held, err := c.NewSession(ctx)
		require.NoError(err)

		// A second session must not be obtainable while the first is open,
		// and the blocked caller must get its context error back instead of
		// deadlocking.
		shortCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		defer cancel()
		blocked, err := c.NewSession(shortCtx)
		require.Error(err)
		assert.Nil(blocked)
		assert.True(errors.Is(err, context.DeadlineExceeded))

		held.Close()
		next, err := c.NewSession(ctx)
		require.NoError(err)
		next.Close()
	})
	t.Run("close-is-idempotent", func(t *testing.T) {
		require := require.New(t)
		c, err := New(newFakeProvider(tp, Features{}), testConfig())
		require.NoError(err)

		s, err := c.NewSession(ctx)
		require.NoError(err)
		s.Close()
		s.Close()

		next, err := c.NewSession(ctx)
		require.NoError(err)
		next.Close()
	})
}

func TestClient_UnsafeSession(t *testing.T) {
	assert, require := assert.New(t), require.New(t)
	ctx := context.Background()
	tp := StartTestProvider(t)

	cfg := testConfig()
	logs := captureLogs(cfg)
	c, err := New(newFakeProvider(tp, Features{RequiresState: true}), cfg)
	require.NoError(err)

	// The unsafe path must not take or need the login lock: it stays usable
	// while a scoped session holds it.
	locked, err := c.NewSession(ctx)
	require.NoError(err)
	defer locked.Close()

	s := c.UnsafeSession()
	assert.NotEmpty(s.State())
	assert.Contains(logs.String(), "without the login lock")

	loginURL, err := s.LoginURL(ctx)
	require.NoError(err)
	assert.Contains(loginURL, "state="+s.State())
	s.Close()
}

func TestSession_LoginURL(t *testing.T) {
	ctx := context.Background()
	tp := StartTestProvider(t)

	t.Run("missing-redirect-url", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		cfg := testConfig()
		cfg.RedirectURL = ""
		c, err := New(newFakeProvider(tp, Features{}), cfg)
		require.NoError(err)
		s, err := c.NewSession(ctx)
		require.NoError(err)
		defer s.Close()

		loginURL, err := s.LoginURL(ctx)
		require.Error(err)
		assert.Empty(loginURL)
		assert.True(errors.Is(err, ErrMissingRedirectURL))
	})
	t.Run("basics", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		c, err := New(newFakeProvider(tp, Features{RequiresState: true}), testConfig())
		require.NoError(err)
		s, err := c.NewSession(ctx)
		require.NoError(err)
		defer s.Close()

		loginURL, err := s.LoginURL(ctx)
		require.NoError(err)
		assert.True(strings.HasPrefix(loginURL, tp.Addr()+"/authorize?"))

		u := mustParseURL(t, loginURL)
		q := u.Query()
		assert.Equal("test-rp-id", q.Get("client_id"))
		assert.Equal("http://rp.example.com/callback", q.Get("redirect_uri"))
		assert.Equal("code", q.Get("response_type"))
		assert.Equal("openid email", q.Get("scope"))
		assert.Equal(s.State(), q.Get("state"))
	})
	t.Run("pkce-challenge", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		c, err := New(newFakeProvider(tp, Features{UsesPKCE: true}), testConfig())
		require.NoError(err)
		s, err := c.NewSession(ctx)
		require.NoError(err)
		defer s.Close()

		loginURL, err := s.LoginURL(ctx)
		require.NoError(err)
		q := mustParseURL(t, loginURL).Query()
		assert.Equal(s.PKCEVerifier().Challenge(), q.Get("code_challenge"))
		assert.Equal(string(S256), q.Get("code_challenge_method"))
	})
	t.Run("options", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		p := newFakeProvider(tp, Features{})
		p.authParams = map[string]string{"audience": "https://api.example.com"}
		c, err := New(p, testConfig())
		require.NoError(err)
		s, err := c.NewSession(ctx)
		require.NoError(err)
		defer s.Close()

		loginURL, err := s.LoginURL(ctx,
			WithRedirectURL("http://rp.example.com/other-callback"),
			WithState("explicit-state"),
			WithAuthParams(map[string]string{"prompt": "consent"}),
			WithUILocales(language.English, language.German),
		)
		require.NoError(err)
		q := mustParseURL(t, loginURL).Query()
		assert.Equal("http://rp.example.com/other-callback", q.Get("redirect_uri"))
		assert.Equal("explicit-state", q.Get("state"))
		assert.Equal("consent", q.Get("prompt"))
		assert.Equal("https://api.example.com", q.Get("audience"))
		assert.Equal("en de", q.Get("ui_locales"))
	})
	t.Run("discovery-failure", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		p := newFakeProvider(tp, Features{})
		p.docErr = errors.New("discovery blew up")
		c, err := New(p, testConfig())
		require.NoError(err)
		s, err := c.NewSession(ctx)
		require.NoError(err)
		defer s.Close()

		_, err = s.LoginURL(ctx)
		require.Error(err)
		assert.Contains(err.Error(), "discovery blew up")
	})
}

func TestSession_LoginRedirect(t *testing.T) {
	assert, require := assert.New(t), require.New(t)
	ctx := context.Background()
	tp := StartTestProvider(t)

	c, err := New(newFakeProvider(tp, Features{RequiresState: true, UsesPKCE: true}), testConfig())
	require.NoError(err)
	s, err := c.NewSession(ctx)
	require.NoError(err)
	defer s.Close()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "http://rp.example.com/login", nil)
	require.NoError(s.LoginRedirect(rec, req))

	resp := rec.Result()
	defer resp.Body.Close()
	assert.Equal(http.StatusSeeOther, resp.StatusCode)

	wantURL, err := s.LoginURL(ctx)
	require.NoError(err)
	assert.Equal(wantURL, resp.Header.Get("Location"))

	var pkceCookie *http.Cookie
	for _, cookie := range resp.Cookies() {
		if cookie.Name == PKCECookieName {
			pkceCookie = cookie
		}
	}
	require.NotNil(pkceCookie, "expected a %s cookie", PKCECookieName)
	assert.Equal(s.PKCEVerifier().Verifier(), pkceCookie.Value)
	assert.True(pkceCookie.HttpOnly)
	assert.Equal(pkceCookieMaxAge, pkceCookie.MaxAge)
}

func TestSession_VerifyAndProcess(t *testing.T) {
	ctx := context.Background()

	t.Run("missing-code", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		tp := StartTestProvider(t)
		c, err := New(newFakeProvider(tp, Features{}), testConfig())
		require.NoError(err)
		s, err := c.NewSession(ctx)
		require.NoError(err)
		defer s.Close()

		req := httptest.NewRequest(http.MethodGet, "http://rp.example.com/callback?state=xyz", nil)
		openid, err := s.VerifyAndProcess(ctx, req)
		require.Error(err)
		assert.Nil(openid)

		var loginErr *LoginError
		require.True(errors.As(err, &loginErr))
		assert.Equal(http.StatusBadRequest, loginErr.HTTPStatus)
		assert.Contains(loginErr.Message, "'code' parameter was not found")
	})
	t.Run("userinfo-flow", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		tp := StartTestProvider(t)
		c, err := New(newFakeProvider(tp, Features{}), testConfig())
		require.NoError(err)
		s, err := c.NewSession(ctx)
		require.NoError(err)
		defer s.Close()

		req := httptest.NewRequest(http.MethodGet, "http://rp.example.com/callback?code=test-code&state=returned-state", nil)
		openid, err := s.VerifyAndProcess(ctx, req)
		require.NoError(err)
		require.NotNil(openid)
		assert.Equal("test-subject", openid.ID)
		assert.Equal("test@example.com", openid.Email)
		assert.Equal("fake", openid.Provider)

		assert.Equal("returned-state", s.ReturnedState())
		assert.Equal("test-access-token", s.AccessToken())
		assert.Equal(RefreshToken("test-refresh-token"), s.RefreshToken())
		assert.NotEmpty(s.IDToken())

		form, basicUser, basicPass := tp.LastTokenRequest()
		assert.Equal("test-code", form.Get("code"))
		assert.Equal("authorization_code", form.Get("grant_type"))
		assert.Equal("http://rp.example.com/callback", form.Get("redirect_uri"))
		assert.Equal("test-rp-id", basicUser)
		assert.Equal("test-rp-secret", basicPass)

		assert.Equal("Bearer test-access-token", tp.LastUserinfoAuthHeader())
	})
	t.Run("raw-response", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		tp := StartTestProvider(t)
		tp.SetUserinfoReply(map[string]interface{}{
			"sub":    "raw-subject",
			"email":  "raw@example.com",
			"extras": map[string]interface{}{"team": "platform"},
		})
		c, err := New(newFakeProvider(tp, Features{}), testConfig())
		require.NoError(err)
		s, err := c.NewSession(ctx)
		require.NoError(err)
		defer s.Close()

		req := httptest.NewRequest(http.MethodGet, "http://rp.example.com/callback?code=test-code", nil)
		raw, err := s.VerifyAndProcessRaw(ctx, req)
		require.NoError(err)
		assert.Equal("raw-subject", raw["sub"])
		assert.Equal(map[string]interface{}{"team": "platform"}, raw["extras"])
	})
	t.Run("pkce-verifier-from-cookie", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		tp := StartTestProvider(t)
		c, err := New(newFakeProvider(tp, Features{UsesPKCE: true}), testConfig())
		require.NoError(err)
		s, err := c.NewSession(ctx)
		require.NoError(err)
		defer s.Close()

		cookieVerifier := strings.Repeat("v", MinVerifierLen)
		req := httptest.NewRequest(http.MethodGet, "http://rp.example.com/callback?code=test-code", nil)
		req.AddCookie(&http.Cookie{Name: PKCECookieName, Value: cookieVerifier})

		_, err = s.VerifyAndProcess(ctx, req)
		require.NoError(err)

		form, _, _ := tp.LastTokenRequest()
		assert.Equal(cookieVerifier, form.Get("code_verifier"))
		require.NotNil(s.PKCEVerifier())
		assert.Equal(cookieVerifier, s.PKCEVerifier().Verifier())
	})
	t.Run("id-token-flow", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		tp := StartTestProvider(t)
		tp.SetIDTokenClaims(map[string]interface{}{"email": "from-token@example.com"})
		p := &fakeTokenProvider{newFakeProvider(tp, Features{UseIDTokenForUserInfo: true})}
		c, err := New(p, testConfig())
		require.NoError(err)
		s, err := c.NewSession(ctx)
		require.NoError(err)
		defer s.Close()

		req := httptest.NewRequest(http.MethodGet, "http://rp.example.com/callback?code=test-code", nil)
		openid, err := s.VerifyAndProcess(ctx, req)
		require.NoError(err)
		require.NotNil(openid)
		assert.Equal("test-subject", openid.ID)
		assert.Equal("from-token@example.com", openid.Email)
	})
	t.Run("id-token-missing", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		tp := StartTestProvider(t)
		tp.SetOmitIDToken(true)
		p := &fakeTokenProvider{newFakeProvider(tp, Features{UseIDTokenForUserInfo: true})}
		c, err := New(p, testConfig())
		require.NoError(err)
		s, err := c.NewSession(ctx)
		require.NoError(err)
		defer s.Close()

		req := httptest.NewRequest(http.MethodGet, "http://rp.example.com/callback?code=test-code", nil)
		openid, err := s.VerifyAndProcess(ctx, req)
		require.Error(err)
		assert.Nil(openid)

		var loginErr *LoginError
		require.True(errors.As(err, &loginErr))
		assert.Equal(http.StatusUnauthorized, loginErr.HTTPStatus)
		assert.Contains(loginErr.Message, "did not return an id token")
	})
	t.Run("userinfo-headers-merged", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		tp := StartTestProvider(t)
		p := newFakeProvider(tp, Features{})
		p.headers = map[string]string{"Accept": "application/json"}
		c, err := New(p, testConfig())
		require.NoError(err)
		s, err := c.NewSession(ctx)
		require.NoError(err)
		defer s.Close()

		req := httptest.NewRequest(http.MethodGet, "http://rp.example.com/callback?code=test-code", nil)
		_, err = s.VerifyAndProcess(ctx, req, WithHeaders(map[string]string{"X-Custom": "yes"}))
		require.NoError(err)

		headers := tp.LastUserinfoHeaders()
		assert.Equal("application/json", headers.Get("Accept"))
		assert.Equal("yes", headers.Get("X-Custom"))
	})
}

func TestSession_ProcessLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("no-token-endpoint-yields-no-result", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		tp := StartTestProvider(t)
		tp.SetOmitTokenEndpoint(true)
		c, err := New(newFakeProvider(tp, Features{}), testConfig())
		require.NoError(err)
		s, err := c.NewSession(ctx)
		require.NoError(err)
		defer s.Close()

		openid, err := s.ProcessLogin(ctx, "test-code", mustParseURL(t, "http://rp.example.com/callback?code=test-code"))
		require.NoError(err)
		assert.Nil(openid)
		assert.Empty(s.AccessToken())
	})
	t.Run("callback-fallback-upgrades-to-https", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		tp := StartTestProvider(t)
		cfg := testConfig()
		cfg.RedirectURL = ""
		cfg.AllowInsecureHTTP = false
		c, err := New(newFakeProvider(tp, Features{}), cfg)
		require.NoError(err)
		s, err := c.NewSession(ctx)
		require.NoError(err)
		defer s.Close()

		_, err = s.ProcessLogin(ctx, "test-code", mustParseURL(t, "http://rp.example.com/callback?code=test-code&state=xyz"))
		require.NoError(err)

		form, _, _ := tp.LastTokenRequest()
		assert.Equal("https://rp.example.com/callback", form.Get("redirect_uri"))
	})
	t.Run("callback-fallback-keeps-http-when-allowed", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		tp := StartTestProvider(t)
		cfg := testConfig()
		cfg.RedirectURL = ""
		c, err := New(newFakeProvider(tp, Features{}), cfg)
		require.NoError(err)
		s, err := c.NewSession(ctx)
		require.NoError(err)
		defer s.Close()

		_, err = s.ProcessLogin(ctx, "test-code", mustParseURL(t, "http://rp.example.com/callback?code=test-code"))
		require.NoError(err)

		form, _, _ := tp.LastTokenRequest()
		assert.Equal("http://rp.example.com/callback", form.Get("redirect_uri"))
	})
	t.Run("redirect-url-option-wins", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		tp := StartTestProvider(t)
		c, err := New(newFakeProvider(tp, Features{}), testConfig())
		require.NoError(err)
		s, err := c.NewSession(ctx)
		require.NoError(err)
		defer s.Close()

		_, err = s.ProcessLogin(ctx, "test-code", nil, WithRedirectURL("http://rp.example.com/alt-callback"))
		require.NoError(err)

		form, _, _ := tp.LastTokenRequest()
		assert.Equal("http://rp.example.com/alt-callback", form.Get("redirect_uri"))
	})
	t.Run("basic-auth-disabled", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		tp := StartTestProvider(t)
		c, err := New(newFakeProvider(tp, Features{DisableBasicAuth: true}), testConfig())
		require.NoError(err)
		s, err := c.NewSession(ctx)
		require.NoError(err)
		defer s.Close()

		_, err = s.ProcessLogin(ctx, "test-code", nil)
		require.NoError(err)

		form, basicUser, _ := tp.LastTokenRequest()
		assert.Empty(basicUser)
		assert.Equal("test-rp-id", form.Get("client_id"))
		assert.Equal("test-rp-secret", form.Get("client_secret"))
	})
	t.Run("token-params-merged", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		tp := StartTestProvider(t)
		p := newFakeProvider(tp, Features{})
		p.tokenParams = map[string]string{"audience": "https://api.example.com"}
		c, err := New(p, testConfig())
		require.NoError(err)
		s, err := c.NewSession(ctx)
		require.NoError(err)
		defer s.Close()

		_, err = s.ProcessLogin(ctx, "test-code", nil, WithTokenParams(map[string]string{"resource": "urn:example"}))
		require.NoError(err)

		form, _, _ := tp.LastTokenRequest()
		assert.Equal("https://api.example.com", form.Get("audience"))
		assert.Equal("urn:example", form.Get("resource"))
	})
	t.Run("stale-tokens-reset-on-reuse", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		tp := StartTestProvider(t)
		tp.SetEchoCodeAsToken(true)
		cfg := testConfig()
		logs := captureLogs(cfg)
		c, err := New(newFakeProvider(tp, Features{}), cfg)
		require.NoError(err)
		s, err := c.NewSession(ctx)
		require.NoError(err)
		defer s.Close()

		_, err = s.ProcessLogin(ctx, "first-code", nil)
		require.NoError(err)
		assert.Equal("first-code", s.AccessToken())
		assert.Empty(logs.String())

		_, err = s.ProcessLogin(ctx, "second-code", nil)
		require.NoError(err)
		assert.Equal("second-code", s.AccessToken())
		assert.Contains(logs.String(), "prior login state")
	})
}

// Two logins racing on one client must each complete with their own tokens.
// The test provider echoes the authorization code back as the access token so
// cross-contamination is observable.
func TestClient_ConcurrentLogins(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	tp := StartTestProvider(t)
	tp.SetEchoCodeAsToken(true)

	c, err := New(newFakeProvider(tp, Features{RequiresState: true}), testConfig())
	require.NoError(err)

	const attempts = 8
	errCh := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		code := "code-" + strings.Repeat("x", i+1)
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := c.NewSession(ctx)
			if err != nil {
				errCh <- err
				return
			}
			defer s.Close()
			if _, err := s.ProcessLogin(ctx, code, nil); err != nil {
				errCh <- err
				return
			}
			if got := s.AccessToken(); got != code {
				errCh <- errors.New("session completed with another login's token: " + got)
			}
		}()
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		require.NoError(err)
	}
}
