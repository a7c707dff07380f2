package sso

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/square/go-jose.v2"
	"gopkg.in/square/go-jose.v2/jwt"
)

// TestProvider is a local server with test identity-provider capabilities
// which make writing tests much easier. It serves a discovery document, a
// token endpoint and a userinfo endpoint, all scriptable per test.
type TestProvider struct {
	httpServer *httptest.Server

	mu sync.Mutex

	replyUserinfo    map[string]interface{}
	idTokenClaims    map[string]interface{}
	omitIDToken      bool
	omitTokenURL     bool
	echoCodeAsToken  bool
	replyAccessToken string
	replyRefresh     string

	lastTokenForm       url.Values
	lastBasicUser       string
	lastBasicPass       string
	lastUserinfoHeaders http.Header

	priv *ecdsa.PrivateKey

	t *testing.T
}

// StartTestProvider creates a disposable TestProvider. The server is stopped
// automatically when the test finishes.
func StartTestProvider(t *testing.T) *TestProvider {
	t.Helper()
	require := require.New(t)

	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(err)

	p := &TestProvider{
		t:    t,
		priv: priv,
		replyUserinfo: map[string]interface{}{
			"sub":   "test-subject",
			"email": "test@example.com",
		},
		replyAccessToken: "test-access-token",
		replyRefresh:     "test-refresh-token",
	}
	p.httpServer = httptest.NewServer(http.HandlerFunc(p.serveHTTP))
	t.Cleanup(p.httpServer.Close)
	return p
}

// Addr returns the test provider's base URL.
func (p *TestProvider) Addr() string { return p.httpServer.URL }

// DiscoveryDocument returns a document pointing at the test provider's own
// endpoints.
func (p *TestProvider) DiscoveryDocument() DiscoveryDocument {
	p.mu.Lock()
	defer p.mu.Unlock()
	d := DiscoveryDocument{
		AuthorizationEndpoint: p.httpServer.URL + "/authorize",
		TokenEndpoint:         p.httpServer.URL + "/token",
		UserinfoEndpoint:      p.httpServer.URL + "/userinfo",
	}
	if p.omitTokenURL {
		d.TokenEndpoint = ""
	}
	return d
}

// SetUserinfoReply sets the JSON payload served by the userinfo endpoint.
func (p *TestProvider) SetUserinfoReply(reply map[string]interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.replyUserinfo = reply
}

// SetAccessToken sets the access_token returned by the token endpoint.
func (p *TestProvider) SetAccessToken(token string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.replyAccessToken = token
}

// SetEchoCodeAsToken makes the token endpoint return the received
// authorization code as the access_token, so concurrent exchanges can be
// told apart.
func (p *TestProvider) SetEchoCodeAsToken(echo bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.echoCodeAsToken = echo
}

// SetOmitIDToken drops the id_token from token responses.
func (p *TestProvider) SetOmitIDToken(omit bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.omitIDToken = omit
}

// SetOmitTokenEndpoint makes DiscoveryDocument return an empty token
// endpoint.
func (p *TestProvider) SetOmitTokenEndpoint(omit bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.omitTokenURL = omit
}

// SetIDTokenClaims sets additional claims minted into issued id_tokens.
func (p *TestProvider) SetIDTokenClaims(claims map[string]interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.idTokenClaims = claims
}

// LastTokenRequest returns the form values and basic-auth credentials of the
// most recent token request.
func (p *TestProvider) LastTokenRequest() (url.Values, string, string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastTokenForm, p.lastBasicUser, p.lastBasicPass
}

// LastUserinfoAuthHeader returns the Authorization header of the most recent
// userinfo request.
func (p *TestProvider) LastUserinfoAuthHeader() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastUserinfoHeaders.Get("Authorization")
}

// LastUserinfoHeaders returns all headers of the most recent userinfo
// request.
func (p *TestProvider) LastUserinfoHeaders() http.Header {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastUserinfoHeaders
}

// SignIDToken mints a signed id_token with the given claims. Tokens are
// signed with a throwaway ES256 key; this layer never verifies signatures,
// so the key is not published.
func (p *TestProvider) SignIDToken(claims map[string]interface{}) string {
	p.t.Helper()
	require := require.New(p.t)

	signer, err := jose.NewSigner(
		jose.SigningKey{Algorithm: jose.ES256, Key: p.priv},
		(&jose.SignerOptions{}).WithType("JWT"),
	)
	require.NoError(err)

	allClaims := map[string]interface{}{
		"iss": p.httpServer.URL,
		"sub": "test-subject",
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	for k, v := range claims {
		allClaims[k] = v
	}
	raw, err := jwt.Signed(signer).Claims(allClaims).CompactSerialize()
	require.NoError(err)
	return raw
}

func (p *TestProvider) serveHTTP(w http.ResponseWriter, req *http.Request) {
	switch req.URL.Path {
	case "/.well-known/openid-configuration":
		p.serveDiscovery(w)
	case "/token":
		p.serveToken(w, req)
	case "/userinfo":
		p.serveUserinfo(w, req)
	case "/authorize":
		// The authorization endpoint is never fetched in tests; the login
		// URL merely has to point at it.
		w.WriteHeader(http.StatusNoContent)
	default:
		http.NotFound(w, req)
	}
}

func (p *TestProvider) serveDiscovery(w http.ResponseWriter) {
	d := p.DiscoveryDocument()
	reply := map[string]interface{}{
		"issuer":                 p.httpServer.URL,
		"authorization_endpoint": d.AuthorizationEndpoint,
		"token_endpoint":         d.TokenEndpoint,
		"userinfo_endpoint":      d.UserinfoEndpoint,
		"jwks_uri":               p.httpServer.URL + "/.well-known/jwks.json",
	}
	writeJSON(w, reply)
}

func (p *TestProvider) serveToken(w http.ResponseWriter, req *http.Request) {
	if err := req.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	p.mu.Lock()
	p.lastTokenForm = req.PostForm
	p.lastBasicUser, p.lastBasicPass, _ = req.BasicAuth()
	accessToken := p.replyAccessToken
	if p.echoCodeAsToken {
		accessToken = req.PostForm.Get("code")
	}
	omitIDToken := p.omitIDToken
	refresh := p.replyRefresh
	idClaims := p.idTokenClaims
	p.mu.Unlock()

	reply := map[string]interface{}{
		"access_token":  accessToken,
		"token_type":    "Bearer",
		"expires_in":    3600,
		"refresh_token": refresh,
	}
	if !omitIDToken {
		reply["id_token"] = p.SignIDToken(idClaims)
	}
	writeJSON(w, reply)
}

func (p *TestProvider) serveUserinfo(w http.ResponseWriter, req *http.Request) {
	p.mu.Lock()
	p.lastUserinfoHeaders = req.Header.Clone()
	reply := p.replyUserinfo
	p.mu.Unlock()
	writeJSON(w, reply)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
