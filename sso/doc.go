// Package sso implements client-side OAuth2/OpenID Connect single sign-on
// against third-party identity providers using the typical 3-legged
// authorization code flow.
//
// A Client wraps one provider adapter (see the providers subpackage) together
// with relying-party credentials. Each login attempt happens inside a scoped
// Session obtained from Client.NewSession, which serializes concurrent logins
// on the same Client and guarantees fresh per-login state (anti-CSRF state
// value and, for providers that require it, a PKCE verifier/challenge pair):
//
//	client, err := sso.New(providers.NewGithub(), &sso.Config{
//		ClientID:     "client-id",
//		ClientSecret: "client-secret",
//		RedirectURL:  "https://example.com/callback",
//	})
//	...
//	session, err := client.NewSession(ctx)
//	if err != nil {
//		return err
//	}
//	defer session.Close()
//	if err := session.LoginRedirect(w, r); err != nil {
//		return err
//	}
//
// On the callback leg, Session.VerifyAndProcess exchanges the authorization
// code for tokens, fetches (or decodes) the user's identity and returns a
// normalized OpenID record.
package sso
