package server

import (
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"

	"github.com/bigmini/auth-service/auth"
)

// oauthStateCookie carries the CSRF state between the consent redirect and
// the provider callback.
const oauthStateCookie = "oauth_state"

// generateRandomString creates a random base64url string
func generateRandomString(length int) string {
	b := make([]byte, length)
	rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

// OAuthRedirectHandler starts a provider flow: mint a state value, stash it
// in a short-lived cookie, and send the browser to the consent screen.
func (s *Server) OAuthRedirectHandler(providerName string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		adapter, err := s.oauth.Get(providerName)
		if err != nil {
			writeError(w, http.StatusNotFound, "unknown provider")
			return
		}

		state := generateRandomString(32)
		http.SetCookie(w, &http.Cookie{
			Name:     oauthStateCookie,
			Value:    state,
			Path:     "/",
			HttpOnly: true,
			Secure:   getScheme(r) == "https",
			SameSite: http.SameSiteLaxMode,
			MaxAge:   300, // long enough for the consent screen round trip
		})

		http.Redirect(w, r, adapter.AuthCodeURL(state), http.StatusFound)
	}
}

// OAuthCallbackHandler completes the flow: check state, exchange the code,
// resolve the assertion to an internal user, and hand tokens to the frontend.
func (s *Server) OAuthCallbackHandler(providerName string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		adapter, err := s.oauth.Get(providerName)
		if err != nil {
			writeError(w, http.StatusNotFound, "unknown provider")
			return
		}

		if providerErr := r.URL.Query().Get("error"); providerErr != "" {
			s.redirectToApp(w, r, url.Values{"error": {providerErr}})
			return
		}

		cookie, err := r.Cookie(oauthStateCookie)
		if err != nil || cookie.Value == "" || cookie.Value != r.URL.Query().Get("state") {
			writeError(w, http.StatusBadRequest, "state mismatch")
			return
		}
		clearCookie(w, oauthStateCookie)

		code := r.URL.Query().Get("code")
		if code == "" {
			writeError(w, http.StatusBadRequest, "missing authorization code")
			return
		}

		assertion, err := adapter.Exchange(r.Context(), code)
		if err != nil {
			s.logger.Error().Err(err).Str("provider", adapter.Name()).Msg("oauth exchange failed")
			s.redirectToApp(w, r, url.Values{"error": {"authentication failed"}})
			return
		}

		id, err := s.auth.ResolveIdentity(r.Context(), assertion)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrUnknownProvider):
				writeError(w, http.StatusNotFound, "unknown provider")
			case errors.Is(err, auth.ErrEmailInUse):
				s.redirectToApp(w, r, url.Values{"error": {"email already registered"}})
			default:
				s.serverError(w, "oauth resolve identity", err)
			}
			return
		}

		pair, err := s.auth.IssueTokenPair(id.UserID, id.Generation)
		if err != nil {
			s.serverError(w, "oauth issue pair", err)
			return
		}

		s.redirectToApp(w, r, url.Values{
			"accessToken":  {pair.AccessToken},
			"refreshToken": {pair.RefreshToken},
		})
	}
}

// redirectToApp sends the browser back to the frontend callback page with the
// outcome in the query string.
func (s *Server) redirectToApp(w http.ResponseWriter, r *http.Request, params url.Values) {
	target := strings.TrimSuffix(s.config.AppBaseURL, "/") + "/auth/callback?" + params.Encode()
	http.Redirect(w, r, target, http.StatusFound)
}

func clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}
