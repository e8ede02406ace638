package server_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/bigmini/auth-service/auth"
	fakesender "github.com/bigmini/auth-service/email/senderfake"
	"github.com/bigmini/auth-service/identity"
	"github.com/bigmini/auth-service/internal/config"
	"github.com/bigmini/auth-service/providers"
	fakeproviderrepo "github.com/bigmini/auth-service/providers/repofake"
	"github.com/bigmini/auth-service/server"
	"github.com/bigmini/auth-service/server/oauthprovider"
	"github.com/bigmini/auth-service/token"
	fakeuserrepo "github.com/bigmini/auth-service/users/repofake"
)

// fakeOAuthAdapter stands in for a real provider handshake.
type fakeOAuthAdapter struct{}

func (fakeOAuthAdapter) Name() string { return providers.Google }

func (fakeOAuthAdapter) AuthCodeURL(state string) string {
	return "https://accounts.example.com/consent?state=" + state
}

func (fakeOAuthAdapter) Exchange(_ context.Context, code string) (identity.Assertion, error) {
	return identity.Assertion{
		Provider:  providers.Google,
		SubjectID: "subject-" + code,
		Email:     "federated@example.com",
	}, nil
}

const (
	testAppBaseURL   = "https://app.example.com"
	testUserEmail    = "john.doe@example.com"
	testUserPassword = "password123"
)

type testFixture struct {
	server *server.Server
	mail   *fakesender.FakeSender
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	mail := fakesender.NewFakeSender()
	tokens := token.New(
		token.NewHMACSigner("access-secret-1"),
		token.NewHMACSigner("refresh-secret-1"),
		token.NewHMACSigner("verify-secret-1"),
	)

	authService, err := auth.NewService(
		auth.Repos{
			Users:     fakeuserrepo.NewFakeUserRepo(),
			Providers: fakeproviderrepo.NewFakeProviderRepo(),
		},
		tokens,
		mail,
		auth.WithAppBaseURL(testAppBaseURL),
	)
	require.NoError(t, err)

	cfg := &config.Config{
		Env:        "TEST",
		AppBaseURL: testAppBaseURL,
		CORSOrigin: "*",
	}
	srv := server.New(cfg, authService, oauthprovider.NewRegistry(fakeOAuthAdapter{}), zerolog.Nop())

	return &testFixture{server: srv, mail: mail}
}

func (f *testFixture) do(t *testing.T, method, path, body, bearer string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	recorder := httptest.NewRecorder()
	f.server.ServeHTTP(recorder, req)
	return recorder
}

func (f *testFixture) signup(t *testing.T) {
	t.Helper()
	resp := f.do(t, http.MethodPost, server.RouteSignup,
		`{"email":"`+testUserEmail+`","password":"`+testUserPassword+`"}`, "")
	require.Equal(t, http.StatusCreated, resp.Code)
}

func (f *testFixture) verify(t *testing.T) {
	t.Helper()
	sent := f.mail.Sent()
	require.NotEmpty(t, sent)
	verificationToken := strings.TrimPrefix(sent[len(sent)-1].VerificationURL, testAppBaseURL+"/verify/")

	resp := f.do(t, http.MethodGet, "/api/auth/verify/"+verificationToken, "", "")
	require.Equal(t, http.StatusOK, resp.Code)
}

func (f *testFixture) login(t *testing.T) token.Pair {
	t.Helper()
	resp := f.do(t, http.MethodPost, server.RouteLogin,
		`{"email":"`+testUserEmail+`","password":"`+testUserPassword+`"}`, "")
	require.Equal(t, http.StatusOK, resp.Code)

	var pair token.Pair
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &pair))
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	return pair
}

func TestSignupVerifyLoginFlow(t *testing.T) {
	f := setupTestFixture(t)
	f.signup(t)
	f.verify(t)
	pair := f.login(t)

	resp := f.do(t, http.MethodGet, server.RouteMe, "", pair.AccessToken)
	require.Equal(t, http.StatusOK, resp.Code)

	var me map[string]string
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &me))
	require.NotEmpty(t, me["userId"])
}

func TestSignupDuplicateEmailConflicts(t *testing.T) {
	f := setupTestFixture(t)
	f.signup(t)

	resp := f.do(t, http.MethodPost, server.RouteSignup,
		`{"email":"`+testUserEmail+`","password":"other"}`, "")
	require.Equal(t, http.StatusConflict, resp.Code)
}

func TestSignupRejectsBadBody(t *testing.T) {
	f := setupTestFixture(t)

	resp := f.do(t, http.MethodPost, server.RouteSignup, `{"email":""}`, "")
	require.Equal(t, http.StatusBadRequest, resp.Code)

	resp = f.do(t, http.MethodPost, server.RouteSignup, `not json`, "")
	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestVerifyRejectsBadToken(t *testing.T) {
	f := setupTestFixture(t)

	resp := f.do(t, http.MethodGet, "/api/auth/verify/not-a-token", "", "")
	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestLoginInvalidCredentials(t *testing.T) {
	f := setupTestFixture(t)
	f.signup(t)
	f.verify(t)

	resp := f.do(t, http.MethodPost, server.RouteLogin,
		`{"email":"`+testUserEmail+`","password":"wrong"}`, "")
	require.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestRefreshToken(t *testing.T) {
	f := setupTestFixture(t)
	f.signup(t)
	f.verify(t)
	pair := f.login(t)

	resp := f.do(t, http.MethodPost, server.RouteRefreshToken,
		`{"refreshToken":"`+pair.RefreshToken+`"}`, "")
	require.Equal(t, http.StatusOK, resp.Code)

	var renewed token.Pair
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &renewed))
	require.NotEmpty(t, renewed.AccessToken)
}

func TestRefreshRejectsGarbage(t *testing.T) {
	f := setupTestFixture(t)

	resp := f.do(t, http.MethodPost, server.RouteRefreshToken, `{"refreshToken":"junk"}`, "")
	require.Equal(t, http.StatusForbidden, resp.Code)

	resp = f.do(t, http.MethodPost, server.RouteRefreshToken, `{}`, "")
	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestLogoutRevokesRefreshTokens(t *testing.T) {
	f := setupTestFixture(t)
	f.signup(t)
	f.verify(t)
	pair := f.login(t)

	resp := f.do(t, http.MethodPost, server.RouteLogout, "", pair.AccessToken)
	require.Equal(t, http.StatusNoContent, resp.Code)

	resp = f.do(t, http.MethodPost, server.RouteRefreshToken,
		`{"refreshToken":"`+pair.RefreshToken+`"}`, "")
	require.Equal(t, http.StatusForbidden, resp.Code)
}

func TestProtectedRoutesRequireBearer(t *testing.T) {
	f := setupTestFixture(t)

	resp := f.do(t, http.MethodGet, server.RouteMe, "", "")
	require.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = f.do(t, http.MethodPost, server.RouteLogout, "", "not-a-token")
	require.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestCORSPreflight(t *testing.T) {
	f := setupTestFixture(t)

	req := httptest.NewRequest(http.MethodOptions, server.RouteLogin, nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	recorder := httptest.NewRecorder()
	f.server.ServeHTTP(recorder, req)

	require.Equal(t, http.StatusOK, recorder.Code)
	require.Equal(t, "*", recorder.Header().Get("Access-Control-Allow-Origin"))
	require.Contains(t, recorder.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
}

func TestUnknownOAuthProvider(t *testing.T) {
	f := setupTestFixture(t)

	resp := f.do(t, http.MethodGet, "/api/auth/myspace", "", "")
	require.Equal(t, http.StatusNotFound, resp.Code)
}

func TestOAuthRedirectAndCallback(t *testing.T) {
	f := setupTestFixture(t)

	resp := f.do(t, http.MethodGet, "/api/auth/google", "", "")
	require.Equal(t, http.StatusFound, resp.Code)

	location, err := url.Parse(resp.Header().Get("Location"))
	require.NoError(t, err)
	state := location.Query().Get("state")
	require.NotEmpty(t, state)

	var stateCookie *http.Cookie
	for _, cookie := range resp.Result().Cookies() {
		if cookie.Name == "oauth_state" {
			stateCookie = cookie
		}
	}
	require.NotNil(t, stateCookie)
	require.Equal(t, state, stateCookie.Value)

	req := httptest.NewRequest(http.MethodGet,
		"/api/auth/google/callback?state="+state+"&code=abc123", nil)
	req.AddCookie(stateCookie)
	recorder := httptest.NewRecorder()
	f.server.ServeHTTP(recorder, req)

	require.Equal(t, http.StatusFound, recorder.Code)
	callback, err := url.Parse(recorder.Header().Get("Location"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(callback.String(), testAppBaseURL+"/auth/callback"))
	require.NotEmpty(t, callback.Query().Get("accessToken"))
	require.NotEmpty(t, callback.Query().Get("refreshToken"))
}

func TestOAuthCallbackRejectsStateMismatch(t *testing.T) {
	f := setupTestFixture(t)

	req := httptest.NewRequest(http.MethodGet,
		"/api/auth/google/callback?state=forged&code=abc123", nil)
	req.AddCookie(&http.Cookie{Name: "oauth_state", Value: "genuine"})
	recorder := httptest.NewRecorder()
	f.server.ServeHTTP(recorder, req)

	require.Equal(t, http.StatusBadRequest, recorder.Code)
}
