package server

import "net/http"

const (
	RouteSignup       = "/api/auth/signup"
	RouteVerifyEmail  = "/api/auth/verify/{token}"
	RouteLogin        = "/api/auth/login"
	RouteRefreshToken = "/api/auth/refresh-token"
	RouteLogout       = "/api/auth/logout"
	RouteMe           = "/api/auth/me"
)

func (s *Server) initRoutes() {
	// Local credentials
	s.RegisterRouteHandler("POST "+RouteSignup, ChainMiddleware(s.SignupHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteVerifyEmail, ChainMiddleware(s.VerifyEmailHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteLogin, ChainMiddleware(s.LoginHandler(), s.APIMiddleware()...))

	// Token lifecycle
	s.RegisterRouteHandler("POST "+RouteRefreshToken, ChainMiddleware(s.RefreshTokenHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteLogout, ChainMiddleware(s.LogoutHandler(), s.RequireAuth(s.APIMiddleware()...)...))

	// Federated login. Routes are registered per configured provider so the
	// literal patterns cannot collide with /api/auth/verify.
	for _, name := range s.oauth.Names() {
		s.RegisterRouteHandler("GET /api/auth/"+name, ChainMiddleware(s.OAuthRedirectHandler(name), s.APIMiddleware()...))
		s.RegisterRouteHandler("GET /api/auth/"+name+"/callback", ChainMiddleware(s.OAuthCallbackHandler(name), s.APIMiddleware()...))
	}

	s.RegisterRouteHandler("GET "+RouteMe, ChainMiddleware(s.MeHandler(), s.RequireAuth(s.APIMiddleware()...)...))

	// Method-qualified patterns would otherwise answer preflights with 405
	// before the CORS middleware runs.
	s.RegisterRouteHandler("OPTIONS /api/", ChainMiddleware(s.PreflightHandler(), s.APIMiddleware()...))

	s.RegisterRouteFunc("GET /healthz", s.HealthHandler())
}

// PreflightHandler terminates same-origin OPTIONS requests; cross-origin
// preflights are already answered by the CORS middleware.
func (s *Server) PreflightHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
