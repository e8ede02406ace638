// Package server exposes the auth service over HTTP. Handlers stay thin:
// decode the request, call one service method, translate the sentinel error
// into a status code.
package server

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/bigmini/auth-service/auth"
	"github.com/bigmini/auth-service/internal/config"
	"github.com/bigmini/auth-service/server/oauthprovider"
)

type Server struct {
	env    string
	mux    *http.ServeMux
	routes []string
	config *config.Config
	auth   *auth.Service
	oauth  *oauthprovider.Registry
	logger zerolog.Logger
}

func New(cfg *config.Config, authService *auth.Service, oauthRegistry *oauthprovider.Registry, logger zerolog.Logger) *Server {
	s := &Server{
		env:    cfg.Env,
		mux:    http.NewServeMux(),
		config: cfg,
		auth:   authService,
		oauth:  oauthRegistry,
		logger: logger,
	}

	s.initRoutes()
	s.logRoutes()

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)
		if len(parts) > 1 {
			s.logger.Info().Str("method", parts[0]).Str("path", parts[1]).Msg("route")
		} else {
			s.logger.Info().Str("path", parts[0]).Msg("route")
		}
	}
}

// getScheme determines http/https, honouring the proxy header.
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
