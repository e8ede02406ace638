package server

import (
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"

	"github.com/bigmini/auth-service/auth"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// SignupHandler registers a local account and triggers the verification mail.
func (s *Server) SignupHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req credentialsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Email == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "email and password are required")
			return
		}

		if err := s.auth.Signup(r.Context(), req.Email, req.Password); err != nil {
			switch {
			case errors.Is(err, auth.ErrEmailInUse):
				writeError(w, http.StatusConflict, "email already registered")
			case errors.Is(err, auth.ErrEmailDelivery):
				s.logger.Error().Err(err).Msg("signup: verification mail rejected")
				writeError(w, http.StatusBadGateway, "could not send verification email")
			default:
				s.serverError(w, "signup", err)
			}
			return
		}

		writeJSON(w, http.StatusCreated, map[string]string{
			"message": "verification email sent",
		})
	}
}

// VerifyEmailHandler consumes the token from the verification link.
func (s *Server) VerifyEmailHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rawToken := r.PathValue("token")
		if rawToken == "" {
			writeError(w, http.StatusBadRequest, "missing verification token")
			return
		}

		if err := s.auth.VerifyEmail(r.Context(), rawToken); err != nil {
			switch {
			case errors.Is(err, auth.ErrInvalidOrExpiredToken):
				writeError(w, http.StatusBadRequest, "invalid or expired verification token")
			case errors.Is(err, auth.ErrAlreadyVerified):
				writeError(w, http.StatusBadRequest, "email already verified")
			case errors.Is(err, auth.ErrUserNotFound):
				writeError(w, http.StatusBadRequest, "unknown user")
			default:
				s.serverError(w, "verify email", err)
			}
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"message": "email verified"})
	}
}

// LoginHandler checks local credentials and returns a token pair.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req credentialsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		id, err := s.auth.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidCredentials) {
				writeError(w, http.StatusUnauthorized, "invalid credentials")
				return
			}
			s.serverError(w, "login", err)
			return
		}

		pair, err := s.auth.IssueTokenPair(id.UserID, id.Generation)
		if err != nil {
			s.serverError(w, "login issue pair", err)
			return
		}

		writeJSON(w, http.StatusOK, pair)
	}
}

// RefreshTokenHandler exchanges a refresh token for a fresh pair.
func (s *Server) RefreshTokenHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req refreshRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
			writeError(w, http.StatusBadRequest, "refreshToken is required")
			return
		}

		pair, err := s.auth.RefreshTokenPair(r.Context(), req.RefreshToken)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrTokenExpired),
				errors.Is(err, auth.ErrInvalidToken),
				errors.Is(err, auth.ErrStaleToken),
				errors.Is(err, auth.ErrUserNotFound):
				writeError(w, http.StatusForbidden, "invalid refresh token")
			default:
				s.serverError(w, "refresh", err)
			}
			return
		}

		writeJSON(w, http.StatusOK, pair)
	}
}

// LogoutHandler revokes every refresh token of the authenticated user.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := r.Context().Value(ContextKeyUserID).(string)
		if !ok || userID == "" {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		if err := s.auth.RevokeAllSessions(r.Context(), userID); err != nil {
			if errors.Is(err, auth.ErrUserNotFound) {
				writeError(w, http.StatusUnauthorized, "unknown user")
				return
			}
			s.serverError(w, "logout", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// MeHandler echoes the identity asserted by the access token.
func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := r.Context().Value(ContextKeyUserID).(string)
		if !ok || userID == "" {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"userId": userID})
	}
}

func (s *Server) serverError(w http.ResponseWriter, op string, err error) {
	s.logger.Error().Err(err).Str("op", op).Msg("request failed")
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
