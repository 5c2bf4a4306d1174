package server

import (
	"net/http"
	"strings"

	"github.com/jrsteele09/go-storefront-client/internal/errors"
	"github.com/jrsteele09/go-storefront-client/users"
	"github.com/rs/zerolog/log"
)

const invalidLoginMessage = "Invalid email or password"

type loginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	DeviceInfo string `json:"deviceInfo"`
}

// tokenResponse answers login and refresh
type tokenResponse struct {
	Token string          `json:"token"`
	User  *users.Identity `json:"user"`
}

// LoginHandler checks email and password, answers with an access token and
// sets the refresh cookie.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}
		if strings.TrimSpace(req.Email) == "" || req.Password == "" {
			writeMessage(w, http.StatusBadRequest, "Email and password are required")
			return
		}

		user, err := s.repos.Users.GetByEmail(strings.TrimSpace(req.Email))
		if err != nil || !user.CheckPassword(req.Password) {
			log.Info().Str("email", req.Email).Msg("Failed login attempt")
			writeMessage(w, http.StatusUnauthorized, invalidLoginMessage)
			return
		}
		if user.Blocked {
			writeMessage(w, http.StatusForbidden, "Account is blocked")
			return
		}
		if err := s.repos.Users.SetLastLogin(user.ID); err != nil {
			log.Warn().Err(err).Int64("user_id", user.ID).Msg("failed to record last login")
		}

		refreshToken, err := s.refresh.Create(user.ID, req.DeviceInfo)
		if err != nil {
			writeError(w, err)
			return
		}
		s.issueTokens(w, r, user, refreshToken)
	}
}

// RefreshHandler rotates the refresh cookie and answers with a new access
// token. The body may carry the expired access token; it is not needed.
func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var token string
		if cookie, err := r.Cookie(s.config.GetRefreshCookieName()); err == nil {
			token = cookie.Value
		}

		stored, next, err := s.refresh.Rotate(token)
		if err != nil {
			s.clearRefreshCookie(w, r)
			writeMessage(w, http.StatusUnauthorized, "Refresh token is missing, invalid or expired")
			return
		}

		user, err := s.repos.Users.GetByID(stored.UserID)
		if err != nil || user.Blocked {
			_ = s.refresh.Delete(next)
			s.clearRefreshCookie(w, r)
			writeMessage(w, http.StatusUnauthorized, "Account is no longer active")
			return
		}
		s.issueTokens(w, r, user, next)
	}
}

// LogoutHandler forgets the refresh token and clears the cookie. It succeeds
// whether or not a session existed.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cookie, err := r.Cookie(s.config.GetRefreshCookieName()); err == nil && cookie.Value != "" {
			if err := s.refresh.Delete(cookie.Value); err != nil && !errors.Is(err, errors.ErrInvalidRefreshToken) {
				log.Warn().Err(err).Msg("failed to delete refresh token")
			}
		}
		s.clearRefreshCookie(w, r)
		w.WriteHeader(http.StatusNoContent)
	}
}

// JWKSHandler publishes the key access tokens are signed with
func (s *Server) JWKSHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=300")
		writeJSON(w, http.StatusOK, s.signer.JWKS())
	}
}

func (s *Server) issueTokens(w http.ResponseWriter, r *http.Request, user *users.User, refreshToken string) {
	accessToken, err := s.tokens.CreateAccessToken(user)
	if err != nil {
		writeError(w, err)
		return
	}
	s.setRefreshCookie(w, r, refreshToken)

	identity := user.Identity()
	writeJSON(w, http.StatusOK, tokenResponse{Token: accessToken, User: &identity})
}

func (s *Server) setRefreshCookie(w http.ResponseWriter, r *http.Request, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.config.GetRefreshCookieName(),
		Value:    value,
		Path:     RouteAPIPrefix + "/auth",
		MaxAge:   int(s.config.GetRefreshTokenExpiry().Seconds()),
		HttpOnly: true,
		Secure:   getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearRefreshCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.config.GetRefreshCookieName(),
		Value:    "",
		Path:     RouteAPIPrefix + "/auth",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
	})
}
