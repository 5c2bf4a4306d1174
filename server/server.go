package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/go-storefront-client/catalog"
	"github.com/jrsteele09/go-storefront-client/internal/config"
	"github.com/jrsteele09/go-storefront-client/token/jwt"
	"github.com/jrsteele09/go-storefront-client/token/keys"
	"github.com/jrsteele09/go-storefront-client/token/refresh"
	"github.com/jrsteele09/go-storefront-client/users"
	"github.com/rs/zerolog/log"
)

// Repos holds all repository dependencies for the Server
type Repos struct {
	Users         users.UserRepo // Accounts that can sign in
	RefreshTokens refresh.Repo   // Refresh token records behind the cookie
	Catalog       catalog.Repo   // Lots and seller reviews
}

// Server is a local stand-in for the storefront API.
type Server struct {
	env     string // Environment (e.g., "DEV", "PROD")
	mux     *http.ServeMux
	routes  []string
	config  config.Config
	repos   Repos
	signer  keys.Signer
	tokens  *jwt.Creator
	refresh *refresh.Manager
	nowTime func() time.Time
	clock   []jwt.CreatorOption
}

// ServerOption defines a function type to modify the Server instance.
type ServerOption func(*Server)

// WithNowTime sets the clock lot states are evaluated against (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ServerOption {
	return func(s *Server) {
		s.nowTime = nowFunc
	}
}

// WithTokenClock sets the clock access tokens are issued and checked against
func WithTokenClock(nowFunc func() time.Time) ServerOption {
	return func(s *Server) {
		s.clock = append(s.clock, jwt.WithNowTime(nowFunc))
	}
}

func New(config config.Config, repos Repos, signer keys.Signer, opts ...ServerOption) (*Server, error) {
	if repos.Users == nil || repos.RefreshTokens == nil || repos.Catalog == nil {
		return nil, fmt.Errorf("[Server New] users, refresh token and catalog repos are required")
	}
	if signer == nil {
		return nil, fmt.Errorf("[Server New] a token signer is required")
	}

	s := &Server{
		env:     config.GetEnv(),
		mux:     http.NewServeMux(),
		config:  config,
		repos:   repos,
		signer:  signer,
		refresh: refresh.NewManager(repos.RefreshTokens, config),
		nowTime: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.tokens = jwt.NewCreator(config, signer, s.clock...)

	s.initRoutes()
	s.logRoutes()

	return s, nil
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
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	log.Info().Msgf("[%s] %s", colourMethod(method), path)
}

func logError(method, path string, err error) {
	log.Error().Msgf("[%s] %s %s", colourMethod(method), path, Red+err.Error()+ResetColor)
}

func colourMethod(method string) string {
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if colour, ok := methodColors[method]; ok {
		return colour + paddedMethod + ResetColor
	}
	return Gray + paddedMethod + ResetColor
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
