// Package auth signs the session in and out of the storefront API.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-storefront-client/gateway"
	"github.com/jrsteele09/go-storefront-client/internal/errors"
	"github.com/jrsteele09/go-storefront-client/users"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const logoutPath = "/auth/logout"

// LoginRequest is the body of the login endpoint.
type LoginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	DeviceInfo string `json:"deviceInfo,omitempty"`
}

// Service runs the login, restore and logout exchanges. Requests go through
// an unauthenticated client of the factory so they share its cookie jar.
type Service struct {
	factory  *gateway.Factory
	resolver gateway.IdentityResolver
	logger   zerolog.Logger
}

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

// WithIdentityResolver is used by Restore when the refresh answer carries no user.
func WithIdentityResolver(r gateway.IdentityResolver) ServiceOption {
	return func(s *Service) { s.resolver = r }
}

func WithLogger(l zerolog.Logger) ServiceOption {
	return func(s *Service) { s.logger = l }
}

func NewService(factory *gateway.Factory, opts ...ServiceOption) *Service {
	s := &Service{factory: factory, logger: log.Logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login exchanges email and password for a credential and signs the session in.
func (s *Service) Login(ctx context.Context, email, password, deviceInfo string) (*users.Identity, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, errors.Wrapf(errors.ErrInvalidRequest, "[Auth Login] email and password are required")
	}

	var payload gateway.RefreshResponse
	err := s.factory.Client(false).PostJSON(ctx, s.factory.LoginPath(), LoginRequest{
		Email:      email,
		Password:   password,
		DeviceInfo: deviceInfo,
	}, &payload)
	if err != nil {
		if errors.IsAPIStatus(err, http.StatusUnauthorized) || errors.IsAPIStatus(err, http.StatusBadRequest) {
			return nil, fmt.Errorf("%w: %w", errors.ErrInvalidCredentials, err)
		}
		return nil, errors.Wrapf(err, "[Auth Login] %s", email)
	}
	if payload.Token == "" || payload.User == nil {
		return nil, errors.Wrapf(errors.ErrInvalidToken, "[Auth Login] incomplete login response")
	}

	s.factory.Session().Login(*payload.User, payload.Token)
	s.logger.Info().Int64("user_id", payload.User.ID).Msg("Signed in")
	return payload.User, nil
}

// Restore signs the session in from the refresh cookie left by an earlier
// login. Any failure leaves the session signed out.
func (s *Service) Restore(ctx context.Context) (*users.Identity, error) {
	identity, err := s.restore(ctx)
	if err != nil {
		s.factory.Session().Logout()
		s.logger.Debug().Err(err).Msg("No session to restore")
		return nil, err
	}
	s.logger.Info().Int64("user_id", identity.ID).Msg("Session restored")
	return identity, nil
}

func (s *Service) restore(ctx context.Context) (*users.Identity, error) {
	var payload gateway.RefreshResponse
	if err := s.factory.Client(false).PostJSON(ctx, s.factory.RefreshPath(), struct{}{}, &payload); err != nil {
		return nil, errors.Wrapf(err, "[Auth Restore]")
	}
	if payload.Token == "" {
		return nil, errors.Wrapf(errors.ErrEmptyToken, "[Auth Restore]")
	}

	identity := payload.User
	if identity == nil {
		if s.resolver == nil {
			return nil, errors.Wrapf(errors.ErrNotAuthenticated, "[Auth Restore] refresh answered without a user")
		}
		resolved, err := s.resolver.ResolveIdentity(ctx, payload.Token)
		if err != nil {
			return nil, errors.Wrapf(err, "[Auth Restore]")
		}
		identity = resolved
	}

	s.factory.Session().Login(*identity, payload.Token)
	return identity, nil
}

// Logout asks the API to drop the refresh cookie and signs the session out
// whether or not that succeeds.
func (s *Service) Logout(ctx context.Context) {
	if err := s.factory.Client(false).PostJSON(ctx, logoutPath, nil, nil); err != nil {
		s.logger.Warn().Err(err).Msg("Logout request failed")
	}
	s.factory.Session().Logout()
}
