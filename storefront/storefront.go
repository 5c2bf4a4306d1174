// Package storefront is the typed API of the auction storefront: lots and
// seller reviews.
package storefront

import (
	"github.com/jrsteele09/go-storefront-client/gateway"
)

// Service issues storefront calls on behalf of the factory's session. Each
// call takes a fresh client so it carries the session's current credential.
type Service struct {
	factory *gateway.Factory
	attach  bool
}

type Option func(*Service)

// WithAttachCredential controls whether calls carry the session credential.
// Without it only public routes succeed.
func WithAttachCredential(attach bool) Option {
	return func(s *Service) { s.attach = attach }
}

func NewService(factory *gateway.Factory, opts ...Option) *Service {
	s := &Service{factory: factory, attach: true}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Factory is the gateway factory calls are sent through.
func (s *Service) Factory() *gateway.Factory {
	return s.factory
}

func (s *Service) client() *gateway.Client {
	return s.factory.Client(s.attach)
}
