package gateway

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/jrsteele09/go-storefront-client/internal/config"
	"github.com/jrsteele09/go-storefront-client/internal/errors"
	"github.com/jrsteele09/go-storefront-client/users"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/publicsuffix"
)

const (
	defaultRefreshPath    = "/auth/refresh"
	defaultLoginPath      = "/auth/login"
	defaultRefreshTimeout = 10 * time.Second
	defaultRequestTimeout = 30 * time.Second
)

// Session is the application session the gateway reads the credential from
// and reports renewals and invalidations to.
type Session interface {
	Identity() *users.Identity
	Credential() string
	Login(identity users.Identity, credential string)
	Logout()
}

// IdentityResolver derives the user from a freshly issued credential. It is
// consulted when the refresh endpoint answers without a user.
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, credential string) (*users.Identity, error)
}

type options struct {
	httpClient     *http.Client
	logger         zerolog.Logger
	refreshPath    string
	loginPath      string
	refreshTimeout time.Duration
	requestTimeout time.Duration
	resolver       IdentityResolver
}

type Option func(*options)

// WithHTTPClient replaces the default client (cookie jar, request timeout).
// The client should keep cookies if the refresh endpoint relies on them.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func WithRefreshPath(path string) Option {
	return func(o *options) { o.refreshPath = path }
}

func WithLoginPath(path string) Option {
	return func(o *options) { o.loginPath = path }
}

// WithRefreshTimeout bounds one renewal exchange, and with it how long
// queued requests can wait for it.
func WithRefreshTimeout(d time.Duration) Option {
	return func(o *options) { o.refreshTimeout = d }
}

func WithRequestTimeout(d time.Duration) Option {
	return func(o *options) { o.requestTimeout = d }
}

func WithIdentityResolver(r IdentityResolver) Option {
	return func(o *options) { o.resolver = r }
}

// ConfigOptions maps the gateway settings of the application config onto options.
func ConfigOptions(c config.GatewayConfig) []Option {
	return []Option{
		WithRefreshPath(c.GetRefreshPath()),
		WithLoginPath(c.GetLoginPath()),
		WithRefreshTimeout(c.GetRefreshTimeout()),
		WithRequestTimeout(c.GetRequestTimeout()),
	}
}

// Factory produces clients for one API base address and one session. All
// clients of a factory share its HTTP client (and cookie jar) and its
// renewal coordinator.
type Factory struct {
	baseURL    string
	httpClient *http.Client
	session    Session
	opts       options
	refresher  *coordinator
}

func NewFactory(baseURL string, session Session, opts ...Option) (*Factory, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.Wrapf(errors.ErrInvalidBaseURL, "[Gateway NewFactory] %q", baseURL)
	}
	if session == nil {
		return nil, errors.Wrapf(errors.ErrInvalidRequest, "[Gateway NewFactory] session is required")
	}

	o := options{
		logger:         log.Logger,
		refreshPath:    defaultRefreshPath,
		loginPath:      defaultLoginPath,
		refreshTimeout: defaultRefreshTimeout,
		requestTimeout: defaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}
	o.refreshPath = strings.TrimSuffix(absPath(o.refreshPath), "/")
	o.loginPath = strings.TrimSuffix(absPath(o.loginPath), "/")

	httpClient := o.httpClient
	if httpClient == nil {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, errors.Wrapf(err, "[Gateway NewFactory] failed to create cookie jar")
		}
		httpClient = &http.Client{Timeout: o.requestTimeout, Jar: jar}
	}

	f := &Factory{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
		session:    session,
		opts:       o,
	}
	f.refresher = &coordinator{invalidate: f.invalidate}
	return f, nil
}

// Client returns a client configured from the session as it is now. When
// attach is set and the session holds a credential, every request carries
// it as a bearer token. Callers whose session credential changed should
// obtain a new client rather than keep using an old one: a client still
// holding a credential older than the session's is replayed with the
// session's credential without a renewal, and if that one has expired too
// the call fails with the replay's 401.
func (f *Factory) Client(attach bool) *Client {
	c := &Client{factory: f}
	if attach {
		c.credential = f.session.Credential()
	}
	return c
}

// RefreshInFlight reports whether a renewal exchange is underway.
func (f *Factory) RefreshInFlight() bool {
	return f.refresher.inFlight()
}

// PendingRefreshWaiters is the number of requests queued behind the
// renewal in flight. It is zero whenever no renewal is in flight.
func (f *Factory) PendingRefreshWaiters() int {
	return f.refresher.pending()
}

func (f *Factory) Session() Session {
	return f.session
}

func (f *Factory) LoginPath() string {
	return f.opts.loginPath
}

func (f *Factory) RefreshPath() string {
	return f.opts.refreshPath
}

func (f *Factory) isAuthEndpoint(path string) bool {
	path = absPath(path)
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	path = strings.TrimSuffix(path, "/")
	return path == f.opts.refreshPath || path == f.opts.loginPath
}

// absPath roots a request path at the API base address.
func absPath(path string) string {
	if !strings.HasPrefix(path, "/") {
		return "/" + path
	}
	return path
}

// Client sends requests to the storefront API on behalf of the session.
type Client struct {
	factory *Factory

	lock       sync.RWMutex
	credential string
}

// New is shorthand for a factory with a single client.
func New(baseURL string, session Session, attach bool, opts ...Option) (*Client, error) {
	f, err := NewFactory(baseURL, session, opts...)
	if err != nil {
		return nil, err
	}
	return f.Client(attach), nil
}

// Factory returns the factory the client was created by.
func (c *Client) Factory() *Factory {
	return c.factory
}

// Credential is the bearer credential attached to new requests, empty when none.
func (c *Client) Credential() string {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.credential
}

func (c *Client) setCredential(credential string) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.credential = credential
}
