package jwt

import (
	"fmt"
	"strconv"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/go-storefront-client/internal/config"
	"github.com/jrsteele09/go-storefront-client/internal/errors"
	"github.com/jrsteele09/go-storefront-client/token/keys"
	"github.com/jrsteele09/go-storefront-client/users"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Creator issues the access tokens the storefront API hands to signed in users
type Creator struct {
	config  config.DevAPIConfig
	signer  keys.Signer
	nowTime func() time.Time
}

// CreatorOption defines a function type to modify the Creator instance.
type CreatorOption func(*Creator)

// WithNowTime sets the clock tokens are issued and checked against
func WithNowTime(nowFunc func() time.Time) CreatorOption {
	return func(c *Creator) {
		c.nowTime = nowFunc
	}
}

// NewCreator creates a new JWT creator
func NewCreator(cfg config.DevAPIConfig, signer keys.Signer, opts ...CreatorOption) *Creator {
	c := &Creator{
		config:  cfg,
		signer:  signer,
		nowTime: func() time.Time { return NowTimeFunc() },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateAccessToken creates a signed access token for user
func (c *Creator) CreateAccessToken(user *users.User) (string, error) {
	if user == nil {
		return "", errors.Wrapf(errors.ErrInvalidRequest, "[Creator CreateAccessToken] nil user")
	}

	now := c.nowTime()
	claims := jwtlib.MapClaims{
		"iss":   c.config.GetTokenIssuer(),                       // The issuer of the token
		"sub":   strconv.FormatInt(user.ID, 10),                  // The user the token was issued to
		"email": user.Email,                                      // Shown by clients as the signed in user
		"iat":   now.Unix(),                                      // Issued At
		"exp":   now.Add(c.config.GetAccessTokenExpiry()).Unix(), // Expiry
		"jti":   uuid.New().String(),                             // Unique token ID
	}

	signed, err := c.signer.Sign(claims)
	if err != nil {
		return "", fmt.Errorf("failed to sign JWT token: %w", err)
	}
	return signed, nil
}

// Parse validates a token issued by this creator and returns the identity it
// was issued to
func (c *Creator) Parse(tokenString string) (*users.Identity, error) {
	token, err := jwtlib.Parse(tokenString, c.signer.VerificationKey,
		jwtlib.WithIssuer(c.config.GetTokenIssuer()),
		jwtlib.WithValidMethods([]string{keys.RS256}),
		jwtlib.WithTimeFunc(c.nowTime),
		jwtlib.WithExpirationRequired(),
	)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidToken, "[Creator Parse] %v", err)
	}

	claims, ok := token.Claims.(jwtlib.MapClaims)
	if !ok {
		return nil, errors.Wrapf(errors.ErrInvalidToken, "[Creator Parse] unexpected claims type")
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidToken, "[Creator Parse] %v", err)
	}
	id, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidToken, "[Creator Parse] subject %q", sub)
	}
	email, _ := claims["email"].(string)
	return &users.Identity{ID: id, Email: email}, nil
}
