package config

import "time"

// DevAPIConfig configures the local stand-in for the storefront API.
type DevAPIConfig interface {
	GetTokenIssuer() string
	GetAccessTokenExpiry() time.Duration
	GetRefreshTokenExpiry() time.Duration
	GetRefreshTokenLength() int
	GetRefreshCookieName() string
	GetSigningKeyFile() string
	GetSeedDemoData() bool
}

type DevAPI struct{}

var _ DevAPIConfig = DevAPI{}

func (DevAPI) GetTokenIssuer() string {
	return GetEnv("TOKEN_ISSUER", "http://localhost:5148")
}

// Access tokens are deliberately short-lived so that renewal happens during
// normal use of the dev API.
func (DevAPI) GetAccessTokenExpiry() time.Duration {
	return GetEnvDuration("ACCESS_TOKEN_TTL", 5*time.Minute)
}

func (DevAPI) GetRefreshTokenExpiry() time.Duration {
	return GetEnvDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour)
}

func (DevAPI) GetRefreshTokenLength() int {
	return 32 // 32 bytes = 256 bits
}

func (DevAPI) GetRefreshCookieName() string {
	return "refreshToken"
}

// GetSigningKeyFile is a PEM encoded RSA private key. When unset a key is
// generated at startup and tokens do not survive a restart.
func (DevAPI) GetSigningKeyFile() string {
	return GetEnv("SIGNING_KEY_FILE", "")
}

func (DevAPI) GetSeedDemoData() bool {
	return GetEnvBool("SEED_DEMO_DATA", true)
}
