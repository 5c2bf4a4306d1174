package config

import "time"

// GatewayConfig holds the settings of the authenticated request gateway.
type GatewayConfig interface {
	GetAttachCredential() bool
	GetRefreshTimeout() time.Duration
	GetRequestTimeout() time.Duration
	GetRefreshPath() string
	GetLoginPath() string
	GetJWKSURL() string
}

type Gateway struct{}

var _ GatewayConfig = Gateway{}

func (Gateway) GetAttachCredential() bool {
	return GetEnvBool("ATTACH_CREDENTIAL", true)
}

// GetRefreshTimeout bounds a single renewal exchange. Requests queued behind
// a renewal never wait longer than this for it to settle.
func (Gateway) GetRefreshTimeout() time.Duration {
	return GetEnvDuration("REFRESH_TIMEOUT", 10*time.Second)
}

func (Gateway) GetRequestTimeout() time.Duration {
	return GetEnvDuration("REQUEST_TIMEOUT", 30*time.Second)
}

func (Gateway) GetRefreshPath() string {
	return "/auth/refresh"
}

func (Gateway) GetLoginPath() string {
	return "/auth/login"
}

// GetJWKSURL is the key set used to verify renewed access tokens when the
// refresh endpoint omits the user. Empty disables verification.
func (Gateway) GetJWKSURL() string {
	return GetEnv("JWKS_URL", "")
}
