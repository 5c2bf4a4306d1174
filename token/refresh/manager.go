package refresh

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/jrsteele09/go-storefront-client/internal/config"
	"github.com/jrsteele09/go-storefront-client/internal/errors"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Manager handles refresh token creation, validation, and rotation
type Manager struct {
	repo   Repo
	config config.DevAPIConfig
}

// NewManager creates a new refresh token manager
func NewManager(repo Repo, cfg config.DevAPIConfig) *Manager {
	return &Manager{
		repo:   repo,
		config: cfg,
	}
}

// Create issues a refresh token for userID, replacing any token the user
// already holds
func (m *Manager) Create(userID int64, deviceInfo string) (string, error) {
	if existing, err := m.repo.GetByUserID(userID); err == nil && existing != nil {
		if err := m.repo.Delete(existing.Token); err != nil {
			return "", fmt.Errorf("failed to delete existing refresh token: %w", err)
		}
	}

	tokenBytes := make([]byte, m.config.GetRefreshTokenLength())
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	tokenStr := hex.EncodeToString(tokenBytes)
	if err := m.repo.Upsert(&StoredRefreshToken{
		Token:      tokenStr,
		UserID:     userID,
		DeviceInfo: deviceInfo,
		Iat:        NowTimeFunc(),
	}); err != nil {
		return "", fmt.Errorf("failed to store refresh token: %w", err)
	}
	return tokenStr, nil
}

// Rotate validates token and exchanges it for a new one. The presented token
// cannot be used again whatever the outcome.
func (m *Manager) Rotate(token string) (*StoredRefreshToken, string, error) {
	if token == "" {
		return nil, "", errors.Wrapf(errors.ErrInvalidRefreshToken, "[Manager Rotate] missing token")
	}
	stored, err := m.repo.Get(token)
	if err != nil {
		return nil, "", errors.Wrapf(errors.ErrInvalidRefreshToken, "[Manager Rotate] %v", err)
	}
	if err := m.repo.Delete(token); err != nil {
		return nil, "", fmt.Errorf("failed to delete refresh token: %w", err)
	}
	if m.IsExpired(stored) {
		return nil, "", errors.Wrapf(errors.ErrRefreshTokenExpired, "[Manager Rotate] issued %s", stored.Iat.Format(time.RFC3339))
	}

	next, err := m.Create(stored.UserID, stored.DeviceInfo)
	if err != nil {
		return nil, "", err
	}
	return stored, next, nil
}

// Get retrieves a refresh token from storage
func (m *Manager) Get(token string) (*StoredRefreshToken, error) {
	return m.repo.Get(token)
}

// Delete removes a refresh token from storage
func (m *Manager) Delete(token string) error {
	return m.repo.Delete(token)
}

// IsExpired checks if a refresh token has outlived the configured expiry
func (m *Manager) IsExpired(rt *StoredRefreshToken) bool {
	return NowTimeFunc().Sub(rt.Iat) > m.config.GetRefreshTokenExpiry()
}
