package refresh_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/go-storefront-client/internal/errors"
	"github.com/jrsteele09/go-storefront-client/token/refresh"
	refreshrepofake "github.com/jrsteele09/go-storefront-client/token/refresh/repofake"
	"github.com/stretchr/testify/require"
)

type devAPIConfig struct{}

func (devAPIConfig) GetTokenIssuer() string               { return "http://storefront.test" }
func (devAPIConfig) GetAccessTokenExpiry() time.Duration  { return time.Minute }
func (devAPIConfig) GetRefreshTokenExpiry() time.Duration { return time.Hour }
func (devAPIConfig) GetRefreshTokenLength() int           { return 16 }
func (devAPIConfig) GetRefreshCookieName() string         { return "refreshToken" }
func (devAPIConfig) GetSigningKeyFile() string            { return "" }
func (devAPIConfig) GetSeedDemoData() bool                { return false }

func newManager() (*refresh.Manager, refresh.Repo) {
	repo := refreshrepofake.NewFakeRefreshTokenRepo()
	return refresh.NewManager(repo, devAPIConfig{}), repo
}

func TestCreateReplacesExistingToken(t *testing.T) {
	m, repo := newManager()

	first, err := m.Create(1, "laptop")
	require.NoError(t, err)
	require.Len(t, first, 32)

	second, err := m.Create(1, "phone")
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	_, err = m.Get(first)
	require.ErrorIs(t, err, errors.ErrInvalidRefreshToken)

	stored, err := repo.GetByUserID(1)
	require.NoError(t, err)
	require.Equal(t, second, stored.Token)
	require.Equal(t, "phone", stored.DeviceInfo)
}

func TestRotateIssuesNewTokenOnce(t *testing.T) {
	m, _ := newManager()

	token, err := m.Create(3, "laptop")
	require.NoError(t, err)

	stored, next, err := m.Rotate(token)
	require.NoError(t, err)
	require.Equal(t, int64(3), stored.UserID)
	require.NotEqual(t, token, next)

	_, _, err = m.Rotate(token)
	require.ErrorIs(t, err, errors.ErrInvalidRefreshToken)

	_, _, err = m.Rotate("")
	require.ErrorIs(t, err, errors.ErrInvalidRefreshToken)
}

func TestRotateRejectsExpiredToken(t *testing.T) {
	m, repo := newManager()
	t.Cleanup(func() { refresh.NowTimeFunc = time.Now })

	refresh.NowTimeFunc = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, err := m.Create(5, "")
	require.NoError(t, err)
	refresh.NowTimeFunc = time.Now

	_, _, err = m.Rotate(token)
	require.ErrorIs(t, err, errors.ErrRefreshTokenExpired)

	_, err = repo.GetByUserID(5)
	require.Error(t, err)
}

func TestFakeRepoList(t *testing.T) {
	m, repo := newManager()
	for id := int64(1); id <= 3; id++ {
		_, err := m.Create(id, "")
		require.NoError(t, err)
	}

	all, err := repo.List(0, 10)
	require.NoError(t, err)
	require.Len(t, all, 3)

	page, err := repo.List(1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)

	none, err := repo.List(5, 1)
	require.NoError(t, err)
	require.Empty(t, none)
}
