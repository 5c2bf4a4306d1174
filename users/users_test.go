package users_test

import (
	"testing"

	"github.com/jrsteele09/go-storefront-client/internal/errors"
	"github.com/jrsteele09/go-storefront-client/users"
	fakeuserrepo "github.com/jrsteele09/go-storefront-client/users/repofake"
	"github.com/stretchr/testify/require"
)

func TestValidatePasswordStrength(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"valid", "Password123", false},
		{"too short", "Pa1", true},
		{"no upper", "password123", true},
		{"no lower", "PASSWORD123", true},
		{"no digit", "PasswordABC", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := users.ValidatePasswordStrength(tt.password)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestCheckPassword(t *testing.T) {
	hash, err := users.HashPassword("Password123")
	require.NoError(t, err)

	u := &users.User{Email: "seller@example.com", PasswordHash: hash}
	require.True(t, u.CheckPassword("Password123"))
	require.False(t, u.CheckPassword("password123"))
}

func TestFakeUserRepo(t *testing.T) {
	repo := fakeuserrepo.NewFakeUserRepo()

	first := &users.User{Email: "Alice@Example.com"}
	second := &users.User{Email: "bob@example.com"}
	require.NoError(t, repo.Upsert(first))
	require.NoError(t, repo.Upsert(second))
	require.Equal(t, int64(1), first.ID)
	require.Equal(t, int64(2), second.ID)

	got, err := repo.GetByEmail("alice@example.com")
	require.NoError(t, err)
	require.Equal(t, users.Identity{ID: 1, Email: "Alice@Example.com"}, got.Identity())

	_, err = repo.GetByID(42)
	require.ErrorIs(t, err, errors.ErrUserNotFound)

	require.NoError(t, repo.SetLastLogin(2))
	got, err = repo.GetByID(2)
	require.NoError(t, err)
	require.False(t, got.LastLogin.IsZero())

	page, err := repo.List(1, 10)
	require.NoError(t, err)
	require.Len(t, page, 1)
	require.Equal(t, int64(2), page[0].ID)
}
