package service

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"clientvault/internal/model"
)

func newTestAuthService(t *testing.T) *AuthService {
	t.Helper()

	usersFile := filepath.Join(t.TempDir(), "users.json")
	auth, err := NewAuthService(usersFile, "test-secret", 15*time.Minute, 24*time.Hour, "admin@example.com", "superSecret1")
	require.NoError(t, err)
	return auth
}

func TestAuthSeedAdminAndLogin(t *testing.T) {
	t.Parallel()

	auth := newTestAuthService(t)

	t.Run("seeded admin can log in", func(t *testing.T) {
		tokens, err := auth.Login("admin@example.com", "superSecret1")
		require.NoError(t, err)
		require.NotEmpty(t, tokens.AccessToken)
		require.NotEmpty(t, tokens.RefreshToken)
		require.Equal(t, model.RoleAdmin, tokens.User.Role)
	})

	t.Run("wrong password is unauthorized", func(t *testing.T) {
		_, err := auth.Login("admin@example.com", "nope")
		require.Error(t, err)
		require.Contains(t, err.Error(), "UNAUTHORIZED")
	})

	t.Run("unknown email is unauthorized", func(t *testing.T) {
		_, err := auth.Login("nobody@example.com", "superSecret1")
		require.Error(t, err)
	})
}

func TestAuthRegister(t *testing.T) {
	t.Parallel()

	auth := newTestAuthService(t)

	t.Run("client role requires a workspace binding", func(t *testing.T) {
		_, err := auth.Register(model.RegisterRequest{Email: "c@example.com", Password: "pw123456", Role: model.RoleClient})
		require.Error(t, err)
	})

	t.Run("registers and logs in a client user", func(t *testing.T) {
		user, err := auth.Register(model.RegisterRequest{
			Email:    "jane@example.com",
			Password: "pw123456",
			Role:     model.RoleClient,
			Client:   "Jane Doe",
		})
		require.NoError(t, err)
		require.Equal(t, "Jane Doe", user.Client)

		tokens, err := auth.Login("jane@example.com", "pw123456")
		require.NoError(t, err)
		require.Equal(t, model.RoleClient, tokens.User.Role)
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		_, err := auth.Register(model.RegisterRequest{
			Email:    "jane@example.com",
			Password: "pw123456",
			Role:     model.RoleClient,
			Client:   "Jane Doe",
		})
		require.Error(t, err)
		require.Contains(t, err.Error(), "ALREADY_EXISTS")
	})
}

func TestAuthTokens(t *testing.T) {
	t.Parallel()

	auth := newTestAuthService(t)
	tokens, err := auth.Login("admin@example.com", "superSecret1")
	require.NoError(t, err)

	t.Run("access token validates with claims", func(t *testing.T) {
		claims, validateErr := auth.ValidateToken(tokens.AccessToken, "access")
		require.NoError(t, validateErr)
		require.Equal(t, "admin@example.com", claims.Email)
		require.Equal(t, model.RoleAdmin, claims.Role)
	})

	t.Run("refresh token is not an access token", func(t *testing.T) {
		_, validateErr := auth.ValidateToken(tokens.RefreshToken, "access")
		require.Error(t, validateErr)
	})

	t.Run("garbage token is rejected", func(t *testing.T) {
		_, validateErr := auth.ValidateToken("not.a.token", "access")
		require.Error(t, validateErr)
	})

	t.Run("refresh rotates the refresh token", func(t *testing.T) {
		rotated, refreshErr := auth.Refresh(tokens.RefreshToken)
		require.NoError(t, refreshErr)
		require.NotEqual(t, tokens.RefreshToken, rotated.RefreshToken)

		// The old refresh token is spent.
		_, refreshErr = auth.Refresh(tokens.RefreshToken)
		require.Error(t, refreshErr)
	})
}

func TestAuthPrincipalFor(t *testing.T) {
	t.Parallel()

	auth := newTestAuthService(t)

	capability := &model.Capability{AllowedRootFolders: []string{"01 Bookkeeping"}}
	_, err := auth.Register(model.RegisterRequest{
		Email:      "jane@example.com",
		Password:   "pw123456",
		Role:       model.RoleClient,
		Client:     "Jane Doe",
		Capability: capability,
	})
	require.NoError(t, err)

	tokens, err := auth.Login("jane@example.com", "pw123456")
	require.NoError(t, err)

	claims, err := auth.ValidateToken(tokens.AccessToken, "access")
	require.NoError(t, err)

	principal := auth.PrincipalFor(claims)
	require.Equal(t, model.RoleClient, principal.Role)
	require.Equal(t, "Jane Doe", principal.Client)
	require.NotNil(t, principal.Capability)
	require.Equal(t, []string{"01 Bookkeeping"}, principal.Capability.AllowedRootFolders)
}

func TestAuthUsersFilePersists(t *testing.T) {
	t.Parallel()

	usersFile := filepath.Join(t.TempDir(), "users.json")
	first, err := NewAuthService(usersFile, "test-secret", 15*time.Minute, 24*time.Hour, "admin@example.com", "superSecret1")
	require.NoError(t, err)

	_, err = first.Register(model.RegisterRequest{
		Email:    "jane@example.com",
		Password: "pw123456",
		Role:     model.RoleClient,
		Client:   "Jane Doe",
	})
	require.NoError(t, err)

	// A second instance reads the same users file; no reseeding happens.
	second, err := NewAuthService(usersFile, "test-secret", 15*time.Minute, 24*time.Hour, "other@example.com", "different")
	require.NoError(t, err)

	_, err = second.Login("jane@example.com", "pw123456")
	require.NoError(t, err)
	_, err = second.Login("other@example.com", "different")
	require.Error(t, err)
}
