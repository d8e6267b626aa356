package postgres_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chronique-jdr/chronique/internal/auth"
	"github.com/chronique-jdr/chronique/internal/storage/postgres"
	"github.com/chronique-jdr/chronique/internal/testutil"
)

func uniqueName(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, time.Now().UnixNano())
}

func TestAccountRepository_CreateAndAuthenticate(t *testing.T) {
	repo := postgres.NewAccountRepository(testutil.NewPool(t))
	ctx := context.Background()

	username := uniqueName("aline")
	created, err := repo.Create(ctx, username, "motdepasse123")
	require.NoError(t, err)
	assert.Greater(t, created.ID, int64(0))
	assert.Equal(t, username, created.Username)
	assert.Equal(t, auth.RolePlayer, created.Role)
	assert.NotEqual(t, "motdepasse123", created.PasswordHash)
	assert.False(t, created.CreatedAt.IsZero())

	authed, err := repo.Authenticate(ctx, username, "motdepasse123")
	require.NoError(t, err)
	assert.Equal(t, created.ID, authed.ID)

	_, err = repo.Authenticate(ctx, username, "mauvais")
	assert.ErrorIs(t, err, postgres.ErrInvalidCredentials)

	_, err = repo.Authenticate(ctx, uniqueName("nobody"), "x")
	assert.ErrorIs(t, err, postgres.ErrAccountNotFound)
}

func TestAccountRepository_DuplicateUsername(t *testing.T) {
	repo := postgres.NewAccountRepository(testutil.NewPool(t))
	ctx := context.Background()

	username := uniqueName("borin")
	_, err := repo.Create(ctx, username, "pass")
	require.NoError(t, err)

	_, err = repo.Create(ctx, username, "autre")
	assert.ErrorIs(t, err, postgres.ErrAccountExists)
}

func TestAccountRepository_SetRole(t *testing.T) {
	repo := postgres.NewAccountRepository(testutil.NewPool(t))
	ctx := context.Background()

	acct, err := repo.Create(ctx, uniqueName("mj"), "pass")
	require.NoError(t, err)

	require.NoError(t, repo.SetRole(ctx, acct.ID, auth.RoleGM))

	fetched, err := repo.GetByID(ctx, acct.ID)
	require.NoError(t, err)
	assert.Equal(t, auth.RoleGM, fetched.Role)

	assert.ErrorIs(t, repo.SetRole(ctx, acct.ID, "surintendant"), postgres.ErrInvalidRole)
	assert.ErrorIs(t, repo.SetRole(ctx, 99999999, auth.RoleGM), postgres.ErrAccountNotFound)
}
