//go:build integration

package integration

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-user-directory/internal/model"
	"go-user-directory/internal/repository"
)

func TestUserRepositoryAgainstPostgres(t *testing.T) {
	db := openDB(t)
	repo := repository.NewUserRepository(db.Pool)
	ctx := context.Background()

	name := "Alice"
	alice, err := repo.Insert(ctx, model.User{Username: "alice", Email: "a@x.com", PasswordHash: "h", Name: &name})
	require.NoError(t, err)
	assert.NotZero(t, alice.ID)
	assert.False(t, alice.CreatedAt.IsZero())

	_, err = repo.Insert(ctx, model.User{Username: "other", Email: "A@X.com", PasswordHash: "h"})
	require.ErrorIs(t, err, model.ErrUserAlreadyExists)

	_, err = repo.Insert(ctx, model.User{Username: "ALICE", Email: "z@x.com", PasswordHash: "h"})
	require.ErrorIs(t, err, model.ErrUserAlreadyExists)

	found, err := repo.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, found.ID)
	assert.Equal(t, "h", found.PasswordHash)

	bob, err := repo.Insert(ctx, model.User{Username: "bob", Email: "b@x.com", PasswordHash: "h"})
	require.NoError(t, err)

	_, err = repo.Update(ctx, model.User{ID: bob.ID, Username: "bob", Email: "a@x.com"})
	require.ErrorIs(t, err, model.ErrUserAlreadyExists)

	updated, err := repo.Update(ctx, model.User{ID: bob.ID, Username: "robert", Email: "b@x.com"})
	require.NoError(t, err)
	assert.Equal(t, "robert", updated.Username)
	assert.Equal(t, "h", updated.PasswordHash)

	_, err = repo.Update(ctx, model.User{ID: 9999, Username: "ghost", Email: "g@x.com"})
	require.ErrorIs(t, err, model.ErrUserNotFound)

	users, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, alice.ID, users[0].ID)

	require.NoError(t, repo.Delete(ctx, alice.ID))
	require.ErrorIs(t, repo.Delete(ctx, alice.ID), model.ErrUserNotFound)

	_, err = repo.FindByID(ctx, alice.ID)
	require.ErrorIs(t, err, model.ErrUserNotFound)
}
