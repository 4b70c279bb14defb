package repository

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-user-directory/internal/model"
)

func strPtr(s string) *string {
	return &s
}

func TestMemoryUserRepository_InsertAndFind(t *testing.T) {
	t.Parallel()

	repo := NewMemoryUserRepository()
	ctx := context.Background()

	created, err := repo.Insert(ctx, model.User{
		Username:     "alice",
		Email:        "Alice@Example.com ",
		PasswordHash: "hash",
		Name:         strPtr("Alice"),
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), created.ID)
	assert.Equal(t, "alice@example.com", created.Email)
	assert.False(t, created.CreatedAt.IsZero())

	byEmail, err := repo.FindByEmail(ctx, "ALICE@example.COM")
	require.NoError(t, err)
	assert.Equal(t, created, byEmail)

	byID, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "hash", byID.PasswordHash)

	_, err = repo.FindByID(ctx, 99)
	require.ErrorIs(t, err, model.ErrUserNotFound)

	_, err = repo.FindByEmail(ctx, "nobody@example.com")
	require.ErrorIs(t, err, model.ErrUserNotFound)
}

func TestMemoryUserRepository_Uniqueness(t *testing.T) {
	t.Parallel()

	repo := NewMemoryUserRepository()
	ctx := context.Background()

	_, err := repo.Insert(ctx, model.User{Username: "alice", Email: "a@x.com"})
	require.NoError(t, err)

	_, err = repo.Insert(ctx, model.User{Username: "other", Email: "A@X.COM"})
	require.ErrorIs(t, err, model.ErrUserAlreadyExists)

	_, err = repo.Insert(ctx, model.User{Username: "ALICE", Email: "b@x.com"})
	require.ErrorIs(t, err, model.ErrUserAlreadyExists)

	bob, err := repo.Insert(ctx, model.User{Username: "bob", Email: "b@x.com"})
	require.NoError(t, err)

	bob.Email = "a@x.com"
	_, err = repo.Update(ctx, bob)
	require.ErrorIs(t, err, model.ErrUserAlreadyExists)
}

func TestMemoryUserRepository_UpdateListDelete(t *testing.T) {
	t.Parallel()

	repo := NewMemoryUserRepository()
	ctx := context.Background()

	first, err := repo.Insert(ctx, model.User{Username: "alice", Email: "a@x.com", PasswordHash: "h1"})
	require.NoError(t, err)
	second, err := repo.Insert(ctx, model.User{Username: "bob", Email: "b@x.com", PasswordHash: "h2"})
	require.NoError(t, err)

	updated, err := repo.Update(ctx, model.User{ID: first.ID, Username: "alice2", Email: "a2@x.com", Lastname: strPtr("Doe")})
	require.NoError(t, err)
	assert.Equal(t, "alice2", updated.Username)
	assert.Equal(t, "h1", updated.PasswordHash, "update must not touch the password hash")
	assert.Equal(t, first.CreatedAt, updated.CreatedAt)

	// Keeping one's own email is not a conflict.
	_, err = repo.Update(ctx, updated)
	require.NoError(t, err)

	_, err = repo.Update(ctx, model.User{ID: 42, Username: "ghost", Email: "g@x.com"})
	require.ErrorIs(t, err, model.ErrUserNotFound)

	users, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, first.ID, users[0].ID)
	assert.Equal(t, second.ID, users[1].ID)

	require.NoError(t, repo.Delete(ctx, first.ID))
	require.ErrorIs(t, repo.Delete(ctx, first.ID), model.ErrUserNotFound)

	users, err = repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
}

func TestMemoryUserRepository_ConcurrentInsertsKeepEmailsUnique(t *testing.T) {
	t.Parallel()

	repo := NewMemoryUserRepository()
	ctx := context.Background()

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := repo.Insert(ctx, model.User{Username: "user" + string(rune('a'+i)), Email: "same@x.com"})
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
}

func TestMemoryUserRepository_HonoursCancelledContext(t *testing.T) {
	t.Parallel()

	repo := NewMemoryUserRepository()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.Insert(ctx, model.User{Username: "a", Email: "a@x.com"})
	require.ErrorIs(t, err, context.Canceled)
	require.ErrorIs(t, repo.Ping(ctx), context.Canceled)
}
