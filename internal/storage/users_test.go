package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUser(t *testing.T) {
	t.Parallel()

	t.Run("normalizes email and defaults role", func(t *testing.T) {
		t.Parallel()
		store := newTestStore(t)

		user, err := store.CreateUser(context.Background(), "  Alice@Example.COM ", " Alice ", "s3cret")
		require.NoError(t, err, "registration should succeed")

		assert.Positive(t, user.ID, "user should get a row id")
		assert.Equal(t, "alice@example.com", user.Email, "email should be trimmed and lowercased")
		assert.Equal(t, "Alice", user.Name, "name should be trimmed")
		assert.Equal(t, "user", user.Role, "role should default to user")
		assert.NotEmpty(t, user.CreatedAt, "creation time should be recorded")
	})

	t.Run("duplicate email", func(t *testing.T) {
		t.Parallel()
		store := newTestStore(t)
		ctx := context.Background()

		_, err := store.CreateUser(ctx, "bob@example.com", "Bob", "s3cret")
		require.NoError(t, err, "first registration should succeed")

		_, err = store.CreateUser(ctx, "BOB@example.com", "Robert", "other")
		assert.ErrorIs(t, err, ErrUserExists, "same email in another case should be rejected")
	})
}

func TestAuthenticate(t *testing.T) {
	t.Parallel()

	t.Run("valid credentials", func(t *testing.T) {
		t.Parallel()
		store := newTestStore(t)
		ctx := context.Background()

		created, err := store.CreateUser(ctx, "carol@example.com", "Carol", "s3cret")
		require.NoError(t, err, "registration should succeed")

		user, err := store.Authenticate(ctx, "Carol@Example.com", "s3cret")
		require.NoError(t, err, "authentication should succeed")
		assert.Equal(t, created.ID, user.ID, "authenticated user should match the registration")
		assert.Equal(t, "carol@example.com", user.Email, "lookup should be case-insensitive")
	})

	t.Run("wrong password", func(t *testing.T) {
		t.Parallel()
		store := newTestStore(t)
		ctx := context.Background()

		_, err := store.CreateUser(ctx, "dave@example.com", "Dave", "s3cret")
		require.NoError(t, err, "registration should succeed")

		_, err = store.Authenticate(ctx, "dave@example.com", "wrong")
		assert.ErrorIs(t, err, ErrInvalidCredentials, "wrong password should be rejected")
	})

	t.Run("unknown email", func(t *testing.T) {
		t.Parallel()
		store := newTestStore(t)

		_, err := store.Authenticate(context.Background(), "nobody@example.com", "s3cret")
		assert.ErrorIs(t, err, ErrInvalidCredentials, "unknown email should look like a wrong password")
	})
}

func TestUserLookups(t *testing.T) {
	t.Parallel()

	t.Run("by email and by id", func(t *testing.T) {
		t.Parallel()
		store := newTestStore(t)
		ctx := context.Background()

		created, err := store.CreateUser(ctx, "erin@example.com", "Erin", "s3cret")
		require.NoError(t, err, "registration should succeed")

		byEmail, err := store.UserByEmail(ctx, "ERIN@example.com")
		require.NoError(t, err, "lookup by email should succeed")
		assert.Equal(t, created.ID, byEmail.ID, "lookup should find the registered user")

		byID, err := store.UserByID(ctx, created.ID)
		require.NoError(t, err, "lookup by id should succeed")
		assert.Equal(t, created.Email, byID.Email, "lookup should find the registered user")
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()
		store := newTestStore(t)
		ctx := context.Background()

		_, err := store.UserByEmail(ctx, "missing@example.com")
		assert.ErrorIs(t, err, ErrUserNotFound, "unknown email should be reported")

		_, err = store.UserByID(ctx, 9999)
		assert.ErrorIs(t, err, ErrUserNotFound, "unknown id should be reported")
	})
}
