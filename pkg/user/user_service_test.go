package user

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUser(t *testing.T) {
	ctx := context.Background()
	service := NewUserService(NewStubUserRepository())

	t.Run("assigns a uid when missing", func(t *testing.T) {
		created, err := service.CreateUser(ctx, User{Username: "anna", DisplayName: "Anna"})
		require.NoError(t, err)
		assert.NotEmpty(t, created.Uid)
		assert.NotZero(t, created.Id)
	})

	t.Run("rejects an empty username", func(t *testing.T) {
		_, err := service.CreateUser(ctx, User{DisplayName: "Nameless"})
		assert.ErrorIs(t, err, ErrUserDataInvalid)
	})

	t.Run("rejects an unknown timezone", func(t *testing.T) {
		_, err := service.CreateUser(ctx, User{
			Username: "ben",
			Settings: Settings{Timezone: "Mars/Olympus_Mons"},
		})
		assert.ErrorIs(t, err, ErrUserDataInvalid)
	})
}

func TestCurrentUser(t *testing.T) {
	service := NewUserService(NewStubUserRepository())
	created, err := service.CreateUser(context.Background(), User{Username: "anna", DisplayName: "Anna"})
	require.NoError(t, err)

	t.Run("resolves the user from the context", func(t *testing.T) {
		ctx := WithUser(context.Background(), created)
		found, err := service.GetCurrentUser(ctx)
		require.NoError(t, err)
		assert.Equal(t, created.Username, found.Username)
	})

	t.Run("fails without a user in context", func(t *testing.T) {
		_, err := service.GetCurrentUser(context.Background())
		assert.ErrorIs(t, err, ErrNoUser)
	})
}

func TestIsUsernameAvailable(t *testing.T) {
	ctx := context.Background()
	service := NewUserService(NewStubUserRepository())
	_, err := service.CreateUser(ctx, User{Username: "anna", DisplayName: "Anna"})
	require.NoError(t, err)

	taken, err := service.IsUsernameAvailable(ctx, "anna")
	require.NoError(t, err)
	assert.False(t, taken)

	free, err := service.IsUsernameAvailable(ctx, "ben")
	require.NoError(t, err)
	assert.True(t, free)
}
