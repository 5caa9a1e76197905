package auth_test

import (
	"context"
	"testing"

	"github.com/goliatone/go-session-auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterUserMessageType(t *testing.T) {
	assert.Equal(t, "user.register", auth.RegisterUserMessage{}.Type())
}

func TestRegisterUserHandler(t *testing.T) {
	db := setupAuthDB(t)
	repos := auth.NewRepositoryManager(db)
	handler := auth.NewRegisterUserHandler(repos)
	ctx := context.Background()

	err := handler.Execute(ctx, auth.RegisterUserMessage{
		Username: "pepe",
		Password: "secure-password-1",
	})
	require.NoError(t, err)

	user, err := repos.Users().GetByUsername(ctx, "pepe")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.True(t, user.HasPassword())

	require.NoError(t, auth.ComparePasswordAndHash("secure-password-1", user.PasswordHash))
}

func TestRegisterUserHandlerDuplicate(t *testing.T) {
	db := setupAuthDB(t)
	repos := auth.NewRepositoryManager(db)
	handler := auth.NewRegisterUserHandler(repos)
	ctx := context.Background()

	msg := auth.RegisterUserMessage{Username: "pepe", Password: "secure-password-1"}

	require.NoError(t, handler.Execute(ctx, msg))

	err := handler.Execute(ctx, msg)
	assertTextCode(t, err, auth.TextCodeDuplicateUsername)
}

func TestRegisterUserHandlerCancelledContext(t *testing.T) {
	db := setupAuthDB(t)
	handler := auth.NewRegisterUserHandler(auth.NewRepositoryManager(db))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := handler.Execute(ctx, auth.RegisterUserMessage{
		Username: "pepe",
		Password: "secure-password-1",
	})
	assert.Error(t, err)
}
