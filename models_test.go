package auth_test

import (
	"context"
	"testing"

	"github.com/goliatone/go-session-auth"
	"github.com/stretchr/testify/assert"
)

func TestUserHasPassword(t *testing.T) {
	assert.False(t, (*auth.User)(nil).HasPassword())
	assert.False(t, (&auth.User{Username: "pepe"}).HasPassword())
	assert.True(t, (&auth.User{Username: "pepe", PasswordHash: "$2a$12$hash"}).HasPassword())
}

func TestSessionIsActive(t *testing.T) {
	assert.False(t, (*auth.Session)(nil).IsActive())
	assert.False(t, (&auth.Session{Status: auth.SessionDisabled}).IsActive())
	assert.False(t, (&auth.Session{Status: auth.SessionExpired}).IsActive())
	assert.True(t, (&auth.Session{Status: auth.SessionActive}).IsActive())
}

func TestCreateAuthTablesIsIdempotent(t *testing.T) {
	db := setupAuthDB(t)

	// setupAuthDB already created the tables once
	assert.NoError(t, auth.CreateAuthTables(context.Background(), db))
}
