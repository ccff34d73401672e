package query

import (
	"context"
	"testing"
	"time"

	"github.com/campusline/platform/shared/credentials"
	"github.com/campusline/platform/shared/cqrs"
	"github.com/campusline/platform/shared/models"
	"github.com/campusline/platform/shared/utils"
	"github.com/campusline/platform/user-service/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedUser(t *testing.T, store repository.UserStore, username, email, password string) *models.User {
	t.Helper()
	hash, err := credentials.HashPassword(password)
	require.NoError(t, err)
	now := time.Now().UTC()
	user := &models.User{
		ID: utils.GenerateUserID(), Username: username, Email: email,
		PasswordHash: hash, Role: models.RoleStudent, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, store.Create(context.Background(), user))
	return user
}

func TestLogin(t *testing.T) {
	store := repository.NewMemoryUserStore()
	tokens := credentials.NewService([]byte("test-secret"), time.Hour)
	svc := NewAuthQueryService(store, tokens)
	alice := seedUser(t, store, "alice", "alice@example.com", "secret123")
	ctx := context.Background()

	resp, err := svc.Login(ctx, cqrs.LoginCommand{Email: " ALICE@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, alice.ID, resp.ID)
	userID, err := tokens.VerifyToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, userID)

	_, wrongPassword := svc.Login(ctx, cqrs.LoginCommand{Email: "alice@example.com", Password: "nope"})
	_, unknownEmail := svc.Login(ctx, cqrs.LoginCommand{Email: "ghost@example.com", Password: "secret123"})
	assert.ErrorIs(t, wrongPassword, cqrs.ErrInvalidCredentials)
	assert.ErrorIs(t, unknownEmail, cqrs.ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())

	_, err = svc.Login(ctx, cqrs.LoginCommand{Email: "alice@example.com"})
	assert.ErrorIs(t, err, cqrs.ErrMissingFields)
}

func TestUserQueries(t *testing.T) {
	store := repository.NewMemoryUserStore()
	svc := NewUserQueryService(store)
	alice := seedUser(t, store, "alice", "alice@example.com", "secret123")
	seedUser(t, store, "bob", "bob@example.com", "secret123")
	ctx := context.Background()

	user, err := svc.GetUser(ctx, cqrs.GetUserQuery{UserID: alice.ID})
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Empty(t, user.PasswordHash)

	_, err = svc.GetUser(ctx, cqrs.GetUserQuery{UserID: "xyz"})
	assert.ErrorIs(t, err, cqrs.ErrInvalidUserID)

	_, err = svc.GetUser(ctx, cqrs.GetUserQuery{UserID: utils.GenerateUserID()})
	assert.ErrorIs(t, err, repository.ErrUserNotFound)

	users, err := svc.ListUsers(ctx, cqrs.ListUsersQuery{})
	require.NoError(t, err)
	require.Len(t, users, 2)
	for _, u := range users {
		assert.Empty(t, u.PasswordHash)
	}
}
