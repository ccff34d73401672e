package query

import (
	"context"

	"github.com/campusline/platform/shared/credentials"
	"github.com/campusline/platform/shared/cqrs"
	"github.com/campusline/platform/shared/errs"
	"github.com/campusline/platform/shared/models"
	"github.com/campusline/platform/shared/utils"
	"github.com/campusline/platform/user-service/internal/repository"
)

// TokenIssuer signs session tokens.
type TokenIssuer interface {
	IssueToken(userID string) (string, error)
}

// AuthQueryService handles login. There's no command for it because login
// doesn't mutate application state.
type AuthQueryService struct {
	store  repository.UserStore
	tokens TokenIssuer
}

func NewAuthQueryService(store repository.UserStore, tokens TokenIssuer) *AuthQueryService {
	return &AuthQueryService{store: store, tokens: tokens}
}

// Login answers an unknown email and a wrong password with the same error.
func (s *AuthQueryService) Login(ctx context.Context, cmd cqrs.LoginCommand) (*models.AuthResponse, error) {
	email := utils.NormalizeEmail(cmd.Email)
	if email == "" || cmd.Password == "" {
		return nil, cqrs.ErrMissingFields
	}

	user, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		if errs.KindOf(err) == errs.NotFound {
			return nil, cqrs.ErrInvalidCredentials
		}
		return nil, err
	}
	if !credentials.CheckPassword(cmd.Password, user.PasswordHash) {
		return nil, cqrs.ErrInvalidCredentials
	}

	token, err := s.tokens.IssueToken(user.ID)
	if err != nil {
		return nil, err
	}
	return &models.AuthResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
		Token:    token,
	}, nil
}
