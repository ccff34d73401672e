package query

import (
	"context"

	"github.com/campusline/platform/shared/cqrs"
	"github.com/campusline/platform/shared/models"
	"github.com/campusline/platform/shared/utils"
	"github.com/campusline/platform/user-service/internal/repository"
)

// UserQueryService serves user reads straight from the store. Results never
// carry the password hash.
type UserQueryService struct {
	store repository.UserStore
}

func NewUserQueryService(store repository.UserStore) *UserQueryService {
	return &UserQueryService{store: store}
}

func (s *UserQueryService) GetUser(ctx context.Context, q cqrs.GetUserQuery) (*models.User, error) {
	if !utils.ValidateUserID(q.UserID) {
		return nil, cqrs.ErrInvalidUserID
	}
	user, err := s.store.GetByID(ctx, q.UserID)
	if err != nil {
		return nil, err
	}
	return user.Sanitized(), nil
}

func (s *UserQueryService) ListUsers(ctx context.Context, _ cqrs.ListUsersQuery) ([]*models.User, error) {
	users, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*models.User, 0, len(users))
	for _, u := range users {
		out = append(out, u.Sanitized())
	}
	return out, nil
}
