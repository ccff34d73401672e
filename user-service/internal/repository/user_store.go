package repository

import (
	"context"

	"github.com/campusline/platform/shared/errs"
	"github.com/campusline/platform/shared/models"
)

const (
	usersTable          = "users"
	emailUniqueIndex    = "users_email_unique"
	usernameUniqueIndex = "users_username_unique"
)

var (
	ErrUserNotFound      = errs.New(errs.NotFound, "User not found")
	ErrDuplicateEmail    = errs.New(errs.Conflict, "User with this email already exists")
	ErrDuplicateUsername = errs.New(errs.Conflict, "User with this username already exists")
	// ErrDuplicateUser is returned when the violated unique field is unknown.
	ErrDuplicateUser = errs.New(errs.Conflict, "Username or Email already exists")
)

// UserStore is the persistence boundary of the user service. Implementations
// return the full record including PasswordHash; callers sanitize before
// responding.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	// Update persists username, email, role, password hash and updatedAt.
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
	Close(ctx context.Context) error
}

// duplicateError maps a unique index or constraint name to its sentinel.
func duplicateError(name string, cause error) error {
	switch name {
	case emailUniqueIndex:
		return errs.Wrap(errs.Conflict, ErrDuplicateEmail.Message, cause)
	case usernameUniqueIndex:
		return errs.Wrap(errs.Conflict, ErrDuplicateUsername.Message, cause)
	default:
		return errs.Wrap(errs.Conflict, ErrDuplicateUser.Message, cause)
	}
}
