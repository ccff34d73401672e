package command

import (
	"context"
	"time"

	"github.com/campusline/platform/shared/credentials"
	"github.com/campusline/platform/shared/cqrs"
	"github.com/campusline/platform/shared/errs"
	"github.com/campusline/platform/shared/events"
	"github.com/campusline/platform/shared/logger"
	"github.com/campusline/platform/shared/models"
	"github.com/campusline/platform/shared/utils"
	"github.com/campusline/platform/user-service/internal/repository"
	"github.com/go-playground/validator/v10"
)

var (
	ErrNotAuthorizedToUpdate   = errs.New(errs.Authorization, "Not authorized to update this user")
	ErrRoleChangeForbidden     = errs.New(errs.Authorization, "Only administrators can change user roles")
	ErrNotAuthorizedToPassword = errs.New(errs.Authorization, "Not authorized to update this user's password")
	ErrInvalidCurrentPassword  = errs.New(errs.Authentication, "Invalid current password")
	ErrNewPasswordTooShort     = errs.New(errs.Validation, "New password must be at least 6 characters long")
	ErrCannotDeleteSelf        = errs.New(errs.Validation, "Cannot delete own account")

	errUsernameTooShort = errs.New(errs.Validation, "Username must be at least 3 characters long")
	errInvalidEmail     = errs.New(errs.Validation, "Please fill a valid email address")
	errPasswordTooShort = errs.New(errs.Validation, "Password must be at least 6 characters long")
	errInvalidRole      = errs.New(errs.Validation, "Role must be one of: student, teacher, admin")
)

const (
	minUsernameLength = 3
	minPasswordLength = 6
)

// TokenIssuer signs session tokens for newly registered users.
type TokenIssuer interface {
	IssueToken(userID string) (string, error)
}

// EventPublisher is satisfied by *events.Publisher.
type EventPublisher interface {
	Publish(ctx context.Context, stream, eventType string, data any) error
}

// UserCommandService owns every user mutation and publishes a lifecycle event
// after each one. Event publishing is best effort.
type UserCommandService struct {
	store     repository.UserStore
	tokens    TokenIssuer
	publisher EventPublisher
	log       logger.Logger
	validate  *validator.Validate
	now       func() time.Time
}

// NewUserCommandService accepts a nil publisher when no event stream is
// configured.
func NewUserCommandService(
	store repository.UserStore,
	tokens TokenIssuer,
	publisher EventPublisher,
	log logger.Logger,
) *UserCommandService {
	return &UserCommandService{
		store:     store,
		tokens:    tokens,
		publisher: publisher,
		log:       log,
		validate:  validator.New(),
		now:       time.Now,
	}
}

func (s *UserCommandService) Register(ctx context.Context, cmd cqrs.RegisterUserCommand) (*models.AuthResponse, error) {
	username := utils.NormalizeUsername(cmd.Username)
	email := utils.NormalizeEmail(cmd.Email)
	if username == "" || email == "" || cmd.Password == "" {
		return nil, cqrs.ErrMissingFields
	}

	role := cmd.Role
	if role == "" {
		role = models.RoleStudent
	}
	if err := s.validateProfile(username, email, role); err != nil {
		return nil, err
	}
	if len(cmd.Password) < minPasswordLength {
		return nil, errPasswordTooShort
	}

	if err := s.ensureAvailable(ctx, email, username); err != nil {
		return nil, err
	}

	hash, err := credentials.HashPassword(cmd.Password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	user := &models.User{
		ID:           utils.GenerateUserID(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	// The unique indexes settle concurrent registrations that both passed
	// ensureAvailable.
	if err := s.store.Create(ctx, user); err != nil {
		return nil, err
	}

	token, err := s.tokens.IssueToken(user.ID)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.UserRegistered, user)
	s.log.Info("user registered", logger.Fields{"userId": user.ID, "role": user.Role})

	return &models.AuthResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
		Token:    token,
	}, nil
}

func (s *UserCommandService) ensureAvailable(ctx context.Context, email, username string) error {
	if _, err := s.store.GetByEmail(ctx, email); err == nil {
		return repository.ErrDuplicateEmail
	} else if errs.KindOf(err) != errs.NotFound {
		return err
	}
	if _, err := s.store.GetByUsername(ctx, username); err == nil {
		return repository.ErrDuplicateUsername
	} else if errs.KindOf(err) != errs.NotFound {
		return err
	}
	return nil
}

// UpdateUser changes username, email and (admins only) role. Empty command
// fields leave the stored value unchanged.
func (s *UserCommandService) UpdateUser(ctx context.Context, cmd cqrs.UpdateUserCommand) (*models.UserSummary, error) {
	user, err := s.loadTarget(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}

	isAdmin := cmd.Requester.Role == models.RoleAdmin
	if cmd.Requester.ID != user.ID && !isAdmin {
		return nil, ErrNotAuthorizedToUpdate
	}
	if cmd.Role != "" && !isAdmin {
		return nil, ErrRoleChangeForbidden
	}

	if cmd.Username != "" {
		user.Username = utils.NormalizeUsername(cmd.Username)
	}
	if cmd.Email != "" {
		user.Email = utils.NormalizeEmail(cmd.Email)
	}
	if cmd.Role != "" {
		user.Role = cmd.Role
	}
	if err := s.validateProfile(user.Username, user.Email, user.Role); err != nil {
		return nil, err
	}

	user.UpdatedAt = s.now().UTC()
	if err := s.store.Update(ctx, user); err != nil {
		if errs.KindOf(err) == errs.Conflict {
			return nil, errs.Wrap(errs.Conflict, repository.ErrDuplicateUser.Message, err)
		}
		return nil, err
	}

	s.publish(ctx, events.UserUpdated, user)
	return user.Summary(), nil
}

// UpdatePassword lets a user change their own password given the current one.
// Admins may reset any password without it.
func (s *UserCommandService) UpdatePassword(ctx context.Context, cmd cqrs.UpdatePasswordCommand) error {
	user, err := s.loadTarget(ctx, cmd.UserID)
	if err != nil {
		return err
	}

	isAdmin := cmd.Requester.Role == models.RoleAdmin
	if cmd.Requester.ID != user.ID && !isAdmin {
		return ErrNotAuthorizedToPassword
	}
	if !isAdmin && !credentials.CheckPassword(cmd.CurrentPassword, user.PasswordHash) {
		return ErrInvalidCurrentPassword
	}
	if len(cmd.NewPassword) < minPasswordLength {
		return ErrNewPasswordTooShort
	}

	hash, err := credentials.HashPassword(cmd.NewPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	user.UpdatedAt = s.now().UTC()
	if err := s.store.Update(ctx, user); err != nil {
		return err
	}

	s.log.Info("password updated", logger.Fields{"userId": user.ID, "by": cmd.Requester.ID})
	return nil
}

// DeleteUser removes another user's account. Route access is limited to
// admins; an admin can never delete themselves.
func (s *UserCommandService) DeleteUser(ctx context.Context, cmd cqrs.DeleteUserCommand) error {
	user, err := s.loadTarget(ctx, cmd.UserID)
	if err != nil {
		return err
	}
	if cmd.Requester.ID == user.ID {
		return ErrCannotDeleteSelf
	}

	if err := s.store.Delete(ctx, user.ID); err != nil {
		return err
	}

	s.publish(ctx, events.UserDeleted, user)
	s.log.Info("user deleted", logger.Fields{"userId": user.ID, "by": cmd.Requester.ID})
	return nil
}

func (s *UserCommandService) loadTarget(ctx context.Context, userID string) (*models.User, error) {
	if !utils.ValidateUserID(userID) {
		return nil, cqrs.ErrInvalidUserID
	}
	return s.store.GetByID(ctx, userID)
}

func (s *UserCommandService) validateProfile(username, email string, role models.Role) error {
	if len(username) < minUsernameLength {
		return errUsernameTooShort
	}
	if err := s.validate.Var(email, "required,email"); err != nil {
		return errInvalidEmail
	}
	if !role.Valid() {
		return errInvalidRole
	}
	return nil
}

func (s *UserCommandService) publish(ctx context.Context, eventType string, user *models.User) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.Publish(ctx, events.UserEventsStream, eventType, events.UserEvent{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     string(user.Role),
	})
	if err != nil {
		s.log.Warn("failed to publish user event", logger.Fields{"type": eventType, "userId": user.ID, "error": err})
	}
}
