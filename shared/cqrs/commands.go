package cqrs

import "github.com/campusline/platform/shared/models"

type RegisterUserCommand struct {
	Username string
	Email    string
	Password string
	Role     models.Role
}

// UpdateUserCommand carries the optional profile fields; empty means unchanged.
type UpdateUserCommand struct {
	UserID    string
	Requester *models.User
	Username  string
	Email     string
	Role      models.Role
}

type UpdatePasswordCommand struct {
	UserID          string
	Requester       *models.User
	CurrentPassword string
	NewPassword     string
}

type DeleteUserCommand struct {
	UserID    string
	Requester *models.User
}

type LoginCommand struct {
	Email    string
	Password string
}
