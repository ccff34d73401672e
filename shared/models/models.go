package models

import "time"

type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleAdmin:
		return true
	}
	return false
}

// User is the account record. PasswordHash is never serialised.
type User struct {
	ID           string    `json:"_id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Sanitized returns a copy of u without the password hash.
func (u *User) Sanitized() *User {
	c := *u
	c.PasswordHash = ""
	return &c
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
	Token    string `json:"token"`
}

// UserSummary is returned by profile updates.
type UserSummary struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
}

func (u *User) Summary() *UserSummary {
	return &UserSummary{ID: u.ID, Username: u.Username, Email: u.Email, Role: u.Role}
}
