package cqrs

// GetUserQuery fetches a single user by ID.
type GetUserQuery struct {
	UserID string
}

// ListUsersQuery fetches every user. It has no filters yet.
type ListUsersQuery struct{}
