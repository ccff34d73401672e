package events

import "time"

// Event types
const (
	UserRegistered = "user.registered"
	UserUpdated    = "user.updated"
	UserDeleted    = "user.deleted"
)

// Stream names
const (
	UserEventsStream = "user.events"
)

type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// UserEvent is the payload of every user lifecycle event. It never carries
// credentials.
type UserEvent struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}
