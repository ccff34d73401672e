package utils

import (
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// GenerateUserID returns a new 24-character hex object id. Both store
// drivers use it so identifiers look the same regardless of the backend.
func GenerateUserID() string {
	return bson.NewObjectID().Hex()
}

// ValidateUserID validates the user ID format
func ValidateUserID(userID string) bool {
	_, err := bson.ObjectIDFromHex(userID)
	return err == nil
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeUsername trims surrounding whitespace.
func NormalizeUsername(username string) string {
	return strings.TrimSpace(username)
}
