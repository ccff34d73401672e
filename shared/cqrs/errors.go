package cqrs

import "github.com/campusline/platform/shared/errs"

// Errors shared by the command and query sides of the user service.
var (
	ErrMissingFields      = errs.New(errs.Validation, "Please enter all fields")
	ErrInvalidUserID      = errs.New(errs.Validation, "Invalid User ID format")
	ErrInvalidCredentials = errs.New(errs.Validation, "Invalid credentials")
)
