package middleware

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/campusline/platform/shared/errs"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report JSON field names rather than Go struct field names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

type BadRequestErrorResponse struct {
	Message string            `json:"message"`
	Details []ValidationError `json:"details"`
}

// ValidateRequest runs struct tag validation and returns nil when obj is valid.
func ValidateRequest(obj any) []ValidationError {
	var validationErrors []ValidationError

	err := validate.Struct(obj)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return []ValidationError{{Message: err.Error(), Type: "invalid"}}
	}

	for _, err := range fieldErrors {
		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: getErrorMsg(err),
			Type:    err.Tag(),
		})
	}

	return validationErrors
}

// Validator exposes the shared validator for non-HTTP callers such as the
// queue consumer.
func Validator() *validator.Validate {
	return validate
}

func getErrorMsg(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "This field is required"
	case "required_without":
		return "This field is required when " + err.Param() + " is empty"
	case "email":
		return "Please fill a valid email address"
	case "min":
		return "Must be at least " + err.Param() + " characters long"
	case "max":
		return "Value is too long"
	case "oneof":
		return "Must be one of: " + err.Param()
	default:
		return "Invalid value"
	}
}

func RespondWithValidationError(c *gin.Context, validationErrors []ValidationError) {
	c.JSON(http.StatusBadRequest, BadRequestErrorResponse{
		Message: "Invalid request data",
		Details: validationErrors,
	})
}

func RespondWithError(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{
		"message": message,
	})
}

// RespondWithAppError writes a domain error with its mapped status. Errors
// that are not domain errors go to the error handler instead.
func RespondWithAppError(c *gin.Context, err error) {
	if errs.KindOf(err) == "" {
		_ = c.Error(err)
		c.Abort()
		return
	}
	status := errs.StatusOf(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	RespondWithError(c, status, errs.MessageOf(err))
}
