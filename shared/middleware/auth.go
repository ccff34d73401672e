package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/campusline/platform/shared/errs"
	"github.com/campusline/platform/shared/logger"
	"github.com/campusline/platform/shared/models"
	"github.com/gin-gonic/gin"
)

const userContextKey = "campusline.user"

// TokenVerifier resolves a bearer token to a user id.
type TokenVerifier interface {
	VerifyToken(token string) (string, error)
}

// UserLoader loads the user a verified token refers to.
type UserLoader interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// AuthMiddleware authenticates the bearer token and attaches the user record
// (without its password hash) to the request. It does one store read per
// request.
func AuthMiddleware(tokens TokenVerifier, users UserLoader, log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			RespondWithError(c, http.StatusUnauthorized, "Not authorized, no token")
			c.Abort()
			return
		}

		userID, err := tokens.VerifyToken(tokenString)
		if err != nil {
			log.Debug("token verification failed", logger.Fields{"error": err})
			RespondWithError(c, http.StatusUnauthorized, "Not authorized, token failed")
			c.Abort()
			return
		}

		user, err := users.GetByID(c.Request.Context(), userID)
		if err != nil {
			if errs.KindOf(err) == errs.NotFound {
				RespondWithError(c, http.StatusUnauthorized, "Not authorized, user not found")
			} else {
				log.Error("failed to load authenticated user", logger.Fields{"userId": userID, "error": err})
				RespondWithError(c, http.StatusUnauthorized, "Not authorized, token failed")
			}
			c.Abort()
			return
		}

		SetCurrentUser(c, user.Sanitized())
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// SetCurrentUser attaches the authenticated user to the request.
func SetCurrentUser(c *gin.Context, user *models.User) {
	c.Set(userContextKey, user)
}

// CurrentUser returns the user attached by AuthMiddleware.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, exists := c.Get(userContextKey)
	if !exists {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok && user != nil
}

// MustCurrentUser is for handlers mounted behind AuthMiddleware. A missing
// user is a wiring bug and is reported as an error to the error handler.
func MustCurrentUser(c *gin.Context) (*models.User, bool) {
	user, ok := CurrentUser(c)
	if !ok {
		_ = c.Error(errors.New("handler reached without an authenticated user"))
		c.Abort()
	}
	return user, ok
}
