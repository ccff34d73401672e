package middleware

import (
	"fmt"
	"net/http"
	"slices"

	"github.com/campusline/platform/shared/models"
	"github.com/gin-gonic/gin"
)

// AuthorizeRoles must run after AuthMiddleware. Requests without an attached
// user are rejected.
func AuthorizeRoles(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			RespondWithError(c, http.StatusForbidden, "User is not authorized to access this route")
			c.Abort()
			return
		}
		if !slices.Contains(roles, user.Role) {
			RespondWithError(c, http.StatusForbidden, fmt.Sprintf("User role %s is not authorized to access this route", user.Role))
			c.Abort()
			return
		}
		c.Next()
	}
}
