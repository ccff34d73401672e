package handler

import (
	"net/http"

	"github.com/campusline/platform/shared/middleware"
	"github.com/campusline/platform/shared/models"
	"github.com/gin-gonic/gin"
)

const HealthMessage = "User Management Service is Up and Running!"

// RegisterRoutes mounts the auth and user APIs. authn is AuthMiddleware
// built by the caller.
func RegisterRoutes(r gin.IRouter, auth *AuthHandler, users *UserHandler, authn gin.HandlerFunc) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": HealthMessage})
	})

	a := r.Group("/api/auth")
	{
		a.POST("/register", auth.Register)
		a.POST("/login", auth.Login)
	}

	adminOnly := middleware.AuthorizeRoles(models.RoleAdmin)
	u := r.Group("/api/users", authn)
	{
		u.GET("/profile", users.GetProfile)
		u.GET("", adminOnly, users.ListUsers)
		u.GET("/:id", adminOnly, users.GetUser)
		u.PUT("/:id", users.UpdateUser)
		u.PUT("/:id/password", users.UpdatePassword)
		u.DELETE("/:id", adminOnly, users.DeleteUser)
	}
}
