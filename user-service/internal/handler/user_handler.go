package handler

import (
	"context"
	"net/http"

	"github.com/campusline/platform/shared/cqrs"
	"github.com/campusline/platform/shared/middleware"
	"github.com/campusline/platform/shared/models"
	"github.com/gin-gonic/gin"
)

// UserCommander defines the write-side operations used by UserHandler.
type UserCommander interface {
	UpdateUser(context.Context, cqrs.UpdateUserCommand) (*models.UserSummary, error)
	UpdatePassword(context.Context, cqrs.UpdatePasswordCommand) error
	DeleteUser(context.Context, cqrs.DeleteUserCommand) error
}

// UserQuerier defines the read-side operations used by UserHandler.
type UserQuerier interface {
	GetUser(context.Context, cqrs.GetUserQuery) (*models.User, error)
	ListUsers(context.Context, cqrs.ListUsersQuery) ([]*models.User, error)
}

// UserHandler routes requests to the command or query service as appropriate.
// Every route is mounted behind AuthMiddleware.
type UserHandler struct {
	commands UserCommander
	queries  UserQuerier
}

type UpdateUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role" validate:"omitempty,oneof=student teacher admin"`
}

type UpdatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func NewUserHandler(commands UserCommander, queries UserQuerier) *UserHandler {
	return &UserHandler{commands: commands, queries: queries}
}

func (h *UserHandler) GetProfile(c *gin.Context) {
	user, ok := middleware.MustCurrentUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.queries.ListUsers(c.Request.Context(), cqrs.ListUsersQuery{})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.queries.GetUser(c.Request.Context(), cqrs.GetUserQuery{UserID: c.Param("id")})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) UpdateUser(c *gin.Context) {
	requester, ok := middleware.MustCurrentUser(c)
	if !ok {
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	summary, err := h.commands.UpdateUser(c.Request.Context(), cqrs.UpdateUserCommand{
		UserID:    c.Param("id"),
		Requester: requester,
		Username:  req.Username,
		Email:     req.Email,
		Role:      models.Role(req.Role),
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

func (h *UserHandler) UpdatePassword(c *gin.Context) {
	requester, ok := middleware.MustCurrentUser(c)
	if !ok {
		return
	}

	var req UpdatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	err := h.commands.UpdatePassword(c.Request.Context(), cqrs.UpdatePasswordCommand{
		UserID:          c.Param("id"),
		Requester:       requester,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Password updated successfully"})
}

func (h *UserHandler) DeleteUser(c *gin.Context) {
	requester, ok := middleware.MustCurrentUser(c)
	if !ok {
		return
	}

	err := h.commands.DeleteUser(c.Request.Context(), cqrs.DeleteUserCommand{
		UserID:    c.Param("id"),
		Requester: requester,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "User removed"})
}
