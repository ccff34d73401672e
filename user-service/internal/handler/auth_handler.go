package handler

import (
	"context"
	"net/http"

	"github.com/campusline/platform/shared/cqrs"
	"github.com/campusline/platform/shared/middleware"
	"github.com/campusline/platform/shared/models"
	"github.com/gin-gonic/gin"
)

// Registrar is the write-side operation used by AuthHandler.
type Registrar interface {
	Register(context.Context, cqrs.RegisterUserCommand) (*models.AuthResponse, error)
}

// AuthQuerier defines the read-side operations used by AuthHandler.
type AuthQuerier interface {
	Login(context.Context, cqrs.LoginCommand) (*models.AuthResponse, error)
}

type AuthHandler struct {
	commands Registrar
	queries  AuthQuerier
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role" validate:"omitempty,oneof=student teacher admin"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func NewAuthHandler(commands Registrar, queries AuthQuerier) *AuthHandler {
	return &AuthHandler{commands: commands, queries: queries}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	resp, err := h.commands.Register(c.Request.Context(), cqrs.RegisterUserCommand{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     models.Role(req.Role),
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.queries.Login(c.Request.Context(), cqrs.LoginCommand{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
