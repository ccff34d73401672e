package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/campusline/platform/shared/cqrs"
	"github.com/campusline/platform/shared/logger"
	"github.com/campusline/platform/shared/middleware"
	"github.com/campusline/platform/shared/models"
	"github.com/campusline/platform/user-service/internal/command"
	"github.com/campusline/platform/user-service/internal/repository"
	"github.com/gin-gonic/gin"
)

// ---- mock implementations ----

type mockUserCommander struct {
	updateFn   func(cqrs.UpdateUserCommand) (*models.UserSummary, error)
	passwordFn func(cqrs.UpdatePasswordCommand) error
	deleteFn   func(cqrs.DeleteUserCommand) error
}

func (m *mockUserCommander) UpdateUser(_ context.Context, cmd cqrs.UpdateUserCommand) (*models.UserSummary, error) {
	if m.updateFn != nil {
		return m.updateFn(cmd)
	}
	return nil, fmt.Errorf("not configured")
}
func (m *mockUserCommander) UpdatePassword(_ context.Context, cmd cqrs.UpdatePasswordCommand) error {
	if m.passwordFn != nil {
		return m.passwordFn(cmd)
	}
	return fmt.Errorf("not configured")
}
func (m *mockUserCommander) DeleteUser(_ context.Context, cmd cqrs.DeleteUserCommand) error {
	if m.deleteFn != nil {
		return m.deleteFn(cmd)
	}
	return fmt.Errorf("not configured")
}

type mockUserQuerier struct {
	getFn  func(cqrs.GetUserQuery) (*models.User, error)
	listFn func() ([]*models.User, error)
}

func (m *mockUserQuerier) GetUser(_ context.Context, q cqrs.GetUserQuery) (*models.User, error) {
	if m.getFn != nil {
		return m.getFn(q)
	}
	return nil, fmt.Errorf("not configured")
}
func (m *mockUserQuerier) ListUsers(context.Context, cqrs.ListUsersQuery) ([]*models.User, error) {
	if m.listFn != nil {
		return m.listFn()
	}
	return nil, fmt.Errorf("not configured")
}

// ---- helpers ----

func fakeAuthUser(user *models.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		if user != nil {
			middleware.SetCurrentUser(c, user)
		}
		c.Next()
	}
}

func newUserTestRouter(cmds UserCommander, qrys UserQuerier, authUser *models.User) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.ErrorHandler(logger.Nop(), false))
	RegisterRoutes(r, NewAuthHandler(&mockRegistrar{}, &mockAuthQuerier{}), NewUserHandler(cmds, qrys), fakeAuthUser(authUser))
	return r
}

// ---- test data ----

var uTestStudent = &models.User{
	ID: "64b7f0c2a1b2c3d4e5f60718", Username: "alice", Email: "alice@example.com",
	Role: models.RoleStudent, CreatedAt: time.Now(), UpdatedAt: time.Now(),
}

var uTestAdmin = &models.User{
	ID: "64b7f0c2a1b2c3d4e5f60799", Username: "root", Email: "root@example.com",
	Role: models.RoleAdmin, CreatedAt: time.Now(), UpdatedAt: time.Now(),
}

// ---- tests ----

func TestHealth(t *testing.T) {
	router := newUserTestRouter(&mockUserCommander{}, &mockUserQuerier{}, nil)
	w := doRequest(router, http.MethodGet, "/health", nil, "")

	var body map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if w.Code != http.StatusOK || body["status"] != HealthMessage {
		t.Errorf("unexpected health response %d %s", w.Code, w.Body.String())
	}
}

func TestGetProfile(t *testing.T) {
	router := newUserTestRouter(&mockUserCommander{}, &mockUserQuerier{}, uTestStudent)
	w := doRequest(router, http.MethodGet, "/api/users/profile", nil, "")

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var user models.User
	if err := json.Unmarshal(w.Body.Bytes(), &user); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if user.ID != uTestStudent.ID || user.Username != "alice" {
		t.Errorf("unexpected profile %+v", user)
	}
}

func TestGetUser(t *testing.T) {
	tests := []struct {
		name            string
		authUser        *models.User
		userID          string
		getFn           func(cqrs.GetUserQuery) (*models.User, error)
		expectedStatus  int
		expectedMessage string
	}{
		{
			name:           "success - admin fetches user",
			authUser:       uTestAdmin,
			userID:         uTestStudent.ID,
			getFn:          func(cqrs.GetUserQuery) (*models.User, error) { return uTestStudent, nil },
			expectedStatus: http.StatusOK,
		},
		{
			name:            "forbidden - student",
			authUser:        uTestStudent,
			userID:          uTestStudent.ID,
			expectedStatus:  http.StatusForbidden,
			expectedMessage: "User role student is not authorized to access this route",
		},
		{
			name:            "bad request - invalid id",
			authUser:        uTestAdmin,
			userID:          "abc",
			getFn:           func(cqrs.GetUserQuery) (*models.User, error) { return nil, cqrs.ErrInvalidUserID },
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: "Invalid User ID format",
		},
		{
			name:            "not found",
			authUser:        uTestAdmin,
			userID:          "64b7f0c2a1b2c3d4e5f60000",
			getFn:           func(cqrs.GetUserQuery) (*models.User, error) { return nil, repository.ErrUserNotFound },
			expectedStatus:  http.StatusNotFound,
			expectedMessage: "User not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newUserTestRouter(&mockUserCommander{}, &mockUserQuerier{getFn: tt.getFn}, tt.authUser)
			w := doRequest(router, http.MethodGet, "/api/users/"+tt.userID, nil, "")

			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if tt.expectedMessage != "" && responseMessage(w) != tt.expectedMessage {
				t.Errorf("expected message %q, got %q", tt.expectedMessage, responseMessage(w))
			}
		})
	}
}

func TestListUsers(t *testing.T) {
	router := newUserTestRouter(&mockUserCommander{}, &mockUserQuerier{
		listFn: func() ([]*models.User, error) { return []*models.User{uTestStudent, uTestAdmin}, nil },
	}, uTestAdmin)
	w := doRequest(router, http.MethodGet, "/api/users", nil, "")

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var users []models.User
	if err := json.Unmarshal(w.Body.Bytes(), &users); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(users) != 2 {
		t.Errorf("expected 2 users, got %d", len(users))
	}
}

func TestUpdateUser(t *testing.T) {
	tests := []struct {
		name            string
		body            interface{}
		updateFn        func(cqrs.UpdateUserCommand) (*models.UserSummary, error)
		expectedStatus  int
		expectedMessage string
	}{
		{
			name: "success - updates username",
			body: map[string]string{"username": "alice2"},
			updateFn: func(cmd cqrs.UpdateUserCommand) (*models.UserSummary, error) {
				if cmd.Requester.ID != uTestStudent.ID || cmd.UserID != uTestStudent.ID {
					return nil, fmt.Errorf("unexpected command %+v", cmd)
				}
				return &models.UserSummary{ID: cmd.UserID, Username: cmd.Username, Email: "alice@example.com", Role: models.RoleStudent}, nil
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:            "forbidden - role change",
			body:            map[string]string{"role": "admin"},
			updateFn:        func(cqrs.UpdateUserCommand) (*models.UserSummary, error) { return nil, command.ErrRoleChangeForbidden },
			expectedStatus:  http.StatusForbidden,
			expectedMessage: "Only administrators can change user roles",
		},
		{
			name:            "bad request - invalid role value",
			body:            map[string]string{"role": "superuser"},
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: "Invalid request data",
		},
		{
			name:            "bad request - duplicate",
			body:            map[string]string{"email": "bob@example.com"},
			updateFn:        func(cqrs.UpdateUserCommand) (*models.UserSummary, error) { return nil, repository.ErrDuplicateUser },
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: "Username or Email already exists",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newUserTestRouter(&mockUserCommander{updateFn: tt.updateFn}, &mockUserQuerier{}, uTestStudent)
			w := doRequest(router, http.MethodPut, "/api/users/"+uTestStudent.ID, tt.body, "")

			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
			if tt.expectedMessage != "" && responseMessage(w) != tt.expectedMessage {
				t.Errorf("expected message %q, got %q", tt.expectedMessage, responseMessage(w))
			}
		})
	}
}

func TestUpdatePassword(t *testing.T) {
	tests := []struct {
		name            string
		passwordFn      func(cqrs.UpdatePasswordCommand) error
		expectedStatus  int
		expectedMessage string
	}{
		{
			name:            "success",
			passwordFn:      func(cqrs.UpdatePasswordCommand) error { return nil },
			expectedStatus:  http.StatusOK,
			expectedMessage: "Password updated successfully",
		},
		{
			name:            "unauthorized - wrong current password",
			passwordFn:      func(cqrs.UpdatePasswordCommand) error { return command.ErrInvalidCurrentPassword },
			expectedStatus:  http.StatusUnauthorized,
			expectedMessage: "Invalid current password",
		},
		{
			name:            "bad request - short password",
			passwordFn:      func(cqrs.UpdatePasswordCommand) error { return command.ErrNewPasswordTooShort },
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: "New password must be at least 6 characters long",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newUserTestRouter(&mockUserCommander{passwordFn: tt.passwordFn}, &mockUserQuerier{}, uTestStudent)
			body := map[string]string{"currentPassword": "secret123", "newPassword": "newsecret"}
			w := doRequest(router, http.MethodPut, "/api/users/"+uTestStudent.ID+"/password", body, "")

			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if responseMessage(w) != tt.expectedMessage {
				t.Errorf("expected message %q, got %q", tt.expectedMessage, responseMessage(w))
			}
		})
	}
}

func TestDeleteUser(t *testing.T) {
	tests := []struct {
		name            string
		authUser        *models.User
		deleteFn        func(cqrs.DeleteUserCommand) error
		expectedStatus  int
		expectedMessage string
	}{
		{
			name:            "success - admin removes user",
			authUser:        uTestAdmin,
			deleteFn:        func(cqrs.DeleteUserCommand) error { return nil },
			expectedStatus:  http.StatusOK,
			expectedMessage: "User removed",
		},
		{
			name:            "bad request - own account",
			authUser:        uTestAdmin,
			deleteFn:        func(cqrs.DeleteUserCommand) error { return command.ErrCannotDeleteSelf },
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: "Cannot delete own account",
		},
		{
			name:           "forbidden - student",
			authUser:       uTestStudent,
			expectedStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newUserTestRouter(&mockUserCommander{deleteFn: tt.deleteFn}, &mockUserQuerier{}, tt.authUser)
			w := doRequest(router, http.MethodDelete, "/api/users/"+uTestStudent.ID, nil, "")

			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if tt.expectedMessage != "" && responseMessage(w) != tt.expectedMessage {
				t.Errorf("expected message %q, got %q", tt.expectedMessage, responseMessage(w))
			}
		})
	}
}
