package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"user-management-api/internal/usecase/user"
	pkgerrors "user-management-api/pkg/errors"
	"user-management-api/pkg/logger"
)

// Client-facing messages.
const (
	MsgAPIRunning   = "¡La API está funcionando!"
	MsgUserCreated  = "Usuario creado exitosamente"
	MsgUserUpdated  = "Usuario actualizado exitosamente"
	MsgUserDeleted  = "Usuario eliminado exitosamente"
	MsgUserNotFound = user.MsgUserNotFound
)

// UserHandler handles HTTP requests for user operations
type UserHandler struct {
	uc  user.Usecase
	log *zap.Logger
}

// NewUserHandler creates a new UserHandler instance
func NewUserHandler(uc user.Usecase, log *zap.Logger) *UserHandler {
	return &UserHandler{
		uc:  uc,
		log: log,
	}
}

// UserRequest represents the HTTP request body for creating or updating a user.
// Presence is checked by the use case so that messages stay in one place.
type UserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UserResponse represents the HTTP response for user data
type UserResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// CreateUserResponse represents the HTTP response for a created user
type CreateUserResponse struct {
	Message string `json:"message"`
	ID      int64  `json:"id"`
}

// MessageResponse represents a plain confirmation or not-found response
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// Home handles GET /
func (h *UserHandler) Home(c *gin.Context) {
	c.JSON(http.StatusOK, MessageResponse{Message: MsgAPIRunning})
}

// ListUsers handles GET /users
func (h *UserHandler) ListUsers(c *gin.Context) {
	resp, err := h.uc.ListUsers(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}

	users := make([]UserResponse, len(resp.Users))
	for i, u := range resp.Users {
		users[i] = UserResponse{
			ID:    u.ID,
			Name:  u.Name,
			Email: u.Email,
		}
	}

	c.JSON(http.StatusOK, users)
}

// CreateUser handles POST /users
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req UserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleError(c, err)
		return
	}

	resp, err := h.uc.CreateUser(c.Request.Context(), user.CreateUserRequest{
		Name:  req.Name,
		Email: req.Email,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, CreateUserResponse{
		Message: MsgUserCreated,
		ID:      resp.ID,
	})
}

// UpdateUser handles PUT /users/:id
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var req UserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleError(c, err)
		return
	}

	if _, err := h.uc.UpdateUser(c.Request.Context(), user.UpdateUserRequest{
		ID:    id,
		Name:  req.Name,
		Email: req.Email,
	}); err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: MsgUserUpdated})
}

// DeleteUser handles DELETE /users/:id
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	if _, err := h.uc.DeleteUser(c.Request.Context(), user.DeleteUserRequest{ID: id}); err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: MsgUserDeleted})
}

// parseID reads the :id path segment. Only non-negative base-10 integers address a user;
// anything else cannot match a row and is answered with 404.
func (h *UserHandler) parseID(c *gin.Context) (int64, bool) {
	raw := c.Param("id")
	id, err := strconv.ParseUint(raw, 10, 63)
	if err != nil {
		logger.WithContext(c.Request.Context(), h.log).Warn("invalid user id", zap.String("id", raw))
		c.JSON(http.StatusNotFound, MessageResponse{Message: MsgUserNotFound})
		return 0, false
	}
	return int64(id), true
}

// handleError converts usecase errors to HTTP responses.
// Validation and not-found errors carry their own status; everything else is a 500 with the raw error text.
func (h *UserHandler) handleError(c *gin.Context, err error) {
	log := logger.WithContext(c.Request.Context(), h.log)

	var validationErr *pkgerrors.ValidationError
	var notFoundErr *pkgerrors.NotFoundError

	switch {
	case errors.As(err, &validationErr):
		log.Warn("request rejected", zap.String("field", validationErr.Field), zap.String("reason", validationErr.Message))
		c.JSON(validationErr.HTTPStatus(), ErrorResponse{Error: validationErr.Message})
	case errors.As(err, &notFoundErr):
		log.Info("user not found", zap.String("path", c.Request.URL.Path))
		c.JSON(notFoundErr.HTTPStatus(), MessageResponse{Message: notFoundErr.Error()})
	default:
		log.Error("request failed", zap.String("method", c.Request.Method), zap.String("path", c.Request.URL.Path), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}
}
