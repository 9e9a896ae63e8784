package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yusay1498/vibe-coding-practice-api/internal/core/domain"
	"github.com/yusay1498/vibe-coding-practice-api/internal/core/port"
	"github.com/yusay1498/vibe-coding-practice-api/internal/transport/http/middleware"
)

const passwordField = "password"

// UserService is the slice of usecase.UserService the HTTP layer calls.
type UserService interface {
	Create(ctx context.Context, username, email, passwordHash string) (*domain.User, error)
	Update(ctx context.Context, id string, patch domain.UserPatch) (*domain.User, error)
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) (domain.DeleteAllResult, error)
	Lookup(ctx context.Context, id string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
}

// UserHandler exposes user CRUD plus the guarded bulk deletion.
type UserHandler struct {
	users    UserService
	policy   port.PasswordPolicy
	hasher   port.PasswordHasher
	basePath string
}

func NewUserHandler(users UserService, policy port.PasswordPolicy, hasher port.PasswordHasher) *UserHandler {
	return &UserHandler{users: users, policy: policy, hasher: hasher}
}

// RegisterRoutes mounts the handlers on r. write guards the single-record mutations and
// deleteAll guards DELETE on the collection.
func (h *UserHandler) RegisterRoutes(r *gin.RouterGroup, write, deleteAll []gin.HandlerFunc) {
	h.basePath = r.BasePath()

	r.GET("", h.ListUsers)
	r.GET("/:id", h.GetUser)
	r.POST("", chain(write, h.CreateUser)...)
	r.PUT("/:id", chain(write, h.UpdateUser)...)
	r.PATCH("/:id", chain(write, h.UpdateUser)...)
	r.DELETE("/:id", chain(write, h.DeleteUser)...)
	r.DELETE("", chain(deleteAll, h.DeleteAllUsers)...)
}

func chain(middlewares []gin.HandlerFunc, handler gin.HandlerFunc) []gin.HandlerFunc {
	handlers := make([]gin.HandlerFunc, 0, len(middlewares)+1)
	handlers = append(handlers, middlewares...)
	return append(handlers, handler)
}

// ListUsers godoc
// @Summary List users
// @Tags Users
// @Produce json
// @Success 200 {array} UserResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		respondUserError(c, err, "failed to list users")
		return
	}

	resp := make([]UserResponse, 0, len(users))
	for _, user := range users {
		resp = append(resp, newUserResponse(user))
	}
	c.JSON(http.StatusOK, resp)
}

// GetUser godoc
// @Summary Get a user
// @Tags Users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} UserResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.users.Lookup(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondUserError(c, err, "failed to load user")
		return
	}
	c.JSON(http.StatusOK, newUserResponse(*user))
}

// CreateUser godoc
// @Summary Create a user
// @Description Validates the password policy, hashes the password and stores the user.
// @Tags Users
// @Accept json
// @Produce json
// @Param request body UserCreateRequest true "User create request"
// @Success 201 {object} UserResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 429 {object} middleware.ProblemDetails
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/users [post]
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req UserCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid user payload"))
		return
	}

	hash, ok := h.hashPassword(c, req.Password, req.Username, req.Email)
	if !ok {
		return
	}

	user, err := h.users.Create(c.Request.Context(), req.Username, req.Email, hash)
	if err != nil {
		respondUserError(c, err, "failed to create user")
		return
	}

	c.Header("Location", h.basePath+"/"+user.ID)
	c.JSON(http.StatusCreated, newUserResponse(*user))
}

// UpdateUser godoc
// @Summary Update a user
// @Description Applies the provided fields; omitted fields are left unchanged. Serves PUT and PATCH.
// @Tags Users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param request body UserUpdateRequest true "User update request"
// @Success 200 {object} UserResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/users/{id} [patch]
func (h *UserHandler) UpdateUser(c *gin.Context) {
	var req UserUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid user payload"))
		return
	}

	patch := req.patch()
	if req.Password != nil {
		hash, ok := h.hashPassword(c, *req.Password, deref(req.Username), deref(req.Email))
		if !ok {
			return
		}
		patch.PasswordHash = &hash
	}

	user, err := h.users.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		respondUserError(c, err, "failed to update user")
		return
	}

	c.JSON(http.StatusOK, newUserResponse(*user))
}

// DeleteUser godoc
// @Summary Delete a user
// @Tags Users
// @Param id path string true "User ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/users/{id} [delete]
func (h *UserHandler) DeleteUser(c *gin.Context) {
	if err := h.users.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondUserError(c, err, "failed to delete user")
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteAllUsers godoc
// @Summary Delete every user
// @Description Refused in production and above the deletion ceiling. Requires X-Confirm-Delete-All: true.
// @Tags Users
// @Produce json
// @Param X-Confirm-Delete-All header string true "must be true"
// @Success 200 {object} DeleteAllResponse
// @Failure 403 {object} ErrorResponse
// @Failure 429 {object} middleware.ProblemDetails
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/users [delete]
func (h *UserHandler) DeleteAllUsers(c *gin.Context) {
	if !strings.EqualFold(strings.TrimSpace(c.GetHeader(middleware.ConfirmDeleteAllHeader)), "true") {
		c.JSON(http.StatusForbidden, NewErrorResponse(c, "bulk deletion requires confirmation"))
		return
	}

	result, err := h.users.DeleteAll(c.Request.Context())
	if err != nil {
		respondUserError(c, err, "failed to delete users")
		return
	}

	c.JSON(http.StatusOK, DeleteAllResponse{
		DeletedCount: result.DeletedCount,
		ExecutedAt:   result.ExecutedAt.UTC(),
		Environment:  result.Environment,
	})
}

// hashPassword applies the password policy and hashes the result. It writes the error
// response itself and reports false when the request must stop.
func (h *UserHandler) hashPassword(c *gin.Context, password string, inputs ...string) (string, bool) {
	if err := h.policy.Validate(password, inputs...); err != nil {
		c.JSON(http.StatusBadRequest, newFieldErrorResponse(c, err.Error(), passwordField))
		return "", false
	}

	hash, err := h.hasher.Hash(password)
	if err != nil {
		_ = c.Error(fmt.Errorf("hash password: %w", err))
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to process password"))
		return "", false
	}
	return hash, true
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
