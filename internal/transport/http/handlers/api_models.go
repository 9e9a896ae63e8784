package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yusay1498/vibe-coding-practice-api/internal/core/domain"
	"github.com/yusay1498/vibe-coding-practice-api/internal/transport/http/middleware"
)

// ErrorResponse represents a generic error payload with trace ID for debugging.
// Field names the offending attribute for validation and duplicate errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Field   string `json:"field,omitempty"`
	TraceID string `json:"trace_id,omitempty"`
}

// NewErrorResponse creates an error response with trace ID from context
func NewErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	return ErrorResponse{
		Error:   errorMsg,
		TraceID: middleware.GetTraceID(c),
	}
}

func newFieldErrorResponse(c *gin.Context, errorMsg, field string) ErrorResponse {
	resp := NewErrorResponse(c, errorMsg)
	resp.Field = field
	return resp
}

// UserCreateRequest defines the payload for creating a user.
type UserCreateRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserUpdateRequest defines a partial update. Omitted fields keep their stored value.
type UserUpdateRequest struct {
	Username              *string `json:"username"`
	Email                 *string `json:"email"`
	Password              *string `json:"password"`
	Enabled               *bool   `json:"enabled"`
	AccountNonExpired     *bool   `json:"account_non_expired"`
	AccountNonLocked      *bool   `json:"account_non_locked"`
	CredentialsNonExpired *bool   `json:"credentials_non_expired"`
}

// UserResponse is the public view of a user; the password hash never leaves the service.
type UserResponse struct {
	ID                    string    `json:"id"`
	Username              string    `json:"username"`
	Email                 string    `json:"email"`
	Enabled               bool      `json:"enabled"`
	AccountNonExpired     bool      `json:"account_non_expired"`
	AccountNonLocked      bool      `json:"account_non_locked"`
	CredentialsNonExpired bool      `json:"credentials_non_expired"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// DeleteAllResponse reports a completed bulk deletion.
type DeleteAllResponse struct {
	DeletedCount int       `json:"deleted_count"`
	ExecutedAt   time.Time `json:"executed_at"`
	Environment  string    `json:"environment"`
}

// HealthResponse describes the service health payload.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
	Timestamp time.Time `json:"timestamp"`
}

// ReadyResponse describes readiness probe results with dependency checks.
type ReadyResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

func newUserResponse(user domain.User) UserResponse {
	return UserResponse{
		ID:                    user.ID,
		Username:              user.Username,
		Email:                 user.Email,
		Enabled:               user.Enabled,
		AccountNonExpired:     user.AccountNonExpired,
		AccountNonLocked:      user.AccountNonLocked,
		CredentialsNonExpired: user.CredentialsNonExpired,
		CreatedAt:             user.CreatedAt.UTC(),
		UpdatedAt:             user.UpdatedAt.UTC(),
	}
}

func (r UserUpdateRequest) patch() domain.UserPatch {
	return domain.UserPatch{
		Username:              r.Username,
		Email:                 r.Email,
		Enabled:               r.Enabled,
		AccountNonExpired:     r.AccountNonExpired,
		AccountNonLocked:      r.AccountNonLocked,
		CredentialsNonExpired: r.CredentialsNonExpired,
	}
}
