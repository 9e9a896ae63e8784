package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yusay1498/vibe-coding-practice-api/internal/core/domain"
)

// ErrorCase maps a sentinel error to an HTTP status code and response message.
type ErrorCase struct {
	Err     error
	Status  int
	Message string
}

// RespondWithMappedError resolves the provided error against known cases or falls back to a generic response.
// Fallback responses attach err to the gin context so the access log records it.
func RespondWithMappedError(c *gin.Context, err error, cases []ErrorCase, fallbackStatus int, fallbackMessage string) {
	if err == nil {
		c.Status(http.StatusOK)
		return
	}

	for _, cs := range cases {
		if cs.Err == nil {
			continue
		}
		if errors.Is(err, cs.Err) {
			c.JSON(cs.Status, NewErrorResponse(c, cs.Message))
			return
		}
	}

	_ = c.Error(err)
	c.JSON(fallbackStatus, NewErrorResponse(c, fallbackMessage))
}

// respondUserError writes the response for an error returned by the user service.
// Duplicate responses name only the field; deletion refusals never reveal the reason.
func respondUserError(c *gin.Context, err error, fallbackMessage string) {
	var invalid *domain.InvalidFieldError
	if errors.As(err, &invalid) {
		c.JSON(http.StatusBadRequest, newFieldErrorResponse(c, invalid.Field+" is "+invalid.Reason, invalid.Field))
		return
	}

	var duplicate *domain.DuplicateError
	if errors.As(err, &duplicate) {
		c.JSON(http.StatusConflict, newFieldErrorResponse(c, duplicate.Field+" already exists", duplicate.Field))
		return
	}

	RespondWithMappedError(c, err, []ErrorCase{
		{Err: domain.ErrNotFound, Status: http.StatusNotFound, Message: "user not found"},
		{Err: domain.ErrDeletionForbidden, Status: http.StatusForbidden, Message: "bulk deletion is not permitted"},
	}, http.StatusInternalServerError, fallbackMessage)
}
