package port

import (
	"context"

	"github.com/yusay1498/vibe-coding-practice-api/internal/core/domain"
)

// UserStore exposes persistence behavior for user records.
type UserStore interface {
	// FindByID returns repository.ErrNotFound when no record has the id.
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// FindByUsername returns repository.ErrNotFound when the username is free.
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	// FindByEmail returns repository.ErrNotFound when the email is free.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindAll(ctx context.Context) ([]domain.User, error)
	// Save inserts the record when ID is empty and updates it otherwise. A uniqueness
	// violation is reported as *repository.ConstraintViolationError.
	Save(ctx context.Context, user domain.User) (*domain.User, error)
	// DeleteByID returns the number of removed rows.
	DeleteByID(ctx context.Context, id string) (int64, error)
	// DeleteAll returns the number of removed rows.
	DeleteAll(ctx context.Context) (int64, error)
}
