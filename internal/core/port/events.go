package port

import (
	"context"

	"github.com/yusay1498/vibe-coding-practice-api/internal/core/domain"
)

// EventPublisher publishes user lifecycle events to the message bus.
type EventPublisher interface {
	PublishUserCreated(ctx context.Context, event domain.UserCreatedEvent) error
	PublishUserUpdated(ctx context.Context, event domain.UserUpdatedEvent) error
	PublishUserDeleted(ctx context.Context, event domain.UserDeletedEvent) error
	PublishUsersPurged(ctx context.Context, event domain.UsersPurgedEvent) error
}
