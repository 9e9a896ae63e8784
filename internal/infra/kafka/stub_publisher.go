package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/yusay1498/vibe-coding-practice-api/internal/core/domain"
	"github.com/yusay1498/vibe-coding-practice-api/internal/core/port"
	"github.com/yusay1498/vibe-coding-practice-api/internal/infra/logger"
)

// StubPublisher logs events instead of sending them to Kafka. Used when no brokers are configured.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a development-friendly event publisher.
func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	return &StubPublisher{logger: logger}
}

func (p *StubPublisher) logEvent(eventType, userID string, at time.Time, fields ...zap.Field) {
	p.logger.Info("Stub event published", append([]zap.Field{
		zap.String("event_type", eventType),
		zap.String("user_id", userID),
		zap.Time("timestamp", at.UTC()),
	}, fields...)...)
}

func (p *StubPublisher) PublishUserCreated(_ context.Context, event domain.UserCreatedEvent) error {
	p.logEvent(EventUserCreated, event.UserID, event.CreatedAt,
		zap.String("username", logger.MaskString(event.Username)),
		zap.String("email", logger.MaskEmail(event.Email)),
	)
	return nil
}

func (p *StubPublisher) PublishUserUpdated(_ context.Context, event domain.UserUpdatedEvent) error {
	p.logEvent(EventUserUpdated, event.UserID, event.UpdatedAt, zap.Strings("changed_fields", event.ChangedFields))
	return nil
}

func (p *StubPublisher) PublishUserDeleted(_ context.Context, event domain.UserDeletedEvent) error {
	p.logEvent(EventUserDeleted, event.UserID, event.DeletedAt)
	return nil
}

func (p *StubPublisher) PublishUsersPurged(_ context.Context, event domain.UsersPurgedEvent) error {
	p.logEvent(EventUsersPurged, "", event.ExecutedAt,
		zap.Int("deleted_count", event.DeletedCount),
		zap.String("environment", event.Environment),
	)
	return nil
}

var _ port.EventPublisher = (*StubPublisher)(nil)
