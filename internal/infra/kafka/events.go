package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/yusay1498/vibe-coding-practice-api/internal/core/domain"
	"github.com/yusay1498/vibe-coding-practice-api/internal/core/port"
	"github.com/yusay1498/vibe-coding-practice-api/internal/infra/config"
	"github.com/yusay1498/vibe-coding-practice-api/internal/infra/logger"
)

const schemaVersion = "1.0"

// Event types double as topic names once the topic prefix is applied.
const (
	EventUserCreated = "users.user.created"
	EventUserUpdated = "users.user.updated"
	EventUserDeleted = "users.user.deleted"
	EventUsersPurged = "users.purged"
)

// EventPublisher implements port.EventPublisher using Kafka.
type EventPublisher struct {
	producer *Producer
	logger   *zap.Logger
	appCfg   config.AppSettings
}

// NewEventPublisher constructs a Kafka-backed event publisher.
func NewEventPublisher(producer *Producer, appCfg config.AppSettings, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{producer: producer, appCfg: appCfg, logger: logger}
}

type eventEnvelope struct {
	EventID   string            `json:"event_id"`
	EventType string            `json:"event_type"`
	UserID    string            `json:"user_id,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Payload   any               `json:"payload"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

func (p *EventPublisher) publish(ctx context.Context, eventID, eventType, userID string, ts time.Time, payload any) error {
	if ts.IsZero() {
		ts = time.Now()
	}
	if eventID == "" {
		eventID = uuid.NewString()
	}

	metadata := map[string]string{
		"service":     p.appCfg.Name,
		"environment": p.appCfg.Env,
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		metadata["trace_id"] = sc.TraceID().String()
	}

	bytes, err := json.Marshal(eventEnvelope{
		EventID:   eventID,
		EventType: eventType,
		UserID:    userID,
		Timestamp: ts.UTC(),
		Version:   schemaVersion,
		Payload:   payload,
		Metadata:  metadata,
	})
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.producer.TopicName(eventType),
		Value: sarama.ByteEncoder(bytes),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(eventType)},
		},
	}
	if userID != "" {
		// keeps all events of one user on one partition
		message.Key = sarama.StringEncoder(userID)
	}

	return p.producer.Send(ctx, message)
}

// PublishUserCreated publishes users.user.created events. The email is masked.
func (p *EventPublisher) PublishUserCreated(ctx context.Context, event domain.UserCreatedEvent) error {
	payload := struct {
		UserID    string         `json:"user_id"`
		Username  string         `json:"username"`
		Email     string         `json:"email"`
		CreatedAt time.Time      `json:"created_at"`
		Metadata  map[string]any `json:"metadata,omitempty"`
	}{
		UserID:    event.UserID,
		Username:  event.Username,
		Email:     logger.MaskEmail(event.Email),
		CreatedAt: event.CreatedAt.UTC(),
		Metadata:  event.Metadata,
	}

	return p.publish(ctx, event.EventID, EventUserCreated, event.UserID, event.CreatedAt, payload)
}

// PublishUserUpdated publishes users.user.updated events.
func (p *EventPublisher) PublishUserUpdated(ctx context.Context, event domain.UserUpdatedEvent) error {
	payload := struct {
		UserID        string         `json:"user_id"`
		ChangedFields []string       `json:"changed_fields"`
		UpdatedAt     time.Time      `json:"updated_at"`
		Metadata      map[string]any `json:"metadata,omitempty"`
	}{
		UserID:        event.UserID,
		ChangedFields: event.ChangedFields,
		UpdatedAt:     event.UpdatedAt.UTC(),
		Metadata:      event.Metadata,
	}

	return p.publish(ctx, event.EventID, EventUserUpdated, event.UserID, event.UpdatedAt, payload)
}

// PublishUserDeleted publishes users.user.deleted events.
func (p *EventPublisher) PublishUserDeleted(ctx context.Context, event domain.UserDeletedEvent) error {
	payload := struct {
		UserID    string         `json:"user_id"`
		DeletedAt time.Time      `json:"deleted_at"`
		Metadata  map[string]any `json:"metadata,omitempty"`
	}{
		UserID:    event.UserID,
		DeletedAt: event.DeletedAt.UTC(),
		Metadata:  event.Metadata,
	}

	return p.publish(ctx, event.EventID, EventUserDeleted, event.UserID, event.DeletedAt, payload)
}

// PublishUsersPurged publishes users.purged events.
func (p *EventPublisher) PublishUsersPurged(ctx context.Context, event domain.UsersPurgedEvent) error {
	payload := struct {
		DeletedCount int            `json:"deleted_count"`
		ExecutedAt   time.Time      `json:"executed_at"`
		Environment  string         `json:"environment"`
		Metadata     map[string]any `json:"metadata,omitempty"`
	}{
		DeletedCount: event.DeletedCount,
		ExecutedAt:   event.ExecutedAt.UTC(),
		Environment:  event.Environment,
		Metadata:     event.Metadata,
	}

	return p.publish(ctx, event.EventID, EventUsersPurged, "", event.ExecutedAt, payload)
}

var _ port.EventPublisher = (*EventPublisher)(nil)
