package domain

import "time"

// UserCreatedEvent represents the payload for users.user.created messages.
type UserCreatedEvent struct {
	EventID   string
	UserID    string
	Username  string
	Email     string
	CreatedAt time.Time
	Metadata  map[string]any
}

// UserUpdatedEvent represents the payload for users.user.updated messages.
// ChangedFields lists the patch fields that were set.
type UserUpdatedEvent struct {
	EventID       string
	UserID        string
	ChangedFields []string
	UpdatedAt     time.Time
	Metadata      map[string]any
}

// UserDeletedEvent represents the payload for users.user.deleted messages.
type UserDeletedEvent struct {
	EventID   string
	UserID    string
	DeletedAt time.Time
	Metadata  map[string]any
}

// UsersPurgedEvent represents the payload for users.purged messages.
type UsersPurgedEvent struct {
	EventID      string
	DeletedCount int
	ExecutedAt   time.Time
	Environment  string
	Metadata     map[string]any
}
