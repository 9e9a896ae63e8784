package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/yusay1498/vibe-coding-practice-api/internal/core/domain"
	"github.com/yusay1498/vibe-coding-practice-api/internal/core/port"
	"github.com/yusay1498/vibe-coding-practice-api/internal/infra/logger"
	"github.com/yusay1498/vibe-coding-practice-api/internal/repository"
)

const tracerName = "github.com/yusay1498/vibe-coding-practice-api/internal/usecase"

// Operation labels reported to UserMutationMetrics.
const (
	OperationCreate    = "create"
	OperationUpdate    = "update"
	OperationDelete    = "delete"
	OperationDeleteAll = "delete_all"
)

// Duplicate detection paths reported to UserMutationMetrics.
const (
	DetectedByPrecheck       = "precheck"
	DetectedByReconciliation = "reconciliation"
)

var (
	// ErrInvalidDeletionCeiling indicates the configured ceiling is not a positive integer.
	ErrInvalidDeletionCeiling = errors.New("deletion ceiling must be positive")
	// ErrUserStoreRequired indicates the service was built without a store.
	ErrUserStoreRequired = errors.New("user store is required")
	// ErrTransactionScopeRequired indicates the service was built without a transaction scope.
	ErrTransactionScopeRequired = errors.New("transaction scope is required")
	// ErrClockRequired indicates the service was built without a clock.
	ErrClockRequired = errors.New("clock is required")
)

// UserServiceConfig carries the settings UserService reads at construction.
type UserServiceConfig struct {
	// Environment may list several comma-separated profiles.
	Environment     string
	DeletionCeiling int
}

// UserMutationMetrics captures telemetry hooks for mutation outcomes.
type UserMutationMetrics interface {
	ObserveMutation(operation, outcome string)
	ObserveDuplicate(field, detectedBy string)
}

// UserService performs user mutations. Every mutation runs inside one transaction and
// duplicate detection falls back to the store's uniqueness constraints.
type UserService struct {
	store   port.UserStore
	tx      port.TransactionScope
	clock   port.Clock
	events  port.EventPublisher
	env     domain.Environment
	ceiling int
	logger  *zap.Logger
	metrics UserMutationMetrics
	tracer  trace.Tracer
}

// NewUserService constructs UserService and validates its configuration.
func NewUserService(store port.UserStore, tx port.TransactionScope, clock port.Clock, cfg UserServiceConfig) (*UserService, error) {
	switch {
	case store == nil:
		return nil, ErrUserStoreRequired
	case tx == nil:
		return nil, ErrTransactionScopeRequired
	case clock == nil:
		return nil, ErrClockRequired
	case cfg.DeletionCeiling <= 0:
		return nil, fmt.Errorf("%w: got %d", ErrInvalidDeletionCeiling, cfg.DeletionCeiling)
	}

	return &UserService{
		store:   store,
		tx:      tx,
		clock:   clock,
		env:     domain.Environment(cfg.Environment),
		ceiling: cfg.DeletionCeiling,
		logger:  zap.NewNop(),
		tracer:  otel.Tracer(tracerName),
	}, nil
}

// WithLogger attaches a structured logger to the service.
func (s *UserService) WithLogger(logger *zap.Logger) *UserService {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithEventPublisher publishes lifecycle events after each committed mutation.
func (s *UserService) WithEventPublisher(events port.EventPublisher) *UserService {
	if events != nil {
		s.events = events
	}
	return s
}

// WithMetrics wires telemetry observers for mutation outcomes.
func (s *UserService) WithMetrics(metrics UserMutationMetrics) *UserService {
	if metrics != nil {
		s.metrics = metrics
	}
	return s
}

// uniqueField is a username or email value that must not belong to another user.
type uniqueField struct {
	name  string
	value string
}

// Create validates and stores a new user. Both flavours of duplicate, the one caught by the
// existence check and the one caught by the store constraint, surface as *domain.DuplicateError.
func (s *UserService) Create(ctx context.Context, username, email, passwordHash string) (_ *domain.User, err error) {
	ctx, span := s.tracer.Start(ctx, "UserService.Create")
	defer func() { s.finish(span, OperationCreate, err) }()

	candidate := domain.NewUserCandidate(username, email, passwordHash)
	if err := domain.ValidateCandidate(candidate); err != nil {
		return nil, err
	}

	// email is checked before username
	unique := []uniqueField{
		{name: domain.FieldEmail, value: email},
		{name: domain.FieldUsername, value: username},
	}

	created, err := port.ExecuteWithResult(ctx, s.tx, func(ctx context.Context) (*domain.User, error) {
		for _, field := range unique {
			if err := s.ensureAvailable(ctx, field, ""); err != nil {
				return nil, err
			}
		}

		saved, err := s.store.Save(ctx, candidate.Build(s.clock.Now()))
		if err != nil {
			return nil, s.reconcile(ctx, err, "", unique)
		}
		return saved, nil
	})
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.String("user.id", created.ID))
	s.publishCreated(ctx, *created)
	return created, nil
}

// Update applies a partial patch. Setting username or email to its current value never
// reports a duplicate.
func (s *UserService) Update(ctx context.Context, id string, patch domain.UserPatch) (_ *domain.User, err error) {
	ctx, span := s.tracer.Start(ctx, "UserService.Update", trace.WithAttributes(attribute.String("user.id", id)))
	defer func() { s.finish(span, OperationUpdate, err) }()

	if err := domain.ValidatePatch(patch); err != nil {
		return nil, err
	}

	updated, err := port.ExecuteWithResult(ctx, s.tx, func(ctx context.Context) (*domain.User, error) {
		existing, err := s.store.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, &domain.NotFoundError{ID: id}
			}
			return nil, fmt.Errorf("lookup user: %w", err)
		}

		var changing []uniqueField
		if email, ok := patch.EmailChange(*existing); ok {
			changing = append(changing, uniqueField{name: domain.FieldEmail, value: email})
		}
		if username, ok := patch.UsernameChange(*existing); ok {
			changing = append(changing, uniqueField{name: domain.FieldUsername, value: username})
		}

		for _, field := range changing {
			if err := s.ensureAvailable(ctx, field, existing.ID); err != nil {
				return nil, err
			}
		}

		saved, err := s.store.Save(ctx, patch.Apply(*existing, s.clock.Now()))
		if err != nil {
			return nil, s.reconcile(ctx, err, existing.ID, changing)
		}
		return saved, nil
	})
	if err != nil {
		return nil, err
	}

	s.publishUpdated(ctx, *updated, patch.SetFields())
	return updated, nil
}

// Delete removes a single user.
func (s *UserService) Delete(ctx context.Context, id string) (err error) {
	ctx, span := s.tracer.Start(ctx, "UserService.Delete", trace.WithAttributes(attribute.String("user.id", id)))
	defer func() { s.finish(span, OperationDelete, err) }()

	err = s.tx.Execute(ctx, func(ctx context.Context) error {
		count, err := s.store.DeleteByID(ctx, id)
		if err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		switch {
		case count == 0:
			return &domain.NotFoundError{ID: id}
		case count > 1:
			s.logger.Error("delete by id removed more than one row",
				zap.String("user_id", id),
				zap.Int64("count", count),
			)
			return fmt.Errorf("%w: delete of %q affected %d rows", domain.ErrInvariantViolation, id, count)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.publishDeleted(ctx, id)
	return nil
}

// DeleteAll removes every user after passing the environment and ceiling gates. The ceiling
// is checked again against the number of rows actually removed; a breach rolls the
// deletion back.
func (s *UserService) DeleteAll(ctx context.Context) (_ domain.DeleteAllResult, err error) {
	ctx, span := s.tracer.Start(ctx, "UserService.DeleteAll", trace.WithAttributes(
		attribute.String("environment", s.env.String()),
		attribute.Int("deletion.ceiling", s.ceiling),
	))
	defer func() { s.finish(span, OperationDeleteAll, err) }()

	log := s.logger.With(zap.String("environment", s.env.String()), zap.Int("ceiling", s.ceiling))

	result, err := port.ExecuteWithResult(ctx, s.tx, func(ctx context.Context) (domain.DeleteAllResult, error) {
		if s.env.IsProduction() {
			log.Error("delete all refused in production environment")
			return domain.DeleteAllResult{}, &domain.DeletionForbiddenError{Reason: domain.DeletionReasonEnvironment}
		}

		users, err := s.store.FindAll(ctx)
		if err != nil {
			return domain.DeleteAllResult{}, fmt.Errorf("list users: %w", err)
		}
		if err := domain.ValidateDeletionCardinality(len(users), s.ceiling); err != nil {
			log.Warn("delete all refused before execution", zap.Int("count", len(users)))
			return domain.DeleteAllResult{}, &domain.DeletionForbiddenError{Reason: domain.DeletionReasonCeilingPre, Cause: err}
		}

		log.Warn("deleting all users", zap.Int("expected_count", len(users)))

		deleted, err := s.store.DeleteAll(ctx)
		if err != nil {
			return domain.DeleteAllResult{}, fmt.Errorf("delete users: %w", err)
		}
		executedAt := s.clock.Now()

		if err := domain.ValidateDeletionCardinality(int(deleted), s.ceiling); err != nil {
			log.Error("delete all removed more rows than allowed, rolling back",
				zap.Int("expected_count", len(users)),
				zap.Int64("deleted_count", deleted),
			)
			return domain.DeleteAllResult{}, &domain.DeletionForbiddenError{Reason: domain.DeletionReasonCeilingPost, Cause: err}
		}

		return domain.DeleteAllResult{
			DeletedCount: int(deleted),
			ExecutedAt:   executedAt,
			Environment:  s.env.String(),
		}, nil
	})
	if err != nil {
		return domain.DeleteAllResult{}, err
	}

	log.Warn("deleted all users", zap.Int("deleted_count", result.DeletedCount), zap.Time("executed_at", result.ExecutedAt))
	span.SetAttributes(attribute.Int("deleted.count", result.DeletedCount))
	s.publishPurged(ctx, result)
	return result, nil
}

// Lookup returns a single user. Reads go straight to the store.
func (s *UserService) Lookup(ctx context.Context, id string) (*domain.User, error) {
	ctx, span := s.tracer.Start(ctx, "UserService.Lookup", trace.WithAttributes(attribute.String("user.id", id)))
	defer span.End()

	user, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &domain.NotFoundError{ID: id}
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "lookup failed")
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	return user, nil
}

// List returns every user ordered by creation time.
func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	ctx, span := s.tracer.Start(ctx, "UserService.List")
	defer span.End()

	users, err := s.store.FindAll(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list failed")
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// ensureAvailable fails with a duplicate error when the value belongs to a user other than selfID.
func (s *UserService) ensureAvailable(ctx context.Context, field uniqueField, selfID string) error {
	owner, err := s.findByField(ctx, field)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("lookup user by %s: %w", field.name, err)
	}
	if owner.ID == selfID {
		return nil
	}
	s.observeDuplicate(field.name, DetectedByPrecheck)
	return &domain.DuplicateError{Field: field.name}
}

// reconcile explains a failed save. A constraint violation becomes a duplicate error only when
// a colliding user is actually found; otherwise saveErr is returned unchanged.
func (s *UserService) reconcile(ctx context.Context, saveErr error, selfID string, fields []uniqueField) error {
	var violation *repository.ConstraintViolationError
	if !errors.As(saveErr, &violation) {
		return fmt.Errorf("save user: %w", saveErr)
	}

	for _, field := range fields {
		owner, err := s.findByField(ctx, field)
		if err != nil {
			if !errors.Is(err, repository.ErrNotFound) {
				s.logger.Warn("duplicate reconciliation lookup failed",
					zap.String("field", field.name),
					zap.Error(err),
				)
			}
			continue
		}
		if owner.ID != selfID {
			s.observeDuplicate(field.name, DetectedByReconciliation)
			return &domain.DuplicateError{Field: field.name}
		}
	}

	s.logger.Warn("constraint violation not explained by a unique field",
		zap.String("constraint", violation.Constraint),
	)
	return saveErr
}

func (s *UserService) findByField(ctx context.Context, field uniqueField) (*domain.User, error) {
	if field.name == domain.FieldEmail {
		return s.store.FindByEmail(ctx, field.value)
	}
	return s.store.FindByUsername(ctx, field.value)
}

func (s *UserService) finish(span trace.Span, operation string, err error) {
	outcome := MutationOutcome(err)
	if err != nil && outcome == OutcomeError {
		span.RecordError(err)
		span.SetStatus(codes.Error, operation+" failed")
	}
	span.SetAttributes(attribute.String("mutation.outcome", outcome))
	span.End()

	if s.metrics != nil {
		s.metrics.ObserveMutation(operation, outcome)
	}
}

func (s *UserService) observeDuplicate(field, detectedBy string) {
	if s.metrics != nil {
		s.metrics.ObserveDuplicate(field, detectedBy)
	}
}

func (s *UserService) publishCreated(ctx context.Context, user domain.User) {
	if s.events == nil {
		return
	}
	event := domain.UserCreatedEvent{
		EventID:   uuid.NewString(),
		UserID:    user.ID,
		Username:  user.Username,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}
	if err := s.events.PublishUserCreated(ctx, event); err != nil {
		s.logger.Warn("publish user created failed",
			zap.String("user_id", user.ID),
			zap.String("email", logger.MaskEmail(user.Email)),
			zap.Error(err),
		)
	}
}

func (s *UserService) publishUpdated(ctx context.Context, user domain.User, fields []string) {
	if s.events == nil {
		return
	}
	event := domain.UserUpdatedEvent{
		EventID:       uuid.NewString(),
		UserID:        user.ID,
		ChangedFields: fields,
		UpdatedAt:     user.UpdatedAt,
	}
	if err := s.events.PublishUserUpdated(ctx, event); err != nil {
		s.logger.Warn("publish user updated failed", zap.String("user_id", user.ID), zap.Error(err))
	}
}

func (s *UserService) publishDeleted(ctx context.Context, id string) {
	if s.events == nil {
		return
	}
	event := domain.UserDeletedEvent{
		EventID:   uuid.NewString(),
		UserID:    id,
		DeletedAt: s.clock.Now(),
	}
	if err := s.events.PublishUserDeleted(ctx, event); err != nil {
		s.logger.Warn("publish user deleted failed", zap.String("user_id", id), zap.Error(err))
	}
}

func (s *UserService) publishPurged(ctx context.Context, result domain.DeleteAllResult) {
	if s.events == nil {
		return
	}
	event := domain.UsersPurgedEvent{
		EventID:      uuid.NewString(),
		DeletedCount: result.DeletedCount,
		ExecutedAt:   result.ExecutedAt,
		Environment:  result.Environment,
	}
	if err := s.events.PublishUsersPurged(ctx, event); err != nil {
		s.logger.Warn("publish users purged failed", zap.Int("deleted_count", result.DeletedCount), zap.Error(err))
	}
}
