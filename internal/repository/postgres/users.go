package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/yusay1498/vibe-coding-practice-api/internal/core/domain"
	"github.com/yusay1498/vibe-coding-practice-api/internal/core/port"
	"github.com/yusay1498/vibe-coding-practice-api/internal/infra/database"
	"github.com/yusay1498/vibe-coding-practice-api/internal/repository"
)

const usersTable = "accounts.users"

var userColumns = []string{
	"id",
	"username",
	"email",
	"password_hash",
	"enabled",
	"account_non_expired",
	"account_non_locked",
	"credentials_non_expired",
	"created_at",
	"updated_at",
}

// created_at keeps its inserted value on conflict.
var upsertSuffix = "ON CONFLICT (id) DO UPDATE SET " +
	"username = EXCLUDED.username, " +
	"email = EXCLUDED.email, " +
	"password_hash = EXCLUDED.password_hash, " +
	"enabled = EXCLUDED.enabled, " +
	"account_non_expired = EXCLUDED.account_non_expired, " +
	"account_non_locked = EXCLUDED.account_non_locked, " +
	"credentials_non_expired = EXCLUDED.credentials_non_expired, " +
	"updated_at = EXCLUDED.updated_at " +
	"RETURNING " + strings.Join(userColumns, ", ")

// UserStore implements port.UserStore using PostgreSQL. Statements run on the transaction
// bound to the context when there is one.
type UserStore struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewUserStore constructs a store backed by any executor that satisfies pgExecutor.
func NewUserStore(exec pgExecutor) *UserStore {
	return &UserStore{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// FindByID retrieves a user by identifier. Inside a transaction the row is locked
// until commit so concurrent updates of the same user serialize.
func (s *UserStore) FindByID(ctx context.Context, id string) (*domain.User, error) {
	if !isUUID(id) {
		return nil, repository.ErrNotFound
	}
	query := s.selectUsers().Where(squirrel.Eq{"id": id})
	if _, ok := database.TxFromContext(ctx); ok {
		query = query.Suffix("FOR UPDATE")
	}
	return s.queryOne(ctx, query, "user by id")
}

// FindByUsername retrieves a user by exact username.
func (s *UserStore) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.queryOne(ctx, s.selectUsers().Where(squirrel.Eq{"username": username}), "user by username")
}

// FindByEmail retrieves a user by exact email.
func (s *UserStore) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.queryOne(ctx, s.selectUsers().Where(squirrel.Eq{"email": email}), "user by email")
}

// FindAll returns every user ordered by creation time.
func (s *UserStore) FindAll(ctx context.Context) ([]domain.User, error) {
	stmt, args, err := s.selectUsers().OrderBy("created_at ASC", "id ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list users sql: %w", err)
	}

	rows, err := executorFor(ctx, s.exec).Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	users := make([]domain.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	return users, nil
}

// Save upserts the user and returns the stored row. An empty ID gets a fresh UUID.
func (s *UserStore) Save(ctx context.Context, user domain.User) (*domain.User, error) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}

	stmt, args, err := s.builder.Insert(usersTable).
		Columns(userColumns...).
		Values(
			user.ID,
			user.Username,
			user.Email,
			user.PasswordHash,
			user.Enabled,
			user.AccountNonExpired,
			user.AccountNonLocked,
			user.CredentialsNonExpired,
			user.CreatedAt,
			user.UpdatedAt,
		).
		Suffix(upsertSuffix).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build upsert user sql: %w", err)
	}

	var saved *domain.User
	err = withSavepoint(ctx, s.exec, func(exec pgExecutor) error {
		var scanErr error
		saved, scanErr = scanUser(exec.QueryRow(ctx, stmt, args...))
		return scanErr
	})
	if err != nil {
		err = translateWriteError(err)
		var violation *repository.ConstraintViolationError
		if errors.As(err, &violation) {
			return nil, violation
		}
		return nil, fmt.Errorf("upsert user: %w", err)
	}

	return saved, nil
}

// DeleteByID removes a user and reports how many rows were affected.
func (s *UserStore) DeleteByID(ctx context.Context, id string) (int64, error) {
	if !isUUID(id) {
		return 0, nil
	}
	stmt, args, err := s.builder.Delete(usersTable).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete user sql: %w", err)
	}

	ct, err := executorFor(ctx, s.exec).Exec(ctx, stmt, args...)
	if err != nil {
		return 0, fmt.Errorf("delete user: %w", err)
	}

	return ct.RowsAffected(), nil
}

// DeleteAll removes every user and reports how many rows were affected.
func (s *UserStore) DeleteAll(ctx context.Context) (int64, error) {
	stmt, args, err := s.builder.Delete(usersTable).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete users sql: %w", err)
	}

	ct, err := executorFor(ctx, s.exec).Exec(ctx, stmt, args...)
	if err != nil {
		return 0, fmt.Errorf("delete users: %w", err)
	}

	return ct.RowsAffected(), nil
}

func (s *UserStore) selectUsers() squirrel.SelectBuilder {
	return s.builder.Select(userColumns...).From(usersTable)
}

func (s *UserStore) queryOne(ctx context.Context, query squirrel.SelectBuilder, what string) (*domain.User, error) {
	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select %s sql: %w", what, err)
	}

	user, err := scanUser(executorFor(ctx, s.exec).QueryRow(ctx, stmt, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan %s: %w", what, err)
	}

	return user, nil
}

// isUUID guards lookups on the uuid id column; a malformed id cannot match a row
// and would otherwise abort the enclosing transaction with 22P02.
func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.Enabled,
		&user.AccountNonExpired,
		&user.AccountNonLocked,
		&user.CredentialsNonExpired,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}

var _ port.UserStore = (*UserStore)(nil)
