package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/yusay1498/vibe-coding-practice-api/internal/core/domain"
	"github.com/yusay1498/vibe-coding-practice-api/internal/repository"
)

// memStore is an in-memory port.UserStore that enforces username and email uniqueness
// and records undo steps for the memScope transaction bound to the context.
type memStore struct {
	mu    sync.Mutex
	users map[string]domain.User
	seq   int
	calls map[string]int

	beforeSave       func(ctx context.Context)
	saveErr          error
	findErr          error
	deleteAllReport  func(actual int64) int64
	deleteByIDReport func(actual int64) int64
}

func newMemStore() *memStore {
	return &memStore{
		users: make(map[string]domain.User),
		calls: make(map[string]int),
	}
}

// seed inserts a committed row outside of any transaction.
func (s *memStore) seed(user domain.User) domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user.ID == "" {
		s.seq++
		user.ID = fmt.Sprintf("seed-%d", s.seq)
	}
	s.users[user.ID] = user
	return user
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

func (s *memStore) callCount(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[name]
}

func (s *memStore) get(id string) (domain.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	return user, ok
}

func (s *memStore) recordUndo(ctx context.Context, undo func()) {
	if tx, ok := ctx.Value(memTxKey{}).(*memTx); ok {
		tx.undo = append(tx.undo, undo)
	}
}

func (s *memStore) FindByID(_ context.Context, id string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["FindByID"]++
	if s.findErr != nil {
		return nil, s.findErr
	}
	user, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &user, nil
}

func (s *memStore) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	return s.findBy("FindByUsername", func(u domain.User) bool { return u.Username == username })
}

func (s *memStore) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	return s.findBy("FindByEmail", func(u domain.User) bool { return u.Email == email })
}

func (s *memStore) findBy(name string, match func(domain.User) bool) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[name]++
	if s.findErr != nil {
		return nil, s.findErr
	}
	for _, user := range s.users {
		if match(user) {
			found := user
			return &found, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *memStore) FindAll(context.Context) ([]domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["FindAll"]++
	users := make([]domain.User, 0, len(s.users))
	for _, user := range s.users {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].ID < users[j].ID
		}
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	return users, nil
}

func (s *memStore) Save(ctx context.Context, user domain.User) (*domain.User, error) {
	if s.beforeSave != nil {
		s.beforeSave(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["Save"]++
	if s.saveErr != nil {
		return nil, s.saveErr
	}

	for id, other := range s.users {
		if id == user.ID {
			continue
		}
		if other.Email == user.Email {
			return nil, &repository.ConstraintViolationError{Constraint: "users_email_key", Err: errors.New("duplicate key value")}
		}
		if other.Username == user.Username {
			return nil, &repository.ConstraintViolationError{Constraint: "users_username_key", Err: errors.New("duplicate key value")}
		}
	}

	if user.ID == "" {
		s.seq++
		user.ID = fmt.Sprintf("user-%d", s.seq)
	}
	previous, existed := s.users[user.ID]
	if existed {
		user.CreatedAt = previous.CreatedAt
	}
	s.users[user.ID] = user

	id := user.ID
	s.recordUndo(ctx, func() {
		if existed {
			s.users[id] = previous
			return
		}
		delete(s.users, id)
	})

	saved := user
	return &saved, nil
}

func (s *memStore) DeleteByID(ctx context.Context, id string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["DeleteByID"]++

	var affected int64
	if previous, ok := s.users[id]; ok {
		delete(s.users, id)
		affected = 1
		s.recordUndo(ctx, func() { s.users[id] = previous })
	}
	if s.deleteByIDReport != nil {
		return s.deleteByIDReport(affected), nil
	}
	return affected, nil
}

func (s *memStore) DeleteAll(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["DeleteAll"]++

	removed := s.users
	s.users = make(map[string]domain.User)
	s.recordUndo(ctx, func() {
		for id, user := range removed {
			s.users[id] = user
		}
	})

	actual := int64(len(removed))
	if s.deleteAllReport != nil {
		return s.deleteAllReport(actual), nil
	}
	return actual, nil
}

type memTxKey struct{}

type memTx struct {
	undo []func()
}

// memScope is a port.TransactionScope over memStore. Rolling back replays the undo log in
// reverse; concurrent transactions are not isolated from each other.
type memScope struct {
	store *memStore

	mu        sync.Mutex
	commits   int
	rollbacks int
}

func (m *memScope) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(memTxKey{}).(*memTx); ok {
		return fn(ctx)
	}

	tx := &memTx{}
	if err := fn(context.WithValue(ctx, memTxKey{}, tx)); err != nil {
		m.store.mu.Lock()
		for i := len(tx.undo) - 1; i >= 0; i-- {
			tx.undo[i]()
		}
		m.store.mu.Unlock()

		m.mu.Lock()
		m.rollbacks++
		m.mu.Unlock()
		return err
	}

	m.mu.Lock()
	m.commits++
	m.mu.Unlock()
	return nil
}

func (m *memScope) counts() (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.commits, m.rollbacks
}

type mutationMetricsStub struct {
	mu         sync.Mutex
	mutations  []string
	duplicates []string
}

func (m *mutationMetricsStub) ObserveMutation(operation, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mutations = append(m.mutations, operation+":"+outcome)
}

func (m *mutationMetricsStub) ObserveDuplicate(field, detectedBy string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.duplicates = append(m.duplicates, field+":"+detectedBy)
}

type eventPublisherStub struct {
	mu      sync.Mutex
	err     error
	created []domain.UserCreatedEvent
	updated []domain.UserUpdatedEvent
	deleted []domain.UserDeletedEvent
	purged  []domain.UsersPurgedEvent
}

func (p *eventPublisherStub) PublishUserCreated(_ context.Context, event domain.UserCreatedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.created = append(p.created, event)
	return p.err
}

func (p *eventPublisherStub) PublishUserUpdated(_ context.Context, event domain.UserUpdatedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.updated = append(p.updated, event)
	return p.err
}

func (p *eventPublisherStub) PublishUserDeleted(_ context.Context, event domain.UserDeletedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deleted = append(p.deleted, event)
	return p.err
}

func (p *eventPublisherStub) PublishUsersPurged(_ context.Context, event domain.UsersPurgedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.purged = append(p.purged, event)
	return p.err
}
