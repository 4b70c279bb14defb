package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go-user-directory/internal/model"
)

// MemoryUserRepository keeps users in process memory. It enforces the same
// case-insensitive uniqueness on username and email as the postgres schema.
type MemoryUserRepository struct {
	mu     sync.RWMutex
	nextID int64
	users  map[int64]model.User
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: map[int64]model.User{}}
}

func (r *MemoryUserRepository) FindByEmail(ctx context.Context, email string) (model.User, error) {
	if err := ctx.Err(); err != nil {
		return model.User{}, err
	}

	key := model.NormalizeEmail(email)

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if model.NormalizeEmail(u.Email) == key {
			return u, nil
		}
	}
	return model.User{}, model.ErrUserNotFound
}

func (r *MemoryUserRepository) FindByID(ctx context.Context, id int64) (model.User, error) {
	if err := ctx.Err(); err != nil {
		return model.User{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	u, exists := r.users[id]
	if !exists {
		return model.User{}, model.ErrUserNotFound
	}
	return u, nil
}

func (r *MemoryUserRepository) List(ctx context.Context) ([]model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	users := make([]model.User, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, u)
	}
	r.mu.RUnlock()

	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (r *MemoryUserRepository) Insert(ctx context.Context, u model.User) (model.User, error) {
	if err := ctx.Err(); err != nil {
		return model.User{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conflictsLocked(u, 0) {
		return model.User{}, model.ErrUserAlreadyExists
	}

	now := time.Now().UTC()
	r.nextID++
	u.ID = r.nextID
	u.Email = model.NormalizeEmail(u.Email)
	u.CreatedAt = now
	u.UpdatedAt = now
	r.users[u.ID] = u

	return u, nil
}

func (r *MemoryUserRepository) Update(ctx context.Context, u model.User) (model.User, error) {
	if err := ctx.Err(); err != nil {
		return model.User{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current, exists := r.users[u.ID]
	if !exists {
		return model.User{}, model.ErrUserNotFound
	}
	if r.conflictsLocked(u, u.ID) {
		return model.User{}, model.ErrUserAlreadyExists
	}

	current.Username = u.Username
	current.Email = model.NormalizeEmail(u.Email)
	current.Name = u.Name
	current.Lastname = u.Lastname
	current.UpdatedAt = time.Now().UTC()
	r.users[current.ID] = current

	return current, nil
}

func (r *MemoryUserRepository) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.users[id]; !exists {
		return model.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

// Ping satisfies the health check contract; memory is always reachable.
func (r *MemoryUserRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (r *MemoryUserRepository) conflictsLocked(candidate model.User, skipID int64) bool {
	username := strings.ToLower(strings.TrimSpace(candidate.Username))
	email := model.NormalizeEmail(candidate.Email)

	for id, existing := range r.users {
		if id == skipID {
			continue
		}
		if strings.ToLower(existing.Username) == username || model.NormalizeEmail(existing.Email) == email {
			return true
		}
	}
	return false
}
