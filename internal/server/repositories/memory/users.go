package memory

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/sidhlee/task-manager-api/internal/common"
	"github.com/sidhlee/task-manager-api/internal/server/models"
)

// UsersRepository implements users.Repository on a Store.
type UsersRepository struct {
	s    *Store
	inTx bool
}

func NewUsersRepository(s *Store) *UsersRepository {
	return &UsersRepository{s: s}
}

// NewUsersRepositoryTx returns a repository for use inside Store.RunTx.
func NewUsersRepositoryTx(s *Store) *UsersRepository {
	return &UsersRepository{s: s, inTx: true}
}

func (r *UsersRepository) Create(_ context.Context, user *models.User) (*models.User, error) {
	defer r.s.enter(r.inTx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.emailTakenLocked(user.Email, "") {
		return nil, common.ErrorAlreadyExists
	}

	now := r.s.nowLocked()
	user.ID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now

	stored := user.Clone()
	stored.Avatar = nil
	r.s.users[user.ID] = stored
	return user, nil
}

func (r *UsersRepository) GetByID(_ context.Context, id string) (*models.User, error) {
	defer r.s.enter(r.inTx)()
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.getLocked(id)
}

func (r *UsersRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	defer r.s.enter(r.inTx)()
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			return withoutAvatar(u), nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *UsersRepository) GetByIDAndToken(_ context.Context, id, token string) (*models.User, error) {
	defer r.s.enter(r.inTx)()
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, err := r.getLocked(id)
	if err != nil {
		return nil, err
	}
	for _, t := range r.s.tokens[id] {
		if t == token {
			return u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *UsersRepository) Update(_ context.Context, user *models.User) (*models.User, error) {
	defer r.s.enter(r.inTx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.users[user.ID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if r.emailTakenLocked(user.Email, user.ID) {
		return nil, common.ErrorAlreadyExists
	}

	stored.Email = user.Email
	stored.Name = user.Name
	stored.Age = user.Age
	stored.PasswordHash = user.PasswordHash
	stored.UpdatedAt = r.s.nowLocked()

	user.UpdatedAt = stored.UpdatedAt
	return user, nil
}

func (r *UsersRepository) Delete(_ context.Context, id string) error {
	defer r.s.enter(r.inTx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[id]; !ok {
		return common.ErrorNotFound
	}
	for _, t := range r.s.tasks {
		if t.Owner == id {
			return ErrUserHasTasks
		}
	}
	delete(r.s.users, id)
	delete(r.s.tokens, id)
	return nil
}

func (r *UsersRepository) SetAvatar(_ context.Context, id string, avatar []byte) error {
	defer r.s.enter(r.inTx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	if avatar == nil {
		stored.Avatar = nil
	} else {
		stored.Avatar = append([]byte(nil), avatar...)
	}
	stored.UpdatedAt = r.s.nowLocked()
	return nil
}

func (r *UsersRepository) GetAvatar(_ context.Context, id string) ([]byte, error) {
	defer r.s.enter(r.inTx)()
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	stored, ok := r.s.users[id]
	if !ok || len(stored.Avatar) == 0 {
		return nil, common.ErrorNotFound
	}
	return append([]byte(nil), stored.Avatar...), nil
}

func (r *UsersRepository) getLocked(id string) (*models.User, error) {
	u, ok := r.s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return withoutAvatar(u), nil
}

func (r *UsersRepository) emailTakenLocked(email, exceptID string) bool {
	for id, u := range r.s.users {
		if id != exceptID && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

func withoutAvatar(u *models.User) *models.User {
	c := *u
	c.Avatar = nil
	return &c
}
