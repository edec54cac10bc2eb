// Package memory keeps users, tokens and tasks in process memory. It
// implements the same repository contracts as the PostgreSQL backend and is
// used for local development and service tests.
package memory

import (
	"errors"
	"sync"
	"time"

	"github.com/sidhlee/task-manager-api/internal/server/models"
)

// ErrOwnerMissing mirrors the tasks.owner foreign key.
var ErrOwnerMissing = errors.New("task owner does not exist")

// ErrUserHasTasks mirrors the restrictive foreign key from tasks to users.
var ErrUserHasTasks = errors.New("user still owns tasks")

// Store is the shared state behind the memory repositories.
type Store struct {
	// txMu is held exclusively by a running transaction and shared by every
	// operation outside one, so the two never interleave.
	txMu sync.RWMutex

	mu     sync.RWMutex
	users  map[string]*models.User
	tokens map[string][]string
	tasks  []*models.Task // insertion order
	last   time.Time
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{
		users:  make(map[string]*models.User),
		tokens: make(map[string][]string),
	}
}

// snapshot is a deep copy of a Store's state.
type snapshot struct {
	users  map[string]*models.User
	tokens map[string][]string
	tasks  []*models.Task
}

func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := snapshot{
		users:  make(map[string]*models.User, len(s.users)),
		tokens: make(map[string][]string, len(s.tokens)),
		tasks:  make([]*models.Task, 0, len(s.tasks)),
	}
	for k, u := range s.users {
		snap.users[k] = u.Clone()
	}
	for k, list := range s.tokens {
		snap.tokens[k] = append([]string(nil), list...)
	}
	for _, t := range s.tasks {
		c := *t
		snap.tasks = append(snap.tasks, &c)
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = snap.users
	s.tokens = snap.tokens
	s.tasks = snap.tasks
}

// RunTx runs fn as one transaction. Repositories built with the Tx
// constructors take part in it; all other operations wait until it ends.
// The state is restored when fn fails or panics.
func (s *Store) RunTx(fn func() error) (err error) {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	defer func() {
		if p := recover(); p != nil {
			s.restore(snap)
			panic(p)
		}
		if err != nil {
			s.restore(snap)
		}
	}()

	return fn()
}

// enter waits out a running transaction unless the caller belongs to it.
// The returned func releases the hold.
func (s *Store) enter(inTx bool) func() {
	if inTx {
		return func() {}
	}
	s.txMu.RLock()
	return s.txMu.RUnlock
}

// nowLocked returns a strictly increasing UTC timestamp so creation order is
// also timestamp order.
func (s *Store) nowLocked() time.Time {
	now := time.Now().UTC()
	if !now.After(s.last) {
		now = s.last.Add(time.Microsecond)
	}
	s.last = now
	return now
}
