package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/sidhlee/task-manager-api/internal/common"
	"github.com/sidhlee/task-manager-api/internal/server/models"
)

// TasksRepository implements tasks.Repository on a Store. Listings without a
// sort come back in insertion order.
type TasksRepository struct {
	s    *Store
	inTx bool
}

func NewTasksRepository(s *Store) *TasksRepository {
	return &TasksRepository{s: s}
}

// NewTasksRepositoryTx returns a repository for use inside Store.RunTx.
func NewTasksRepositoryTx(s *Store) *TasksRepository {
	return &TasksRepository{s: s, inTx: true}
}

func (r *TasksRepository) Create(_ context.Context, task *models.Task) (*models.Task, error) {
	defer r.s.enter(r.inTx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[task.Owner]; !ok {
		return nil, ErrOwnerMissing
	}

	now := r.s.nowLocked()
	task.ID = uuid.NewString()
	task.CreatedAt = now
	task.UpdatedAt = now

	c := *task
	r.s.tasks = append(r.s.tasks, &c)
	return task, nil
}

func (r *TasksRepository) GetByIDAndOwner(_ context.Context, id, owner string) (*models.Task, error) {
	defer r.s.enter(r.inTx)()
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	i := r.indexLocked(id, owner)
	if i < 0 {
		return nil, common.ErrorNotFound
	}
	c := *r.s.tasks[i]
	return &c, nil
}

func (r *TasksRepository) Update(_ context.Context, task *models.Task) (*models.Task, error) {
	defer r.s.enter(r.inTx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	i := r.indexLocked(task.ID, task.Owner)
	if i < 0 {
		return nil, common.ErrorNotFound
	}
	stored := r.s.tasks[i]
	stored.Description = task.Description
	stored.Completed = task.Completed
	stored.UpdatedAt = r.s.nowLocked()

	c := *stored
	return &c, nil
}

func (r *TasksRepository) DeleteByIDAndOwner(_ context.Context, id, owner string) (*models.Task, error) {
	defer r.s.enter(r.inTx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	i := r.indexLocked(id, owner)
	if i < 0 {
		return nil, common.ErrorNotFound
	}
	removed := r.s.tasks[i]
	r.s.tasks = append(r.s.tasks[:i:i], r.s.tasks[i+1:]...)
	return removed, nil
}

func (r *TasksRepository) DeleteByOwner(_ context.Context, owner string) (int64, error) {
	defer r.s.enter(r.inTx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	kept := make([]*models.Task, 0, len(r.s.tasks))
	var n int64
	for _, t := range r.s.tasks {
		if t.Owner == owner {
			n++
			continue
		}
		kept = append(kept, t)
	}
	r.s.tasks = kept
	return n, nil
}

func (r *TasksRepository) ListByOwner(_ context.Context, owner string, filter models.TaskFilter) ([]*models.Task, error) {
	defer r.s.enter(r.inTx)()
	r.s.mu.RLock()
	out := make([]*models.Task, 0)
	for _, t := range r.s.tasks {
		if t.Owner != owner {
			continue
		}
		if filter.Completed != nil && t.Completed != *filter.Completed {
			continue
		}
		c := *t
		out = append(out, &c)
	}
	r.s.mu.RUnlock()

	if filter.Sort != nil {
		if less, ok := taskLess(filter.Sort.Field); ok {
			desc := filter.Sort.Descending
			sort.SliceStable(out, func(i, j int) bool {
				if desc {
					return less(out[j], out[i])
				}
				return less(out[i], out[j])
			})
		}
	}

	if filter.Skip != nil && *filter.Skip > 0 {
		if *filter.Skip >= int64(len(out)) {
			return out[:0], nil
		}
		out = out[*filter.Skip:]
	}
	if filter.Limit != nil && *filter.Limit > 0 && *filter.Limit < int64(len(out)) {
		out = out[:*filter.Limit]
	}
	return out, nil
}

func (r *TasksRepository) indexLocked(id, owner string) int {
	for i, t := range r.s.tasks {
		if t.ID == id && t.Owner == owner {
			return i
		}
	}
	return -1
}

func taskLess(field models.TaskSortField) (func(a, b *models.Task) bool, bool) {
	switch field {
	case models.TaskSortByID:
		return func(a, b *models.Task) bool { return a.ID < b.ID }, true
	case models.TaskSortByDescription:
		return func(a, b *models.Task) bool { return strings.Compare(a.Description, b.Description) < 0 }, true
	case models.TaskSortByCompleted:
		return func(a, b *models.Task) bool { return !a.Completed && b.Completed }, true
	case models.TaskSortByCreatedAt:
		return func(a, b *models.Task) bool { return a.CreatedAt.Before(b.CreatedAt) }, true
	case models.TaskSortByUpdatedAt:
		return func(a, b *models.Task) bool { return a.UpdatedAt.Before(b.UpdatedAt) }, true
	}
	return nil, false
}
