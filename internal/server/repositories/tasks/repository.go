// Package tasks stores tasks. Every lookup, update and delete is scoped to
// the owning user so that foreign tasks are indistinguishable from missing
// ones.
package tasks

import (
	"context"

	"github.com/sidhlee/task-manager-api/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, task *models.Task) (*models.Task, error)
	GetByIDAndOwner(ctx context.Context, id, owner string) (*models.Task, error)

	// Update writes description and completed for the task id owned by owner.
	Update(ctx context.Context, task *models.Task) (*models.Task, error)
	DeleteByIDAndOwner(ctx context.Context, id, owner string) (*models.Task, error)
	DeleteByOwner(ctx context.Context, owner string) (int64, error)

	// ListByOwner applies the completed filter, then sort, skip and limit.
	ListByOwner(ctx context.Context, owner string, filter models.TaskFilter) ([]*models.Task, error)
}
