package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sidhlee/task-manager-api/internal/common"
	"github.com/sidhlee/task-manager-api/internal/server/models"
	"github.com/sidhlee/task-manager-api/internal/server/repositories/repomanager"
)

// TaskInput is the creation payload. The owner is never taken from input.
type TaskInput struct {
	Description string `json:"description" validate:"required"`
	Completed   bool   `json:"completed"`
}

var allowedTaskUpdates = []string{"description", "completed"}

// TaskService performs task operations on behalf of an owner. Tasks of other
// users are reported as common.ErrorNotFound.
type TaskService struct {
	repomanager repomanager.RepositoryManager
}

func NewTaskService(m repomanager.RepositoryManager) *TaskService {
	return &TaskService{repomanager: m}
}

func (s *TaskService) Create(ctx context.Context, owner string, in TaskInput) (*models.Task, error) {
	in.Description = strings.TrimSpace(in.Description)
	if err := validateStruct(&in); err != nil {
		return nil, err
	}

	task, err := s.repomanager.Tasks(s.repomanager.Conn()).Create(ctx, &models.Task{
		Description: in.Description,
		Completed:   in.Completed,
		Owner:       owner,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating task: %w", err)
	}
	return task, nil
}

func (s *TaskService) Get(ctx context.Context, owner, id string) (*models.Task, error) {
	if !validID(id) {
		return nil, common.ErrorNotFound
	}
	return s.repomanager.Tasks(s.repomanager.Conn()).GetByIDAndOwner(ctx, id, owner)
}

// List returns owner's tasks narrowed by filter, see ParseTaskQuery.
func (s *TaskService) List(ctx context.Context, owner string, filter models.TaskFilter) ([]*models.Task, error) {
	return s.repomanager.Tasks(s.repomanager.Conn()).ListByOwner(ctx, owner, filter)
}

// Update applies a partial update limited to description and completed.
// Disallowed keys are rejected before the task is looked up.
func (s *TaskService) Update(ctx context.Context, owner, id string, patch map[string]json.RawMessage) (*models.Task, error) {
	if err := checkAllowedUpdates(patch, allowedTaskUpdates...); err != nil {
		return nil, err
	}
	if !validID(id) {
		return nil, common.ErrorNotFound
	}

	repo := s.repomanager.Tasks(s.repomanager.Conn())
	task, err := repo.GetByIDAndOwner(ctx, id, owner)
	if err != nil {
		return nil, err
	}

	in := TaskInput{Description: task.Description, Completed: task.Completed}
	if _, err := decodePatch(patch, "description", &in.Description); err != nil {
		return nil, err
	}
	if _, err := decodePatch(patch, "completed", &in.Completed); err != nil {
		return nil, err
	}
	in.Description = strings.TrimSpace(in.Description)
	if err := validateStruct(&in); err != nil {
		return nil, err
	}

	task.Description = in.Description
	task.Completed = in.Completed
	return repo.Update(ctx, task)
}

func (s *TaskService) Delete(ctx context.Context, owner, id string) (*models.Task, error) {
	if !validID(id) {
		return nil, common.ErrorNotFound
	}
	return s.repomanager.Tasks(s.repomanager.Conn()).DeleteByIDAndOwner(ctx, id, owner)
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
