package models

import "time"

// Task belongs to exactly one user. Owner is set at creation and never
// changes.
type Task struct {
	ID          string    `json:"_id"`
	Description string    `json:"description"`
	Completed   bool      `json:"completed"`
	Owner       string    `json:"owner"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TaskSortField names a sortable task attribute.
type TaskSortField string

const (
	TaskSortByID          TaskSortField = "id"
	TaskSortByDescription TaskSortField = "description"
	TaskSortByCompleted   TaskSortField = "completed"
	TaskSortByCreatedAt   TaskSortField = "created_at"
	TaskSortByUpdatedAt   TaskSortField = "updated_at"
)

// TaskSort orders a task listing.
type TaskSort struct {
	Field      TaskSortField
	Descending bool
}

// TaskFilter narrows an owner's task listing. Nil fields are not applied;
// without Sort the order is unspecified.
type TaskFilter struct {
	Completed *bool
	Sort      *TaskSort
	Skip      *int64
	Limit     *int64
}
