package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/sidhlee/task-manager-api/internal/common"
	"github.com/sidhlee/task-manager-api/internal/dbx"
	"github.com/sidhlee/task-manager-api/internal/server/models"
)

const taskColumns = "id, description, completed, owner, created_at, updated_at"

// sortColumns maps sortable fields onto trusted column names; nothing from
// the request reaches the ORDER BY clause directly.
var sortColumns = map[models.TaskSortField]string{
	models.TaskSortByID:          "id",
	models.TaskSortByDescription: "description",
	models.TaskSortByCompleted:   "completed",
	models.TaskSortByCreatedAt:   "created_at",
	models.TaskSortByUpdatedAt:   "updated_at",
}

// PostgresRepository implements Repository over dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, task *models.Task) (*models.Task, error) {
	query := `
		INSERT INTO tasks (description, completed, owner)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query, task.Description, task.Completed, task.Owner).
		Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return task, nil
}

func (r *PostgresRepository) GetByIDAndOwner(ctx context.Context, id, owner string) (*models.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE id = $1 AND owner = $2
	`
	return scanTask(r.db.QueryRowContext(ctx, query, id, owner))
}

func (r *PostgresRepository) Update(ctx context.Context, task *models.Task) (*models.Task, error) {
	query := `
		UPDATE tasks
		SET description = $3, completed = $4, updated_at = now()
		WHERE id = $1 AND owner = $2
		RETURNING ` + taskColumns
	return scanTask(r.db.QueryRowContext(ctx, query, task.ID, task.Owner, task.Description, task.Completed))
}

func (r *PostgresRepository) DeleteByIDAndOwner(ctx context.Context, id, owner string) (*models.Task, error) {
	query := `
		DELETE FROM tasks
		WHERE id = $1 AND owner = $2
		RETURNING ` + taskColumns
	return scanTask(r.db.QueryRowContext(ctx, query, id, owner))
}

func (r *PostgresRepository) DeleteByOwner(ctx context.Context, owner string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE owner = $1`, owner)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) ListByOwner(ctx context.Context, owner string, filter models.TaskFilter) ([]*models.Task, error) {
	query, args := buildListQuery(owner, filter)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Task, 0)
	for rows.Next() {
		t := &models.Task{}
		if err := rows.Scan(&t.ID, &t.Description, &t.Completed, &t.Owner, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return out, nil
}

func buildListQuery(owner string, filter models.TaskFilter) (string, []any) {
	var b strings.Builder
	args := []any{owner}

	b.WriteString("SELECT " + taskColumns + " FROM tasks WHERE owner = $1")

	if filter.Completed != nil {
		args = append(args, *filter.Completed)
		b.WriteString(" AND completed = $" + strconv.Itoa(len(args)))
	}

	if filter.Sort != nil {
		if col, ok := sortColumns[filter.Sort.Field]; ok {
			b.WriteString(" ORDER BY " + col)
			if filter.Sort.Descending {
				b.WriteString(" DESC")
			} else {
				b.WriteString(" ASC")
			}
		}
	}

	if filter.Limit != nil && *filter.Limit > 0 {
		args = append(args, *filter.Limit)
		b.WriteString(" LIMIT $" + strconv.Itoa(len(args)))
	}
	if filter.Skip != nil && *filter.Skip > 0 {
		args = append(args, *filter.Skip)
		b.WriteString(" OFFSET $" + strconv.Itoa(len(args)))
	}

	return b.String(), args
}

func scanTask(row *sql.Row) (*models.Task, error) {
	t := &models.Task{}
	if err := row.Scan(&t.ID, &t.Description, &t.Completed, &t.Owner, &t.CreatedAt, &t.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}
