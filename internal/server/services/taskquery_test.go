package services

import (
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/sidhlee/task-manager-api/internal/server/models"
)

func TestParseTaskQuery(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  models.TaskFilter
	}{
		{
			name:  "empty",
			query: "",
			want:  models.TaskFilter{},
		},
		{
			name:  "completed true",
			query: "completed=true",
			want:  models.TaskFilter{Completed: ptr(true)},
		},
		{
			name:  "completed anything else is false",
			query: "completed=TRUE",
			want:  models.TaskFilter{Completed: ptr(false)},
		},
		{
			name:  "completed empty is absent",
			query: "completed=",
			want:  models.TaskFilter{},
		},
		{
			name:  "sort desc with underscore",
			query: "sortBy=createdAt_desc",
			want:  models.TaskFilter{Sort: &models.TaskSort{Field: models.TaskSortByCreatedAt, Descending: true}},
		},
		{
			name:  "sort desc with colon",
			query: "sortBy=updatedAt:desc",
			want:  models.TaskFilter{Sort: &models.TaskSort{Field: models.TaskSortByUpdatedAt, Descending: true}},
		},
		{
			name:  "sort without direction is ascending",
			query: "sortBy=description",
			want:  models.TaskFilter{Sort: &models.TaskSort{Field: models.TaskSortByDescription}},
		},
		{
			name:  "sort unknown direction is ascending",
			query: "sortBy=completed-down",
			want:  models.TaskFilter{Sort: &models.TaskSort{Field: models.TaskSortByCompleted}},
		},
		{
			name:  "sort by _id",
			query: "sortBy=_id_desc",
			want:  models.TaskFilter{Sort: &models.TaskSort{Field: models.TaskSortByID, Descending: true}},
		},
		{
			name:  "sort with trailing invalid byte",
			query: "sortBy=createdAt%FF",
			want:  models.TaskFilter{Sort: &models.TaskSort{Field: models.TaskSortByCreatedAt}},
		},
		{
			name:  "sort with invalid byte separator",
			query: "sortBy=createdAt%FFdesc",
			want:  models.TaskFilter{Sort: &models.TaskSort{Field: models.TaskSortByCreatedAt, Descending: true}},
		},
		{
			name:  "sort with multibyte separator",
			query: "sortBy=createdAt%E2%86%92desc",
			want:  models.TaskFilter{Sort: &models.TaskSort{Field: models.TaskSortByCreatedAt, Descending: true}},
		},
		{
			name:  "unknown sort field ignored",
			query: "sortBy=owner_desc",
			want:  models.TaskFilter{},
		},
		{
			name:  "pagination",
			query: "limit=10&skip=20",
			want:  models.TaskFilter{Limit: ptr(int64(10)), Skip: ptr(int64(20))},
		},
		{
			name:  "limit only",
			query: "limit=5",
			want:  models.TaskFilter{Limit: ptr(int64(5))},
		},
		{
			name:  "non-numeric limit drops pagination",
			query: "limit=ten&skip=2",
			want:  models.TaskFilter{},
		},
		{
			name:  "negative skip drops pagination",
			query: "limit=3&skip=-1",
			want:  models.TaskFilter{},
		},
		{
			name:  "trailing garbage is not a number",
			query: "limit=10abc",
			want:  models.TaskFilter{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			if err != nil {
				t.Fatalf("ParseQuery: %v", err)
			}
			if diff := cmp.Diff(tt.want, ParseTaskQuery(q)); diff != "" {
				t.Errorf("ParseTaskQuery(%q) mismatch (-want +got):\n%s", tt.query, diff)
			}
		})
	}
}
