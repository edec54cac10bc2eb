package services

import (
	"net/url"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/sidhlee/task-manager-api/internal/server/models"
)

var sortFields = map[string]models.TaskSortField{
	"_id":         models.TaskSortByID,
	"id":          models.TaskSortByID,
	"description": models.TaskSortByDescription,
	"completed":   models.TaskSortByCompleted,
	"createdAt":   models.TaskSortByCreatedAt,
	"updatedAt":   models.TaskSortByUpdatedAt,
}

// ParseTaskQuery turns the listing query string into a TaskFilter.
//
//	completed=true|false     any value other than "true" filters for false
//	limit=N&skip=M           non-negative integers; limit=0 means no limit
//	sortBy=createdAt_desc    any non-alphanumeric separator; "desc" or ascending
//
// Empty values count as absent. If a supplied limit or skip is not a
// non-negative integer, pagination is dropped and the full listing is
// returned. Unknown sort fields are ignored.
func ParseTaskQuery(q url.Values) models.TaskFilter {
	var filter models.TaskFilter

	if v := q.Get("completed"); v != "" {
		completed := v == "true"
		filter.Completed = &completed
	}

	if v := q.Get("sortBy"); v != "" {
		filter.Sort = parseSortBy(v)
	}

	limit, limitOK := parseBound(q.Get("limit"))
	skip, skipOK := parseBound(q.Get("skip"))
	if limitOK && skipOK {
		filter.Limit = limit
		filter.Skip = skip
	}

	return filter
}

// parseBound returns (nil, true) for an absent bound and (nil, false) for
// one that does not parse.
func parseBound(v string) (*int64, bool) {
	if v == "" {
		return nil, true
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return nil, false
	}
	return &n, true
}

func parseSortBy(v string) *models.TaskSort {
	// A leading underscore belongs to the field name (_id).
	start := 0
	if strings.HasPrefix(v, "_") {
		start = 1
	}

	name, direction := v, ""
	for i, r := range v[start:] {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			_, size := utf8.DecodeRuneInString(v[start+i:])
			name = v[:start+i]
			direction = v[start+i+size:]
			break
		}
	}

	field, ok := sortFields[name]
	if !ok {
		return nil
	}
	return &models.TaskSort{Field: field, Descending: direction == "desc"}
}
