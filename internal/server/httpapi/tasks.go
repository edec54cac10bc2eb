package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sidhlee/task-manager-api/internal/server/services"
)

func (s *HTTPServer) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var in services.TaskInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}

	user, _ := principal(r.Context())
	task, err := s.tasks.Create(r.Context(), user.ID, in)
	if err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

// handleListTasks serves GET /tasks?completed=&limit=&skip=&sortBy=.
func (s *HTTPServer) handleListTasks(w http.ResponseWriter, r *http.Request) {
	user, _ := principal(r.Context())
	tasks, err := s.tasks.List(r.Context(), user.ID, services.ParseTaskQuery(r.URL.Query()))
	if err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (s *HTTPServer) handleGetTask(w http.ResponseWriter, r *http.Request) {
	user, _ := principal(r.Context())
	task, err := s.tasks.Get(r.Context(), user.ID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *HTTPServer) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	patch, err := decodePatch(w, r)
	if err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}

	user, _ := principal(r.Context())
	task, err := s.tasks.Update(r.Context(), user.ID, chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *HTTPServer) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	user, _ := principal(r.Context())
	task, err := s.tasks.Delete(r.Context(), user.ID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}
