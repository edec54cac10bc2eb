package httpapi

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sidhlee/task-manager-api/internal/common"
	"github.com/sidhlee/task-manager-api/internal/server/avatars"
	"github.com/sidhlee/task-manager-api/internal/server/models"
	"github.com/sidhlee/task-manager-api/internal/server/services"
)

// multipartOverhead leaves room for boundaries and part headers on top of
// the image itself.
const multipartOverhead = 64 << 10

type authResponse struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *HTTPServer) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in services.UserInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}

	user, token, err := s.users.Register(r.Context(), in)
	if err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, authResponse{User: user, Token: token})
}

func (s *HTTPServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}

	user, token, err := s.users.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: "Unable to login"})
			return
		}
		writeError(r.Context(), w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, authResponse{User: user, Token: token})
}

func (s *HTTPServer) handleLogout(w http.ResponseWriter, r *http.Request) {
	user, token := principal(r.Context())
	if err := s.users.Logout(r.Context(), user, token); err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *HTTPServer) handleLogoutAll(w http.ResponseWriter, r *http.Request) {
	user, _ := principal(r.Context())
	if err := s.users.LogoutAll(r.Context(), user); err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *HTTPServer) handleMe(w http.ResponseWriter, r *http.Request) {
	user, _ := principal(r.Context())
	writeJSON(w, http.StatusOK, user)
}

func (s *HTTPServer) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	patch, err := decodePatch(w, r)
	if err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}

	user, _ := principal(r.Context())
	updated, err := s.users.Update(r.Context(), user, patch)
	if err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *HTTPServer) handleDeleteMe(w http.ResponseWriter, r *http.Request) {
	user, _ := principal(r.Context())
	deleted, err := s.users.Delete(r.Context(), user)
	if err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, deleted)
}

func (s *HTTPServer) handleUploadAvatar(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, avatars.MaxUploadSize+multipartOverhead)

	file, header, err := r.FormFile(avatars.FormField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(r.Context(), w, s.logger, common.NewValidationError(avatars.FormField, "File too large"))
			return
		}
		writeError(r.Context(), w, s.logger, common.NewValidationError(avatars.FormField, "Please upload an image"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, avatars.MaxUploadSize+1))
	if err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}

	user, _ := principal(r.Context())
	if err := s.users.SetAvatar(r.Context(), user, header.Header.Get("Content-Type"), data); err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *HTTPServer) handleDeleteAvatar(w http.ResponseWriter, r *http.Request) {
	user, _ := principal(r.Context())
	if err := s.users.DeleteAvatar(r.Context(), user); err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *HTTPServer) handleGetAvatar(w http.ResponseWriter, r *http.Request) {
	img, err := s.users.GetAvatar(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}
	w.Header().Set("Content-Type", avatars.ContentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img)
}
