package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/sidhlee/task-manager-api/internal/common"
	"github.com/sidhlee/task-manager-api/internal/logging"
)

const maxJSONBody = 1 << 20

const (
	msgAuthenticate   = "Please authenticate."
	msgInvalidUpdates = "Invalid updates!"
	msgValidation     = "validation failed"
	msgBadRequest     = "invalid request body"
)

// errBadRequest marks bodies that could not be decoded.
var errBadRequest = errors.New("bad request")

type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps service errors onto status codes. Unexpected errors are
// logged and answered with a body that carries no detail.
func writeError(ctx context.Context, w http.ResponseWriter, log logging.Logger, err error) {
	var verr *common.ValidationError

	switch {
	case errors.Is(err, common.ErrorInvalidUpdates):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: msgInvalidUpdates})
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: msgValidation, Fields: verr.Fields})
	case errors.Is(err, errBadRequest):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: msgBadRequest})
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired):
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: msgAuthenticate})
	case errors.Is(err, common.ErrorNotFound):
		w.WriteHeader(http.StatusNotFound)
	default:
		log.Error(ctx, "request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: common.ErrorInternal.Error()})
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	defer r.Body.Close()
	body := http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errBadRequest
		}
		return errors.Join(errBadRequest, err)
	}
	return nil
}

// decodePatch reads a JSON object whose keys name the fields to change.
func decodePatch(w http.ResponseWriter, r *http.Request) (map[string]json.RawMessage, error) {
	var patch map[string]json.RawMessage
	if err := decodeJSON(w, r, &patch); err != nil {
		return nil, err
	}
	if patch == nil {
		return nil, errBadRequest
	}
	return patch, nil
}
