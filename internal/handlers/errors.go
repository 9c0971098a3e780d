package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"kidsvideohub/internal/apperr"
	"kidsvideohub/internal/logging"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logging.Logger.Error().Err(err).Msg("Failed to encode response")
	}
}

func respondWithError(w http.ResponseWriter, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		logging.Logger.Error().Err(err).Int("status", status).Msg(logMsg)
	}

	writeJSON(w, status, errorBody{Error: userMsg})
}

// statusForError maps an error kind to its HTTP status
func statusForError(err error) int {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrDependency):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// respondWithServiceError writes the status for err's kind. Domain errors
// carry their own message; anything else is logged and hidden.
func respondWithServiceError(w http.ResponseWriter, r *http.Request, logMsg string, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		respondWithError(w, status, ErrInternalServerError, logMsg, err)
		return
	}

	logging.Logger.Debug().
		Err(err).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", status).
		Msg(logMsg)
	writeJSON(w, status, errorBody{Error: err.Error()})
}

// decodeJSON reads a JSON request body into v. It writes a 400 and returns
// false when the body is malformed.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidJSON, "", nil)
		return false
	}
	return true
}
