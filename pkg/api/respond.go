package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-hub/pkg/auth"
	"github.com/jakechorley/volunteer-hub/pkg/core/services"
	"github.com/jakechorley/volunteer-hub/pkg/db"
	"github.com/jakechorley/volunteer-hub/pkg/schemas"
)

// envelope is the shape of every response body
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
	Details any    `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, payload envelope) {
	response, err := json.Marshal(payload)
	if err != nil {
		status = http.StatusInternalServerError
		response = []byte(`{"success":false,"error":"Failed to encode response"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(response)
}

func respondData(w http.ResponseWriter, status int, data any) {
	respondJSON(w, status, envelope{Success: true, Data: data})
}

func respondMessage(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, envelope{Success: true, Message: message})
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, envelope{Error: message})
}

// fail maps err onto a status code and writes the error envelope. noun names
// the entity a not-found error refers to.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, noun string) {
	var verr *schemas.ValidationError
	switch {
	case errors.As(err, &verr):
		respondJSON(w, http.StatusBadRequest, envelope{Error: "Validation failed", Details: verr.Fields})
	case errors.Is(err, auth.ErrPasswordTooLong):
		respondJSON(w, http.StatusBadRequest, envelope{Error: "Validation failed", Details: []schemas.FieldError{{Field: "password", Message: err.Error()}}})
	case errors.Is(err, services.ErrInvalidCredentials):
		respondError(w, http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, services.ErrAccountInactive):
		respondError(w, http.StatusForbidden, "Account is not active")
	case errors.Is(err, services.ErrForbidden):
		respondError(w, http.StatusForbidden, "Forbidden")
	case errors.Is(err, db.ErrVolunteerNotFound):
		respondError(w, http.StatusNotFound, "Volunteer not found")
	case errors.Is(err, db.ErrNotFound):
		respondError(w, http.StatusNotFound, noun+" not found")
	case errors.Is(err, db.ErrNotMember):
		respondError(w, http.StatusNotFound, "Not a member of this project")
	case errors.Is(err, db.ErrEmailTaken):
		respondError(w, http.StatusConflict, "Email already registered")
	case errors.Is(err, db.ErrAlreadyJoined):
		respondError(w, http.StatusConflict, "Already a member of this project")
	case errors.Is(err, db.ErrProjectFull):
		respondError(w, http.StatusConflict, "Project has reached maximum volunteers")
	case errors.Is(err, db.ErrNoChanges):
		respondError(w, http.StatusBadRequest, "No fields to update")
	case errors.Is(err, db.ErrBackendUnavailable):
		respondJSON(w, http.StatusServiceUnavailable, envelope{Error: "Database backend unavailable", Details: err.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		s.logger.Warn("Request timed out",
			zap.String("request_id", requestIDFrom(r.Context())),
			zap.String("path", r.URL.Path))
		respondJSON(w, http.StatusServiceUnavailable, envelope{Error: "Request timed out", Details: err.Error()})
	default:
		s.logger.Error("Request failed",
			zap.String("request_id", requestIDFrom(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("backend", string(backendFrom(r.Context()))),
			zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, envelope{Error: "Internal server error", Details: err.Error()})
	}
}

// pathID parses a positive integer path variable
func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// queryID parses an optional positive integer query parameter
func queryID(r *http.Request, name string) (*int64, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, false
	}
	return &id, true
}
