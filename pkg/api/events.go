package api

import (
	"net/http"

	"github.com/jakechorley/volunteer-hub/pkg/auth"
	"github.com/jakechorley/volunteer-hub/pkg/core/services"
	"github.com/jakechorley/volunteer-hub/pkg/schemas"
)

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	projectID, ok := queryID(r, "projectId")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid project ID")
		return
	}
	volunteerID, ok := queryID(r, "volunteerId")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid volunteer ID")
		return
	}
	store, ok := s.store(w, r)
	if !ok {
		return
	}

	events, err := services.ListEvents(r.Context(), store, s.requestLogger(r), services.EventQuery{
		ProjectID:   projectID,
		VolunteerID: volunteerID,
		Upcoming:    r.URL.Query().Get("upcoming") == "true",
	})
	if err != nil {
		s.fail(w, r, err, "Event")
		return
	}
	respondData(w, http.StatusOK, events)
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid event ID")
		return
	}
	store, ok := s.store(w, r)
	if !ok {
		return
	}
	e, err := store.GetEvent(r.Context(), id)
	if err != nil {
		s.fail(w, r, err, "Event")
		return
	}
	respondData(w, http.StatusOK, e)
}

// handleCreateEvent returns the single event, or the whole series when the
// request carries a recurrence rule
func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var req schemas.CreateEventRequest
	if err := schemas.Decode(r.Body, &req); err != nil {
		s.fail(w, r, err, "Project")
		return
	}
	store, ok := s.store(w, r)
	if !ok {
		return
	}

	events, err := services.CreateEvents(r.Context(), store, s.requestLogger(r), req)
	if err != nil {
		s.fail(w, r, err, "Project")
		return
	}
	if req.Recurrence == "" {
		respondJSON(w, http.StatusCreated, envelope{Success: true, Message: "Event created", Data: events[0]})
		return
	}
	respondJSON(w, http.StatusCreated, envelope{Success: true, Message: "Event series created", Data: events})
}

func (s *Server) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid event ID")
		return
	}
	var req schemas.UpdateEventRequest
	if err := schemas.Decode(r.Body, &req); err != nil {
		s.fail(w, r, err, "Event")
		return
	}
	store, ok := s.store(w, r)
	if !ok {
		return
	}
	e, err := store.UpdateEvent(r.Context(), id, req.Update())
	if err != nil {
		s.fail(w, r, err, "Event")
		return
	}
	respondJSON(w, http.StatusOK, envelope{Success: true, Message: "Event updated", Data: e})
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid event ID")
		return
	}
	store, ok := s.store(w, r)
	if !ok {
		return
	}
	if err := store.DeleteEvent(r.Context(), id); err != nil {
		s.fail(w, r, err, "Event")
		return
	}
	respondMessage(w, http.StatusOK, "Event deleted")
}

func (s *Server) handleListAttendance(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid event ID")
		return
	}
	store, ok := s.store(w, r)
	if !ok {
		return
	}
	attendance, err := store.ListAttendanceByEvent(r.Context(), id)
	if err != nil {
		s.fail(w, r, err, "Event")
		return
	}
	respondData(w, http.StatusOK, attendance)
}

func (s *Server) handleMarkAttendance(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid event ID")
		return
	}
	var req schemas.MarkAttendanceRequest
	if err := schemas.Decode(r.Body, &req); err != nil {
		s.fail(w, r, err, "Event")
		return
	}
	store, ok := s.store(w, r)
	if !ok {
		return
	}

	caller, _ := auth.FromContext(r.Context())
	a, err := services.MarkAttendance(r.Context(), store, s.requestLogger(r), caller, id, req)
	if err != nil {
		s.fail(w, r, err, "Event")
		return
	}
	respondJSON(w, http.StatusCreated, envelope{Success: true, Message: "Attendance marked successfully", Data: a})
}

func (s *Server) handleDeleteAttendance(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid event ID")
		return
	}
	volunteerID, ok := pathID(r, "volunteerId")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid volunteer ID")
		return
	}
	store, ok := s.store(w, r)
	if !ok {
		return
	}
	if err := store.DeleteAttendance(r.Context(), eventID, volunteerID); err != nil {
		s.fail(w, r, err, "Attendance record")
		return
	}
	respondMessage(w, http.StatusOK, "Attendance removed")
}
