package api

import (
	"net/http"

	"github.com/jakechorley/volunteer-hub/pkg/auth"
	"github.com/jakechorley/volunteer-hub/pkg/core/services"
	"github.com/jakechorley/volunteer-hub/pkg/schemas"
)

func (s *Server) handleListVolunteers(w http.ResponseWriter, r *http.Request) {
	store, ok := s.store(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	if query.Get("action") == "count" {
		counts, err := store.CountVolunteersByStatus(r.Context())
		if err != nil {
			s.fail(w, r, err, "Volunteer")
			return
		}
		respondData(w, http.StatusOK, counts)
		return
	}

	volunteers, err := services.ListVolunteers(r.Context(), store, s.requestLogger(r), query.Get("status"))
	if err != nil {
		s.fail(w, r, err, "Volunteer")
		return
	}
	respondData(w, http.StatusOK, volunteers)
}

func (s *Server) handleGetVolunteer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid volunteer ID")
		return
	}
	store, ok := s.store(w, r)
	if !ok {
		return
	}

	v, err := store.GetVolunteer(r.Context(), id)
	if err != nil {
		s.fail(w, r, err, "Volunteer")
		return
	}
	respondData(w, http.StatusOK, v)
}

func (s *Server) handleUpdateVolunteer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid volunteer ID")
		return
	}
	var req schemas.UpdateVolunteerRequest
	if err := schemas.Decode(r.Body, &req); err != nil {
		s.fail(w, r, err, "Volunteer")
		return
	}
	store, ok := s.store(w, r)
	if !ok {
		return
	}

	caller, _ := auth.FromContext(r.Context())
	v, err := services.UpdateVolunteer(r.Context(), store, s.requestLogger(r), caller, id, req)
	if err != nil {
		s.fail(w, r, err, "Volunteer")
		return
	}
	respondJSON(w, http.StatusOK, envelope{Success: true, Message: "Volunteer updated", Data: v})
}

func (s *Server) handleDeleteVolunteer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid volunteer ID")
		return
	}
	store, ok := s.store(w, r)
	if !ok {
		return
	}

	if err := services.DeleteVolunteer(r.Context(), store, s.requestLogger(r), id); err != nil {
		s.fail(w, r, err, "Volunteer")
		return
	}
	respondMessage(w, http.StatusOK, "Volunteer deleted")
}
