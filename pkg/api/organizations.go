package api

import (
	"net/http"

	"github.com/jakechorley/volunteer-hub/pkg/core/services"
	"github.com/jakechorley/volunteer-hub/pkg/schemas"
)

func (s *Server) handleListOrganizations(w http.ResponseWriter, r *http.Request) {
	store, ok := s.store(w, r)
	if !ok {
		return
	}
	orgs, err := store.ListOrganizations(r.Context())
	if err != nil {
		s.fail(w, r, err, "Organization")
		return
	}
	respondData(w, http.StatusOK, orgs)
}

func (s *Server) handleGetOrganization(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid organization ID")
		return
	}
	store, ok := s.store(w, r)
	if !ok {
		return
	}
	org, err := store.GetOrganization(r.Context(), id)
	if err != nil {
		s.fail(w, r, err, "Organization")
		return
	}
	respondData(w, http.StatusOK, org)
}

func (s *Server) handleCreateOrganization(w http.ResponseWriter, r *http.Request) {
	var req schemas.CreateOrganizationRequest
	if err := schemas.Decode(r.Body, &req); err != nil {
		s.fail(w, r, err, "Organization")
		return
	}
	store, ok := s.store(w, r)
	if !ok {
		return
	}
	org, err := services.CreateOrganization(r.Context(), store, s.requestLogger(r), req)
	if err != nil {
		s.fail(w, r, err, "Organization")
		return
	}
	respondJSON(w, http.StatusCreated, envelope{Success: true, Message: "Organization created", Data: org})
}
