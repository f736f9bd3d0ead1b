package api

import (
	"net/http"

	"github.com/jakechorley/volunteer-hub/pkg/core/services"
	"github.com/jakechorley/volunteer-hub/pkg/db"
	"github.com/jakechorley/volunteer-hub/pkg/schemas"
)

func (s *Server) handleListResources(w http.ResponseWriter, r *http.Request) {
	projectID, ok := queryID(r, "projectId")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid project ID")
		return
	}
	store, ok := s.store(w, r)
	if !ok {
		return
	}
	resources, err := store.ListResources(r.Context(), db.ResourceFilter{ProjectID: projectID})
	if err != nil {
		s.fail(w, r, err, "Resource")
		return
	}
	respondData(w, http.StatusOK, resources)
}

func (s *Server) handleGetResource(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid resource ID")
		return
	}
	store, ok := s.store(w, r)
	if !ok {
		return
	}
	res, err := store.GetResource(r.Context(), id)
	if err != nil {
		s.fail(w, r, err, "Resource")
		return
	}
	respondData(w, http.StatusOK, res)
}

func (s *Server) handleCreateResource(w http.ResponseWriter, r *http.Request) {
	var req schemas.CreateResourceRequest
	if err := schemas.Decode(r.Body, &req); err != nil {
		s.fail(w, r, err, "Project")
		return
	}
	store, ok := s.store(w, r)
	if !ok {
		return
	}
	res, err := services.CreateResource(r.Context(), store, s.requestLogger(r), req)
	if err != nil {
		s.fail(w, r, err, "Project")
		return
	}
	respondJSON(w, http.StatusCreated, envelope{Success: true, Message: "Resource created", Data: res})
}

func (s *Server) handleUpdateResource(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid resource ID")
		return
	}
	var req schemas.UpdateResourceRequest
	if err := schemas.Decode(r.Body, &req); err != nil {
		s.fail(w, r, err, "Resource")
		return
	}
	store, ok := s.store(w, r)
	if !ok {
		return
	}
	res, err := store.UpdateResource(r.Context(), id, req.Update())
	if err != nil {
		s.fail(w, r, err, "Resource")
		return
	}
	respondJSON(w, http.StatusOK, envelope{Success: true, Message: "Resource updated", Data: res})
}

func (s *Server) handleDeleteResource(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid resource ID")
		return
	}
	store, ok := s.store(w, r)
	if !ok {
		return
	}
	if err := store.DeleteResource(r.Context(), id); err != nil {
		s.fail(w, r, err, "Resource")
		return
	}
	respondMessage(w, http.StatusOK, "Resource deleted")
}
