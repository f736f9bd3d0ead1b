package api

import (
	"net/http"

	"github.com/jakechorley/volunteer-hub/pkg/auth"
	"github.com/jakechorley/volunteer-hub/pkg/core/services"
	"github.com/jakechorley/volunteer-hub/pkg/schemas"
)

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	store, ok := s.store(w, r)
	if !ok {
		return
	}

	var viewer *int64
	if id, ok := auth.FromContext(r.Context()); ok {
		viewer = &id.VolunteerID
	}
	projects, err := services.ListProjects(r.Context(), store, s.requestLogger(r), r.URL.Query().Get("status"), viewer)
	if err != nil {
		s.fail(w, r, err, "Project")
		return
	}
	respondData(w, http.StatusOK, projects)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid project ID")
		return
	}
	store, ok := s.store(w, r)
	if !ok {
		return
	}
	p, err := store.GetProject(r.Context(), id)
	if err != nil {
		s.fail(w, r, err, "Project")
		return
	}
	respondData(w, http.StatusOK, p)
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req schemas.CreateProjectRequest
	if err := schemas.Decode(r.Body, &req); err != nil {
		s.fail(w, r, err, "Organization")
		return
	}
	store, ok := s.store(w, r)
	if !ok {
		return
	}
	p, err := services.CreateProject(r.Context(), store, s.requestLogger(r), req)
	if err != nil {
		s.fail(w, r, err, "Organization")
		return
	}
	respondJSON(w, http.StatusCreated, envelope{Success: true, Message: "Project created", Data: p})
}

func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid project ID")
		return
	}
	var req schemas.UpdateProjectRequest
	if err := schemas.Decode(r.Body, &req); err != nil {
		s.fail(w, r, err, "Project")
		return
	}
	store, ok := s.store(w, r)
	if !ok {
		return
	}
	p, err := services.UpdateProject(r.Context(), store, s.requestLogger(r), id, req)
	if err != nil {
		s.fail(w, r, err, "Project")
		return
	}
	respondJSON(w, http.StatusOK, envelope{Success: true, Message: "Project updated", Data: p})
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid project ID")
		return
	}
	store, ok := s.store(w, r)
	if !ok {
		return
	}
	if err := store.DeleteProject(r.Context(), id); err != nil {
		s.fail(w, r, err, "Project")
		return
	}
	respondMessage(w, http.StatusOK, "Project deleted")
}

func (s *Server) handleProjectStats(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid project ID")
		return
	}
	store, ok := s.store(w, r)
	if !ok {
		return
	}
	stats, err := store.ProjectStats(r.Context(), id)
	if err != nil {
		s.fail(w, r, err, "Project")
		return
	}
	respondData(w, http.StatusOK, stats)
}

func (s *Server) handleProjectMembers(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid project ID")
		return
	}
	store, ok := s.store(w, r)
	if !ok {
		return
	}
	members, err := store.ListProjectMembers(r.Context(), id)
	if err != nil {
		s.fail(w, r, err, "Project")
		return
	}
	respondData(w, http.StatusOK, members)
}

func (s *Server) handleJoinProject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid project ID")
		return
	}
	var req schemas.JoinProjectRequest
	if err := schemas.Decode(r.Body, &req); err != nil {
		s.fail(w, r, err, "Project")
		return
	}
	store, ok := s.store(w, r)
	if !ok {
		return
	}

	caller, _ := auth.FromContext(r.Context())
	m, err := services.JoinProject(r.Context(), store, s.requestLogger(r), caller.VolunteerID, id, req)
	if err != nil {
		s.fail(w, r, err, "Project")
		return
	}
	respondJSON(w, http.StatusOK, envelope{Success: true, Message: "Successfully joined project", Data: m})
}

func (s *Server) handleLeaveProject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid project ID")
		return
	}
	store, ok := s.store(w, r)
	if !ok {
		return
	}

	caller, _ := auth.FromContext(r.Context())
	if err := services.LeaveProject(r.Context(), store, s.requestLogger(r), caller.VolunteerID, id); err != nil {
		s.fail(w, r, err, "Project")
		return
	}
	respondMessage(w, http.StatusOK, "Successfully left project")
}

func (s *Server) handleMyProjects(w http.ResponseWriter, r *http.Request) {
	store, ok := s.store(w, r)
	if !ok {
		return
	}
	caller, _ := auth.FromContext(r.Context())
	projects, err := store.ListProjectsByVolunteer(r.Context(), caller.VolunteerID)
	if err != nil {
		s.fail(w, r, err, "Project")
		return
	}
	respondData(w, http.StatusOK, projects)
}
