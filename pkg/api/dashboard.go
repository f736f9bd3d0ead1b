package api

import (
	"net/http"
	"strconv"

	"github.com/jakechorley/volunteer-hub/pkg/auth"
	"github.com/jakechorley/volunteer-hub/pkg/core/services"
)

func (s *Server) handleAdminDashboard(w http.ResponseWriter, r *http.Request) {
	store, ok := s.store(w, r)
	if !ok {
		return
	}
	stats, err := services.AdminDashboard(r.Context(), store, s.requestLogger(r))
	if err != nil {
		s.fail(w, r, err, "Dashboard")
		return
	}
	respondData(w, http.StatusOK, stats)
}

func (s *Server) handleVolunteerDashboard(w http.ResponseWriter, r *http.Request) {
	store, ok := s.store(w, r)
	if !ok {
		return
	}
	caller, _ := auth.FromContext(r.Context())
	stats, err := services.VolunteerDashboard(r.Context(), store, s.requestLogger(r), caller.VolunteerID)
	if err != nil {
		s.fail(w, r, err, "Dashboard")
		return
	}
	respondData(w, http.StatusOK, stats)
}

func (s *Server) handleRecentActivity(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}
	store, ok := s.store(w, r)
	if !ok {
		return
	}
	activity, err := services.RecentActivity(r.Context(), store, s.requestLogger(r), limit)
	if err != nil {
		s.fail(w, r, err, "Activity")
		return
	}
	respondData(w, http.StatusOK, activity)
}
