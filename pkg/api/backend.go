package api

import (
	"net/http"

	"github.com/jakechorley/volunteer-hub/pkg/db"
	"github.com/jakechorley/volunteer-hub/pkg/schemas"
)

// backendCookieMaxAge keeps the backend choice for a year
const backendCookieMaxAge = 365 * 24 * 60 * 60

type backendView struct {
	DBType    db.Backend   `json:"dbType"`
	Default   db.Backend   `json:"default"`
	Available []db.Backend `json:"available"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	store, ok := s.store(w, r)
	if !ok {
		return
	}
	if err := store.Ping(r.Context()); err != nil {
		respondJSON(w, http.StatusServiceUnavailable, envelope{
			Error:   "Database connection failed",
			Details: err.Error(),
		})
		return
	}
	respondData(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"backend": string(backendFrom(r.Context())),
	})
}

func (s *Server) handleGetBackend(w http.ResponseWriter, r *http.Request) {
	respondData(w, http.StatusOK, backendView{
		DBType:    backendFrom(r.Context()),
		Default:   s.registry.Default(),
		Available: s.registry.Backends(),
	})
}

func (s *Server) handleSetBackend(w http.ResponseWriter, r *http.Request) {
	var req schemas.SetBackendRequest
	if err := schemas.Decode(r.Body, &req); err != nil {
		s.fail(w, r, err, "Backend")
		return
	}

	b, err := db.ParseBackend(req.DBType)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid database type")
		return
	}
	if _, err := s.registry.For(b); err != nil {
		s.fail(w, r, err, "Backend")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     backendCookie,
		Value:    string(b),
		Path:     "/",
		MaxAge:   backendCookieMaxAge,
		HttpOnly: true,
		Secure:   s.opts.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	respondJSON(w, http.StatusOK, envelope{
		Success: true,
		Message: "Database backend set to " + string(b),
		Data: backendView{
			DBType:    b,
			Default:   s.registry.Default(),
			Available: s.registry.Backends(),
		},
	})
}
