package api

import (
	"net/http"
	"time"

	"github.com/jakechorley/volunteer-hub/pkg/auth"
	"github.com/jakechorley/volunteer-hub/pkg/core/services"
	"github.com/jakechorley/volunteer-hub/pkg/db"
	"github.com/jakechorley/volunteer-hub/pkg/schemas"
)

// sessionView is returned by register and login
type sessionView struct {
	VolunteerID int64  `json:"volunteerId"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Role        string `json:"role"`
}

// profileView is returned by /auth/me
type profileView struct {
	VolunteerID int64     `json:"volunteer_id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       *string   `json:"phone"`
	Role        string    `json:"role"`
	Status      string    `json:"status"`
	JoinDate    time.Time `json:"join_date"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req schemas.RegisterRequest
	if err := schemas.Decode(r.Body, &req); err != nil {
		s.fail(w, r, err, "Volunteer")
		return
	}

	store, ok := s.store(w, r)
	if !ok {
		return
	}
	v, err := services.Register(r.Context(), store, s.requestLogger(r), req)
	if err != nil {
		s.fail(w, r, err, "Volunteer")
		return
	}

	if err := s.startSession(w, v); err != nil {
		s.fail(w, r, err, "Volunteer")
		return
	}
	respondJSON(w, http.StatusCreated, envelope{
		Success: true,
		Message: "Registration successful",
		Data:    sessionView{VolunteerID: v.ID, Name: v.Name, Email: v.Email, Role: v.Role},
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req schemas.LoginRequest
	if err := schemas.Decode(r.Body, &req); err != nil {
		s.fail(w, r, err, "Volunteer")
		return
	}

	store, ok := s.store(w, r)
	if !ok {
		return
	}
	v, err := services.Login(r.Context(), store, s.requestLogger(r), req)
	if err != nil {
		s.fail(w, r, err, "Volunteer")
		return
	}

	if err := s.startSession(w, v); err != nil {
		s.fail(w, r, err, "Volunteer")
		return
	}
	respondJSON(w, http.StatusOK, envelope{
		Success: true,
		Message: "Login successful",
		Data:    sessionView{VolunteerID: v.ID, Name: v.Name, Email: v.Email, Role: v.Role},
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     authCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.opts.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	respondMessage(w, http.StatusOK, "Logout successful")
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	store, ok := s.store(w, r)
	if !ok {
		return
	}

	v, err := store.GetVolunteer(r.Context(), id.VolunteerID)
	if err != nil {
		s.fail(w, r, err, "User")
		return
	}
	respondData(w, http.StatusOK, profileView{
		VolunteerID: v.ID,
		Name:        v.Name,
		Email:       v.Email,
		Phone:       v.Phone,
		Role:        v.Role,
		Status:      v.Status,
		JoinDate:    v.JoinDate,
	})
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	var req schemas.ChangePasswordRequest
	if err := schemas.Decode(r.Body, &req); err != nil {
		s.fail(w, r, err, "User")
		return
	}

	store, ok := s.store(w, r)
	if !ok {
		return
	}
	if err := services.ChangePassword(r.Context(), store, s.requestLogger(r), id.VolunteerID, req); err != nil {
		s.fail(w, r, err, "User")
		return
	}
	respondMessage(w, http.StatusOK, "Password updated")
}

// startSession signs a token for v and sets it as the session cookie
func (s *Server) startSession(w http.ResponseWriter, v *db.Volunteer) error {
	token, err := s.signer.Sign(v)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     authCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.signer.TTL().Seconds()),
		HttpOnly: true,
		Secure:   s.opts.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}
