package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-hub/pkg/auth"
	"github.com/jakechorley/volunteer-hub/pkg/db"
	"github.com/jakechorley/volunteer-hub/pkg/schemas"
)

// Register creates a volunteer account. The role is always volunteer and
// the account starts active.
func Register(ctx context.Context, store db.VolunteerStore, logger *zap.Logger, req schemas.RegisterRequest) (*db.Volunteer, error) {
	logger.Debug("Registering volunteer", zap.String("email", req.Email))

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	ts := now()
	v, err := store.CreateVolunteer(ctx, &db.Volunteer{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Phone:        req.Phone,
		JoinDate:     ts,
		Status:       db.VolunteerActive,
		Role:         db.RoleVolunteer,
		CreatedAt:    ts,
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Volunteer registered", zap.Int64("volunteer_id", v.ID))
	return v, nil
}

// Login checks credentials and returns the volunteer they belong to.
// Unknown emails and wrong passwords are indistinguishable to the caller.
func Login(ctx context.Context, store db.VolunteerStore, logger *zap.Logger, req schemas.LoginRequest) (*db.Volunteer, error) {
	v, err := store.GetVolunteerByEmail(ctx, req.Email)
	if errors.Is(err, db.ErrNotFound) {
		logger.Debug("Login for unknown email", zap.String("email", req.Email))
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := auth.CheckPassword(v.PasswordHash, req.Password); err != nil {
		if errors.Is(err, auth.ErrWrongPassword) {
			logger.Debug("Login with wrong password", zap.Int64("volunteer_id", v.ID))
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if v.Status != db.VolunteerActive {
		logger.Debug("Login to inactive account", zap.Int64("volunteer_id", v.ID), zap.String("status", v.Status))
		return nil, ErrAccountInactive
	}

	v.PasswordHash = ""
	return v, nil
}

// ChangePassword replaces a volunteer's password after checking the current one
func ChangePassword(ctx context.Context, store db.VolunteerStore, logger *zap.Logger, volunteerID int64, req schemas.ChangePasswordRequest) error {
	current, err := store.GetVolunteer(ctx, volunteerID)
	if err != nil {
		return err
	}

	withHash, err := store.GetVolunteerByEmail(ctx, current.Email)
	if err != nil {
		return err
	}
	if err := auth.CheckPassword(withHash.PasswordHash, req.CurrentPassword); err != nil {
		if errors.Is(err, auth.ErrWrongPassword) {
			return ErrInvalidCredentials
		}
		return err
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	if err := store.UpdateVolunteerPassword(ctx, volunteerID, hash); err != nil {
		return fmt.Errorf("failed to store password: %w", err)
	}

	logger.Info("Password changed", zap.Int64("volunteer_id", volunteerID))
	return nil
}

// EnsureAdmin creates an active admin account, or promotes and reactivates
// the existing account with that email. The password is reset either way.
func EnsureAdmin(ctx context.Context, store db.VolunteerStore, logger *zap.Logger, name, email, password string) (*db.Volunteer, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	existing, err := store.GetVolunteerByEmail(ctx, email)
	switch {
	case errors.Is(err, db.ErrNotFound):
		ts := now()
		v, err := store.CreateVolunteer(ctx, &db.Volunteer{
			Name:         name,
			Email:        email,
			PasswordHash: hash,
			JoinDate:     ts,
			Status:       db.VolunteerActive,
			Role:         db.RoleAdmin,
			CreatedAt:    ts,
		})
		if err != nil {
			return nil, err
		}
		logger.Info("Admin created", zap.Int64("volunteer_id", v.ID), zap.String("email", v.Email))
		return v, nil
	case err != nil:
		return nil, err
	}

	role, status := db.RoleAdmin, db.VolunteerActive
	v, err := store.UpdateVolunteer(ctx, existing.ID, db.VolunteerUpdate{Role: &role, Status: &status})
	if err != nil {
		return nil, err
	}
	if err := store.UpdateVolunteerPassword(ctx, existing.ID, hash); err != nil {
		return nil, err
	}

	logger.Info("Existing volunteer promoted to admin", zap.Int64("volunteer_id", v.ID), zap.String("email", v.Email))
	return v, nil
}
