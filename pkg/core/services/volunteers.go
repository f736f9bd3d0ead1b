package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-hub/pkg/auth"
	"github.com/jakechorley/volunteer-hub/pkg/db"
	"github.com/jakechorley/volunteer-hub/pkg/schemas"
)

// ListVolunteers lists every volunteer, or only those with the given status
func ListVolunteers(ctx context.Context, store db.VolunteerStore, logger *zap.Logger, status string) ([]db.Volunteer, error) {
	if status == "" {
		return store.ListVolunteers(ctx)
	}

	switch status {
	case db.VolunteerActive, db.VolunteerInactive, db.VolunteerSuspended:
	default:
		return nil, &schemas.ValidationError{Fields: []schemas.FieldError{{
			Field:   "status",
			Message: "must be one of: active, inactive, suspended",
		}}}
	}

	logger.Debug("Listing volunteers by status", zap.String("status", status))
	return store.ListVolunteersByStatus(ctx, status)
}

// UpdateVolunteer edits a volunteer. Volunteers may edit their own profile;
// only admins may edit others or change status and role.
func UpdateVolunteer(ctx context.Context, store db.VolunteerStore, logger *zap.Logger, caller auth.Identity, id int64, req schemas.UpdateVolunteerRequest) (*db.Volunteer, error) {
	if !caller.IsAdmin() {
		if caller.VolunteerID != id {
			return nil, fmt.Errorf("%w: cannot edit another volunteer", ErrForbidden)
		}
		if req.PrivilegedFields() {
			return nil, fmt.Errorf("%w: only admins can change status or role", ErrForbidden)
		}
	}

	logger.Debug("Updating volunteer",
		zap.Int64("volunteer_id", id),
		zap.Int64("caller_id", caller.VolunteerID))

	return store.UpdateVolunteer(ctx, id, req.Update())
}
