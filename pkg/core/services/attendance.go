package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-hub/pkg/auth"
	"github.com/jakechorley/volunteer-hub/pkg/db"
	"github.com/jakechorley/volunteer-hub/pkg/schemas"
)

// MarkAttendance records attendance at an event. Volunteers mark themselves;
// admins may mark any volunteer by naming them in the request.
func MarkAttendance(ctx context.Context, store db.AttendanceStore, logger *zap.Logger, caller auth.Identity, eventID int64, req schemas.MarkAttendanceRequest) (*db.Attendance, error) {
	volunteerID := caller.VolunteerID
	if req.VolunteerID != nil && *req.VolunteerID != caller.VolunteerID {
		if !caller.IsAdmin() {
			return nil, fmt.Errorf("%w: only admins can mark other volunteers", ErrForbidden)
		}
		volunteerID = *req.VolunteerID
	}

	a, err := store.MarkAttendance(ctx, &db.Attendance{
		EventID:     eventID,
		VolunteerID: volunteerID,
		MarkedAt:    now(),
		Status:      req.Status,
		Notes:       req.Notes,
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Attendance marked",
		zap.Int64("event_id", eventID),
		zap.Int64("volunteer_id", volunteerID),
		zap.String("status", a.Status),
		zap.Int64("marked_by", caller.VolunteerID))
	return a, nil
}
