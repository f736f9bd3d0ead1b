package services

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-hub/pkg/db"
	"github.com/jakechorley/volunteer-hub/pkg/schemas"
)

// CreateProject creates a project
func CreateProject(ctx context.Context, store db.ProjectStore, logger *zap.Logger, req schemas.CreateProjectRequest) (*db.Project, error) {
	p, err := store.CreateProject(ctx, req.Project(now()))
	if err != nil {
		return nil, err
	}
	logger.Info("Project created",
		zap.Int64("project_id", p.ID),
		zap.String("name", p.Name),
		zap.Int("max_volunteers", p.MaxVolunteers))
	return p, nil
}

// UpdateProject applies a partial update. A date range touched by the
// update is checked against the stored dates it leaves in place.
func UpdateProject(ctx context.Context, store db.ProjectStore, logger *zap.Logger, id int64, req schemas.UpdateProjectRequest) (*db.Project, error) {
	u := req.Update()
	if (u.StartDate == nil) != (u.EndDate == nil) {
		current, err := store.GetProject(ctx, id)
		if err != nil {
			return nil, err
		}
		start, end := current.StartDate, current.EndDate
		if u.StartDate != nil {
			start = *u.StartDate
		}
		if u.EndDate != nil {
			end = u.EndDate
		}
		if end != nil && end.Before(start) {
			fe := schemas.FieldError{Field: "endDate", Message: "must not be before startDate"}
			if u.StartDate != nil {
				fe = schemas.FieldError{Field: "startDate", Message: "must not be after endDate"}
			}
			return nil, &schemas.ValidationError{Fields: []schemas.FieldError{fe}}
		}
	}

	p, err := store.UpdateProject(ctx, id, u)
	if err != nil {
		return nil, err
	}
	logger.Info("Project updated", zap.Int64("project_id", p.ID), zap.String("status", p.Status))
	return p, nil
}

// ListProjects lists projects. When viewerID is set each project reports
// whether that volunteer has joined it.
func ListProjects(ctx context.Context, store db.ProjectStore, logger *zap.Logger, status string, viewerID *int64) ([]db.Project, error) {
	if status != "" {
		switch status {
		case db.ProjectPlanned, db.ProjectActive, db.ProjectCompleted, db.ProjectCancelled:
		default:
			return nil, &schemas.ValidationError{Fields: []schemas.FieldError{{
				Field:   "status",
				Message: "must be one of: planned, active, completed, cancelled",
			}}}
		}
	}
	return store.ListProjects(ctx, db.ProjectFilter{Status: status, ViewerID: viewerID})
}

// JoinProject adds a volunteer to a project
func JoinProject(ctx context.Context, store db.ProjectStore, logger *zap.Logger, volunteerID, projectID int64, req schemas.JoinProjectRequest) (*db.Membership, error) {
	m, err := store.JoinProject(ctx, volunteerID, projectID, req.MemberRole(), now())
	if err != nil {
		if errors.Is(err, db.ErrProjectFull) || errors.Is(err, db.ErrAlreadyJoined) {
			logger.Debug("Join rejected",
				zap.Int64("volunteer_id", volunteerID),
				zap.Int64("project_id", projectID),
				zap.Error(err))
		}
		return nil, err
	}

	logger.Info("Volunteer joined project",
		zap.Int64("volunteer_id", volunteerID),
		zap.Int64("project_id", projectID),
		zap.String("role", m.Role))
	return m, nil
}

// LeaveProject removes a volunteer from a project
func LeaveProject(ctx context.Context, store db.ProjectStore, logger *zap.Logger, volunteerID, projectID int64) error {
	if err := store.LeaveProject(ctx, volunteerID, projectID); err != nil {
		return err
	}
	logger.Info("Volunteer left project",
		zap.Int64("volunteer_id", volunteerID),
		zap.Int64("project_id", projectID))
	return nil
}
