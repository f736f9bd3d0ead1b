package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-hub/pkg/db"
	"github.com/jakechorley/volunteer-hub/pkg/schemas"
)

// CreateOrganization creates an organization
func CreateOrganization(ctx context.Context, store db.OrganizationStore, logger *zap.Logger, req schemas.CreateOrganizationRequest) (*db.Organization, error) {
	o, err := store.CreateOrganization(ctx, req.Organization(now()))
	if err != nil {
		return nil, err
	}
	logger.Info("Organization created", zap.Int64("org_id", o.ID), zap.String("name", o.Name))
	return o, nil
}

// CreateResource adds a resource to a project
func CreateResource(ctx context.Context, store db.ResourceStore, logger *zap.Logger, req schemas.CreateResourceRequest) (*db.Resource, error) {
	r, err := store.CreateResource(ctx, req.Resource(now()))
	if err != nil {
		return nil, err
	}
	logger.Info("Resource created",
		zap.Int64("resource_id", r.ID),
		zap.Int64("project_id", r.ProjectID),
		zap.Int("quantity", r.Quantity))
	return r, nil
}

// DeleteVolunteer removes a volunteer together with their memberships and attendance
func DeleteVolunteer(ctx context.Context, store db.VolunteerStore, logger *zap.Logger, id int64) error {
	if err := store.DeleteVolunteer(ctx, id); err != nil {
		return err
	}
	logger.Info("Volunteer deleted", zap.Int64("volunteer_id", id))
	return nil
}
