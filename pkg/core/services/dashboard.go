package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-hub/pkg/db"
)

// AdminDashboard computes the organisation-wide dashboard as of now
func AdminDashboard(ctx context.Context, store db.DashboardStore, logger *zap.Logger) (*db.AdminDashboardStats, error) {
	logger.Debug("Computing admin dashboard")
	return store.AdminDashboard(ctx, now())
}

// VolunteerDashboard computes a volunteer's dashboard as of now
func VolunteerDashboard(ctx context.Context, store db.DashboardStore, logger *zap.Logger, volunteerID int64) (*db.VolunteerDashboardStats, error) {
	logger.Debug("Computing volunteer dashboard", zap.Int64("volunteer_id", volunteerID))
	return store.VolunteerDashboard(ctx, volunteerID, now())
}

// RecentActivity returns the newest activity entries, at most limit of them.
// Limits outside 1..100 fall back to the default.
func RecentActivity(ctx context.Context, store db.DashboardStore, logger *zap.Logger, limit int) ([]db.Activity, error) {
	if limit <= 0 || limit > 100 {
		limit = db.DefaultActivityLimit
	}
	return store.RecentActivity(ctx, limit)
}
