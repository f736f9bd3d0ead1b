package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/jakechorley/volunteer-hub/pkg/db"
)

func (d *DB) count(ctx context.Context, collection string, filter bson.M) (int, error) {
	n, err := d.col(collection).CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", collection, err)
	}
	return int(n), nil
}

// AdminDashboard computes organisation-wide statistics
func (d *DB) AdminDashboard(ctx context.Context, now time.Time) (*db.AdminDashboardStats, error) {
	stats := &db.AdminDashboardStats{}

	volunteers, err := d.CountVolunteersByStatus(ctx)
	if err != nil {
		return nil, err
	}
	stats.TotalVolunteers = volunteers.Total
	stats.ActiveVolunteers = volunteers.Active

	breakdown, err := d.CountProjectsByStatus(ctx)
	if err != nil {
		return nil, err
	}
	stats.ProjectStatusBreakdown = *breakdown
	stats.TotalProjects = breakdown.Total()
	stats.ActiveProjects = breakdown.Active

	if stats.TotalEvents, err = d.count(ctx, colEvents, bson.M{}); err != nil {
		return nil, err
	}
	if stats.UpcomingEvents, err = d.count(ctx, colEvents, bson.M{"event_date": bson.M{"$gte": now}}); err != nil {
		return nil, err
	}

	stats.VolunteersPerProject = []db.ProjectVolunteerCount{}
	err = d.aggregateAll(ctx, colProjects, []bson.M{
		lookup(colMemberships, "project_id", "project_id", "members"),
		{"$project": bson.M{
			"_id":             0,
			"project_id":      1,
			"project_name":    "$name",
			"volunteer_count": bson.M{"$size": "$members"},
		}},
		{"$sort": sortBy("volunteer_count", -1, "project_id", 1)},
	}, &stats.VolunteersPerProject)
	if err != nil {
		return nil, err
	}

	var summary []struct {
		Total  int `bson:"total"`
		Events int `bson:"events"`
	}
	err = d.aggregateAll(ctx, colAttendance, []bson.M{
		{"$match": bson.M{"status": db.AttendancePresent}},
		{"$group": bson.M{"_id": "$event_id", "n": bson.M{"$sum": 1}}},
		{"$group": bson.M{"_id": nil, "total": bson.M{"$sum": "$n"}, "events": bson.M{"$sum": 1}}},
	}, &summary)
	if err != nil {
		return nil, err
	}
	if len(summary) > 0 {
		stats.AttendanceStats.TotalAttendances = summary[0].Total
		stats.AttendanceStats.AverageAttendancePerEvent = db.AveragePerEvent(summary[0].Total, summary[0].Events)
	}

	return stats, nil
}

// VolunteerDashboard computes the statistics of one volunteer
func (d *DB) VolunteerDashboard(ctx context.Context, volunteerID int64, now time.Time) (*db.VolunteerDashboardStats, error) {
	stats := &db.VolunteerDashboardStats{VolunteerID: volunteerID}

	projectIDs, err := d.joinedProjectIDs(ctx, volunteerID)
	if err != nil {
		return nil, err
	}
	stats.ProjectsJoined = len(projectIDs)

	stats.EventsAttended, err = d.count(ctx, colAttendance, bson.M{"volunteer_id": volunteerID, "status": db.AttendancePresent})
	if err != nil {
		return nil, err
	}

	if len(projectIDs) > 0 {
		stats.UpcomingEvents, err = d.count(ctx, colEvents, bson.M{
			"project_id": bson.M{"$in": projectIDs},
			"event_date": bson.M{"$gte": now},
		})
		if err != nil {
			return nil, err
		}
	}

	stats.Projects = []db.DashboardProject{}
	err = d.aggregateAll(ctx, colMemberships, []bson.M{
		{"$match": bson.M{"volunteer_id": volunteerID}},
		lookup(colProjects, "project_id", "project_id", "project"),
		{"$unwind": "$project"},
		{"$project": bson.M{
			"_id":          0,
			"project_id":   1,
			"project_name": "$project.name",
			"join_date":    1,
			"role":         1,
		}},
		{"$sort": sortBy("join_date", -1, "project_id", -1)},
	}, &stats.Projects)
	if err != nil {
		return nil, err
	}

	stats.RecentEvents = []db.DashboardEvent{}
	err = d.aggregateAll(ctx, colAttendance, []bson.M{
		{"$match": bson.M{"volunteer_id": volunteerID}},
		lookup(colEvents, "event_id", "event_id", "event"),
		{"$unwind": "$event"},
		{"$project": bson.M{
			"_id":        0,
			"event_id":   1,
			"event_name": "$event.name",
			"event_date": "$event.event_date",
			"status":     1,
		}},
		{"$sort": sortBy("event_date", -1, "event_id", -1)},
		{"$limit": db.RecentEventsLimit},
	}, &stats.RecentEvents)
	if err != nil {
		return nil, err
	}

	return stats, nil
}

// ProjectStats summarises one project
func (d *DB) ProjectStats(ctx context.Context, projectID int64) (*db.ProjectStats, error) {
	if err := d.requireExists(ctx, colProjects, bson.M{"project_id": projectID}); err != nil {
		return nil, err
	}

	stats := &db.ProjectStats{ProjectID: projectID}
	var err error
	byProject := bson.M{"project_id": projectID}
	if stats.VolunteerCount, err = d.count(ctx, colMemberships, byProject); err != nil {
		return nil, err
	}
	if stats.EventCount, err = d.count(ctx, colEvents, byProject); err != nil {
		return nil, err
	}
	if stats.ResourceCount, err = d.count(ctx, colResources, byProject); err != nil {
		return nil, err
	}

	eventIDs, err := d.eventIDs(ctx, byProject)
	if err != nil {
		return nil, err
	}
	if len(eventIDs) > 0 {
		var present []struct {
			N int `bson:"n"`
		}
		err = d.aggregateAll(ctx, colAttendance, []bson.M{
			{"$match": bson.M{"event_id": bson.M{"$in": eventIDs}, "status": db.AttendancePresent}},
			{"$group": bson.M{"_id": "$volunteer_id"}},
			{"$count": "n"},
		}, &present)
		if err != nil {
			return nil, err
		}
		if len(present) > 0 {
			stats.TotalAttendance = present[0].N
		}
	}

	return stats, nil
}

// RecentActivity merges joins, present attendance and event creation into one feed, newest first
func (d *DB) RecentActivity(ctx context.Context, limit int) ([]db.Activity, error) {
	if limit <= 0 {
		limit = db.DefaultActivityLimit
	}

	attended := []bson.M{
		{"$match": bson.M{"status": db.AttendancePresent}},
		lookup(colVolunteers, "volunteer_id", "volunteer_id", "volunteer"),
		lookup(colEvents, "event_id", "event_id", "event"),
		{"$unwind": "$volunteer"},
		{"$unwind": "$event"},
		{"$project": bson.M{
			"_id":           0,
			"activity_type": bson.M{"$literal": db.ActivityAttendanceMarked},
			"description":   bson.M{"$concat": bson.A{"$volunteer.name", " attended ", "$event.name"}},
			"activity_date": "$marked_at",
		}},
	}

	created := []bson.M{
		{"$project": bson.M{
			"_id":           0,
			"activity_type": bson.M{"$literal": db.ActivityEventCreated},
			"description":   bson.M{"$concat": bson.A{"New event: ", "$name"}},
			"activity_date": "$created_at",
		}},
	}

	pipeline := []bson.M{
		lookup(colVolunteers, "volunteer_id", "volunteer_id", "volunteer"),
		lookup(colProjects, "project_id", "project_id", "project"),
		{"$unwind": "$volunteer"},
		{"$unwind": "$project"},
		{"$project": bson.M{
			"_id":           0,
			"activity_type": bson.M{"$literal": db.ActivityVolunteerJoined},
			"description":   bson.M{"$concat": bson.A{"$volunteer.name", " joined project ", "$project.name"}},
			"activity_date": "$join_date",
		}},
		{"$unionWith": bson.M{"coll": colAttendance, "pipeline": attended}},
		{"$unionWith": bson.M{"coll": colEvents, "pipeline": created}},
		{"$sort": sortBy("activity_date", -1, "activity_type", 1, "description", 1)},
		{"$limit": limit},
	}

	activities := []db.Activity{}
	if err := d.aggregateAll(ctx, colMemberships, pipeline, &activities); err != nil {
		return nil, err
	}
	return activities, nil
}
