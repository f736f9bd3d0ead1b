package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jakechorley/volunteer-hub/pkg/db"
)

// AdminDashboard computes organisation-wide statistics
func (d *DB) AdminDashboard(ctx context.Context, now time.Time) (*db.AdminDashboardStats, error) {
	stats := &db.AdminDashboardStats{}

	err := d.pool.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE status = 'active') FROM volunteers
	`).Scan(&stats.TotalVolunteers, &stats.ActiveVolunteers)
	if err != nil {
		return nil, fmt.Errorf("failed to count volunteers: %w", err)
	}

	breakdown, err := d.CountProjectsByStatus(ctx)
	if err != nil {
		return nil, err
	}
	stats.ProjectStatusBreakdown = *breakdown
	stats.TotalProjects = breakdown.Total()
	stats.ActiveProjects = breakdown.Active

	err = d.pool.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE event_date >= $1) FROM events
	`, now).Scan(&stats.TotalEvents, &stats.UpcomingEvents)
	if err != nil {
		return nil, fmt.Errorf("failed to count events: %w", err)
	}

	rows, err := d.pool.Query(ctx, `
		SELECT p.project_id, p.name, COUNT(m.volunteer_id) AS volunteer_count
		FROM projects p
		LEFT JOIN volunteer_project m ON m.project_id = p.project_id
		GROUP BY p.project_id, p.name
		ORDER BY volunteer_count DESC, p.project_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query volunteers per project: %w", err)
	}
	defer rows.Close()

	stats.VolunteersPerProject = []db.ProjectVolunteerCount{}
	for rows.Next() {
		var c db.ProjectVolunteerCount
		if err := rows.Scan(&c.ProjectID, &c.ProjectName, &c.VolunteerCount); err != nil {
			return nil, fmt.Errorf("failed to scan volunteers per project: %w", err)
		}
		stats.VolunteersPerProject = append(stats.VolunteersPerProject, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating volunteers per project: %w", err)
	}

	var eventsWithAttendance int
	err = d.pool.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT event_id)
		FROM event_attendance
		WHERE status = 'present'
	`).Scan(&stats.AttendanceStats.TotalAttendances, &eventsWithAttendance)
	if err != nil {
		return nil, fmt.Errorf("failed to summarise attendance: %w", err)
	}
	stats.AttendanceStats.AverageAttendancePerEvent = db.AveragePerEvent(stats.AttendanceStats.TotalAttendances, eventsWithAttendance)

	return stats, nil
}

// VolunteerDashboard computes the statistics of one volunteer
func (d *DB) VolunteerDashboard(ctx context.Context, volunteerID int64, now time.Time) (*db.VolunteerDashboardStats, error) {
	stats := &db.VolunteerDashboardStats{VolunteerID: volunteerID}

	err := d.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM volunteer_project WHERE volunteer_id = $1),
			(SELECT COUNT(*) FROM event_attendance WHERE volunteer_id = $1 AND status = 'present'),
			(SELECT COUNT(*) FROM events e
				JOIN volunteer_project m ON m.project_id = e.project_id
				WHERE m.volunteer_id = $1 AND e.event_date >= $2)
	`, volunteerID, now).Scan(&stats.ProjectsJoined, &stats.EventsAttended, &stats.UpcomingEvents)
	if err != nil {
		return nil, fmt.Errorf("failed to count volunteer activity: %w", err)
	}

	rows, err := d.pool.Query(ctx, `
		SELECT p.project_id, p.name, m.join_date, m.role
		FROM volunteer_project m
		JOIN projects p ON p.project_id = m.project_id
		WHERE m.volunteer_id = $1
		ORDER BY m.join_date DESC, p.project_id DESC
	`, volunteerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query volunteer projects: %w", err)
	}
	defer rows.Close()

	stats.Projects = []db.DashboardProject{}
	for rows.Next() {
		var p db.DashboardProject
		if err := rows.Scan(&p.ProjectID, &p.ProjectName, &p.JoinDate, &p.Role); err != nil {
			return nil, fmt.Errorf("failed to scan volunteer project: %w", err)
		}
		p.JoinDate = utc(p.JoinDate)
		stats.Projects = append(stats.Projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating volunteer projects: %w", err)
	}

	eventRows, err := d.pool.Query(ctx, `
		SELECT e.event_id, e.name, e.event_date, a.status
		FROM event_attendance a
		JOIN events e ON e.event_id = a.event_id
		WHERE a.volunteer_id = $1
		ORDER BY e.event_date DESC, e.event_id DESC
		LIMIT $2
	`, volunteerID, db.RecentEventsLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent events: %w", err)
	}
	defer eventRows.Close()

	stats.RecentEvents = []db.DashboardEvent{}
	for eventRows.Next() {
		var e db.DashboardEvent
		if err := eventRows.Scan(&e.EventID, &e.EventName, &e.EventDate, &e.Status); err != nil {
			return nil, fmt.Errorf("failed to scan recent event: %w", err)
		}
		e.EventDate = utc(e.EventDate)
		stats.RecentEvents = append(stats.RecentEvents, e)
	}
	if err := eventRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recent events: %w", err)
	}

	return stats, nil
}

// ProjectStats summarises one project
func (d *DB) ProjectStats(ctx context.Context, projectID int64) (*db.ProjectStats, error) {
	stats := &db.ProjectStats{ProjectID: projectID}
	err := d.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM volunteer_project WHERE project_id = p.project_id),
			(SELECT COUNT(*) FROM events WHERE project_id = p.project_id),
			(SELECT COUNT(*) FROM resources WHERE project_id = p.project_id),
			(SELECT COUNT(DISTINCT a.volunteer_id) FROM event_attendance a
				JOIN events e ON e.event_id = a.event_id
				WHERE e.project_id = p.project_id AND a.status = 'present')
		FROM projects p
		WHERE p.project_id = $1
	`, projectID).Scan(&stats.VolunteerCount, &stats.EventCount, &stats.ResourceCount, &stats.TotalAttendance)
	if err != nil {
		return nil, wrap("get project stats", err)
	}
	return stats, nil
}

// RecentActivity merges joins, present attendance and event creation into one feed, newest first
func (d *DB) RecentActivity(ctx context.Context, limit int) ([]db.Activity, error) {
	if limit <= 0 {
		limit = db.DefaultActivityLimit
	}

	rows, err := d.pool.Query(ctx, `
		SELECT activity_type, description, activity_date FROM (
			SELECT 'volunteer_joined' AS activity_type,
				v.name || ' joined project ' || p.name AS description,
				m.join_date AS activity_date
			FROM volunteer_project m
			JOIN volunteers v ON v.volunteer_id = m.volunteer_id
			JOIN projects p ON p.project_id = m.project_id

			UNION ALL

			SELECT 'attendance_marked',
				v.name || ' attended ' || e.name,
				a.marked_at
			FROM event_attendance a
			JOIN volunteers v ON v.volunteer_id = a.volunteer_id
			JOIN events e ON e.event_id = a.event_id
			WHERE a.status = 'present'

			UNION ALL

			SELECT 'event_created',
				'New event: ' || e.name,
				e.created_at
			FROM events e
		) feed
		ORDER BY activity_date DESC, activity_type ASC, description COLLATE "C" ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent activity: %w", err)
	}
	defer rows.Close()

	activities := []db.Activity{}
	for rows.Next() {
		var a db.Activity
		if err := rows.Scan(&a.ActivityType, &a.Description, &a.ActivityDate); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		a.ActivityDate = utc(a.ActivityDate)
		activities = append(activities, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activity: %w", err)
	}

	return activities, nil
}
