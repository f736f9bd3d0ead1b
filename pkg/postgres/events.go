package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jakechorley/volunteer-hub/pkg/db"
)

const eventSelect = `
	SELECT e.event_id, e.project_id, e.name, e.description, e.event_date, e.location,
		e.max_participants, e.created_at, p.name AS project_name,
		(SELECT COUNT(*) FROM event_attendance a WHERE a.event_id = e.event_id) AS attendance_count`

const eventFrom = `
	FROM events e
	JOIN projects p ON p.project_id = e.project_id`

func eventDest(e *db.Event) []any {
	return []any{&e.ID, &e.ProjectID, &e.Name, &e.Description, &e.EventDate, &e.Location,
		&e.MaxParticipants, &e.CreatedAt, &e.ProjectName, &e.AttendanceCount}
}

func normalizeEvent(e *db.Event) {
	e.EventDate = utc(e.EventDate)
	e.CreatedAt = utc(e.CreatedAt)
}

// queryEvents runs an event query; withStatus scans a trailing attendance_status column
func (d *DB) queryEvents(ctx context.Context, withStatus bool, query string, args ...any) ([]db.Event, error) {
	rows, err := d.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	events := []db.Event{}
	for rows.Next() {
		var e db.Event
		dest := eventDest(&e)
		if withStatus {
			dest = append(dest, &e.AttendanceStatus)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		normalizeEvent(&e)
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}

	return events, nil
}

// ListEvents retrieves events, latest first, optionally for one project
func (d *DB) ListEvents(ctx context.Context, filter db.EventFilter) ([]db.Event, error) {
	if filter.ProjectID != nil {
		return d.queryEvents(ctx, false, eventSelect+eventFrom+`
			WHERE e.project_id = $1
			ORDER BY e.event_date DESC, e.event_id DESC
		`, *filter.ProjectID)
	}
	return d.queryEvents(ctx, false, eventSelect+eventFrom+`
		ORDER BY e.event_date DESC, e.event_id DESC
	`)
}

// ListUpcomingEvents retrieves events on or after now, soonest first
func (d *DB) ListUpcomingEvents(ctx context.Context, now time.Time) ([]db.Event, error) {
	return d.queryEvents(ctx, false, eventSelect+eventFrom+`
		WHERE e.event_date >= $1
		ORDER BY e.event_date ASC, e.event_id ASC
	`, now)
}

// ListEventsForVolunteer retrieves events of the projects a volunteer has
// joined, with the volunteer's attendance status where marked
func (d *DB) ListEventsForVolunteer(ctx context.Context, volunteerID int64) ([]db.Event, error) {
	return d.queryEvents(ctx, true, eventSelect+`, mine.status AS attendance_status`+eventFrom+`
		JOIN volunteer_project m ON m.project_id = e.project_id AND m.volunteer_id = $1
		LEFT JOIN event_attendance mine ON mine.event_id = e.event_id AND mine.volunteer_id = $1
		ORDER BY e.event_date DESC, e.event_id DESC
	`, volunteerID)
}

// GetEvent retrieves an event by ID
func (d *DB) GetEvent(ctx context.Context, id int64) (*db.Event, error) {
	var e db.Event
	err := d.pool.QueryRow(ctx, eventSelect+eventFrom+` WHERE e.event_id = $1`, id).Scan(eventDest(&e)...)
	if err != nil {
		return nil, wrap("get event", err)
	}
	normalizeEvent(&e)
	return &e, nil
}

// CreateEvent inserts an event. The row is selected from its project,
// so an unknown project inserts nothing, draws no ID and yields db.ErrNotFound.
func (d *DB) CreateEvent(ctx context.Context, e *db.Event) (*db.Event, error) {
	var id int64
	err := d.pool.QueryRow(ctx, `
		INSERT INTO events (project_id, name, description, event_date, location, max_participants, created_at)
		SELECT p.project_id, $2::text, $3::text, $4::timestamptz, $5::text, $6::integer, $7::timestamptz
		FROM projects p WHERE p.project_id = $1
		RETURNING event_id
	`, e.ProjectID, e.Name, e.Description, e.EventDate, e.Location, e.MaxParticipants, e.CreatedAt).Scan(&id)
	if err != nil {
		return nil, wrap("insert event", err)
	}
	return d.GetEvent(ctx, id)
}

// UpdateEvent applies a partial update
func (d *DB) UpdateEvent(ctx context.Context, id int64, u db.EventUpdate) (*db.Event, error) {
	if u.Empty() {
		return nil, db.ErrNoChanges
	}

	var set setClause
	if u.Name != nil {
		set.add("name", *u.Name)
	}
	if u.Description != nil {
		set.add("description", *u.Description)
	}
	if u.EventDate != nil {
		set.add("event_date", *u.EventDate)
	}
	if u.Location != nil {
		set.add("location", *u.Location)
	}
	if u.MaxParticipants != nil {
		set.add("max_participants", *u.MaxParticipants)
	}

	query, args := set.sql("events", "event_id", id)
	tag, err := d.pool.Exec(ctx, query, args...)
	if err != nil {
		return nil, wrap("update event", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, db.ErrNotFound
	}
	return d.GetEvent(ctx, id)
}

// DeleteEvent removes an event and its attendance
func (d *DB) DeleteEvent(ctx context.Context, id int64) error {
	tag, err := d.pool.Exec(ctx, `DELETE FROM events WHERE event_id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return nil
}
