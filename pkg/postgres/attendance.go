package postgres

import (
	"context"
	"fmt"

	"github.com/jakechorley/volunteer-hub/pkg/db"
)

const attendanceSelect = `
	SELECT a.event_id, a.volunteer_id, a.marked_at, a.status, a.notes, e.name, v.name`

const attendanceFrom = `
	FROM event_attendance a
	JOIN events e ON e.event_id = a.event_id
	JOIN volunteers v ON v.volunteer_id = a.volunteer_id`

func attendanceDest(a *db.Attendance) []any {
	return []any{&a.EventID, &a.VolunteerID, &a.MarkedAt, &a.Status, &a.Notes, &a.EventName, &a.VolunteerName}
}

// ListAttendanceByEvent retrieves attendance for an event ordered by volunteer name
func (d *DB) ListAttendanceByEvent(ctx context.Context, eventID int64) ([]db.Attendance, error) {
	rows, err := d.pool.Query(ctx, attendanceSelect+attendanceFrom+`
		WHERE a.event_id = $1
		ORDER BY v.name COLLATE "C" ASC, a.volunteer_id ASC
	`, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance: %w", err)
	}
	defer rows.Close()

	records := []db.Attendance{}
	for rows.Next() {
		var a db.Attendance
		if err := rows.Scan(attendanceDest(&a)...); err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		a.MarkedAt = utc(a.MarkedAt)
		records = append(records, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating attendance: %w", err)
	}

	return records, nil
}

// ListAttendanceByVolunteer retrieves a volunteer's attendance, latest event first
func (d *DB) ListAttendanceByVolunteer(ctx context.Context, volunteerID int64) ([]db.Attendance, error) {
	rows, err := d.pool.Query(ctx, attendanceSelect+`, e.event_date, p.name`+attendanceFrom+`
		JOIN projects p ON p.project_id = e.project_id
		WHERE a.volunteer_id = $1
		ORDER BY e.event_date DESC, a.event_id DESC
	`, volunteerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance: %w", err)
	}
	defer rows.Close()

	records := []db.Attendance{}
	for rows.Next() {
		var a db.Attendance
		dest := append(attendanceDest(&a), &a.EventDate, &a.ProjectName)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		a.MarkedAt = utc(a.MarkedAt)
		a.EventDate = utcPtr(a.EventDate)
		records = append(records, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating attendance: %w", err)
	}

	return records, nil
}

// MarkAttendance records attendance, overwriting any earlier mark for the same pair
func (d *DB) MarkAttendance(ctx context.Context, a *db.Attendance) (*db.Attendance, error) {
	_, err := d.pool.Exec(ctx, `
		INSERT INTO event_attendance (event_id, volunteer_id, marked_at, status, notes)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (event_id, volunteer_id)
		DO UPDATE SET marked_at = EXCLUDED.marked_at, status = EXCLUDED.status, notes = EXCLUDED.notes
	`, a.EventID, a.VolunteerID, a.MarkedAt, a.Status, a.Notes)
	if err != nil {
		return nil, wrap("mark attendance", err)
	}

	var out db.Attendance
	err = d.pool.QueryRow(ctx, attendanceSelect+attendanceFrom+`
		WHERE a.event_id = $1 AND a.volunteer_id = $2
	`, a.EventID, a.VolunteerID).Scan(attendanceDest(&out)...)
	if err != nil {
		return nil, wrap("read attendance", err)
	}
	out.MarkedAt = utc(out.MarkedAt)
	return &out, nil
}

// DeleteAttendance removes an attendance record
func (d *DB) DeleteAttendance(ctx context.Context, eventID, volunteerID int64) error {
	tag, err := d.pool.Exec(ctx, `
		DELETE FROM event_attendance WHERE event_id = $1 AND volunteer_id = $2
	`, eventID, volunteerID)
	if err != nil {
		return fmt.Errorf("failed to delete attendance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return nil
}
