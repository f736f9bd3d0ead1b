package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/volunteer-hub/pkg/db"
)

const volunteerColumns = `volunteer_id, name, email, phone, join_date, status, role, created_at`

func scanVolunteer(row pgx.Row, extra ...any) (*db.Volunteer, error) {
	var v db.Volunteer
	dest := append([]any{&v.ID, &v.Name, &v.Email, &v.Phone, &v.JoinDate, &v.Status, &v.Role, &v.CreatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	v.JoinDate = utc(v.JoinDate)
	v.CreatedAt = utc(v.CreatedAt)
	return &v, nil
}

func (d *DB) queryVolunteers(ctx context.Context, query string, args ...any) ([]db.Volunteer, error) {
	rows, err := d.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query volunteers: %w", err)
	}
	defer rows.Close()

	volunteers := []db.Volunteer{}
	for rows.Next() {
		v, err := scanVolunteer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan volunteer: %w", err)
		}
		volunteers = append(volunteers, *v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating volunteers: %w", err)
	}

	return volunteers, nil
}

// ListVolunteers retrieves all volunteers, newest first
func (d *DB) ListVolunteers(ctx context.Context) ([]db.Volunteer, error) {
	return d.queryVolunteers(ctx, `
		SELECT `+volunteerColumns+`
		FROM volunteers
		ORDER BY created_at DESC, volunteer_id DESC
	`)
}

// ListVolunteersByStatus retrieves volunteers with the given status ordered by name
func (d *DB) ListVolunteersByStatus(ctx context.Context, status string) ([]db.Volunteer, error) {
	return d.queryVolunteers(ctx, `
		SELECT `+volunteerColumns+`
		FROM volunteers
		WHERE status = $1
		ORDER BY name COLLATE "C" ASC, volunteer_id ASC
	`, status)
}

// GetVolunteer retrieves a volunteer by ID
func (d *DB) GetVolunteer(ctx context.Context, id int64) (*db.Volunteer, error) {
	v, err := scanVolunteer(d.pool.QueryRow(ctx, `
		SELECT `+volunteerColumns+`
		FROM volunteers
		WHERE volunteer_id = $1
	`, id))
	if err != nil {
		return nil, wrap("get volunteer", err)
	}
	return v, nil
}

// GetVolunteerByEmail retrieves a volunteer and password hash by email
func (d *DB) GetVolunteerByEmail(ctx context.Context, email string) (*db.Volunteer, error) {
	var hash string
	v, err := scanVolunteer(d.pool.QueryRow(ctx, `
		SELECT `+volunteerColumns+`, password_hash
		FROM volunteers
		WHERE lower(email) = $1
	`, db.NormalizeEmail(email)), &hash)
	if err != nil {
		return nil, wrap("get volunteer by email", err)
	}
	v.PasswordHash = hash
	return v, nil
}

// CreateVolunteer inserts a volunteer. A case-insensitive email clash yields db.ErrEmailTaken.
func (d *DB) CreateVolunteer(ctx context.Context, v *db.Volunteer) (*db.Volunteer, error) {
	var id int64
	err := d.pool.QueryRow(ctx, `
		INSERT INTO volunteers (name, email, password_hash, phone, join_date, status, role, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING volunteer_id
	`, v.Name, v.Email, v.PasswordHash, v.Phone, v.JoinDate, v.Status, v.Role, v.CreatedAt).Scan(&id)
	if err != nil {
		return nil, wrap("insert volunteer", err)
	}
	return d.GetVolunteer(ctx, id)
}

// UpdateVolunteer applies a partial update
func (d *DB) UpdateVolunteer(ctx context.Context, id int64, u db.VolunteerUpdate) (*db.Volunteer, error) {
	if u.Empty() {
		return nil, db.ErrNoChanges
	}

	var set setClause
	if u.Name != nil {
		set.add("name", *u.Name)
	}
	if u.Email != nil {
		set.add("email", *u.Email)
	}
	if u.Phone != nil {
		set.add("phone", *u.Phone)
	}
	if u.Status != nil {
		set.add("status", *u.Status)
	}
	if u.Role != nil {
		set.add("role", *u.Role)
	}

	query, args := set.sql("volunteers", "volunteer_id", id)
	tag, err := d.pool.Exec(ctx, query, args...)
	if err != nil {
		return nil, wrap("update volunteer", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, db.ErrNotFound
	}
	return d.GetVolunteer(ctx, id)
}

// UpdateVolunteerPassword replaces the stored password hash
func (d *DB) UpdateVolunteerPassword(ctx context.Context, id int64, passwordHash string) error {
	tag, err := d.pool.Exec(ctx, `UPDATE volunteers SET password_hash = $2 WHERE volunteer_id = $1`, id, passwordHash)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return nil
}

// DeleteVolunteer removes a volunteer; memberships and attendance cascade
func (d *DB) DeleteVolunteer(ctx context.Context, id int64) error {
	tag, err := d.pool.Exec(ctx, `DELETE FROM volunteers WHERE volunteer_id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete volunteer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return nil
}

// CountVolunteersByStatus counts volunteers in each status
func (d *DB) CountVolunteersByStatus(ctx context.Context) (*db.VolunteerCounts, error) {
	var c db.VolunteerCounts
	err := d.pool.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'active'),
			COUNT(*) FILTER (WHERE status = 'inactive'),
			COUNT(*) FILTER (WHERE status = 'suspended')
		FROM volunteers
	`).Scan(&c.Total, &c.Active, &c.Inactive, &c.Suspended)
	if err != nil {
		return nil, fmt.Errorf("failed to count volunteers: %w", err)
	}
	return &c, nil
}
