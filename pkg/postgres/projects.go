package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/volunteer-hub/pkg/db"
)

const projectSelect = `
	SELECT p.project_id, p.org_id, p.name, p.description, p.start_date, p.end_date,
		p.status, p.location, p.max_volunteers, p.created_at,
		o.name AS org_name,
		(SELECT COUNT(*) FROM volunteer_project vp WHERE vp.project_id = p.project_id) AS volunteer_count`

const projectFrom = `
	FROM projects p
	LEFT JOIN organizations o ON o.org_id = p.org_id`

func projectDest(p *db.Project) []any {
	return []any{&p.ID, &p.OrgID, &p.Name, &p.Description, &p.StartDate, &p.EndDate,
		&p.Status, &p.Location, &p.MaxVolunteers, &p.CreatedAt, &p.OrgName, &p.VolunteerCount}
}

func normalizeProject(p *db.Project) {
	p.StartDate = utc(p.StartDate)
	p.EndDate = utcPtr(p.EndDate)
	p.CreatedAt = utc(p.CreatedAt)
}

// ListProjects retrieves projects, optionally filtered by status. With a
// status filter projects are ordered by start date, otherwise by creation.
func (d *DB) ListProjects(ctx context.Context, filter db.ProjectFilter) ([]db.Project, error) {
	query := projectSelect
	var args []any
	if filter.ViewerID != nil {
		args = append(args, *filter.ViewerID)
		query += fmt.Sprintf(`,
		EXISTS (SELECT 1 FROM volunteer_project vp
			WHERE vp.project_id = p.project_id AND vp.volunteer_id = $%d) AS is_joined`, len(args))
	}
	query += projectFrom
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(` WHERE p.status = $%d ORDER BY p.start_date DESC, p.project_id DESC`, len(args))
	} else {
		query += ` ORDER BY p.created_at DESC, p.project_id DESC`
	}

	rows, err := d.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer rows.Close()

	projects := []db.Project{}
	for rows.Next() {
		var p db.Project
		dest := projectDest(&p)
		var joined bool
		if filter.ViewerID != nil {
			dest = append(dest, &joined)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		normalizeProject(&p)
		if filter.ViewerID != nil {
			p.IsJoined = &joined
		}
		projects = append(projects, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating projects: %w", err)
	}

	return projects, nil
}

// GetProject retrieves a project by ID
func (d *DB) GetProject(ctx context.Context, id int64) (*db.Project, error) {
	var p db.Project
	err := d.pool.QueryRow(ctx, projectSelect+projectFrom+` WHERE p.project_id = $1`, id).Scan(projectDest(&p)...)
	if err != nil {
		return nil, wrap("get project", err)
	}
	normalizeProject(&p)
	return &p, nil
}

// CreateProject inserts a project. The row is selected from its organization,
// so an unknown organization inserts nothing, draws no ID and yields db.ErrNotFound.
func (d *DB) CreateProject(ctx context.Context, p *db.Project) (*db.Project, error) {
	var id int64
	err := d.pool.QueryRow(ctx, `
		INSERT INTO projects (org_id, name, description, start_date, end_date, status, location, max_volunteers, created_at)
		SELECT o.org_id, $2::text, $3::text, $4::timestamptz, $5::timestamptz, $6::text, $7::text, $8::integer, $9::timestamptz
		FROM organizations o WHERE o.org_id = $1
		RETURNING project_id
	`, p.OrgID, p.Name, p.Description, p.StartDate, p.EndDate, p.Status, p.Location, p.MaxVolunteers, p.CreatedAt).Scan(&id)
	if err != nil {
		return nil, wrap("insert project", err)
	}
	return d.GetProject(ctx, id)
}

// UpdateProject applies a partial update
func (d *DB) UpdateProject(ctx context.Context, id int64, u db.ProjectUpdate) (*db.Project, error) {
	if u.Empty() {
		return nil, db.ErrNoChanges
	}

	var set setClause
	if u.OrgID != nil {
		set.add("org_id", *u.OrgID)
	}
	if u.Name != nil {
		set.add("name", *u.Name)
	}
	if u.Description != nil {
		set.add("description", *u.Description)
	}
	if u.StartDate != nil {
		set.add("start_date", *u.StartDate)
	}
	if u.EndDate != nil {
		set.add("end_date", *u.EndDate)
	}
	if u.Status != nil {
		set.add("status", *u.Status)
	}
	if u.Location != nil {
		set.add("location", *u.Location)
	}
	if u.MaxVolunteers != nil {
		set.add("max_volunteers", *u.MaxVolunteers)
	}

	query, args := set.sql("projects", "project_id", id)
	tag, err := d.pool.Exec(ctx, query, args...)
	if err != nil {
		return nil, wrap("update project", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, db.ErrNotFound
	}
	return d.GetProject(ctx, id)
}

// DeleteProject removes a project with its memberships, events, attendance and resources
func (d *DB) DeleteProject(ctx context.Context, id int64) error {
	tag, err := d.pool.Exec(ctx, `DELETE FROM projects WHERE project_id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return nil
}

// CountProjectsByStatus counts projects in each status
func (d *DB) CountProjectsByStatus(ctx context.Context) (*db.ProjectStatusCounts, error) {
	var c db.ProjectStatusCounts
	err := d.pool.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE status = 'planned'),
			COUNT(*) FILTER (WHERE status = 'active'),
			COUNT(*) FILTER (WHERE status = 'completed'),
			COUNT(*) FILTER (WHERE status = 'cancelled')
		FROM projects
	`).Scan(&c.Planned, &c.Active, &c.Completed, &c.Cancelled)
	if err != nil {
		return nil, fmt.Errorf("failed to count projects: %w", err)
	}
	return &c, nil
}

// ListProjectsByVolunteer retrieves the projects a volunteer has joined, most recent first
func (d *DB) ListProjectsByVolunteer(ctx context.Context, volunteerID int64) ([]db.VolunteerProject, error) {
	rows, err := d.pool.Query(ctx, projectSelect+`, m.join_date, m.role`+projectFrom+`
		JOIN volunteer_project m ON m.project_id = p.project_id
		WHERE m.volunteer_id = $1
		ORDER BY m.join_date DESC, p.project_id DESC
	`, volunteerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query volunteer projects: %w", err)
	}
	defer rows.Close()

	projects := []db.VolunteerProject{}
	for rows.Next() {
		var vp db.VolunteerProject
		dest := append(projectDest(&vp.Project), &vp.JoinDate, &vp.VolunteerRole)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan volunteer project: %w", err)
		}
		normalizeProject(&vp.Project)
		vp.JoinDate = utc(vp.JoinDate)
		projects = append(projects, vp)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating volunteer projects: %w", err)
	}

	return projects, nil
}

const membershipSelect = `
	SELECT m.volunteer_id, m.project_id, m.join_date, m.role, v.name, v.email, p.name
	FROM volunteer_project m
	JOIN volunteers v ON v.volunteer_id = m.volunteer_id
	JOIN projects p ON p.project_id = m.project_id`

func scanMembership(row pgx.Row) (*db.Membership, error) {
	var m db.Membership
	if err := row.Scan(&m.VolunteerID, &m.ProjectID, &m.JoinDate, &m.Role, &m.VolunteerName, &m.VolunteerEmail, &m.ProjectName); err != nil {
		return nil, err
	}
	m.JoinDate = utc(m.JoinDate)
	return &m, nil
}

// ListProjectMembers retrieves the members of a project in join order
func (d *DB) ListProjectMembers(ctx context.Context, projectID int64) ([]db.Membership, error) {
	rows, err := d.pool.Query(ctx, membershipSelect+`
		WHERE m.project_id = $1
		ORDER BY m.join_date ASC, m.volunteer_id ASC
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query project members: %w", err)
	}
	defer rows.Close()

	members := []db.Membership{}
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project member: %w", err)
		}
		members = append(members, *m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating project members: %w", err)
	}

	return members, nil
}

// JoinProject adds a volunteer to a project. The project row is locked for
// the duration of the transaction so concurrent joins see each other's inserts.
// Checks run in the order volunteer, project, membership, capacity.
func (d *DB) JoinProject(ctx context.Context, volunteerID, projectID int64, role string, joinedAt time.Time) (*db.Membership, error) {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var volunteerExists bool
	err = tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM volunteers WHERE volunteer_id = $1)`, volunteerID).Scan(&volunteerExists)
	if err != nil {
		return nil, fmt.Errorf("failed to check volunteer: %w", err)
	}
	if !volunteerExists {
		return nil, db.ErrVolunteerNotFound
	}

	var maxVolunteers int
	err = tx.QueryRow(ctx, `SELECT max_volunteers FROM projects WHERE project_id = $1 FOR UPDATE`, projectID).Scan(&maxVolunteers)
	if err != nil {
		return nil, wrap("lock project", err)
	}

	var joined bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM volunteer_project WHERE volunteer_id = $1 AND project_id = $2)
	`, volunteerID, projectID).Scan(&joined)
	if err != nil {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}
	if joined {
		return nil, db.ErrAlreadyJoined
	}

	var count int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM volunteer_project WHERE project_id = $1`, projectID).Scan(&count); err != nil {
		return nil, fmt.Errorf("failed to count members: %w", err)
	}
	if count >= maxVolunteers {
		return nil, db.ErrProjectFull
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO volunteer_project (volunteer_id, project_id, join_date, role)
		VALUES ($1, $2, $3, $4)
	`, volunteerID, projectID, joinedAt, role)
	if err != nil {
		return nil, wrap("insert membership", err)
	}

	m, err := scanMembership(tx.QueryRow(ctx, membershipSelect+`
		WHERE m.volunteer_id = $1 AND m.project_id = $2
	`, volunteerID, projectID))
	if err != nil {
		return nil, wrap("read membership", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return m, nil
}

// LeaveProject removes a membership
func (d *DB) LeaveProject(ctx context.Context, volunteerID, projectID int64) error {
	tag, err := d.pool.Exec(ctx, `
		DELETE FROM volunteer_project WHERE volunteer_id = $1 AND project_id = $2
	`, volunteerID, projectID)
	if err != nil {
		return fmt.Errorf("failed to delete membership: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotMember
	}
	return nil
}
