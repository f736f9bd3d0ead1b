package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/volunteer-hub/pkg/db"
)

const organizationColumns = `org_id, name, description, email, phone, address, created_at`

func scanOrganization(row pgx.Row) (*db.Organization, error) {
	var o db.Organization
	if err := row.Scan(&o.ID, &o.Name, &o.Description, &o.Email, &o.Phone, &o.Address, &o.CreatedAt); err != nil {
		return nil, err
	}
	o.CreatedAt = utc(o.CreatedAt)
	return &o, nil
}

// ListOrganizations retrieves all organizations ordered by name
func (d *DB) ListOrganizations(ctx context.Context) ([]db.Organization, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT `+organizationColumns+`
		FROM organizations
		ORDER BY name COLLATE "C" ASC, org_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query organizations: %w", err)
	}
	defer rows.Close()

	orgs := []db.Organization{}
	for rows.Next() {
		o, err := scanOrganization(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan organization: %w", err)
		}
		orgs = append(orgs, *o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating organizations: %w", err)
	}

	return orgs, nil
}

// GetOrganization retrieves an organization by ID
func (d *DB) GetOrganization(ctx context.Context, id int64) (*db.Organization, error) {
	o, err := scanOrganization(d.pool.QueryRow(ctx, `
		SELECT `+organizationColumns+`
		FROM organizations
		WHERE org_id = $1
	`, id))
	if err != nil {
		return nil, wrap("get organization", err)
	}
	return o, nil
}

// CreateOrganization inserts an organization
func (d *DB) CreateOrganization(ctx context.Context, o *db.Organization) (*db.Organization, error) {
	var id int64
	err := d.pool.QueryRow(ctx, `
		INSERT INTO organizations (name, description, email, phone, address, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING org_id
	`, o.Name, o.Description, o.Email, o.Phone, o.Address, o.CreatedAt).Scan(&id)
	if err != nil {
		return nil, wrap("insert organization", err)
	}
	return d.GetOrganization(ctx, id)
}
