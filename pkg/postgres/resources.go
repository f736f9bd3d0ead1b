package postgres

import (
	"context"
	"fmt"

	"github.com/jakechorley/volunteer-hub/pkg/db"
)

const resourceSelect = `
	SELECT r.resource_id, r.project_id, r.name, r.type, r.quantity, r.description, r.created_at, p.name
	FROM resources r
	JOIN projects p ON p.project_id = r.project_id`

func resourceDest(r *db.Resource) []any {
	return []any{&r.ID, &r.ProjectID, &r.Name, &r.Type, &r.Quantity, &r.Description, &r.CreatedAt, &r.ProjectName}
}

// ListResources retrieves resources. All resources are ordered newest first;
// the resources of a single project are ordered by name.
func (d *DB) ListResources(ctx context.Context, filter db.ResourceFilter) ([]db.Resource, error) {
	query := resourceSelect + ` ORDER BY r.created_at DESC, r.resource_id DESC`
	var args []any
	if filter.ProjectID != nil {
		query = resourceSelect + ` WHERE r.project_id = $1 ORDER BY r.name COLLATE "C" ASC, r.resource_id ASC`
		args = append(args, *filter.ProjectID)
	}

	rows, err := d.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query resources: %w", err)
	}
	defer rows.Close()

	resources := []db.Resource{}
	for rows.Next() {
		var r db.Resource
		if err := rows.Scan(resourceDest(&r)...); err != nil {
			return nil, fmt.Errorf("failed to scan resource: %w", err)
		}
		r.CreatedAt = utc(r.CreatedAt)
		resources = append(resources, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating resources: %w", err)
	}

	return resources, nil
}

// GetResource retrieves a resource by ID
func (d *DB) GetResource(ctx context.Context, id int64) (*db.Resource, error) {
	var r db.Resource
	if err := d.pool.QueryRow(ctx, resourceSelect+` WHERE r.resource_id = $1`, id).Scan(resourceDest(&r)...); err != nil {
		return nil, wrap("get resource", err)
	}
	r.CreatedAt = utc(r.CreatedAt)
	return &r, nil
}

// CreateResource inserts a resource. The row is selected from its project,
// so an unknown project inserts nothing, draws no ID and yields db.ErrNotFound.
func (d *DB) CreateResource(ctx context.Context, r *db.Resource) (*db.Resource, error) {
	var id int64
	err := d.pool.QueryRow(ctx, `
		INSERT INTO resources (project_id, name, type, quantity, description, created_at)
		SELECT p.project_id, $2::text, $3::text, $4::integer, $5::text, $6::timestamptz
		FROM projects p WHERE p.project_id = $1
		RETURNING resource_id
	`, r.ProjectID, r.Name, r.Type, r.Quantity, r.Description, r.CreatedAt).Scan(&id)
	if err != nil {
		return nil, wrap("insert resource", err)
	}
	return d.GetResource(ctx, id)
}

// UpdateResource applies a partial update
func (d *DB) UpdateResource(ctx context.Context, id int64, u db.ResourceUpdate) (*db.Resource, error) {
	if u.Empty() {
		return nil, db.ErrNoChanges
	}

	var set setClause
	if u.Name != nil {
		set.add("name", *u.Name)
	}
	if u.Type != nil {
		set.add("type", *u.Type)
	}
	if u.Quantity != nil {
		set.add("quantity", *u.Quantity)
	}
	if u.Description != nil {
		set.add("description", *u.Description)
	}

	query, args := set.sql("resources", "resource_id", id)
	tag, err := d.pool.Exec(ctx, query, args...)
	if err != nil {
		return nil, wrap("update resource", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, db.ErrNotFound
	}
	return d.GetResource(ctx, id)
}

// DeleteResource removes a resource
func (d *DB) DeleteResource(ctx context.Context, id int64) error {
	tag, err := d.pool.Exec(ctx, `DELETE FROM resources WHERE resource_id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete resource: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return nil
}
