package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/jakechorley/volunteer-hub/pkg/db"
)

// resourceDoc is the stored form of a resource
type resourceDoc struct {
	ID          int64     `bson:"resource_id"`
	ProjectID   int64     `bson:"project_id"`
	Name        string    `bson:"name"`
	Type        *string   `bson:"type,omitempty"`
	Quantity    int       `bson:"quantity"`
	Description *string   `bson:"description,omitempty"`
	CreatedAt   time.Time `bson:"created_at"`
}

func resourcePipeline(filter bson.M, sort bson.D) []bson.M {
	pipeline := []bson.M{
		{"$match": filter},
		lookup(colProjects, "project_id", "project_id", "project"),
		{"$unwind": "$project"},
		{"$addFields": bson.M{"project_name": "$project.name"}},
		{"$project": bson.M{"_id": 0, "project": 0}},
	}
	if sort != nil {
		pipeline = append(pipeline, bson.M{"$sort": sort})
	}
	return pipeline
}

// ListResources retrieves resources. All resources are ordered newest first;
// the resources of a single project are ordered by name.
func (d *DB) ListResources(ctx context.Context, filter db.ResourceFilter) ([]db.Resource, error) {
	match := bson.M{}
	sort := sortBy("created_at", -1, "resource_id", -1)
	if filter.ProjectID != nil {
		match["project_id"] = *filter.ProjectID
		sort = sortBy("name", 1, "resource_id", 1)
	}

	resources := []db.Resource{}
	if err := d.aggregateAll(ctx, colResources, resourcePipeline(match, sort), &resources); err != nil {
		return nil, err
	}
	return resources, nil
}

// GetResource retrieves a resource by ID
func (d *DB) GetResource(ctx context.Context, id int64) (*db.Resource, error) {
	var resources []db.Resource
	if err := d.aggregateAll(ctx, colResources, resourcePipeline(bson.M{"resource_id": id}, nil), &resources); err != nil {
		return nil, err
	}
	if len(resources) == 0 {
		return nil, db.ErrNotFound
	}
	return &resources[0], nil
}

// CreateResource inserts a resource. An unknown project yields db.ErrNotFound.
func (d *DB) CreateResource(ctx context.Context, r *db.Resource) (*db.Resource, error) {
	if err := d.requireExists(ctx, colProjects, bson.M{"project_id": r.ProjectID}); err != nil {
		return nil, err
	}

	id, err := d.nextID(ctx, colResources)
	if err != nil {
		return nil, err
	}

	doc := resourceDoc{
		ID:          id,
		ProjectID:   r.ProjectID,
		Name:        r.Name,
		Type:        r.Type,
		Quantity:    r.Quantity,
		Description: r.Description,
		CreatedAt:   r.CreatedAt,
	}
	if _, err := d.col(colResources).InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to insert resource: %w", err)
	}
	return d.GetResource(ctx, id)
}

// UpdateResource applies a partial update
func (d *DB) UpdateResource(ctx context.Context, id int64, u db.ResourceUpdate) (*db.Resource, error) {
	if u.Empty() {
		return nil, db.ErrNoChanges
	}

	set := bson.M{}
	if u.Name != nil {
		set["name"] = *u.Name
	}
	if u.Type != nil {
		set["type"] = *u.Type
	}
	if u.Quantity != nil {
		set["quantity"] = *u.Quantity
	}
	if u.Description != nil {
		set["description"] = *u.Description
	}

	res, err := d.col(colResources).UpdateOne(ctx, bson.M{"resource_id": id}, bson.M{"$set": set})
	if err != nil {
		return nil, fmt.Errorf("failed to update resource: %w", err)
	}
	if res.MatchedCount == 0 {
		return nil, db.ErrNotFound
	}
	return d.GetResource(ctx, id)
}

// DeleteResource removes a resource
func (d *DB) DeleteResource(ctx context.Context, id int64) error {
	res, err := d.col(colResources).DeleteOne(ctx, bson.M{"resource_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete resource: %w", err)
	}
	if res.DeletedCount == 0 {
		return db.ErrNotFound
	}
	return nil
}
