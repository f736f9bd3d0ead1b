package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/jakechorley/volunteer-hub/pkg/db"
)

// ListOrganizations retrieves all organizations ordered by name
func (d *DB) ListOrganizations(ctx context.Context) ([]db.Organization, error) {
	cursor, err := d.col(colOrganizations).Find(ctx, bson.M{},
		options.Find().SetSort(sortBy("name", 1, "org_id", 1)).SetProjection(bson.M{"_id": 0}))
	if err != nil {
		return nil, fmt.Errorf("failed to query organizations: %w", err)
	}

	orgs := []db.Organization{}
	if err := cursor.All(ctx, &orgs); err != nil {
		return nil, fmt.Errorf("failed to decode organizations: %w", err)
	}
	return orgs, nil
}

// GetOrganization retrieves an organization by ID
func (d *DB) GetOrganization(ctx context.Context, id int64) (*db.Organization, error) {
	var o db.Organization
	err := d.col(colOrganizations).FindOne(ctx, bson.M{"org_id": id},
		options.FindOne().SetProjection(bson.M{"_id": 0})).Decode(&o)
	if err != nil {
		return nil, notFound("get organization", err)
	}
	return &o, nil
}

// CreateOrganization inserts an organization
func (d *DB) CreateOrganization(ctx context.Context, o *db.Organization) (*db.Organization, error) {
	id, err := d.nextID(ctx, colOrganizations)
	if err != nil {
		return nil, err
	}

	doc := *o
	doc.ID = id
	if _, err := d.col(colOrganizations).InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to insert organization: %w", err)
	}
	return d.GetOrganization(ctx, id)
}
