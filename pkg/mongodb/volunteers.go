package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/jakechorley/volunteer-hub/pkg/db"
)

// volunteerDoc is the stored form of a volunteer
type volunteerDoc struct {
	ID           int64     `bson:"volunteer_id"`
	Name         string    `bson:"name"`
	Email        string    `bson:"email"`
	EmailLower   string    `bson:"email_lower"`
	PasswordHash string    `bson:"password_hash"`
	Phone        *string   `bson:"phone,omitempty"`
	JoinDate     time.Time `bson:"join_date"`
	Status       string    `bson:"status"`
	Role         string    `bson:"role"`
	CreatedAt    time.Time `bson:"created_at"`
}

var volunteerProjection = bson.M{"_id": 0, "email_lower": 0, "password_hash": 0}

func (d *DB) findVolunteers(ctx context.Context, filter bson.M, sort bson.D) ([]db.Volunteer, error) {
	cursor, err := d.col(colVolunteers).Find(ctx, filter,
		options.Find().SetSort(sort).SetProjection(volunteerProjection))
	if err != nil {
		return nil, fmt.Errorf("failed to query volunteers: %w", err)
	}

	volunteers := []db.Volunteer{}
	if err := cursor.All(ctx, &volunteers); err != nil {
		return nil, fmt.Errorf("failed to decode volunteers: %w", err)
	}
	return volunteers, nil
}

// ListVolunteers retrieves all volunteers, newest first
func (d *DB) ListVolunteers(ctx context.Context) ([]db.Volunteer, error) {
	return d.findVolunteers(ctx, bson.M{}, sortBy("created_at", -1, "volunteer_id", -1))
}

// ListVolunteersByStatus retrieves volunteers with the given status ordered by name
func (d *DB) ListVolunteersByStatus(ctx context.Context, status string) ([]db.Volunteer, error) {
	return d.findVolunteers(ctx, bson.M{"status": status}, sortBy("name", 1, "volunteer_id", 1))
}

// GetVolunteer retrieves a volunteer by ID
func (d *DB) GetVolunteer(ctx context.Context, id int64) (*db.Volunteer, error) {
	var v db.Volunteer
	err := d.col(colVolunteers).FindOne(ctx, bson.M{"volunteer_id": id},
		options.FindOne().SetProjection(volunteerProjection)).Decode(&v)
	if err != nil {
		return nil, notFound("get volunteer", err)
	}
	return &v, nil
}

// GetVolunteerByEmail retrieves a volunteer and password hash by email
func (d *DB) GetVolunteerByEmail(ctx context.Context, email string) (*db.Volunteer, error) {
	var v db.Volunteer
	err := d.col(colVolunteers).FindOne(ctx, bson.M{"email_lower": db.NormalizeEmail(email)},
		options.FindOne().SetProjection(bson.M{"_id": 0, "email_lower": 0})).Decode(&v)
	if err != nil {
		return nil, notFound("get volunteer by email", err)
	}
	return &v, nil
}

// CreateVolunteer inserts a volunteer. The unique index on email_lower yields db.ErrEmailTaken.
func (d *DB) CreateVolunteer(ctx context.Context, v *db.Volunteer) (*db.Volunteer, error) {
	id, err := d.nextID(ctx, colVolunteers)
	if err != nil {
		return nil, err
	}

	doc := volunteerDoc{
		ID:           id,
		Name:         v.Name,
		Email:        v.Email,
		EmailLower:   db.NormalizeEmail(v.Email),
		PasswordHash: v.PasswordHash,
		Phone:        v.Phone,
		JoinDate:     v.JoinDate,
		Status:       v.Status,
		Role:         v.Role,
		CreatedAt:    v.CreatedAt,
	}
	if _, err := d.col(colVolunteers).InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, db.ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to insert volunteer: %w", err)
	}
	return d.GetVolunteer(ctx, id)
}

// UpdateVolunteer applies a partial update
func (d *DB) UpdateVolunteer(ctx context.Context, id int64, u db.VolunteerUpdate) (*db.Volunteer, error) {
	if u.Empty() {
		return nil, db.ErrNoChanges
	}

	set := bson.M{}
	if u.Name != nil {
		set["name"] = *u.Name
	}
	if u.Email != nil {
		set["email"] = *u.Email
		set["email_lower"] = db.NormalizeEmail(*u.Email)
	}
	if u.Phone != nil {
		set["phone"] = *u.Phone
	}
	if u.Status != nil {
		set["status"] = *u.Status
	}
	if u.Role != nil {
		set["role"] = *u.Role
	}

	res, err := d.col(colVolunteers).UpdateOne(ctx, bson.M{"volunteer_id": id}, bson.M{"$set": set})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, db.ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to update volunteer: %w", err)
	}
	if res.MatchedCount == 0 {
		return nil, db.ErrNotFound
	}
	return d.GetVolunteer(ctx, id)
}

// UpdateVolunteerPassword replaces the stored password hash
func (d *DB) UpdateVolunteerPassword(ctx context.Context, id int64, passwordHash string) error {
	res, err := d.col(colVolunteers).UpdateOne(ctx,
		bson.M{"volunteer_id": id},
		bson.M{"$set": bson.M{"password_hash": passwordHash}})
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if res.MatchedCount == 0 {
		return db.ErrNotFound
	}
	return nil
}

// DeleteVolunteer removes a volunteer with their memberships and attendance,
// releasing the seats they held
func (d *DB) DeleteVolunteer(ctx context.Context, id int64) error {
	return d.withTx(ctx, func(ctx context.Context) error {
		res, err := d.col(colVolunteers).DeleteOne(ctx, bson.M{"volunteer_id": id})
		if err != nil {
			return fmt.Errorf("failed to delete volunteer: %w", err)
		}
		if res.DeletedCount == 0 {
			return db.ErrNotFound
		}

		held, err := d.memberCounts(ctx, bson.M{"volunteer_id": id})
		if err != nil {
			return err
		}
		if _, err := d.col(colMemberships).DeleteMany(ctx, bson.M{"volunteer_id": id}); err != nil {
			return fmt.Errorf("failed to delete memberships: %w", err)
		}
		for projectID := range held {
			if err := d.releaseSeat(ctx, projectID); err != nil {
				return err
			}
		}

		if _, err := d.col(colAttendance).DeleteMany(ctx, bson.M{"volunteer_id": id}); err != nil {
			return fmt.Errorf("failed to delete attendance: %w", err)
		}
		return nil
	})
}

// CountVolunteersByStatus counts volunteers in each status
func (d *DB) CountVolunteersByStatus(ctx context.Context) (*db.VolunteerCounts, error) {
	counts, err := d.countBy(ctx, colVolunteers, "status", bson.M{})
	if err != nil {
		return nil, err
	}
	c := &db.VolunteerCounts{
		Active:    counts[db.VolunteerActive],
		Inactive:  counts[db.VolunteerInactive],
		Suspended: counts[db.VolunteerSuspended],
	}
	for _, n := range counts {
		c.Total += n
	}
	return c, nil
}

// countBy groups the documents matching filter by a string field and counts each group
func (d *DB) countBy(ctx context.Context, collection, field string, filter bson.M) (map[string]int, error) {
	var rows []struct {
		Key string `bson:"_id"`
		N   int    `bson:"n"`
	}
	err := d.aggregateAll(ctx, collection, []bson.M{
		{"$match": filter},
		{"$group": bson.M{"_id": "$" + field, "n": bson.M{"$sum": 1}}},
	}, &rows)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		counts[r.Key] = r.N
	}
	return counts, nil
}
