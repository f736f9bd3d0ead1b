package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/jakechorley/volunteer-hub/pkg/db"
)

// projectDoc is the stored form of a project. SeatsTaken mirrors the
// membership count and guards capacity on join.
type projectDoc struct {
	ID            int64      `bson:"project_id"`
	OrgID         int64      `bson:"org_id"`
	Name          string     `bson:"name"`
	Description   *string    `bson:"description,omitempty"`
	StartDate     time.Time  `bson:"start_date"`
	EndDate       *time.Time `bson:"end_date,omitempty"`
	Status        string     `bson:"status"`
	Location      *string    `bson:"location,omitempty"`
	MaxVolunteers int        `bson:"max_volunteers"`
	SeatsTaken    int        `bson:"seats_taken"`
	CreatedAt     time.Time  `bson:"created_at"`
}

// membershipDoc is the stored form of a membership
type membershipDoc struct {
	VolunteerID int64     `bson:"volunteer_id"`
	ProjectID   int64     `bson:"project_id"`
	JoinDate    time.Time `bson:"join_date"`
	Role        string    `bson:"role"`
}

// projectPipeline joins the organization name and membership count onto
// projects matching filter. With a viewer, is_joined is added.
func projectPipeline(filter bson.M, viewerID *int64, sort bson.D) []bson.M {
	fields := bson.M{
		"org_name":        firstOf("$org.name"),
		"volunteer_count": bson.M{"$size": "$members"},
	}
	if viewerID != nil {
		fields["is_joined"] = bson.M{"$in": bson.A{*viewerID, "$members.volunteer_id"}}
	}

	pipeline := []bson.M{
		{"$match": filter},
		lookup(colOrganizations, "org_id", "org_id", "org"),
		lookup(colMemberships, "project_id", "project_id", "members"),
		{"$addFields": fields},
		{"$project": bson.M{"_id": 0, "org": 0, "members": 0, "seats_taken": 0}},
	}
	if sort != nil {
		pipeline = append(pipeline, bson.M{"$sort": sort})
	}
	return pipeline
}

// ListProjects retrieves projects, optionally filtered by status. With a
// status filter projects are ordered by start date, otherwise by creation.
func (d *DB) ListProjects(ctx context.Context, filter db.ProjectFilter) ([]db.Project, error) {
	match := bson.M{}
	sort := sortBy("created_at", -1, "project_id", -1)
	if filter.Status != "" {
		match["status"] = filter.Status
		sort = sortBy("start_date", -1, "project_id", -1)
	}

	projects := []db.Project{}
	if err := d.aggregateAll(ctx, colProjects, projectPipeline(match, filter.ViewerID, sort), &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// GetProject retrieves a project by ID
func (d *DB) GetProject(ctx context.Context, id int64) (*db.Project, error) {
	var projects []db.Project
	if err := d.aggregateAll(ctx, colProjects, projectPipeline(bson.M{"project_id": id}, nil, nil), &projects); err != nil {
		return nil, err
	}
	if len(projects) == 0 {
		return nil, db.ErrNotFound
	}
	return &projects[0], nil
}

// CreateProject inserts a project. An unknown organization yields db.ErrNotFound.
func (d *DB) CreateProject(ctx context.Context, p *db.Project) (*db.Project, error) {
	if err := d.requireExists(ctx, colOrganizations, bson.M{"org_id": p.OrgID}); err != nil {
		return nil, err
	}

	id, err := d.nextID(ctx, colProjects)
	if err != nil {
		return nil, err
	}

	doc := projectDoc{
		ID:            id,
		OrgID:         p.OrgID,
		Name:          p.Name,
		Description:   p.Description,
		StartDate:     p.StartDate,
		EndDate:       p.EndDate,
		Status:        p.Status,
		Location:      p.Location,
		MaxVolunteers: p.MaxVolunteers,
		CreatedAt:     p.CreatedAt,
	}
	if _, err := d.col(colProjects).InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to insert project: %w", err)
	}
	return d.GetProject(ctx, id)
}

// UpdateProject applies a partial update
func (d *DB) UpdateProject(ctx context.Context, id int64, u db.ProjectUpdate) (*db.Project, error) {
	if u.Empty() {
		return nil, db.ErrNoChanges
	}

	set := bson.M{}
	if u.OrgID != nil {
		if err := d.requireExists(ctx, colOrganizations, bson.M{"org_id": *u.OrgID}); err != nil {
			return nil, err
		}
		set["org_id"] = *u.OrgID
	}
	if u.Name != nil {
		set["name"] = *u.Name
	}
	if u.Description != nil {
		set["description"] = *u.Description
	}
	if u.StartDate != nil {
		set["start_date"] = *u.StartDate
	}
	if u.EndDate != nil {
		set["end_date"] = *u.EndDate
	}
	if u.Status != nil {
		set["status"] = *u.Status
	}
	if u.Location != nil {
		set["location"] = *u.Location
	}
	if u.MaxVolunteers != nil {
		set["max_volunteers"] = *u.MaxVolunteers
	}

	res, err := d.col(colProjects).UpdateOne(ctx, bson.M{"project_id": id}, bson.M{"$set": set})
	if err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}
	if res.MatchedCount == 0 {
		return nil, db.ErrNotFound
	}
	return d.GetProject(ctx, id)
}

// DeleteProject removes a project with its memberships, events, attendance and resources
func (d *DB) DeleteProject(ctx context.Context, id int64) error {
	return d.withTx(ctx, func(ctx context.Context) error {
		res, err := d.col(colProjects).DeleteOne(ctx, bson.M{"project_id": id})
		if err != nil {
			return fmt.Errorf("failed to delete project: %w", err)
		}
		if res.DeletedCount == 0 {
			return db.ErrNotFound
		}

		eventIDs, err := d.eventIDs(ctx, bson.M{"project_id": id})
		if err != nil {
			return err
		}
		if len(eventIDs) > 0 {
			if _, err := d.col(colAttendance).DeleteMany(ctx, bson.M{"event_id": bson.M{"$in": eventIDs}}); err != nil {
				return fmt.Errorf("failed to delete attendance: %w", err)
			}
		}

		for _, name := range []string{colEvents, colMemberships, colResources} {
			if _, err := d.col(name).DeleteMany(ctx, bson.M{"project_id": id}); err != nil {
				return fmt.Errorf("failed to delete %s: %w", name, err)
			}
		}
		return nil
	})
}

// CountProjectsByStatus counts projects in each status
func (d *DB) CountProjectsByStatus(ctx context.Context) (*db.ProjectStatusCounts, error) {
	counts, err := d.countBy(ctx, colProjects, "status", bson.M{})
	if err != nil {
		return nil, err
	}
	return &db.ProjectStatusCounts{
		Planned:   counts[db.ProjectPlanned],
		Active:    counts[db.ProjectActive],
		Completed: counts[db.ProjectCompleted],
		Cancelled: counts[db.ProjectCancelled],
	}, nil
}

// ListProjectsByVolunteer retrieves the projects a volunteer has joined, most recent first
func (d *DB) ListProjectsByVolunteer(ctx context.Context, volunteerID int64) ([]db.VolunteerProject, error) {
	pipeline := []bson.M{
		{"$match": bson.M{"volunteer_id": volunteerID}},
		lookup(colProjects, "project_id", "project_id", "project"),
		{"$unwind": "$project"},
		lookup(colOrganizations, "project.org_id", "org_id", "org"),
		lookup(colMemberships, "project_id", "project_id", "members"),
		{"$replaceWith": bson.M{"$mergeObjects": bson.A{
			"$project",
			bson.M{
				"org_name":        firstOf("$org.name"),
				"volunteer_count": bson.M{"$size": "$members"},
				"join_date":       "$join_date",
				"volunteer_role":  "$role",
			},
		}}},
		{"$project": bson.M{"_id": 0, "seats_taken": 0}},
		{"$sort": sortBy("join_date", -1, "project_id", -1)},
	}

	projects := []db.VolunteerProject{}
	if err := d.aggregateAll(ctx, colMemberships, pipeline, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// membershipPipeline joins volunteer and project names onto memberships matching filter
func membershipPipeline(filter bson.M) []bson.M {
	return []bson.M{
		{"$match": filter},
		lookup(colVolunteers, "volunteer_id", "volunteer_id", "volunteer"),
		lookup(colProjects, "project_id", "project_id", "project"),
		{"$unwind": "$volunteer"},
		{"$unwind": "$project"},
		{"$project": bson.M{
			"_id":             0,
			"volunteer_id":    1,
			"project_id":      1,
			"join_date":       1,
			"role":            1,
			"volunteer_name":  "$volunteer.name",
			"volunteer_email": "$volunteer.email",
			"project_name":    "$project.name",
		}},
	}
}

// ListProjectMembers retrieves the members of a project in join order
func (d *DB) ListProjectMembers(ctx context.Context, projectID int64) ([]db.Membership, error) {
	pipeline := append(membershipPipeline(bson.M{"project_id": projectID}),
		bson.M{"$sort": sortBy("join_date", 1, "volunteer_id", 1)})

	members := []db.Membership{}
	if err := d.aggregateAll(ctx, colMemberships, pipeline, &members); err != nil {
		return nil, err
	}
	return members, nil
}

// JoinProject adds a volunteer to a project. A seat is reserved with a
// conditional increment before the membership is inserted, so concurrent
// joins can never exceed max_volunteers.
func (d *DB) JoinProject(ctx context.Context, volunteerID, projectID int64, role string, joinedAt time.Time) (*db.Membership, error) {
	if err := d.requireExists(ctx, colVolunteers, bson.M{"volunteer_id": volunteerID}); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, db.ErrVolunteerNotFound
		}
		return nil, err
	}
	if err := d.requireExists(ctx, colProjects, bson.M{"project_id": projectID}); err != nil {
		return nil, err
	}

	joined, err := d.exists(ctx, colMemberships, bson.M{"volunteer_id": volunteerID, "project_id": projectID})
	if err != nil {
		return nil, err
	}
	if joined {
		return nil, db.ErrAlreadyJoined
	}

	res, err := d.col(colProjects).UpdateOne(ctx,
		bson.M{
			"project_id": projectID,
			"$expr": bson.M{"$lt": bson.A{
				bson.M{"$ifNull": bson.A{"$seats_taken", 0}},
				"$max_volunteers",
			}},
		},
		bson.M{"$inc": bson.M{"seats_taken": 1}},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reserve seat: %w", err)
	}
	if res.MatchedCount == 0 {
		return nil, db.ErrProjectFull
	}

	_, err = d.col(colMemberships).InsertOne(ctx, membershipDoc{
		VolunteerID: volunteerID,
		ProjectID:   projectID,
		JoinDate:    joinedAt,
		Role:        role,
	})
	if err != nil {
		if releaseErr := d.releaseSeat(ctx, projectID); releaseErr != nil {
			return nil, fmt.Errorf("failed to release seat after %v: %w", err, releaseErr)
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, db.ErrAlreadyJoined
		}
		return nil, fmt.Errorf("failed to insert membership: %w", err)
	}

	var members []db.Membership
	filter := bson.M{"volunteer_id": volunteerID, "project_id": projectID}
	if err := d.aggregateAll(ctx, colMemberships, membershipPipeline(filter), &members); err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, db.ErrNotFound
	}
	return &members[0], nil
}

// LeaveProject removes a membership and releases its seat
func (d *DB) LeaveProject(ctx context.Context, volunteerID, projectID int64) error {
	res, err := d.col(colMemberships).DeleteOne(ctx, bson.M{"volunteer_id": volunteerID, "project_id": projectID})
	if err != nil {
		return fmt.Errorf("failed to delete membership: %w", err)
	}
	if res.DeletedCount == 0 {
		return db.ErrNotMember
	}
	return d.releaseSeat(ctx, projectID)
}

// releaseSeat gives back one seat, never going below zero
func (d *DB) releaseSeat(ctx context.Context, projectID int64) error {
	_, err := d.col(colProjects).UpdateOne(ctx,
		bson.M{"project_id": projectID, "seats_taken": bson.M{"$gt": 0}},
		bson.M{"$inc": bson.M{"seats_taken": -1}},
	)
	if err != nil {
		return fmt.Errorf("failed to release seat: %w", err)
	}
	return nil
}
