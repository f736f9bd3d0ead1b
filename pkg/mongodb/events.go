package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/jakechorley/volunteer-hub/pkg/db"
)

// eventDoc is the stored form of an event
type eventDoc struct {
	ID              int64     `bson:"event_id"`
	ProjectID       int64     `bson:"project_id"`
	Name            string    `bson:"name"`
	Description     *string   `bson:"description,omitempty"`
	EventDate       time.Time `bson:"event_date"`
	Location        *string   `bson:"location,omitempty"`
	MaxParticipants int       `bson:"max_participants"`
	CreatedAt       time.Time `bson:"created_at"`
}

// eventPipeline joins the project name and attendance count onto events
// matching filter. With a volunteer, attendance_status carries their mark.
func eventPipeline(filter bson.M, volunteerID *int64, sort bson.D) []bson.M {
	fields := bson.M{
		"project_name":     firstOf("$project.name"),
		"attendance_count": bson.M{"$size": "$attendance"},
	}
	if volunteerID != nil {
		fields["attendance_status"] = firstOf(bson.M{"$map": bson.M{
			"input": bson.M{"$filter": bson.M{
				"input": "$attendance",
				"cond":  bson.M{"$eq": bson.A{"$$this.volunteer_id", *volunteerID}},
			}},
			"in": "$$this.status",
		}})
	}

	pipeline := []bson.M{
		{"$match": filter},
		lookup(colProjects, "project_id", "project_id", "project"),
		lookup(colAttendance, "event_id", "event_id", "attendance"),
		{"$addFields": fields},
		{"$project": bson.M{"_id": 0, "project": 0, "attendance": 0}},
	}
	if sort != nil {
		pipeline = append(pipeline, bson.M{"$sort": sort})
	}
	return pipeline
}

func (d *DB) aggregateEvents(ctx context.Context, pipeline []bson.M) ([]db.Event, error) {
	events := []db.Event{}
	if err := d.aggregateAll(ctx, colEvents, pipeline, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// ListEvents retrieves events, latest first, optionally for one project
func (d *DB) ListEvents(ctx context.Context, filter db.EventFilter) ([]db.Event, error) {
	match := bson.M{}
	if filter.ProjectID != nil {
		match["project_id"] = *filter.ProjectID
	}
	return d.aggregateEvents(ctx, eventPipeline(match, nil, sortBy("event_date", -1, "event_id", -1)))
}

// ListUpcomingEvents retrieves events on or after now, soonest first
func (d *DB) ListUpcomingEvents(ctx context.Context, now time.Time) ([]db.Event, error) {
	match := bson.M{"event_date": bson.M{"$gte": now}}
	return d.aggregateEvents(ctx, eventPipeline(match, nil, sortBy("event_date", 1, "event_id", 1)))
}

// ListEventsForVolunteer retrieves events of the projects a volunteer has
// joined, with the volunteer's attendance status where marked
func (d *DB) ListEventsForVolunteer(ctx context.Context, volunteerID int64) ([]db.Event, error) {
	projectIDs, err := d.joinedProjectIDs(ctx, volunteerID)
	if err != nil {
		return nil, err
	}
	if len(projectIDs) == 0 {
		return []db.Event{}, nil
	}

	match := bson.M{"project_id": bson.M{"$in": projectIDs}}
	return d.aggregateEvents(ctx, eventPipeline(match, &volunteerID, sortBy("event_date", -1, "event_id", -1)))
}

// GetEvent retrieves an event by ID
func (d *DB) GetEvent(ctx context.Context, id int64) (*db.Event, error) {
	events, err := d.aggregateEvents(ctx, eventPipeline(bson.M{"event_id": id}, nil, nil))
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, db.ErrNotFound
	}
	return &events[0], nil
}

// CreateEvent inserts an event. An unknown project yields db.ErrNotFound.
func (d *DB) CreateEvent(ctx context.Context, e *db.Event) (*db.Event, error) {
	if err := d.requireExists(ctx, colProjects, bson.M{"project_id": e.ProjectID}); err != nil {
		return nil, err
	}

	id, err := d.nextID(ctx, colEvents)
	if err != nil {
		return nil, err
	}

	doc := eventDoc{
		ID:              id,
		ProjectID:       e.ProjectID,
		Name:            e.Name,
		Description:     e.Description,
		EventDate:       e.EventDate,
		Location:        e.Location,
		MaxParticipants: e.MaxParticipants,
		CreatedAt:       e.CreatedAt,
	}
	if _, err := d.col(colEvents).InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to insert event: %w", err)
	}
	return d.GetEvent(ctx, id)
}

// UpdateEvent applies a partial update
func (d *DB) UpdateEvent(ctx context.Context, id int64, u db.EventUpdate) (*db.Event, error) {
	if u.Empty() {
		return nil, db.ErrNoChanges
	}

	set := bson.M{}
	if u.Name != nil {
		set["name"] = *u.Name
	}
	if u.Description != nil {
		set["description"] = *u.Description
	}
	if u.EventDate != nil {
		set["event_date"] = *u.EventDate
	}
	if u.Location != nil {
		set["location"] = *u.Location
	}
	if u.MaxParticipants != nil {
		set["max_participants"] = *u.MaxParticipants
	}

	res, err := d.col(colEvents).UpdateOne(ctx, bson.M{"event_id": id}, bson.M{"$set": set})
	if err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}
	if res.MatchedCount == 0 {
		return nil, db.ErrNotFound
	}
	return d.GetEvent(ctx, id)
}

// DeleteEvent removes an event and its attendance
func (d *DB) DeleteEvent(ctx context.Context, id int64) error {
	res, err := d.col(colEvents).DeleteOne(ctx, bson.M{"event_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	if res.DeletedCount == 0 {
		return db.ErrNotFound
	}
	if _, err := d.col(colAttendance).DeleteMany(ctx, bson.M{"event_id": id}); err != nil {
		return fmt.Errorf("failed to delete attendance: %w", err)
	}
	return nil
}

// eventIDs returns the IDs of events matching filter
func (d *DB) eventIDs(ctx context.Context, filter bson.M) ([]int64, error) {
	var rows []struct {
		ID int64 `bson:"event_id"`
	}
	err := d.aggregateAll(ctx, colEvents, []bson.M{
		{"$match": filter},
		{"$project": bson.M{"_id": 0, "event_id": 1}},
	}, &rows)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	return ids, nil
}

// joinedProjectIDs returns the IDs of the projects a volunteer belongs to
func (d *DB) joinedProjectIDs(ctx context.Context, volunteerID int64) ([]int64, error) {
	counts, err := d.memberCounts(ctx, bson.M{"volunteer_id": volunteerID})
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	return ids, nil
}
