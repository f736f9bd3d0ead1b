package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/jakechorley/volunteer-hub/pkg/db"
)

// attendancePipeline joins event and volunteer names onto attendance
// matching filter. withEvent also adds the event date and project name.
func attendancePipeline(filter bson.M, withEvent bool, sort bson.D) []bson.M {
	fields := bson.M{
		"_id":            0,
		"event_id":       1,
		"volunteer_id":   1,
		"marked_at":      1,
		"status":         1,
		"notes":          1,
		"event_name":     "$event.name",
		"volunteer_name": "$volunteer.name",
	}

	pipeline := []bson.M{
		{"$match": filter},
		lookup(colEvents, "event_id", "event_id", "event"),
		lookup(colVolunteers, "volunteer_id", "volunteer_id", "volunteer"),
		{"$unwind": "$event"},
		{"$unwind": "$volunteer"},
	}
	if withEvent {
		pipeline = append(pipeline,
			lookup(colProjects, "event.project_id", "project_id", "project"),
			bson.M{"$unwind": "$project"},
		)
		fields["event_date"] = "$event.event_date"
		fields["project_name"] = "$project.name"
	}
	pipeline = append(pipeline, bson.M{"$project": fields})
	if sort != nil {
		pipeline = append(pipeline, bson.M{"$sort": sort})
	}
	return pipeline
}

// ListAttendanceByEvent retrieves attendance for an event ordered by volunteer name
func (d *DB) ListAttendanceByEvent(ctx context.Context, eventID int64) ([]db.Attendance, error) {
	records := []db.Attendance{}
	pipeline := attendancePipeline(bson.M{"event_id": eventID}, false, sortBy("volunteer_name", 1, "volunteer_id", 1))
	if err := d.aggregateAll(ctx, colAttendance, pipeline, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// ListAttendanceByVolunteer retrieves a volunteer's attendance, latest event first
func (d *DB) ListAttendanceByVolunteer(ctx context.Context, volunteerID int64) ([]db.Attendance, error) {
	records := []db.Attendance{}
	pipeline := attendancePipeline(bson.M{"volunteer_id": volunteerID}, true, sortBy("event_date", -1, "event_id", -1))
	if err := d.aggregateAll(ctx, colAttendance, pipeline, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// MarkAttendance records attendance, overwriting any earlier mark for the same pair
func (d *DB) MarkAttendance(ctx context.Context, a *db.Attendance) (*db.Attendance, error) {
	if err := d.requireExists(ctx, colEvents, bson.M{"event_id": a.EventID}); err != nil {
		return nil, err
	}
	if err := d.requireExists(ctx, colVolunteers, bson.M{"volunteer_id": a.VolunteerID}); err != nil {
		return nil, err
	}

	key := bson.M{"event_id": a.EventID, "volunteer_id": a.VolunteerID}
	update := bson.M{"$set": bson.M{"marked_at": a.MarkedAt, "status": a.Status}}
	if a.Notes != nil {
		update["$set"].(bson.M)["notes"] = *a.Notes
	} else {
		update["$unset"] = bson.M{"notes": ""}
	}

	// Two concurrent upserts of a new pair can both miss and race on the
	// unique index; the loser retries as a plain update.
	upsert := options.UpdateOne().SetUpsert(true)
	_, err := d.col(colAttendance).UpdateOne(ctx, key, update, upsert)
	if mongo.IsDuplicateKeyError(err) {
		_, err = d.col(colAttendance).UpdateOne(ctx, key, update, upsert)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to mark attendance: %w", err)
	}

	var records []db.Attendance
	if err := d.aggregateAll(ctx, colAttendance, attendancePipeline(key, false, nil), &records); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, db.ErrNotFound
	}
	return &records[0], nil
}

// DeleteAttendance removes an attendance record
func (d *DB) DeleteAttendance(ctx context.Context, eventID, volunteerID int64) error {
	res, err := d.col(colAttendance).DeleteOne(ctx, bson.M{"event_id": eventID, "volunteer_id": volunteerID})
	if err != nil {
		return fmt.Errorf("failed to delete attendance: %w", err)
	}
	if res.DeletedCount == 0 {
		return db.ErrNotFound
	}
	return nil
}
