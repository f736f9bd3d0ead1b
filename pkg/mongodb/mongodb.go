package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/jakechorley/volunteer-hub/pkg/db"
)

// Collection names
const (
	colOrganizations = "organizations"
	colVolunteers    = "volunteers"
	colProjects      = "projects"
	colMemberships   = "volunteer_project"
	colEvents        = "events"
	colAttendance    = "event_attendance"
	colResources     = "resources"
	colCounters      = "counters"
)

// Options tunes the client
type Options struct {
	Timeout     time.Duration
	MaxPoolSize uint64
}

// DB provides database operations using MongoDB
type DB struct {
	client   *mongo.Client
	database *mongo.Database
	txn      bool
}

// helloReply holds the fields of the hello command that tell the topology
type helloReply struct {
	SetName string `bson:"setName"`
	Msg     string `bson:"msg"`
}

// transactions reports whether the server is a replica set member or a
// mongos router; standalone servers reject multi-document transactions.
func (h helloReply) transactions() bool {
	return h.SetName != "" || h.Msg == "isdbgrid"
}

var _ db.Database = (*DB)(nil)

// NewDB connects to MongoDB and selects the named database
func NewDB(ctx context.Context, uri, database string, opts Options) (*DB, error) {
	clientOpts := options.Client().ApplyURI(uri)
	if opts.Timeout > 0 {
		clientOpts.SetTimeout(opts.Timeout)
	}
	if opts.MaxPoolSize > 0 {
		clientOpts.SetMaxPoolSize(opts.MaxPoolSize)
	}

	client, err := mongo.Connect(clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to create mongo client: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	var hello helloReply
	if err := client.Database("admin").RunCommand(ctx, bson.D{{Key: "hello", Value: 1}}).Decode(&hello); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to read server topology: %w", err)
	}

	return &DB{client: client, database: client.Database(database), txn: hello.transactions()}, nil
}

// Transactional reports whether cascading deletes run in a transaction
func (d *DB) Transactional() bool {
	return d.txn
}

// withTx runs fn inside a transaction when the deployment supports one.
// On a standalone server fn runs directly, and a cascade cut short leaves
// seat counters that the next EnsureSchema recomputes.
func (d *DB) withTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if !d.txn {
		return fn(ctx)
	}

	sess, err := d.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(ctx context.Context) (any, error) {
		return nil, fn(ctx)
	})
	return err
}

// Ping checks that the database is reachable
func (d *DB) Ping(ctx context.Context) error {
	if err := d.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}

// Close disconnects the client
func (d *DB) Close(ctx context.Context) error {
	if err := d.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect: %w", err)
	}
	return nil
}

// DropDatabase removes the selected database with all its collections
func (d *DB) DropDatabase(ctx context.Context) error {
	if err := d.database.Drop(ctx); err != nil {
		return fmt.Errorf("failed to drop database: %w", err)
	}
	return nil
}

func (d *DB) col(name string) *mongo.Collection {
	return d.database.Collection(name)
}

// idFields maps each counted collection to its numeric ID field
var idFields = map[string]string{
	colOrganizations: "org_id",
	colVolunteers:    "volunteer_id",
	colProjects:      "project_id",
	colEvents:        "event_id",
	colResources:     "resource_id",
}

// EnsureSchema creates the unique indexes, seeds the ID counters from
// existing documents and recomputes the seat counters of every project.
// It is safe to run repeatedly.
func (d *DB) EnsureSchema(ctx context.Context) error {
	unique := func(name string, keys bson.D) mongo.IndexModel {
		return mongo.IndexModel{Keys: keys, Options: options.Index().SetUnique(true).SetName(name)}
	}
	plain := func(name string, keys bson.D) mongo.IndexModel {
		return mongo.IndexModel{Keys: keys, Options: options.Index().SetName(name)}
	}

	indexes := map[string][]mongo.IndexModel{
		colOrganizations: {unique("org_id_unique", bson.D{{Key: "org_id", Value: 1}})},
		colVolunteers: {
			unique("volunteer_id_unique", bson.D{{Key: "volunteer_id", Value: 1}}),
			unique("email_lower_unique", bson.D{{Key: "email_lower", Value: 1}}),
			plain("status", bson.D{{Key: "status", Value: 1}}),
		},
		colProjects: {
			unique("project_id_unique", bson.D{{Key: "project_id", Value: 1}}),
			plain("status", bson.D{{Key: "status", Value: 1}}),
		},
		colMemberships: {
			unique("volunteer_project_unique", bson.D{{Key: "volunteer_id", Value: 1}, {Key: "project_id", Value: 1}}),
			plain("project", bson.D{{Key: "project_id", Value: 1}}),
		},
		colEvents: {
			unique("event_id_unique", bson.D{{Key: "event_id", Value: 1}}),
			plain("project", bson.D{{Key: "project_id", Value: 1}}),
			plain("event_date", bson.D{{Key: "event_date", Value: 1}}),
		},
		colAttendance: {
			unique("event_volunteer_unique", bson.D{{Key: "event_id", Value: 1}, {Key: "volunteer_id", Value: 1}}),
			plain("volunteer", bson.D{{Key: "volunteer_id", Value: 1}}),
		},
		colResources: {
			unique("resource_id_unique", bson.D{{Key: "resource_id", Value: 1}}),
			plain("project", bson.D{{Key: "project_id", Value: 1}}),
		},
	}

	for name, models := range indexes {
		if _, err := d.col(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", name, err)
		}
	}

	for name, field := range idFields {
		if err := d.seedCounter(ctx, name, field); err != nil {
			return err
		}
	}

	if err := d.resyncSeats(ctx); err != nil {
		return err
	}

	return nil
}

// seedCounter raises the counter of a collection to at least its highest existing ID
func (d *DB) seedCounter(ctx context.Context, collection, field string) error {
	var top struct {
		ID int64 `bson:"id"`
	}
	err := d.col(collection).FindOne(ctx, bson.M{},
		options.FindOne().
			SetSort(bson.D{{Key: field, Value: -1}}).
			SetProjection(bson.M{"_id": 0, "id": "$" + field}),
	).Decode(&top)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("failed to read max %s: %w", field, err)
	}

	_, err = d.col(colCounters).UpdateOne(ctx,
		bson.M{"_id": collection},
		bson.M{"$max": bson.M{"seq": top.ID}},
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to seed counter %s: %w", collection, err)
	}
	return nil
}

// resyncSeats sets seats_taken of every project to its membership count
func (d *DB) resyncSeats(ctx context.Context) error {
	counts, err := d.memberCounts(ctx, bson.M{})
	if err != nil {
		return err
	}

	if _, err := d.col(colProjects).UpdateMany(ctx, bson.M{}, bson.M{"$set": bson.M{"seats_taken": 0}}); err != nil {
		return fmt.Errorf("failed to reset seats: %w", err)
	}
	for projectID, n := range counts {
		_, err := d.col(colProjects).UpdateOne(ctx, bson.M{"project_id": projectID}, bson.M{"$set": bson.M{"seats_taken": n}})
		if err != nil {
			return fmt.Errorf("failed to set seats for project %d: %w", projectID, err)
		}
	}
	return nil
}

// memberCounts returns membership counts per project for memberships matching filter
func (d *DB) memberCounts(ctx context.Context, filter bson.M) (map[int64]int, error) {
	cursor, err := d.col(colMemberships).Aggregate(ctx, []bson.M{
		{"$match": filter},
		{"$group": bson.M{"_id": "$project_id", "n": bson.M{"$sum": 1}}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to count memberships: %w", err)
	}

	var rows []struct {
		ProjectID int64 `bson:"_id"`
		N         int   `bson:"n"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode membership counts: %w", err)
	}

	counts := make(map[int64]int, len(rows))
	for _, r := range rows {
		counts[r.ProjectID] = r.N
	}
	return counts, nil
}

// nextID atomically allocates the next ID for a collection
func (d *DB) nextID(ctx context.Context, collection string) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := d.col(colCounters).FindOneAndUpdate(ctx,
		bson.M{"_id": collection},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate %s id: %w", collection, err)
	}
	return counter.Seq, nil
}

// exists reports whether a document matching filter exists
func (d *DB) exists(ctx context.Context, collection string, filter bson.M) (bool, error) {
	n, err := d.col(collection).CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check %s: %w", collection, err)
	}
	return n > 0, nil
}

// requireExists returns db.ErrNotFound when no document matches filter
func (d *DB) requireExists(ctx context.Context, collection string, filter bson.M) error {
	ok, err := d.exists(ctx, collection, filter)
	if err != nil {
		return err
	}
	if !ok {
		return db.ErrNotFound
	}
	return nil
}

// aggregateAll runs a pipeline and decodes every result into out
func (d *DB) aggregateAll(ctx context.Context, collection string, pipeline []bson.M, out any) error {
	cursor, err := d.col(collection).Aggregate(ctx, pipeline)
	if err != nil {
		return fmt.Errorf("failed to aggregate %s: %w", collection, err)
	}
	if err := cursor.All(ctx, out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", collection, err)
	}
	return nil
}

// sortBy builds an ordered sort document from alternating field, direction pairs
func sortBy(pairs ...any) bson.D {
	sort := make(bson.D, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		sort = append(sort, bson.E{Key: pairs[i].(string), Value: pairs[i+1]})
	}
	return sort
}

// firstOf extracts the first element of an array expression, or nothing when empty
func firstOf(expr any) bson.M {
	return bson.M{"$arrayElemAt": bson.A{expr, 0}}
}

// lookup joins another collection on equal fields
func lookup(from, localField, foreignField, as string) bson.M {
	return bson.M{"$lookup": bson.M{
		"from":         from,
		"localField":   localField,
		"foreignField": foreignField,
		"as":           as,
	}}
}

// notFound maps mongo.ErrNoDocuments onto db.ErrNotFound
func notFound(action string, err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return db.ErrNotFound
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}
