package mongodb

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/jakechorley/volunteer-hub/pkg/db"
	"github.com/jakechorley/volunteer-hub/pkg/db/dbtest"
)

// URIEnv names the variable holding a test server URI
const URIEnv = "VHUB_TEST_MONGO_URI"

// newTestDB creates a uniquely named database that is dropped on cleanup
func newTestDB(t *testing.T) db.Database {
	t.Helper()
	uri := os.Getenv(URIEnv)
	if uri == "" {
		t.Skipf("%s not set", URIEnv)
	}

	ctx := context.Background()
	name := "vhub_test_" + uuid.NewString()[:8]
	d, err := NewDB(ctx, uri, name, Options{Timeout: 10 * time.Second})
	require.NoError(t, err)
	t.Cleanup(func() {
		d.DropDatabase(ctx)
		d.Close(ctx)
	})

	require.NoError(t, d.EnsureSchema(ctx))
	return d
}

func TestContract(t *testing.T) {
	if os.Getenv(URIEnv) == "" {
		t.Skipf("%s not set", URIEnv)
	}
	dbtest.Run(t, newTestDB)
}

func TestEnsureSchema_SeedsCountersAndSeats(t *testing.T) {
	d := newTestDB(t).(*DB)
	ctx := context.Background()

	// written directly, bypassing the counters
	_, err := d.col(colOrganizations).InsertOne(ctx, bson.M{"org_id": int64(41), "name": "Imported", "created_at": dbtest.Base})
	require.NoError(t, err)
	_, err = d.col(colProjects).InsertOne(ctx, bson.M{
		"project_id": int64(5), "org_id": int64(41), "name": "Imported", "status": db.ProjectActive,
		"start_date": dbtest.Base, "max_volunteers": 2, "created_at": dbtest.Base, "seats_taken": 9,
	})
	require.NoError(t, err)
	_, err = d.col(colMemberships).InsertOne(ctx, bson.M{
		"volunteer_id": int64(1), "project_id": int64(5), "join_date": dbtest.Base, "role": db.DefaultMemberRole,
	})
	require.NoError(t, err)

	require.NoError(t, d.EnsureSchema(ctx))

	org, err := d.CreateOrganization(ctx, &db.Organization{Name: "Fresh", CreatedAt: dbtest.Base})
	require.NoError(t, err)
	assert.Equal(t, int64(42), org.ID)

	var project projectDoc
	require.NoError(t, d.col(colProjects).FindOne(ctx, bson.M{"project_id": int64(5)}).Decode(&project))
	assert.Equal(t, 1, project.SeatsTaken)
}

func TestJoinProject_ReleasesSeatOnLeave(t *testing.T) {
	d := newTestDB(t).(*DB)
	ctx := context.Background()

	org, err := d.CreateOrganization(ctx, &db.Organization{Name: "Org", CreatedAt: dbtest.Base})
	require.NoError(t, err)
	p, err := d.CreateProject(ctx, &db.Project{OrgID: org.ID, Name: "P", StartDate: dbtest.Base, Status: db.ProjectActive, MaxVolunteers: 1, CreatedAt: dbtest.Base})
	require.NoError(t, err)
	v, err := d.CreateVolunteer(ctx, dbtest.NewVolunteer("V", "v@example.com", 0))
	require.NoError(t, err)

	seats := func() int {
		var doc projectDoc
		require.NoError(t, d.col(colProjects).FindOne(ctx, bson.M{"project_id": p.ID}).Decode(&doc))
		return doc.SeatsTaken
	}

	_, err = d.JoinProject(ctx, v.ID, p.ID, db.DefaultMemberRole, dbtest.Base)
	require.NoError(t, err)
	assert.Equal(t, 1, seats())

	require.NoError(t, d.LeaveProject(ctx, v.ID, p.ID))
	assert.Equal(t, 0, seats())

	assert.ErrorIs(t, d.LeaveProject(ctx, v.ID, p.ID), db.ErrNotMember)
	assert.Equal(t, 0, seats(), "never below zero")
}

func TestHelloReply_Transactions(t *testing.T) {
	tests := []struct {
		name  string
		reply helloReply
		want  bool
	}{
		{name: "standalone", reply: helloReply{}, want: false},
		{name: "replica set member", reply: helloReply{SetName: "rs0"}, want: true},
		{name: "mongos router", reply: helloReply{Msg: "isdbgrid"}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.reply.transactions())
		})
	}
}

func TestDeleteCascades_ReleaseSeats(t *testing.T) {
	for _, txn := range []bool{false, true} {
		name := "direct"
		if txn {
			name = "transaction"
		}
		t.Run(name, func(t *testing.T) {
			d := newTestDB(t).(*DB)
			if txn && !d.Transactional() {
				t.Skip("server does not support transactions")
			}
			d.txn = txn
			ctx := context.Background()

			org, err := d.CreateOrganization(ctx, &db.Organization{Name: "Org", CreatedAt: dbtest.Base})
			require.NoError(t, err)
			p, err := d.CreateProject(ctx, &db.Project{OrgID: org.ID, Name: "P", StartDate: dbtest.Base, Status: db.ProjectActive, MaxVolunteers: 2, CreatedAt: dbtest.Base})
			require.NoError(t, err)
			ann, err := d.CreateVolunteer(ctx, dbtest.NewVolunteer("Ann", "ann@example.com", 0))
			require.NoError(t, err)
			ben, err := d.CreateVolunteer(ctx, dbtest.NewVolunteer("Ben", "ben@example.com", 0))
			require.NoError(t, err)

			seats := func(id int64) int {
				var doc projectDoc
				require.NoError(t, d.col(colProjects).FindOne(ctx, bson.M{"project_id": id}).Decode(&doc))
				return doc.SeatsTaken
			}

			for _, v := range []*db.Volunteer{ann, ben} {
				_, err = d.JoinProject(ctx, v.ID, p.ID, db.DefaultMemberRole, dbtest.Base)
				require.NoError(t, err)
			}
			assert.Equal(t, 2, seats(p.ID))

			require.NoError(t, d.DeleteVolunteer(ctx, ann.ID))
			assert.Equal(t, 1, seats(p.ID))
			assert.ErrorIs(t, d.DeleteVolunteer(ctx, ann.ID), db.ErrNotFound)

			require.NoError(t, d.EnsureSchema(ctx))
			assert.Equal(t, 1, seats(p.ID), "resync agrees with the released count")

			require.NoError(t, d.DeleteProject(ctx, p.ID))
			n, err := d.col(colMemberships).CountDocuments(ctx, bson.M{"project_id": p.ID})
			require.NoError(t, err)
			assert.Zero(t, n)

			next, err := d.CreateProject(ctx, &db.Project{OrgID: org.ID, Name: "Next", StartDate: dbtest.Base, Status: db.ProjectActive, MaxVolunteers: 1, CreatedAt: dbtest.Base})
			require.NoError(t, err)
			assert.Equal(t, 0, seats(next.ID))
			_, err = d.JoinProject(ctx, ben.ID, next.ID, db.DefaultMemberRole, dbtest.Base)
			require.NoError(t, err)
		})
	}
}

func TestSortBy(t *testing.T) {
	got := sortBy("event_date", -1, "event_id", 1)

	assert.Equal(t, bson.D{{Key: "event_date", Value: -1}, {Key: "event_id", Value: 1}}, got)
	assert.Empty(t, sortBy())
}

func TestLookup(t *testing.T) {
	got := lookup(colProjects, "project_id", "project_id", "project")

	assert.Equal(t, bson.M{"$lookup": bson.M{
		"from":         "projects",
		"localField":   "project_id",
		"foreignField": "project_id",
		"as":           "project",
	}}, got)
}

func TestNotFound(t *testing.T) {
	assert.Same(t, db.ErrNotFound, notFound("get volunteer", mongo.ErrNoDocuments))

	cause := errors.New("socket closed")
	err := notFound("get volunteer", cause)
	assert.EqualError(t, err, "failed to get volunteer: socket closed")
	assert.ErrorIs(t, err, cause)
}

func TestProjectPipeline_ViewerAddsIsJoined(t *testing.T) {
	viewer := int64(3)

	without := projectPipeline(bson.M{}, nil, nil)
	with := projectPipeline(bson.M{}, &viewer, nil)

	find := func(pipeline []bson.M) bson.M {
		for _, stage := range pipeline {
			if fields, ok := stage["$addFields"].(bson.M); ok {
				return fields
			}
		}
		return nil
	}
	require.NotNil(t, find(without))
	require.NotNil(t, find(with))
	assert.NotContains(t, find(without), "is_joined")
	assert.Contains(t, find(with), "is_joined")
}
