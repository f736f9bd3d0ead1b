// Package dbtest holds the behavioural contract every db.Database
// implementation must satisfy. Backend packages run it against a live
// server from their own tests.
package dbtest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/volunteer-hub/pkg/db"
)

// Factory returns an empty, ready to use database. Cleanup is registered on t.
type Factory func(t *testing.T) db.Database

// Base is the reference instant fixtures are placed around
var Base = time.Date(2025, time.March, 1, 9, 0, 0, 0, time.UTC)

func at(days int) time.Time {
	return Base.Add(time.Duration(days) * 24 * time.Hour)
}

func ptr[T any](v T) *T {
	return &v
}

// Run executes the contract against databases produced by newDB
func Run(t *testing.T, newDB Factory) {
	t.Run("Volunteers", func(t *testing.T) { testVolunteers(t, newDB(t)) })
	t.Run("Organizations", func(t *testing.T) { testOrganizations(t, newDB(t)) })
	t.Run("Projects", func(t *testing.T) { testProjects(t, newDB(t)) })
	t.Run("Membership", func(t *testing.T) { testMembership(t, newDB(t)) })
	t.Run("SeatRelease", func(t *testing.T) { testSeatRelease(t, newDB(t)) })
	t.Run("ConcurrentJoins", func(t *testing.T) { testConcurrentJoins(t, newDB(t)) })
	t.Run("Events", func(t *testing.T) { testEvents(t, newDB(t)) })
	t.Run("Attendance", func(t *testing.T) { testAttendance(t, newDB(t)) })
	t.Run("Resources", func(t *testing.T) { testResources(t, newDB(t)) })
	t.Run("Dashboards", func(t *testing.T) { testDashboards(t, newDB(t)) })
	t.Run("Cascades", func(t *testing.T) { testCascades(t, newDB(t)) })
	t.Run("FailedCreatesKeepIDs", func(t *testing.T) { testFailedCreatesKeepIDs(t, newDB(t)) })
}

// NewVolunteer builds an active volunteer created at the given offset in days
func NewVolunteer(name, email string, days int) *db.Volunteer {
	return &db.Volunteer{
		Name:         name,
		Email:        email,
		PasswordHash: "hash-" + name,
		JoinDate:     at(days),
		Status:       db.VolunteerActive,
		Role:         db.RoleVolunteer,
		CreatedAt:    at(days),
	}
}

func mustVolunteer(t *testing.T, d db.Database, name, email string, days int) *db.Volunteer {
	t.Helper()
	v, err := d.CreateVolunteer(context.Background(), NewVolunteer(name, email, days))
	require.NoError(t, err)
	return v
}

func mustOrg(t *testing.T, d db.Database, name string) *db.Organization {
	t.Helper()
	o, err := d.CreateOrganization(context.Background(), &db.Organization{Name: name, CreatedAt: Base})
	require.NoError(t, err)
	return o
}

func mustProject(t *testing.T, d db.Database, orgID int64, name, status string, maxVolunteers, days int) *db.Project {
	t.Helper()
	p, err := d.CreateProject(context.Background(), &db.Project{
		OrgID:         orgID,
		Name:          name,
		StartDate:     at(days),
		Status:        status,
		MaxVolunteers: maxVolunteers,
		CreatedAt:     at(days),
	})
	require.NoError(t, err)
	return p
}

func mustEvent(t *testing.T, d db.Database, projectID int64, name string, days int) *db.Event {
	t.Helper()
	e, err := d.CreateEvent(context.Background(), &db.Event{
		ProjectID:       projectID,
		Name:            name,
		EventDate:       at(days),
		MaxParticipants: 20,
		CreatedAt:       at(days - 10),
	})
	require.NoError(t, err)
	return e
}

func mustJoin(t *testing.T, d db.Database, volunteerID, projectID int64, days int) {
	t.Helper()
	_, err := d.JoinProject(context.Background(), volunteerID, projectID, db.DefaultMemberRole, at(days))
	require.NoError(t, err)
}

func mustMark(t *testing.T, d db.Database, eventID, volunteerID int64, status string, days int) {
	t.Helper()
	_, err := d.MarkAttendance(context.Background(), &db.Attendance{
		EventID:     eventID,
		VolunteerID: volunteerID,
		MarkedAt:    at(days),
		Status:      status,
	})
	require.NoError(t, err)
}

func testVolunteers(t *testing.T, d db.Database) {
	ctx := context.Background()

	alice := mustVolunteer(t, d, "Alice", "Alice@Example.com", 1)
	bob := mustVolunteer(t, d, "Bob", "bob@example.com", 2)
	assert.NotZero(t, alice.ID)
	assert.NotEqual(t, alice.ID, bob.ID)
	assert.Equal(t, "Alice@Example.com", alice.Email)
	assert.Empty(t, alice.PasswordHash, "hash must not leak from create")
	assert.True(t, alice.CreatedAt.Equal(at(1)))

	_, err := d.CreateVolunteer(ctx, NewVolunteer("Clone", "alice@example.COM", 3))
	assert.ErrorIs(t, err, db.ErrEmailTaken)

	got, err := d.GetVolunteer(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, alice.Name, got.Name)
	assert.Empty(t, got.PasswordHash)

	byEmail, err := d.GetVolunteerByEmail(ctx, "ALICE@example.com")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, byEmail.ID)
	assert.Equal(t, "hash-Alice", byEmail.PasswordHash)

	_, err = d.GetVolunteer(ctx, 999999)
	assert.ErrorIs(t, err, db.ErrNotFound)
	_, err = d.GetVolunteerByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, db.ErrNotFound)

	list, err := d.ListVolunteers(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, bob.ID, list[0].ID, "newest first")
	assert.Equal(t, alice.ID, list[1].ID)

	updated, err := d.UpdateVolunteer(ctx, bob.ID, db.VolunteerUpdate{Status: ptr(db.VolunteerSuspended), Phone: ptr("0123")})
	require.NoError(t, err)
	assert.Equal(t, db.VolunteerSuspended, updated.Status)
	require.NotNil(t, updated.Phone)
	assert.Equal(t, "0123", *updated.Phone)
	assert.Equal(t, "Bob", updated.Name)

	_, err = d.UpdateVolunteer(ctx, bob.ID, db.VolunteerUpdate{})
	assert.ErrorIs(t, err, db.ErrNoChanges)
	_, err = d.UpdateVolunteer(ctx, 999999, db.VolunteerUpdate{Name: ptr("x")})
	assert.ErrorIs(t, err, db.ErrNotFound)
	_, err = d.UpdateVolunteer(ctx, bob.ID, db.VolunteerUpdate{Email: ptr("ALICE@example.com")})
	assert.ErrorIs(t, err, db.ErrEmailTaken)

	active, err := d.ListVolunteersByStatus(ctx, db.VolunteerActive)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, alice.ID, active[0].ID)

	counts, err := d.CountVolunteersByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, db.VolunteerCounts{Total: 2, Active: 1, Suspended: 1}, *counts)

	require.NoError(t, d.UpdateVolunteerPassword(ctx, alice.ID, "new-hash"))
	byEmail, err = d.GetVolunteerByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "new-hash", byEmail.PasswordHash)
	assert.ErrorIs(t, d.UpdateVolunteerPassword(ctx, 999999, "x"), db.ErrNotFound)

	require.NoError(t, d.DeleteVolunteer(ctx, bob.ID))
	assert.ErrorIs(t, d.DeleteVolunteer(ctx, bob.ID), db.ErrNotFound)

	list, err = d.ListVolunteers(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func testOrganizations(t *testing.T, d db.Database) {
	ctx := context.Background()

	empty, err := d.ListOrganizations(ctx)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	zeta := mustOrg(t, d, "Zeta Trust")
	alpha, err := d.CreateOrganization(ctx, &db.Organization{
		Name:      "Alpha Aid",
		Email:     ptr("hello@alpha.org"),
		CreatedAt: Base,
	})
	require.NoError(t, err)
	require.NotNil(t, alpha.Email)
	assert.Nil(t, alpha.Phone)

	orgs, err := d.ListOrganizations(ctx)
	require.NoError(t, err)
	require.Len(t, orgs, 2)
	assert.Equal(t, alpha.ID, orgs[0].ID)
	assert.Equal(t, zeta.ID, orgs[1].ID)

	got, err := d.GetOrganization(ctx, zeta.ID)
	require.NoError(t, err)
	assert.Equal(t, "Zeta Trust", got.Name)

	_, err = d.GetOrganization(ctx, 999999)
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func testProjects(t *testing.T, d db.Database) {
	ctx := context.Background()
	org := mustOrg(t, d, "Helpers")

	_, err := d.CreateProject(ctx, &db.Project{OrgID: 999999, Name: "Orphan", StartDate: Base, Status: db.ProjectPlanned, MaxVolunteers: 1, CreatedAt: Base})
	assert.ErrorIs(t, err, db.ErrNotFound)

	garden := mustProject(t, d, org.ID, "Garden", db.ProjectActive, 5, 1)
	food := mustProject(t, d, org.ID, "Food Bank", db.ProjectActive, 5, 3)
	mustProject(t, d, org.ID, "Library", db.ProjectPlanned, 5, 2)

	require.NotNil(t, garden.OrgName)
	assert.Equal(t, "Helpers", *garden.OrgName)
	assert.Zero(t, garden.VolunteerCount)
	assert.Nil(t, garden.IsJoined)
	assert.Nil(t, garden.EndDate)

	all, err := d.ListProjects(ctx, db.ProjectFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Food Bank", all[0].Name)
	assert.Equal(t, "Library", all[1].Name)
	assert.Equal(t, "Garden", all[2].Name)

	activeOnly, err := d.ListProjects(ctx, db.ProjectFilter{Status: db.ProjectActive})
	require.NoError(t, err)
	require.Len(t, activeOnly, 2)
	assert.Equal(t, food.ID, activeOnly[0].ID, "latest start first")

	v := mustVolunteer(t, d, "Vera", "vera@example.com", 1)
	mustJoin(t, d, v.ID, garden.ID, 4)

	viewed, err := d.ListProjects(ctx, db.ProjectFilter{ViewerID: &v.ID})
	require.NoError(t, err)
	for _, p := range viewed {
		require.NotNil(t, p.IsJoined, p.Name)
		assert.Equal(t, p.ID == garden.ID, *p.IsJoined, p.Name)
		if p.ID == garden.ID {
			assert.Equal(t, 1, p.VolunteerCount)
		}
	}

	end := at(30)
	updated, err := d.UpdateProject(ctx, garden.ID, db.ProjectUpdate{Status: ptr(db.ProjectCompleted), EndDate: &end})
	require.NoError(t, err)
	assert.Equal(t, db.ProjectCompleted, updated.Status)
	require.NotNil(t, updated.EndDate)
	assert.True(t, updated.EndDate.Equal(end))
	assert.Equal(t, 1, updated.VolunteerCount)

	_, err = d.UpdateProject(ctx, garden.ID, db.ProjectUpdate{})
	assert.ErrorIs(t, err, db.ErrNoChanges)
	_, err = d.UpdateProject(ctx, 999999, db.ProjectUpdate{Name: ptr("x")})
	assert.ErrorIs(t, err, db.ErrNotFound)

	counts, err := d.CountProjectsByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, db.ProjectStatusCounts{Planned: 1, Active: 1, Completed: 1}, *counts)
	assert.Equal(t, 3, counts.Total())

	require.NoError(t, d.DeleteProject(ctx, food.ID))
	assert.ErrorIs(t, d.DeleteProject(ctx, food.ID), db.ErrNotFound)
	_, err = d.GetProject(ctx, food.ID)
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func testMembership(t *testing.T, d db.Database) {
	ctx := context.Background()
	org := mustOrg(t, d, "Helpers")
	small := mustProject(t, d, org.ID, "Small", db.ProjectActive, 1, 1)
	big := mustProject(t, d, org.ID, "Big", db.ProjectActive, 10, 2)
	ann := mustVolunteer(t, d, "Ann", "ann@example.com", 1)
	ben := mustVolunteer(t, d, "Ben", "ben@example.com", 1)

	m, err := d.JoinProject(ctx, ann.ID, small.ID, "lead", at(5))
	require.NoError(t, err)
	assert.Equal(t, "lead", m.Role)
	assert.Equal(t, "Ann", m.VolunteerName)
	assert.Equal(t, "ann@example.com", m.VolunteerEmail)
	assert.Equal(t, "Small", m.ProjectName)
	assert.True(t, m.JoinDate.Equal(at(5)))

	_, err = d.JoinProject(ctx, ann.ID, small.ID, db.DefaultMemberRole, at(6))
	assert.ErrorIs(t, err, db.ErrAlreadyJoined, "already joined wins over full")

	_, err = d.JoinProject(ctx, ben.ID, small.ID, db.DefaultMemberRole, at(6))
	assert.ErrorIs(t, err, db.ErrProjectFull)

	_, err = d.JoinProject(ctx, 999999, small.ID, db.DefaultMemberRole, at(6))
	assert.ErrorIs(t, err, db.ErrVolunteerNotFound, "missing volunteer wins over full")

	_, err = d.JoinProject(ctx, ben.ID, 999999, db.DefaultMemberRole, at(6))
	assert.ErrorIs(t, err, db.ErrNotFound)
	assert.NotErrorIs(t, err, db.ErrVolunteerNotFound)
	_, err = d.JoinProject(ctx, 999999, big.ID, db.DefaultMemberRole, at(6))
	assert.ErrorIs(t, err, db.ErrVolunteerNotFound)

	mustJoin(t, d, ann.ID, big.ID, 7)
	mustJoin(t, d, ben.ID, big.ID, 8)

	mine, err := d.ListProjectsByVolunteer(ctx, ann.ID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, big.ID, mine[0].ID, "latest join first")
	assert.Equal(t, db.DefaultMemberRole, mine[0].VolunteerRole)
	assert.Equal(t, "lead", mine[1].VolunteerRole)
	assert.Equal(t, 2, mine[0].VolunteerCount)

	members, err := d.ListProjectMembers(ctx, big.ID)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, ann.ID, members[0].VolunteerID)
	assert.Equal(t, ben.ID, members[1].VolunteerID)

	require.NoError(t, d.LeaveProject(ctx, ann.ID, small.ID))
	assert.ErrorIs(t, d.LeaveProject(ctx, ann.ID, small.ID), db.ErrNotMember)

	_, err = d.JoinProject(ctx, ben.ID, small.ID, db.DefaultMemberRole, at(9))
	assert.NoError(t, err, "leaving frees the seat")

	none, err := d.ListProjectsByVolunteer(ctx, 999999)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func testSeatRelease(t *testing.T, d db.Database) {
	ctx := context.Background()
	org := mustOrg(t, d, "Helpers")
	solo := mustProject(t, d, org.ID, "Solo", db.ProjectActive, 1, 1)
	pair := mustProject(t, d, org.ID, "Pair", db.ProjectActive, 2, 2)
	ann := mustVolunteer(t, d, "Ann", "ann@example.com", 1)
	ben := mustVolunteer(t, d, "Ben", "ben@example.com", 1)
	cat := mustVolunteer(t, d, "Cat", "cat@example.com", 1)
	dan := mustVolunteer(t, d, "Dan", "dan@example.com", 1)

	mustJoin(t, d, ann.ID, solo.ID, 3)
	mustJoin(t, d, ann.ID, pair.ID, 3)
	mustJoin(t, d, ben.ID, pair.ID, 4)
	_, err := d.JoinProject(ctx, ben.ID, solo.ID, db.DefaultMemberRole, at(4))
	require.ErrorIs(t, err, db.ErrProjectFull)

	require.NoError(t, d.DeleteVolunteer(ctx, ann.ID))

	_, err = d.JoinProject(ctx, ben.ID, solo.ID, db.DefaultMemberRole, at(5))
	assert.NoError(t, err, "deleting a member frees their seat")
	_, err = d.JoinProject(ctx, cat.ID, pair.ID, db.DefaultMemberRole, at(5))
	assert.NoError(t, err, "in every project they had joined")
	_, err = d.JoinProject(ctx, dan.ID, pair.ID, db.DefaultMemberRole, at(5))
	assert.ErrorIs(t, err, db.ErrProjectFull, "only their own seat is freed")

	require.NoError(t, d.DeleteProject(ctx, solo.ID))
	mine, err := d.ListProjectsByVolunteer(ctx, ben.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, pair.ID, mine[0].ID)

	again := mustProject(t, d, org.ID, "Solo again", db.ProjectActive, 1, 6)
	_, err = d.JoinProject(ctx, ben.ID, again.ID, db.DefaultMemberRole, at(6))
	assert.NoError(t, err, "a new project starts with every seat free")
	_, err = d.JoinProject(ctx, dan.ID, again.ID, db.DefaultMemberRole, at(6))
	assert.ErrorIs(t, err, db.ErrProjectFull)
}

func testConcurrentJoins(t *testing.T, d db.Database) {
	ctx := context.Background()
	org := mustOrg(t, d, "Helpers")
	project := mustProject(t, d, org.ID, "Popular", db.ProjectActive, 3, 1)

	const n = 8
	volunteers := make([]*db.Volunteer, n)
	for i := range volunteers {
		volunteers[i] = mustVolunteer(t, d, fmt.Sprintf("V%d", i), fmt.Sprintf("v%d@example.com", i), 1)
	}

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		joined int
		full   int
		other  []error
	)
	for _, v := range volunteers {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			_, err := d.JoinProject(ctx, id, project.ID, db.DefaultMemberRole, at(2))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				joined++
			case errors.Is(err, db.ErrProjectFull):
				full++
			default:
				other = append(other, err)
			}
		}(v.ID)
	}
	wg.Wait()

	assert.Empty(t, other)
	assert.Equal(t, 3, joined)
	assert.Equal(t, n-3, full)

	members, err := d.ListProjectMembers(ctx, project.ID)
	require.NoError(t, err)
	assert.Len(t, members, 3)
}

func testEvents(t *testing.T, d db.Database) {
	ctx := context.Background()
	org := mustOrg(t, d, "Helpers")
	garden := mustProject(t, d, org.ID, "Garden", db.ProjectActive, 5, 1)
	food := mustProject(t, d, org.ID, "Food", db.ProjectActive, 5, 1)
	v := mustVolunteer(t, d, "Vic", "vic@example.com", 1)

	_, err := d.CreateEvent(ctx, &db.Event{ProjectID: 999999, Name: "x", EventDate: Base, MaxParticipants: 1, CreatedAt: Base})
	assert.ErrorIs(t, err, db.ErrNotFound)

	past := mustEvent(t, d, garden.ID, "Planting", -5)
	soon := mustEvent(t, d, garden.ID, "Weeding", 5)
	later := mustEvent(t, d, food.ID, "Sorting", 10)
	assert.Equal(t, "Garden", past.ProjectName)
	assert.Zero(t, past.AttendanceCount)
	assert.Nil(t, past.AttendanceStatus)

	all, err := d.ListEvents(ctx, db.EventFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, later.ID, all[0].ID)
	assert.Equal(t, past.ID, all[2].ID)

	gardenOnly, err := d.ListEvents(ctx, db.EventFilter{ProjectID: &garden.ID})
	require.NoError(t, err)
	require.Len(t, gardenOnly, 2)
	assert.Equal(t, soon.ID, gardenOnly[0].ID)

	upcoming, err := d.ListUpcomingEvents(ctx, Base)
	require.NoError(t, err)
	require.Len(t, upcoming, 2)
	assert.Equal(t, soon.ID, upcoming[0].ID, "soonest first")
	assert.Equal(t, later.ID, upcoming[1].ID)

	onTheDot, err := d.ListUpcomingEvents(ctx, at(5))
	require.NoError(t, err)
	assert.Len(t, onTheDot, 2, "an event at now is upcoming")

	none, err := d.ListEventsForVolunteer(ctx, v.ID)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	mustJoin(t, d, v.ID, garden.ID, 0)
	mustMark(t, d, past.ID, v.ID, db.AttendancePresent, -5)

	mine, err := d.ListEventsForVolunteer(ctx, v.ID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, soon.ID, mine[0].ID)
	assert.Nil(t, mine[0].AttendanceStatus)
	require.NotNil(t, mine[1].AttendanceStatus)
	assert.Equal(t, db.AttendancePresent, *mine[1].AttendanceStatus)
	assert.Equal(t, 1, mine[1].AttendanceCount)

	moved := at(6)
	updated, err := d.UpdateEvent(ctx, soon.ID, db.EventUpdate{EventDate: &moved, Location: ptr("Shed")})
	require.NoError(t, err)
	assert.True(t, updated.EventDate.Equal(moved))
	require.NotNil(t, updated.Location)
	assert.Equal(t, "Shed", *updated.Location)

	_, err = d.UpdateEvent(ctx, soon.ID, db.EventUpdate{})
	assert.ErrorIs(t, err, db.ErrNoChanges)
	_, err = d.UpdateEvent(ctx, 999999, db.EventUpdate{Name: ptr("x")})
	assert.ErrorIs(t, err, db.ErrNotFound)

	require.NoError(t, d.DeleteEvent(ctx, past.ID))
	assert.ErrorIs(t, d.DeleteEvent(ctx, past.ID), db.ErrNotFound)
	history, err := d.ListAttendanceByVolunteer(ctx, v.ID)
	require.NoError(t, err)
	assert.Empty(t, history, "attendance goes with its event")
}

func testAttendance(t *testing.T, d db.Database) {
	ctx := context.Background()
	org := mustOrg(t, d, "Helpers")
	project := mustProject(t, d, org.ID, "Garden", db.ProjectActive, 5, 1)
	first := mustEvent(t, d, project.ID, "First", 1)
	second := mustEvent(t, d, project.ID, "Second", 2)
	zed := mustVolunteer(t, d, "Zed", "zed@example.com", 1)
	amy := mustVolunteer(t, d, "Amy", "amy@example.com", 1)

	_, err := d.MarkAttendance(ctx, &db.Attendance{EventID: 999999, VolunteerID: zed.ID, MarkedAt: Base, Status: db.AttendancePresent})
	assert.ErrorIs(t, err, db.ErrNotFound)
	_, err = d.MarkAttendance(ctx, &db.Attendance{EventID: first.ID, VolunteerID: 999999, MarkedAt: Base, Status: db.AttendancePresent})
	assert.ErrorIs(t, err, db.ErrNotFound)

	a, err := d.MarkAttendance(ctx, &db.Attendance{
		EventID:     first.ID,
		VolunteerID: zed.ID,
		MarkedAt:    at(1),
		Status:      db.AttendanceAbsent,
		Notes:       ptr("sick"),
	})
	require.NoError(t, err)
	assert.Equal(t, "First", a.EventName)
	assert.Equal(t, "Zed", a.VolunteerName)
	require.NotNil(t, a.Notes)

	again, err := d.MarkAttendance(ctx, &db.Attendance{
		EventID:     first.ID,
		VolunteerID: zed.ID,
		MarkedAt:    at(2),
		Status:      db.AttendancePresent,
	})
	require.NoError(t, err)
	assert.Equal(t, db.AttendancePresent, again.Status)
	assert.Nil(t, again.Notes, "a re-mark replaces notes")
	assert.True(t, again.MarkedAt.Equal(at(2)))

	mustMark(t, d, first.ID, amy.ID, db.AttendanceExcused, 1)
	mustMark(t, d, second.ID, zed.ID, db.AttendancePresent, 2)

	byEvent, err := d.ListAttendanceByEvent(ctx, first.ID)
	require.NoError(t, err)
	require.Len(t, byEvent, 2, "one record per pair")
	assert.Equal(t, "Amy", byEvent[0].VolunteerName)
	assert.Equal(t, "Zed", byEvent[1].VolunteerName)

	event, err := d.GetEvent(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, event.AttendanceCount)

	history, err := d.ListAttendanceByVolunteer(ctx, zed.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, second.ID, history[0].EventID)
	require.NotNil(t, history[0].EventDate)
	assert.True(t, history[0].EventDate.Equal(at(2)))
	require.NotNil(t, history[0].ProjectName)
	assert.Equal(t, "Garden", *history[0].ProjectName)

	require.NoError(t, d.DeleteAttendance(ctx, first.ID, amy.ID))
	assert.ErrorIs(t, d.DeleteAttendance(ctx, first.ID, amy.ID), db.ErrNotFound)
}

func testResources(t *testing.T, d db.Database) {
	ctx := context.Background()
	org := mustOrg(t, d, "Helpers")
	garden := mustProject(t, d, org.ID, "Garden", db.ProjectActive, 5, 1)
	food := mustProject(t, d, org.ID, "Food", db.ProjectActive, 5, 1)

	_, err := d.CreateResource(ctx, &db.Resource{ProjectID: 999999, Name: "x", Quantity: 1, CreatedAt: Base})
	assert.ErrorIs(t, err, db.ErrNotFound)

	create := func(projectID int64, name string, days int) *db.Resource {
		r, err := d.CreateResource(ctx, &db.Resource{
			ProjectID: projectID,
			Name:      name,
			Type:      ptr("equipment"),
			Quantity:  2,
			CreatedAt: at(days),
		})
		require.NoError(t, err)
		return r
	}
	spade := create(garden.ID, "Spade", 1)
	hose := create(garden.ID, "Hose", 2)
	crate := create(food.ID, "Crate", 3)
	assert.Equal(t, "Garden", spade.ProjectName)

	all, err := d.ListResources(ctx, db.ResourceFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, crate.ID, all[0].ID, "newest first")

	gardenOnly, err := d.ListResources(ctx, db.ResourceFilter{ProjectID: &garden.ID})
	require.NoError(t, err)
	require.Len(t, gardenOnly, 2)
	assert.Equal(t, hose.ID, gardenOnly[0].ID, "by name")
	assert.Equal(t, spade.ID, gardenOnly[1].ID)

	updated, err := d.UpdateResource(ctx, spade.ID, db.ResourceUpdate{Quantity: ptr(7)})
	require.NoError(t, err)
	assert.Equal(t, 7, updated.Quantity)
	assert.Equal(t, "Spade", updated.Name)

	_, err = d.UpdateResource(ctx, spade.ID, db.ResourceUpdate{})
	assert.ErrorIs(t, err, db.ErrNoChanges)
	_, err = d.UpdateResource(ctx, 999999, db.ResourceUpdate{Name: ptr("x")})
	assert.ErrorIs(t, err, db.ErrNotFound)

	require.NoError(t, d.DeleteResource(ctx, hose.ID))
	assert.ErrorIs(t, d.DeleteResource(ctx, hose.ID), db.ErrNotFound)
	_, err = d.GetResource(ctx, hose.ID)
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func testDashboards(t *testing.T, d db.Database) {
	ctx := context.Background()
	ids := Seed(t, d)

	admin, err := d.AdminDashboard(ctx, Base)
	require.NoError(t, err)
	assert.Equal(t, 3, admin.TotalVolunteers)
	assert.Equal(t, 2, admin.ActiveVolunteers)
	assert.Equal(t, 3, admin.TotalProjects)
	assert.Equal(t, 2, admin.ActiveProjects)
	assert.Equal(t, 4, admin.TotalEvents)
	assert.Equal(t, 2, admin.UpcomingEvents)
	assert.Equal(t, db.ProjectStatusCounts{Active: 2, Planned: 1}, admin.ProjectStatusBreakdown)
	require.Len(t, admin.VolunteersPerProject, 3)
	assert.Equal(t, db.ProjectVolunteerCount{ProjectID: ids.Garden, ProjectName: "Garden", VolunteerCount: 3}, admin.VolunteersPerProject[0])
	assert.Equal(t, 1, admin.VolunteersPerProject[1].VolunteerCount)
	assert.Equal(t, 0, admin.VolunteersPerProject[2].VolunteerCount)
	assert.Equal(t, 3, admin.AttendanceStats.TotalAttendances)
	assert.Equal(t, 1.5, admin.AttendanceStats.AverageAttendancePerEvent)

	vol, err := d.VolunteerDashboard(ctx, ids.Alice, Base)
	require.NoError(t, err)
	assert.Equal(t, ids.Alice, vol.VolunteerID)
	assert.Equal(t, 2, vol.ProjectsJoined)
	assert.Equal(t, 2, vol.EventsAttended)
	assert.Equal(t, 2, vol.UpcomingEvents)
	require.Len(t, vol.Projects, 2)
	assert.Equal(t, ids.Food, vol.Projects[0].ProjectID)
	require.Len(t, vol.RecentEvents, 2)
	assert.Equal(t, ids.Watering, vol.RecentEvents[0].EventID)

	stranger, err := d.VolunteerDashboard(ctx, 999999, Base)
	require.NoError(t, err)
	assert.Zero(t, stranger.ProjectsJoined)
	assert.NotNil(t, stranger.Projects)
	assert.NotNil(t, stranger.RecentEvents)

	stats, err := d.ProjectStats(ctx, ids.Garden)
	require.NoError(t, err)
	assert.Equal(t, db.ProjectStats{ProjectID: ids.Garden, VolunteerCount: 3, EventCount: 3, ResourceCount: 1, TotalAttendance: 2}, *stats)

	_, err = d.ProjectStats(ctx, 999999)
	assert.ErrorIs(t, err, db.ErrNotFound)

	feed, err := d.RecentActivity(ctx, 3)
	require.NoError(t, err)
	require.Len(t, feed, 3)
	for i := 1; i < len(feed); i++ {
		assert.False(t, feed[i].ActivityDate.After(feed[i-1].ActivityDate), "newest first")
	}
	assert.Equal(t, db.Activity{ActivityType: db.ActivityEventCreated, Description: "New event: Sorting", ActivityDate: at(2)}, feed[0])
	assert.Equal(t, "New event: Harvest", feed[1].Description)
	assert.Equal(t, "Alice attended Watering", feed[2].Description)

	full, err := d.RecentActivity(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, full, db.DefaultActivityLimit)
	for _, a := range full {
		if a.ActivityType == db.ActivityAttendanceMarked {
			assert.NotContains(t, a.Description, "Carl", "only present marks appear")
		}
	}
}

func testCascades(t *testing.T, d db.Database) {
	ctx := context.Background()
	ids := Seed(t, d)

	require.NoError(t, d.DeleteVolunteer(ctx, ids.Alice))
	members, err := d.ListProjectMembers(ctx, ids.Garden)
	require.NoError(t, err)
	assert.Len(t, members, 2)
	records, err := d.ListAttendanceByEvent(ctx, ids.Planting)
	require.NoError(t, err)
	for _, r := range records {
		assert.NotEqual(t, ids.Alice, r.VolunteerID)
	}

	require.NoError(t, d.DeleteProject(ctx, ids.Garden))
	events, err := d.ListEvents(ctx, db.EventFilter{ProjectID: &ids.Garden})
	require.NoError(t, err)
	assert.Empty(t, events)
	resources, err := d.ListResources(ctx, db.ResourceFilter{ProjectID: &ids.Garden})
	require.NoError(t, err)
	assert.Empty(t, resources)
	_, err = d.GetEvent(ctx, ids.Planting)
	assert.ErrorIs(t, err, db.ErrNotFound)
	history, err := d.ListAttendanceByVolunteer(ctx, ids.Bea)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func testFailedCreatesKeepIDs(t *testing.T, d db.Database) {
	ctx := context.Background()
	org := mustOrg(t, d, "Helpers")
	first := mustProject(t, d, org.ID, "First", db.ProjectActive, 5, 1)

	_, err := d.CreateProject(ctx, &db.Project{
		OrgID: 999999, Name: "Orphan", Status: db.ProjectPlanned, StartDate: at(1), MaxVolunteers: 1, CreatedAt: at(1),
	})
	require.ErrorIs(t, err, db.ErrNotFound)
	second := mustProject(t, d, org.ID, "Second", db.ProjectActive, 5, 2)
	assert.Equal(t, first.ID+1, second.ID)

	event := mustEvent(t, d, first.ID, "First event", 3)
	_, err = d.CreateEvent(ctx, &db.Event{ProjectID: 999999, Name: "Orphan", EventDate: at(3), MaxParticipants: 1, CreatedAt: at(3)})
	require.ErrorIs(t, err, db.ErrNotFound)
	assert.Equal(t, event.ID+1, mustEvent(t, d, first.ID, "Second event", 4).ID)

	resource, err := d.CreateResource(ctx, &db.Resource{ProjectID: first.ID, Name: "Rake", Quantity: 1, CreatedAt: at(5)})
	require.NoError(t, err)
	_, err = d.CreateResource(ctx, &db.Resource{ProjectID: 999999, Name: "Orphan", Quantity: 1, CreatedAt: at(5)})
	require.ErrorIs(t, err, db.ErrNotFound)
	next, err := d.CreateResource(ctx, &db.Resource{ProjectID: first.ID, Name: "Hoe", Quantity: 1, CreatedAt: at(6)})
	require.NoError(t, err)
	assert.Equal(t, resource.ID+1, next.ID)
}

// SeedIDs identifies the records created by Seed
type SeedIDs struct {
	Org                 int64
	Garden, Food, Books int64
	Alice, Bea, Carl    int64
	Planting, Watering  int64
	Harvest, Sorting    int64
}

// Seed populates d with a small fixed scenario spanning every collection.
// All timestamps are relative to Base so results are deterministic.
func Seed(t *testing.T, d db.Database) SeedIDs {
	t.Helper()
	ctx := context.Background()

	var ids SeedIDs
	ids.Org = mustOrg(t, d, "Helpers").ID
	ids.Garden = mustProject(t, d, ids.Org, "Garden", db.ProjectActive, 10, -30).ID
	ids.Food = mustProject(t, d, ids.Org, "Food", db.ProjectActive, 10, -20).ID
	ids.Books = mustProject(t, d, ids.Org, "Books", db.ProjectPlanned, 10, -10).ID

	ids.Alice = mustVolunteer(t, d, "Alice", "alice@example.com", -40).ID
	ids.Bea = mustVolunteer(t, d, "Bea", "bea@example.com", -39).ID
	ids.Carl = mustVolunteer(t, d, "Carl", "carl@example.com", -38).ID
	_, err := d.UpdateVolunteer(ctx, ids.Carl, db.VolunteerUpdate{Status: ptr(db.VolunteerInactive)})
	require.NoError(t, err)

	mustJoin(t, d, ids.Alice, ids.Garden, -25)
	mustJoin(t, d, ids.Bea, ids.Garden, -24)
	mustJoin(t, d, ids.Carl, ids.Garden, -23)
	mustJoin(t, d, ids.Alice, ids.Food, -15)

	ids.Planting = mustEvent(t, d, ids.Garden, "Planting", -8).ID
	ids.Watering = mustEvent(t, d, ids.Garden, "Watering", -4).ID
	ids.Harvest = mustEvent(t, d, ids.Garden, "Harvest", 10).ID
	ids.Sorting = mustEvent(t, d, ids.Food, "Sorting", 12).ID

	mustMark(t, d, ids.Planting, ids.Alice, db.AttendancePresent, -8)
	mustMark(t, d, ids.Planting, ids.Bea, db.AttendancePresent, -8)
	mustMark(t, d, ids.Planting, ids.Carl, db.AttendanceAbsent, -8)
	mustMark(t, d, ids.Watering, ids.Alice, db.AttendancePresent, -4)

	_, err = d.CreateResource(ctx, &db.Resource{ProjectID: ids.Garden, Name: "Spade", Quantity: 4, CreatedAt: at(-29)})
	require.NoError(t, err)

	return ids
}
