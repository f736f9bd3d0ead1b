package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jakechorley/volunteer-hub/pkg/db"
)

var fixedNow = time.Date(2025, time.May, 1, 12, 0, 0, 0, time.UTC)

// freezeTime pins now() for the duration of a test
func freezeTime(t *testing.T) {
	t.Helper()
	prev := now
	now = func() time.Time { return fixedNow }
	t.Cleanup(func() { now = prev })
}

// mockVolunteerStore implements db.VolunteerStore over a map
type mockVolunteerStore struct {
	volunteers map[int64]*db.Volunteer
	nextID     int64
	statusList string
	createErr  error
}

func newMockVolunteerStore(vs ...db.Volunteer) *mockVolunteerStore {
	m := &mockVolunteerStore{volunteers: make(map[int64]*db.Volunteer), nextID: 1}
	for i := range vs {
		v := vs[i]
		m.volunteers[v.ID] = &v
		if v.ID >= m.nextID {
			m.nextID = v.ID + 1
		}
	}
	return m
}

func (m *mockVolunteerStore) ListVolunteers(ctx context.Context) ([]db.Volunteer, error) {
	out := []db.Volunteer{}
	for _, v := range m.volunteers {
		out = append(out, *v)
	}
	return out, nil
}

func (m *mockVolunteerStore) ListVolunteersByStatus(ctx context.Context, status string) ([]db.Volunteer, error) {
	m.statusList = status
	out := []db.Volunteer{}
	for _, v := range m.volunteers {
		if v.Status == status {
			out = append(out, *v)
		}
	}
	return out, nil
}

func (m *mockVolunteerStore) GetVolunteer(ctx context.Context, id int64) (*db.Volunteer, error) {
	v, ok := m.volunteers[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	out := *v
	out.PasswordHash = ""
	return &out, nil
}

func (m *mockVolunteerStore) GetVolunteerByEmail(ctx context.Context, email string) (*db.Volunteer, error) {
	for _, v := range m.volunteers {
		if strings.EqualFold(v.Email, email) {
			out := *v
			return &out, nil
		}
	}
	return nil, db.ErrNotFound
}

func (m *mockVolunteerStore) CreateVolunteer(ctx context.Context, v *db.Volunteer) (*db.Volunteer, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	if _, err := m.GetVolunteerByEmail(ctx, v.Email); err == nil {
		return nil, db.ErrEmailTaken
	}
	created := *v
	created.ID = m.nextID
	m.nextID++
	m.volunteers[created.ID] = &created
	out := created
	out.PasswordHash = ""
	return &out, nil
}

func (m *mockVolunteerStore) UpdateVolunteer(ctx context.Context, id int64, u db.VolunteerUpdate) (*db.Volunteer, error) {
	v, ok := m.volunteers[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	if u.Name != nil {
		v.Name = *u.Name
	}
	if u.Email != nil {
		v.Email = *u.Email
	}
	if u.Phone != nil {
		v.Phone = u.Phone
	}
	if u.Status != nil {
		v.Status = *u.Status
	}
	if u.Role != nil {
		v.Role = *u.Role
	}
	return m.GetVolunteer(ctx, id)
}

func (m *mockVolunteerStore) UpdateVolunteerPassword(ctx context.Context, id int64, passwordHash string) error {
	v, ok := m.volunteers[id]
	if !ok {
		return db.ErrNotFound
	}
	v.PasswordHash = passwordHash
	return nil
}

func (m *mockVolunteerStore) DeleteVolunteer(ctx context.Context, id int64) error {
	if _, ok := m.volunteers[id]; !ok {
		return db.ErrNotFound
	}
	delete(m.volunteers, id)
	return nil
}

func (m *mockVolunteerStore) CountVolunteersByStatus(ctx context.Context) (*db.VolunteerCounts, error) {
	counts := &db.VolunteerCounts{}
	for _, v := range m.volunteers {
		counts.Total++
		if v.Status == db.VolunteerActive {
			counts.Active++
		}
	}
	return counts, nil
}

// mockProjectStore implements db.ProjectStore, recording the arguments it receives
type mockProjectStore struct {
	created    *db.Project
	filter     db.ProjectFilter
	joinRole   string
	joinedAt   time.Time
	joinErr    error
	leaveErr   error
	leftProjID int64
	stored     *db.Project
	update     *db.ProjectUpdate
}

func (m *mockProjectStore) ListProjects(ctx context.Context, filter db.ProjectFilter) ([]db.Project, error) {
	m.filter = filter
	return []db.Project{}, nil
}

func (m *mockProjectStore) GetProject(ctx context.Context, id int64) (*db.Project, error) {
	if m.stored == nil || m.stored.ID != id {
		return nil, db.ErrNotFound
	}
	p := *m.stored
	return &p, nil
}

func (m *mockProjectStore) CreateProject(ctx context.Context, p *db.Project) (*db.Project, error) {
	created := *p
	created.ID = 7
	m.created = &created
	return &created, nil
}

func (m *mockProjectStore) UpdateProject(ctx context.Context, id int64, u db.ProjectUpdate) (*db.Project, error) {
	m.update = &u
	if m.stored == nil || m.stored.ID != id {
		return nil, db.ErrNotFound
	}
	p := *m.stored
	if u.StartDate != nil {
		p.StartDate = *u.StartDate
	}
	if u.EndDate != nil {
		p.EndDate = u.EndDate
	}
	return &p, nil
}

func (m *mockProjectStore) DeleteProject(ctx context.Context, id int64) error {
	return db.ErrNotFound
}

func (m *mockProjectStore) CountProjectsByStatus(ctx context.Context) (*db.ProjectStatusCounts, error) {
	return &db.ProjectStatusCounts{}, nil
}

func (m *mockProjectStore) ListProjectsByVolunteer(ctx context.Context, volunteerID int64) ([]db.VolunteerProject, error) {
	return []db.VolunteerProject{}, nil
}

func (m *mockProjectStore) ListProjectMembers(ctx context.Context, projectID int64) ([]db.Membership, error) {
	return []db.Membership{}, nil
}

func (m *mockProjectStore) JoinProject(ctx context.Context, volunteerID, projectID int64, role string, joinedAt time.Time) (*db.Membership, error) {
	if m.joinErr != nil {
		return nil, m.joinErr
	}
	m.joinRole = role
	m.joinedAt = joinedAt
	return &db.Membership{VolunteerID: volunteerID, ProjectID: projectID, Role: role, JoinDate: joinedAt}, nil
}

func (m *mockProjectStore) LeaveProject(ctx context.Context, volunteerID, projectID int64) error {
	if m.leaveErr != nil {
		return m.leaveErr
	}
	m.leftProjID = projectID
	return nil
}

// mockEventStore implements db.EventStore, recording created events
type mockEventStore struct {
	created    []db.Event
	failAfter  int
	failErr    error
	upcomingAt time.Time
	filter     db.EventFilter
	forVol     int64
}

func (m *mockEventStore) ListEvents(ctx context.Context, filter db.EventFilter) ([]db.Event, error) {
	m.filter = filter
	return []db.Event{}, nil
}

func (m *mockEventStore) ListUpcomingEvents(ctx context.Context, at time.Time) ([]db.Event, error) {
	m.upcomingAt = at
	return []db.Event{}, nil
}

func (m *mockEventStore) ListEventsForVolunteer(ctx context.Context, volunteerID int64) ([]db.Event, error) {
	m.forVol = volunteerID
	return []db.Event{}, nil
}

func (m *mockEventStore) GetEvent(ctx context.Context, id int64) (*db.Event, error) {
	return nil, db.ErrNotFound
}

func (m *mockEventStore) CreateEvent(ctx context.Context, e *db.Event) (*db.Event, error) {
	if m.failErr != nil && len(m.created) >= m.failAfter {
		return nil, m.failErr
	}
	created := *e
	created.ID = int64(len(m.created) + 1)
	m.created = append(m.created, created)
	return &created, nil
}

func (m *mockEventStore) UpdateEvent(ctx context.Context, id int64, u db.EventUpdate) (*db.Event, error) {
	return nil, db.ErrNotFound
}

func (m *mockEventStore) DeleteEvent(ctx context.Context, id int64) error {
	return db.ErrNotFound
}

// mockAttendanceStore implements db.AttendanceStore, recording the last mark
type mockAttendanceStore struct {
	marked *db.Attendance
	err    error
}

func (m *mockAttendanceStore) ListAttendanceByEvent(ctx context.Context, eventID int64) ([]db.Attendance, error) {
	return []db.Attendance{}, nil
}

func (m *mockAttendanceStore) ListAttendanceByVolunteer(ctx context.Context, volunteerID int64) ([]db.Attendance, error) {
	return []db.Attendance{}, nil
}

func (m *mockAttendanceStore) MarkAttendance(ctx context.Context, a *db.Attendance) (*db.Attendance, error) {
	if m.err != nil {
		return nil, m.err
	}
	marked := *a
	m.marked = &marked
	return &marked, nil
}

func (m *mockAttendanceStore) DeleteAttendance(ctx context.Context, eventID, volunteerID int64) error {
	return nil
}

// mockDashboardStore implements db.DashboardStore
type mockDashboardStore struct {
	at        time.Time
	limit     int
	volunteer int64
}

func (m *mockDashboardStore) AdminDashboard(ctx context.Context, at time.Time) (*db.AdminDashboardStats, error) {
	m.at = at
	return &db.AdminDashboardStats{}, nil
}

func (m *mockDashboardStore) VolunteerDashboard(ctx context.Context, volunteerID int64, at time.Time) (*db.VolunteerDashboardStats, error) {
	m.at = at
	m.volunteer = volunteerID
	return &db.VolunteerDashboardStats{VolunteerID: volunteerID}, nil
}

func (m *mockDashboardStore) ProjectStats(ctx context.Context, projectID int64) (*db.ProjectStats, error) {
	return &db.ProjectStats{ProjectID: projectID}, nil
}

func (m *mockDashboardStore) RecentActivity(ctx context.Context, limit int) ([]db.Activity, error) {
	m.limit = limit
	return []db.Activity{}, nil
}
