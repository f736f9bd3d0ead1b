package db

import (
	"context"
	"time"
)

// VolunteerStore defines the interface for volunteer database operations
type VolunteerStore interface {
	ListVolunteers(ctx context.Context) ([]Volunteer, error)
	ListVolunteersByStatus(ctx context.Context, status string) ([]Volunteer, error)
	GetVolunteer(ctx context.Context, id int64) (*Volunteer, error)
	// GetVolunteerByEmail matches case-insensitively and includes the password hash
	GetVolunteerByEmail(ctx context.Context, email string) (*Volunteer, error)
	CreateVolunteer(ctx context.Context, v *Volunteer) (*Volunteer, error)
	UpdateVolunteer(ctx context.Context, id int64, u VolunteerUpdate) (*Volunteer, error)
	UpdateVolunteerPassword(ctx context.Context, id int64, passwordHash string) error
	DeleteVolunteer(ctx context.Context, id int64) error
	CountVolunteersByStatus(ctx context.Context) (*VolunteerCounts, error)
}

// OrganizationStore defines the interface for organization database operations
type OrganizationStore interface {
	ListOrganizations(ctx context.Context) ([]Organization, error)
	GetOrganization(ctx context.Context, id int64) (*Organization, error)
	CreateOrganization(ctx context.Context, o *Organization) (*Organization, error)
}

// ProjectStore defines the interface for project and membership database operations
type ProjectStore interface {
	ListProjects(ctx context.Context, filter ProjectFilter) ([]Project, error)
	GetProject(ctx context.Context, id int64) (*Project, error)
	CreateProject(ctx context.Context, p *Project) (*Project, error)
	UpdateProject(ctx context.Context, id int64, u ProjectUpdate) (*Project, error)
	DeleteProject(ctx context.Context, id int64) error
	CountProjectsByStatus(ctx context.Context) (*ProjectStatusCounts, error)

	ListProjectsByVolunteer(ctx context.Context, volunteerID int64) ([]VolunteerProject, error)
	ListProjectMembers(ctx context.Context, projectID int64) ([]Membership, error)
	// JoinProject fails with ErrAlreadyJoined or ErrProjectFull; the check and
	// the insert are atomic with respect to concurrent joins.
	JoinProject(ctx context.Context, volunteerID, projectID int64, role string, joinedAt time.Time) (*Membership, error)
	// LeaveProject fails with ErrNotMember when no membership exists
	LeaveProject(ctx context.Context, volunteerID, projectID int64) error
}

// EventStore defines the interface for event database operations
type EventStore interface {
	ListEvents(ctx context.Context, filter EventFilter) ([]Event, error)
	ListUpcomingEvents(ctx context.Context, now time.Time) ([]Event, error)
	ListEventsForVolunteer(ctx context.Context, volunteerID int64) ([]Event, error)
	GetEvent(ctx context.Context, id int64) (*Event, error)
	CreateEvent(ctx context.Context, e *Event) (*Event, error)
	UpdateEvent(ctx context.Context, id int64, u EventUpdate) (*Event, error)
	DeleteEvent(ctx context.Context, id int64) error
}

// AttendanceStore defines the interface for attendance database operations
type AttendanceStore interface {
	ListAttendanceByEvent(ctx context.Context, eventID int64) ([]Attendance, error)
	ListAttendanceByVolunteer(ctx context.Context, volunteerID int64) ([]Attendance, error)
	// MarkAttendance inserts or overwrites the record for (event, volunteer)
	MarkAttendance(ctx context.Context, a *Attendance) (*Attendance, error)
	DeleteAttendance(ctx context.Context, eventID, volunteerID int64) error
}

// ResourceStore defines the interface for resource database operations
type ResourceStore interface {
	ListResources(ctx context.Context, filter ResourceFilter) ([]Resource, error)
	GetResource(ctx context.Context, id int64) (*Resource, error)
	CreateResource(ctx context.Context, r *Resource) (*Resource, error)
	UpdateResource(ctx context.Context, id int64, u ResourceUpdate) (*Resource, error)
	DeleteResource(ctx context.Context, id int64) error
}

// DashboardStore defines the interface for aggregate reporting queries
type DashboardStore interface {
	AdminDashboard(ctx context.Context, now time.Time) (*AdminDashboardStats, error)
	VolunteerDashboard(ctx context.Context, volunteerID int64, now time.Time) (*VolunteerDashboardStats, error)
	ProjectStats(ctx context.Context, projectID int64) (*ProjectStats, error)
	RecentActivity(ctx context.Context, limit int) ([]Activity, error)
}

// Database defines the interface for all database operations.
// Both postgres.DB and mongodb.DB implement this interface and must return
// structurally identical results for the same data.
type Database interface {
	VolunteerStore
	OrganizationStore
	ProjectStore
	EventStore
	AttendanceStore
	ResourceStore
	DashboardStore

	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
