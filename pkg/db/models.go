package db

import "time"

// Volunteer statuses
const (
	VolunteerActive    = "active"
	VolunteerInactive  = "inactive"
	VolunteerSuspended = "suspended"
)

// Roles
const (
	RoleAdmin     = "admin"
	RoleVolunteer = "volunteer"
)

// Project statuses
const (
	ProjectPlanned   = "planned"
	ProjectActive    = "active"
	ProjectCompleted = "completed"
	ProjectCancelled = "cancelled"
)

// Attendance statuses
const (
	AttendancePresent = "present"
	AttendanceAbsent  = "absent"
	AttendanceExcused = "excused"
)

// DefaultMemberRole is the role recorded on a membership when none is given
const DefaultMemberRole = "participant"

// Organization represents an organization record
type Organization struct {
	ID          int64     `json:"org_id" bson:"org_id"`
	Name        string    `json:"name" bson:"name"`
	Description *string   `json:"description" bson:"description,omitempty"`
	Email       *string   `json:"email" bson:"email,omitempty"`
	Phone       *string   `json:"phone" bson:"phone,omitempty"`
	Address     *string   `json:"address" bson:"address,omitempty"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
}

// Volunteer represents a volunteer account.
// PasswordHash is only populated by GetVolunteerByEmail.
type Volunteer struct {
	ID           int64     `json:"volunteer_id" bson:"volunteer_id"`
	Name         string    `json:"name" bson:"name"`
	Email        string    `json:"email" bson:"email"`
	Phone        *string   `json:"phone" bson:"phone,omitempty"`
	JoinDate     time.Time `json:"join_date" bson:"join_date"`
	Status       string    `json:"status" bson:"status"`
	Role         string    `json:"role" bson:"role"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
	PasswordHash string    `json:"-" bson:"password_hash,omitempty"`
}

// VolunteerUpdate holds the fields of a partial volunteer update; nil fields are left unchanged
type VolunteerUpdate struct {
	Name   *string
	Email  *string
	Phone  *string
	Status *string
	Role   *string
}

// Empty reports whether the update changes nothing
func (u VolunteerUpdate) Empty() bool {
	return u.Name == nil && u.Email == nil && u.Phone == nil && u.Status == nil && u.Role == nil
}

// Project represents a project with its derived fields
type Project struct {
	ID             int64      `json:"project_id" bson:"project_id"`
	OrgID          int64      `json:"org_id" bson:"org_id"`
	Name           string     `json:"name" bson:"name"`
	Description    *string    `json:"description" bson:"description,omitempty"`
	StartDate      time.Time  `json:"start_date" bson:"start_date"`
	EndDate        *time.Time `json:"end_date" bson:"end_date,omitempty"`
	Status         string     `json:"status" bson:"status"`
	Location       *string    `json:"location" bson:"location,omitempty"`
	MaxVolunteers  int        `json:"max_volunteers" bson:"max_volunteers"`
	CreatedAt      time.Time  `json:"created_at" bson:"created_at"`
	OrgName        *string    `json:"org_name" bson:"org_name,omitempty"`
	VolunteerCount int        `json:"volunteer_count" bson:"volunteer_count"`
	IsJoined       *bool      `json:"is_joined,omitempty" bson:"is_joined,omitempty"`
}

// ProjectUpdate holds the fields of a partial project update; nil fields are left unchanged
type ProjectUpdate struct {
	OrgID         *int64
	Name          *string
	Description   *string
	StartDate     *time.Time
	EndDate       *time.Time
	Status        *string
	Location      *string
	MaxVolunteers *int
}

// Empty reports whether the update changes nothing
func (u ProjectUpdate) Empty() bool {
	return u.OrgID == nil && u.Name == nil && u.Description == nil && u.StartDate == nil &&
		u.EndDate == nil && u.Status == nil && u.Location == nil && u.MaxVolunteers == nil
}

// ProjectFilter narrows a project listing. When ViewerID is set every
// returned project carries IsJoined for that volunteer.
type ProjectFilter struct {
	Status   string
	ViewerID *int64
}

// VolunteerProject is a project seen from one of its members
type VolunteerProject struct {
	Project       `bson:",inline"`
	JoinDate      time.Time `json:"join_date" bson:"join_date"`
	VolunteerRole string    `json:"volunteer_role" bson:"volunteer_role"`
}

// Membership links a volunteer to a project
type Membership struct {
	VolunteerID    int64     `json:"volunteer_id" bson:"volunteer_id"`
	ProjectID      int64     `json:"project_id" bson:"project_id"`
	JoinDate       time.Time `json:"join_date" bson:"join_date"`
	Role           string    `json:"role" bson:"role"`
	VolunteerName  string    `json:"volunteer_name" bson:"volunteer_name"`
	VolunteerEmail string    `json:"volunteer_email" bson:"volunteer_email"`
	ProjectName    string    `json:"project_name" bson:"project_name"`
}

// Event represents a scheduled event within a project
type Event struct {
	ID               int64     `json:"event_id" bson:"event_id"`
	ProjectID        int64     `json:"project_id" bson:"project_id"`
	Name             string    `json:"name" bson:"name"`
	Description      *string   `json:"description" bson:"description,omitempty"`
	EventDate        time.Time `json:"event_date" bson:"event_date"`
	Location         *string   `json:"location" bson:"location,omitempty"`
	MaxParticipants  int       `json:"max_participants" bson:"max_participants"`
	CreatedAt        time.Time `json:"created_at" bson:"created_at"`
	ProjectName      string    `json:"project_name" bson:"project_name"`
	AttendanceCount  int       `json:"attendance_count" bson:"attendance_count"`
	AttendanceStatus *string   `json:"attendance_status,omitempty" bson:"attendance_status,omitempty"`
}

// EventUpdate holds the fields of a partial event update; nil fields are left unchanged
type EventUpdate struct {
	Name            *string
	Description     *string
	EventDate       *time.Time
	Location        *string
	MaxParticipants *int
}

// Empty reports whether the update changes nothing
func (u EventUpdate) Empty() bool {
	return u.Name == nil && u.Description == nil && u.EventDate == nil && u.Location == nil && u.MaxParticipants == nil
}

// EventFilter narrows an event listing
type EventFilter struct {
	ProjectID *int64
}

// Attendance is the attendance of one volunteer at one event
type Attendance struct {
	EventID       int64      `json:"event_id" bson:"event_id"`
	VolunteerID   int64      `json:"volunteer_id" bson:"volunteer_id"`
	MarkedAt      time.Time  `json:"marked_at" bson:"marked_at"`
	Status        string     `json:"status" bson:"status"`
	Notes         *string    `json:"notes" bson:"notes,omitempty"`
	EventName     string     `json:"event_name" bson:"event_name"`
	VolunteerName string     `json:"volunteer_name" bson:"volunteer_name"`
	EventDate     *time.Time `json:"event_date,omitempty" bson:"event_date,omitempty"`
	ProjectName   *string    `json:"project_name,omitempty" bson:"project_name,omitempty"`
}

// Resource is an item allocated to a project
type Resource struct {
	ID          int64     `json:"resource_id" bson:"resource_id"`
	ProjectID   int64     `json:"project_id" bson:"project_id"`
	Name        string    `json:"name" bson:"name"`
	Type        *string   `json:"type" bson:"type,omitempty"`
	Quantity    int       `json:"quantity" bson:"quantity"`
	Description *string   `json:"description" bson:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	ProjectName string    `json:"project_name" bson:"project_name"`
}

// ResourceUpdate holds the fields of a partial resource update; nil fields are left unchanged
type ResourceUpdate struct {
	Name        *string
	Type        *string
	Quantity    *int
	Description *string
}

// Empty reports whether the update changes nothing
func (u ResourceUpdate) Empty() bool {
	return u.Name == nil && u.Type == nil && u.Quantity == nil && u.Description == nil
}

// ResourceFilter narrows a resource listing
type ResourceFilter struct {
	ProjectID *int64
}

// VolunteerCounts counts volunteers by status
type VolunteerCounts struct {
	Total     int `json:"total"`
	Active    int `json:"active"`
	Inactive  int `json:"inactive"`
	Suspended int `json:"suspended"`
}

// ProjectStatusCounts counts projects by status
type ProjectStatusCounts struct {
	Planned   int `json:"planned"`
	Active    int `json:"active"`
	Completed int `json:"completed"`
	Cancelled int `json:"cancelled"`
}

// Total is the number of projects across all statuses
func (c ProjectStatusCounts) Total() int {
	return c.Planned + c.Active + c.Completed + c.Cancelled
}

// ProjectVolunteerCount is the membership count of a single project
type ProjectVolunteerCount struct {
	ProjectID      int64  `json:"project_id" bson:"project_id"`
	ProjectName    string `json:"project_name" bson:"project_name"`
	VolunteerCount int    `json:"volunteer_count" bson:"volunteer_count"`
}

// AttendanceStats summarises present attendance across all events
type AttendanceStats struct {
	TotalAttendances          int     `json:"total_attendances"`
	AverageAttendancePerEvent float64 `json:"average_attendance_per_event"`
}

// AdminDashboardStats is the organisation-wide dashboard
type AdminDashboardStats struct {
	TotalVolunteers        int                     `json:"total_volunteers"`
	ActiveVolunteers       int                     `json:"active_volunteers"`
	TotalProjects          int                     `json:"total_projects"`
	ActiveProjects         int                     `json:"active_projects"`
	TotalEvents            int                     `json:"total_events"`
	UpcomingEvents         int                     `json:"upcoming_events"`
	ProjectStatusBreakdown ProjectStatusCounts     `json:"project_status_breakdown"`
	VolunteersPerProject   []ProjectVolunteerCount `json:"volunteers_per_project"`
	AttendanceStats        AttendanceStats         `json:"attendance_stats"`
}

// DashboardProject is a joined project on the volunteer dashboard
type DashboardProject struct {
	ProjectID   int64     `json:"project_id" bson:"project_id"`
	ProjectName string    `json:"project_name" bson:"project_name"`
	JoinDate    time.Time `json:"join_date" bson:"join_date"`
	Role        string    `json:"role" bson:"role"`
}

// DashboardEvent is an attended event on the volunteer dashboard
type DashboardEvent struct {
	EventID   int64     `json:"event_id" bson:"event_id"`
	EventName string    `json:"event_name" bson:"event_name"`
	EventDate time.Time `json:"event_date" bson:"event_date"`
	Status    string    `json:"status" bson:"status"`
}

// VolunteerDashboardStats is the dashboard of a single volunteer
type VolunteerDashboardStats struct {
	VolunteerID    int64              `json:"volunteer_id"`
	ProjectsJoined int                `json:"projects_joined"`
	EventsAttended int                `json:"events_attended"`
	UpcomingEvents int                `json:"upcoming_events"`
	Projects       []DashboardProject `json:"projects"`
	RecentEvents   []DashboardEvent   `json:"recent_events"`
}

// ProjectStats summarises a single project
type ProjectStats struct {
	ProjectID       int64 `json:"project_id"`
	VolunteerCount  int   `json:"volunteer_count"`
	EventCount      int   `json:"event_count"`
	ResourceCount   int   `json:"resource_count"`
	TotalAttendance int   `json:"total_attendance"`
}

// Activity types
const (
	ActivityVolunteerJoined  = "volunteer_joined"
	ActivityAttendanceMarked = "attendance_marked"
	ActivityEventCreated     = "event_created"
)

// Activity is one entry of the recent activity feed
type Activity struct {
	ActivityType string    `json:"activity_type" bson:"activity_type"`
	Description  string    `json:"description" bson:"description"`
	ActivityDate time.Time `json:"activity_date" bson:"activity_date"`
}

// DefaultActivityLimit is used when no positive limit is requested
const DefaultActivityLimit = 10

// RecentEventsLimit caps the recent events on the volunteer dashboard
const RecentEventsLimit = 10
