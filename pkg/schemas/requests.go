package schemas

import (
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/jakechorley/volunteer-hub/pkg/auth"
	"github.com/jakechorley/volunteer-hub/pkg/db"
)

// MaxOccurrences caps the number of events a recurrence may expand into
const MaxOccurrences = 52

// RegisterRequest creates a volunteer account
type RegisterRequest struct {
	Name     string  `json:"name" validate:"required,min=2,max=200"`
	Email    string  `json:"email" validate:"required,email,max=200"`
	Password string  `json:"password" validate:"required,min=8,max=100"`
	Phone    *string `json:"phone" validate:"omitempty,max=20"`
}

func (r *RegisterRequest) check() []FieldError {
	return checkPasswordBytes("password", r.Password)
}

// LoginRequest authenticates a volunteer
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ChangePasswordRequest replaces the caller's password
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,max=100"`
}

func (r *ChangePasswordRequest) check() []FieldError {
	return checkPasswordBytes("newPassword", r.NewPassword)
}

// checkPasswordBytes enforces the hashing limit, which counts bytes rather than characters
func checkPasswordBytes(field, password string) []FieldError {
	if len(password) > auth.MaxPasswordBytes {
		return []FieldError{{Field: field, Message: fmt.Sprintf("must be at most %d bytes", auth.MaxPasswordBytes)}}
	}
	return nil
}

// UpdateVolunteerRequest edits a volunteer. Only admins may change status or role.
type UpdateVolunteerRequest struct {
	Name   *string `json:"name" validate:"omitempty,min=2,max=200"`
	Email  *string `json:"email" validate:"omitempty,email,max=200"`
	Phone  *string `json:"phone" validate:"omitempty,max=20"`
	Status *string `json:"status" validate:"omitempty,oneof=active inactive suspended"`
	Role   *string `json:"role" validate:"omitempty,oneof=admin volunteer"`
}

// Update converts the request into a partial update
func (r UpdateVolunteerRequest) Update() db.VolunteerUpdate {
	return db.VolunteerUpdate{Name: r.Name, Email: r.Email, Phone: r.Phone, Status: r.Status, Role: r.Role}
}

// PrivilegedFields reports whether the request touches admin-only fields
func (r UpdateVolunteerRequest) PrivilegedFields() bool {
	return r.Status != nil || r.Role != nil
}

// CreateOrganizationRequest creates an organization
type CreateOrganizationRequest struct {
	Name        string  `json:"name" validate:"required,min=2,max=200"`
	Description *string `json:"description" validate:"omitempty,max=4000"`
	Email       *string `json:"email" validate:"omitempty,email,max=200"`
	Phone       *string `json:"phone" validate:"omitempty,max=20"`
	Address     *string `json:"address" validate:"omitempty,max=500"`
}

// Organization builds the record to insert
func (r CreateOrganizationRequest) Organization(now time.Time) *db.Organization {
	return &db.Organization{
		Name:        r.Name,
		Description: r.Description,
		Email:       r.Email,
		Phone:       r.Phone,
		Address:     r.Address,
		CreatedAt:   now,
	}
}

// CreateProjectRequest creates a project
type CreateProjectRequest struct {
	OrgID         int64      `json:"orgId" validate:"required,gt=0"`
	Name          string     `json:"name" validate:"required,min=2,max=200"`
	Description   *string    `json:"description" validate:"omitempty,max=4000"`
	StartDate     time.Time  `json:"startDate" validate:"required"`
	EndDate       *time.Time `json:"endDate"`
	Status        string     `json:"status" validate:"omitempty,oneof=planned active completed cancelled"`
	Location      *string    `json:"location" validate:"omitempty,max=500"`
	MaxVolunteers int        `json:"maxVolunteers" validate:"required,gt=0"`
}

func (r *CreateProjectRequest) check() []FieldError {
	if r.EndDate != nil && !r.StartDate.IsZero() && r.EndDate.Before(r.StartDate) {
		return []FieldError{{Field: "endDate", Message: "must not be before startDate"}}
	}
	return nil
}

// Project builds the record to insert. Status defaults to planned.
func (r CreateProjectRequest) Project(now time.Time) *db.Project {
	status := r.Status
	if status == "" {
		status = db.ProjectPlanned
	}
	return &db.Project{
		OrgID:         r.OrgID,
		Name:          r.Name,
		Description:   r.Description,
		StartDate:     normalize(r.StartDate),
		EndDate:       utcPtr(r.EndDate),
		Status:        status,
		Location:      r.Location,
		MaxVolunteers: r.MaxVolunteers,
		CreatedAt:     now,
	}
}

// UpdateProjectRequest edits a project. Any status may change to any other.
type UpdateProjectRequest struct {
	OrgID         *int64     `json:"orgId" validate:"omitempty,gt=0"`
	Name          *string    `json:"name" validate:"omitempty,min=2,max=200"`
	Description   *string    `json:"description" validate:"omitempty,max=4000"`
	StartDate     *time.Time `json:"startDate"`
	EndDate       *time.Time `json:"endDate"`
	Status        *string    `json:"status" validate:"omitempty,oneof=planned active completed cancelled"`
	Location      *string    `json:"location" validate:"omitempty,max=500"`
	MaxVolunteers *int       `json:"maxVolunteers" validate:"omitempty,gt=0"`
}

func (r *UpdateProjectRequest) check() []FieldError {
	if r.StartDate != nil && r.EndDate != nil && r.EndDate.Before(*r.StartDate) {
		return []FieldError{{Field: "endDate", Message: "must not be before startDate"}}
	}
	return nil
}

// Update converts the request into a partial update
func (r UpdateProjectRequest) Update() db.ProjectUpdate {
	return db.ProjectUpdate{
		OrgID:         r.OrgID,
		Name:          r.Name,
		Description:   r.Description,
		StartDate:     utcPtr(r.StartDate),
		EndDate:       utcPtr(r.EndDate),
		Status:        r.Status,
		Location:      r.Location,
		MaxVolunteers: r.MaxVolunteers,
	}
}

// JoinProjectRequest joins the caller to a project
type JoinProjectRequest struct {
	Role string `json:"role" validate:"max=100"`
}

// MemberRole returns the requested role or the default
func (r JoinProjectRequest) MemberRole() string {
	if role := strings.TrimSpace(r.Role); role != "" {
		return role
	}
	return db.DefaultMemberRole
}

// CreateEventRequest creates an event, or a series of events when a
// recurrence rule is given
type CreateEventRequest struct {
	ProjectID       int64     `json:"projectId" validate:"required,gt=0"`
	Name            string    `json:"name" validate:"required,min=2,max=200"`
	Description     *string   `json:"description" validate:"omitempty,max=4000"`
	EventDate       time.Time `json:"eventDate" validate:"required"`
	Location        *string   `json:"location" validate:"omitempty,max=500"`
	MaxParticipants int       `json:"maxParticipants" validate:"required,gt=0"`
	Recurrence      string    `json:"recurrence" validate:"omitempty,max=500"`
	Occurrences     int       `json:"occurrences" validate:"omitempty,min=1,max=52"`
}

func (r *CreateEventRequest) check() []FieldError {
	if r.Recurrence == "" {
		if r.Occurrences != 0 {
			return []FieldError{{Field: "occurrences", Message: "requires recurrence"}}
		}
		return nil
	}
	if _, err := rrule.StrToROption(r.Recurrence); err != nil {
		return []FieldError{{Field: "recurrence", Message: "must be a valid RRULE"}}
	}
	return nil
}

// Event builds the first (or only) event to insert
func (r CreateEventRequest) Event(now time.Time) *db.Event {
	return &db.Event{
		ProjectID:       r.ProjectID,
		Name:            r.Name,
		Description:     r.Description,
		EventDate:       normalize(r.EventDate),
		Location:        r.Location,
		MaxParticipants: r.MaxParticipants,
		CreatedAt:       now,
	}
}

// UpdateEventRequest edits an event
type UpdateEventRequest struct {
	Name            *string    `json:"name" validate:"omitempty,min=2,max=200"`
	Description     *string    `json:"description" validate:"omitempty,max=4000"`
	EventDate       *time.Time `json:"eventDate"`
	Location        *string    `json:"location" validate:"omitempty,max=500"`
	MaxParticipants *int       `json:"maxParticipants" validate:"omitempty,gt=0"`
}

// Update converts the request into a partial update
func (r UpdateEventRequest) Update() db.EventUpdate {
	return db.EventUpdate{
		Name:            r.Name,
		Description:     r.Description,
		EventDate:       utcPtr(r.EventDate),
		Location:        r.Location,
		MaxParticipants: r.MaxParticipants,
	}
}

// MarkAttendanceRequest records attendance. VolunteerID is honoured for
// admins only; everyone else marks themselves.
type MarkAttendanceRequest struct {
	VolunteerID *int64  `json:"volunteerId" validate:"omitempty,gt=0"`
	Status      string  `json:"status" validate:"required,oneof=present absent excused"`
	Notes       *string `json:"notes" validate:"omitempty,max=1000"`
}

// CreateResourceRequest adds a resource to a project
type CreateResourceRequest struct {
	ProjectID   int64   `json:"projectId" validate:"required,gt=0"`
	Name        string  `json:"name" validate:"required,min=2,max=200"`
	Type        *string `json:"type" validate:"omitempty,max=100"`
	Quantity    int     `json:"quantity" validate:"required,gt=0"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
}

// Resource builds the record to insert
func (r CreateResourceRequest) Resource(now time.Time) *db.Resource {
	return &db.Resource{
		ProjectID:   r.ProjectID,
		Name:        r.Name,
		Type:        r.Type,
		Quantity:    r.Quantity,
		Description: r.Description,
		CreatedAt:   now,
	}
}

// UpdateResourceRequest edits a resource
type UpdateResourceRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=2,max=200"`
	Type        *string `json:"type" validate:"omitempty,max=100"`
	Quantity    *int    `json:"quantity" validate:"omitempty,gt=0"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
}

// Update converts the request into a partial update
func (r UpdateResourceRequest) Update() db.ResourceUpdate {
	return db.ResourceUpdate{Name: r.Name, Type: r.Type, Quantity: r.Quantity, Description: r.Description}
}

// SetBackendRequest selects the storage backend for the session
type SetBackendRequest struct {
	DBType string `json:"dbType" validate:"required,oneof=postgres mongodb"`
}

// normalize stores instants in UTC at millisecond precision, the finest
// resolution both backends keep
func normalize(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := normalize(*t)
	return &u
}
