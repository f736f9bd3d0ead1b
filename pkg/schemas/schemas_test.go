package schemas

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/volunteer-hub/pkg/db"
)

func fieldErrors(t *testing.T, err error) map[string]string {
	t.Helper()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
	fields := make(map[string]string, len(verr.Fields))
	for _, f := range verr.Fields {
		fields[f.Field] = f.Message
	}
	return fields
}

func TestDecode_Register(t *testing.T) {
	var req RegisterRequest
	err := Decode(strings.NewReader(`{"name":"Jo","email":"jo@example.com","password":"longenough"}`), &req)

	require.NoError(t, err)
	assert.Equal(t, "Jo", req.Name)
	assert.Nil(t, req.Phone)
}

func TestDecode_RegisterInvalid(t *testing.T) {
	var req RegisterRequest
	err := Decode(strings.NewReader(`{"name":"J","email":"not-an-email","password":"short"}`), &req)

	fields := fieldErrors(t, err)
	assert.Equal(t, "must be at least 2 characters", fields["name"])
	assert.Equal(t, "must be a valid email address", fields["email"])
	assert.Equal(t, "must be at least 8 characters", fields["password"])
	assert.Contains(t, err.Error(), "validation failed")
}

func TestPasswordByteLimit(t *testing.T) {
	tests := []struct {
		name     string
		req      any
		field    string
		password string
	}{
		{name: "register ascii", req: &RegisterRequest{Name: "Jo", Email: "jo@example.com"}, field: "password", password: strings.Repeat("p", 80)},
		{name: "register multibyte under rune max", req: &RegisterRequest{Name: "Jo", Email: "jo@example.com"}, field: "password", password: strings.Repeat("€", 30)},
		{name: "change password", req: &ChangePasswordRequest{CurrentPassword: "old-password"}, field: "newPassword", password: strings.Repeat("p", 80)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			switch r := tt.req.(type) {
			case *RegisterRequest:
				r.Password = tt.password
			case *ChangePasswordRequest:
				r.NewPassword = tt.password
			}

			fields := fieldErrors(t, Validate(tt.req))
			assert.Equal(t, "must be at most 72 bytes", fields[tt.field])
		})
	}

	assert.NoError(t, Validate(&RegisterRequest{Name: "Jo", Email: "jo@example.com", Password: strings.Repeat("p", 72)}))
}

func TestDecode_MalformedJSON(t *testing.T) {
	var req LoginRequest
	err := Decode(strings.NewReader(`{"email":`), &req)

	fields := fieldErrors(t, err)
	assert.Equal(t, "must be valid JSON", fields["body"])
}

func TestDecode_WrongType(t *testing.T) {
	var req CreateResourceRequest
	err := Decode(strings.NewReader(`{"projectId":"seven"}`), &req)

	fields := fieldErrors(t, err)
	assert.Equal(t, "must be of type int64", fields["projectId"])
}

func TestDecode_EmptyBodyJoin(t *testing.T) {
	var req JoinProjectRequest
	err := Decode(strings.NewReader(""), &req)

	require.NoError(t, err)
	assert.Equal(t, db.DefaultMemberRole, req.MemberRole())
}

func TestJoinProjectRequest_RoleTooLong(t *testing.T) {
	err := Validate(&JoinProjectRequest{Role: strings.Repeat("x", 101)})

	fields := fieldErrors(t, err)
	assert.Equal(t, "must be at most 100 characters", fields["role"])
}

func TestUpdateVolunteerRequest(t *testing.T) {
	status := "retired"
	err := Validate(&UpdateVolunteerRequest{Status: &status})
	assert.Equal(t, "must be one of: active, inactive, suspended", fieldErrors(t, err)["status"])

	name := "Sam"
	req := UpdateVolunteerRequest{Name: &name}
	require.NoError(t, Validate(&req))
	assert.False(t, req.PrivilegedFields())
	assert.Equal(t, &name, req.Update().Name)

	role := db.RoleAdmin
	assert.True(t, UpdateVolunteerRequest{Role: &role}.PrivilegedFields())
}

func TestCreateProjectRequest(t *testing.T) {
	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.FixedZone("BST", 3600))
	req := CreateProjectRequest{
		OrgID:         1,
		Name:          "Garden",
		StartDate:     start,
		MaxVolunteers: 5,
	}
	require.NoError(t, Validate(&req))

	now := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	p := req.Project(now)
	assert.Equal(t, db.ProjectPlanned, p.Status)
	assert.Equal(t, time.UTC, p.StartDate.Location())
	assert.True(t, p.StartDate.Equal(start))
	assert.Equal(t, now, p.CreatedAt)
}

func TestCreateProjectRequest_Invalid(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(-time.Hour)
	req := CreateProjectRequest{Name: "Garden", StartDate: start, EndDate: &end, Status: "paused"}

	fields := fieldErrors(t, Validate(&req))
	assert.Equal(t, "is required", fields["orgId"])
	assert.Equal(t, "is required", fields["maxVolunteers"])
	assert.Equal(t, "must be one of: planned, active, completed, cancelled", fields["status"])
	assert.Equal(t, "must not be before startDate", fields["endDate"])
}

func TestCreateProjectRequest_MissingStartDate(t *testing.T) {
	req := CreateProjectRequest{OrgID: 1, Name: "Garden", MaxVolunteers: 1}

	fields := fieldErrors(t, Validate(&req))
	assert.Equal(t, "is required", fields["startDate"])
}

func TestCreateEventRequest_Recurrence(t *testing.T) {
	base := CreateEventRequest{
		ProjectID:       1,
		Name:            "Litter pick",
		EventDate:       time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC),
		MaxParticipants: 10,
	}

	valid := base
	valid.Recurrence = "FREQ=WEEKLY;COUNT=4"
	assert.NoError(t, Validate(&valid))

	invalid := base
	invalid.Recurrence = "FREQ=SOMETIMES"
	assert.Equal(t, "must be a valid RRULE", fieldErrors(t, Validate(&invalid))["recurrence"])

	orphan := base
	orphan.Occurrences = 3
	assert.Equal(t, "requires recurrence", fieldErrors(t, Validate(&orphan))["occurrences"])

	tooMany := valid
	tooMany.Occurrences = MaxOccurrences + 1
	assert.Equal(t, "must be at most 52", fieldErrors(t, Validate(&tooMany))["occurrences"])
}

func TestMarkAttendanceRequest(t *testing.T) {
	assert.NoError(t, Validate(&MarkAttendanceRequest{Status: db.AttendanceExcused}))

	fields := fieldErrors(t, Validate(&MarkAttendanceRequest{Status: "attended"}))
	assert.Equal(t, "must be one of: present, absent, excused", fields["status"])

	notes := strings.Repeat("n", 1001)
	fields = fieldErrors(t, Validate(&MarkAttendanceRequest{Status: db.AttendancePresent, Notes: &notes}))
	assert.Equal(t, "must be at most 1000 characters", fields["notes"])
}

func TestUpdateResourceRequest(t *testing.T) {
	zero := 0
	fields := fieldErrors(t, Validate(&UpdateResourceRequest{Quantity: &zero}))
	assert.Equal(t, "must be greater than 0", fields["quantity"])

	assert.True(t, UpdateResourceRequest{}.Update().Empty())
}

func TestSetBackendRequest(t *testing.T) {
	assert.NoError(t, Validate(&SetBackendRequest{DBType: "mongodb"}))
	assert.Error(t, Validate(&SetBackendRequest{DBType: "oracle"}))
}
