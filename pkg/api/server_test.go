package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-hub/pkg/auth"
	"github.com/jakechorley/volunteer-hub/pkg/db"
)

func TestHealth(t *testing.T) {
	h := newHarness(t, Options{})

	rec, resp := h.do("GET", "/api/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)
	assert.JSONEq(t, `{"status":"ok","backend":"postgres"}`, string(resp.Data))

	h.mongo.pingErr = errors.New("server selection timeout")
	rec, resp = h.do("GET", "/api/health", "", withCookie(backendCookie, "mongodb"))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.False(t, resp.Success)
	assert.Equal(t, "Database connection failed", resp.Error)
}

func TestBackendCookieSelectsStore(t *testing.T) {
	h := newHarness(t, Options{})

	_, resp := h.do("GET", "/api/projects", "", withCookie(backendCookie, "MongoDB"))
	assert.Contains(t, string(resp.Data), "mongodb project")

	_, resp = h.do("GET", "/api/projects", "", withCookie(backendCookie, "oracle"))
	assert.Contains(t, string(resp.Data), "postgres project")

	_, resp = h.do("GET", "/api/projects", "")
	assert.Contains(t, string(resp.Data), "postgres project")
}

func TestUnconfiguredBackend(t *testing.T) {
	signer, err := auth.NewSigner(testSecret, time.Hour)
	require.NoError(t, err)
	registry := db.NewRegistry(db.BackendPostgres)
	registry.Register(db.BackendMongoDB, newFakeDB("mongodb"))
	h := &harness{t: t, signer: signer}
	h.handler = NewServer(registry, signer, zap.NewNop(), Options{}).Handler()

	rec, resp := h.do("GET", "/api/projects", "")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "Database backend unavailable", resp.Error)
}

func TestSetBackend(t *testing.T) {
	h := newHarness(t, Options{CookieSecure: true})

	rec, resp := h.do("POST", "/api/backend", `{"dbType":"mongodb"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)

	c := findCookie(rec, backendCookie)
	require.NotNil(t, c)
	assert.Equal(t, "mongodb", c.Value)
	assert.True(t, c.Secure)
	assert.True(t, c.HttpOnly)

	rec, resp = h.do("POST", "/api/backend", `{"dbType":"oracle"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Validation failed", resp.Error)

	rec, resp = h.do("GET", "/api/backend", "", withCookie(backendCookie, "mongodb"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"dbType":"mongodb","default":"postgres","available":["mongodb","postgres"]}`, string(resp.Data))
}

func TestRoutesRequireRoles(t *testing.T) {
	h := newHarness(t, Options{})
	admin := h.token(1)
	volunteer := h.token(2)

	tests := []struct {
		name   string
		method string
		path   string
		setup  []func(*http.Request)
		want   int
	}{
		{name: "anonymous me", method: "GET", path: "/api/auth/me", want: http.StatusUnauthorized},
		{name: "garbage token", method: "GET", path: "/api/auth/me", setup: []func(*http.Request){bearer("not-a-token")}, want: http.StatusUnauthorized},
		{name: "volunteer me", method: "GET", path: "/api/auth/me", setup: []func(*http.Request){bearer(volunteer)}, want: http.StatusOK},
		{name: "cookie me", method: "GET", path: "/api/auth/me", setup: []func(*http.Request){withCookie(authCookie, volunteer)}, want: http.StatusOK},
		{name: "volunteer lists volunteers", method: "GET", path: "/api/volunteers", setup: []func(*http.Request){bearer(volunteer)}, want: http.StatusForbidden},
		{name: "admin lists volunteers", method: "GET", path: "/api/volunteers", setup: []func(*http.Request){bearer(admin)}, want: http.StatusOK},
		{name: "anonymous dashboard", method: "GET", path: "/api/dashboard/admin", want: http.StatusUnauthorized},
		{name: "anonymous join", method: "POST", path: "/api/projects/1/join", want: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, resp := h.do(tt.method, tt.path, "", tt.setup...)
			assert.Equal(t, tt.want, rec.Code)
			assert.Equal(t, tt.want == http.StatusOK, resp.Success)
		})
	}
}

func TestRegisterAndMe(t *testing.T) {
	h := newHarness(t, Options{})

	rec, resp := h.do("POST", "/api/auth/register", `{"name":"New Person","email":"new@example.com","password":"long-password"}`)
	require.Equal(t, http.StatusCreated, rec.Code, resp.Error)

	var session sessionView
	require.NoError(t, json.Unmarshal(resp.Data, &session))
	assert.Equal(t, "new@example.com", session.Email)
	assert.Equal(t, db.RoleVolunteer, session.Role)

	c := findCookie(rec, authCookie)
	require.NotNil(t, c)
	assert.Equal(t, int(time.Hour.Seconds()), c.MaxAge)

	rec, resp = h.do("GET", "/api/auth/me", "", withCookie(authCookie, c.Value))
	require.Equal(t, http.StatusOK, rec.Code)
	var profile profileView
	require.NoError(t, json.Unmarshal(resp.Data, &profile))
	assert.Equal(t, session.VolunteerID, profile.VolunteerID)
	assert.Equal(t, db.VolunteerActive, profile.Status)
}

func TestRegister_Errors(t *testing.T) {
	h := newHarness(t, Options{})

	rec, resp := h.do("POST", "/api/auth/register", `{"name":"V","email":"bad","password":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Validation failed", resp.Error)
	assert.Contains(t, string(resp.Details), `"field":"email"`)

	rec, resp = h.do("POST", "/api/auth/register", `{"name":"Val Again","email":"VAL@example.com","password":"long-password"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Email already registered", resp.Error)
}

func TestPasswordOverHashLimit(t *testing.T) {
	h := newHarness(t, Options{})
	long := strings.Repeat("p", 80)

	rec, resp := h.do("POST", "/api/auth/register",
		`{"name":"Long Pass","email":"long@example.com","password":"`+long+`"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Validation failed", resp.Error)
	assert.Contains(t, string(resp.Details), `"field":"password"`)
	assert.NotContains(t, string(resp.Details), "bcrypt")

	rec, resp = h.do("PUT", "/api/auth/password",
		`{"currentPassword":"correct-horse","newPassword":"`+long+`"}`, bearer(h.token(2)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Validation failed", resp.Error)
	assert.Contains(t, string(resp.Details), `"field":"newPassword"`)
}

func TestLogin(t *testing.T) {
	h := newHarness(t, Options{LoginPerMinute: 600, LoginBurst: 100})

	tests := []struct {
		name  string
		body  string
		want  int
		error string
	}{
		{name: "success", body: `{"email":"val@example.com","password":"correct-horse"}`, want: http.StatusOK},
		{name: "wrong password", body: `{"email":"val@example.com","password":"wrong-horse"}`, want: http.StatusUnauthorized, error: "Invalid email or password"},
		{name: "unknown email", body: `{"email":"who@example.com","password":"correct-horse"}`, want: http.StatusUnauthorized, error: "Invalid email or password"},
		{name: "inactive", body: `{"email":"ian@example.com","password":"correct-horse"}`, want: http.StatusForbidden, error: "Account is not active"},
		{name: "malformed", body: `{"email":`, want: http.StatusBadRequest, error: "Validation failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, resp := h.do("POST", "/api/auth/login", tt.body)
			assert.Equal(t, tt.want, rec.Code)
			assert.Equal(t, tt.error, resp.Error)
			if tt.want == http.StatusOK {
				assert.NotNil(t, findCookie(rec, authCookie))
			}
		})
	}
}

func TestLogout(t *testing.T) {
	h := newHarness(t, Options{})

	rec, resp := h.do("POST", "/api/auth/logout", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Logout successful", resp.Message)
	c := findCookie(rec, authCookie)
	require.NotNil(t, c)
	assert.Empty(t, c.Value)
	assert.Negative(t, c.MaxAge)
}

func TestLoginRateLimit(t *testing.T) {
	h := newHarness(t, Options{LoginPerMinute: 1, LoginBurst: 2})
	body := `{"email":"who@example.com","password":"correct-horse"}`

	for range 2 {
		rec, _ := h.do("POST", "/api/auth/login", body)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}

	rec, resp := h.do("POST", "/api/auth/login", body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.False(t, resp.Success)

	rec, _ = h.do("POST", "/api/auth/login", body, func(r *http.Request) {
		r.RemoteAddr = "198.51.100.7:4242"
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginRateLimit_IgnoresForwardedForFromUntrustedPeer(t *testing.T) {
	h := newHarness(t, Options{LoginPerMinute: 1, LoginBurst: 1})
	body := `{"email":"val@example.com","password":"wrong-horse"}`

	limited := 0
	for i := range 50 {
		rec, _ := h.do("POST", "/api/auth/login", body, func(r *http.Request) {
			r.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i+1))
		})
		if rec.Code == http.StatusTooManyRequests {
			limited++
		}
	}

	assert.Equal(t, 49, limited)
}

func TestLoginRateLimit_TrustedProxy(t *testing.T) {
	proxies, err := ParseTrustedProxies([]string{"192.0.2.0/24"})
	require.NoError(t, err)
	h := newHarness(t, Options{LoginPerMinute: 1, LoginBurst: 1, TrustedProxies: proxies})
	body := `{"email":"val@example.com","password":"wrong-horse"}`
	from := func(client string) func(*http.Request) {
		return func(r *http.Request) { r.Header.Set("X-Forwarded-For", client) }
	}

	rec, _ := h.do("POST", "/api/auth/login", body, from("203.0.113.1"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec, _ = h.do("POST", "/api/auth/login", body, from("203.0.113.1"))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec, _ = h.do("POST", "/api/auth/login", body, from("203.0.113.2"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// a client-supplied hop in front of the real one does not change the key
	rec, _ = h.do("POST", "/api/auth/login", body, from("10.9.9.9, 203.0.113.1"))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestListProjects_ViewerFromToken(t *testing.T) {
	h := newHarness(t, Options{})

	h.do("GET", "/api/projects?status=active", "", bearer(h.token(2)))
	require.NotNil(t, h.postgres.filter.ViewerID)
	assert.Equal(t, int64(2), *h.postgres.filter.ViewerID)
	assert.Equal(t, db.ProjectActive, h.postgres.filter.Status)

	h.do("GET", "/api/projects", "")
	assert.Nil(t, h.postgres.filter.ViewerID)

	rec, _ := h.do("GET", "/api/projects?status=paused", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestJoinAndLeave(t *testing.T) {
	h := newHarness(t, Options{})
	token := h.token(2)

	rec, resp := h.do("POST", "/api/projects/4/join", "", bearer(token))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(resp.Data), `"role":"participant"`)

	h.postgres.joinErr = db.ErrProjectFull
	rec, resp = h.do("POST", "/api/projects/4/join", `{"role":"lead"}`, bearer(token))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Project has reached maximum volunteers", resp.Error)

	h.postgres.joinErr = db.ErrAlreadyJoined
	rec, _ = h.do("POST", "/api/projects/4/join", "", bearer(token))
	assert.Equal(t, http.StatusConflict, rec.Code)

	h.postgres.joinErr = db.ErrNotFound
	rec, resp = h.do("POST", "/api/projects/4/join", "", bearer(token))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Project not found", resp.Error)

	h.postgres.joinErr = db.ErrVolunteerNotFound
	rec, resp = h.do("POST", "/api/projects/4/join", "", bearer(token))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Volunteer not found", resp.Error)

	h.postgres.leaveErr = db.ErrNotMember
	rec, _ = h.do("POST", "/api/projects/4/leave", "", bearer(token))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, resp = h.do("POST", "/api/projects/abc/join", "", bearer(token))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid project ID", resp.Error)
}

func TestUpdateProject_EndDateAgainstStoredStart(t *testing.T) {
	h := newHarness(t, Options{})
	admin := h.token(1)
	h.postgres.project = &db.Project{ID: 7, Name: "Park clean-up", StartDate: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)}

	rec, resp := h.do("PUT", "/api/projects/7", `{"endDate":"2025-05-01T00:00:00Z"}`, bearer(admin))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Validation failed", resp.Error)
	assert.Contains(t, string(resp.Details), `"field":"endDate"`)
	assert.False(t, h.postgres.updated)

	rec, resp = h.do("PUT", "/api/projects/7", `{"endDate":"2025-07-01T00:00:00Z"}`, bearer(admin))
	require.Equal(t, http.StatusOK, rec.Code, resp.Error)
	assert.True(t, h.postgres.updated)

	rec, resp = h.do("PUT", "/api/projects/8", `{"endDate":"2025-07-01T00:00:00Z"}`, bearer(admin))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Project not found", resp.Error)
}

func TestCreateEventSeries(t *testing.T) {
	h := newHarness(t, Options{})
	admin := h.token(1)

	body := `{"projectId":3,"name":"Litter pick","eventDate":"2025-06-01T09:00:00Z","maxParticipants":8,"recurrence":"FREQ=WEEKLY;COUNT=3"}`
	rec, resp := h.do("POST", "/api/events", body, bearer(admin))
	require.Equal(t, http.StatusCreated, rec.Code, resp.Error)

	var events []db.Event
	require.NoError(t, json.Unmarshal(resp.Data, &events))
	require.Len(t, events, 3)
	assert.Equal(t, time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC), events[2].EventDate)

	single := `{"projectId":3,"name":"Litter pick","eventDate":"2025-06-01T09:00:00Z","maxParticipants":8}`
	rec, resp = h.do("POST", "/api/events", single, bearer(admin))
	require.Equal(t, http.StatusCreated, rec.Code)
	var event db.Event
	require.NoError(t, json.Unmarshal(resp.Data, &event))
	assert.Equal(t, int64(4), event.ID)
}

func TestRequestTimeout(t *testing.T) {
	h := newHarness(t, Options{RequestTimeout: 10 * time.Millisecond})
	h.postgres.deadline = true

	rec, resp := h.do("GET", "/api/projects", "")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "Request timed out", resp.Error)
}

func TestPanicIsRecovered(t *testing.T) {
	h := newHarness(t, Options{})

	// ListOrganizations is not implemented by fakeDB
	rec, resp := h.do("GET", "/api/organizations", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", resp.Error)
}

func TestUnknownRoute(t *testing.T) {
	h := newHarness(t, Options{})

	rec, resp := h.do("GET", "/api/nope", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Route not found", resp.Error)
}

func TestRequestIDAndMetrics(t *testing.T) {
	h := newHarness(t, Options{})

	rec, _ := h.do("GET", "/api/health", "", func(r *http.Request) {
		r.Header.Set(requestHeader, "req-123")
	})
	assert.Equal(t, "req-123", rec.Header().Get(requestHeader))

	rec, _ = h.do("GET", "/api/health", "")
	assert.NotEmpty(t, rec.Header().Get(requestHeader))

	rec, _ = h.do("GET", "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `volunteer_hub_http_requests_total{backend="postgres",method="GET",route="/api/health",status="200"} 2`), body)
}
