package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-hub/pkg/auth"
	"github.com/jakechorley/volunteer-hub/pkg/db"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const testSecret = "0123456789abcdef0123456789abcdef"

// fakeDB implements the parts of db.Database the handlers under test reach.
// Calling anything else panics on the nil embedded interface.
type fakeDB struct {
	db.Database
	name       string
	pingErr    error
	volunteers map[int64]*db.Volunteer
	nextID     int64
	joinErr    error
	leaveErr   error
	events     []db.Event
	filter     db.ProjectFilter
	deadline   bool
	project    *db.Project
	updated    bool
}

func newFakeDB(name string, vs ...db.Volunteer) *fakeDB {
	f := &fakeDB{name: name, volunteers: make(map[int64]*db.Volunteer), nextID: 1}
	for i := range vs {
		v := vs[i]
		f.volunteers[v.ID] = &v
		if v.ID >= f.nextID {
			f.nextID = v.ID + 1
		}
	}
	return f
}

func (f *fakeDB) Ping(ctx context.Context) error {
	return f.pingErr
}

func (f *fakeDB) ListVolunteers(ctx context.Context) ([]db.Volunteer, error) {
	out := []db.Volunteer{}
	for _, v := range f.volunteers {
		out = append(out, *v)
	}
	return out, nil
}

func (f *fakeDB) GetVolunteer(ctx context.Context, id int64) (*db.Volunteer, error) {
	v, ok := f.volunteers[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	out := *v
	out.PasswordHash = ""
	return &out, nil
}

func (f *fakeDB) GetVolunteerByEmail(ctx context.Context, email string) (*db.Volunteer, error) {
	for _, v := range f.volunteers {
		if strings.EqualFold(v.Email, email) {
			out := *v
			return &out, nil
		}
	}
	return nil, db.ErrNotFound
}

func (f *fakeDB) CreateVolunteer(ctx context.Context, v *db.Volunteer) (*db.Volunteer, error) {
	if _, err := f.GetVolunteerByEmail(ctx, v.Email); err == nil {
		return nil, db.ErrEmailTaken
	}
	created := *v
	created.ID = f.nextID
	f.nextID++
	f.volunteers[created.ID] = &created
	return f.GetVolunteer(ctx, created.ID)
}

func (f *fakeDB) ListProjects(ctx context.Context, filter db.ProjectFilter) ([]db.Project, error) {
	f.filter = filter
	if f.deadline {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return []db.Project{{ID: 1, Name: f.name + " project"}}, nil
}

func (f *fakeDB) GetProject(ctx context.Context, id int64) (*db.Project, error) {
	if f.project == nil || f.project.ID != id {
		return nil, db.ErrNotFound
	}
	p := *f.project
	return &p, nil
}

func (f *fakeDB) UpdateProject(ctx context.Context, id int64, u db.ProjectUpdate) (*db.Project, error) {
	p, err := f.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.StartDate != nil {
		p.StartDate = *u.StartDate
	}
	if u.EndDate != nil {
		p.EndDate = u.EndDate
	}
	f.updated = true
	return p, nil
}

func (f *fakeDB) JoinProject(ctx context.Context, volunteerID, projectID int64, role string, joinedAt time.Time) (*db.Membership, error) {
	if f.joinErr != nil {
		return nil, f.joinErr
	}
	return &db.Membership{VolunteerID: volunteerID, ProjectID: projectID, Role: role, JoinDate: joinedAt}, nil
}

func (f *fakeDB) LeaveProject(ctx context.Context, volunteerID, projectID int64) error {
	return f.leaveErr
}

func (f *fakeDB) CreateEvent(ctx context.Context, e *db.Event) (*db.Event, error) {
	created := *e
	created.ID = int64(len(f.events) + 1)
	f.events = append(f.events, created)
	return &created, nil
}

type response struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
	Details json.RawMessage `json:"details"`
}

type harness struct {
	t        *testing.T
	handler  http.Handler
	signer   *auth.Signer
	postgres *fakeDB
	mongo    *fakeDB
}

func newHarness(t *testing.T, opts Options) *harness {
	t.Helper()
	signer, err := auth.NewSigner(testSecret, time.Hour)
	require.NoError(t, err)

	hash, err := auth.HashPassword("correct-horse")
	require.NoError(t, err)

	h := &harness{
		t:      t,
		signer: signer,
		postgres: newFakeDB("postgres",
			db.Volunteer{ID: 1, Name: "Ada Admin", Email: "ada@example.com", Role: db.RoleAdmin, Status: db.VolunteerActive, PasswordHash: hash},
			db.Volunteer{ID: 2, Name: "Val Volunteer", Email: "val@example.com", Role: db.RoleVolunteer, Status: db.VolunteerActive, PasswordHash: hash},
			db.Volunteer{ID: 3, Name: "Ian Inactive", Email: "ian@example.com", Role: db.RoleVolunteer, Status: db.VolunteerInactive, PasswordHash: hash},
		),
		mongo: newFakeDB("mongodb"),
	}

	registry := db.NewRegistry(db.BackendPostgres)
	registry.Register(db.BackendPostgres, h.postgres)
	registry.Register(db.BackendMongoDB, h.mongo)

	h.handler = NewServer(registry, signer, zap.NewNop(), opts).Handler()
	return h
}

func (h *harness) token(id int64) string {
	h.t.Helper()
	v := h.postgres.volunteers[id]
	require.NotNil(h.t, v)
	token, err := h.signer.Sign(v)
	require.NoError(h.t, err)
	return token
}

func (h *harness) do(method, path, body string, setup ...func(*http.Request)) (*httptest.ResponseRecorder, response) {
	h.t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, fn := range setup {
		fn(req)
	}

	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)

	var resp response
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(h.t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	}
	return rec, resp
}

func bearer(token string) func(*http.Request) {
	return func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	}
}

func withCookie(name, value string) func(*http.Request) {
	return func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: name, Value: value})
	}
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
