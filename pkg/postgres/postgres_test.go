package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/volunteer-hub/pkg/db"
	"github.com/jakechorley/volunteer-hub/pkg/db/dbtest"
)

// DSNEnv names the variable holding a disposable test database
const DSNEnv = "VHUB_TEST_POSTGRES_DSN"

// newTestDB connects to the test database, applies migrations and empties every table
func newTestDB(t *testing.T) db.Database {
	t.Helper()
	dsn := os.Getenv(DSNEnv)
	if dsn == "" {
		t.Skipf("%s not set", DSNEnv)
	}

	ctx := context.Background()
	d, err := NewDB(ctx, dsn, Options{MaxConns: 10})
	require.NoError(t, err)
	t.Cleanup(func() { d.Close(ctx) })

	require.NoError(t, d.RunMigrations(ctx))
	_, err = d.pool.Exec(ctx, `
		TRUNCATE event_attendance, volunteer_project, resources, events, projects, volunteers, organizations
		RESTART IDENTITY CASCADE
	`)
	require.NoError(t, err)
	return d
}

func TestContract(t *testing.T) {
	if os.Getenv(DSNEnv) == "" {
		t.Skipf("%s not set", DSNEnv)
	}
	dbtest.Run(t, newTestDB)
}

func TestRunMigrations_Idempotent(t *testing.T) {
	d := newTestDB(t).(*DB)
	assert.NoError(t, d.RunMigrations(context.Background()))
}

func TestTranslateError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected error
		mapped   bool
	}{
		{"no rows", pgx.ErrNoRows, db.ErrNotFound, true},
		{"wrapped no rows", fmt.Errorf("scan: %w", pgx.ErrNoRows), db.ErrNotFound, true},
		{"email unique", &pgconn.PgError{Code: codeUniqueViolation, ConstraintName: "idx_volunteers_email_lower"}, db.ErrEmailTaken, true},
		{"membership unique", &pgconn.PgError{Code: codeUniqueViolation, ConstraintName: "volunteer_project_pkey"}, db.ErrAlreadyJoined, true},
		{"foreign key", &pgconn.PgError{Code: codeForeignKeyViolation, ConstraintName: "projects_org_id_fkey"}, db.ErrNotFound, true},
		{"other unique", &pgconn.PgError{Code: codeUniqueViolation, ConstraintName: "something_else"}, nil, false},
		{"check violation", &pgconn.PgError{Code: "23514"}, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := translateError(tt.err)
			assert.Equal(t, tt.mapped, ok)
			if tt.mapped {
				assert.ErrorIs(t, got, tt.expected)
			} else {
				assert.Same(t, tt.err, got)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	assert.Same(t, db.ErrNotFound, wrap("get project", pgx.ErrNoRows))

	cause := errors.New("connection reset")
	err := wrap("insert project", cause)
	assert.EqualError(t, err, "failed to insert project: connection reset")
	assert.ErrorIs(t, err, cause)
}

func TestSetClause(t *testing.T) {
	var set setClause
	set.add("name", "Garden")
	set.add("status", "active")

	query, args := set.sql("projects", "project_id", 7)

	assert.Equal(t, "UPDATE projects SET name = $1, status = $2 WHERE project_id = $3", query)
	assert.Equal(t, []any{"Garden", "active", int64(7)}, args)
}
