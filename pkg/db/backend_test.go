package db

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubDatabase satisfies Database for registry tests; methods are never called
type stubDatabase struct {
	Database
	name string
}

func TestParseBackend(t *testing.T) {
	tests := []struct {
		input   string
		want    Backend
		wantErr bool
	}{
		{"postgres", BackendPostgres, false},
		{"POSTGRES", BackendPostgres, false},
		{" mongodb ", BackendMongoDB, false},
		{"MongoDB", BackendMongoDB, false},
		{"oracle", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseBackend(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRegistry_For(t *testing.T) {
	pg := &stubDatabase{name: "pg"}
	reg := NewRegistry(BackendPostgres)
	reg.Register(BackendPostgres, pg)

	got, err := reg.For(BackendPostgres)
	require.NoError(t, err)
	assert.Same(t, pg, got)

	_, err = reg.For(BackendMongoDB)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBackendUnavailable))
}

func TestRegistry_Resolve(t *testing.T) {
	reg := NewRegistry(BackendMongoDB)

	assert.Equal(t, BackendMongoDB, reg.Resolve(""))
	assert.Equal(t, BackendMongoDB, reg.Resolve("oracle"))
	assert.Equal(t, BackendPostgres, reg.Resolve("Postgres"))
	assert.Equal(t, BackendMongoDB, reg.Default())
}

func TestRegistry_BackendsSorted(t *testing.T) {
	reg := NewRegistry(BackendPostgres)
	reg.Register(BackendPostgres, &stubDatabase{})
	reg.Register(BackendMongoDB, &stubDatabase{})

	assert.Equal(t, []Backend{BackendMongoDB, BackendPostgres}, reg.Backends())
}

func TestAveragePerEvent(t *testing.T) {
	assert.Equal(t, 0.0, AveragePerEvent(5, 0))
	assert.Equal(t, 2.0, AveragePerEvent(4, 2))
	assert.Equal(t, 1.33, AveragePerEvent(4, 3))
	assert.Equal(t, 1.67, AveragePerEvent(5, 3))
}

func TestUpdateEmpty(t *testing.T) {
	name := "x"
	assert.True(t, VolunteerUpdate{}.Empty())
	assert.False(t, VolunteerUpdate{Name: &name}.Empty())
	assert.True(t, ProjectUpdate{}.Empty())
	assert.False(t, ProjectUpdate{Location: &name}.Empty())
	assert.True(t, EventUpdate{}.Empty())
	assert.True(t, ResourceUpdate{}.Empty())
	assert.False(t, ResourceUpdate{Type: &name}.Empty())
}

func TestProjectStatusCounts_Total(t *testing.T) {
	c := ProjectStatusCounts{Planned: 1, Active: 2, Completed: 3, Cancelled: 4}
	assert.Equal(t, 10, c.Total())
}

func TestErrVolunteerNotFound(t *testing.T) {
	assert.ErrorIs(t, ErrVolunteerNotFound, ErrNotFound)
	assert.False(t, errors.Is(ErrNotFound, ErrVolunteerNotFound))
	assert.Equal(t, "volunteer record not found", ErrVolunteerNotFound.Error())
}
