package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-hub/pkg/db"
)

func TestDashboards_UseCurrentTime(t *testing.T) {
	freezeTime(t)
	store := &mockDashboardStore{}

	_, err := AdminDashboard(context.Background(), store, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, fixedNow, store.at)

	stats, err := VolunteerDashboard(context.Background(), store, zap.NewNop(), 6)
	require.NoError(t, err)
	assert.Equal(t, int64(6), stats.VolunteerID)
	assert.Equal(t, int64(6), store.volunteer)
}

func TestRecentActivity_Limit(t *testing.T) {
	tests := []struct {
		limit int
		want  int
	}{
		{limit: 0, want: db.DefaultActivityLimit},
		{limit: -3, want: db.DefaultActivityLimit},
		{limit: 25, want: 25},
		{limit: 500, want: db.DefaultActivityLimit},
	}

	for _, tt := range tests {
		store := &mockDashboardStore{}
		_, err := RecentActivity(context.Background(), store, zap.NewNop(), tt.limit)
		require.NoError(t, err)
		assert.Equal(t, tt.want, store.limit, "limit %d", tt.limit)
	}
}
