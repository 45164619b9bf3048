// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"testing"

	"github.com/nhle/community-roots/internal/model"
	"github.com/nhle/community-roots/internal/store"
)

// NewTestStore creates an in-memory SQLiteStore with all migrations applied.
// It automatically closes the store when the test completes.
func NewTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T { return &v }

// Parks returns a small two-park collection with a mix of task states.
func Parks() []model.Park {
	return []model.Park{
		{
			ID:          "p1",
			Name:        "Riverside Park",
			Location:    "5 Oak St",
			Description: "Quiet spot",
			Lat:         Ptr(40.1),
			Lng:         Ptr(-73.9),
			Tasks: []model.Task{
				{ID: "t1", Title: "Weed beds", Description: "North side", Status: model.StatusOpen, Volunteers: []string{"Ann"}, Date: "2024-05-01", Urgency: model.UrgencyHigh},
				{ID: "t2", Title: "Paint benches", Description: "Green", Status: model.StatusCompleted, Volunteers: []string{}, Date: "2024-04-20", Urgency: model.UrgencyLow},
			},
		},
		{
			ID:          "p2",
			Name:        "Hilltop Green",
			Location:    "1 Summit Rd",
			Description: "Windy",
			MapURL:      "https://maps.example/hilltop",
			Tasks:       []model.Task{},
		},
	}
}
