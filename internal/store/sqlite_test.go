package store_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/community-roots/internal/model"
	"github.com/nhle/community-roots/internal/store"
	"github.com/nhle/community-roots/internal/testutil"
)

func TestSQLiteStoreEmpty(t *testing.T) {
	s := testutil.NewTestStore(t)

	snap, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, snap.Empty())
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	when := time.Date(2024, 5, 17, 10, 0, 0, 0, time.UTC)
	want := store.Snapshot{
		Parks: testutil.Parks(),
		Ledger: []model.LedgerEntry{
			{ID: "e2", Action: "Completed: Weed beds", Points: 10, Date: when.Add(time.Hour)},
			{ID: "e1", Action: "Joined Community Roots", Points: 40, Date: when},
		},
	}

	require.NoError(t, s.Save(ctx, want))

	got, err := s.Load(ctx)
	require.NoError(t, err)

	opt := cmp.Comparer(func(a, b time.Time) bool { return a.Equal(b) })
	if diff := cmp.Diff(want, got, opt); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestSQLiteStoreSaveReplaces(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	require.NoError(t, s.Save(ctx, store.Snapshot{Parks: testutil.Parks()}))

	next := []model.Park{{ID: "found-1-0", Name: "Elsewhere", Tasks: []model.Task{}}}
	require.NoError(t, s.Save(ctx, store.Snapshot{Parks: next}))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got.Parks, 1)
	assert.Equal(t, "Elsewhere", got.Parks[0].Name)
	assert.Nil(t, got.Parks[0].Lat)
	assert.Empty(t, got.Ledger)
}

func TestSQLiteStoreRejectsDuplicateTask(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)
	require.NoError(t, s.Save(ctx, store.Snapshot{Parks: testutil.Parks()}))

	bad := testutil.Parks()
	bad[0].Tasks = append(bad[0].Tasks, bad[0].Tasks[0])
	require.Error(t, s.Save(ctx, store.Snapshot{Parks: bad}))

	// The failed save rolled back.
	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, got.Parks[0].Tasks, 2)
}

func TestSQLiteStoreReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "roots.db")

	s, err := store.NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, store.Snapshot{Parks: testutil.Parks()}))
	require.NoError(t, s.Close())

	s, err = store.NewSQLiteStore(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, got.Parks, 2)
}
